package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/DonutLine/internal/archive"
	"github.com/shaiso/DonutLine/internal/bus"
	"github.com/shaiso/DonutLine/internal/domain"
	"github.com/shaiso/DonutLine/internal/lifecycle"
)

// CommandSender отправляет команду worker-процессу и ждёт ответ.
// Реализуется relay.ControlClient.
type CommandSender interface {
	Send(ctx context.Context, cmd domain.WorkerCommand) (domain.CommandResponse, error)
}

// EventLister читает журнал событий одного заказа.
// Реализуется archive.EventArchive.
type EventLister interface {
	ListByRequest(ctx context.Context, requestID string, limit int) ([]archive.ArchivedEvent, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	lifecycle *lifecycle.Manager
	control   CommandSender
	events    *bus.Bus
	history   EventLister
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	// Lifecycle — машина жизненного цикла gateway-процесса.
	Lifecycle *lifecycle.Manager

	// Control — клиент управляющего канала worker'а.
	Control CommandSender

	// Events — шина событий gateway'я (источник SSE-потока).
	Events *bus.Bus

	// History — журнал событий заказов; nil, если архив не
	// сконфигурирован (эндпоинт истории отвечает 404).
	History EventLister

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		lifecycle: cfg.Lifecycle,
		control:   cfg.Control,
		events:    cfg.Events,
		history:   cfg.History,
		logger:    logger,
	}
}
