package coordinator

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/DonutLine/internal/domain"
)

// Engine — исполнительный движок одной фазы (ML-политика + приводы).
//
// Для координатора движок непрозрачен: RunPhase выполняет физическую
// работу фазы и возвращается, когда работа закончена или когда
// контекст отменён. Отмена — это просьба остановиться корректно,
// а не авария: после неё RunPhase возвращает nil.
type Engine interface {
	RunPhase(ctx context.Context, phase domain.OrderPhase, flavor domain.Flavor) error
}

// SimEngine — симуляция движка для запуска без железа.
//
// Каждая фаза — просто пауза фиксированной длительности.
type SimEngine struct {
	// PhaseDuration — длительность одной фазы (default: 2s).
	PhaseDuration time.Duration

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// RunPhase выполняет симулированную фазу.
func (e *SimEngine) RunPhase(ctx context.Context, phase domain.OrderPhase, flavor domain.Flavor) error {
	d := e.PhaseDuration
	if d <= 0 {
		d = 2 * time.Second
	}

	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("sim engine running phase", "phase", phase, "flavor", flavor, "duration", d)

	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		// корректная остановка по просьбе координатора
		return nil
	}
}
