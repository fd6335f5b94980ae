package lifecycle

import (
	"log/slog"

	"github.com/shaiso/DonutLine/internal/bus"
	"github.com/shaiso/DonutLine/internal/domain"
)

// Фиксированные сообщения жизненного цикла.
const (
	msgOrderAccepted = "order accepted"
	msgCompleted     = "doughnuts packed into the box"
	msgCanceled      = "order canceled"
)

// FlavorUnknown — подстановка вкуса для заказа, которого нет
// в локальном реестре.
const FlavorUnknown = "unknown"

// Manager — машина жизненного цикла заказа.
//
// Каждая операция мутирует локальный реестр (если заказ известен
// этому процессу) и безусловно публикует событие в шину: так
// relay-события для чужих заказов (созданных в другом процессе)
// всё равно доходят до подписчика.
type Manager struct {
	registry *Registry
	bus      *bus.Bus
	logger   *slog.Logger
}

// NewManager создаёт Manager поверх реестра и шины.
func NewManager(registry *Registry, b *bus.Bus, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		bus:      b,
		logger:   logger,
	}
}

// Registry возвращает реестр заказов.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// CreateOrder создаёт заказ в фазе WAITING и публикует StatusUpdate.
func (m *Manager) CreateOrder(flavor domain.Flavor, tableID, userID string) domain.Order {
	order := m.registry.Create(flavor, tableID, userID)

	m.logger.Info("order created",
		"request_id", order.RequestID,
		"flavor", order.Flavor,
	)

	m.bus.Publish(domain.NewStatusUpdate(order.RequestID, domain.PhaseWaiting, 0.0, msgOrderAccepted))
	return order
}

// SetPhase переводит заказ в указанную фазу и публикует StatusUpdate.
//
// Порядок фаз вдоль happy path не валидируется (поведение эталона);
// терминальные фазы при этом поглощающие на уровне реестра.
func (m *Manager) SetPhase(requestID string, phase domain.OrderPhase, message string, progress float64) {
	m.registry.Mutate(requestID, func(o *domain.Order) {
		o.SetPhase(phase, message, progress)
	})

	m.bus.Publish(domain.NewStatusUpdate(requestID, phase, progress, message))
}

// MarkCompleted переводит заказ в DONE (progress 1.0) и публикует
// Completed с payload {delivered: true, flavor}. Если заказ не
// известен локально, вместо вкуса подставляется "unknown".
func (m *Manager) MarkCompleted(requestID string) {
	flavor := FlavorUnknown
	if order, ok := m.registry.Get(requestID); ok {
		flavor = string(order.Flavor)
	}

	m.registry.Mutate(requestID, func(o *domain.Order) {
		o.MarkCompleted(msgCompleted)
	})

	m.logger.Info("order completed", "request_id", requestID, "flavor", flavor)

	m.bus.Publish(domain.NewCompleted(requestID, domain.CompletedResult{
		Delivered: true,
		Flavor:    flavor,
	}))
}

// MarkCanceled переводит заказ в CANCELED.
//
// Событие отмены переиспользует форму ErrorEvent — асимметрия
// унаследована от эталонного протокола и сохранена намеренно,
// чтобы не ломать существующих подписчиков.
func (m *Manager) MarkCanceled(requestID string) {
	m.registry.Mutate(requestID, func(o *domain.Order) {
		o.MarkCanceled(msgCanceled)
	})

	m.logger.Info("order canceled", "request_id", requestID)

	m.bus.Publish(domain.NewError(requestID, msgCanceled))
}

// MarkError переводит заказ в ERROR и публикует ErrorEvent.
func (m *Manager) MarkError(requestID, message string) {
	m.registry.Mutate(requestID, func(o *domain.Order) {
		o.MarkError(message)
	})

	m.logger.Warn("order failed", "request_id", requestID, "error", message)

	m.bus.Publish(domain.NewError(requestID, message))
}

// Apply применяет событие, полученное по relay, к локальному
// реестру. Используется принимающим циклом gateway: worker шлёт
// события о заказах, которыми владеет реестр gateway.
func (m *Manager) Apply(ev domain.Event) {
	switch e := ev.(type) {
	case domain.StatusUpdateEvent:
		m.registry.Mutate(e.RequestID, func(o *domain.Order) {
			o.SetPhase(e.Stage, e.Message, e.Progress)
		})

	case domain.CompletedEvent:
		m.registry.Mutate(e.RequestID, func(o *domain.Order) {
			o.MarkCompleted(msgCompleted)
		})

	case domain.ErrorEvent:
		m.registry.Mutate(e.RequestID, func(o *domain.Order) {
			if e.Message == msgCanceled {
				o.MarkCanceled(msgCanceled)
			} else {
				o.MarkError(e.Message)
			}
		})
	}
}
