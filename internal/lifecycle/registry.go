package lifecycle

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/DonutLine/internal/domain"
)

// Registry — реестр заказов процесса (request_id → Order).
//
// Записи принадлежат процессу, который их создал: worker обычно
// работает с пустым реестром и знает только идентификатор текущего
// заказа. Мутация отсутствующего id — no-op (см. Mutate).
//
// Доступ защищён мьютексом: на стороне gateway реестр мутируют
// HTTP-обработчики и принимающий цикл relay из разных горутин.
type Registry struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		orders: make(map[string]*domain.Order),
	}
}

// Create создаёт заказ в фазе WAITING с progress 0.0 и сохраняет его.
func (r *Registry) Create(flavor domain.Flavor, tableID, userID string) domain.Order {
	now := time.Now()
	order := &domain.Order{
		RequestID: uuid.New().String(),
		Flavor:    flavor,
		TableID:   tableID,
		UserID:    userID,
		Phase:     domain.PhaseWaiting,
		Message:   msgOrderAccepted,
		Progress:  0.0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.orders[order.RequestID] = order
	r.mu.Unlock()

	return *order
}

// Get возвращает снимок заказа по идентификатору.
func (r *Registry) Get(requestID string) (domain.Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[requestID]
	if !ok {
		return domain.Order{}, false
	}
	return *order, true
}

// Mutate применяет fn к заказу, если он существует и ещё не в
// терминальной фазе. Терминальные фазы поглощающие: запоздавший
// StatusUpdate, догнавший уже отменённый заказ, не оживляет его —
// за счёт этого гонка между relay-событиями и отменой безопасна.
//
// Возвращает true, если мутация была применена.
func (r *Registry) Mutate(requestID string, fn func(*domain.Order)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[requestID]
	if !ok {
		return false
	}
	if order.Phase.IsTerminal() {
		return false
	}

	fn(order)
	return true
}

// Len возвращает количество заказов в реестре.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}
