package domain

import (
	"time"
)

// Flavor — вкус пончика. Закрытое перечисление.
type Flavor string

const (
	FlavorChocolate  Flavor = "chocolate"
	FlavorStrawberry Flavor = "strawberry"
)

// IsValid возвращает true, если вкус входит в перечисление.
func (f Flavor) IsValid() bool {
	switch f {
	case FlavorChocolate, FlavorStrawberry:
		return true
	default:
		return false
	}
}

// OrderPhase — фаза жизненного цикла заказа.
//
// Happy path:
//
//	WAITING → PUTTING_DONUT → CLOSING_LID → DONE
//
// Из любой нетерминальной фазы достижимы CANCELED и ERROR.
// DONE, CANCELED и ERROR — терминальные фазы: дальнейшие переходы
// не применяются.
type OrderPhase string

const (
	// PhaseWaiting — заказ принят, робот ещё не начал выполнение.
	PhaseWaiting OrderPhase = "WAITING"

	// PhasePuttingDonut — фаза 1: пончик укладывается в коробку.
	PhasePuttingDonut OrderPhase = "PUTTING_DONUT"

	// PhaseClosingLid — фаза 2: коробка закрывается.
	PhaseClosingLid OrderPhase = "CLOSING_LID"

	// PhaseDone — заказ успешно выполнен.
	PhaseDone OrderPhase = "DONE"

	// PhaseCanceled — заказ отменён пользователем.
	PhaseCanceled OrderPhase = "CANCELED"

	// PhaseError — выполнение заказа завершилось ошибкой.
	PhaseError OrderPhase = "ERROR"
)

// IsTerminal возвращает true, если фаза финальная (заказ завершён).
func (p OrderPhase) IsTerminal() bool {
	switch p {
	case PhaseDone, PhaseCanceled, PhaseError:
		return true
	default:
		return false
	}
}

// Order — состояние одного заказа (request_id).
//
// Запись принадлежит реестру того процесса, который её создал
// (на практике — gateway). Worker не хранит зеркальную копию,
// только идентификатор текущего заказа в работе.
type Order struct {
	// RequestID — глобально уникальный идентификатор заказа (UUID).
	RequestID string `json:"request_id"`

	// Flavor — вкус пончика.
	Flavor Flavor `json:"flavor"`

	// TableID — идентификатор столика, куда доставить заказ.
	TableID string `json:"table_id,omitempty"`

	// UserID — идентификатор пользователя чат-бэкенда.
	UserID string `json:"user_id,omitempty"`

	// Phase — текущая фаза жизненного цикла.
	Phase OrderPhase `json:"phase"`

	// Message — человекочитаемое описание текущего состояния.
	Message string `json:"message"`

	// Progress — прогресс выполнения в диапазоне [0.0, 1.0].
	// Вдоль happy path не убывает (0.0 → 0.5 → 0.9 → 1.0),
	// но это конвенция, а не проверяемый инвариант.
	Progress float64 `json:"progress"`

	// ErrorMessage — текст ошибки, если Phase == ERROR.
	ErrorMessage string `json:"error_message,omitempty"`

	// Metadata — открытый мешок метаданных.
	Metadata map[string]any `json:"metadata,omitempty"`

	// CreatedAt — время создания заказа.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения состояния.
	UpdatedAt time.Time `json:"updated_at"`
}

// Done возвращает true, если заказ в терминальной фазе.
func (o *Order) Done() bool {
	return o.Phase.IsTerminal()
}

// SetPhase переводит заказ в указанную фазу.
// Порядок фаз не проверяется — корректность переходов
// на совести вызывающего.
func (o *Order) SetPhase(phase OrderPhase, message string, progress float64) {
	o.Phase = phase
	o.Message = message
	o.Progress = progress
	o.UpdatedAt = time.Now()
}

// MarkCompleted переводит заказ в фазу DONE.
func (o *Order) MarkCompleted(message string) {
	o.Phase = PhaseDone
	o.Message = message
	o.Progress = 1.0
	o.UpdatedAt = time.Now()
}

// MarkCanceled переводит заказ в фазу CANCELED.
func (o *Order) MarkCanceled(message string) {
	o.Phase = PhaseCanceled
	o.Message = message
	o.UpdatedAt = time.Now()
}

// MarkError переводит заказ в фазу ERROR с текстом ошибки.
func (o *Order) MarkError(message string) {
	o.Phase = PhaseError
	o.ErrorMessage = message
	o.UpdatedAt = time.Now()
}
