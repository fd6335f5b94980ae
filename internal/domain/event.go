package domain

import (
	"encoding/json"
	"fmt"
)

// EventType — тип события в union GatewayEvent.
type EventType string

const (
	EventTypeStatusUpdate EventType = "status_update"
	EventTypeCompleted    EventType = "completed"
	EventTypeError        EventType = "error"
)

// Event — событие жизненного цикла заказа (GatewayEvent union).
//
// Реализации: StatusUpdateEvent, CompletedEvent, ErrorEvent.
// Union закрыт: потребители матчатся по типу исчерпывающе,
// новый вариант требует правок во всех switch.
type Event interface {
	// Kind возвращает тег события.
	Kind() EventType
}

// StatusUpdateEvent — заказ перешёл в новую фазу.
type StatusUpdateEvent struct {
	Type      EventType  `json:"type"`
	RequestID string     `json:"request_id"`
	Stage     OrderPhase `json:"stage"`
	Progress  float64    `json:"progress"`
	Message   string     `json:"message"`
}

// Kind возвращает EventTypeStatusUpdate.
func (e StatusUpdateEvent) Kind() EventType { return EventTypeStatusUpdate }

// NewStatusUpdate создаёт StatusUpdateEvent с проставленным тегом.
func NewStatusUpdate(requestID string, stage OrderPhase, progress float64, message string) StatusUpdateEvent {
	return StatusUpdateEvent{
		Type:      EventTypeStatusUpdate,
		RequestID: requestID,
		Stage:     stage,
		Progress:  progress,
		Message:   message,
	}
}

// CompletedResult — payload результата выполненного заказа.
type CompletedResult struct {
	Delivered bool   `json:"delivered"`
	Flavor    string `json:"flavor"`
}

// CompletedEvent — заказ успешно выполнен.
type CompletedEvent struct {
	Type      EventType       `json:"type"`
	RequestID string          `json:"request_id"`
	Result    CompletedResult `json:"result"`
}

// Kind возвращает EventTypeCompleted.
func (e CompletedEvent) Kind() EventType { return EventTypeCompleted }

// NewCompleted создаёт CompletedEvent с проставленным тегом.
func NewCompleted(requestID string, result CompletedResult) CompletedEvent {
	return CompletedEvent{
		Type:      EventTypeCompleted,
		RequestID: requestID,
		Result:    result,
	}
}

// ErrorEvent — ошибка или отмена заказа.
//
// RequestID может быть пустым: ошибки транспортного уровня
// не всегда привязаны к конкретному заказу.
type ErrorEvent struct {
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id,omitempty"`
	Message   string    `json:"message"`
}

// Kind возвращает EventTypeError.
func (e ErrorEvent) Kind() EventType { return EventTypeError }

// NewError создаёт ErrorEvent с проставленным тегом.
func NewError(requestID, message string) ErrorEvent {
	return ErrorEvent{
		Type:      EventTypeError,
		RequestID: requestID,
		Message:   message,
	}
}

// EncodeEvent сериализует событие в JSON.
func EncodeEvent(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// DecodeEvent десериализует событие из JSON по тегу type.
func DecodeEvent(data []byte) (Event, error) {
	var probe struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	switch probe.Type {
	case EventTypeStatusUpdate:
		var ev StatusUpdateEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode status_update: %w", err)
		}
		return ev, nil

	case EventTypeCompleted:
		var ev CompletedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode completed: %w", err)
		}
		return ev, nil

	case EventTypeError:
		var ev ErrorEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode error event: %w", err)
		}
		return ev, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, probe.Type)
	}
}
