package api

import (
	"encoding/json"
	"time"

	"github.com/shaiso/DonutLine/internal/archive"
	"github.com/shaiso/DonutLine/internal/domain"
)

// Order DTOs

// CreateOrderRequest — запрос на создание заказа.
type CreateOrderRequest struct {
	Flavor  string `json:"flavor"`
	TableID string `json:"table_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

// CreateOrderPayload — тело успешного ответа на создание заказа.
type CreateOrderPayload struct {
	RequestID string `json:"request_id"`
}

// CancelOrderPayload — тело ответа на отмену заказа.
type CancelOrderPayload struct {
	Canceled bool `json:"canceled"`
}

// OrderResponse — ответ с заказом.
type OrderResponse struct {
	RequestID    string    `json:"request_id"`
	Flavor       string    `json:"flavor"`
	Stage        string    `json:"stage"`
	Progress     float64   `json:"progress"`
	Message      string    `json:"message"`
	ErrorMessage string    `json:"error_message,omitempty"`
	TableID      string    `json:"table_id,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	Done         bool      `json:"done"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ArchivedEventResponse — одна запись журнала событий заказа.
type ArchivedEventResponse struct {
	ID         string          `json:"id"`
	EventType  string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// ArchivedEventsFromDomain конвертирует записи журнала в DTO.
func ArchivedEventsFromDomain(events []archive.ArchivedEvent) []ArchivedEventResponse {
	out := make([]ArchivedEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, ArchivedEventResponse{
			ID:         ev.ID.String(),
			EventType:  ev.EventType,
			Payload:    json.RawMessage(ev.Payload),
			RecordedAt: ev.RecordedAt,
		})
	}
	return out
}

// OrderFromDomain конвертирует domain.Order в OrderResponse.
func OrderFromDomain(o domain.Order) OrderResponse {
	return OrderResponse{
		RequestID:    o.RequestID,
		Flavor:       string(o.Flavor),
		Stage:        string(o.Phase),
		Progress:     o.Progress,
		Message:      o.Message,
		ErrorMessage: o.ErrorMessage,
		TableID:      o.TableID,
		UserID:       o.UserID,
		Done:         o.Done(),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}
