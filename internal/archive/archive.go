package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/DonutLine/internal/domain"
)

// EventArchive — append-only журнал событий заказов в Postgres.
//
// Журнал пишется для аудита и отладки: реестр заказов остаётся
// in-memory, из архива ничего не перечитывается и на выполнение
// заказов он не влияет.
type EventArchive struct {
	pool *pgxpool.Pool
}

// NewEventArchive создаёт новый EventArchive.
func NewEventArchive(pool *pgxpool.Pool) *EventArchive {
	return &EventArchive{pool: pool}
}

// EnsureSchema создаёт таблицу журнала, если её ещё нет.
//
// Одна append-only таблица; полноценные миграции здесь избыточны.
func (a *EventArchive) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS order_events (
			id          UUID PRIMARY KEY,
			request_id  TEXT NOT NULL DEFAULT '',
			event_type  TEXT NOT NULL,
			payload     JSONB NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS order_events_request_id_idx
			ON order_events (request_id, recorded_at);
	`
	if _, err := a.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Insert записывает одно событие в журнал.
func (a *EventArchive) Insert(ctx context.Context, ev domain.Event) error {
	payload, err := domain.EncodeEvent(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	query := `
		INSERT INTO order_events (id, request_id, event_type, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = a.pool.Exec(ctx, query,
		uuid.New(),
		requestID(ev),
		string(ev.Kind()),
		payload,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ArchivedEvent — запись журнала.
type ArchivedEvent struct {
	ID         uuid.UUID
	RequestID  string
	EventType  string
	Payload    []byte
	RecordedAt time.Time
}

// ListByRequest возвращает события одного заказа в порядке записи.
func (a *EventArchive) ListByRequest(ctx context.Context, reqID string, limit int) ([]ArchivedEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, request_id, event_type, payload, recorded_at
		FROM order_events
		WHERE request_id = $1
		ORDER BY recorded_at
		LIMIT $2
	`
	rows, err := a.pool.Query(ctx, query, reqID, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []ArchivedEvent
	for rows.Next() {
		var ev ArchivedEvent
		if err := rows.Scan(&ev.ID, &ev.RequestID, &ev.EventType, &ev.Payload, &ev.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// requestID достаёт request id из варианта union'а.
func requestID(ev domain.Event) string {
	switch e := ev.(type) {
	case domain.StatusUpdateEvent:
		return e.RequestID
	case domain.CompletedEvent:
		return e.RequestID
	case domain.ErrorEvent:
		return e.RequestID
	default:
		return ""
	}
}
