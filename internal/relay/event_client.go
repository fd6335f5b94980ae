package relay

import (
	"fmt"
	"net"
	"time"

	"github.com/shaiso/DonutLine/internal/domain"
)

// EventClient — передающая сторона канала событий (worker).
//
// Реализует bus.Sink: на каждую публикацию открывает новое
// соединение, пишет одну JSON-строку и закрывает его. Отказ
// соединения (gateway не слушает) — ошибка для лога, не для
// вызывающего: шина её проглатывает.
type EventClient struct {
	path string
}

// NewEventClient создаёт клиент канала событий.
func NewEventClient(socketPath string) *EventClient {
	if socketPath == "" {
		socketPath = DefaultEventSocketPath
	}
	return &EventClient{path: socketPath}
}

// Name возвращает имя порта для логов шины.
func (c *EventClient) Name() string { return "event-relay" }

// Send доставляет одно событие gateway'у.
func (c *EventClient) Send(ev domain.Event) error {
	data, err := domain.EncodeEvent(ev)
	if err != nil {
		return err
	}

	conn, err := net.DialTimeout("unix", c.path, defaultDialTimeout)
	if err != nil {
		return fmt.Errorf("dial event relay: %w", err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
