package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/shaiso/DonutLine/internal/domain"
)

// ControlClient — передающая сторона управляющего канала (gateway).
//
// На каждую команду открывает свежее соединение: пишет один
// JSON-объект, читает ровно один ответ, закрывает соединение.
type ControlClient struct {
	path string
}

// NewControlClient создаёт клиент управляющего канала.
func NewControlClient(socketPath string) *ControlClient {
	if socketPath == "" {
		socketPath = DefaultControlSocketPath
	}
	return &ControlClient{path: socketPath}
}

// Send отправляет команду worker'у и возвращает его ответ.
//
// Транспортный отказ (worker не слушает, таймаут) возвращается
// ошибкой; бизнес-ошибки worker'а приходят в CommandResponse
// со статусом "error".
func (c *ControlClient) Send(ctx context.Context, cmd domain.WorkerCommand) (domain.CommandResponse, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.path)
	if err != nil {
		return domain.CommandResponse{}, fmt.Errorf("dial control channel: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(defaultReadTimeout))
	}

	if err := json.NewEncoder(conn).Encode(cmd); err != nil {
		return domain.CommandResponse{}, fmt.Errorf("write command: %w", err)
	}

	var resp domain.CommandResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return domain.CommandResponse{}, fmt.Errorf("read command response: %w", err)
	}
	return resp, nil
}
