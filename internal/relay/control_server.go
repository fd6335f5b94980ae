package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/shaiso/DonutLine/internal/domain"
)

// CommandHandler — обработчик команды управляющего канала.
// Всегда возвращает ответ; ошибки упаковываются в CommandResponse.
type CommandHandler func(ctx context.Context, cmd domain.WorkerCommand) domain.CommandResponse

// ControlServer — принимающая сторона управляющего канала (worker).
//
// Обработка команд сериализована: соединения принимаются по одному,
// из каждого читается ровно один JSON-объект команды, синхронно
// вызывается обработчик, пишется ровно один JSON-ответ, соединение
// закрывается.
type ControlServer struct {
	path    string
	handler CommandHandler
	logger  *slog.Logger

	ln         net.Listener
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	stopOnce sync.Once
}

// ControlServerConfig — конфигурация ControlServer.
type ControlServerConfig struct {
	// SocketPath — путь к файлу сокета (default: DefaultControlSocketPath).
	SocketPath string

	// Handler — обработчик команд.
	Handler CommandHandler

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// NewControlServer создаёт ControlServer.
func NewControlServer(cfg ControlServerConfig) *ControlServer {
	path := cfg.SocketPath
	if path == "" {
		path = DefaultControlSocketPath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlServer{
		path:    path,
		handler: cfg.Handler,
		logger:  logger,
	}
}

// Start открывает сокет и запускает последовательный цикл обработки.
func (s *ControlServer) Start(ctx context.Context) error {
	ln, err := listenUnix(s.path)
	if err != nil {
		return err
	}
	s.ln = ln

	ctx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-ctx.Done()
		s.ln.Close()
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.serveLoop(ctx)
	}()

	s.logger.Info("control channel listening", "socket", s.path)
	return nil
}

// Stop закрывает сокет и дожидается текущей команды.
func (s *ControlServer) Stop() {
	s.stopOnce.Do(func() {
		if s.cancelFunc != nil {
			s.cancelFunc()
		}
		s.wg.Wait()
		removeSocket(s.path)
		s.logger.Info("control channel stopped", "socket", s.path)
	})
}

// serveLoop обрабатывает соединения строго по одному.
func (s *ControlServer) serveLoop(ctx context.Context) {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}

		s.handleConn(ctx, conn)
	}
}

// handleConn выполняет один цикл запрос-ответ.
func (s *ControlServer) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(defaultReadTimeout))

	var cmd domain.WorkerCommand
	if err := json.NewDecoder(conn).Decode(&cmd); err != nil {
		s.logger.Warn("malformed command", "error", err)
		s.respond(conn, domain.ErrorResponse("malformed command: "+err.Error()))
		return
	}

	resp := s.handler(ctx, cmd)
	s.respond(conn, resp)
}

// respond пишет ровно один JSON-ответ.
func (s *ControlServer) respond(conn net.Conn, resp domain.CommandResponse) {
	_ = conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.logger.Warn("failed to write command response", "error", err)
	}
}
