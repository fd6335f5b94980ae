package relay

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/shaiso/DonutLine/internal/domain"
)

// EventHandler — обработчик принятого события.
type EventHandler func(ev domain.Event)

// EventServer — принимающая сторона канала событий (gateway).
//
// Слушает unix-сокет и принимает неограниченно много короткоживущих
// соединений; каждое доставляет события строками NDJSON. Нечитаемые
// строки отбрасываются с лог-записью и никогда не фатальны.
type EventServer struct {
	path    string
	handler EventHandler
	logger  *slog.Logger

	ln         net.Listener
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	stopOnce sync.Once
}

// EventServerConfig — конфигурация EventServer.
type EventServerConfig struct {
	// SocketPath — путь к файлу сокета (default: DefaultEventSocketPath).
	SocketPath string

	// Handler — вызывается для каждого успешно разобранного события.
	Handler EventHandler

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// NewEventServer создаёт EventServer.
func NewEventServer(cfg EventServerConfig) *EventServer {
	path := cfg.SocketPath
	if path == "" {
		path = DefaultEventSocketPath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EventServer{
		path:    path,
		handler: cfg.Handler,
		logger:  logger,
	}
}

// Start открывает сокет и запускает цикл accept.
func (s *EventServer) Start(ctx context.Context) error {
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
		s.acceptLoop(ctx)
	}()

	s.logger.Info("event relay listening", "socket", s.path)
	return nil
}

// Stop закрывает сокет и дожидается обработчиков.
func (s *EventServer) Stop() {
	s.stopOnce.Do(func() {
		if s.cancelFunc != nil {
			s.cancelFunc()
		}
		s.wg.Wait()
		removeSocket(s.path)
		s.logger.Info("event relay stopped", "socket", s.path)
	})
}

// acceptLoop принимает соединения до закрытия listener'а.
func (s *EventServer) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// handleConn читает NDJSON-строки одного соединения.
func (s *EventServer) handleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		ev, err := domain.DecodeEvent(line)
		if err != nil {
			s.logger.Warn("dropping malformed relay line", "error", err)
			continue
		}

		s.handler(ev)
	}

	if err := scanner.Err(); err != nil {
		s.logger.Debug("relay connection read error", "error", err)
	}
}
