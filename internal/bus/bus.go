package bus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shaiso/DonutLine/internal/domain"
)

// Sink — ненадёжный удалённый порт шины.
//
// Реализации: relay.EventClient (Unix-сокет до gateway),
// mq.EventSink (RabbitMQ fan-out), archive.Sink (Postgres-журнал).
//
// Ошибки Send никогда не доходят до вызывающего Publish:
// шина логирует их и продолжает работу.
type Sink interface {
	// Name возвращает имя порта для логов.
	Name() string

	// Send доставляет событие по удалённому каналу (best-effort).
	Send(ev domain.Event) error
}

// Bus — шина событий процесса.
//
// Надёжный локальный порт — неограниченная FIFO-очередь с ровно
// одним потребителем (Drain). Два потребителя получили бы
// непересекающиеся подмножества событий: это очередь, а не broadcast.
//
// Публикация никогда не блокируется дольше аллокации очереди
// и никогда не возвращает ошибку удалённых портов.
type Bus struct {
	logger *slog.Logger
	sinks  []Sink

	mu     sync.Mutex
	queue  []domain.Event
	notify chan struct{}
}

// New создаёт шину с указанными удалёнными портами.
func New(logger *slog.Logger, sinks ...Sink) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		logger: logger,
		sinks:  sinks,
		notify: make(chan struct{}, 1),
	}
}

// Publish добавляет событие в локальную очередь и рассылает его
// по удалённым портам. Ошибки портов проглатываются с Warn-логом.
func (b *Bus) Publish(ev domain.Event) {
	b.mu.Lock()
	b.queue = append(b.queue, ev)
	b.mu.Unlock()

	b.signal()

	for _, sink := range b.sinks {
		if err := sink.Send(ev); err != nil {
			b.logger.Warn("event sink failed",
				"sink", sink.Name(),
				"event_type", ev.Kind(),
				"error", err,
			)
		}
	}
}

// Len возвращает количество событий, ожидающих потребителя.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Drain возвращает канал, из которого единственный подписчик
// читает события в порядке публикации. Канал закрывается при
// отмене контекста; последовательность не перезапускаема.
func (b *Bus) Drain(ctx context.Context) <-chan domain.Event {
	out := make(chan domain.Event)

	go func() {
		defer close(out)
		for {
			ev, ok := b.next(ctx)
			if !ok {
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// next блокируется до появления события или отмены контекста.
func (b *Bus) next(ctx context.Context) (domain.Event, bool) {
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			ev := b.queue[0]
			b.queue = b.queue[1:]
			remaining := len(b.queue)
			b.mu.Unlock()
			if remaining > 0 {
				b.signal()
			}
			return ev, true
		}
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, false
		case <-b.notify:
		}
	}
}

// signal будит потребителя; лишние сигналы схлопываются.
func (b *Bus) signal() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}
