package archive

import (
	"context"
	"time"

	"github.com/shaiso/DonutLine/internal/domain"
)

// insertTimeout ограничивает одну запись, чтобы sink не задерживал
// шину при деградировавшей БД.
const insertTimeout = 2 * time.Second

// Sink подключает EventArchive к шине событий.
//
// Реализует bus.Sink: каждая публикация best-effort дописывается
// в журнал, ошибки записи шина глотает и логирует.
type Sink struct {
	archive *EventArchive
}

// NewSink создаёт Sink поверх архива.
func NewSink(archive *EventArchive) *Sink {
	return &Sink{archive: archive}
}

// Name возвращает имя sink'а для логов шины.
func (s *Sink) Name() string {
	return "event-archive"
}

// Send записывает одно событие в журнал.
func (s *Sink) Send(ev domain.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	return s.archive.Insert(ctx, ev)
}
