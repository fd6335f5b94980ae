package api

import (
	"fmt"
	"net/http"

	"github.com/shaiso/DonutLine/internal/domain"
)

// StreamEvents стримит события заказов как Server-Sent Events.
// GET /api/v1/events
//
// Поток — единственный потребитель шины событий gateway'я: два
// одновременных подписчика получили бы непересекающиеся подмножества
// событий (очередь, не broadcast). Внешним подписчикам предназначен
// RabbitMQ fan-out, если он включён.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		InternalError(w, h.logger, fmt.Errorf("response writer does not support flushing"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Info("event stream subscriber connected", "remote_addr", r.RemoteAddr)
	defer h.logger.Info("event stream subscriber disconnected", "remote_addr", r.RemoteAddr)

	for ev := range h.events.Drain(r.Context()) {
		data, err := domain.EncodeEvent(ev)
		if err != nil {
			h.logger.Warn("failed to encode event for stream", "error", err)
			continue
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}
