package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Orders
	mux.Handle("POST /api/v1/orders", chain(http.HandlerFunc(h.CreateOrder)))
	mux.Handle("GET /api/v1/orders/{id}", chain(http.HandlerFunc(h.GetOrder)))
	mux.Handle("POST /api/v1/orders/{id}/cancel", chain(http.HandlerFunc(h.CancelOrder)))
	mux.Handle("GET /api/v1/orders/{id}/events", chain(http.HandlerFunc(h.GetOrderEvents)))

	// Event stream (SSE); Logging не применяется — запрос живёт
	// до конца стрима и лог "по завершении" бесполезен
	mux.Handle("GET /api/v1/events", Recovery(h.logger)(http.HandlerFunc(h.StreamEvents)))
}
