package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shaiso/DonutLine/internal/domain"
	"github.com/shaiso/DonutLine/internal/telemetry"
)

// CreateOrder создаёт новый заказ и запускает его на worker'е.
// POST /api/v1/orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	flavor := domain.Flavor(req.Flavor)
	if !flavor.IsValid() {
		BadRequest(w, fmt.Sprintf("unknown flavor %q", req.Flavor))
		return
	}

	order := h.lifecycle.CreateOrder(flavor, req.TableID, req.UserID)
	logger := telemetry.WithRequestID(h.logger, order.RequestID)

	resp, err := h.control.Send(r.Context(), domain.WorkerCommand{
		Type:      domain.CommandStartOrder,
		RequestID: order.RequestID,
		Flavor:    flavor,
	})
	if err != nil {
		// команда не доставлена: заказ никогда не начнёт выполняться
		logger.Error("start command undeliverable", "error", err)
		h.lifecycle.MarkError(order.RequestID, fmt.Sprintf("worker unreachable: %v", err))
		WorkerUnavailable(w, "robot worker is unreachable")
		return
	}
	if !resp.OK() {
		// worker отклонил заказ (занят другим или не принял команду)
		logger.Warn("start command rejected", "reason", resp.Message)
		h.lifecycle.MarkError(order.RequestID, resp.Message)
		WorkerBusy(w, resp.Message)
		return
	}

	logger.Info("order created", "flavor", flavor)
	Created(w, CreateOrderPayload{RequestID: order.RequestID})
}

// GetOrder возвращает текущее состояние заказа.
// GET /api/v1/orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.lifecycle.Registry().Get(r.PathValue("id"))
	if !ok {
		NotFound(w, "order not found")
		return
	}

	Success(w, OrderFromDomain(order))
}

// CancelOrder отменяет заказ.
// POST /api/v1/orders/{id}/cancel
//
// Для активного заказа отмену выполняет worker (CANCELED придёт
// обратно по event-каналу). Если worker недоступен, заказ помечается
// CANCELED локально: без управляющего канала он всё равно не
// выполняется.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	logger := telemetry.WithRequestID(h.logger, id)

	order, ok := h.lifecycle.Registry().Get(id)
	if !ok {
		NotFound(w, "order not found")
		return
	}
	if order.Done() {
		Success(w, CancelOrderPayload{Canceled: false})
		return
	}

	resp, err := h.control.Send(r.Context(), domain.WorkerCommand{
		Type:      domain.CommandCancelOrder,
		RequestID: id,
	})
	switch {
	case err != nil:
		logger.Warn("cancel command undeliverable, canceling locally", "error", err)
		h.lifecycle.MarkCanceled(id)
	case !resp.OK():
		logger.Warn("cancel command rejected", "reason", resp.Message)
		h.lifecycle.MarkCanceled(id)
	default:
		logger.Info("order cancel requested")
	}

	Success(w, CancelOrderPayload{Canceled: true})
}

// GetOrderEvents возвращает журнал событий заказа из архива.
// GET /api/v1/orders/{id}/events?limit=N
//
// Доступен только при сконфигурированном архиве (DB_URL): без него
// события нигде не сохраняются и истории не существует.
func (h *Handler) GetOrderEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, ok := h.lifecycle.Registry().Get(id); !ok {
		NotFound(w, "order not found")
		return
	}
	if h.history == nil {
		NotFound(w, "event archive is not enabled")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := h.history.ListByRequest(r.Context(), id, limit)
	if err != nil {
		InternalError(w, telemetry.WithRequestID(h.logger, id), err)
		return
	}

	Success(w, ArchivedEventsFromDomain(events))
}
