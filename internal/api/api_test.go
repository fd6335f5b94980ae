package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/DonutLine/internal/archive"
	"github.com/shaiso/DonutLine/internal/bus"
	"github.com/shaiso/DonutLine/internal/domain"
	"github.com/shaiso/DonutLine/internal/lifecycle"
)

// fakeSender подменяет управляющий канал worker'а.
type fakeSender struct {
	mu   sync.Mutex
	cmds []domain.WorkerCommand

	resp domain.CommandResponse
	err  error
}

func (s *fakeSender) Send(_ context.Context, cmd domain.WorkerCommand) (domain.CommandResponse, error) {
	s.mu.Lock()
	s.cmds = append(s.cmds, cmd)
	s.mu.Unlock()

	if s.err != nil {
		return domain.CommandResponse{}, s.err
	}
	return s.resp, nil
}

func (s *fakeSender) sent() []domain.WorkerCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.WorkerCommand(nil), s.cmds...)
}

// fakeLister подменяет журнал событий заказа.
type fakeLister struct {
	events []archive.ArchivedEvent
	err    error

	gotID    string
	gotLimit int
}

func (l *fakeLister) ListByRequest(_ context.Context, requestID string, limit int) ([]archive.ArchivedEvent, error) {
	l.gotID = requestID
	l.gotLimit = limit
	return l.events, l.err
}

func newTestAPI(t *testing.T, sender *fakeSender) (*http.ServeMux, *lifecycle.Manager) {
	t.Helper()
	return newTestAPIWithHistory(t, sender, nil)
}

func newTestAPIWithHistory(t *testing.T, sender *fakeSender, history EventLister) (*http.ServeMux, *lifecycle.Manager) {
	t.Helper()

	b := bus.New(nil)
	m := lifecycle.NewManager(lifecycle.NewRegistry(), b, nil)

	h := NewHandler(Config{
		Lifecycle: m,
		Control:   sender,
		Events:    b,
		History:   history,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux, m
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

// --- CreateOrder Tests ---

func TestCreateOrder(t *testing.T) {
	sender := &fakeSender{resp: domain.OKResponse("order started")}
	mux, m := newTestAPI(t, sender)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/orders", CreateOrderRequest{
		Flavor:  "chocolate",
		TableID: "t1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	var payload CreateOrderPayload
	decodeData(t, rec, &payload)
	if payload.RequestID == "" {
		t.Fatal("request_id should be set")
	}

	order, ok := m.Registry().Get(payload.RequestID)
	if !ok {
		t.Fatal("order should be registered")
	}
	if order.Phase != domain.PhaseWaiting {
		t.Errorf("expected WAITING, got %s", order.Phase)
	}
	if order.TableID != "t1" {
		t.Errorf("expected table t1, got %q", order.TableID)
	}

	cmds := sender.sent()
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if cmds[0].Type != domain.CommandStartOrder || cmds[0].RequestID != payload.RequestID {
		t.Errorf("unexpected command: %+v", cmds[0])
	}
	if cmds[0].Flavor != domain.FlavorChocolate {
		t.Errorf("expected chocolate, got %s", cmds[0].Flavor)
	}
}

func TestCreateOrder_InvalidFlavor(t *testing.T) {
	sender := &fakeSender{}
	mux, _ := newTestAPI(t, sender)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/orders", CreateOrderRequest{Flavor: "licorice"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(sender.sent()) != 0 {
		t.Error("no command should be sent for an invalid flavor")
	}
}

func TestCreateOrder_InvalidBody(t *testing.T) {
	mux, _ := newTestAPI(t, &fakeSender{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateOrder_WorkerBusy(t *testing.T) {
	sender := &fakeSender{resp: domain.ErrorResponse("another order is in progress")}
	mux, m := newTestAPI(t, sender)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/orders", CreateOrderRequest{Flavor: "strawberry"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	// отклонённый заказ остаётся в реестре в терминальном ERROR
	if m.Registry().Len() != 1 {
		t.Fatalf("expected 1 order, got %d", m.Registry().Len())
	}
	cmds := sender.sent()
	order, _ := m.Registry().Get(cmds[0].RequestID)
	if order.Phase != domain.PhaseError {
		t.Errorf("expected ERROR, got %s", order.Phase)
	}
}

func TestCreateOrder_WorkerUnreachable(t *testing.T) {
	sender := &fakeSender{err: errors.New("dial unix: connection refused")}
	mux, m := newTestAPI(t, sender)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/orders", CreateOrderRequest{Flavor: "chocolate"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	cmds := sender.sent()
	order, _ := m.Registry().Get(cmds[0].RequestID)
	if order.Phase != domain.PhaseError {
		t.Errorf("expected ERROR, got %s", order.Phase)
	}
}

// --- GetOrder Tests ---

func TestGetOrder(t *testing.T) {
	mux, m := newTestAPI(t, &fakeSender{})
	order := m.CreateOrder(domain.FlavorChocolate, "", "u7")

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/orders/"+order.RequestID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got OrderResponse
	decodeData(t, rec, &got)
	if got.Stage != string(domain.PhaseWaiting) {
		t.Errorf("expected WAITING, got %s", got.Stage)
	}
	if got.Done {
		t.Error("fresh order should not be done")
	}
	if got.UserID != "u7" {
		t.Errorf("expected user u7, got %q", got.UserID)
	}

	m.MarkCompleted(order.RequestID)

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/orders/"+order.RequestID, nil)
	decodeData(t, rec, &got)
	if !got.Done || got.Progress != 1.0 || got.Stage != string(domain.PhaseDone) {
		t.Errorf("expected completed order, got %+v", got)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	mux, _ := newTestAPI(t, &fakeSender{})

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/orders/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

// --- CancelOrder Tests ---

func TestCancelOrder(t *testing.T) {
	sender := &fakeSender{resp: domain.OKResponse("order canceled")}
	mux, m := newTestAPI(t, sender)
	order := m.CreateOrder(domain.FlavorChocolate, "", "")

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/orders/"+order.RequestID+"/cancel", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var payload CancelOrderPayload
	decodeData(t, rec, &payload)
	if !payload.Canceled {
		t.Error("expected canceled=true")
	}

	// CANCELED придёт от worker'а по event-каналу, локально не помечаем
	got, _ := m.Registry().Get(order.RequestID)
	if got.Phase != domain.PhaseWaiting {
		t.Errorf("expected WAITING until the worker confirms, got %s", got.Phase)
	}

	cmds := sender.sent()
	if len(cmds) != 1 || cmds[0].Type != domain.CommandCancelOrder {
		t.Errorf("unexpected commands: %+v", cmds)
	}
}

func TestCancelOrder_NotFound(t *testing.T) {
	mux, _ := newTestAPI(t, &fakeSender{})

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/orders/missing/cancel", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCancelOrder_AlreadyDone(t *testing.T) {
	sender := &fakeSender{}
	mux, m := newTestAPI(t, sender)
	order := m.CreateOrder(domain.FlavorChocolate, "", "")
	m.MarkCompleted(order.RequestID)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/orders/"+order.RequestID+"/cancel", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload CancelOrderPayload
	decodeData(t, rec, &payload)
	if payload.Canceled {
		t.Error("terminal order should not report canceled=true")
	}
	if len(sender.sent()) != 0 {
		t.Error("no command should be sent for a terminal order")
	}
}

func TestCancelOrder_WorkerUnreachable(t *testing.T) {
	sender := &fakeSender{err: errors.New("dial unix: connection refused")}
	mux, m := newTestAPI(t, sender)
	order := m.CreateOrder(domain.FlavorStrawberry, "", "")

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/orders/"+order.RequestID+"/cancel", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	got, _ := m.Registry().Get(order.RequestID)
	if got.Phase != domain.PhaseCanceled {
		t.Errorf("expected local CANCELED when the worker is unreachable, got %s", got.Phase)
	}
}

// --- GetOrderEvents Tests ---

func TestGetOrderEvents(t *testing.T) {
	ev, err := domain.EncodeEvent(domain.StatusUpdateEvent{
		RequestID: "r1",
		Stage:     domain.PhasePuttingDonut,
		Progress:  0.5,
	})
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}

	lister := &fakeLister{events: []archive.ArchivedEvent{
		{ID: uuid.New(), EventType: "status_update", Payload: ev, RecordedAt: time.Now()},
		{ID: uuid.New(), EventType: "completed", Payload: []byte(`{"type":"completed"}`), RecordedAt: time.Now()},
	}}
	mux, m := newTestAPIWithHistory(t, &fakeSender{}, lister)
	order := m.CreateOrder(domain.FlavorChocolate, "", "")

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/orders/"+order.RequestID+"/events?limit=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var got []ArchivedEventResponse
	decodeData(t, rec, &got)
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].EventType != "status_update" || got[1].EventType != "completed" {
		t.Errorf("unexpected event types: %s, %s", got[0].EventType, got[1].EventType)
	}

	if lister.gotID != order.RequestID {
		t.Errorf("expected lookup for %s, got %s", order.RequestID, lister.gotID)
	}
	if lister.gotLimit != 10 {
		t.Errorf("expected limit 10, got %d", lister.gotLimit)
	}
}

func TestGetOrderEvents_NotFound(t *testing.T) {
	lister := &fakeLister{}
	mux, _ := newTestAPIWithHistory(t, &fakeSender{}, lister)

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/orders/missing/events", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if lister.gotID != "" {
		t.Error("archive should not be queried for an unknown order")
	}
}

func TestGetOrderEvents_ArchiveDisabled(t *testing.T) {
	mux, m := newTestAPI(t, &fakeSender{})
	order := m.CreateOrder(domain.FlavorChocolate, "", "")

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/orders/"+order.RequestID+"/events", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a configured archive, got %d", rec.Code)
	}
}

func TestGetOrderEvents_BadLimit(t *testing.T) {
	mux, m := newTestAPIWithHistory(t, &fakeSender{}, &fakeLister{})
	order := m.CreateOrder(domain.FlavorChocolate, "", "")

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/orders/"+order.RequestID+"/events?limit=zero", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetOrderEvents_ArchiveError(t *testing.T) {
	lister := &fakeLister{err: errors.New("connection reset")}
	mux, m := newTestAPIWithHistory(t, &fakeSender{}, lister)
	order := m.CreateOrder(domain.FlavorChocolate, "", "")

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/orders/"+order.RequestID+"/events", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

// --- Middleware Tests ---

func TestRecovery_Panic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var envelope ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Error.Code != ErrCodeInternalError {
		t.Errorf("expected INTERNAL_ERROR, got %s", envelope.Error.Code)
	}

	// ровно одна запись об ошибке: паника, без дублирующего лога
	if got := strings.Count(buf.String(), "level=ERROR"); got != 1 {
		t.Errorf("expected a single error record, got %d:\n%s", got, buf.String())
	}
	if strings.Contains(buf.String(), "error=<nil>") {
		t.Error("nil error should not be logged")
	}
}

// --- StreamEvents Tests ---

func TestStreamEvents(t *testing.T) {
	b := bus.New(nil)
	m := lifecycle.NewManager(lifecycle.NewRegistry(), b, nil)
	h := NewHandler(Config{Lifecycle: m, Control: &fakeSender{}, Events: b})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/events", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}

	order := m.CreateOrder(domain.FlavorChocolate, "", "")

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if !strings.HasPrefix(line, "data: ") {
		t.Fatalf("expected SSE data frame, got %q", line)
	}

	ev, err := domain.DecodeEvent([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")))
	if err != nil {
		t.Fatalf("decode streamed event: %v", err)
	}
	update, ok := ev.(domain.StatusUpdateEvent)
	if !ok {
		t.Fatalf("expected status update, got %T", ev)
	}
	if update.RequestID != order.RequestID {
		t.Errorf("expected request %s, got %s", order.RequestID, update.RequestID)
	}
	if update.Stage != domain.PhaseWaiting {
		t.Errorf("expected WAITING, got %s", update.Stage)
	}
}
