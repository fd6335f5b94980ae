package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/shaiso/DonutLine/internal/bus"
	"github.com/shaiso/DonutLine/internal/domain"
)

func drainN(t *testing.T, b *bus.Bus, n int) []domain.Event {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ch := b.Drain(ctx)

	events := make([]domain.Event, 0, n)
	for i := 0; i < n; i++ {
		select {
		case ev := <-ch:
			events = append(events, ev)
		case <-ctx.Done():
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
	return events
}

// --- Registry Tests ---

func TestRegistry_Create(t *testing.T) {
	r := NewRegistry()

	order := r.Create(domain.FlavorChocolate, "t1", "u1")

	if order.RequestID == "" {
		t.Error("request id should be allocated")
	}
	if order.Phase != domain.PhaseWaiting {
		t.Errorf("expected WAITING, got %s", order.Phase)
	}
	if order.Progress != 0.0 {
		t.Errorf("expected progress 0.0, got %f", order.Progress)
	}
	if order.Flavor != domain.FlavorChocolate {
		t.Errorf("expected chocolate, got %s", order.Flavor)
	}

	got, ok := r.Get(order.RequestID)
	if !ok {
		t.Fatal("order should be stored")
	}
	if got.RequestID != order.RequestID {
		t.Error("stored order should match")
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Get("nope"); ok {
		t.Error("unknown id should not be found")
	}
}

func TestRegistry_MutateUnknownIsNoop(t *testing.T) {
	r := NewRegistry()

	applied := r.Mutate("nope", func(o *domain.Order) {
		o.Phase = domain.PhaseDone
	})

	if applied {
		t.Error("mutation of unknown id should not apply")
	}
	if r.Len() != 0 {
		t.Error("no phantom entry should be created")
	}
}

func TestRegistry_TerminalPhaseIsAbsorbing(t *testing.T) {
	r := NewRegistry()
	order := r.Create(domain.FlavorStrawberry, "", "")

	r.Mutate(order.RequestID, func(o *domain.Order) { o.MarkCanceled("canceled") })

	// Запоздавший StatusUpdate не должен оживить отменённый заказ
	applied := r.Mutate(order.RequestID, func(o *domain.Order) {
		o.SetPhase(domain.PhaseClosingLid, "late update", 0.9)
	})

	if applied {
		t.Error("terminal order should reject further mutation")
	}

	got, _ := r.Get(order.RequestID)
	if got.Phase != domain.PhaseCanceled {
		t.Errorf("expected CANCELED, got %s", got.Phase)
	}
	if !got.Done() {
		t.Error("done flag must never revert")
	}
}

// --- Manager Tests ---

func TestManager_CreateOrder(t *testing.T) {
	b := bus.New(nil)
	m := NewManager(NewRegistry(), b, nil)

	order := m.CreateOrder(domain.FlavorChocolate, "t1", "u1")

	if order.Phase != domain.PhaseWaiting {
		t.Errorf("expected WAITING, got %s", order.Phase)
	}

	events := drainN(t, b, 1)
	ev, ok := events[0].(domain.StatusUpdateEvent)
	if !ok {
		t.Fatalf("expected StatusUpdateEvent, got %T", events[0])
	}
	if ev.RequestID != order.RequestID {
		t.Error("event should carry the order id")
	}
	if ev.Stage != domain.PhaseWaiting || ev.Progress != 0.0 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestManager_SetPhase_UnknownOrderStillPublishes(t *testing.T) {
	// Worker применяет SetPhase к заказу, которого нет в его реестре:
	// мутация — no-op, событие обязано уйти в шину
	b := bus.New(nil)
	m := NewManager(NewRegistry(), b, nil)

	m.SetPhase("ghost", domain.PhasePuttingDonut, "packing", 0.5)

	events := drainN(t, b, 1)
	ev := events[0].(domain.StatusUpdateEvent)
	if ev.RequestID != "ghost" || ev.Stage != domain.PhasePuttingDonut {
		t.Errorf("unexpected event: %+v", ev)
	}
	if m.Registry().Len() != 0 {
		t.Error("no phantom entry should be created")
	}
}

func TestManager_MarkCompleted(t *testing.T) {
	b := bus.New(nil)
	m := NewManager(NewRegistry(), b, nil)

	order := m.CreateOrder(domain.FlavorChocolate, "", "")
	m.SetPhase(order.RequestID, domain.PhasePuttingDonut, "packing", 0.5)
	m.SetPhase(order.RequestID, domain.PhaseClosingLid, "closing", 0.9)
	m.MarkCompleted(order.RequestID)

	got, _ := m.Registry().Get(order.RequestID)
	if got.Phase != domain.PhaseDone {
		t.Errorf("expected DONE, got %s", got.Phase)
	}
	if got.Progress != 1.0 {
		t.Errorf("expected progress 1.0, got %f", got.Progress)
	}

	events := drainN(t, b, 4)
	completed, ok := events[3].(domain.CompletedEvent)
	if !ok {
		t.Fatalf("expected CompletedEvent, got %T", events[3])
	}
	if !completed.Result.Delivered {
		t.Error("result should carry delivered=true")
	}
	if completed.Result.Flavor != "chocolate" {
		t.Errorf("expected flavor chocolate, got %s", completed.Result.Flavor)
	}
}

func TestManager_MarkCompleted_UnknownFlavorSentinel(t *testing.T) {
	b := bus.New(nil)
	m := NewManager(NewRegistry(), b, nil)

	m.MarkCompleted("ghost")

	events := drainN(t, b, 1)
	completed := events[0].(domain.CompletedEvent)
	if completed.Result.Flavor != FlavorUnknown {
		t.Errorf("expected sentinel flavor, got %s", completed.Result.Flavor)
	}
}

func TestManager_MarkCanceled_EmitsErrorShapedEvent(t *testing.T) {
	b := bus.New(nil)
	m := NewManager(NewRegistry(), b, nil)

	order := m.CreateOrder(domain.FlavorStrawberry, "", "")
	m.MarkCanceled(order.RequestID)

	got, _ := m.Registry().Get(order.RequestID)
	if got.Phase != domain.PhaseCanceled {
		t.Errorf("expected CANCELED, got %s", got.Phase)
	}

	events := drainN(t, b, 2)
	if _, ok := events[1].(domain.ErrorEvent); !ok {
		t.Fatalf("cancellation reuses the error event shape, got %T", events[1])
	}
}

func TestManager_MarkError(t *testing.T) {
	b := bus.New(nil)
	m := NewManager(NewRegistry(), b, nil)

	order := m.CreateOrder(domain.FlavorChocolate, "", "")
	m.MarkError(order.RequestID, "gripper jam")

	got, _ := m.Registry().Get(order.RequestID)
	if got.Phase != domain.PhaseError {
		t.Errorf("expected ERROR, got %s", got.Phase)
	}
	if got.ErrorMessage != "gripper jam" {
		t.Errorf("expected error message, got %q", got.ErrorMessage)
	}

	events := drainN(t, b, 2)
	ev := events[1].(domain.ErrorEvent)
	if ev.Message != "gripper jam" {
		t.Errorf("unexpected event message %q", ev.Message)
	}
}

func TestManager_Apply_StatusUpdate(t *testing.T) {
	// Gateway применяет событие, пришедшее по relay от worker'а
	b := bus.New(nil)
	m := NewManager(NewRegistry(), b, nil)

	order := m.CreateOrder(domain.FlavorChocolate, "", "")

	m.Apply(domain.NewStatusUpdate(order.RequestID, domain.PhasePuttingDonut, 0.5, "packing"))

	got, _ := m.Registry().Get(order.RequestID)
	if got.Phase != domain.PhasePuttingDonut || got.Progress != 0.5 {
		t.Errorf("relayed update should apply: %+v", got)
	}
}

func TestManager_Apply_CompletedThenLateUpdate(t *testing.T) {
	b := bus.New(nil)
	m := NewManager(NewRegistry(), b, nil)

	order := m.CreateOrder(domain.FlavorChocolate, "", "")

	m.Apply(domain.NewCompleted(order.RequestID, domain.CompletedResult{Delivered: true, Flavor: "chocolate"}))
	m.Apply(domain.NewStatusUpdate(order.RequestID, domain.PhaseClosingLid, 0.9, "late"))

	got, _ := m.Registry().Get(order.RequestID)
	if got.Phase != domain.PhaseDone {
		t.Errorf("late update must not revert DONE, got %s", got.Phase)
	}
}
