package domain

import (
	"errors"
	"testing"
)

// --- Event Codec Tests ---

func TestEncodeDecode_StatusUpdate(t *testing.T) {
	ev := NewStatusUpdate("req-1", PhasePuttingDonut, 0.5, "packing the box")

	data, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := decoded.(StatusUpdateEvent)
	if !ok {
		t.Fatalf("expected StatusUpdateEvent, got %T", decoded)
	}
	if got != ev {
		t.Errorf("round-trip changed event: got %+v, want %+v", got, ev)
	}
	if got.Kind() != EventTypeStatusUpdate {
		t.Errorf("expected kind status_update, got %s", got.Kind())
	}
}

func TestEncodeDecode_Completed(t *testing.T) {
	ev := NewCompleted("req-2", CompletedResult{Delivered: true, Flavor: "chocolate"})

	data, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := decoded.(CompletedEvent)
	if !ok {
		t.Fatalf("expected CompletedEvent, got %T", decoded)
	}
	if got != ev {
		t.Errorf("round-trip changed event: got %+v, want %+v", got, ev)
	}
	if !got.Result.Delivered {
		t.Error("delivered flag should survive round-trip")
	}
	if got.Result.Flavor != "chocolate" {
		t.Errorf("expected flavor chocolate, got %s", got.Result.Flavor)
	}
}

func TestEncodeDecode_Error(t *testing.T) {
	ev := NewError("req-3", "robot arm stalled")

	data, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := decoded.(ErrorEvent)
	if !ok {
		t.Fatalf("expected ErrorEvent, got %T", decoded)
	}
	if got != ev {
		t.Errorf("round-trip changed event: got %+v, want %+v", got, ev)
	}
}

func TestDecodeEvent_ErrorWithoutRequestID(t *testing.T) {
	// Транспортные ошибки не привязаны к заказу
	decoded, err := DecodeEvent([]byte(`{"type":"error","message":"relay down"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := decoded.(ErrorEvent)
	if !ok {
		t.Fatalf("expected ErrorEvent, got %T", decoded)
	}
	if got.RequestID != "" {
		t.Errorf("expected empty request_id, got %q", got.RequestID)
	}
	if got.Message != "relay down" {
		t.Errorf("expected message, got %q", got.Message)
	}
}

func TestDecodeEvent_UnknownType(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type":"telemetry","request_id":"x"}`))
	if !errors.Is(err, ErrUnknownEventType) {
		t.Errorf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestDecodeEvent_MalformedJSON(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type":`))
	if err == nil {
		t.Error("expected error for malformed JSON")
	}
}
