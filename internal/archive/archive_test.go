package archive

import (
	"testing"

	"github.com/shaiso/DonutLine/internal/domain"
)

// --- Request ID Extraction Tests ---

func TestRequestID(t *testing.T) {
	cases := []struct {
		name string
		ev   domain.Event
		want string
	}{
		{"status update", domain.NewStatusUpdate("r1", domain.PhaseWaiting, 0.0, "order accepted"), "r1"},
		{"completed", domain.NewCompleted("r2", domain.CompletedResult{Delivered: true, Flavor: "chocolate"}), "r2"},
		{"error", domain.NewError("r3", "boom"), "r3"},
		{"error without request id", domain.NewError("", "transport failure"), ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := requestID(tc.ev); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
