package events

import (
	"testing"

	"go.uber.org/zap"
)

func TestLogEmitAndEvents(t *testing.T) {
	l := NewLog(zap.NewNop())
	l.Emit(New(OrderPlaced, map[string]any{FieldOrderID: uint64(1)}))
	l.Emit(New(SettlementCompleted, map[string]any{FieldCycleID: "abc"}))

	got := l.Events()
	if len(got) != 2 {
		t.Fatalf("Events() returned %d events, want 2", len(got))
	}
	if got[0].Kind != OrderPlaced || got[1].Kind != SettlementCompleted {
		t.Fatalf("events not recorded in emission order: %+v", got)
	}
}

func TestLogResetClearsBuffer(t *testing.T) {
	l := NewLog(zap.NewNop())
	l.Emit(New(OrderPlaced, nil))
	l.Reset()
	if len(l.Events()) != 0 {
		t.Fatalf("Reset() did not clear the buffer, got %d events", len(l.Events()))
	}
}
