package events

import "go.uber.org/zap"

// Log accumulates Events in emission order for the cycle's caller while
// also writing each one out through a zap.Logger, the same structured
// logging approach neo-go's node wires through its services.
type Log struct {
	zap    *zap.Logger
	events []Event
}

// NewLog returns a Log backed by zap. Passing zap.NewNop() disables the
// structured-logging side while still recording events in memory, which is
// how tests typically construct one.
func NewLog(logger *zap.Logger) *Log {
	return &Log{zap: logger}
}

// Emit records e and writes it to the zap logger at a level depending on
// its kind: failures log at Warn, everything else at Info.
func (l *Log) Emit(e Event) {
	l.events = append(l.events, e)

	fields := make([]zap.Field, 0, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields = append(fields, zap.Any(k, v))
	}

	switch e.Kind {
	case SettlementFailed, StakeCollectionFailed:
		l.zap.Warn(string(e.Kind), fields...)
	default:
		l.zap.Info(string(e.Kind), fields...)
	}
}

// Events returns every event recorded so far, in emission order.
func (l *Log) Events() []Event {
	return l.events
}

// Reset clears the in-memory event buffer. CycleController calls this at
// the start of each settlement call so callers only see the current
// cycle's events.
func (l *Log) Reset() {
	l.events = nil
}
