// Package events defines the engine's observable event stream (spec.md
// §6) and a zap-backed Log that both records events in cycle order for
// callers and emits them as structured log lines, mirroring the logging
// approach neo-go's node takes for chain events.
package events

import "time"

// Kind identifies one of the event types spec.md §6 lists.
type Kind string

const (
	OrderPlaced           Kind = "order_placed"
	DvPMatched            Kind = "dvp_matched"
	SwapMatched           Kind = "swap_matched"
	PaymentAccepted       Kind = "payment_accepted"
	AssetLocked           Kind = "asset_locked"
	AssetUnlocked         Kind = "asset_unlocked"
	StakeCollected        Kind = "stake_collected"
	StakeCollectionFailed Kind = "stake_collection_failed"
	StakeDistributed      Kind = "stake_distributed"
	CrossTokenNetted      Kind = "cross_token_netted"
	PaymentSettled        Kind = "payment_settled"
	SwapSettled           Kind = "swap_settled"
	SettlementFailed      Kind = "settlement_failed"
	SettlementCompleted   Kind = "settlement_completed"
)

// Event is one occurrence in the settlement engine's observable stream. The
// Fields map carries kind-specific attributes (order ids, participants,
// amounts) as a flat key/value set rather than one struct per kind, so a
// single ordered log and a single zap call shape can carry any of them.
type Event struct {
	Kind      Kind
	Timestamp time.Time
	Fields    map[string]any
}

// Field keys used across several event kinds.
const (
	FieldParticipant  = "participant"
	FieldCounterparty = "counterparty"
	FieldToken        = "token"
	FieldAmount       = "amount"
	FieldOrderID      = "order_id"
	FieldPaymentID    = "payment_id"
	FieldSwapID       = "swap_id"
	FieldCycleID      = "cycle_id"
	FieldReason       = "reason"
	FieldAttempt      = "attempt"
)

// New constructs an Event of the given kind with the supplied fields,
// timestamped now.
func New(kind Kind, fields map[string]any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Fields: fields}
}
