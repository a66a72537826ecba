package domain

import "time"

// RecordKind distinguishes the three settled-record shapes a cycle can
// finalize.
type RecordKind int

const (
	RecordDvP RecordKind = iota
	RecordPayment
	RecordSwap
)

// SettledRecord is one audit-trail entry for a transaction finalized in a
// settlement cycle: which record, which participants, how much, in which
// token. CycleController accumulates these across Phase P8 and returns them
// to the caller; it is the engine's equivalent of the teacher's Trade
// record, generalized from a single buy/sell match to any of the three
// transaction classes this engine reconciles.
type SettledRecord struct {
	Kind      RecordKind
	Timestamp time.Time

	DvPID     OrderID
	PaymentID PaymentID
	SwapAID   SwapID
	SwapBID   SwapID

	Payer  Address
	Payee  Address
	Token  Token
	Amount int64
}
