package domain

import "errors"

// Sentinel error kinds. Each maps to one abstract kind in the error
// taxonomy: callers match with errors.Is, internal code wraps with
// fmt.Errorf("...: %w", ErrX) to attach the offending id/participant.
var (
	// ErrTooEarly is returned by perform_settlement when called before
	// last_settlement + SettlementInterval has elapsed. No state changes.
	ErrTooEarly = errors.New("clearinghouse: settlement called too early")

	// ErrValidation covers all submission-time rejections: a malformed
	// order/payment/swap, an invalid preference configuration, etc.
	ErrValidation = errors.New("clearinghouse: validation failed")

	// ErrTermsMismatch is a specific ValidationError: a buy order's
	// (payment_token, price) conflicts with terms already recorded on the
	// target sell order.
	ErrTermsMismatch = errors.New("clearinghouse: payment token terms mismatch")

	// ErrTransferFailed covers both fungible and non-fungible transfer
	// failures from the external ledger/custody primitives.
	ErrTransferFailed = errors.New("clearinghouse: transfer failed")

	// ErrGlobalPaymentFailure names the abort kind for a re-net loop that
	// exhausts its attempt budget (spec.md §4.4: at most three P3-P5
	// attempts). PerformSettlement does not return it; it reports such an
	// abort as Result.Reason "GlobalPaymentFailure".
	ErrGlobalPaymentFailure = errors.New("clearinghouse: global payment failure")

	// ErrInvariantViolation indicates an implementation bug: a table
	// invariant the engine is supposed to maintain unconditionally failed
	// to hold. Callers should treat this as fatal.
	ErrInvariantViolation = errors.New("clearinghouse: invariant violation")

	// ErrNotFound covers lookups against unknown order/payment/swap ids.
	ErrNotFound = errors.New("clearinghouse: not found")

	// ErrReentrant is returned when perform_settlement is invoked while
	// another perform_settlement call is still in progress (spec.md §5:
	// strictly single-threaded, non-reentrant). Registry mutations do not
	// check for reentrancy.
	ErrReentrant = errors.New("clearinghouse: reentrant call rejected")
)
