package domain

// DvPOrder is a delivery-versus-payment order: one side of a trade of a
// unique non-fungible asset against fungible payment. A sell order stores
// the reference price given at submission in Price, but matching reads only
// its SellTerms, which accrue one price per payment token as compatible buy
// orders are submitted against it (spec.md §4.1).
//
// Lifecycle: created Active/unlocked -> may become Locked during a cycle's
// asset-lock phase -> Active=false on settlement finalization or on expiry
// (FailedCycles >= MaxFailedCycles).
type DvPOrder struct {
	ID           OrderID
	Maker        Address
	Side         Side
	AssetRef     AssetRef
	Counterparty Address // required, != Maker

	// PaymentToken is set on buy orders only; Price holds a buy's offered
	// price or a sell's reference price.
	PaymentToken Token
	Price        int64

	// Sell-only field: payment_token -> price, accumulated from compatible
	// buy orders as they are submitted (spec.md §4.1).
	SellTerms map[Token]int64

	Active       bool
	Locked       bool
	MatchedWith  OrderID
	Matched      bool
	FailedCycles int
}

// AssetRef identifies a specific non-fungible asset instance.
type AssetRef struct {
	Collection string
	TokenID    string
}

// NewSellOrder constructs a sell-side DvP order with an empty SellTerms
// table.
func NewSellOrder(id OrderID, maker Address, asset AssetRef, counterparty Address) *DvPOrder {
	return &DvPOrder{
		ID:           id,
		Maker:        maker,
		Side:         SideSell,
		AssetRef:     asset,
		Counterparty: counterparty,
		SellTerms:    make(map[Token]int64),
		Active:       true,
	}
}

// NewBuyOrder constructs a buy-side DvP order.
func NewBuyOrder(id OrderID, maker Address, asset AssetRef, paymentToken Token, price int64, counterparty Address) *DvPOrder {
	return &DvPOrder{
		ID:           id,
		Maker:        maker,
		Side:         SideBuy,
		AssetRef:     asset,
		PaymentToken: paymentToken,
		Price:        price,
		Counterparty: counterparty,
		Active:       true,
	}
}

// Expired reports whether the order has failed enough cycles to expire.
func (o *DvPOrder) Expired(maxFailedCycles int) bool {
	return o.FailedCycles >= maxFailedCycles
}

// PaymentRequest is a directed fungible transfer. A payment must be
// accepted by its recipient (Fulfilled=true) before it can enter a
// settlement cycle.
type PaymentRequest struct {
	ID           PaymentID
	Sender       Address
	Recipient    Address // != Sender
	Amount       int64
	Token        Token
	Fulfilled    bool
	Active       bool
	FailedCycles int
}

// NewPaymentRequest constructs a PaymentRequest in its initial state:
// active, unfulfilled.
func NewPaymentRequest(id PaymentID, sender, recipient Address, amount int64, token Token) *PaymentRequest {
	return &PaymentRequest{
		ID:        id,
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Token:     token,
		Active:    true,
	}
}

// Expired reports whether the payment has failed enough cycles to expire.
func (p *PaymentRequest) Expired(maxFailedCycles int) bool {
	return p.FailedCycles >= maxFailedCycles
}

// SwapOrder is a PvP swap: an offer to exchange SendAmount of SendToken for
// ReceiveAmount of ReceiveToken at fixed amounts. Two swaps match iff their
// makers differ and their amounts/tokens invert exactly (spec.md §3).
type SwapOrder struct {
	ID            SwapID
	Maker         Address
	SendToken     Token
	SendAmount    int64
	ReceiveToken  Token
	ReceiveAmount int64
	MatchedWith   SwapID
	Matched       bool
	Active        bool
	FailedCycles  int
}

// NewSwapOrder constructs a SwapOrder in its initial state: active,
// unmatched.
func NewSwapOrder(id SwapID, maker Address, sendToken Token, sendAmount int64, receiveToken Token, receiveAmount int64) *SwapOrder {
	return &SwapOrder{
		ID:            id,
		Maker:         maker,
		SendToken:     sendToken,
		SendAmount:    sendAmount,
		ReceiveToken:  receiveToken,
		ReceiveAmount: receiveAmount,
		Active:        true,
	}
}

// InvertsWith reports whether s and other match per spec.md §3: different
// makers, and amounts/tokens invert exactly.
func (s *SwapOrder) InvertsWith(other *SwapOrder) bool {
	if s.Maker == other.Maker {
		return false
	}
	return s.SendAmount == other.ReceiveAmount &&
		s.ReceiveAmount == other.SendAmount &&
		s.SendToken == other.ReceiveToken &&
		s.ReceiveToken == other.SendToken
}

// Expired reports whether the swap has failed enough cycles to expire.
func (s *SwapOrder) Expired(maxFailedCycles int) bool {
	return s.FailedCycles >= maxFailedCycles
}
