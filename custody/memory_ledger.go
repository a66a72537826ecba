package custody

import "clearinghouse/domain"

// InMemoryLedger is a reference Ledger used by tests and by
// cmd/clearinghoused's demo mode. It tracks balances, allowances, and
// non-fungible asset ownership as plain maps; production deployments
// replace this with the real external ledger (out of scope per spec.md
// §1).
type InMemoryLedger struct {
	balances   map[domain.Address]map[domain.Token]int64
	allowances map[domain.Address]map[domain.Token]int64
	assetOwner map[domain.AssetRef]domain.Address
	// denyAssetTransfer, when set, makes AssetTransfer for this asset fail
	// unconditionally — used to simulate a revoked asset approval (S5).
	denyAssetTransfer map[domain.AssetRef]bool
}

// NewInMemoryLedger returns an empty ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		balances:          make(map[domain.Address]map[domain.Token]int64),
		allowances:        make(map[domain.Address]map[domain.Token]int64),
		assetOwner:        make(map[domain.AssetRef]domain.Address),
		denyAssetTransfer: make(map[domain.AssetRef]bool),
	}
}

// SetBalance sets owner's balance of token directly (test fixture helper).
func (l *InMemoryLedger) SetBalance(owner domain.Address, token domain.Token, amount int64) {
	if _, ok := l.balances[owner]; !ok {
		l.balances[owner] = make(map[domain.Token]int64)
	}
	l.balances[owner][token] = amount
}

// SetAllowance sets owner's allowance of token directly (test fixture
// helper). By default an owner's allowance equals their balance unless set
// explicitly.
func (l *InMemoryLedger) SetAllowance(owner domain.Address, token domain.Token, amount int64) {
	if _, ok := l.allowances[owner]; !ok {
		l.allowances[owner] = make(map[domain.Token]int64)
	}
	l.allowances[owner][token] = amount
}

// SetAssetOwner records asset as owned by owner (test fixture helper).
func (l *InMemoryLedger) SetAssetOwner(asset domain.AssetRef, owner domain.Address) {
	l.assetOwner[asset] = owner
}

// DenyAssetTransfer makes every future AssetTransfer of asset fail, to
// simulate a revoked approval (spec.md §8 scenario S5).
func (l *InMemoryLedger) DenyAssetTransfer(asset domain.AssetRef) {
	l.denyAssetTransfer[asset] = true
}

// AssetOwnerOf returns the current owner of asset (test assertion helper).
func (l *InMemoryLedger) AssetOwnerOf(asset domain.AssetRef) domain.Address {
	return l.assetOwner[asset]
}

func (l *InMemoryLedger) BalanceOf(owner domain.Address, token domain.Token) int64 {
	return l.balances[owner][token]
}

func (l *InMemoryLedger) AllowanceOf(owner domain.Address, token domain.Token) int64 {
	if m, ok := l.allowances[owner]; ok {
		if v, ok := m[token]; ok {
			return v
		}
	}
	return l.balances[owner][token]
}

func (l *InMemoryLedger) TransferFrom(owner domain.Address, amount int64, token domain.Token) error {
	if amount <= 0 {
		return nil
	}
	if l.BalanceOf(owner, token) < amount || l.AllowanceOf(owner, token) < amount {
		return domain.ErrTransferFailed
	}
	l.balances[owner][token] -= amount
	if _, ok := l.allowances[owner]; ok {
		if _, ok := l.allowances[owner][token]; ok {
			l.allowances[owner][token] -= amount
		}
	}
	return nil
}

func (l *InMemoryLedger) TransferTo(recipient domain.Address, amount int64, token domain.Token) error {
	if amount <= 0 {
		return nil
	}
	if _, ok := l.balances[recipient]; !ok {
		l.balances[recipient] = make(map[domain.Token]int64)
	}
	l.balances[recipient][token] += amount
	return nil
}

func (l *InMemoryLedger) AssetTransfer(from, to domain.Address, asset domain.AssetRef) error {
	if l.denyAssetTransfer[asset] {
		return domain.ErrTransferFailed
	}
	if l.assetOwner[asset] != from {
		return domain.ErrTransferFailed
	}
	l.assetOwner[asset] = to
	return nil
}
