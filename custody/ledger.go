// Package custody mediates every fungible and non-fungible value movement
// between the engine and the external ledger/asset-custody primitives
// (spec.md §1, §4.5). It tracks what the engine currently holds in a
// cycle-scoped CustodyLedger and exposes the collection/refund/
// distribution/lock operations CycleController drives.
package custody

import "clearinghouse/domain"

// Ledger is the external primitive surface the engine consumes (spec.md
// §1): transfer_from, transfer_to, asset_transfer, balance_of,
// allowance_of, all scoped to one clearing cycle's duration. It is
// implemented by the real balance/asset-custody system in production and
// by InMemoryLedger in tests.
type Ledger interface {
	// TransferFrom pulls amount of token from owner into engine custody.
	// It fails if owner's balance or allowance is insufficient.
	TransferFrom(owner domain.Address, amount int64, token domain.Token) error

	// TransferTo pays amount of token from engine custody to recipient.
	TransferTo(recipient domain.Address, amount int64, token domain.Token) error

	// AssetTransfer moves a non-fungible asset directly from 'from' to
	// 'to'. Binary: it either fully succeeds or fails (spec.md §4.4 P6).
	AssetTransfer(from, to domain.Address, asset domain.AssetRef) error

	// BalanceOf returns owner's current balance of token.
	BalanceOf(owner domain.Address, token domain.Token) int64

	// AllowanceOf returns the amount owner has authorized the engine to
	// pull of token.
	AllowanceOf(owner domain.Address, token domain.Token) int64
}
