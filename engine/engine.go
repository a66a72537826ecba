// Package engine assembles Registry, Ledger, CycleController, and an
// events.Log into the one facade an application embeds: submission calls
// that also emit their spec.md §6 event (OrderPlaced, PaymentAccepted),
// and PerformSettlement for the periodic tick.
package engine

import (
	"time"

	"clearinghouse/config"
	"clearinghouse/custody"
	"clearinghouse/cycle"
	"clearinghouse/domain"
	"clearinghouse/events"
	"clearinghouse/registry"
)

// Engine is the clearinghouse's embeddable facade.
type Engine struct {
	Registry   *registry.Registry
	Ledger     custody.Ledger
	Controller *cycle.Controller
	Log        *events.Log
}

// New wires a fresh Engine. ledger is the external balance/asset custody
// primitive; in production this is the real ledger integration, in tests
// and the demo CLI it is custody.NewInMemoryLedger().
func New(ledger custody.Ledger, cfg config.Config, logger *events.Log) *Engine {
	reg := registry.New()
	return &Engine{
		Registry:   reg,
		Ledger:     ledger,
		Controller: cycle.New(reg, ledger, cfg, logger),
		Log:        logger,
	}
}

// SubmitSell wraps Registry.SubmitSell, emitting OrderPlaced on success.
func (e *Engine) SubmitSell(maker domain.Address, asset domain.AssetRef, counterparty domain.Address, price int64) (domain.OrderID, error) {
	id, err := e.Registry.SubmitSell(maker, asset, counterparty, price)
	if err != nil {
		return 0, err
	}
	e.Log.Emit(events.New(events.OrderPlaced, map[string]any{
		events.FieldOrderID: uint64(id), events.FieldParticipant: string(maker), "side": "sell",
	}))
	return id, nil
}

// SubmitBuy wraps Registry.SubmitBuy, emitting OrderPlaced on success.
func (e *Engine) SubmitBuy(maker domain.Address, asset domain.AssetRef, paymentToken domain.Token, price int64, counterparty domain.Address) (domain.OrderID, error) {
	id, err := e.Registry.SubmitBuy(maker, asset, paymentToken, price, counterparty)
	if err != nil {
		return 0, err
	}
	e.Log.Emit(events.New(events.OrderPlaced, map[string]any{
		events.FieldOrderID: uint64(id), events.FieldParticipant: string(maker), "side": "buy",
	}))
	return id, nil
}

// CreatePayment wraps Registry.CreatePayment.
func (e *Engine) CreatePayment(sender, recipient domain.Address, amount int64, token domain.Token) (domain.PaymentID, error) {
	return e.Registry.CreatePayment(sender, recipient, amount, token)
}

// AcceptPayment wraps Registry.AcceptPayment, emitting PaymentAccepted on
// success.
func (e *Engine) AcceptPayment(id domain.PaymentID, recipient, expectedSender domain.Address, expectedAmount int64) error {
	if err := e.Registry.AcceptPayment(id, recipient, expectedSender, expectedAmount); err != nil {
		return err
	}
	e.Log.Emit(events.New(events.PaymentAccepted, map[string]any{events.FieldPaymentID: uint64(id)}))
	return nil
}

// SubmitSwap wraps Registry.SubmitSwap, emitting OrderPlaced on success.
func (e *Engine) SubmitSwap(maker domain.Address, sendToken domain.Token, sendAmount int64, receiveToken domain.Token, receiveAmount int64) (domain.SwapID, error) {
	id, err := e.Registry.SubmitSwap(maker, sendToken, sendAmount, receiveToken, receiveAmount)
	if err != nil {
		return 0, err
	}
	e.Log.Emit(events.New(events.OrderPlaced, map[string]any{
		events.FieldSwapID: uint64(id), events.FieldParticipant: string(maker),
	}))
	return id, nil
}

// PerformSettlement runs one settlement cycle.
func (e *Engine) PerformSettlement(now time.Time) (*cycle.Result, error) {
	return e.Controller.PerformSettlement(now)
}
