package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"clearinghouse/config"
	"clearinghouse/custody"
	"clearinghouse/domain"
	"clearinghouse/engine"
	"clearinghouse/events"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Seed a single DvP happy-path trade (spec.md scenario S1) and run one settlement cycle",
	RunE:  runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

// runDemo seeds the S1 scenario: a maker sells an asset, a taker buys it
// against a payment token, both deposit the asset/funds up front with the
// ledger, and a single settlement cycle clears the trade.
func runDemo(cmd *cobra.Command, args []string) error {
	cfg := config.Default()

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	log := events.NewLog(logger)
	ledger := custody.NewInMemoryLedger()
	eng := engine.New(ledger, cfg, log)

	const (
		seller domain.Address = "alice"
		buyer  domain.Address = "bob"
		usdc   domain.Token   = "USDC"
	)
	asset := domain.AssetRef{Collection: "demo-collection", TokenID: "1"}
	const price = 100

	ledger.SetBalance(buyer, usdc, price)
	ledger.SetAssetOwner(asset, seller)

	if _, err := eng.SubmitSell(seller, asset, buyer, price); err != nil {
		return fmt.Errorf("submitting sell: %w", err)
	}
	if _, err := eng.SubmitBuy(buyer, asset, usdc, price, seller); err != nil {
		return fmt.Errorf("submitting buy: %w", err)
	}

	result, err := eng.PerformSettlement(time.Now())
	if err != nil {
		return fmt.Errorf("performing settlement: %w", err)
	}

	fmt.Printf("cycle %s completed=%v reason=%q settled=%d\n",
		result.CycleID, result.Completed, result.Reason, len(result.Settled))
	for _, rec := range result.Settled {
		fmt.Printf("  %+v\n", rec)
	}
	return nil
}
