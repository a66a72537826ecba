package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clearinghouse/config"
	"clearinghouse/custody"
	"clearinghouse/engine"
	"clearinghouse/events"
)

var tickOnce bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the settlement engine, calling perform_settlement on an interval",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&tickOnce, "once", false, "run a single settlement tick and exit instead of looping")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	log := events.NewLog(logger)
	ledger := custody.NewInMemoryLedger()
	eng := engine.New(ledger, cfg, log)

	logger.Info("clearinghoused starting",
		zap.Duration("settlement_interval", cfg.SettlementInterval),
		zap.Int64("stake_bps", cfg.StakeBPS))

	tick := func() {
		now := time.Now()
		result, err := eng.PerformSettlement(now)
		if err != nil {
			logger.Warn("settlement call rejected", zap.Error(err))
			return
		}
		logger.Info("settlement cycle finished",
			zap.String("cycle_id", result.CycleID),
			zap.Bool("completed", result.Completed),
			zap.String("reason", result.Reason),
			zap.Int("settled", len(result.Settled)))
	}

	tick()
	if tickOnce {
		return nil
	}

	ticker := time.NewTicker(cfg.SettlementInterval)
	defer ticker.Stop()
	for range ticker.C {
		tick()
	}
	return nil
}
