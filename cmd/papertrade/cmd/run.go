package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"papertrade/config"
	"papertrade/journal"
	"papertrade/ledger"
	"papertrade/stats"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play a scripted simulation from a config file",
	Long: `Run a scripted sequence of orders and price ticks against a fresh
paper account. Steps come from the simulation section of the config
file. Delays advance the simulated clock without sleeping; they only
space out the recorded timestamps.

Example:
  papertrade run --config examples/configs/basic.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Printf("Running simulation with config: %s\n", runConfigPath)
	fmt.Printf("  Account: %s (Balance: $%.2f %s, Commission: %.2f%%)\n",
		cfg.Account.ID, cfg.Account.Balance, cfg.Account.Currency, cfg.Account.CommissionRate)
	fmt.Printf("  Steps: %d\n", len(cfg.Simulation.Steps))
	fmt.Println()

	jnl, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jnl.Close()

	engine := ledger.NewEngine(
		decimal.NewFromFloat(cfg.Account.Balance),
		decimal.NewFromFloat(cfg.Account.CommissionRate),
	)

	simTime := time.Now()
	journaled := 0
	flush := func() {
		snap := engine.Account()
		if err := journal.RecordFills(jnl, snap.Trades[journaled:]); err != nil {
			fmt.Printf("  ! journal: %v\n", err)
		}
		journaled = len(snap.Trades)
		if err := jnl.RecordBalance(journal.SnapshotBalance(snap, engine.ReservedFunds(), simTime)); err != nil {
			fmt.Printf("  ! journal: %v\n", err)
		}
	}

	for i, step := range cfg.Simulation.Steps {
		delay, err := step.ParseDelay()
		if err != nil {
			return fmt.Errorf("step %d: delay: %w", i, err)
		}
		simTime = simTime.Add(delay)

		symbol := strings.ToUpper(strings.TrimSpace(step.Symbol))
		price := decimal.NewFromFloat(step.Price)

		switch step.Action {
		case "order":
			req := ledger.OrderRequest{
				Symbol:   symbol,
				Side:     ledger.Side(strings.ToUpper(step.Side)),
				Kind:     ledger.KindMarket,
				Price:    price,
				Quantity: decimal.NewFromFloat(step.Quantity),
				Strategy: step.Strategy,
				Time:     simTime,
			}
			if step.Kind != "" {
				req.Kind = ledger.OrderKind(strings.ToUpper(step.Kind))
			}
			if step.Limit > 0 {
				lp := decimal.NewFromFloat(step.Limit)
				req.LimitPrice = &lp
			}

			snap, err := engine.SubmitOrder(req)
			if err != nil {
				// A rejected order does not stop the script; later steps
				// stand on their own.
				fmt.Printf("✗ step %d rejected: %v\n", i+1, err)
				continue
			}
			flush()
			fmt.Printf("✓ step %d: %s %s %s %s @ %s (balance $%s)\n",
				i+1, req.Kind, req.Side, req.Quantity, symbol, price, snap.Balance)

		case "tick":
			res := engine.ResolvePendingOrders(symbol, price)
			for _, f := range res.Failed {
				fmt.Printf("✗ step %d dropped order %s (%s): %v\n", i+1, f.ID, f.Symbol, f.Err)
			}
			if res.Executed > 0 || len(res.Failed) > 0 {
				flush()
			}
			fmt.Printf("  step %d: tick %s @ %s (filled %d, resting %d)\n",
				i+1, symbol, price, res.Executed, res.Remaining)
		}
	}

	acct := engine.Account()
	rep := stats.Compute(acct.Trades)

	fmt.Printf("\nFinal Results:\n")
	fmt.Printf("  Balance: $%s\n", acct.Balance.StringFixed(2))
	fmt.Printf("  Reserved: $%s\n", engine.ReservedFunds().StringFixed(2))
	fmt.Printf("  Open Positions: %d\n", len(acct.Positions))
	fmt.Printf("  Resting Orders: %d\n", len(acct.PendingOrders))
	fmt.Printf("  Fills: %d\n", rep.Fills)
	fmt.Printf("  Round Trips: %d (wins %d, losses %d)\n", rep.RoundTrips, rep.Wins, rep.Losses)
	fmt.Printf("  Net P/L: $%s\n", rep.NetPL.StringFixed(2))
	if rep.RoundTrips > 0 {
		fmt.Printf("  Win Rate: %s%%\n", rep.WinRate.Mul(decimal.NewFromInt(100)).StringFixed(1))
	}
	if rep.ProfitFactor.IsPositive() {
		fmt.Printf("  Profit Factor: %s\n", rep.ProfitFactor.StringFixed(2))
	}
	fmt.Printf("  Commission Paid: $%s\n", rep.TotalCommission.StringFixed(2))

	switch cfg.Journal.Type {
	case "csv":
		fmt.Printf("\nResults saved to:\n  - %s\n  - %s\n", cfg.Journal.FillsFile, cfg.Journal.BalancesFile)
	case "sqlite":
		fmt.Printf("\nResults saved to: %s\n", cfg.Journal.DBPath)
	}

	return nil
}
