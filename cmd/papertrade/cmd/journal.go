package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"papertrade/journal"
	"papertrade/ledger"
	"papertrade/stats"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query journaled fills",
	Long: `Query and display fill records from a SQLite journal.

Subcommands:
  fill   - Get details of a specific fill by ID
  today  - List fills executed today
  day    - List fills executed on a specific day
  stats  - Round-trip statistics over the full fill log

Examples:
  papertrade journal fill <fill-id>
  papertrade journal today
  papertrade journal day 2025-01-15
  papertrade journal stats`,
}

var journalFillCmd = &cobra.Command{
	Use:   "fill <fill-id>",
	Short: "Get details of a specific fill",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalFill,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List fills executed today",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List fills executed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Round-trip statistics over the fill log",
	Args:  cobra.NoArgs,
	RunE:  runJournalStats,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalFillCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalStatsCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./papertrade.sqlite", "path to SQLite journal DB")
}

func runJournalFill(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetFill(args[0])
	if err != nil {
		return fmt.Errorf("get fill: %w", err)
	}

	fmt.Printf("Fill %s\n", rec.FillID)
	fmt.Printf("  Symbol:     %s\n", rec.Symbol)
	fmt.Printf("  Side:       %s (%s)\n", rec.Side, rec.OrderKind)
	fmt.Printf("  Price:      %s\n", rec.Price)
	fmt.Printf("  Quantity:   %s\n", rec.Quantity)
	fmt.Printf("  Commission: %s\n", rec.Commission)
	if rec.Strategy != "" {
		fmt.Printf("  Strategy:   %s\n", rec.Strategy)
	}
	fmt.Printf("  Executed:   %s\n", rec.ExecutedAt.Format(time.RFC3339))
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	loc := time.Local
	start, end, err := dayBounds(loc, time.Now().In(loc).Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListFillsBetween(start, end)
	if err != nil {
		return fmt.Errorf("query fills: %w", err)
	}

	printFills(recs)
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(time.Local, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListFillsBetween(start, end)
	if err != nil {
		return fmt.Errorf("query fills: %w", err)
	}

	printFills(recs)
	return nil
}

func runJournalStats(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListFills()
	if err != nil {
		return fmt.Errorf("query fills: %w", err)
	}

	trades := make([]ledger.Trade, len(recs))
	for i, r := range recs {
		trades[i] = ledger.Trade{
			Symbol:     r.Symbol,
			Side:       r.Side,
			Price:      r.Price,
			Quantity:   r.Quantity,
			ExecutedAt: r.ExecutedAt,
			Strategy:   r.Strategy,
			Commission: r.Commission,
			OrderKind:  r.OrderKind,
		}
	}
	rep := stats.Compute(trades)

	fmt.Printf("Fills: %d\n", rep.Fills)
	fmt.Printf("Round Trips: %d (wins %d, losses %d)\n", rep.RoundTrips, rep.Wins, rep.Losses)
	fmt.Printf("Net P/L: $%s\n", rep.NetPL.StringFixed(2))
	if rep.RoundTrips > 0 {
		fmt.Printf("Win Rate: %s%%\n", rep.WinRate.Mul(decimal.NewFromInt(100)).StringFixed(1))
	}
	if rep.ProfitFactor.IsPositive() {
		fmt.Printf("Profit Factor: %s\n", rep.ProfitFactor.StringFixed(2))
	}
	fmt.Printf("Commission Paid: $%s\n", rep.TotalCommission.StringFixed(2))

	if len(rep.Symbols) > 0 {
		fmt.Println("\nPer Symbol:")
		syms := make([]string, 0, len(rep.Symbols))
		for s := range rep.Symbols {
			syms = append(syms, s)
		}
		sort.Strings(syms)
		for _, s := range syms {
			sr := rep.Symbols[s]
			fmt.Printf("  %-10s trips %d (wins %d, losses %d)  P/L $%s\n",
				s, sr.RoundTrips, sr.Wins, sr.Losses, sr.NetPL.StringFixed(2))
		}
	}
	return nil
}

func printFills(recs []journal.FillRecord) {
	if len(recs) == 0 {
		fmt.Println("No fills.")
		return
	}
	fmt.Printf("%-20s %-10s %-4s %-6s %14s %14s %12s  %s\n",
		"EXECUTED", "SYMBOL", "SIDE", "KIND", "PRICE", "QUANTITY", "FEE", "FILL ID")
	for _, r := range recs {
		fmt.Printf("%-20s %-10s %-4s %-6s %14s %14s %12s  %s\n",
			r.ExecutedAt.Local().Format("2006-01-02 15:04:05"), r.Symbol, r.Side, r.OrderKind,
			r.Price, r.Quantity, r.Commission, r.FillID)
	}
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24 * time.Hour)
	return start, end, nil
}
