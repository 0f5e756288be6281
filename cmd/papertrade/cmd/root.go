package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "papertrade",
	Short: "A webhook-driven paper trading engine with an order ledger",
	Long: `Papertrade simulates order execution against a single cash account.

It provides tools for:
  - Serving a webhook and REST API for order submission and queries
  - Resting limit orders with fund reservation and price-triggered fills
  - Journaling fills and balance snapshots to CSV or SQLite
  - Live price feeds over HTTP polling or websocket streaming
  - Scripted simulations played from a config file
  - FIFO round-trip statistics over the fill log`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
