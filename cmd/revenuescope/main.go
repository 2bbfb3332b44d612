package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "revenuescope",
		Short:        "Protocol revenue-share reconciliation",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile distributions, buybacks, and accrued fees into the ledger",
		RunE:  runReconcile,
	}

	reconcileCmd.Flags().String("rpc", "", "chain RPC URL")
	reconcileCmd.Flags().String("etherscan-url", "", "explorer API base URL")
	reconcileCmd.Flags().String("etherscan-key", "", "explorer API key")
	reconcileCmd.Flags().String("account", "", "monitored distributor account")
	reconcileCmd.Flags().String("token", "", "reward token contract")
	reconcileCmd.Flags().String("rule-variant", "direct-exchange", "classification rule variant (direct-exchange, gelato-relay, swapper-route)")
	reconcileCmd.Flags().String("exchange", "", "exchange address (direct-exchange variant)")
	reconcileCmd.Flags().String("distributor", "", "distribution contract (gelato-relay variant)")
	reconcileCmd.Flags().String("swapper", "", "swapper contract (swapper-route variant)")
	reconcileCmd.Flags().String("treasury", "", "treasury address fingerprinted in call data")
	reconcileCmd.Flags().String("method-mark", "", "method signature fingerprint (swapper-route variant)")
	reconcileCmd.Flags().String("min-value", "", "minimum raw value threshold (swapper-route variant)")
	reconcileCmd.Flags().Int("most-recent-n", 25, "distribution candidates to keep")
	reconcileCmd.Flags().String("mspell-pool", "", "mSPELL pool address for topic lookup")
	reconcileCmd.Flags().Int("mspell-log-index", 0, "mSPELL log position when no pool address is set")
	reconcileCmd.Flags().String("sspell-pool", "", "sSPELL pool address for topic lookup")
	reconcileCmd.Flags().Int("sspell-log-index", 1, "sSPELL log position when no pool address is set")
	reconcileCmd.Flags().String("buyback-strategy", "trade-pair", "buyback decode strategy (trade-pair, fixed-index)")
	reconcileCmd.Flags().String("sell-token", "", "sell token of the buyback pair")
	reconcileCmd.Flags().String("buy-token", "", "buy token of the buyback pair")
	reconcileCmd.Flags().Int("fixed-log-index", 0, "swap log position (fixed-index strategy)")
	reconcileCmd.Flags().Int("buyback-n", 5, "ratio updates to decode")
	reconcileCmd.Flags().String("ratio-contract", "", "staked token contract emitting ratio updates")
	reconcileCmd.Flags().String("ratio-topic0", "", "ratio update event topic0")
	reconcileCmd.Flags().Uint64("ratio-from-block", 0, "first block of the ratio history")
	reconcileCmd.Flags().String("fee-index-url", "", "fee aggregation service base URL")
	reconcileCmd.Flags().Duration("fee-skew", 10*time.Minute, "trailing skew excluded from the fee window")
	reconcileCmd.Flags().Float64("share-ratio", 0.75, "staker revenue share of total fees")
	reconcileCmd.Flags().String("pg-dsn", "", "Postgres DSN (uses JSONL ledger when empty)")
	reconcileCmd.Flags().String("ledger-path", "./data/ledger.jsonl", "JSONL ledger path")
	reconcileCmd.Flags().Int("fetch-concurrency", 8, "concurrent receipt fetches per builder")
	reconcileCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	reconcileCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	reconcileCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(reconcileCmd)

	earningsCmd := &cobra.Command{
		Use:   "earnings",
		Short: "Estimate a wallet's historical earnings",
		RunE:  runEarnings,
	}

	earningsCmd.Flags().String("rpc", "", "chain RPC URL")
	earningsCmd.Flags().String("etherscan-url", "", "explorer API base URL")
	earningsCmd.Flags().String("etherscan-key", "", "explorer API key")
	earningsCmd.Flags().String("token", "", "staked token contract")
	earningsCmd.Flags().Int("decimals", 18, "staked token decimals")
	earningsCmd.Flags().String("ratio-contract", "", "staked token contract emitting ratio updates")
	earningsCmd.Flags().String("ratio-topic0", "", "ratio update event topic0")
	earningsCmd.Flags().Uint64("ratio-from-block", 0, "first block of the ratio history")
	earningsCmd.Flags().String("wallet", "", "wallet address")
	earningsCmd.Flags().String("redis-addr", "", "Redis address for the earnings cache (optional)")
	earningsCmd.Flags().String("redis-password", "", "Redis password")
	earningsCmd.Flags().Int("redis-db", 0, "Redis database")
	earningsCmd.Flags().Duration("cache-ttl", 5*time.Minute, "earnings cache TTL")
	earningsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(earningsCmd)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the most recent ledger rows for a partition",
		RunE:  runShow,
	}

	showCmd.Flags().String("pg-dsn", "", "Postgres DSN (uses JSONL ledger when empty)")
	showCmd.Flags().String("ledger-path", "./data/ledger.jsonl", "JSONL ledger path")
	showCmd.Flags().String("partition", "spell-buyback", "ledger partition")
	showCmd.Flags().Int("n", 6, "rows to print")
	showCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(showCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
