package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"revenueScope/internal/config"
	"revenueScope/internal/format"
	"revenueScope/internal/ledger"
	"revenueScope/internal/model"
)

func runShow(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadShow(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openLedger(ctx, cfg.PGDSN, cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer cleanup()

	items, err := collectRows(ctx, store, cfg.Partition, cfg.N)
	if err != nil {
		return fmt.Errorf("query %s: %w", cfg.Partition, err)
	}
	if len(items) == 0 {
		fmt.Printf("%s: no data\n", cfg.Partition)
		return nil
	}

	for _, item := range items {
		printItem(item)
	}
	return nil
}

// collectRows reads the rows to print. The buyback partition gets the
// accrued-fee sentinel prepended when one exists, so "most recent n"
// shows the pending estimate ahead of the settled bars.
func collectRows(ctx context.Context, store ledger.Store, partition string, n int) ([]ledger.Item, error) {
	if partition != model.PartitionBuyback {
		return store.Query(ctx, partition, n)
	}

	fees, err := store.Query(ctx, model.PartitionFees, 1)
	if err != nil {
		return nil, err
	}
	if len(fees) == 0 || fees[0].SortKey != model.FeeSentinelTimestamp {
		return store.Query(ctx, partition, n)
	}

	rows := fees[:1:1]
	if n <= 1 {
		return rows, nil
	}
	items, err := store.Query(ctx, partition, n-1)
	if err != nil {
		return nil, err
	}
	return append(rows, items...), nil
}

func printItem(item ledger.Item) {
	if item.SortKey == model.FeeSentinelTimestamp {
		fmt.Printf("next\t%s\n", format.USD(item.Amount))
		return
	}
	switch item.Partition {
	case model.PartitionDistribution:
		fmt.Printf("%s\tmSPELL %s\tsSPELL %s\t%s\n",
			format.Date(item.SortKey),
			format.Number(item.MSpellAmount),
			format.Number(item.SSpellAmount),
			item.TxHash,
		)
	default:
		fmt.Printf("%s\t%s\t%s\t%s\n",
			format.Date(item.SortKey),
			format.Number(item.Amount),
			format.Percent(item.Amount),
			item.TxHash,
		)
	}
}
