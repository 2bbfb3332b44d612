package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"revenueScope/internal/classify"
	"revenueScope/internal/config"
	"revenueScope/internal/ledger"
	"revenueScope/internal/model"
	"revenueScope/internal/pipeline"
	"revenueScope/internal/receipt"
	"revenueScope/internal/source"
)

func runReconcile(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReconcile(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.EtherscanURL == "" {
		return fmt.Errorf("explorer api url is required")
	}
	if cfg.Account == "" || cfg.Token == "" {
		return fmt.Errorf("account and token are required")
	}
	if cfg.RatioContract == "" || cfg.RatioTopic0 == "" {
		return fmt.Errorf("ratio contract and topic0 are required")
	}
	if cfg.FeeIndexURL == "" {
		return fmt.Errorf("fee index url is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := source.NewChainClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	store, cleanup, err := openLedger(ctx, cfg.PGDSN, cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer cleanup()

	blacklist, err := loadBlacklist(ctx, store)
	if err != nil {
		return fmt.Errorf("load blacklist: %w", err)
	}

	rule, err := buildRule(cfg, blacklist)
	if err != nil {
		return err
	}

	scanner, err := source.NewRatioScanner(chainClient, cfg.RatioContract, cfg.RatioTopic0, cfg.RatioFromBlock)
	if err != nil {
		return err
	}

	etherscan := source.NewEtherscanClient(cfg.EtherscanURL, cfg.EtherscanKey, logger)
	feeIndex := source.NewFeeIndexClient(cfg.FeeIndexURL, logger)

	distributions := pipeline.NewDistributionBuilder(pipeline.DistributionConfig{
		Account:          cfg.Account,
		Token:            cfg.Token,
		Rule:             rule,
		MostRecentN:      cfg.MostRecentN,
		MSpellLookup:     lookupSpec(cfg.MSpellPool, cfg.MSpellLogIndex),
		SSpellLookup:     lookupSpec(cfg.SSpellPool, cfg.SSpellLogIndex),
		Decimals:         18,
		FetchConcurrency: cfg.FetchConcurrency,
		MaxRetries:       cfg.MaxRetries,
		RetryBackoff:     cfg.RetryBackoff,
	}, etherscan, chainClient, store, logger)

	buybacks, err := pipeline.NewBuybackBuilder(pipeline.BuybackConfig{
		Strategy:         cfg.BuybackStrategy,
		SellToken:        cfg.SellToken,
		BuyToken:         cfg.BuyToken,
		FixedLogIndex:    cfg.FixedLogIndex,
		MostRecentN:      cfg.BuybackN,
		FetchConcurrency: cfg.FetchConcurrency,
		MaxRetries:       cfg.MaxRetries,
		RetryBackoff:     cfg.RetryBackoff,
	}, scanner, chainClient, store, logger)
	if err != nil {
		return err
	}

	fees := pipeline.NewFeeEstimator(pipeline.FeeConfig{
		Skew:       cfg.FeeSkew,
		ShareRatio: cfg.ShareRatio,
	}, feeIndex, store, logger)

	logger.Info("reconcile start",
		zap.String("account", cfg.Account),
		zap.String("rule", cfg.RuleVariant),
		zap.String("buyback_strategy", cfg.BuybackStrategy),
		zap.Int("blacklisted", len(blacklist)),
	)

	return pipeline.New(distributions, buybacks, fees, logger).Run(ctx)
}

func buildRule(cfg config.ReconcileConfig, blacklist []uint64) (classify.Rule, error) {
	ruleCfg := classify.Config{
		Exchange:    cfg.Exchange,
		Distributor: cfg.Distributor,
		Swapper:     cfg.Swapper,
		Treasury:    cfg.Treasury,
		MethodMark:  cfg.MethodMark,
		Blacklist:   blacklist,
	}
	if cfg.MinValue != "" {
		minValue, ok := new(big.Int).SetString(cfg.MinValue, 10)
		if !ok {
			return classify.Rule{}, fmt.Errorf("invalid min-value: %s", cfg.MinValue)
		}
		ruleCfg.MinValue = minValue
	}
	return classify.ForVariant(cfg.RuleVariant, ruleCfg)
}

func loadBlacklist(ctx context.Context, store ledger.Store) ([]uint64, error) {
	items, err := store.Query(ctx, model.PartitionBlacklist, 10)
	if err != nil {
		return nil, err
	}
	timestamps := make([]uint64, 0, len(items))
	for _, item := range items {
		timestamps = append(timestamps, item.SortKey)
	}
	return timestamps, nil
}

func lookupSpec(pool string, index int) receipt.LookupSpec {
	if pool != "" {
		// ERC20 Transfer puts the recipient in the third topic.
		return receipt.ByTopic(2, receipt.AddressTopic(pool))
	}
	return receipt.AtIndex(index)
}

func openLedger(ctx context.Context, dsn, path string) (ledger.Store, func(), error) {
	if dsn != "" {
		store, err := ledger.NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("migrate ledger: %w", err)
		}
		return store, store.Close, nil
	}
	return ledger.NewJsonlStore(path), func() {}, nil
}
