package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"revenueScope/internal/config"
	"revenueScope/internal/earnings"
	"revenueScope/internal/format"
	"revenueScope/internal/model"
	"revenueScope/internal/source"
)

func runEarnings(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadEarnings(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Wallet == "" {
		return fmt.Errorf("wallet is required")
	}
	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.EtherscanURL == "" {
		return fmt.Errorf("explorer api url is required")
	}
	if cfg.Token == "" {
		return fmt.Errorf("token is required")
	}
	if cfg.RatioContract == "" || cfg.RatioTopic0 == "" {
		return fmt.Errorf("ratio contract and topic0 are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cache *earnings.Cache
	if cfg.RedisAddr != "" {
		cache, err = earnings.NewCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			return fmt.Errorf("earnings cache: %w", err)
		}
		defer cache.Close()

		if cached, ok, err := cache.Get(ctx, cfg.Wallet); err != nil {
			logger.Warn("earnings cache read failed", zap.Error(err))
		} else if ok {
			printEarnings(cached)
			return nil
		}
	}

	chainClient, err := source.NewChainClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	scanner, err := source.NewRatioScanner(chainClient, cfg.RatioContract, cfg.RatioTopic0, cfg.RatioFromBlock)
	if err != nil {
		return err
	}

	etherscan := source.NewEtherscanClient(cfg.EtherscanURL, cfg.EtherscanKey, logger)
	calculator := earnings.NewCalculator(etherscan, scanner, cfg.Token, uint8(cfg.Decimals), logger)

	result, err := calculator.Estimate(ctx, cfg.Wallet)
	if err != nil {
		// Data-unavailable must stay distinguishable from a zero estimate.
		return err
	}

	if cache != nil {
		if err := cache.Put(ctx, result); err != nil {
			logger.Warn("earnings cache write failed", zap.Error(err))
		}
	}

	printEarnings(result)
	return nil
}

func printEarnings(result model.WalletEarnings) {
	fmt.Printf("%s\t%d\t%s\n", result.DisplayName, result.Estimate, format.USD(result.Estimate))
}
