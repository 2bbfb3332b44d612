package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ReconcileConfig holds configuration for the reconcile command.
type ReconcileConfig struct {
	RPCURL       string
	EtherscanURL string
	EtherscanKey string

	Account     string
	Token       string
	RuleVariant string
	Exchange    string
	Distributor string
	Swapper     string
	Treasury    string
	MethodMark  string
	MinValue    string
	MostRecentN int

	MSpellPool     string
	MSpellLogIndex int
	SSpellPool     string
	SSpellLogIndex int

	BuybackStrategy string
	SellToken       string
	BuyToken        string
	FixedLogIndex   int
	BuybackN        int

	RatioContract  string
	RatioTopic0    string
	RatioFromBlock uint64

	FeeIndexURL string
	FeeSkew     time.Duration
	ShareRatio  float64

	PGDSN      string
	LedgerPath string

	FetchConcurrency int
	MaxRetries       int
	RetryBackoff     time.Duration
	LogLevel         string
}

// LoadReconcile merges config file, environment variables, and flags.
func LoadReconcile(cfgFile string, flags *pflag.FlagSet) (ReconcileConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"rule-variant":      "direct-exchange",
		"most-recent-n":     25,
		"buyback-strategy":  "trade-pair",
		"buyback-n":         5,
		"fee-skew":          10 * time.Minute,
		"share-ratio":       0.75,
		"ledger-path":       "./data/ledger.jsonl",
		"fetch-concurrency": 8,
		"max-retries":       5,
		"retry-backoff":     500 * time.Millisecond,
		"log-level":         "info",
	})
	if err != nil {
		return ReconcileConfig{}, err
	}

	cfg := ReconcileConfig{
		RPCURL:           v.GetString("rpc"),
		EtherscanURL:     v.GetString("etherscan-url"),
		EtherscanKey:     v.GetString("etherscan-key"),
		Account:          v.GetString("account"),
		Token:            v.GetString("token"),
		RuleVariant:      v.GetString("rule-variant"),
		Exchange:         v.GetString("exchange"),
		Distributor:      v.GetString("distributor"),
		Swapper:          v.GetString("swapper"),
		Treasury:         v.GetString("treasury"),
		MethodMark:       v.GetString("method-mark"),
		MinValue:         v.GetString("min-value"),
		MostRecentN:      v.GetInt("most-recent-n"),
		MSpellPool:       v.GetString("mspell-pool"),
		MSpellLogIndex:   v.GetInt("mspell-log-index"),
		SSpellPool:       v.GetString("sspell-pool"),
		SSpellLogIndex:   v.GetInt("sspell-log-index"),
		BuybackStrategy:  v.GetString("buyback-strategy"),
		SellToken:        v.GetString("sell-token"),
		BuyToken:         v.GetString("buy-token"),
		FixedLogIndex:    v.GetInt("fixed-log-index"),
		BuybackN:         v.GetInt("buyback-n"),
		RatioContract:    v.GetString("ratio-contract"),
		RatioTopic0:      v.GetString("ratio-topic0"),
		RatioFromBlock:   v.GetUint64("ratio-from-block"),
		FeeIndexURL:      v.GetString("fee-index-url"),
		FeeSkew:          v.GetDuration("fee-skew"),
		ShareRatio:       v.GetFloat64("share-ratio"),
		PGDSN:            v.GetString("pg-dsn"),
		LedgerPath:       v.GetString("ledger-path"),
		FetchConcurrency: v.GetInt("fetch-concurrency"),
		MaxRetries:       v.GetInt("max-retries"),
		RetryBackoff:     v.GetDuration("retry-backoff"),
		LogLevel:         v.GetString("log-level"),
	}

	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("REVSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}
