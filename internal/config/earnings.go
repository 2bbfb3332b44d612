package config

import (
	"time"

	"github.com/spf13/pflag"
)

// EarningsConfig holds configuration for the earnings command.
type EarningsConfig struct {
	RPCURL       string
	EtherscanURL string
	EtherscanKey string

	Token    string
	Decimals int

	RatioContract  string
	RatioTopic0    string
	RatioFromBlock uint64

	Wallet string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	LogLevel string
}

// LoadEarnings merges config file, environment variables, and flags.
func LoadEarnings(cfgFile string, flags *pflag.FlagSet) (EarningsConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"decimals":  18,
		"cache-ttl": 5 * time.Minute,
		"log-level": "info",
	})
	if err != nil {
		return EarningsConfig{}, err
	}

	cfg := EarningsConfig{
		RPCURL:         v.GetString("rpc"),
		EtherscanURL:   v.GetString("etherscan-url"),
		EtherscanKey:   v.GetString("etherscan-key"),
		Token:          v.GetString("token"),
		Decimals:       v.GetInt("decimals"),
		RatioContract:  v.GetString("ratio-contract"),
		RatioTopic0:    v.GetString("ratio-topic0"),
		RatioFromBlock: v.GetUint64("ratio-from-block"),
		Wallet:         v.GetString("wallet"),
		RedisAddr:      v.GetString("redis-addr"),
		RedisPassword:  v.GetString("redis-password"),
		RedisDB:        v.GetInt("redis-db"),
		CacheTTL:       v.GetDuration("cache-ttl"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}

// ShowConfig holds configuration for the show command.
type ShowConfig struct {
	PGDSN      string
	LedgerPath string
	Partition  string
	N          int
	LogLevel   string
}

// LoadShow merges config file, environment variables, and flags.
func LoadShow(cfgFile string, flags *pflag.FlagSet) (ShowConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"ledger-path": "./data/ledger.jsonl",
		"partition":   "spell-buyback",
		"n":           6,
		"log-level":   "info",
	})
	if err != nil {
		return ShowConfig{}, err
	}

	cfg := ShowConfig{
		PGDSN:      v.GetString("pg-dsn"),
		LedgerPath: v.GetString("ledger-path"),
		Partition:  v.GetString("partition"),
		N:          v.GetInt("n"),
		LogLevel:   v.GetString("log-level"),
	}

	return cfg, nil
}
