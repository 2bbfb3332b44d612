package model

import "math/big"

// Ledger partitions. The unified "buyback" partition is a superseded
// layout that older rows still live under; it is read, never written.
const (
	PartitionDistribution  = "distribution"
	PartitionBuyback       = "spell-buyback"
	PartitionFees          = "fees"
	PartitionBlacklist     = "blacklist"
	PartitionLegacyBuyback = "buyback"
)

// FeeSentinelTimestamp is the fixed sort key for the single "current
// fee estimate" row. It sorts above every real timestamp, so repeated
// runs overwrite one logical row.
const FeeSentinelTimestamp uint64 = 9999999999

// DistributionRecord is a reward distribution to the mSPELL and sSPELL
// pools, decoded from the distribution transaction's transfer logs.
type DistributionRecord struct {
	Timestamp    uint64 `json:"timestamp"`
	MSpellAmount int64  `json:"mspell_amount"`
	SSpellAmount int64  `json:"sspell_amount"`
	TxHash       string `json:"tx_hash"`
}

// Empty reports whether both pool amounts decoded to zero.
func (r DistributionRecord) Empty() bool {
	return r.MSpellAmount == 0 && r.SSpellAmount == 0
}

// BuybackRecord is one token buyback decoded from a swap log.
type BuybackRecord struct {
	Timestamp uint64 `json:"timestamp"`
	Amount    int64  `json:"amount"`
	TxHash    string `json:"tx_hash"`
}

// FeeRecord is the current accrued-but-unpaid fee estimate.
type FeeRecord struct {
	Timestamp uint64 `json:"timestamp"`
	Amount    int64  `json:"amount"`
}

// RatioUpdate is one exchange-ratio update of the staked representation
// against its underlying token. Ratio is monotonic non-decreasing, >= 1.
type RatioUpdate struct {
	Timestamp uint64
	Ratio     *big.Rat
	TxHash    string
}

// BlacklistEntry marks a known internal transaction timestamp excluded
// from classification.
type BlacklistEntry struct {
	Timestamp uint64 `json:"timestamp"`
}

// WalletEarnings is the derived per-wallet earnings estimate. It is
// computed fresh per request and never persisted.
type WalletEarnings struct {
	Address     string `json:"address"`
	Estimate    int64  `json:"estimate"`
	DisplayName string `json:"display_name"`
}
