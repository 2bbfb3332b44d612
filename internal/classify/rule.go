package classify

import (
	"fmt"
	"math/big"
	"strings"

	"revenueScope/internal/model"
)

// Rule variants. The monitored on-chain topology changed over time
// (direct exchange trades, then gelato-relayed distribution, then
// swapper-routed distribution); the active variant is chosen at
// construction, not branched on per deployment.
const (
	VariantDirectExchange = "direct-exchange"
	VariantGelatoRelay    = "gelato-relay"
	VariantSwapperRoute   = "swapper-route"
)

// Rule is a conjunction of simple predicates over transaction fields.
// Zero values disable a predicate.
type Rule struct {
	Name          string
	To            string
	From          string
	InputContains string
	ExcludeErrors bool
	Blacklist     map[uint64]struct{}
	MinValue      *big.Int
}

// Config carries the addresses and thresholds a rule variant binds to.
type Config struct {
	Exchange    string
	Distributor string
	Swapper     string
	Treasury    string
	MethodMark  string
	MinValue    *big.Int
	Blacklist   []uint64
}

// ForVariant builds the rule for a named variant.
func ForVariant(name string, cfg Config) (Rule, error) {
	rule := Rule{Name: name, ExcludeErrors: true}
	switch name {
	case VariantDirectExchange:
		rule.To = cfg.Exchange
		rule.Blacklist = toSet(cfg.Blacklist)
	case VariantGelatoRelay:
		rule.To = cfg.Distributor
		rule.InputContains = AddressFingerprint(cfg.Treasury)
	case VariantSwapperRoute:
		rule.From = cfg.Swapper
		rule.InputContains = cfg.MethodMark
		rule.MinValue = cfg.MinValue
	default:
		return Rule{}, fmt.Errorf("unknown rule variant: %s", name)
	}
	return rule, nil
}

// AddressFingerprint is the lowercase hex of an address without the 0x
// prefix, as it appears embedded in ABI-encoded call data.
func AddressFingerprint(address string) string {
	return strings.TrimPrefix(strings.ToLower(address), "0x")
}

// Matches evaluates every enabled predicate.
func (r Rule) Matches(tx model.RawTransaction) bool {
	if r.ExcludeErrors && tx.IsError {
		return false
	}
	if r.To != "" && !strings.EqualFold(tx.To, r.To) {
		return false
	}
	if r.From != "" && !strings.EqualFold(tx.From, r.From) {
		return false
	}
	if r.InputContains != "" && !strings.Contains(strings.ToLower(tx.Input), strings.ToLower(r.InputContains)) {
		return false
	}
	if len(r.Blacklist) > 0 {
		if _, bad := r.Blacklist[tx.Timestamp]; bad {
			return false
		}
	}
	if r.MinValue != nil {
		value, ok := new(big.Int).SetString(tx.Value, 10)
		if !ok || value.Cmp(r.MinValue) < 0 {
			return false
		}
	}
	return true
}

// Classify filters the stream down to candidates. Output is always a
// subset of the input and preserves relative order.
func Classify(txs []model.RawTransaction, rule Rule) []model.RawTransaction {
	out := make([]model.RawTransaction, 0, len(txs))
	for _, tx := range txs {
		if rule.Matches(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// MostRecent truncates to the n most recent transactions, preserving
// the input's order. The source may supply either ascending or
// descending timestamps.
func MostRecent(txs []model.RawTransaction, n int) []model.RawTransaction {
	if n <= 0 || len(txs) <= n {
		return txs
	}
	if txs[0].Timestamp <= txs[len(txs)-1].Timestamp {
		return txs[len(txs)-n:]
	}
	return txs[:n]
}

func toSet(timestamps []uint64) map[uint64]struct{} {
	if len(timestamps) == 0 {
		return nil
	}
	set := make(map[uint64]struct{}, len(timestamps))
	for _, ts := range timestamps {
		set[ts] = struct{}{}
	}
	return set
}
