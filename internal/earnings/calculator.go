package earnings

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"go.uber.org/zap"

	"revenueScope/internal/amount"
	"revenueScope/internal/model"
	"revenueScope/internal/source"
)

// Calculator estimates a wallet's historical earnings by replaying the
// exchange-ratio history against its transfer history.
type Calculator struct {
	txs      source.TransactionSource
	ratios   source.RatioSource
	token    string
	decimals uint8
	logger   *zap.Logger
}

func NewCalculator(txs source.TransactionSource, ratios source.RatioSource, token string, decimals uint8, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{txs: txs, ratios: ratios, token: token, decimals: decimals, logger: logger}
}

// Estimate computes the earnings estimate for one wallet. Unreadable
// source data surfaces as an error, never as a silent zero.
func (c *Calculator) Estimate(ctx context.Context, wallet string) (model.WalletEarnings, error) {
	updates, err := c.ratios.RatioUpdates(ctx)
	if err != nil {
		return model.WalletEarnings{}, fmt.Errorf("ratio history: %w: %v", model.ErrDataUnavailable, err)
	}

	history, err := c.txs.TokenTransfers(ctx, wallet, c.token)
	if err != nil {
		return model.WalletEarnings{}, fmt.Errorf("wallet history for %s: %w: %v", wallet, model.ErrDataUnavailable, err)
	}

	estimate, err := Replay(updates, history, wallet, c.decimals)
	if err != nil {
		return model.WalletEarnings{}, err
	}

	return model.WalletEarnings{
		Address:     wallet,
		Estimate:    estimate,
		DisplayName: DisplayName(wallet),
	}, nil
}

// Replay walks the ratio updates in ascending order and accrues
// balance * (ratio - lastRatio) for every interval the wallet held a
// positive balance. The sum accumulates exactly in a rational and is
// rounded once at the end. Ratio always advances; only the accrual is
// conditional on a positive balance.
func Replay(updates []model.RatioUpdate, history []model.RawTransaction, wallet string, decimals uint8) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	// Normalize ordering internally: the source may supply either
	// direction.
	chronological := make([]model.RawTransaction, len(history))
	copy(chronological, history)
	sort.SliceStable(chronological, func(i, j int) bool {
		return chronological[i].Timestamp < chronological[j].Timestamp
	})

	ascending := make([]model.RatioUpdate, len(updates))
	copy(ascending, updates)
	sort.SliceStable(ascending, func(i, j int) bool {
		return ascending[i].Timestamp < ascending[j].Timestamp
	})

	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	earnings := new(big.Rat)
	last := big.NewRat(1, 1)
	cursor := 0
	balance := new(big.Int)

	for _, update := range ascending {
		for cursor < len(chronological) && chronological[cursor].Timestamp <= update.Timestamp {
			if err := applyTransfer(balance, chronological[cursor], wallet); err != nil {
				return 0, err
			}
			cursor++
		}

		if balance.Sign() > 0 && update.Ratio != nil {
			held := new(big.Rat).SetFrac(new(big.Int).Set(balance), denom)
			delta := new(big.Rat).Sub(update.Ratio, last)
			earnings.Add(earnings, held.Mul(held, delta))
		}
		if update.Ratio != nil {
			last = update.Ratio
		}
	}

	return amount.RoundRat(earnings), nil
}

func applyTransfer(balance *big.Int, tx model.RawTransaction, wallet string) error {
	value, ok := new(big.Int).SetString(tx.Value, 10)
	if !ok {
		return fmt.Errorf("transfer %s has malformed value %q: %w", tx.Hash, tx.Value, model.ErrDataUnavailable)
	}
	if strings.EqualFold(tx.To, wallet) {
		balance.Add(balance, value)
	} else {
		balance.Sub(balance, value)
	}
	return nil
}

// DisplayName is the dashboard's shortened wallet label: a fixed-length
// prefix and suffix joined by an ellipsis.
func DisplayName(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}
