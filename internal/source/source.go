package source

import (
	"context"
	"time"

	"revenueScope/internal/model"
)

// TransactionSource lists token transfer transactions for an address.
type TransactionSource interface {
	TokenTransfers(ctx context.Context, address, token string) ([]model.RawTransaction, error)
}

// ReceiptSource fetches the ordered log list of one transaction.
type ReceiptSource interface {
	Receipt(ctx context.Context, txHash string) (model.Receipt, error)
}

// RatioSource returns the full exchange-ratio update history, ascending
// by timestamp.
type RatioSource interface {
	RatioUpdates(ctx context.Context) ([]model.RatioUpdate, error)
}

// NetworkFees is one per-network result from the fee aggregation
// service, with the index's own per-call status.
type NetworkFees struct {
	Network string  `json:"network"`
	Value   float64 `json:"value"`
	OK      bool    `json:"ok"`
}

// FeeIndex exposes the aggregation service's two query modes over an
// explicit date window.
type FeeIndex interface {
	ProtocolFees(ctx context.Context, start, end time.Time) ([]NetworkFees, error)
	TotalFees(ctx context.Context, start, end time.Time) ([]NetworkFees, error)
}

// SumFees totals the networks that reported success. Partial success
// across networks is allowed and summed.
func SumFees(results []NetworkFees) float64 {
	var total float64
	for _, r := range results {
		if r.OK {
			total += r.Value
		}
	}
	return total
}

// AnyFees reports whether at least one network answered successfully.
// An all-failed result set carries no usable figure.
func AnyFees(results []NetworkFees) bool {
	for _, r := range results {
		if r.OK {
			return true
		}
	}
	return false
}
