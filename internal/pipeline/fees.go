package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"revenueScope/internal/ledger"
	"revenueScope/internal/model"
	"revenueScope/internal/source"
)

// FeeConfig holds runtime settings for the fee accrual estimator.
type FeeConfig struct {
	Skew       time.Duration
	ShareRatio float64
}

// FeeEstimator computes the accrued-but-unpaid fee estimate since the
// last known distribution and writes it under the sentinel sort key.
type FeeEstimator struct {
	cfg    FeeConfig
	fees   source.FeeIndex
	store  ledger.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewFeeEstimator(cfg FeeConfig, fees source.FeeIndex, store ledger.Store, logger *zap.Logger) *FeeEstimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Skew <= 0 {
		cfg.Skew = 10 * time.Minute
	}
	if cfg.ShareRatio <= 0 || cfg.ShareRatio > 1 {
		cfg.ShareRatio = 0.75
	}
	return &FeeEstimator{cfg: cfg, fees: fees, store: store, logger: logger, now: time.Now}
}

// Run estimates fees for the window since the last distribution. If
// both query modes fail the cycle aborts with no write: stale data is
// preferable to wrong data.
func (e *FeeEstimator) Run(ctx context.Context) error {
	since, ok, err := e.lastDistributionTime(ctx)
	if err != nil {
		return fmt.Errorf("last distribution: %w", err)
	}
	if !ok {
		e.logger.Info("fees: no distribution history, skipping estimate")
		return nil
	}

	start := time.Unix(int64(since), 0).UTC()
	// Trailing skew keeps not-yet-indexed upstream data out of the sum.
	end := e.now().UTC().Add(-e.cfg.Skew)
	if !end.After(start) {
		e.logger.Info("fees: window empty", zap.Time("start", start), zap.Time("end", end))
		return nil
	}

	// A response where every network failed carries no usable figure;
	// treat it like a failed query rather than summing it to zero.
	results, err := e.fees.ProtocolFees(ctx, start, end)
	if err != nil || !source.AnyFees(results) {
		if err != nil {
			e.logger.Warn("protocol fee query failed, falling back to total", zap.Error(err))
		} else {
			e.logger.Warn("protocol fee query returned no healthy networks, falling back to total")
		}
		results, err = e.fees.TotalFees(ctx, start, end)
		if err != nil {
			return fmt.Errorf("both fee queries failed: %w", err)
		}
		if !source.AnyFees(results) {
			return fmt.Errorf("both fee queries returned no healthy networks")
		}
	}

	total := source.SumFees(results)
	estimate := int64(math.Round(total * e.cfg.ShareRatio))

	e.logger.Info("fee estimate built",
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Float64("total", total),
		zap.Int64("estimate", estimate),
	)

	item := ledger.Item{SortKey: model.FeeSentinelTimestamp, Amount: estimate}
	if err := e.store.BatchPut(ctx, model.PartitionFees, []ledger.Item{item}); err != nil {
		return fmt.Errorf("store fee estimate: %w", err)
	}
	return nil
}

// lastDistributionTime finds the newest persisted distribution row,
// falling back to the buyback partition for fresh deployments.
func (e *FeeEstimator) lastDistributionTime(ctx context.Context) (uint64, bool, error) {
	for _, partition := range []string{model.PartitionDistribution, model.PartitionBuyback} {
		items, err := e.store.Query(ctx, partition, 1)
		if err != nil {
			return 0, false, err
		}
		if len(items) > 0 {
			return items[0].SortKey, true, nil
		}
	}
	return 0, false, nil
}
