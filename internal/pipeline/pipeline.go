package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pipeline runs the three builders as independent concurrent tasks.
// They share no mutable state; one builder failing its cycle does not
// cancel the others, but the run as a whole reports the failure.
type Pipeline struct {
	distributions *DistributionBuilder
	buybacks      *BuybackBuilder
	fees          *FeeEstimator
	logger        *zap.Logger
}

func New(distributions *DistributionBuilder, buybacks *BuybackBuilder, fees *FeeEstimator, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{distributions: distributions, buybacks: buybacks, fees: fees, logger: logger}
}

// Run executes one reconciliation cycle, joining all builders.
func (p *Pipeline) Run(ctx context.Context) error {
	var g errgroup.Group

	if p.distributions != nil {
		g.Go(func() error { return p.distributions.Run(ctx) })
	}
	if p.buybacks != nil {
		g.Go(func() error { return p.buybacks.Run(ctx) })
	}
	if p.fees != nil {
		g.Go(func() error { return p.fees.Run(ctx) })
	}

	return g.Wait()
}
