package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"revenueScope/internal/amount"
	"revenueScope/internal/ledger"
	"revenueScope/internal/model"
	"revenueScope/internal/receipt"
	"revenueScope/internal/source"
)

// Buyback decode strategies. Trade-pair does a full structured decode
// and selects by matching both token addresses; fixed-index decodes a
// single word at a known log position and infers the scale from the
// value's magnitude.
const (
	StrategyTradePair  = "trade-pair"
	StrategyFixedIndex = "fixed-index"
)

// BuybackConfig holds runtime settings for the buyback builder.
type BuybackConfig struct {
	Strategy         string
	SellToken        string
	BuyToken         string
	FixedLogIndex    int
	MostRecentN      int
	FetchConcurrency int
	MaxRetries       int
	RetryBackoff     time.Duration
}

// BuybackBuilder decodes the token buyback behind each recent ratio
// update and persists the surviving batch.
type BuybackBuilder struct {
	cfg      BuybackConfig
	ratios   source.RatioSource
	receipts source.ReceiptSource
	store    ledger.Store
	logger   *zap.Logger
}

func NewBuybackBuilder(cfg BuybackConfig, ratios source.RatioSource, receipts source.ReceiptSource, store ledger.Store, logger *zap.Logger) (*BuybackBuilder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MostRecentN <= 0 {
		cfg.MostRecentN = 5
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 8
	}
	switch cfg.Strategy {
	case StrategyTradePair:
		if cfg.SellToken == "" || cfg.BuyToken == "" {
			return nil, fmt.Errorf("trade-pair strategy requires sell and buy token addresses")
		}
	case StrategyFixedIndex:
	default:
		return nil, fmt.Errorf("unknown buyback strategy: %s", cfg.Strategy)
	}
	return &BuybackBuilder{cfg: cfg, ratios: ratios, receipts: receipts, store: store, logger: logger}, nil
}

// Run decodes the most recent ratio updates into buyback records. A
// decode failure for one update never aborts the batch.
func (b *BuybackBuilder) Run(ctx context.Context) error {
	updates, err := b.ratios.RatioUpdates(ctx)
	if err != nil {
		return fmt.Errorf("ratio updates: %w", err)
	}
	if len(updates) == 0 {
		b.logger.Info("buyback: nothing to build", zap.Error(model.ErrEmptyInput))
		return nil
	}

	// History is ascending; the batch is the tail.
	if len(updates) > b.cfg.MostRecentN {
		updates = updates[len(updates)-b.cfg.MostRecentN:]
	}

	results := make([]*model.BuybackRecord, len(updates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.FetchConcurrency)
	for i, update := range updates {
		i, update := i, update
		g.Go(func() error {
			rec, err := b.buildOne(gctx, update)
			if err != nil {
				b.logger.Warn("drop buyback record", zap.String("tx", update.TxHash), zap.Error(err))
				return nil
			}
			results[i] = &rec
			return nil
		})
	}
	_ = g.Wait()

	items := make([]ledger.Item, 0, len(updates))
	dropped := 0
	for _, rec := range results {
		if rec == nil {
			dropped++
			continue
		}
		items = append(items, ledger.Item{
			SortKey: rec.Timestamp,
			Amount:  rec.Amount,
			TxHash:  rec.TxHash,
		})
	}

	b.logger.Info("buyback batch built",
		zap.Int("updates", len(updates)),
		zap.Int("built", len(items)),
		zap.Int("dropped", dropped),
	)

	if len(items) == 0 {
		return nil
	}
	if err := b.store.BatchPut(ctx, model.PartitionBuyback, items); err != nil {
		return fmt.Errorf("store buybacks: %w", err)
	}
	return nil
}

func (b *BuybackBuilder) buildOne(ctx context.Context, update model.RatioUpdate) (model.BuybackRecord, error) {
	var rcpt model.Receipt
	err := withRetry(ctx, b.logger, b.cfg.MaxRetries, b.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		rcpt, err = b.receipts.Receipt(ctx, update.TxHash)
		return err
	})
	if err != nil {
		return model.BuybackRecord{}, fmt.Errorf("receipt: %w", err)
	}

	var sold int64
	switch b.cfg.Strategy {
	case StrategyTradePair:
		sold, err = b.decodeTradePair(rcpt)
	case StrategyFixedIndex:
		sold, err = b.decodeFixedIndex(rcpt)
	}
	if err != nil {
		return model.BuybackRecord{}, err
	}

	return model.BuybackRecord{
		Timestamp: update.Timestamp,
		Amount:    sold,
		TxHash:    update.TxHash,
	}, nil
}

func (b *BuybackBuilder) decodeTradePair(rcpt model.Receipt) (int64, error) {
	for _, entry := range rcpt.Logs {
		trade, err := amount.DecodeTrade(entry.Data)
		if err != nil {
			continue
		}
		if !strings.EqualFold(trade.SellToken.Hex(), b.cfg.SellToken) {
			continue
		}
		if !strings.EqualFold(trade.BuyToken.Hex(), b.cfg.BuyToken) {
			continue
		}
		return amount.FixedPoint(trade.SellAmount, 18), nil
	}
	return 0, model.Decodef("no trade log matches pair %s/%s", b.cfg.SellToken, b.cfg.BuyToken)
}

func (b *BuybackBuilder) decodeFixedIndex(rcpt model.Receipt) (int64, error) {
	entry, ok := receipt.Find(rcpt, receipt.AtIndex(b.cfg.FixedLogIndex))
	if !ok {
		return 0, model.Decodef("no log at index %d", b.cfg.FixedLogIndex)
	}
	raw, err := amount.Uint256Word(entry.Data, 0)
	if err != nil {
		return 0, err
	}
	return amount.FixedPoint(raw, amount.InferScale(raw)), nil
}
