package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"revenueScope/internal/amount"
	"revenueScope/internal/classify"
	"revenueScope/internal/ledger"
	"revenueScope/internal/model"
	"revenueScope/internal/receipt"
	"revenueScope/internal/source"
)

// DistributionConfig holds runtime settings for the distribution builder.
type DistributionConfig struct {
	Account          string
	Token            string
	Rule             classify.Rule
	MostRecentN      int
	MSpellLookup     receipt.LookupSpec
	SSpellLookup     receipt.LookupSpec
	Decimals         uint8
	FetchConcurrency int
	MaxRetries       int
	RetryBackoff     time.Duration
}

// DistributionBuilder turns classified distribution transactions into
// persisted DistributionRecords.
type DistributionBuilder struct {
	cfg      DistributionConfig
	txs      source.TransactionSource
	receipts source.ReceiptSource
	store    ledger.Store
	logger   *zap.Logger
}

func NewDistributionBuilder(cfg DistributionConfig, txs source.TransactionSource, receipts source.ReceiptSource, store ledger.Store, logger *zap.Logger) *DistributionBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MostRecentN <= 0 {
		cfg.MostRecentN = 25
	}
	if cfg.Decimals == 0 {
		cfg.Decimals = 18
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 8
	}
	return &DistributionBuilder{cfg: cfg, txs: txs, receipts: receipts, store: store, logger: logger}
}

// Run fetches, classifies, decodes, and persists one batch.
func (b *DistributionBuilder) Run(ctx context.Context) error {
	txs, err := b.txs.TokenTransfers(ctx, b.cfg.Account, b.cfg.Token)
	if err != nil {
		return fmt.Errorf("distribution transfers: %w", err)
	}

	candidates := classify.MostRecent(classify.Classify(txs, b.cfg.Rule), b.cfg.MostRecentN)
	if len(candidates) == 0 {
		b.logger.Info("distribution: nothing to build", zap.String("rule", b.cfg.Rule.Name), zap.Error(model.ErrEmptyInput))
		return nil
	}

	records, dropped := b.buildAll(ctx, candidates)

	kept := records[:0]
	for _, rec := range records {
		if rec.Empty() {
			dropped++
			continue
		}
		kept = append(kept, rec)
	}

	b.logger.Info("distribution batch built",
		zap.Int("candidates", len(candidates)),
		zap.Int("built", len(kept)),
		zap.Int("dropped", dropped),
	)

	if len(kept) == 0 {
		return nil
	}

	items := make([]ledger.Item, 0, len(kept))
	for _, rec := range kept {
		items = append(items, ledger.Item{
			SortKey:      rec.Timestamp,
			MSpellAmount: rec.MSpellAmount,
			SSpellAmount: rec.SSpellAmount,
			TxHash:       rec.TxHash,
		})
	}
	if err := b.store.BatchPut(ctx, model.PartitionDistribution, items); err != nil {
		return fmt.Errorf("store distributions: %w", err)
	}
	return nil
}

// buildAll fetches receipts concurrently and decodes each candidate.
// Per-record failures are dropped, never propagated.
func (b *DistributionBuilder) buildAll(ctx context.Context, candidates []model.RawTransaction) ([]model.DistributionRecord, int) {
	results := make([]*model.DistributionRecord, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.FetchConcurrency)
	for i, tx := range candidates {
		i, tx := i, tx
		g.Go(func() error {
			rec, err := b.buildOne(gctx, tx)
			if err != nil {
				b.logger.Warn("drop distribution candidate", zap.String("tx", tx.Hash), zap.Error(err))
				return nil
			}
			results[i] = &rec
			return nil
		})
	}
	_ = g.Wait()

	records := make([]model.DistributionRecord, 0, len(candidates))
	dropped := 0
	for _, rec := range results {
		if rec == nil {
			dropped++
			continue
		}
		records = append(records, *rec)
	}
	return records, dropped
}

func (b *DistributionBuilder) buildOne(ctx context.Context, tx model.RawTransaction) (model.DistributionRecord, error) {
	var rcpt model.Receipt
	err := withRetry(ctx, b.logger, b.cfg.MaxRetries, b.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		rcpt, err = b.receipts.Receipt(ctx, tx.Hash)
		return err
	})
	if err != nil {
		return model.DistributionRecord{}, fmt.Errorf("receipt: %w", err)
	}

	mspell, err := b.decodeLookup(rcpt, b.cfg.MSpellLookup)
	if err != nil {
		return model.DistributionRecord{}, fmt.Errorf("mspell: %w", err)
	}
	sspell, err := b.decodeLookup(rcpt, b.cfg.SSpellLookup)
	if err != nil {
		return model.DistributionRecord{}, fmt.Errorf("sspell: %w", err)
	}

	return model.DistributionRecord{
		Timestamp:    tx.Timestamp,
		MSpellAmount: mspell,
		SSpellAmount: sspell,
		TxHash:       tx.Hash,
	}, nil
}

func (b *DistributionBuilder) decodeLookup(rcpt model.Receipt, spec receipt.LookupSpec) (int64, error) {
	entry, ok := receipt.Find(rcpt, spec)
	if !ok {
		return 0, model.Decodef("log not found")
	}
	raw, err := amount.Uint256Word(entry.Data, 0)
	if err != nil {
		return 0, err
	}
	return amount.FixedPoint(raw, b.cfg.Decimals), nil
}
