package pipeline

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"revenueScope/internal/classify"
	"revenueScope/internal/ledger"
	"revenueScope/internal/model"
	"revenueScope/internal/receipt"
	"revenueScope/internal/source"
)

const testExchange = "0x27239549dd40e1d60f5b80b0c4196923745b1fd2"

type fakeTxSource struct {
	txs []model.RawTransaction
	err error
}

func (f *fakeTxSource) TokenTransfers(ctx context.Context, address, token string) ([]model.RawTransaction, error) {
	return f.txs, f.err
}

type fakeReceipts struct {
	receipts map[string]model.Receipt
}

func (f *fakeReceipts) Receipt(ctx context.Context, txHash string) (model.Receipt, error) {
	rcpt, ok := f.receipts[txHash]
	if !ok {
		return model.Receipt{}, fmt.Errorf("receipt %s: %w", txHash, model.ErrNotFound)
	}
	return rcpt, nil
}

type fakeRatios struct {
	updates []model.RatioUpdate
	err     error
}

func (f *fakeRatios) RatioUpdates(ctx context.Context) ([]model.RatioUpdate, error) {
	return f.updates, f.err
}

type fakeFeeIndex struct {
	protocol    []source.NetworkFees
	protocolErr error
	total       []source.NetworkFees
	totalErr    error
}

func (f *fakeFeeIndex) ProtocolFees(ctx context.Context, start, end time.Time) ([]source.NetworkFees, error) {
	return f.protocol, f.protocolErr
}

func (f *fakeFeeIndex) TotalFees(ctx context.Context, start, end time.Time) ([]source.NetworkFees, error) {
	return f.total, f.totalErr
}

type memStore struct {
	mu    sync.Mutex
	items map[string][]ledger.Item
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string][]ledger.Item)}
}

func (m *memStore) BatchPut(ctx context.Context, partition string, items []ledger.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		item.Partition = partition
		m.items[partition] = append(m.items[partition], item)
	}
	return nil
}

func (m *memStore) Query(ctx context.Context, partition string, mostRecentN int) ([]ledger.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.items[partition]
	out := make([]ledger.Item, len(stored))
	copy(out, stored)
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].SortKey > out[i].SortKey {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > mostRecentN {
		out = out[:mostRecentN]
	}
	return out, nil
}

func word(value *big.Int) string {
	return hexutil.Encode(common.LeftPadBytes(value.Bytes(), 32))
}

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func distributionTx(hash string, ts uint64) model.RawTransaction {
	return model.RawTransaction{Hash: hash, Timestamp: ts, To: testExchange, Value: "1"}
}

func transferReceipt(hash string, mspell, sspell *big.Int) model.Receipt {
	return model.Receipt{TxHash: hash, Logs: []model.LogEntry{
		{Data: word(mspell)},
		{Data: word(sspell)},
	}}
}

func distributionConfig() DistributionConfig {
	return DistributionConfig{
		Account:      "0xmonitored",
		Token:        "0xtoken",
		Rule:         classify.Rule{To: testExchange, ExcludeErrors: true},
		MostRecentN:  25,
		MSpellLookup: receipt.AtIndex(0),
		SSpellLookup: receipt.AtIndex(1),
		Decimals:     18,
	}
}

func TestDistributionBuilderDropsBrokenCandidates(t *testing.T) {
	txs := &fakeTxSource{txs: []model.RawTransaction{
		distributionTx("0x1", 100),
		distributionTx("0x2", 200),
		distributionTx("0x3", 300),
		distributionTx("0x4", 400),
	}}
	receipts := &fakeReceipts{receipts: map[string]model.Receipt{
		"0x1": transferReceipt("0x1", tokens(5), tokens(7)),
		"0x2": transferReceipt("0x2", tokens(3), tokens(2)),
		"0x3": transferReceipt("0x3", tokens(1), tokens(9)),
		"0x4": {TxHash: "0x4", Logs: []model.LogEntry{{Data: word(tokens(1))}}}, // missing second log
	}}
	store := newMemStore()

	builder := NewDistributionBuilder(distributionConfig(), txs, receipts, store, nil)
	if err := builder.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	persisted := store.items[model.PartitionDistribution]
	if len(persisted) != 3 {
		t.Fatalf("persisted %d records, want 3", len(persisted))
	}
	for _, item := range persisted {
		if item.MSpellAmount == 0 && item.SSpellAmount == 0 {
			t.Fatalf("empty record persisted: %+v", item)
		}
	}
}

func TestDistributionBuilderDecodesAmounts(t *testing.T) {
	txs := &fakeTxSource{txs: []model.RawTransaction{distributionTx("0x1", 100)}}
	receipts := &fakeReceipts{receipts: map[string]model.Receipt{
		"0x1": transferReceipt("0x1", tokens(5), tokens(7)),
	}}
	store := newMemStore()

	builder := NewDistributionBuilder(distributionConfig(), txs, receipts, store, nil)
	if err := builder.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	persisted := store.items[model.PartitionDistribution]
	if len(persisted) != 1 {
		t.Fatalf("persisted %d records, want 1", len(persisted))
	}
	got := persisted[0]
	if got.MSpellAmount != 5 || got.SSpellAmount != 7 || got.SortKey != 100 || got.TxHash != "0x1" {
		t.Fatalf("record mismatch: %+v", got)
	}
}

func TestDistributionBuilderEmptyClassification(t *testing.T) {
	txs := &fakeTxSource{txs: []model.RawTransaction{
		{Hash: "0x1", Timestamp: 100, To: "0xsomewhere", Value: "1"},
	}}
	store := newMemStore()

	builder := NewDistributionBuilder(distributionConfig(), txs, &fakeReceipts{}, store, nil)
	if err := builder.Run(context.Background()); err != nil {
		t.Fatalf("empty classification should not fail: %v", err)
	}
	if len(store.items) != 0 {
		t.Fatalf("nothing should be persisted, got %+v", store.items)
	}
}

func TestDistributionBuilderDropsBothZero(t *testing.T) {
	txs := &fakeTxSource{txs: []model.RawTransaction{distributionTx("0x1", 100)}}
	receipts := &fakeReceipts{receipts: map[string]model.Receipt{
		"0x1": transferReceipt("0x1", big.NewInt(0), big.NewInt(0)),
	}}
	store := newMemStore()

	builder := NewDistributionBuilder(distributionConfig(), txs, receipts, store, nil)
	if err := builder.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.items[model.PartitionDistribution]) != 0 {
		t.Fatalf("both-zero record should be filtered")
	}
}

func TestDistributionBuilderTopicLookup(t *testing.T) {
	pool := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	other := "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

	cfg := distributionConfig()
	cfg.MSpellLookup = receipt.ByTopic(2, receipt.AddressTopic(pool))
	cfg.SSpellLookup = receipt.ByTopic(2, receipt.AddressTopic(other))

	txs := &fakeTxSource{txs: []model.RawTransaction{distributionTx("0x1", 100)}}
	receipts := &fakeReceipts{receipts: map[string]model.Receipt{
		"0x1": {TxHash: "0x1", Logs: []model.LogEntry{
			{Topics: []string{"0xt0", "0xfrom", receipt.AddressTopic(other)}, Data: word(tokens(9))},
			{Topics: []string{"0xt0", "0xfrom", receipt.AddressTopic(pool)}, Data: word(tokens(4))},
		}},
	}}
	store := newMemStore()

	builder := NewDistributionBuilder(cfg, txs, receipts, store, nil)
	if err := builder.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	persisted := store.items[model.PartitionDistribution]
	if len(persisted) != 1 {
		t.Fatalf("persisted %d records, want 1", len(persisted))
	}
	if persisted[0].MSpellAmount != 4 || persisted[0].SSpellAmount != 9 {
		t.Fatalf("topic lookup decoded wrong logs: %+v", persisted[0])
	}
}

func TestDistributionBuilderSourceFailure(t *testing.T) {
	txs := &fakeTxSource{err: fmt.Errorf("upstream down")}
	builder := NewDistributionBuilder(distributionConfig(), txs, &fakeReceipts{}, newMemStore(), nil)
	if err := builder.Run(context.Background()); err == nil {
		t.Fatalf("source failure should abort the cycle")
	}
}
