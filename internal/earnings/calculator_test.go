package earnings

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"revenueScope/internal/model"
)

const wallet = "0xAbCd000000000000000000000000000000001234"

func inflow(ts uint64, value string) model.RawTransaction {
	return model.RawTransaction{Hash: "0xin", Timestamp: ts, To: wallet, From: "0xelse", Value: value}
}

func outflow(ts uint64, value string) model.RawTransaction {
	return model.RawTransaction{Hash: "0xout", Timestamp: ts, To: "0xelse", From: wallet, Value: value}
}

func ratio(ts uint64, num, den int64) model.RatioUpdate {
	return model.RatioUpdate{Timestamp: ts, Ratio: big.NewRat(num, den), TxHash: "0xr"}
}

func TestReplayEmptyUpdates(t *testing.T) {
	got, err := Replay(nil, []model.RawTransaction{inflow(50, "10")}, wallet, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("empty ratio history should yield zero, got %d", got)
	}
}

func TestReplayNoHistory(t *testing.T) {
	updates := []model.RatioUpdate{ratio(100, 1, 1), ratio(200, 11, 10)}
	got, err := Replay(updates, nil, wallet, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("no transfers should yield zero, got %d", got)
	}
}

func TestReplayConstantBalance(t *testing.T) {
	updates := []model.RatioUpdate{ratio(100, 1, 1), ratio(200, 11, 10)}
	history := []model.RawTransaction{inflow(50, "100")}

	got, err := Replay(updates, history, wallet, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 100 * (1.1 - 1.0) = 10
	if got != 10 {
		t.Fatalf("earnings = %d, want 10", got)
	}
}

func TestReplayAccumulatesBeforeRounding(t *testing.T) {
	updates := []model.RatioUpdate{
		ratio(100, 1, 1),
		ratio(200, 105, 100),
		ratio(300, 120, 100),
	}
	history := []model.RawTransaction{inflow(50, "10")}

	got, err := Replay(updates, history, wallet, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One running sum: round(10*0.05 + 10*0.15) = round(2.0) = 2.
	if got != 2 {
		t.Fatalf("earnings = %d, want 2", got)
	}
}

func TestReplayOrderInvariant(t *testing.T) {
	updates := []model.RatioUpdate{ratio(300, 12, 10), ratio(100, 1, 1), ratio(200, 105, 100)}
	ascending := []model.RawTransaction{inflow(50, "10"), outflow(150, "4"), inflow(250, "6")}
	descending := []model.RawTransaction{ascending[2], ascending[1], ascending[0]}

	first, err := Replay(updates, ascending, wallet, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Replay(updates, descending, wallet, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("earnings depend on caller order: %d != %d", first, second)
	}
}

func TestReplayOutflowsReduceBalance(t *testing.T) {
	updates := []model.RatioUpdate{ratio(100, 1, 1), ratio(200, 2, 1)}
	history := []model.RawTransaction{inflow(50, "10"), outflow(60, "10")}

	got, err := Replay(updates, history, wallet, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("fully withdrawn balance should earn nothing, got %d", got)
	}
}

func TestReplayScalesByDecimals(t *testing.T) {
	updates := []model.RatioUpdate{ratio(100, 1, 1), ratio(200, 11, 10)}
	history := []model.RawTransaction{inflow(50, "100000000000000000000")} // 100 tokens at 18 decimals

	got, err := Replay(updates, history, wallet, 18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 10 {
		t.Fatalf("earnings = %d, want 10", got)
	}
}

func TestReplayRatioAdvancesWithoutBalance(t *testing.T) {
	// The wallet buys in after the first two updates; only the last
	// delta may accrue.
	updates := []model.RatioUpdate{ratio(100, 1, 1), ratio(200, 15, 10), ratio(300, 2, 1)}
	history := []model.RawTransaction{inflow(250, "10")}

	got, err := Replay(updates, history, wallet, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 10 * (2.0 - 1.5) = 5; the earlier appreciation happened without
	// a balance and must not count.
	if got != 5 {
		t.Fatalf("earnings = %d, want 5", got)
	}
}

func TestReplayMalformedValue(t *testing.T) {
	updates := []model.RatioUpdate{ratio(100, 1, 1), ratio(200, 11, 10)}
	history := []model.RawTransaction{{Hash: "0xbad", Timestamp: 50, To: wallet, Value: "not-a-number"}}

	_, err := Replay(updates, history, wallet, 0)
	if err == nil {
		t.Fatalf("expected error for malformed value")
	}
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

type stubTxSource struct {
	txs []model.RawTransaction
	err error
}

func (s *stubTxSource) TokenTransfers(ctx context.Context, address, token string) ([]model.RawTransaction, error) {
	return s.txs, s.err
}

type stubRatioSource struct {
	updates []model.RatioUpdate
	err     error
}

func (s *stubRatioSource) RatioUpdates(ctx context.Context) ([]model.RatioUpdate, error) {
	return s.updates, s.err
}

func TestEstimateRatioHistoryUnavailable(t *testing.T) {
	calc := NewCalculator(&stubTxSource{}, &stubRatioSource{err: fmt.Errorf("rpc down")}, "0xtok", 0, nil)

	_, err := calc.Estimate(context.Background(), wallet)
	if err == nil {
		t.Fatalf("expected error when ratio history cannot be read")
	}
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestEstimateWalletHistoryUnavailable(t *testing.T) {
	ratios := &stubRatioSource{updates: []model.RatioUpdate{ratio(100, 1, 1)}}
	calc := NewCalculator(&stubTxSource{err: fmt.Errorf("explorer down")}, ratios, "0xtok", 0, nil)

	_, err := calc.Estimate(context.Background(), wallet)
	if err == nil {
		t.Fatalf("expected error when wallet history cannot be read")
	}
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestEstimate(t *testing.T) {
	ratios := &stubRatioSource{updates: []model.RatioUpdate{ratio(100, 1, 1), ratio(200, 11, 10)}}
	txs := &stubTxSource{txs: []model.RawTransaction{inflow(50, "100")}}
	calc := NewCalculator(txs, ratios, "0xtok", 0, nil)

	result, err := calc.Estimate(context.Background(), wallet)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if result.Estimate != 10 || result.Address != wallet || result.DisplayName != DisplayName(wallet) {
		t.Fatalf("result mismatch: %+v", result)
	}
}

func TestDisplayName(t *testing.T) {
	got := DisplayName(wallet)
	want := "0xAbCd…1234"
	if got != want {
		t.Fatalf("display name = %q, want %q", got, want)
	}

	if got := DisplayName("0xshort"); got != "0xshort" {
		t.Fatalf("short address should pass through, got %q", got)
	}
}
