package amount

import (
	"math/big"
)

var scale18 = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// FixedPoint scales a raw on-chain integer by 10^decimals and rounds to
// the nearest integer. Rounding, not truncation: truncating every
// distribution would systematically underestimate.
func FixedPoint(raw *big.Int, decimals uint8) int64 {
	if raw == nil {
		return 0
	}
	if decimals == 0 {
		return clampInt64(raw)
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return RoundRat(new(big.Rat).SetFrac(raw, denom))
}

// InferScale guesses token decimals from magnitude: values of at least
// 1e18 are 18-decimal, anything smaller is 6-decimal. Observed swap-log
// encodings varied between the two, and the payload itself does not say
// which was used.
func InferScale(raw *big.Int) uint8 {
	if raw == nil {
		return 18
	}
	if raw.CmpAbs(scale18) >= 0 {
		return 18
	}
	return 6
}

// RoundRat rounds a rational to the nearest integer, half away from zero.
func RoundRat(r *big.Rat) int64 {
	if r == nil {
		return 0
	}
	neg := r.Sign() < 0
	abs := new(big.Rat).Abs(r)
	twiceNum := new(big.Int).Mul(abs.Num(), big.NewInt(2))
	twiceNum.Add(twiceNum, abs.Denom())
	twiceDenom := new(big.Int).Mul(abs.Denom(), big.NewInt(2))
	rounded := new(big.Int).Quo(twiceNum, twiceDenom)
	v := clampInt64(rounded)
	if neg {
		v = -v
	}
	return v
}

func clampInt64(v *big.Int) int64 {
	if !v.IsInt64() {
		if v.Sign() < 0 {
			return -1 << 63
		}
		return 1<<63 - 1
	}
	return v.Int64()
}
