package format

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// poolTarget is the buyback pool figure the dashboard's bar heights are
// drawn against.
const poolTarget = 10_000_000

// USD renders a whole-dollar amount with thousands separators.
func USD(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + "$" + group(amount)
}

// Date renders a unix timestamp as mm.dd.
func Date(ts uint64) string {
	t := time.Unix(int64(ts), 0).UTC()
	return fmt.Sprintf("%02d.%02d", int(t.Month()), t.Day())
}

// Percent renders an amount as its share of the pool target.
func Percent(amount int64) string {
	value := 100 * float64(amount) / poolTarget
	return strconv.FormatFloat(value, 'f', -1, 64) + "%"
}

// Number renders an amount compactly: 1.20K, 3.40M, 5.60B.
func Number(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	abs := math.Abs(float64(amount))
	switch {
	case abs >= 1e9:
		return sign + fmt.Sprintf("%.2fB", abs/1e9)
	case abs >= 1e6:
		return sign + fmt.Sprintf("%.2fM", abs/1e6)
	case abs >= 1e3:
		return sign + fmt.Sprintf("%.2fK", abs/1e3)
	default:
		return sign + strconv.FormatFloat(abs, 'f', -1, 64)
	}
}

func group(v int64) string {
	digits := strconv.FormatInt(v, 10)
	if len(digits) <= 3 {
		return digits
	}
	var out []byte
	head := len(digits) % 3
	if head > 0 {
		out = append(out, digits[:head]...)
	}
	for i := head; i < len(digits); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i:i+3]...)
	}
	return string(out)
}
