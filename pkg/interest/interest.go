package interest

import (
	"errors"
	"math/big"
	"time"
)

// Rates are quoted in basis points per annum and accrue linearly per second:
//
//	interest = principal * rateBps * elapsedSeconds / (10_000 * secondsPerYear)
//
// All math is big.Int so results are exact and reproducible; truncating
// division keeps accrued interest from ever rounding up against the payer.
const (
	BasisPoints    = 10_000
	SecondsPerYear = 31_536_000
)

var (
	bpsScale    = big.NewInt(BasisPoints)
	yearSeconds = big.NewInt(SecondsPerYear)
	denominator = new(big.Int).Mul(bpsScale, yearSeconds)
)

// ErrNegativeElapsed rejects clock skew instead of accruing negative interest.
var ErrNegativeElapsed = errors.New("interest: negative elapsed time")

// Accrue computes simple interest on principal over elapsed at rateBps per
// annum. A nil or zero principal, zero rate, or zero elapsed all yield zero.
func Accrue(principal *big.Int, rateBps uint64, elapsed time.Duration) (*big.Int, error) {
	if elapsed < 0 {
		return nil, ErrNegativeElapsed
	}
	if principal == nil || principal.Sign() <= 0 || rateBps == 0 {
		return big.NewInt(0), nil
	}
	secs := int64(elapsed / time.Second)
	if secs == 0 {
		return big.NewInt(0), nil
	}
	out := new(big.Int).Mul(principal, new(big.Int).SetUint64(rateBps))
	out.Mul(out, big.NewInt(secs))
	out.Quo(out, denominator)
	return out, nil
}
