package pricing

import (
	"context"
	"errors"
	"math/big"
)

// ErrUnavailable covers a missing, erroring, or zero-valued price feed. Every
// operation that depends on the oracle must fail with this rather than proceed
// on a zero price.
var ErrUnavailable = errors.New("price oracle unavailable")

// Quote is the collateral-asset price in loan-currency terms, scaled by
// 10^Decimals (Chainlink-feed style: value 100_000_000 at 8 decimals = $1.00).
type Quote struct {
	Value    *big.Int
	Decimals uint8
}

// Scale returns 10^Decimals.
func (q Quote) Scale() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(q.Decimals)), nil)
}

// Oracle is the injected price feed collaborator.
type Oracle interface {
	Price(ctx context.Context) (Quote, error)
}
