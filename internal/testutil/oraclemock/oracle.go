package oraclemock

import (
	"context"
	"math/big"
	"sync"

	"lumenvault/internal/domain/pricing"
)

var _ pricing.Oracle = (*Oracle)(nil)

// Oracle is a settable fake price feed. SetPrice mid-test models the feed
// moving under an active loan.
type Oracle struct {
	mu    sync.Mutex
	quote pricing.Quote
	err   error
}

// New returns an oracle quoting value at the given decimals.
func New(value int64, decimals uint8) *Oracle {
	return &Oracle{quote: pricing.Quote{Value: big.NewInt(value), Decimals: decimals}}
}

func (o *Oracle) SetPrice(value int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.quote.Value = big.NewInt(value)
	o.err = nil
}

func (o *Oracle) Fail(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

func (o *Oracle) Price(context.Context) (pricing.Quote, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return pricing.Quote{}, o.err
	}
	return pricing.Quote{Value: new(big.Int).Set(o.quote.Value), Decimals: o.quote.Decimals}, nil
}
