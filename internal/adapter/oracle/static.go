package oracle

import (
	"context"
	"math/big"

	"lumenvault/internal/domain/pricing"
)

// StaticOracle serves one fixed quote. Local development and tests use it in
// place of the redis feed.
type StaticOracle struct {
	quote pricing.Quote
}

func NewStaticOracle(value *big.Int, decimals uint8) *StaticOracle {
	return &StaticOracle{quote: pricing.Quote{Value: new(big.Int).Set(value), Decimals: decimals}}
}

func (o *StaticOracle) Price(context.Context) (pricing.Quote, error) {
	if o.quote.Value == nil || o.quote.Value.Sign() <= 0 {
		return pricing.Quote{}, pricing.ErrUnavailable
	}
	return pricing.Quote{Value: new(big.Int).Set(o.quote.Value), Decimals: o.quote.Decimals}, nil
}
