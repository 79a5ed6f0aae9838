package reward

import (
	"context"

	"lumenvault/pkg/money"
)

type Repository interface {
	Get(ctx context.Context) (*Pool, error)

	Deposit(ctx context.Context, amount money.Amount) error

	// WithdrawUpTo drains at most amount from the pool and returns what was
	// actually taken; a short pool yields its whole balance rather than an
	// error so reward payouts degrade gracefully.
	WithdrawUpTo(ctx context.Context, amount money.Amount) (money.Amount, error)

	// WithdrawAll drains the pool and returns the drained balance.
	WithdrawAll(ctx context.Context) (money.Amount, error)
}
