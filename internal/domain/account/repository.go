package account

import (
	"context"

	"lumenvault/pkg/money"
)

type Repository interface {
	Get(ctx context.Context, acct string, asset Asset) (*Balance, error)

	// Credit adds amount to the balance, creating the row if absent.
	Credit(ctx context.Context, acct string, asset Asset, amount money.Amount) error

	// Debit subtracts amount; ErrInsufficientBalance when the holding is short.
	Debit(ctx context.Context, acct string, asset Asset, amount money.Amount) error

	// Transfer moves amount from one account to another atomically within the
	// enclosing transaction.
	Transfer(ctx context.Context, from, to string, asset Asset, amount money.Amount) error
}
