package vault

import (
	"context"
	"time"

	"lumenvault/pkg/money"
)

type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByLoanID(ctx context.Context, loanID uint64) (*Record, error)

	// Release flips a locked record to the given released state exactly once.
	// A second release attempt fails with ErrAlreadyReleased; a missing record
	// fails with ErrNotFound.
	Release(ctx context.Context, loanID uint64, to string, state State, at time.Time) error

	// TotalLocked sums the amounts of all records still in StateLocked.
	TotalLocked(ctx context.Context) (money.Amount, error)
}
