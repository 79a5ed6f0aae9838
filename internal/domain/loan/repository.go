package loan

import (
	"context"

	"lumenvault/pkg/money"
)

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	// GetByIDForUpdate locks the row for the enclosing transaction.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)
	Save(ctx context.Context, l *Loan) error

	ListByStatus(ctx context.Context, st Status) ([]Loan, error)
	ListByBorrower(ctx context.Context, borrower string) ([]Loan, error)
	ListByLender(ctx context.Context, lender string) ([]Loan, error)

	// Aggregates for the market/user stat views.
	CountByStatus(ctx context.Context, st Status) (int64, error)
	SumPrincipalByStatus(ctx context.Context, st Status) (money.Amount, error)
}
