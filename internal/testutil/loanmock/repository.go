package loanmock

import (
	"context"

	domain "lumenvault/internal/domain/loan"
	"lumenvault/pkg/money"
)

// Repo is a function-backed mock that satisfies domain.Repository.
// Fill in the function fields a test needs; unfilled getters fail fast.
type Repo struct {
	CreateFn               func(ctx context.Context, l *domain.Loan) error
	GetByIDFn              func(ctx context.Context, id uint64) (*domain.Loan, error)
	GetByIDForUpdateFn     func(ctx context.Context, id uint64) (*domain.Loan, error)
	SaveFn                 func(ctx context.Context, l *domain.Loan) error
	ListByStatusFn         func(ctx context.Context, st domain.Status) ([]domain.Loan, error)
	ListByBorrowerFn       func(ctx context.Context, borrower string) ([]domain.Loan, error)
	ListByLenderFn         func(ctx context.Context, lender string) ([]domain.Loan, error)
	CountByStatusFn        func(ctx context.Context, st domain.Status) (int64, error)
	SumPrincipalByStatusFn func(ctx context.Context, st domain.Status) (money.Amount, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) ListByStatus(ctx context.Context, st domain.Status) ([]domain.Loan, error) {
	if m.ListByStatusFn != nil {
		return m.ListByStatusFn(ctx, st)
	}
	return nil, nil
}

func (m *Repo) ListByBorrower(ctx context.Context, borrower string) ([]domain.Loan, error) {
	if m.ListByBorrowerFn != nil {
		return m.ListByBorrowerFn(ctx, borrower)
	}
	return nil, nil
}

func (m *Repo) ListByLender(ctx context.Context, lender string) ([]domain.Loan, error) {
	if m.ListByLenderFn != nil {
		return m.ListByLenderFn(ctx, lender)
	}
	return nil, nil
}

func (m *Repo) CountByStatus(ctx context.Context, st domain.Status) (int64, error) {
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx, st)
	}
	return 0, nil
}

func (m *Repo) SumPrincipalByStatus(ctx context.Context, st domain.Status) (money.Amount, error) {
	if m.SumPrincipalByStatusFn != nil {
		return m.SumPrincipalByStatusFn(ctx, st)
	}
	return money.Amount{}, nil
}
