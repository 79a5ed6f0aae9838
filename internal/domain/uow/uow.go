package uow

import (
	"context"

	"lumenvault/internal/domain/account"
	"lumenvault/internal/domain/loan"
	"lumenvault/internal/domain/reward"
	"lumenvault/internal/domain/vault"
)

// Repos bundles every repository bound to one transaction, so asset moves,
// custody changes, and loan state transitions commit or roll back together.
type Repos struct {
	Loans      loan.Repository
	Collateral vault.Repository
	Balances   account.Repository
	Rewards    reward.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the loan row first, then pass it in
	WithinLoanTx(ctx context.Context, loanID uint64, fn func(r Repos, l *loan.Loan) error) error
}
