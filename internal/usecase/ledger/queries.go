package ledger

import (
	"context"
	"math/big"

	domainLoan "lumenvault/internal/domain/loan"
	"lumenvault/pkg/money"
)

// GetAllLoanRequests lists every loan still waiting for a lender.
func (u *Usecase) GetAllLoanRequests(ctx context.Context) ([]LoanDTO, error) {
	loans, err := u.loans.ListByStatus(ctx, domainLoan.StatusRequested)
	if err != nil {
		return nil, err
	}
	return toDTOs(loans), nil
}

func (u *Usecase) GetLenderLoans(ctx context.Context, lender string) ([]LoanDTO, error) {
	loans, err := u.loans.ListByLender(ctx, lender)
	if err != nil {
		return nil, err
	}
	return toDTOs(loans), nil
}

func (u *Usecase) GetBorrowerLoans(ctx context.Context, borrower string) ([]LoanDTO, error) {
	loans, err := u.loans.ListByBorrower(ctx, borrower)
	if err != nil {
		return nil, err
	}
	return toDTOs(loans), nil
}

// LoansCore returns the full loan record view.
func (u *Usecase) LoansCore(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

func (u *Usecase) LoansStatus(ctx context.Context, loanID uint64) (*StatusDTO, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return &StatusDTO{
		Active:    l.Status == domainLoan.StatusActive,
		Repaid:    l.Status == domainLoan.StatusRepaid,
		Defaulted: l.Status == domainLoan.StatusDefaulted,
	}, nil
}

// GetTotalLoanPayment quotes what settling the loan right now would cost.
// Interest keeps accruing, so the figure is only exact at its own timestamp.
func (u *Usecase) GetTotalLoanPayment(ctx context.Context, loanID uint64) (*PaymentDTO, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if l.Status != domainLoan.StatusActive {
		return nil, domainLoan.ErrNotActive
	}
	accrued, err := u.accrued(l)
	if err != nil {
		return nil, err
	}
	return &PaymentDTO{
		TotalPayment:   l.Principal.Add(money.New(accrued)),
		Principal:      l.Principal,
		InterestAmount: money.New(accrued),
	}, nil
}

// GetRequiredCollateralAmount prices the collateral needed to request a loan
// of the given principal at the current oracle price.
func (u *Usecase) GetRequiredCollateralAmount(ctx context.Context, principal money.Amount) (money.Amount, error) {
	if principal.Sign() <= 0 {
		return money.Amount{}, domainLoan.ErrInvalidTerms
	}
	required, err := u.requiredCollateral(ctx, principal.BigInt())
	if err != nil {
		return money.Amount{}, err
	}
	return money.New(required), nil
}

// MarketStats aggregates the protocol-wide totals the dashboard shows.
func (u *Usecase) MarketStats(ctx context.Context) (*MarketStatsDTO, error) {
	out := &MarketStatsDTO{}
	var err error
	if out.RequestedLoans, err = u.loans.CountByStatus(ctx, domainLoan.StatusRequested); err != nil {
		return nil, err
	}
	if out.ActiveLoans, err = u.loans.CountByStatus(ctx, domainLoan.StatusActive); err != nil {
		return nil, err
	}
	if out.RepaidLoans, err = u.loans.CountByStatus(ctx, domainLoan.StatusRepaid); err != nil {
		return nil, err
	}
	if out.DefaultedLoans, err = u.loans.CountByStatus(ctx, domainLoan.StatusDefaulted); err != nil {
		return nil, err
	}
	if out.ActivePrincipal, err = u.loans.SumPrincipalByStatus(ctx, domainLoan.StatusActive); err != nil {
		return nil, err
	}
	if out.TotalCollateralLocked, err = u.coll.TotalLocked(ctx); err != nil {
		return nil, err
	}
	pool, err := u.rewards.Get(ctx)
	if err != nil {
		return nil, err
	}
	out.RewardPoolBalance = pool.Balance
	return out, nil
}

// UserStats aggregates one account's borrowing and lending activity.
func (u *Usecase) UserStats(ctx context.Context, acct string) (*UserStatsDTO, error) {
	borrowed, err := u.loans.ListByBorrower(ctx, acct)
	if err != nil {
		return nil, err
	}
	lent, err := u.loans.ListByLender(ctx, acct)
	if err != nil {
		return nil, err
	}

	out := &UserStatsDTO{Account: acct}
	borrowedTotal := new(big.Int)
	lockedTotal := new(big.Int)
	for i := range borrowed {
		l := &borrowed[i]
		out.LoansBorrowed++
		borrowedTotal.Add(borrowedTotal, l.Principal.BigInt())
		switch l.Status {
		case domainLoan.StatusActive:
			out.ActiveBorrowed++
			lockedTotal.Add(lockedTotal, l.CollateralAmount.BigInt())
		case domainLoan.StatusRequested:
			lockedTotal.Add(lockedTotal, l.CollateralAmount.BigInt())
		}
	}
	lentTotal := new(big.Int)
	for i := range lent {
		l := &lent[i]
		out.LoansLent++
		lentTotal.Add(lentTotal, l.Principal.BigInt())
		if l.Status == domainLoan.StatusActive {
			out.ActiveLent++
		}
	}
	out.BorrowedTotal = money.New(borrowedTotal)
	out.LentTotal = money.New(lentTotal)
	out.CollateralLocked = money.New(lockedTotal)
	return out, nil
}

func toDTOs(loans []domainLoan.Loan) []LoanDTO {
	out := make([]LoanDTO, 0, len(loans))
	for i := range loans {
		out = append(out, *toDTO(&loans[i]))
	}
	return out
}
