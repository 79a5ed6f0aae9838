package mysql

import (
	"context"
	"errors"

	loanDomain "lumenvault/internal/domain/loan"
	"lumenvault/pkg/money"

	"gorm.io/gorm"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, loanDomain.ErrNotFound
	}
	return &out, res.Error
}

// GetByIDForUpdate locks the row until the surrounding transaction ends, so
// racing lifecycle transitions on one loan serialize at the database.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := lockForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, loanDomain.ErrNotFound
	}
	return &out, res.Error
}

func (r *LoanRepository) ListByStatus(ctx context.Context, st loanDomain.Status) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("status = ?", st).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}

func (r *LoanRepository) ListByBorrower(ctx context.Context, borrower string) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("borrower = ?", borrower).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}

func (r *LoanRepository) ListByLender(ctx context.Context, lender string) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("lender = ?", lender).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}

func (r *LoanRepository) CountByStatus(ctx context.Context, st loanDomain.Status) (int64, error) {
	var n int64
	res := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("status = ?", st).
		Count(&n)
	return n, res.Error
}

func (r *LoanRepository) SumPrincipalByStatus(ctx context.Context, st loanDomain.Status) (money.Amount, error) {
	// COALESCE keeps an empty status bucket from scanning NULL.
	var raw string
	res := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("status = ?", st).
		Select("COALESCE(SUM(principal), 0)").
		Scan(&raw)
	if res.Error != nil {
		return money.Amount{}, res.Error
	}
	return money.Parse(raw)
}
