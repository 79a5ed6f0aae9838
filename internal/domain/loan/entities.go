package loan

import (
	"errors"
	"time"

	"lumenvault/pkg/money"
)

type Status string

const (
	StatusRequested Status = "requested"
	StatusActive    Status = "active"
	StatusRepaid    Status = "repaid"
	StatusDefaulted Status = "defaulted"
)

var (
	ErrNotFound               = errors.New("loan not found")
	ErrInvalidTerms           = errors.New("invalid loan terms")
	ErrInsufficientCollateral = errors.New("insufficient collateral")
	ErrNotRequestable         = errors.New("loan is not in requested state")
	ErrNotActive              = errors.New("loan is not active")
	ErrNotLiquidatable        = errors.New("loan is not liquidatable")
)

// Loan is the ledger's central record. The numeric primary key is the loan id:
// monotonically increasing, assigned once at request time, never reused.
// Terminal rows (repaid/defaulted) are permanent history and never deleted.
type Loan struct {
	ID                 uint64       `gorm:"primaryKey;column:id" json:"loan_id"`
	Borrower           string       `gorm:"size:32;index:idx_loans_borrower" json:"borrower"`
	Lender             string       `gorm:"size:32;index:idx_loans_lender" json:"lender"`
	Principal          money.Amount `gorm:"type:decimal(38,0)" json:"principal"`
	MaxInterestRateBps uint64       `gorm:"column:max_interest_rate_bps" json:"max_interest_rate_bps"`
	DurationSecs       uint64       `gorm:"column:duration_secs" json:"duration_secs"`
	CollateralAmount   money.Amount `gorm:"type:decimal(38,0)" json:"collateral_amount"`
	Status             Status       `gorm:"type:enum('requested','active','repaid','defaulted');default:'requested';index:idx_loans_status" json:"status"`
	FundedAt           *time.Time   `gorm:"column:funded_at" json:"funded_at,omitempty"`
	DueAt              *time.Time   `gorm:"column:due_at" json:"due_at,omitempty"`
	CreatedAt          time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time    `gorm:"autoUpdateTime" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// Overdue reports whether now is strictly past the repayment window. A loan
// that was never funded has no due date and cannot be overdue.
func (l *Loan) Overdue(now time.Time) bool {
	return l.DueAt != nil && now.After(*l.DueAt)
}
