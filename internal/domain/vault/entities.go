package vault

import (
	"errors"
	"time"

	"lumenvault/pkg/money"
)

type State string

const (
	StateLocked             State = "locked"
	StateReleasedToBorrower State = "released_to_borrower"
	StateReleasedToLender   State = "released_to_lender"
)

var (
	ErrNotFound        = errors.New("collateral record not found")
	ErrAlreadyReleased = errors.New("collateral already released")
)

// Record custodies the collateral locked for one loan. Exactly one record per
// loan, created at request time; release happens exactly once, to exactly one
// recipient (borrower on repayment, lender on liquidation).
type Record struct {
	LoanID     uint64       `gorm:"primaryKey;column:loan_id;autoIncrement:false" json:"loan_id"`
	Amount     money.Amount `gorm:"type:decimal(38,0)" json:"amount"`
	State      State        `gorm:"type:enum('locked','released_to_borrower','released_to_lender');default:'locked'" json:"state"`
	ReleasedTo string       `gorm:"size:32;column:released_to" json:"released_to,omitempty"`
	ReleasedAt *time.Time   `gorm:"column:released_at" json:"released_at,omitempty"`
	CreatedAt  time.Time    `gorm:"autoCreateTime" json:"-"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime" json:"-"`
}

func (Record) TableName() string { return "collateral_records" }
