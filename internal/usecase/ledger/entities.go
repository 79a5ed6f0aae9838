package ledger

import (
	"time"

	"lumenvault/pkg/money"
)

type RequestLoanInput struct {
	Borrower           string       `json:"borrower"`
	Principal          money.Amount `json:"principal"`
	MaxInterestRateBps uint64       `json:"max_interest_rate_bps"`
	DurationSecs       uint64       `json:"duration_secs"`
	Collateral         money.Amount `json:"collateral"`
}

type LoanDTO struct {
	LoanID             uint64       `json:"loan_id"`
	Borrower           string       `json:"borrower"`
	Lender             string       `json:"lender,omitempty"`
	Principal          money.Amount `json:"principal"`
	MaxInterestRateBps uint64       `json:"max_interest_rate_bps"`
	DurationSecs       uint64       `json:"duration_secs"`
	CollateralAmount   money.Amount `json:"collateral_amount"`
	Status             string       `json:"status"`
	FundedAt           *time.Time   `json:"funded_at,omitempty"`
	DueAt              *time.Time   `json:"due_at,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
}

// StatusDTO mirrors the loansStatus query: exactly one flag is set for a
// terminal loan, none for a requested one.
type StatusDTO struct {
	Active    bool `json:"active"`
	Repaid    bool `json:"repaid"`
	Defaulted bool `json:"defaulted"`
}

// PaymentDTO is computed at query time and never persisted; two calls against
// the same active loan at different times report different interest.
type PaymentDTO struct {
	TotalPayment   money.Amount `json:"total_payment"`
	Principal      money.Amount `json:"principal"`
	InterestAmount money.Amount `json:"interest_amount"`
}

type MarketStatsDTO struct {
	RequestedLoans        int64        `json:"requested_loans"`
	ActiveLoans           int64        `json:"active_loans"`
	RepaidLoans           int64        `json:"repaid_loans"`
	DefaultedLoans        int64        `json:"defaulted_loans"`
	ActivePrincipal       money.Amount `json:"active_principal"`
	TotalCollateralLocked money.Amount `json:"total_collateral_locked"`
	RewardPoolBalance     money.Amount `json:"reward_pool_balance"`
}

type UserStatsDTO struct {
	Account          string       `json:"account"`
	LoansBorrowed    int64        `json:"loans_borrowed"`
	LoansLent        int64        `json:"loans_lent"`
	ActiveBorrowed   int64        `json:"active_borrowed"`
	ActiveLent       int64        `json:"active_lent"`
	BorrowedTotal    money.Amount `json:"borrowed_total"`
	LentTotal        money.Amount `json:"lent_total"`
	CollateralLocked money.Amount `json:"collateral_locked"`
}
