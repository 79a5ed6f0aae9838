package event

import (
	"time"

	"lumenvault/pkg/money"
)

type Kind string

const (
	KindLoanRequested    Kind = "loan.requested"
	KindLoanFunded       Kind = "loan.funded"
	KindLoanRepaid       Kind = "loan.repaid"
	KindLoanLiquidated   Kind = "loan.liquidated"
	KindRewardsWithdrawn Kind = "rewards.withdrawn"
)

// Event is a typed domain notification pushed after a transaction commits.
// Delivery is at-least-once; consumers key on EventID for idempotence.
type Event struct {
	EventID    string    `json:"event_id"`
	Kind       Kind      `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`

	LoanID uint64 `json:"loan_id,omitempty"`

	// LoanRequested payload.
	Borrower           string       `json:"borrower,omitempty"`
	Principal          money.Amount `json:"principal,omitempty"`
	Collateral         money.Amount `json:"collateral,omitempty"`
	MaxInterestRateBps uint64       `json:"max_interest_rate_bps,omitempty"`
	DurationSecs       uint64       `json:"duration_secs,omitempty"`

	// LoanFunded / LoanRepaid / LoanLiquidated payload.
	Lender string `json:"lender,omitempty"`

	// RewardsWithdrawn payload.
	Destination string       `json:"destination,omitempty"`
	Amount      money.Amount `json:"amount,omitempty"`
}

// Publisher receives committed events. Implementations must not block the
// caller; loss under backpressure is acceptable because consumers can rebuild
// their view from the query surface.
type Publisher interface {
	Publish(e Event)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(e Event)

func (f PublisherFunc) Publish(e Event) { f(e) }
