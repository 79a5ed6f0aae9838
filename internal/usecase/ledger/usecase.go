package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"lumenvault/internal/domain/account"
	"lumenvault/internal/domain/event"
	domainLoan "lumenvault/internal/domain/loan"
	"lumenvault/internal/domain/pricing"
	"lumenvault/internal/domain/reward"
	"lumenvault/internal/domain/uow"
	"lumenvault/internal/domain/vault"
	"lumenvault/pkg/interest"
	"lumenvault/pkg/money"

	"github.com/google/uuid"
)

var (
	ErrNotOwner       = errors.New("caller is not the owner")
	ErrTransferFailed = errors.New("transfer failed")
)

// MaxDurationSecs caps the requested term at ten years. The due date is
// computed as now + duration in int64 nanoseconds, which wraps for terms past
// ~292 years and would land a fresh loan's maturity in the past.
const MaxDurationSecs uint64 = 10 * 365 * 24 * 60 * 60

// Policy holds the fixed protocol parameters. They are loaded once at startup
// and never mutated at runtime.
type Policy struct {
	// CollateralRatioBps is the required collateral-value/principal ratio at
	// request time (12000 = 120%).
	CollateralRatioBps uint64
	// LiquidationThresholdBps is the health factor below which an active loan
	// becomes liquidatable before maturity (11000 = 110%).
	LiquidationThresholdBps uint64
	// RewardBps sizes the repayment reward as a share of principal, paid from
	// the protocol reward pool and capped by its balance.
	RewardBps uint64
	// Owner is the account allowed to drain the reward pool.
	Owner string
}

// Usecase is the loan ledger: it owns every lifecycle transition and runs each
// one as a single transaction over the loan row, its collateral record, and
// the asset balances it moves.
type Usecase struct {
	uow     uow.UnitOfWork
	loans   domainLoan.Repository
	coll    vault.Repository
	rewards reward.Repository
	oracle  pricing.Oracle
	events  event.Publisher
	policy  Policy

	now func() time.Time
}

func NewUsecase(
	tx uow.UnitOfWork,
	loans domainLoan.Repository,
	coll vault.Repository,
	rewards reward.Repository,
	oracle pricing.Oracle,
	pub event.Publisher,
	policy Policy,
) *Usecase {
	return &Usecase{
		uow:     tx,
		loans:   loans,
		coll:    coll,
		rewards: rewards,
		oracle:  oracle,
		events:  pub,
		policy:  policy,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (u *Usecase) publish(e event.Event) {
	if u.events == nil {
		return
	}
	e.EventID = uuid.NewString()
	e.OccurredAt = u.now()
	u.events.Publish(e)
}

// RequestLoan locks the borrower's collateral and records a new loan in the
// requested state. The collateral must cover the configured ratio at the
// current oracle price.
func (u *Usecase) RequestLoan(ctx context.Context, in RequestLoanInput) (*LoanDTO, error) {
	if len(in.Borrower) != 32 {
		return nil, fmt.Errorf("%w: borrower id must be 32-char hex", domainLoan.ErrInvalidTerms)
	}
	if in.Principal.Sign() <= 0 {
		return nil, fmt.Errorf("%w: principal must be positive", domainLoan.ErrInvalidTerms)
	}
	if in.DurationSecs == 0 {
		return nil, fmt.Errorf("%w: duration must be positive", domainLoan.ErrInvalidTerms)
	}
	if in.DurationSecs > MaxDurationSecs {
		return nil, fmt.Errorf("%w: duration %d exceeds the %d-second maximum",
			domainLoan.ErrInvalidTerms, in.DurationSecs, MaxDurationSecs)
	}

	required, err := u.requiredCollateral(ctx, in.Principal.BigInt())
	if err != nil {
		return nil, err
	}
	if in.Collateral.CmpBig(required) < 0 {
		return nil, fmt.Errorf("%w: need %s, got %s",
			domainLoan.ErrInsufficientCollateral, required.String(), in.Collateral.String())
	}

	l := &domainLoan.Loan{
		Borrower:           in.Borrower,
		Principal:          in.Principal,
		MaxInterestRateBps: in.MaxInterestRateBps,
		DurationSecs:       in.DurationSecs,
		CollateralAmount:   in.Collateral,
		Status:             domainLoan.StatusRequested,
	}

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		// Pull the collateral into custody first; the loan row only exists if
		// the lock succeeded.
		if err := r.Balances.Debit(ctx, in.Borrower, account.AssetNative, in.Collateral); err != nil {
			if errors.Is(err, account.ErrInsufficientBalance) {
				return fmt.Errorf("%w: collateral: %v", ErrTransferFailed, err)
			}
			return err
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		return r.Collateral.Create(ctx, &vault.Record{
			LoanID: l.ID,
			Amount: in.Collateral,
			State:  vault.StateLocked,
		})
	})
	if err != nil {
		return nil, err
	}

	u.publish(event.Event{
		Kind:               event.KindLoanRequested,
		LoanID:             l.ID,
		Borrower:           l.Borrower,
		Principal:          l.Principal,
		Collateral:         l.CollateralAmount,
		MaxInterestRateBps: l.MaxInterestRateBps,
		DurationSecs:       l.DurationSecs,
	})
	return toDTO(l), nil
}

// FundLoan moves the principal from the lender to the borrower and activates
// the loan. The due date is fixed here, funding time + requested duration.
func (u *Usecase) FundLoan(ctx context.Context, loanID uint64, lender string) error {
	if len(lender) != 32 {
		return fmt.Errorf("%w: lender id must be 32-char hex", domainLoan.ErrInvalidTerms)
	}

	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Status != domainLoan.StatusRequested {
			return domainLoan.ErrNotRequestable
		}
		if err := r.Balances.Transfer(ctx, lender, l.Borrower, account.AssetStable, l.Principal); err != nil {
			if errors.Is(err, account.ErrInsufficientBalance) || errors.Is(err, account.ErrNotFound) {
				return fmt.Errorf("%w: principal: %v", ErrTransferFailed, err)
			}
			return err
		}

		now := u.now()
		due := now.Add(time.Duration(l.DurationSecs) * time.Second)
		l.Lender = lender
		l.FundedAt = &now
		l.DueAt = &due
		l.Status = domainLoan.StatusActive
		return r.Loans.Save(ctx, l)
	})
	if err != nil {
		return err
	}

	u.publish(event.Event{Kind: event.KindLoanFunded, LoanID: loanID, Lender: lender})
	return nil
}

// RepayLoanWithReward settles principal plus interest to the lender, returns
// the collateral to the borrower, and pays the repayment reward from the
// protocol pool. Any payer may act on the borrower's behalf; the reward goes
// to whoever paid.
func (u *Usecase) RepayLoanWithReward(ctx context.Context, loanID uint64, payer string) error {
	if len(payer) != 32 {
		return fmt.Errorf("%w: payer id must be 32-char hex", domainLoan.ErrInvalidTerms)
	}

	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Status != domainLoan.StatusActive {
			return domainLoan.ErrNotActive
		}

		accrued, err := u.accrued(l)
		if err != nil {
			return err
		}
		totalOwed := l.Principal.Add(money.New(accrued))

		if err := r.Balances.Transfer(ctx, payer, l.Lender, account.AssetStable, totalOwed); err != nil {
			if errors.Is(err, account.ErrInsufficientBalance) || errors.Is(err, account.ErrNotFound) {
				return fmt.Errorf("%w: repayment: %v", ErrTransferFailed, err)
			}
			return err
		}

		now := u.now()
		if err := r.Collateral.Release(ctx, l.ID, l.Borrower, vault.StateReleasedToBorrower, now); err != nil {
			return err
		}
		if err := r.Balances.Credit(ctx, l.Borrower, account.AssetNative, l.CollateralAmount); err != nil {
			return err
		}

		// Reward comes out of the protocol buffer, never the lender's proceeds,
		// and silently shrinks to whatever the pool still holds.
		if u.policy.RewardBps > 0 {
			want := money.New(mulDivBps(l.Principal.BigInt(), u.policy.RewardBps))
			if want.Sign() > 0 {
				paid, err := r.Rewards.WithdrawUpTo(ctx, want)
				if err != nil {
					return err
				}
				if paid.Sign() > 0 {
					if err := r.Balances.Credit(ctx, payer, account.AssetStable, paid); err != nil {
						return err
					}
				}
			}
		}

		l.Status = domainLoan.StatusRepaid
		return r.Loans.Save(ctx, l)
	})
	if err != nil {
		return err
	}

	u.publish(event.Event{Kind: event.KindLoanRepaid, LoanID: loanID})
	return nil
}

// LiquidateLoan hands the full collateral to the lender once the loan is
// overdue or its health factor has fallen under the liquidation threshold.
// The overdue check is evaluated first so a dead oracle cannot block
// liquidating an expired loan.
func (u *Usecase) LiquidateLoan(ctx context.Context, loanID uint64) error {
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Status != domainLoan.StatusActive {
			return domainLoan.ErrNotActive
		}

		now := u.now()
		if !l.Overdue(now) {
			healthy, err := u.healthyAt(ctx, l)
			if err != nil {
				return err
			}
			if healthy {
				return domainLoan.ErrNotLiquidatable
			}
		}

		if err := r.Collateral.Release(ctx, l.ID, l.Lender, vault.StateReleasedToLender, now); err != nil {
			return err
		}
		if err := r.Balances.Credit(ctx, l.Lender, account.AssetNative, l.CollateralAmount); err != nil {
			return err
		}

		l.Status = domainLoan.StatusDefaulted
		return r.Loans.Save(ctx, l)
	})
	if err != nil {
		return err
	}

	u.publish(event.Event{Kind: event.KindLoanLiquidated, LoanID: loanID})
	return nil
}

// WithdrawRewards drains the reward pool to destination's stable balance.
// Owner only.
func (u *Usecase) WithdrawRewards(ctx context.Context, caller, destination string) (money.Amount, error) {
	if caller != u.policy.Owner {
		return money.Amount{}, ErrNotOwner
	}
	if len(destination) != 32 {
		return money.Amount{}, fmt.Errorf("%w: destination must be 32-char hex", domainLoan.ErrInvalidTerms)
	}

	var drained money.Amount
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		amt, err := r.Rewards.WithdrawAll(ctx)
		if err != nil {
			return err
		}
		drained = amt
		if amt.Sign() == 0 {
			return nil
		}
		return r.Balances.Credit(ctx, destination, account.AssetStable, amt)
	})
	if err != nil {
		return money.Amount{}, err
	}

	if drained.Sign() > 0 {
		u.publish(event.Event{Kind: event.KindRewardsWithdrawn, Destination: destination, Amount: drained})
	}
	return drained, nil
}

// Owner returns the privileged account configured for reward withdrawal.
func (u *Usecase) Owner() string { return u.policy.Owner }

// ---- pricing math ----

// requiredCollateral = principal * ratioBps * 10^decimals / (10000 * price),
// rounded up so rounding can never under-collateralize a loan.
func (u *Usecase) requiredCollateral(ctx context.Context, principal *big.Int) (*big.Int, error) {
	q, err := u.quote(ctx)
	if err != nil {
		return nil, err
	}
	num := new(big.Int).Mul(principal, new(big.Int).SetUint64(u.policy.CollateralRatioBps))
	num.Mul(num, q.Scale())
	den := new(big.Int).Mul(big.NewInt(interest.BasisPoints), q.Value)
	return ceilDiv(num, den), nil
}

// healthyAt reports whether the loan's health factor is at or above the
// liquidation threshold at the current oracle price.
func (u *Usecase) healthyAt(ctx context.Context, l *domainLoan.Loan) (bool, error) {
	q, err := u.quote(ctx)
	if err != nil {
		return false, err
	}
	// healthBps = collateral * price * 10000 / (10^decimals * principal)
	num := new(big.Int).Mul(l.CollateralAmount.BigInt(), q.Value)
	num.Mul(num, big.NewInt(interest.BasisPoints))
	den := new(big.Int).Mul(q.Scale(), l.Principal.BigInt())
	health := new(big.Int).Quo(num, den)
	return health.Cmp(new(big.Int).SetUint64(u.policy.LiquidationThresholdBps)) >= 0, nil
}

func (u *Usecase) quote(ctx context.Context) (pricing.Quote, error) {
	q, err := u.oracle.Price(ctx)
	if err != nil {
		return pricing.Quote{}, fmt.Errorf("%w: %v", pricing.ErrUnavailable, err)
	}
	if q.Value == nil || q.Value.Sign() <= 0 {
		return pricing.Quote{}, pricing.ErrUnavailable
	}
	return q, nil
}

func (u *Usecase) accrued(l *domainLoan.Loan) (*big.Int, error) {
	if l.FundedAt == nil {
		return nil, domainLoan.ErrNotActive
	}
	return interest.Accrue(l.Principal.BigInt(), l.MaxInterestRateBps, u.now().Sub(*l.FundedAt))
}

func mulDivBps(v *big.Int, bps uint64) *big.Int {
	out := new(big.Int).Mul(v, new(big.Int).SetUint64(bps))
	return out.Quo(out, big.NewInt(interest.BasisPoints))
}

func ceilDiv(num, den *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

func toDTO(l *domainLoan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:             l.ID,
		Borrower:           l.Borrower,
		Lender:             l.Lender,
		Principal:          l.Principal,
		MaxInterestRateBps: l.MaxInterestRateBps,
		DurationSecs:       l.DurationSecs,
		CollateralAmount:   l.CollateralAmount,
		Status:             string(l.Status),
		FundedAt:           l.FundedAt,
		DueAt:              l.DueAt,
		CreatedAt:          l.CreatedAt,
	}
}
