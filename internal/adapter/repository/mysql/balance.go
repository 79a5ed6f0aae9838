package mysql

import (
	"context"
	"errors"
	"fmt"

	acctDomain "lumenvault/internal/domain/account"
	"lumenvault/pkg/money"

	"gorm.io/gorm"
)

type BalanceRepository struct{ db *gorm.DB }

func NewBalanceRepository(db *gorm.DB) *BalanceRepository { return &BalanceRepository{db: db} }

func (r *BalanceRepository) Get(ctx context.Context, acct string, asset acctDomain.Asset) (*acctDomain.Balance, error) {
	var out acctDomain.Balance
	res := r.db.WithContext(ctx).
		Where("account = ? AND asset = ?", acct, asset).
		First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, acctDomain.ErrNotFound
	}
	return &out, res.Error
}

func (r *BalanceRepository) getForUpdate(ctx context.Context, acct string, asset acctDomain.Asset) (*acctDomain.Balance, error) {
	var out acctDomain.Balance
	res := lockForUpdate(r.db.WithContext(ctx)).
		Where("account = ? AND asset = ?", acct, asset).
		First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, acctDomain.ErrNotFound
	}
	return &out, res.Error
}

func (r *BalanceRepository) Credit(ctx context.Context, acct string, asset acctDomain.Asset, amount money.Amount) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("%w: negative credit", acctDomain.ErrTransferFailed)
	}
	b, err := r.getForUpdate(ctx, acct, asset)
	if errors.Is(err, acctDomain.ErrNotFound) {
		return r.db.WithContext(ctx).Create(&acctDomain.Balance{
			Account: acct,
			Asset:   asset,
			Amount:  amount,
		}).Error
	}
	if err != nil {
		return err
	}
	b.Amount = b.Amount.Add(amount)
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *BalanceRepository) Debit(ctx context.Context, acct string, asset acctDomain.Asset, amount money.Amount) error {
	b, err := r.getForUpdate(ctx, acct, asset)
	if errors.Is(err, acctDomain.ErrNotFound) {
		return acctDomain.ErrInsufficientBalance
	}
	if err != nil {
		return err
	}
	next, err := b.Amount.Sub(amount)
	if err != nil {
		return fmt.Errorf("%w: %s has %s %s, needs %s",
			acctDomain.ErrInsufficientBalance, acct, b.Amount.String(), asset, amount.String())
	}
	b.Amount = next
	return r.db.WithContext(ctx).Save(b).Error
}

// Transfer debits then credits inside the caller's transaction; locks are
// taken per row, so the debit failing aborts before any credit happens.
func (r *BalanceRepository) Transfer(ctx context.Context, from, to string, asset acctDomain.Asset, amount money.Amount) error {
	if from == to {
		return fmt.Errorf("%w: self transfer", acctDomain.ErrTransferFailed)
	}
	if err := r.Debit(ctx, from, asset, amount); err != nil {
		return err
	}
	return r.Credit(ctx, to, asset, amount)
}
