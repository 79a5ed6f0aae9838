package mysql

import (
	"context"
	"errors"

	rewardDomain "lumenvault/internal/domain/reward"
	"lumenvault/pkg/money"

	"gorm.io/gorm"
)

type RewardRepository struct{ db *gorm.DB }

func NewRewardRepository(db *gorm.DB) *RewardRepository { return &RewardRepository{db: db} }

func (r *RewardRepository) Get(ctx context.Context) (*rewardDomain.Pool, error) {
	var out rewardDomain.Pool
	res := r.db.WithContext(ctx).Where("id = ?", rewardDomain.PoolID).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return &rewardDomain.Pool{ID: rewardDomain.PoolID}, nil
	}
	return &out, res.Error
}

func (r *RewardRepository) getForUpdate(ctx context.Context) (*rewardDomain.Pool, error) {
	var out rewardDomain.Pool
	res := lockForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", rewardDomain.PoolID).
		First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, rewardDomain.ErrPoolNotFound
	}
	return &out, res.Error
}

func (r *RewardRepository) Deposit(ctx context.Context, amount money.Amount) error {
	p, err := r.getForUpdate(ctx)
	if errors.Is(err, rewardDomain.ErrPoolNotFound) {
		return r.db.WithContext(ctx).Create(&rewardDomain.Pool{
			ID:      rewardDomain.PoolID,
			Balance: amount,
		}).Error
	}
	if err != nil {
		return err
	}
	p.Balance = p.Balance.Add(amount)
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *RewardRepository) WithdrawUpTo(ctx context.Context, amount money.Amount) (money.Amount, error) {
	p, err := r.getForUpdate(ctx)
	if errors.Is(err, rewardDomain.ErrPoolNotFound) {
		return money.Amount{}, nil
	}
	if err != nil {
		return money.Amount{}, err
	}
	take := amount
	if p.Balance.Cmp(amount) < 0 {
		take = p.Balance
	}
	if take.Sign() == 0 {
		return money.Amount{}, nil
	}
	next, err := p.Balance.Sub(take)
	if err != nil {
		return money.Amount{}, err
	}
	p.Balance = next
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return money.Amount{}, err
	}
	return take, nil
}

func (r *RewardRepository) WithdrawAll(ctx context.Context) (money.Amount, error) {
	p, err := r.getForUpdate(ctx)
	if errors.Is(err, rewardDomain.ErrPoolNotFound) {
		return money.Amount{}, nil
	}
	if err != nil {
		return money.Amount{}, err
	}
	drained := p.Balance
	p.Balance = money.Amount{}
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return money.Amount{}, err
	}
	return drained, nil
}
