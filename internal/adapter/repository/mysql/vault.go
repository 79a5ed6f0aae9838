package mysql

import (
	"context"
	"errors"
	"time"

	vaultDomain "lumenvault/internal/domain/vault"
	"lumenvault/pkg/money"

	"gorm.io/gorm"
)

type VaultRepository struct{ db *gorm.DB }

func NewVaultRepository(db *gorm.DB) *VaultRepository { return &VaultRepository{db: db} }

func (r *VaultRepository) Create(ctx context.Context, rec *vaultDomain.Record) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *VaultRepository) GetByLoanID(ctx context.Context, loanID uint64) (*vaultDomain.Record, error) {
	var out vaultDomain.Record
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, vaultDomain.ErrNotFound
	}
	return &out, res.Error
}

// Release is guarded at the SQL level: the UPDATE only matches a record still
// in the locked state, so a second release finds zero rows and fails.
func (r *VaultRepository) Release(ctx context.Context, loanID uint64, to string, state vaultDomain.State, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&vaultDomain.Record{}).
		Where("loan_id = ? AND state = ?", loanID, vaultDomain.StateLocked).
		Updates(map[string]any{
			"state":       state,
			"released_to": to,
			"released_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByLoanID(ctx, loanID); err != nil {
			return err
		}
		return vaultDomain.ErrAlreadyReleased
	}
	return nil
}

func (r *VaultRepository) TotalLocked(ctx context.Context) (money.Amount, error) {
	var raw string
	res := r.db.WithContext(ctx).
		Model(&vaultDomain.Record{}).
		Where("state = ?", vaultDomain.StateLocked).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&raw)
	if res.Error != nil {
		return money.Amount{}, res.Error
	}
	return money.Parse(raw)
}
