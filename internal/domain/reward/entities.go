package reward

import (
	"errors"
	"time"

	"lumenvault/pkg/money"
)

var ErrPoolNotFound = errors.New("reward pool not initialised")

// PoolID is the primary key of the single protocol reward pool row.
const PoolID uint64 = 1

// Pool is the protocol-held stablecoin buffer that funds repayment rewards
// and is drained by the owner via WithdrawRewards. Rewards are always paid
// from this buffer, never from lender proceeds.
type Pool struct {
	ID        uint64       `gorm:"primaryKey;column:id;autoIncrement:false" json:"-"`
	Balance   money.Amount `gorm:"type:decimal(38,0)" json:"balance"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"-"`
}

func (Pool) TableName() string { return "reward_pool" }
