package account

import (
	"errors"
	"time"

	"lumenvault/pkg/money"
)

// Asset distinguishes the two balances an account can hold: the stablecoin
// loan currency and the native collateral asset.
type Asset string

const (
	AssetStable Asset = "stable"
	AssetNative Asset = "native"
)

var (
	ErrNotFound            = errors.New("account balance not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransferFailed      = errors.New("transfer failed")
)

// Balance is one account's holding of one asset. The ledger's transfer and
// custody collaborators are both implemented over this table so asset moves
// commit in the same transaction as loan state transitions.
type Balance struct {
	ID        uint64       `gorm:"primaryKey;column:id" json:"-"`
	Account   string       `gorm:"size:32;uniqueIndex:ux_balances_account_asset" json:"account"`
	Asset     Asset        `gorm:"type:enum('stable','native');uniqueIndex:ux_balances_account_asset" json:"asset"`
	Amount    money.Amount `gorm:"type:decimal(38,0)" json:"amount"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"-"`
}

func (Balance) TableName() string { return "balances" }
