package mysql

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// --- SQLite-friendly schemas only for tests (no ENUM, decimals as TEXT) ---

type loanSQLite struct {
	ID                 uint64     `gorm:"primaryKey;column:id"`
	Borrower           string     `gorm:"size:32;column:borrower"`
	Lender             string     `gorm:"size:32;column:lender"`
	Principal          string     `gorm:"type:text;column:principal"`
	MaxInterestRateBps uint64     `gorm:"column:max_interest_rate_bps"`
	DurationSecs       uint64     `gorm:"column:duration_secs"`
	CollateralAmount   string     `gorm:"type:text;column:collateral_amount"`
	Status             string     `gorm:"type:text;column:status"` // ← no enum
	FundedAt           *time.Time `gorm:"column:funded_at"`
	DueAt              *time.Time `gorm:"column:due_at"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (loanSQLite) TableName() string { return "loans" }

type recordSQLite struct {
	LoanID     uint64     `gorm:"primaryKey;column:loan_id;autoIncrement:false"`
	Amount     string     `gorm:"type:text;column:amount"`
	State      string     `gorm:"type:text;column:state"`
	ReleasedTo string     `gorm:"size:32;column:released_to"`
	ReleasedAt *time.Time `gorm:"column:released_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
}

func (recordSQLite) TableName() string { return "collateral_records" }

type balanceSQLite struct {
	ID        uint64    `gorm:"primaryKey;column:id"`
	Account   string    `gorm:"size:32;uniqueIndex:ux_balances_account_asset"`
	Asset     string    `gorm:"type:text;uniqueIndex:ux_balances_account_asset"`
	Amount    string    `gorm:"type:text;column:amount"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (balanceSQLite) TableName() string { return "balances" }

type poolSQLite struct {
	ID        uint64    `gorm:"primaryKey;column:id;autoIncrement:false"`
	Balance   string    `gorm:"type:text;column:balance"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (poolSQLite) TableName() string { return "reward_pool" }

// openTestDB creates an in-memory sqlite DB and migrates ONLY the sqlite-safe
// schemas, never the domain models.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&loanSQLite{}, &recordSQLite{}, &balanceSQLite{}, &poolSQLite{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}
