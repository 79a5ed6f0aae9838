package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "lumenvault/internal/domain/vault"
	"lumenvault/pkg/id"
	"lumenvault/pkg/money"
)

func lockRecord(t *testing.T, repo *VaultRepository, loanID uint64, amount string) {
	t.Helper()
	err := repo.Create(context.Background(), &domain.Record{
		LoanID: loanID,
		Amount: money.MustParse(amount),
		State:  domain.StateLocked,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestVaultCreateAndGet(t *testing.T) {
	db := openTestDB(t)
	repo := NewVaultRepository(db)

	lockRecord(t, repo, 1, "1200")

	got, err := repo.GetByLoanID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByLoanID: %v", err)
	}
	if got.State != domain.StateLocked || got.Amount.String() != "1200" {
		t.Errorf("unexpected record: %+v", got)
	}

	if _, err := repo.GetByLoanID(context.Background(), 404); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVaultRelease_Once(t *testing.T) {
	db := openTestDB(t)
	repo := NewVaultRepository(db)
	ctx := context.Background()

	borrower := id.NewID32()
	lockRecord(t, repo, 1, "1200")

	at := time.Now().UTC().Truncate(time.Second)
	if err := repo.Release(ctx, 1, borrower, domain.StateReleasedToBorrower, at); err != nil {
		t.Fatalf("Release: %v", err)
	}

	got, err := repo.GetByLoanID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByLoanID: %v", err)
	}
	if got.State != domain.StateReleasedToBorrower || got.ReleasedTo != borrower {
		t.Errorf("release not persisted: %+v", got)
	}
	if got.ReleasedAt == nil {
		t.Error("released_at not set")
	}

	// Second release must fail, whoever the would-be recipient is.
	err = repo.Release(ctx, 1, id.NewID32(), domain.StateReleasedToLender, at)
	if !errors.Is(err, domain.ErrAlreadyReleased) {
		t.Fatalf("second release err = %v, want ErrAlreadyReleased", err)
	}
	// And the record is unchanged.
	got, _ = repo.GetByLoanID(ctx, 1)
	if got.State != domain.StateReleasedToBorrower || got.ReleasedTo != borrower {
		t.Errorf("record mutated by failed release: %+v", got)
	}
}

func TestVaultRelease_NotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewVaultRepository(db)

	err := repo.Release(context.Background(), 404, id.NewID32(), domain.StateReleasedToLender, time.Now())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestVaultTotalLocked(t *testing.T) {
	db := openTestDB(t)
	repo := NewVaultRepository(db)
	ctx := context.Background()

	sum, err := repo.TotalLocked(ctx)
	if err != nil {
		t.Fatalf("TotalLocked empty: %v", err)
	}
	if sum.Sign() != 0 {
		t.Errorf("empty vault sum = %s, want 0", sum.String())
	}

	lockRecord(t, repo, 1, "1200")
	lockRecord(t, repo, 2, "2400")
	lockRecord(t, repo, 3, "600")
	if err := repo.Release(ctx, 3, id.NewID32(), domain.StateReleasedToLender, time.Now().UTC()); err != nil {
		t.Fatalf("Release: %v", err)
	}

	sum, err = repo.TotalLocked(ctx)
	if err != nil {
		t.Fatalf("TotalLocked: %v", err)
	}
	if sum.String() != "3600" {
		t.Errorf("locked sum = %s, want 3600 (released record excluded)", sum.String())
	}
}
