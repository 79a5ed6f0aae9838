package memledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"lumenvault/internal/domain/account"
	"lumenvault/internal/domain/loan"
	"lumenvault/internal/domain/reward"
	"lumenvault/internal/domain/uow"
	"lumenvault/internal/domain/vault"
	"lumenvault/pkg/money"
)

// Store is an in-memory implementation of every ledger repository plus the
// unit of work, with snapshot-on-begin rollback so usecase tests exercise the
// same atomicity contract the gorm transaction gives in production. The store
// mutex makes each transaction a serialized, all-or-nothing unit.
type Store struct {
	mu sync.Mutex

	loans      map[uint64]loan.Loan
	nextLoanID uint64
	collateral map[uint64]vault.Record
	balances   map[balanceKey]money.Amount
	pool       money.Amount
}

type balanceKey struct {
	acct  string
	asset account.Asset
}

var _ uow.UnitOfWork = (*Store)(nil)

func New() *Store {
	return &Store{
		loans:      make(map[uint64]loan.Loan),
		nextLoanID: 1,
		collateral: make(map[uint64]vault.Record),
		balances:   make(map[balanceKey]money.Amount),
	}
}

// Repos returns self-locking repositories for use outside transactions
// (the usecase query paths).
func (s *Store) Repos() uow.Repos {
	return uow.Repos{
		Loans:      loanRepo{s: s, lock: true},
		Collateral: vaultRepo{s: s, lock: true},
		Balances:   balanceRepo{s: s, lock: true},
		Rewards:    rewardRepo{s: s, lock: true},
	}
}

func (s *Store) reposUnlocked() uow.Repos {
	return uow.Repos{
		Loans:      loanRepo{s: s},
		Collateral: vaultRepo{s: s},
		Balances:   balanceRepo{s: s},
		Rewards:    rewardRepo{s: s},
	}
}

// SeedBalance funds an account outside any transaction; test setup only.
func (s *Store) SeedBalance(acct string, asset account.Asset, amount money.Amount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[balanceKey{acct, asset}] = amount
}

// SeedPool puts stable units into the reward pool; test setup only.
func (s *Store) SeedPool(amount money.Amount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool = amount
}

// Balance reads a balance directly; test assertions only.
func (s *Store) Balance(acct string, asset account.Asset) money.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[balanceKey{acct, asset}]
}

// PoolBalance reads the reward pool directly; test assertions only.
func (s *Store) PoolBalance() money.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool
}

// ---- snapshots ----

type snapshot struct {
	loans      map[uint64]loan.Loan
	nextLoanID uint64
	collateral map[uint64]vault.Record
	balances   map[balanceKey]money.Amount
	pool       money.Amount
}

func (s *Store) snap() snapshot {
	sn := snapshot{
		loans:      make(map[uint64]loan.Loan, len(s.loans)),
		nextLoanID: s.nextLoanID,
		collateral: make(map[uint64]vault.Record, len(s.collateral)),
		balances:   make(map[balanceKey]money.Amount, len(s.balances)),
		pool:       s.pool,
	}
	for k, v := range s.loans {
		sn.loans[k] = v
	}
	for k, v := range s.collateral {
		sn.collateral[k] = v
	}
	for k, v := range s.balances {
		sn.balances[k] = v
	}
	return sn
}

func (s *Store) restore(sn snapshot) {
	s.loans = sn.loans
	s.nextLoanID = sn.nextLoanID
	s.collateral = sn.collateral
	s.balances = sn.balances
	s.pool = sn.pool
}

// ---- uow.UnitOfWork ----

func (s *Store) WithinTx(_ context.Context, fn func(r uow.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn := s.snap()
	if err := fn(s.reposUnlocked()); err != nil {
		s.restore(sn)
		return err
	}
	return nil
}

func (s *Store) WithinLoanTx(_ context.Context, loanID uint64, fn func(r uow.Repos, l *loan.Loan) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn := s.snap()
	l, ok := s.loans[loanID]
	if !ok {
		return loan.ErrNotFound
	}
	cp := l
	if err := fn(s.reposUnlocked(), &cp); err != nil {
		s.restore(sn)
		return err
	}
	return nil
}

// ---- loan.Repository ----

type loanRepo struct {
	s    *Store
	lock bool
}

var _ loan.Repository = loanRepo{}

func (r loanRepo) acquire() func() {
	if !r.lock {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r loanRepo) Create(_ context.Context, l *loan.Loan) error {
	defer r.acquire()()
	l.ID = r.s.nextLoanID
	r.s.nextLoanID++
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	r.s.loans[l.ID] = *l
	return nil
}

func (r loanRepo) GetByID(_ context.Context, id uint64) (*loan.Loan, error) {
	defer r.acquire()()
	l, ok := r.s.loans[id]
	if !ok {
		return nil, loan.ErrNotFound
	}
	cp := l
	return &cp, nil
}

func (r loanRepo) GetByIDForUpdate(ctx context.Context, id uint64) (*loan.Loan, error) {
	return r.GetByID(ctx, id)
}

func (r loanRepo) Save(_ context.Context, l *loan.Loan) error {
	defer r.acquire()()
	if _, ok := r.s.loans[l.ID]; !ok {
		return loan.ErrNotFound
	}
	r.s.loans[l.ID] = *l
	return nil
}

func (r loanRepo) list(keep func(loan.Loan) bool) []loan.Loan {
	var out []loan.Loan
	for _, l := range r.s.loans {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r loanRepo) ListByStatus(_ context.Context, st loan.Status) ([]loan.Loan, error) {
	defer r.acquire()()
	return r.list(func(l loan.Loan) bool { return l.Status == st }), nil
}

func (r loanRepo) ListByBorrower(_ context.Context, borrower string) ([]loan.Loan, error) {
	defer r.acquire()()
	return r.list(func(l loan.Loan) bool { return l.Borrower == borrower }), nil
}

func (r loanRepo) ListByLender(_ context.Context, lender string) ([]loan.Loan, error) {
	defer r.acquire()()
	return r.list(func(l loan.Loan) bool { return l.Lender == lender }), nil
}

func (r loanRepo) CountByStatus(_ context.Context, st loan.Status) (int64, error) {
	defer r.acquire()()
	var n int64
	for _, l := range r.s.loans {
		if l.Status == st {
			n++
		}
	}
	return n, nil
}

func (r loanRepo) SumPrincipalByStatus(_ context.Context, st loan.Status) (money.Amount, error) {
	defer r.acquire()()
	sum := money.Amount{}
	for _, l := range r.s.loans {
		if l.Status == st {
			sum = sum.Add(l.Principal)
		}
	}
	return sum, nil
}

// ---- vault.Repository ----

type vaultRepo struct {
	s    *Store
	lock bool
}

var _ vault.Repository = vaultRepo{}

func (r vaultRepo) acquire() func() {
	if !r.lock {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r vaultRepo) Create(_ context.Context, rec *vault.Record) error {
	defer r.acquire()()
	r.s.collateral[rec.LoanID] = *rec
	return nil
}

func (r vaultRepo) GetByLoanID(_ context.Context, loanID uint64) (*vault.Record, error) {
	defer r.acquire()()
	rec, ok := r.s.collateral[loanID]
	if !ok {
		return nil, vault.ErrNotFound
	}
	cp := rec
	return &cp, nil
}

func (r vaultRepo) Release(_ context.Context, loanID uint64, to string, state vault.State, at time.Time) error {
	defer r.acquire()()
	rec, ok := r.s.collateral[loanID]
	if !ok {
		return vault.ErrNotFound
	}
	if rec.State != vault.StateLocked {
		return vault.ErrAlreadyReleased
	}
	rec.State = state
	rec.ReleasedTo = to
	rec.ReleasedAt = &at
	r.s.collateral[loanID] = rec
	return nil
}

func (r vaultRepo) TotalLocked(_ context.Context) (money.Amount, error) {
	defer r.acquire()()
	sum := money.Amount{}
	for _, rec := range r.s.collateral {
		if rec.State == vault.StateLocked {
			sum = sum.Add(rec.Amount)
		}
	}
	return sum, nil
}

// ---- account.Repository ----

type balanceRepo struct {
	s    *Store
	lock bool
}

var _ account.Repository = balanceRepo{}

func (r balanceRepo) acquire() func() {
	if !r.lock {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r balanceRepo) Get(_ context.Context, acct string, asset account.Asset) (*account.Balance, error) {
	defer r.acquire()()
	amt, ok := r.s.balances[balanceKey{acct, asset}]
	if !ok {
		return nil, account.ErrNotFound
	}
	return &account.Balance{Account: acct, Asset: asset, Amount: amt}, nil
}

func (r balanceRepo) Credit(_ context.Context, acct string, asset account.Asset, amount money.Amount) error {
	defer r.acquire()()
	k := balanceKey{acct, asset}
	r.s.balances[k] = r.s.balances[k].Add(amount)
	return nil
}

func (r balanceRepo) Debit(_ context.Context, acct string, asset account.Asset, amount money.Amount) error {
	defer r.acquire()()
	k := balanceKey{acct, asset}
	next, err := r.s.balances[k].Sub(amount)
	if err != nil {
		return account.ErrInsufficientBalance
	}
	r.s.balances[k] = next
	return nil
}

func (r balanceRepo) Transfer(ctx context.Context, from, to string, asset account.Asset, amount money.Amount) error {
	defer r.acquire()()
	inner := balanceRepo{s: r.s}
	if err := inner.Debit(ctx, from, asset, amount); err != nil {
		return err
	}
	return inner.Credit(ctx, to, asset, amount)
}

// ---- reward.Repository ----

type rewardRepo struct {
	s    *Store
	lock bool
}

var _ reward.Repository = rewardRepo{}

func (r rewardRepo) acquire() func() {
	if !r.lock {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r rewardRepo) Get(_ context.Context) (*reward.Pool, error) {
	defer r.acquire()()
	return &reward.Pool{ID: reward.PoolID, Balance: r.s.pool}, nil
}

func (r rewardRepo) Deposit(_ context.Context, amount money.Amount) error {
	defer r.acquire()()
	r.s.pool = r.s.pool.Add(amount)
	return nil
}

func (r rewardRepo) WithdrawUpTo(_ context.Context, amount money.Amount) (money.Amount, error) {
	defer r.acquire()()
	take := amount
	if r.s.pool.Cmp(amount) < 0 {
		take = r.s.pool
	}
	next, err := r.s.pool.Sub(take)
	if err != nil {
		return money.Amount{}, err
	}
	r.s.pool = next
	return take, nil
}

func (r rewardRepo) WithdrawAll(_ context.Context) (money.Amount, error) {
	defer r.acquire()()
	drained := r.s.pool
	r.s.pool = money.Amount{}
	return drained, nil
}
