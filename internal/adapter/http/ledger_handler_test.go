package http

import (
	"bytes"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lumenvault/internal/domain/account"
	domain "lumenvault/internal/domain/loan"
	"lumenvault/internal/testutil/memledger"
	"lumenvault/internal/testutil/oraclemock"
	uc "lumenvault/internal/usecase/ledger"
	"lumenvault/pkg/money"

	"github.com/labstack/echo/v4"
)

// -------- helpers --------

var (
	tBorrower = strings.Repeat("b", 32)
	tLender   = strings.Repeat("c", 32)
	tOwner    = strings.Repeat("0", 32)
)

func newEchoWithValidator() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func mustJSON(v any) *bytes.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

// newLedger builds a handler over an in-memory ledger quoting $1.00.
func newLedger(t *testing.T) (*LedgerHandler, *memledger.Store, *oraclemock.Oracle) {
	t.Helper()
	store := memledger.New()
	orc := oraclemock.New(100_000_000, 8)
	repos := store.Repos()
	usecase := uc.NewUsecase(store, repos.Loans, repos.Collateral, repos.Rewards, orc, nil, uc.Policy{
		CollateralRatioBps:      12_000,
		LiquidationThresholdBps: 11_000,
		RewardBps:               100,
		Owner:                   tOwner,
	})
	return NewLedgerHandler(usecase), store, orc
}

func doJSON(e *echo.Echo, h echo.HandlerFunc, method, target, caller string, body *bytes.Reader, params ...string) *httptest.ResponseRecorder {
	var req *stdhttp.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if caller != "" {
		req.Header.Set("Ax-Account-Id", caller)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	if err := h(c); err != nil {
		panic(err)
	}
	return rec
}

func requestLoan(t *testing.T, e *echo.Echo, h *LedgerHandler) uint64 {
	t.Helper()
	rec := doJSON(e, h.RequestLoan, stdhttp.MethodPost, "/loans", tBorrower, mustJSON(map[string]any{
		"principal":             "1000",
		"max_interest_rate_bps": 1000,
		"duration_secs":         2_592_000,
		"collateral":            "1200",
	}))
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("request loan status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var dto uc.LoanDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	return dto.LoanID
}

// -------- tests --------

func TestRequestLoan_Success(t *testing.T) {
	e := newEchoWithValidator()
	h, store, _ := newLedger(t)
	store.SeedBalance(tBorrower, account.AssetNative, money.MustParse("2000"))

	rec := doJSON(e, h.RequestLoan, stdhttp.MethodPost, "/loans", tBorrower, mustJSON(map[string]any{
		"principal":             "1000",
		"max_interest_rate_bps": 1000,
		"duration_secs":         2_592_000,
		"collateral":            "1200",
	}))
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var dto uc.LoanDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if dto.Borrower != tBorrower || dto.Status != string(domain.StatusRequested) {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if dto.Principal.String() != "1000" {
		t.Fatalf("principal = %s, want decimal string round-trip", dto.Principal.String())
	}
}

func TestRequestLoan_MissingCaller(t *testing.T) {
	e := newEchoWithValidator()
	h, _, _ := newLedger(t)

	rec := doJSON(e, h.RequestLoan, stdhttp.MethodPost, "/loans", "", mustJSON(map[string]any{
		"principal":             "1000",
		"max_interest_rate_bps": 1000,
		"duration_secs":         2_592_000,
		"collateral":            "1200",
	}))
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRequestLoan_BindError(t *testing.T) {
	e := newEchoWithValidator()
	h, _, _ := newLedger(t)

	req := httptest.NewRequest(stdhttp.MethodPost, "/loans", strings.NewReader(`{"principal":`)) // broken JSON
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Ax-Account-Id", tBorrower)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.RequestLoan(c); err != nil {
		t.Fatalf("RequestLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var er ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &er)
	if er.Error != "invalid body" {
		t.Fatalf("error = %q, want %q", er.Error, "invalid body")
	}
}

func TestRequestLoan_ValidationError(t *testing.T) {
	e := newEchoWithValidator()
	h, _, _ := newLedger(t)

	// invalid: principal not a decimal string, rate above 10000 bps, zero duration
	rec := doJSON(e, h.RequestLoan, stdhttp.MethodPost, "/loans", tBorrower, mustJSON(map[string]any{
		"principal":             "12.5",
		"max_interest_rate_bps": 10_001,
		"duration_secs":         0,
		"collateral":            "-3",
	}))
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if !containsFieldMsg(er.Details, "Principal", "positive integer") {
		t.Errorf("missing Principal detail: %+v", er.Details)
	}
	if !containsFieldMsg(er.Details, "MaxInterestRateBps", "less than or equal") {
		t.Errorf("missing MaxInterestRateBps detail: %+v", er.Details)
	}
	if !containsFieldMsg(er.Details, "DurationSecs", "required") {
		t.Errorf("missing DurationSecs detail: %+v", er.Details)
	}
	if !containsFieldMsg(er.Details, "Collateral", "positive integer") {
		t.Errorf("missing Collateral detail: %+v", er.Details)
	}
}

func TestRequestLoan_DurationOverCapRejected(t *testing.T) {
	e := newEchoWithValidator()
	h, store, _ := newLedger(t)
	store.SeedBalance(tBorrower, account.AssetNative, money.MustParse("2000"))

	// ~317 years; large enough to wrap the due-date nanosecond math if it
	// ever reached the ledger.
	rec := doJSON(e, h.RequestLoan, stdhttp.MethodPost, "/loans", tBorrower, mustJSON(map[string]any{
		"principal":             "1000",
		"max_interest_rate_bps": 1000,
		"duration_secs":         10_000_000_000,
		"collateral":            "1200",
	}))
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body = %s", rec.Code, rec.Body.String())
	}
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !containsFieldMsg(er.Details, "DurationSecs", "less than or equal") {
		t.Errorf("missing DurationSecs detail: %+v", er.Details)
	}
}

func TestRequestLoan_InsufficientCollateral(t *testing.T) {
	e := newEchoWithValidator()
	h, store, _ := newLedger(t)
	store.SeedBalance(tBorrower, account.AssetNative, money.MustParse("2000"))

	rec := doJSON(e, h.RequestLoan, stdhttp.MethodPost, "/loans", tBorrower, mustJSON(map[string]any{
		"principal":             "1000",
		"max_interest_rate_bps": 1000,
		"duration_secs":         2_592_000,
		"collateral":            "1199",
	}))
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRequestLoan_OracleDown(t *testing.T) {
	e := newEchoWithValidator()
	h, store, orc := newLedger(t)
	store.SeedBalance(tBorrower, account.AssetNative, money.MustParse("2000"))
	orc.SetPrice(0)

	rec := doJSON(e, h.RequestLoan, stdhttp.MethodPost, "/loans", tBorrower, mustJSON(map[string]any{
		"principal":             "1000",
		"max_interest_rate_bps": 1000,
		"duration_secs":         2_592_000,
		"collateral":            "1200",
	}))
	if rec.Code != stdhttp.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestFundLoan_Lifecycle(t *testing.T) {
	e := newEchoWithValidator()
	h, store, _ := newLedger(t)
	store.SeedBalance(tBorrower, account.AssetNative, money.MustParse("2000"))
	store.SeedBalance(tLender, account.AssetStable, money.MustParse("5000"))
	requestLoan(t, e, h)

	rec := doJSON(e, h.FundLoan, stdhttp.MethodPost, "/loans/1/fund", tLender, nil, "loan_id", "1")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("fund status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if store.Balance(tBorrower, account.AssetStable).String() != "1000" {
		t.Fatalf("principal not delivered")
	}

	// Funding again conflicts.
	rec = doJSON(e, h.FundLoan, stdhttp.MethodPost, "/loans/1/fund", tLender, nil, "loan_id", "1")
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("second fund status = %d, want 409", rec.Code)
	}

	// Unknown loans are a 404, bad ids a 400.
	rec = doJSON(e, h.FundLoan, stdhttp.MethodPost, "/loans/999/fund", tLender, nil, "loan_id", "999")
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("unknown fund status = %d, want 404", rec.Code)
	}
	rec = doJSON(e, h.FundLoan, stdhttp.MethodPost, "/loans/x/fund", tLender, nil, "loan_id", "x")
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", rec.Code)
	}
}

func TestFundLoan_InsufficientLenderBalance(t *testing.T) {
	e := newEchoWithValidator()
	h, store, _ := newLedger(t)
	store.SeedBalance(tBorrower, account.AssetNative, money.MustParse("2000"))
	requestLoan(t, e, h)

	rec := doJSON(e, h.FundLoan, stdhttp.MethodPost, "/loans/1/fund", tLender, nil, "loan_id", "1")
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRepayLoan_Success(t *testing.T) {
	e := newEchoWithValidator()
	h, store, _ := newLedger(t)
	store.SeedBalance(tBorrower, account.AssetNative, money.MustParse("2000"))
	store.SeedBalance(tLender, account.AssetStable, money.MustParse("5000"))
	requestLoan(t, e, h)
	doJSON(e, h.FundLoan, stdhttp.MethodPost, "/loans/1/fund", tLender, nil, "loan_id", "1")

	rec := doJSON(e, h.RepayLoan, stdhttp.MethodPost, "/loans/1/repay", tBorrower, nil, "loan_id", "1")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("repay status = %d, body = %s", rec.Code, rec.Body.String())
	}
	// Collateral is home again.
	if store.Balance(tBorrower, account.AssetNative).String() != "2000" {
		t.Fatalf("collateral not returned")
	}

	// A second repay conflicts.
	rec = doJSON(e, h.RepayLoan, stdhttp.MethodPost, "/loans/1/repay", tBorrower, nil, "loan_id", "1")
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("second repay status = %d, want 409", rec.Code)
	}
}

func TestLiquidateLoan_NotLiquidatable(t *testing.T) {
	e := newEchoWithValidator()
	h, store, _ := newLedger(t)
	store.SeedBalance(tBorrower, account.AssetNative, money.MustParse("2000"))
	store.SeedBalance(tLender, account.AssetStable, money.MustParse("5000"))
	requestLoan(t, e, h)
	doJSON(e, h.FundLoan, stdhttp.MethodPost, "/loans/1/fund", tLender, nil, "loan_id", "1")

	// Healthy, not overdue.
	rec := doJSON(e, h.LiquidateLoan, stdhttp.MethodPost, "/loans/1/liquidate", tLender, nil, "loan_id", "1")
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("status = %d, want 409, body = %s", rec.Code, rec.Body.String())
	}
}

func TestLiquidateLoan_PriceCrash(t *testing.T) {
	e := newEchoWithValidator()
	h, store, orc := newLedger(t)
	store.SeedBalance(tBorrower, account.AssetNative, money.MustParse("2000"))
	store.SeedBalance(tLender, account.AssetStable, money.MustParse("5000"))
	requestLoan(t, e, h)
	doJSON(e, h.FundLoan, stdhttp.MethodPost, "/loans/1/fund", tLender, nil, "loan_id", "1")

	orc.SetPrice(80_000_000) // $0.80, health 96% < 110%
	rec := doJSON(e, h.LiquidateLoan, stdhttp.MethodPost, "/loans/1/liquidate", tLender, nil, "loan_id", "1")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if store.Balance(tLender, account.AssetNative).String() != "1200" {
		t.Fatalf("collateral not seized")
	}
}

func TestWithdrawRewards_OwnerGate(t *testing.T) {
	e := newEchoWithValidator()
	h, store, _ := newLedger(t)
	store.SeedPool(money.MustParse("75"))
	dest := strings.Repeat("d", 32)

	rec := doJSON(e, h.WithdrawRewards, stdhttp.MethodPost, "/rewards/withdraw", tBorrower, mustJSON(map[string]any{
		"destination": dest,
	}))
	if rec.Code != stdhttp.StatusForbidden {
		t.Fatalf("non-owner status = %d, want 403", rec.Code)
	}

	rec = doJSON(e, h.WithdrawRewards, stdhttp.MethodPost, "/rewards/withdraw", tOwner, mustJSON(map[string]any{
		"destination": dest,
	}))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("owner status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if store.Balance(dest, account.AssetStable).String() != "75" {
		t.Fatalf("pool not delivered to destination")
	}

	// Bad destination fails validation before touching the pool.
	rec = doJSON(e, h.WithdrawRewards, stdhttp.MethodPost, "/rewards/withdraw", tOwner, mustJSON(map[string]any{
		"destination": "UPPER",
	}))
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("bad destination status = %d, want 422", rec.Code)
	}
}

func TestGetLoanViews(t *testing.T) {
	e := newEchoWithValidator()
	h, store, _ := newLedger(t)
	store.SeedBalance(tBorrower, account.AssetNative, money.MustParse("2000"))
	store.SeedBalance(tLender, account.AssetStable, money.MustParse("5000"))
	requestLoan(t, e, h)
	doJSON(e, h.FundLoan, stdhttp.MethodPost, "/loans/1/fund", tLender, nil, "loan_id", "1")

	rec := doJSON(e, h.GetLoan, stdhttp.MethodGet, "/loans/1", "", nil, "loan_id", "1")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("get loan status = %d", rec.Code)
	}
	var dto uc.LoanDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if dto.Status != string(domain.StatusActive) || dto.Lender != tLender {
		t.Fatalf("unexpected dto: %+v", dto)
	}

	rec = doJSON(e, h.GetLoanStatus, stdhttp.MethodGet, "/loans/1/status", "", nil, "loan_id", "1")
	var st uc.StatusDTO
	_ = json.Unmarshal(rec.Body.Bytes(), &st)
	if !st.Active || st.Repaid || st.Defaulted {
		t.Fatalf("status view = %+v, want active", st)
	}

	rec = doJSON(e, h.GetLoanPayment, stdhttp.MethodGet, "/loans/1/payment", "", nil, "loan_id", "1")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("payment status = %d", rec.Code)
	}
	var p uc.PaymentDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if p.Principal.String() != "1000" {
		t.Fatalf("payment principal = %s", p.Principal.String())
	}

	rec = doJSON(e, h.GetLoan, stdhttp.MethodGet, "/loans/404", "", nil, "loan_id", "404")
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("missing loan status = %d, want 404", rec.Code)
	}
}

func TestListEndpoints(t *testing.T) {
	e := newEchoWithValidator()
	h, store, _ := newLedger(t)
	store.SeedBalance(tBorrower, account.AssetNative, money.MustParse("2000"))
	requestLoan(t, e, h)

	rec := doJSON(e, h.ListLoanRequests, stdhttp.MethodGet, "/loans", "", nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var loans []uc.LoanDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &loans); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(loans) != 1 {
		t.Fatalf("open requests = %d, want 1", len(loans))
	}

	rec = doJSON(e, h.ListBorrowerLoans, stdhttp.MethodGet, "/borrowers/"+tBorrower+"/loans", "", nil, "account", tBorrower)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("borrower list status = %d", rec.Code)
	}

	rec = doJSON(e, h.ListLenderLoans, stdhttp.MethodGet, "/lenders/nope/loans", "", nil, "account", "nope")
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("bad account status = %d, want 400", rec.Code)
	}
}

func TestRequiredCollateralAndOwner(t *testing.T) {
	e := newEchoWithValidator()
	h, _, orc := newLedger(t)

	rec := doJSON(e, h.GetRequiredCollateral, stdhttp.MethodGet, "/collateral/required?principal=1000", "", nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if out["required_collateral"] != "1200" {
		t.Fatalf("required = %q, want 1200", out["required_collateral"])
	}

	rec = doJSON(e, h.GetRequiredCollateral, stdhttp.MethodGet, "/collateral/required?principal=abc", "", nil)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("bad principal status = %d, want 400", rec.Code)
	}

	orc.Fail(errors.New("feed down"))
	rec = doJSON(e, h.GetRequiredCollateral, stdhttp.MethodGet, "/collateral/required?principal=1000", "", nil)
	if rec.Code != stdhttp.StatusServiceUnavailable {
		t.Fatalf("oracle-down status = %d, want 503", rec.Code)
	}

	rec = doJSON(e, h.GetOwner, stdhttp.MethodGet, "/owner", "", nil)
	var owner map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &owner)
	if owner["owner"] != tOwner {
		t.Fatalf("owner = %q, want %q", owner["owner"], tOwner)
	}
}

func TestStatsEndpoints(t *testing.T) {
	e := newEchoWithValidator()
	h, store, _ := newLedger(t)
	store.SeedBalance(tBorrower, account.AssetNative, money.MustParse("2000"))
	store.SeedPool(money.MustParse("50"))
	requestLoan(t, e, h)

	rec := doJSON(e, h.GetMarketStats, stdhttp.MethodGet, "/stats/market", "", nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("market stats status = %d", rec.Code)
	}
	var ms uc.MarketStatsDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &ms); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if ms.RequestedLoans != 1 || ms.TotalCollateralLocked.String() != "1200" || ms.RewardPoolBalance.String() != "50" {
		t.Fatalf("unexpected stats: %+v", ms)
	}

	rec = doJSON(e, h.GetUserStats, stdhttp.MethodGet, "/accounts/"+tBorrower+"/stats", "", nil, "account", tBorrower)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("user stats status = %d", rec.Code)
	}
	var us uc.UserStatsDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &us); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if us.LoansBorrowed != 1 || us.CollateralLocked.String() != "1200" {
		t.Fatalf("unexpected user stats: %+v", us)
	}
}
