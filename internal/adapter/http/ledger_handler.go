package http

import (
	"net/http"

	"lumenvault/internal/usecase/ledger"
	"lumenvault/pkg/money"

	"github.com/labstack/echo/v4"
)

type LedgerHandler struct{ uc *ledger.Usecase }

func NewLedgerHandler(uc *ledger.Usecase) *LedgerHandler { return &LedgerHandler{uc: uc} }

// Register wires every ledger route onto the echo instance. Mutating routes
// sit behind the idempotency middleware installed by the caller.
func (h *LedgerHandler) Register(e *echo.Echo, mutating ...echo.MiddlewareFunc) {
	g := e.Group("", mutating...)
	g.POST("/loans", h.RequestLoan)
	g.POST("/loans/:loan_id/fund", h.FundLoan)
	g.POST("/loans/:loan_id/repay", h.RepayLoan)
	g.POST("/loans/:loan_id/liquidate", h.LiquidateLoan)
	g.POST("/rewards/withdraw", h.WithdrawRewards)

	e.GET("/loans", h.ListLoanRequests)
	e.GET("/loans/:loan_id", h.GetLoan)
	e.GET("/loans/:loan_id/status", h.GetLoanStatus)
	e.GET("/loans/:loan_id/payment", h.GetLoanPayment)
	e.GET("/lenders/:account/loans", h.ListLenderLoans)
	e.GET("/borrowers/:account/loans", h.ListBorrowerLoans)
	e.GET("/collateral/required", h.GetRequiredCollateral)
	e.GET("/owner", h.GetOwner)
	e.GET("/stats/market", h.GetMarketStats)
	e.GET("/accounts/:account/stats", h.GetUserStats)
}

type requestLoanReq struct {
	Principal          string `json:"principal"             validate:"required,bigint_pos"`
	MaxInterestRateBps uint64 `json:"max_interest_rate_bps" validate:"lte=10000"`
	DurationSecs       uint64 `json:"duration_secs"         validate:"required,gt=0,lte=315360000"`
	Collateral         string `json:"collateral"            validate:"required,bigint_pos"`
}

func (h *LedgerHandler) RequestLoan(c echo.Context) error {
	caller, ok := callerAccount(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Account-Id"})
	}
	var req requestLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	principal := money.MustParse(req.Principal)
	collateral := money.MustParse(req.Collateral)

	dto, err := h.uc.RequestLoan(c.Request().Context(), ledger.RequestLoanInput{
		Borrower:           caller,
		Principal:          principal,
		MaxInterestRateBps: req.MaxInterestRateBps,
		DurationSecs:       req.DurationSecs,
		Collateral:         collateral,
	})
	if err != nil {
		return jsonDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LedgerHandler) FundLoan(c echo.Context) error {
	caller, ok := callerAccount(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Account-Id"})
	}
	id, err := parseLoanID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if err := h.uc.FundLoan(c.Request().Context(), id, caller); err != nil {
		return jsonDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": id, "status": "active"})
}

func (h *LedgerHandler) RepayLoan(c echo.Context) error {
	caller, ok := callerAccount(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Account-Id"})
	}
	id, err := parseLoanID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if err := h.uc.RepayLoanWithReward(c.Request().Context(), id, caller); err != nil {
		return jsonDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": id, "status": "repaid"})
}

func (h *LedgerHandler) LiquidateLoan(c echo.Context) error {
	if _, ok := callerAccount(c); !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Account-Id"})
	}
	id, err := parseLoanID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if err := h.uc.LiquidateLoan(c.Request().Context(), id); err != nil {
		return jsonDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": id, "status": "defaulted"})
}

type withdrawRewardsReq struct {
	Destination string `json:"destination" validate:"required,hex32"`
}

func (h *LedgerHandler) WithdrawRewards(c echo.Context) error {
	caller, ok := callerAccount(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Account-Id"})
	}
	var req withdrawRewardsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	drained, err := h.uc.WithdrawRewards(c.Request().Context(), caller, req.Destination)
	if err != nil {
		return jsonDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"destination": req.Destination, "amount": drained})
}

func (h *LedgerHandler) ListLoanRequests(c echo.Context) error {
	out, err := h.uc.GetAllLoanRequests(c.Request().Context())
	if err != nil {
		return jsonDomainError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LedgerHandler) GetLoan(c echo.Context) error {
	id, err := parseLoanID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	dto, err := h.uc.LoansCore(c.Request().Context(), id)
	if err != nil {
		return jsonDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LedgerHandler) GetLoanStatus(c echo.Context) error {
	id, err := parseLoanID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	dto, err := h.uc.LoansStatus(c.Request().Context(), id)
	if err != nil {
		return jsonDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LedgerHandler) GetLoanPayment(c echo.Context) error {
	id, err := parseLoanID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	dto, err := h.uc.GetTotalLoanPayment(c.Request().Context(), id)
	if err != nil {
		return jsonDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LedgerHandler) ListLenderLoans(c echo.Context) error {
	acct := c.Param("account")
	if !reHex32.MatchString(acct) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid account id"})
	}
	out, err := h.uc.GetLenderLoans(c.Request().Context(), acct)
	if err != nil {
		return jsonDomainError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LedgerHandler) ListBorrowerLoans(c echo.Context) error {
	acct := c.Param("account")
	if !reHex32.MatchString(acct) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid account id"})
	}
	out, err := h.uc.GetBorrowerLoans(c.Request().Context(), acct)
	if err != nil {
		return jsonDomainError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LedgerHandler) GetRequiredCollateral(c echo.Context) error {
	principal, err := money.Parse(c.QueryParam("principal"))
	if err != nil || principal.Sign() <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "principal must be a positive integer string"})
	}
	required, err := h.uc.GetRequiredCollateralAmount(c.Request().Context(), principal)
	if err != nil {
		return jsonDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"principal":           principal,
		"required_collateral": required,
	})
}

func (h *LedgerHandler) GetOwner(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"owner": h.uc.Owner()})
}

func (h *LedgerHandler) GetMarketStats(c echo.Context) error {
	out, err := h.uc.MarketStats(c.Request().Context())
	if err != nil {
		return jsonDomainError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LedgerHandler) GetUserStats(c echo.Context) error {
	acct := c.Param("account")
	if !reHex32.MatchString(acct) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid account id"})
	}
	out, err := h.uc.UserStats(c.Request().Context(), acct)
	if err != nil {
		return jsonDomainError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
