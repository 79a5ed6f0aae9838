package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	domainLoan "lumenvault/internal/domain/loan"
	"lumenvault/internal/domain/pricing"
	"lumenvault/internal/domain/vault"
	"lumenvault/internal/usecase/ledger"

	"github.com/labstack/echo/v4"
)

// callerAccount pulls the authenticated caller id from the Ax-Account-Id
// header (the surrounding client layer handles wallet auth, see gateway docs).
func callerAccount(c echo.Context) (string, bool) {
	id := strings.TrimSpace(c.Request().Header.Get("Ax-Account-Id"))
	return id, reHex32.MatchString(id)
}

func parseLoanID(c echo.Context) (uint64, error) {
	raw := c.Param("loan_id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("loan_id must be a positive integer")
	}
	return id, nil
}

// domainStatus maps ledger/domain errors onto HTTP codes. Unknown errors are
// a 500; the body never leaks internals for those.
func domainStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domainLoan.ErrNotFound):
		return http.StatusNotFound, "loan not found"
	case errors.Is(err, domainLoan.ErrInvalidTerms):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domainLoan.ErrInsufficientCollateral):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domainLoan.ErrNotRequestable):
		return http.StatusConflict, "loan is not in requested state"
	case errors.Is(err, domainLoan.ErrNotActive):
		return http.StatusConflict, "loan is not active"
	case errors.Is(err, domainLoan.ErrNotLiquidatable):
		return http.StatusConflict, "loan is neither overdue nor undercollateralized"
	case errors.Is(err, vault.ErrAlreadyReleased):
		return http.StatusConflict, "collateral already released"
	case errors.Is(err, pricing.ErrUnavailable):
		return http.StatusServiceUnavailable, "price oracle unavailable"
	case errors.Is(err, ledger.ErrNotOwner):
		return http.StatusForbidden, "caller is not the owner"
	case errors.Is(err, ledger.ErrTransferFailed):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func jsonDomainError(c echo.Context, err error) error {
	code, msg := domainStatus(err)
	return c.JSON(code, ErrorResponse{Error: msg})
}

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
