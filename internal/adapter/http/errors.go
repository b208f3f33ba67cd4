package http

import (
	"errors"
	"net/http"

	"nftloan-backend/internal/domain/ledger"
	"nftloan-backend/internal/domain/order"

	"github.com/labstack/echo/v4"
)

// statusFor maps domain errors to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, ledger.ErrAssetNotFound),
		errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, order.ErrPreconditionFailed):
		return http.StatusPreconditionFailed
	case errors.Is(err, order.ErrConflict), errors.Is(err, ledger.ErrAssetExists):
		return http.StatusConflict
	case errors.Is(err, order.ErrTransferFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, order.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		// internals stay in the logs
		c.Logger().Error(err)
		return c.JSON(code, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Details: ToFieldErrors(err),
	})
}
