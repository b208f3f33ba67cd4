package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

func parseOrderID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("order_id"), 10, 64)
	return id, err == nil && id != 0
}

func badOrderID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "order_id must be a positive integer"})
}
