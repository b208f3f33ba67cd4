package http

import (
	"context"
	"net/http"
	"time"

	"nftloan-backend/internal/adapter/middleware"
	domain "nftloan-backend/internal/domain/order"
	uc "nftloan-backend/internal/usecase/order"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type OrderHandler struct{ engine *uc.Engine }

func NewOrderHandler(engine *uc.Engine) *OrderHandler { return &OrderHandler{engine: engine} }

type createOrderReq struct {
	CollateralAsset string          `json:"collateral_asset" validate:"required,assetid"`
	RequestedAmount decimal.Decimal `json:"requested_amount" validate:"dpos,dscale,dmax"`
	InterestAmount  decimal.Decimal `json:"interest_amount"  validate:"dgte0,dscale,dmax"`
	// 0 selects the configured default maturity
	MaturitySeconds int64 `json:"maturity_seconds" validate:"gte=0,lte=31536000"`
}

type listOrdersReq struct {
	Borrower string `query:"borrower" validate:"omitempty,holder"`
	Lender   string `query:"lender"   validate:"omitempty,holder"`
	Status   string `query:"status"   validate:"omitempty,oneof=new canceled funded repaid liquidated"`
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.engine.Create(c.Request().Context(), uc.CreateOrderInput{
		Caller:          middleware.CallerFrom(c),
		CollateralAsset: req.CollateralAsset,
		RequestedAmount: req.RequestedAmount,
		InterestAmount:  req.InterestAmount,
		Maturity:        time.Duration(req.MaturitySeconds) * time.Second,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	var req listOrdersReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	out, err := h.engine.List(c.Request().Context(), uc.ListFilter{
		Borrower: req.Borrower,
		Lender:   req.Lender,
		Status:   domain.Status(req.Status),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, ok := parseOrderID(c)
	if !ok {
		return badOrderID(c)
	}
	dto, err := h.engine.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	return h.transition(c, h.engine.Cancel)
}

func (h *OrderHandler) FundOrder(c echo.Context) error {
	return h.transition(c, h.engine.Fund)
}

func (h *OrderHandler) RepayOrder(c echo.Context) error {
	return h.transition(c, h.engine.Repay)
}

func (h *OrderHandler) LiquidateOrder(c echo.Context) error {
	return h.transition(c, h.engine.Liquidate)
}

type transitionFn func(ctx context.Context, caller string, orderID uint64) (*uc.OrderDTO, error)

func (h *OrderHandler) transition(c echo.Context, fn transitionFn) error {
	id, ok := parseOrderID(c)
	if !ok {
		return badOrderID(c)
	}
	dto, err := fn(c.Request().Context(), middleware.CallerFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
