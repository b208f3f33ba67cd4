package http

import (
	"net/http"

	"nftloan-backend/internal/usecase/custody"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// CustodyHandler exposes ledger seeding and inspection.
type CustodyHandler struct{ uc *custody.Usecase }

func NewCustodyHandler(uc *custody.Usecase) *CustodyHandler { return &CustodyHandler{uc: uc} }

type depositReq struct {
	Holder string          `param:"holder" validate:"required,holder"`
	Amount decimal.Decimal `json:"amount"  validate:"dpos,dscale,dmax"`
}

type registerAssetReq struct {
	AssetID string `json:"asset_id" validate:"required,assetid"`
	Holder  string `json:"holder"   validate:"required,holder"`
}

func (h *CustodyHandler) Deposit(c echo.Context) error {
	var req depositReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.Deposit(c.Request().Context(), req.Holder, req.Amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *CustodyHandler) GetAccount(c echo.Context) error {
	dto, err := h.uc.Account(c.Request().Context(), c.Param("holder"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *CustodyHandler) RegisterAsset(c echo.Context) error {
	var req registerAssetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.RegisterAsset(c.Request().Context(), req.AssetID, req.Holder)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *CustodyHandler) GetAsset(c echo.Context) error {
	dto, err := h.uc.Asset(c.Request().Context(), c.Param("asset_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
