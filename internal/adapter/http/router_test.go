package http

import (
	"bytes"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"nftloan-backend/internal/adapter/ledger"
	"nftloan-backend/internal/adapter/middleware"
	"nftloan-backend/internal/adapter/repository/gormstore"
	"nftloan-backend/internal/usecase/custody"
	uc "nftloan-backend/internal/usecase/order"
	"nftloan-backend/pkg/id"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type api struct {
	e          *echo.Echo
	now        time.Time
	adminToken string
}

const testAdminToken = "router-test-admin-token"

func newAPI(t *testing.T) *api {
	t.Helper()
	return newAPIWithAdmin(t, testAdminToken)
}

func newAPIWithAdmin(t *testing.T, adminToken string) *api {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, gormstore.AutoMigrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	a := &api{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), adminToken: adminToken}
	tx := gormstore.NewGormUoW(db)
	acc := ledger.NewAccessor(gormstore.NewOrderRepository(db), tx, zap.NewNop())
	engine := uc.NewEngine(uc.NewRepository(acc, nil, nil), nil, nil, nil, uc.Options{
		Clock: func() time.Time { return a.now },
	})

	a.e = NewRouter(RouterDeps{
		Health:         NewHandler(map[string]Pinger{"db": PingFunc(sqlDB.PingContext)}),
		Orders:         NewOrderHandler(engine),
		Custody:        NewCustodyHandler(custody.NewUsecase(tx)),
		Redis:          rdb,
		IdempotencyTTL: time.Minute,
		Gatherer:       prometheus.NewRegistry(),
		Log:            zap.NewNop(),
		AdminToken:     adminToken,
	})
	return a
}

func (a *api) do(t *testing.T, method, path, caller string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return a.doWithID(t, method, path, caller, id.NewID32(), body)
}

func (a *api) doWithID(t *testing.T, method, path, caller, reqID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return a.send(t, method, path, reqID, body, map[string]string{middleware.HeaderCallerID: caller})
}

// admin calls a custody write route with the configured admin token.
func (a *api) admin(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return a.send(t, method, path, id.NewID32(), body, map[string]string{middleware.HeaderAdminToken: a.adminToken})
}

func (a *api) send(t *testing.T, method, path, reqID string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(middleware.HeaderRequestID, reqID)
	req.Header.Set(middleware.HeaderRequestAt, time.Now().UTC().Format(time.RFC3339))
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decodeOrder(t *testing.T, rec *httptest.ResponseRecorder) uc.OrderDTO {
	t.Helper()
	var dto uc.OrderDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto), rec.Body.String())
	return dto
}

func (a *api) balance(t *testing.T, holder string) decimal.Decimal {
	t.Helper()
	rec := a.do(t, stdhttp.MethodGet, "/accounts/"+holder, "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	var dto custody.AccountDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	return dto.Balance
}

const (
	alice = "alice"
	bob   = "bob"
	eve   = "eve"
)

// seed registers nft-1 to alice, funds bob with 1000 and alice with 10.
func (a *api) seed(t *testing.T) {
	t.Helper()
	rec := a.admin(t, stdhttp.MethodPost, "/assets", map[string]string{"asset_id": "nft-1", "holder": alice})
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	rec = a.admin(t, stdhttp.MethodPost, "/accounts/"+bob+"/deposits", map[string]string{"amount": "1000"})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	rec = a.admin(t, stdhttp.MethodPost, "/accounts/"+alice+"/deposits", map[string]string{"amount": "10"})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
}

func (a *api) createOrder(t *testing.T) uc.OrderDTO {
	t.Helper()
	rec := a.do(t, stdhttp.MethodPost, "/orders", alice, map[string]any{
		"collateral_asset": "nft-1",
		"requested_amount": "100",
		"interest_amount":  "5",
		"maturity_seconds": 3600,
	})
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	dto := decodeOrder(t, rec)
	require.Equal(t, "new", dto.Status)
	return dto
}

func orderPath(o uc.OrderDTO, action string) string {
	p := "/orders/" + strconv.FormatUint(o.OrderID, 10)
	if action != "" {
		p += "/" + action
	}
	return p
}

func TestRouter_FundThenRepay(t *testing.T) {
	a := newAPI(t)
	a.seed(t)
	o := a.createOrder(t)

	rec := a.do(t, stdhttp.MethodPost, orderPath(o, "fund"), bob, nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	funded := decodeOrder(t, rec)
	assert.Equal(t, "funded", funded.Status)
	assert.Equal(t, bob, funded.Lender)
	assert.Equal(t, a.now.Unix()+3600, funded.MaturesAt)
	assert.True(t, a.balance(t, alice).Equal(decimal.NewFromInt(110)))
	assert.True(t, a.balance(t, bob).Equal(decimal.NewFromInt(900)))

	rec = a.do(t, stdhttp.MethodGet, "/assets/nft-1", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"in_escrow":true`)

	rec = a.do(t, stdhttp.MethodPost, orderPath(o, "repay"), alice, nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "repaid", decodeOrder(t, rec).Status)
	assert.True(t, a.balance(t, alice).Equal(decimal.NewFromInt(5)))
	assert.True(t, a.balance(t, bob).Equal(decimal.NewFromInt(1005)))

	rec = a.do(t, stdhttp.MethodGet, "/assets/nft-1", "", nil)
	assert.Contains(t, rec.Body.String(), `"holder":"alice"`)
}

func TestRouter_LiquidateAfterMaturity(t *testing.T) {
	a := newAPI(t)
	a.seed(t)
	o := a.createOrder(t)
	require.Equal(t, stdhttp.StatusOK, a.do(t, stdhttp.MethodPost, orderPath(o, "fund"), bob, nil).Code)

	rec := a.do(t, stdhttp.MethodPost, orderPath(o, "liquidate"), bob, nil)
	assert.Equal(t, stdhttp.StatusPreconditionFailed, rec.Code, "liquidation before maturity")

	a.now = a.now.Add(time.Hour)
	rec = a.do(t, stdhttp.MethodPost, orderPath(o, "liquidate"), eve, nil)
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code, "only the lender liquidates")

	rec = a.do(t, stdhttp.MethodPost, orderPath(o, "liquidate"), bob, nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "liquidated", decodeOrder(t, rec).Status)

	rec = a.do(t, stdhttp.MethodGet, "/assets/nft-1", "", nil)
	assert.Contains(t, rec.Body.String(), `"holder":"bob"`)
}

func TestRouter_ErrorMapping(t *testing.T) {
	a := newAPI(t)
	a.seed(t)
	o := a.createOrder(t)

	tests := []struct {
		name         string
		method, path string
		caller       string
		body         any
		want         int
	}{
		{"unknown order", stdhttp.MethodGet, "/orders/999", "", nil, stdhttp.StatusNotFound},
		{"bad order id", stdhttp.MethodGet, "/orders/abc", "", nil, stdhttp.StatusBadRequest},
		{"missing caller", stdhttp.MethodPost, orderPath(o, "cancel"), "", nil, stdhttp.StatusUnauthorized},
		{"stranger cancels", stdhttp.MethodPost, orderPath(o, "cancel"), eve, nil, stdhttp.StatusForbidden},
		{"self funding", stdhttp.MethodPost, orderPath(o, "fund"), alice, nil, stdhttp.StatusPreconditionFailed},
		{"repay unfunded", stdhttp.MethodPost, orderPath(o, "repay"), alice, nil, stdhttp.StatusPreconditionFailed},
		{"lender cannot pay", stdhttp.MethodPost, orderPath(o, "fund"), eve, nil, stdhttp.StatusUnprocessableEntity},
		{"double pledge", stdhttp.MethodPost, "/orders", alice, map[string]any{
			"collateral_asset": "nft-1", "requested_amount": "1", "interest_amount": "0",
		}, stdhttp.StatusPreconditionFailed},
		{"invalid amounts", stdhttp.MethodPost, "/orders", alice, map[string]any{
			"collateral_asset": "nft-1", "requested_amount": "0", "interest_amount": "-1",
		}, stdhttp.StatusUnprocessableEntity},
		{"amount too large", stdhttp.MethodPost, "/orders", alice, map[string]any{
			"collateral_asset": "nft-1", "requested_amount": "1000000000", "interest_amount": "0",
		}, stdhttp.StatusUnprocessableEntity},
		{"deposit without admin token", stdhttp.MethodPost, "/accounts/" + eve + "/deposits", eve, map[string]string{
			"amount": "1000",
		}, stdhttp.StatusUnauthorized},
		{"asset without admin token", stdhttp.MethodPost, "/assets", eve, map[string]string{
			"asset_id": "nft-9", "holder": eve,
		}, stdhttp.StatusUnauthorized},
		{"unknown asset", stdhttp.MethodGet, "/assets/nope", "", nil, stdhttp.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, tt.method, tt.path, tt.caller, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	// order untouched by every failure above
	rec := a.do(t, stdhttp.MethodGet, orderPath(o, ""), "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	got := decodeOrder(t, rec)
	assert.Equal(t, "new", got.Status)
	assert.Equal(t, o.Version, got.Version)
}

func TestRouter_RetriedFundIsReplayed(t *testing.T) {
	a := newAPI(t)
	a.seed(t)
	o := a.createOrder(t)

	reqID := id.NewID32()
	first := a.doWithID(t, stdhttp.MethodPost, orderPath(o, "fund"), bob, reqID, nil)
	require.Equal(t, stdhttp.StatusOK, first.Code, first.Body.String())
	second := a.doWithID(t, stdhttp.MethodPost, orderPath(o, "fund"), bob, reqID, nil)
	require.Equal(t, stdhttp.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	// funds moved once
	assert.True(t, a.balance(t, bob).Equal(decimal.NewFromInt(900)))
}

func TestRouter_ListOrdersFilters(t *testing.T) {
	a := newAPI(t)
	a.seed(t)
	o := a.createOrder(t)
	require.Equal(t, stdhttp.StatusOK, a.do(t, stdhttp.MethodPost, orderPath(o, "cancel"), alice, nil).Code)

	rec := a.admin(t, stdhttp.MethodPost, "/assets", map[string]string{"asset_id": "nft-2", "holder": alice})
	require.Equal(t, stdhttp.StatusCreated, rec.Code)
	rec = a.do(t, stdhttp.MethodPost, "/orders", alice, map[string]any{
		"collateral_asset": "nft-2", "requested_amount": "50", "interest_amount": "1",
	})
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())

	var all []uc.OrderDTO
	rec = a.do(t, stdhttp.MethodGet, "/orders?borrower=alice", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	var open []uc.OrderDTO
	rec = a.do(t, stdhttp.MethodGet, "/orders?status=new", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &open))
	require.Len(t, open, 1)
	assert.Equal(t, "nft-2", open[0].CollateralAsset)

	rec = a.do(t, stdhttp.MethodGet, "/orders?status=approved", "", nil)
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, stdhttp.MethodGet, "/health", "", nil)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	rec = a.do(t, stdhttp.MethodGet, "/metrics", "", nil)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
}

func TestRouter_CustodyWritesWithAdminToken(t *testing.T) {
	a := newAPI(t)
	a.seed(t)

	rec := a.admin(t, stdhttp.MethodPost, "/assets", map[string]string{"asset_id": "nft-1", "holder": bob})
	assert.Equal(t, stdhttp.StatusConflict, rec.Code, "asset registered twice")

	rec = a.admin(t, stdhttp.MethodPost, "/accounts/"+eve+"/deposits", map[string]string{"amount": "1000000000"})
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code, "deposit above the amount bound")

	rec = a.admin(t, stdhttp.MethodPost, "/accounts/"+eve+"/deposits", map[string]string{"amount": "999999999.999999"})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, a.balance(t, eve).Equal(decimal.RequireFromString("999999999.999999")))
}

func TestRouter_CustodyWritesDisabledWithoutAdminToken(t *testing.T) {
	a := newAPIWithAdmin(t, "")

	rec := a.admin(t, stdhttp.MethodPost, "/assets", map[string]string{"asset_id": "nft-1", "holder": alice})
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	rec = a.admin(t, stdhttp.MethodPost, "/accounts/"+alice+"/deposits", map[string]string{"amount": "10"})
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)

	// reads stay public
	assert.True(t, a.balance(t, alice).IsZero())
}
