package http

import (
	"time"

	"nftloan-backend/internal/adapter/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Health  *Handler
	Orders  *OrderHandler
	Custody *CustodyHandler

	Redis          redis.Cmdable
	IdempotencyTTL time.Duration
	Gatherer       prometheus.Gatherer
	Log            *zap.Logger

	// AdminToken gates the custody write routes; empty leaves them unregistered.
	AdminToken string
}

func NewRouter(d RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Log))

	e.GET("/health", d.Health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	idemp := middleware.Idempotency(d.Redis, d.IdempotencyTTL, d.Log)
	caller := middleware.RequireCaller()

	e.GET("/orders", d.Orders.ListOrders)
	e.GET("/orders/:order_id", d.Orders.GetOrder)
	e.POST("/orders", d.Orders.CreateOrder, caller, idemp)
	e.POST("/orders/:order_id/cancel", d.Orders.CancelOrder, caller, idemp)
	e.POST("/orders/:order_id/fund", d.Orders.FundOrder, caller, idemp)
	e.POST("/orders/:order_id/repay", d.Orders.RepayOrder, caller, idemp)
	e.POST("/orders/:order_id/liquidate", d.Orders.LiquidateOrder, caller, idemp)

	e.GET("/accounts/:holder", d.Custody.GetAccount)
	e.GET("/assets/:asset_id", d.Custody.GetAsset)
	if d.AdminToken != "" {
		admin := middleware.RequireAdmin(d.AdminToken)
		e.POST("/accounts/:holder/deposits", d.Custody.Deposit, admin, idemp)
		e.POST("/assets", d.Custody.RegisterAsset, admin, idemp)
	}

	return e
}
