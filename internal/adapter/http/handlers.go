package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Handler struct {
	checks map[string]Pinger
}

// NewHandler takes named dependency checks reported by Health.
func NewHandler(checks map[string]Pinger) *Handler { return &Handler{checks: checks} }

func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	code, status := http.StatusOK, "ok"
	results := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			results[name] = err.Error()
			code, status = http.StatusServiceUnavailable, "degraded"
			continue
		}
		results[name] = "ok"
	}
	return c.JSON(code, map[string]any{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
		"checks": results,
	})
}
