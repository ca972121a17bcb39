package server

import (
	"net/http"

	"storefront/internal/metrics"

	"github.com/labstack/echo/v4"
)

func registerRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", healthz(d))
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(d.Gatherer)))
	}

	d.Auth.RegisterRoutes(e, d.AuthMW)
	d.Cart.RegisterRoutes(e, d.AuthMW)
	d.Order.RegisterRoutes(e, d.AuthMW)
	d.AdminOrder.RegisterRoutes(e, d.AuthMW)
	d.Checkout.RegisterRoutes(e, d.AuthMW)
	d.Webhook.RegisterRoutes(e)
}

func healthz(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		if d.HealthCheck != nil {
			if err := d.HealthCheck(c.Request().Context()); err != nil {
				d.Logger.WarnContext(c.Request().Context(), "health check failed", "err", err)
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
