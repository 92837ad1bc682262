package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

// HTTPObserver registra duración y status de cada petición (implementado por metrics.Metrics).
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// RequestLogger escribe una línea por petición; los 5xx salen en nivel error.
func RequestLogger(log *logger.Logger) fiber.Handler {
	log = log.Component("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		ev := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error().Err(err)
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Str("user_id", GetUserID(c)).
			Msg("petición")
		return err
	}
}

// RequestMetrics alimenta el observador usando la ruta registrada (no la URL) como etiqueta.
func RequestMetrics(obs HTTPObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		obs.ObserveHTTP(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
