package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dtroode/shopwise-auth/internal/logger"
)

// Logging logs every HTTP request with its status and duration.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// Handle runs the error handler for a failed request before logging, so the
// logged status is the one written to the client.
func (l *Logging) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		l.logger.Debug("HTTP request started",
			"method", req.Method,
			"path", req.URL.Path)

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		l.logger.Info("HTTP request completed",
			"method", req.Method,
			"path", req.URL.Path,
			"route", c.Path(),
			"status", c.Response().Status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_ip", c.RealIP())

		return nil
	}
}
