package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dtroode/shopwise-auth/internal/logger"
	"github.com/dtroode/shopwise-auth/internal/model"
)

var kindStatus = map[model.ErrorKind]int{
	model.KindInvalidIdentity:           http.StatusBadRequest,
	model.KindInvalidInput:              http.StatusBadRequest,
	model.KindCodeExpiredOrMissing:      http.StatusBadRequest,
	model.KindCodeMismatch:              http.StatusBadRequest,
	model.KindInvalidCredentials:        http.StatusUnauthorized,
	model.KindInvalidToken:              http.StatusUnauthorized,
	model.KindNotVerified:               http.StatusForbidden,
	model.KindAccountNotActive:          http.StatusForbidden,
	model.KindNotFound:                  http.StatusNotFound,
	model.KindIdentityAlreadyRegistered: http.StatusConflict,
	model.KindAttemptsExceeded:          http.StatusTooManyRequests,
	model.KindRateLimited:               http.StatusTooManyRequests,
	model.KindDelivery:                  http.StatusBadGateway,
}

const internalMessage = "internal server error"

// StatusOf returns the HTTP status for a service error.
func StatusOf(err error) int {
	if status, ok := kindStatus[model.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NewErrorHandler returns an echo error handler writing the error envelope.
// Infrastructure failures are logged and reported with an opaque message.
func NewErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, detail := describe(err)
		if status >= http.StatusInternalServerError {
			logger.Error("HTTP request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", status,
				"error", err.Error())
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, errorEnvelope{Success: false, Error: detail})
		}
		if writeErr != nil {
			logger.Error("HTTP error response failed", "error", writeErr.Error())
		}
	}
}

func describe(err error) (int, errorDetail) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}
		return he.Code, errorDetail{Code: httpCode(he.Code), Message: message}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, errorDetail{Code: "timeout", Message: "request timed out"}
	}

	var e *model.Error
	if errors.As(err, &e) {
		return StatusOf(err), errorDetail{Code: string(e.Kind), Message: e.Message}
	}

	return http.StatusInternalServerError, errorDetail{
		Code:    string(model.KindInfrastructure),
		Message: internalMessage,
	}
}

func httpCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return string(model.KindNotFound)
	case http.StatusUnauthorized:
		return string(model.KindInvalidToken)
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return string(model.KindInvalidInput)
	case http.StatusBadRequest:
		return string(model.KindInvalidInput)
	case http.StatusServiceUnavailable:
		return "unavailable"
	}
	return string(model.KindInfrastructure)
}
