package v1

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/freeslot/internal/observability"
	serrors "github.com/hrygo/freeslot/server/internal/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    serrors.ErrorCode `json:"code"`
	Message string            `json:"message"`
}

// HTTPErrorHandler renders coded errors as {"code", "message"} with the
// status their code maps to. Echo's own errors keep their status.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		rc := observability.FromContextOr(c.Request().Context(), "http")
		rc.Error("request failed", err, slog.String(observability.LogFieldErrorCode, string(body.Code)))
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		slog.Warn("failed to write error response", "error", writeErr)
	}
}

func errorResponse(err error) (int, ErrorResponse) {
	var se *serrors.SchedulingError
	if errors.As(err, &se) {
		return serrors.HTTPStatus(se.Code), ErrorResponse{Code: se.Code, Message: se.Message}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if inner, ok := he.Message.(*serrors.SchedulingError); ok {
			return he.Code, ErrorResponse{Code: inner.Code, Message: inner.Message}
		}
		return he.Code, ErrorResponse{Code: codeForStatus(he.Code), Message: fmt.Sprint(he.Message)}
	}

	return http.StatusInternalServerError, ErrorResponse{Code: serrors.ErrCodeInternal, Message: "internal error"}
}

func codeForStatus(status int) serrors.ErrorCode {
	switch {
	case status == http.StatusNotFound || status == http.StatusMethodNotAllowed:
		return serrors.ErrCodeNotFound
	case status == http.StatusTooManyRequests:
		return serrors.ErrCodeRateLimitExceeded
	case status == http.StatusGatewayTimeout || status == http.StatusServiceUnavailable:
		return serrors.ErrCodeTimeout
	case status >= 400 && status < 500:
		return serrors.ErrCodeInvalidArgument
	default:
		return serrors.ErrCodeInternal
	}
}
