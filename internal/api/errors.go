package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusFor maps an engine error to an HTTP status.
func StatusFor(err error) int {
	switch domain.CodeOf(err) {
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeNoDraft, domain.ErrCodeAlreadyUnlocked:
		return http.StatusConflict
	case domain.ErrCodeUnsubmittedDependency:
		return http.StatusUnprocessableEntity
	case domain.ErrCodeInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		_ = c.JSON(he.Code, ErrorResponse{Code: "HTTP_ERROR", Message: msg})
		return
	}

	status := StatusFor(err)
	code := string(domain.CodeOf(err))
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Ctx(c.Request().Context()).Error().Err(err).Msg("request failed")
		if code == "" {
			code = "INTERNAL"
			msg = "internal error"
		}
	}
	_ = c.JSON(status, ErrorResponse{Code: code, Message: msg})
}

// bind decodes and validates a request body. Malformed JSON is an
// INVALID_ARGUMENT.
func bind(c echo.Context, dest any) error {
	if err := c.Bind(dest); err != nil {
		return domain.NewInvalidArgumentError("malformed request body")
	}
	return c.Validate(dest)
}
