package middleware

import (
	"errors"

	"denta-link/internal/apperr"
	"denta-link/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

type AppError struct {
	StatusCode int
	Message    string
	Data       any
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewAppError(statusCode int, message string, data any, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Data: data, Cause: cause}
}

type ErrorMiddleware struct {
	logger zerolog.Logger
}

func NewErrorMiddleware(logger zerolog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{logger: logger}
}

func (m *ErrorMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error().Any("panic", r).Str("path", c.OriginalURL()).Msg("panic recovered")
				err = response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError, nil)
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		status, msg, data := m.normalizeError(c, err)
		return response.Error(c, status, msg, data)
	}
}

func (m *ErrorMiddleware) normalizeError(c fiber.Ctx, err error) (int, string, any) {
	var domainErr *apperr.Error
	if errors.As(err, &domainErr) && domainErr != nil {
		status := statusForCode(domainErr.Code)
		if status >= 500 {
			// Full detail stays server-side.
			m.logger.Error().Err(err).Str("path", c.OriginalURL()).Msg("internal error")
			return status, response.MessageInternalServerError, nil
		}
		return status, domainErr.Message, response.ErrorBody{
			Code:    string(domainErr.Code),
			Details: domainErr.Details,
		}
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		status := appErr.StatusCode
		if status <= 0 || status >= 500 {
			m.logger.Error().Err(err).Str("path", c.OriginalURL()).Msg("internal error")
			return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
		}
		msg := appErr.Message
		if msg == "" {
			msg = response.DefaultMessageForStatus(status)
		}
		return status, msg, appErr.Data
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status := fiberErr.Code
		if status <= 0 || status >= 500 {
			m.logger.Error().Err(err).Str("path", c.OriginalURL()).Msg("internal error")
			return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
		}
		msg := fiberErr.Message
		if msg == "" {
			msg = response.DefaultMessageForStatus(status)
		}
		return status, msg, nil
	}

	m.logger.Error().Err(err).Str("path", c.OriginalURL()).Msg("internal error")
	return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
}

func statusForCode(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation,
		apperr.CodeMissingRequiredField,
		apperr.CodeInvalidTransition,
		apperr.CodeWrongJobType,
		apperr.CodeInvalidCounterOffer,
		apperr.CodeNothingToAccept:
		return fiber.StatusBadRequest
	case apperr.CodeNotFound:
		return fiber.StatusNotFound
	case apperr.CodeForbidden:
		return fiber.StatusForbidden
	case apperr.CodeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
