package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/stripesync/binder"
	"github.com/dmitrymomot/stripesync/pkg/logger"
	"github.com/dmitrymomot/stripesync/pkg/requestid"
	"github.com/dmitrymomot/stripesync/pkg/validator"
)

// ErrorInfo contains classified error information
type ErrorInfo struct {
	StatusCode int
	Message    string
	Details    map[string][]string
	LogLevel   slog.Level
}

func isClientError(statusCode int) bool {
	return statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError
}

// ClassifyError maps an error to a status code and a client-safe message.
func ClassifyError(err error) ErrorInfo {
	info := ErrorInfo{
		StatusCode: ErrInternalServerError.Code,
		Message:    ErrInternalServerError.Message,
	}

	var httpErr HTTPError
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &httpErr):
		info.StatusCode = httpErr.Code
		info.Message = httpErr.Message
	case errors.As(err, &verrs):
		info.StatusCode = http.StatusBadRequest
		info.Message = "Validation failed"
		info.Details = verrs.Map()
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		info.StatusCode = ErrUnsupportedMedia.Code
		info.Message = ErrUnsupportedMedia.Message
	case errors.Is(err, binder.ErrInvalidJSON), errors.Is(err, binder.ErrInvalidQuery):
		info.StatusCode = http.StatusBadRequest
		info.Message = "Invalid request"
	}

	info.LogLevel = slog.LevelError
	if isClientError(info.StatusCode) {
		info.LogLevel = slog.LevelWarn
	}
	return info
}

// NewErrorHandler returns an error handler that logs the error with the
// request id and writes the classified JSON error body.
func NewErrorHandler(log *slog.Logger) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		info := ClassifyError(err)

		log.LogAttrs(r.Context(), info.LogLevel, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", info.StatusCode),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		_ = JSONError(err).Render(ctx.ResponseWriter(), r)
	}
}
