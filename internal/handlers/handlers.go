// Package handlers provides HTTP request handlers for the API endpoints.
// It defines the routing logic, response formatting, and error handling mechanisms.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/schemascope/core/internal/datasource"
	"github.com/schemascope/core/internal/engine"
	"github.com/schemascope/core/internal/models"
	"github.com/schemascope/core/internal/progress"
	"github.com/schemascope/core/internal/session"
)

// ConnectionService is the part of the onboarding client the console proxies.
type ConnectionService interface {
	ListConnections(ctx context.Context) ([]models.Connection, error)
	TestConnection(ctx context.Context, id string) (models.ConnectionTestResult, error)
	DeleteConnection(ctx context.Context, id string) error
}

type Handlers struct {
	sessions      *session.Manager
	tracker       *progress.Tracker
	connections   ConnectionService
	allowedOrigin string
	logger        *slog.Logger
}

type Options struct {
	Sessions      *session.Manager
	Tracker       *progress.Tracker
	Connections   ConnectionService
	AllowedOrigin string
	Logger        *slog.Logger
}

func New(opts Options) *Handlers {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origin := opts.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	return &Handlers{
		sessions:      opts.Sessions,
		tracker:       opts.Tracker,
		connections:   opts.Connections,
		allowedOrigin: origin,
		logger:        logger.With("component", "handlers"),
	}
}

// ErrorDetail is the data of a failed envelope.
type ErrorDetail struct {
	Retryable bool `json:"retryable"`
}

func ok[T any](c *gin.Context, status int, data T, message string) {
	c.JSON(status, models.OK(data, message))
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, failure(message, "INVALID_REQUEST", false))
}

func failure(message, code string, retryable bool) models.Envelope[any] {
	env := models.Fail(message, code)
	env.Data = ErrorDetail{Retryable: retryable}
	return env
}

// fail maps err onto a status and an error envelope.
func (h *Handlers) fail(c *gin.Context, err error) {
	status, code, retryable := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	} else {
		h.logger.Debug("request rejected", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, failure(err.Error(), code, retryable))
}

func classify(err error) (status int, code string, retryable bool) {
	var apiErr *models.APIError
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND", false
	case errors.Is(err, progress.ErrNoRun):
		return http.StatusNotFound, "NO_DISCOVERY_RUN", false
	case errors.Is(err, datasource.ErrNoData):
		return http.StatusNotFound, "NO_DATA", false
	case errors.Is(err, progress.ErrRunning):
		return http.StatusConflict, "DISCOVERY_RUNNING", false
	case errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict, "SUPERSEDED", true
	case errors.Is(err, session.ErrClosed):
		return http.StatusGone, "SESSION_CLOSED", false
	case errors.Is(err, engine.ErrUnsupportedFormat):
		return http.StatusBadRequest, "UNSUPPORTED_FORMAT", false
	case errors.Is(err, session.ErrExport):
		return http.StatusConflict, "EXPORT_UNAVAILABLE", true
	case errors.Is(err, session.ErrNoSource):
		return http.StatusServiceUnavailable, "NO_SOURCE", false
	case errors.As(err, &apiErr):
		code = apiErr.ErrorCode
		if code == "" {
			code = "UPSTREAM_ERROR"
		}
		if apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError {
			return apiErr.Status, code, false
		}
		return http.StatusBadGateway, code, true
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT", true
	default:
		return http.StatusBadGateway, "UPSTREAM_ERROR", true
	}
}
