// ABOUTME: Maps domain errors onto HTTP status codes and a JSON error body
// ABOUTME: Internal failures never leak their details to the caller
package api

import (
	"errors"
	"net/http"

	"github.com/harper/persona-chat/internal/models"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := s.classify(err)

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		s.logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

func (s *Server) classify(err error) (int, ErrorResponse) {
	var he *echo.HTTPError
	switch {
	case models.IsValidation(err):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Type: "validation_error"}
	case models.IsNotFound(err):
		return http.StatusNotFound, ErrorResponse{Error: "not found", Type: "not_found"}
	case models.IsUnavailable(err):
		s.logger.Warn("dependency unavailable", zap.Error(err))
		return http.StatusServiceUnavailable, ErrorResponse{Error: "service temporarily unavailable", Type: "unavailable"}
	case errors.As(err, &he):
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		return he.Code, ErrorResponse{Error: msg, Type: "http_error"}
	default:
		s.logger.Error("unhandled request error", zap.Error(err))
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Type: "internal_error"}
	}
}
