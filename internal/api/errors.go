package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hf-risk-server/internal/domain"
	"github.com/hf-risk-server/internal/history"
	"github.com/hf-risk-server/internal/middleware"
	"github.com/hf-risk-server/internal/service"
)

// abortWithError maps an error onto an APIError response
func (s *Server) abortWithError(c *gin.Context, err error) {
	requestID := c.GetString(middleware.CorrelationIDKey)

	var (
		verrs  domain.ValidationErrors
		verr   *domain.ValidationError
		cfgErr *domain.ConfigurationError
	)

	var (
		status int
		apiErr *domain.APIError
	)
	switch {
	case errors.As(err, &verrs):
		status = http.StatusBadRequest
		apiErr = domain.NewAPIError(domain.ErrValidation, "Patient profile is invalid", verrs.Error(), requestID)
		apiErr.Fields = verrs
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		apiErr = domain.NewAPIError(domain.ErrValidation, "Patient profile is invalid", verr.Error(), requestID)
		apiErr.Fields = []domain.ValidationError{*verr}
	case errors.As(err, &cfgErr):
		status = http.StatusInternalServerError
		apiErr = domain.NewAPIError(domain.ErrConfiguration, "Scoring model is misconfigured", cfgErr.Error(), requestID)
	case errors.Is(err, history.ErrNotFound):
		status = http.StatusNotFound
		apiErr = domain.NewAPIError(domain.ErrNotFound, "Assessment not found", "", requestID)
	case errors.Is(err, service.ErrHistoryDisabled):
		status = http.StatusNotFound
		apiErr = domain.NewAPIError(domain.ErrNotFound, "Assessment history is disabled", "", requestID)
	case errors.Is(err, history.ErrInvalidExport):
		status = http.StatusBadRequest
		apiErr = domain.NewAPIError(domain.ErrInvalidInput, "Import document is invalid", err.Error(), requestID)
	case errors.Is(err, service.ErrStorage):
		status = http.StatusInternalServerError
		apiErr = domain.NewAPIError(domain.ErrStorage, "Assessment storage failed", "", requestID)
	default:
		status = http.StatusInternalServerError
		apiErr = domain.NewAPIError(domain.ErrInternalServer, "Internal server error", "", requestID)
	}

	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("correlation_id", requestID).Error("Request failed")
	}
	c.AbortWithStatusJSON(status, apiErr)
}

func (s *Server) abortInvalidInput(c *gin.Context, message string, err error) {
	details := ""
	if err != nil {
		details = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, domain.NewAPIError(
		domain.ErrInvalidInput, message, details, c.GetString(middleware.CorrelationIDKey)))
}
