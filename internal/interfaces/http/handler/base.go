package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	taxapp "github.com/mirumee/avatax-excise/internal/application/tax"
	"github.com/mirumee/avatax-excise/internal/domain/tax"
	"github.com/mirumee/avatax-excise/internal/infrastructure/worker"
	"github.com/mirumee/avatax-excise/internal/interfaces/http/dto"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "X-Request-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader(RequestIDKey); id != "" {
		return id
	}
	return ""
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	requestID := getRequestID(c)
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		requestID,
		details,
	))
}

// taxErrorCode maps a tax pipeline error to its API error code.
// Unknown errors map to ErrCodeInternal.
func taxErrorCode(err error) string {
	switch {
	case errors.Is(err, tax.ErrShippingAddressRequired):
		return dto.ErrCodeShippingAddressRequired
	case errors.Is(err, tax.ErrNoTaxableLines):
		return dto.ErrCodeNoTaxableLines
	case errors.Is(err, tax.ErrAddressUnmappable):
		return dto.ErrCodeAddressUnmappable
	case errors.Is(err, tax.ErrAuthFailed):
		return dto.ErrCodeTaxServiceAuth
	case errors.Is(err, tax.ErrInvalidResponse):
		return dto.ErrCodeTaxServiceResponse
	case errors.Is(err, tax.ErrServiceUnavailable):
		return dto.ErrCodeTaxServiceUnavailable
	case errors.Is(err, tax.ErrRequestFailed):
		return dto.ErrCodeTransactionFailed
	case errors.Is(err, tax.ErrTransactionNotFound):
		return dto.ErrCodeNotFound
	case errors.Is(err, taxapp.ErrRecentCalculationFailure):
		return dto.ErrCodeCalculationCooldown
	case errors.Is(err, worker.ErrQueueFull):
		return dto.ErrCodeSubmissionQueueFull
	default:
		return dto.ErrCodeInternal
	}
}

// HandleTaxError converts tax pipeline errors to HTTP responses
func (h *BaseHandler) HandleTaxError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code := taxErrorCode(err)
	message := err.Error()
	if code == dto.ErrCodeInternal {
		message = "An unexpected error occurred"
	}
	h.ErrorWithCode(c, code, message)
}
