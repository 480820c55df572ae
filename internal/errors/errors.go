package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/tnb/internal/fiscal"
	"github.com/stwalsh4118/tnb/internal/logger"
	"github.com/stwalsh4118/tnb/internal/middleware"
	"github.com/stwalsh4118/tnb/internal/repository"
	"github.com/stwalsh4118/tnb/internal/services"
	"github.com/stwalsh4118/tnb/internal/workflow"
)

// Error code constants for standardized error responses
const (
	ErrNotFound            = "NOT_FOUND"
	ErrBadRequest          = "BAD_REQUEST"
	ErrInternalServer      = "INTERNAL_SERVER_ERROR"
	ErrValidation          = "VALIDATION_ERROR"
	ErrUnauthorized        = "UNAUTHORIZED"
	ErrConflict            = "CONFLICT"
	ErrConfiguration       = "CONFIGURATION_ERROR"
	ErrIndivision          = "INDIVISION_ERROR"
	ErrForbiddenTransition = "FORBIDDEN_TRANSITION"
)

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// respond logs the failure on the request logger, when there is one, and
// writes the error envelope. Server-side failures are logged at error level
// with err; everything else is a warning.
func respond(c *gin.Context, status int, code, message string, details map[string]interface{}, err error) {
	requestID := middleware.GetRequestID(c)

	if log := middleware.GetLogger(c); log != nil {
		fields := logger.Fields{
			"code":       code,
			"message":    message,
			"request_id": requestID,
			"path":       c.Request.URL.Path,
		}
		if details != nil {
			fields["details"] = details
		}
		if status >= http.StatusInternalServerError {
			fields["method"] = c.Request.Method
			log.Error("Request failed", err, fields)
		} else {
			log.Warn("Request rejected", fields)
		}
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	})
}

// NotFound returns a 404 Not Found error response.
func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, ErrNotFound, message, nil, nil)
}

// BadRequest returns a 400 Bad Request error response with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	respond(c, http.StatusBadRequest, ErrBadRequest, message, details, nil)
}

// Unauthorized returns a 401 response for requests without a caller identity.
func Unauthorized(c *gin.Context, message string) {
	respond(c, http.StatusUnauthorized, ErrUnauthorized, message, nil, nil)
}

// Conflict returns a 409 response when the record changed under the request.
func Conflict(c *gin.Context, message string) {
	respond(c, http.StatusConflict, ErrConflict, message, nil, nil)
}

// InternalServerError returns a 500 Internal Server Error response.
// The error is logged but never exposed to the client.
func InternalServerError(c *gin.Context, message string, err error) {
	respond(c, http.StatusInternalServerError, ErrInternalServer, message, nil, err)
}

// ValidationError returns a 400 Bad Request error response with field-specific validation errors.
// It parses the validation errors from the validator library and formats them for the client.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	details := make(map[string]interface{}, len(validationErrors))
	for _, err := range validationErrors {
		details[err.Field()] = formatValidationError(err)
	}
	respond(c, http.StatusBadRequest, ErrValidation, "Validation failed for one or more fields", details, nil)
}

// FromDomainError maps an error returned by the services to its HTTP response.
// Unknown errors become a generic 500 with fallback as the message.
func FromDomainError(c *gin.Context, err error, fallback string) {
	var (
		indivision    *fiscal.IndivisionError
		invalid       *fiscal.ValidationError
		configuration *fiscal.ConfigurationError
		forbidden     *workflow.ForbiddenTransitionError
	)

	switch {
	case errors.As(err, &indivision):
		respond(c, http.StatusUnprocessableEntity, ErrIndivision,
			"Ownership shares do not add up to the whole parcel", map[string]interface{}{
				"parcel_id": indivision.ParcelID,
				"sum":       indivision.Sum.String(),
				"tolerance": indivision.Tolerance.String(),
				"shares":    indivision.Shares,
			}, nil)

	case errors.As(err, &invalid):
		respond(c, http.StatusBadRequest, ErrValidation, "Parcel data is not valid for computation", map[string]interface{}{
			invalid.Field: invalid.Reason,
		}, nil)

	case errors.As(err, &configuration):
		details := map[string]interface{}{"reason": configuration.Reason}
		if configuration.Zone != "" {
			details["zone"] = configuration.Zone
			details["year"] = configuration.Year
		}
		respond(c, http.StatusInternalServerError, ErrConfiguration,
			"Fiscal configuration is missing or inconsistent", details, err)

	case errors.As(err, &forbidden):
		respond(c, http.StatusForbidden, ErrForbiddenTransition,
			"Operation not allowed in the current workflow state", map[string]interface{}{
				"state":  string(forbidden.State),
				"action": forbidden.Action,
				"role":   string(forbidden.Role),
			}, nil)

	case errors.Is(err, services.ErrParcelNotFound):
		NotFound(c, "Parcel not found")

	case errors.Is(err, repository.ErrParcelVersionConflict):
		Conflict(c, "Parcel was modified by another request, reload and retry")

	default:
		InternalServerError(c, fallback, err)
	}
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short or small (minimum: " + err.Param() + ")"
	case "max":
		return "Value is too long or large (maximum: " + err.Param() + ")"
	case "gt":
		return "Must be greater than " + err.Param()
	case "gte":
		return "Must be greater than or equal to " + err.Param()
	case "lte":
		return "Must be less than or equal to " + err.Param()
	case "oneof":
		return "Must be one of: " + err.Param()
	case "datetime":
		return "Must be a date formatted as " + err.Param()
	default:
		return "Validation failed for tag: " + err.Tag()
	}
}
