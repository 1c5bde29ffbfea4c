package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/meterscan/internal/imagestore"
	measuredomain "github.com/smallbiznis/meterscan/internal/measure/domain"
)

// errorResponse is the wire shape of every recognized failure.
type errorResponse struct {
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

// apiError is a fully resolved wire error for cases where the handler
// owns the mapping (route-specific codes, bind failures).
type apiError struct {
	status      int
	code        string
	description string
}

func (e *apiError) Error() string { return e.code }

var (
	// ErrRateLimited is returned when the upload limiter denies a customer.
	ErrRateLimited = errors.New("rate_limited")

	errInvalidBody = &apiError{http.StatusBadRequest, "INVALID_DATA", "request body is not valid JSON"}

	// On /upload an invalid type is reported under the generic
	// INVALID_DATA code; INVALID_TYPE is reserved for the list filter.
	errTypeNotAllowed = &apiError{http.StatusBadRequest, "INVALID_DATA", "measure_type must be WATER or GAS"}
)

// ErrorHandlingMiddleware maps errors attached to the context into the
// structured error body. Unrecognized failures become a generic 500;
// internal error objects are never serialized to the client.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, payload)
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorResponse) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.status, errorResponse{
			ErrorCode:        apiErr.code,
			ErrorDescription: apiErr.description,
		}
	}

	switch {
	case errors.Is(err, measuredomain.ErrMissingFields):
		return http.StatusBadRequest, errorResponse{
			ErrorCode:        "INVALID_DATA",
			ErrorDescription: "required fields are missing",
		}
	case errors.Is(err, measuredomain.ErrInvalidType):
		return http.StatusBadRequest, errorResponse{
			ErrorCode:        "INVALID_TYPE",
			ErrorDescription: "measure type not allowed",
		}
	case errors.Is(err, measuredomain.ErrInvalidDatetime):
		return http.StatusBadRequest, errorResponse{
			ErrorCode:        "INVALID_DATA",
			ErrorDescription: "measure_datetime must be a valid date",
		}
	case errors.Is(err, measuredomain.ErrInvalidImage):
		return http.StatusBadRequest, errorResponse{
			ErrorCode:        "INVALID_DATA",
			ErrorDescription: "image must be a valid base64 string",
		}
	case errors.Is(err, measuredomain.ErrInvalidValue):
		return http.StatusBadRequest, errorResponse{
			ErrorCode:        "INVALID_DATA",
			ErrorDescription: "confirmed_value must be a valid integer",
		}
	case errors.Is(err, measuredomain.ErrDoubleReport):
		return http.StatusConflict, errorResponse{
			ErrorCode:        "DOUBLE_REPORT",
			ErrorDescription: "a reading for this month already exists",
		}
	case errors.Is(err, measuredomain.ErrMeasureNotFound):
		return http.StatusNotFound, errorResponse{
			ErrorCode:        "MEASURE_NOT_FOUND",
			ErrorDescription: "reading not found",
		}
	case errors.Is(err, measuredomain.ErrConfirmationDuplicate):
		return http.StatusConflict, errorResponse{
			ErrorCode:        "CONFIRMATION_DUPLICATE",
			ErrorDescription: "reading already confirmed",
		}
	case errors.Is(err, measuredomain.ErrMeasuresNotFound):
		return http.StatusConflict, errorResponse{
			ErrorCode:        "MEASURES_NOT_FOUND",
			ErrorDescription: "no readings found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorResponse{
			ErrorCode:        "RATE_LIMITED",
			ErrorDescription: "too many uploads, slow down",
		}
	case errors.Is(err, imagestore.ErrNotFound):
		return http.StatusNotFound, errorResponse{
			ErrorCode:        "IMAGE_NOT_FOUND",
			ErrorDescription: "image not found",
		}
	default:
		return http.StatusInternalServerError, errorResponse{
			ErrorCode:        "INTERNAL_ERROR",
			ErrorDescription: "internal server error",
		}
	}
}

// classifyErrorForLog buckets an error for the request log.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return "internal_error", payload.ErrorCode
	}
	return "client_error", payload.ErrorCode
}
