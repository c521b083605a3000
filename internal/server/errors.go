package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	dredomain "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
	reportconfigdomain "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/reportconfig/domain"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/pkg/db/pagination"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Source  string            `json:"source,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

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
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	var fetchErr *dredomain.SourceFetchError
	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, dredomain.ErrPersistenceConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "report was modified concurrently",
		}
	case errors.Is(err, reportconfigdomain.ErrCodeTaken):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "profile code already in use",
		}
	case errors.Is(err, reportconfigdomain.ErrDefaultConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "default profile changed concurrently",
		}
	case errors.Is(err, dredomain.ErrReportFinal):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "report is final",
		}
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway, errorPayload{
			Type:    "source_fetch_failed",
			Message: "source data could not be loaded",
			Source:  string(fetchErr.Source),
		}
	case errors.Is(err, dredomain.ErrSourceFetch):
		return http.StatusBadGateway, errorPayload{
			Type:    "source_fetch_failed",
			Message: "source data could not be loaded",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code attached to request logs.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	switch {
	case status >= http.StatusInternalServerError && status != http.StatusBadGateway:
		return "internal", code
	case status == http.StatusBadGateway:
		return "dependency", code
	default:
		return "client", code
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, pagination.ErrInvalidCursor):
		return true
	case isReportValidationError(err),
		isProfileValidationError(err):
		return true
	default:
		return false
	}
}

func isReportValidationError(err error) bool {
	switch {
	case errors.Is(err, dredomain.ErrInvalidPeriod),
		errors.Is(err, dredomain.ErrInvalidRegime),
		errors.Is(err, dredomain.ErrInvalidDatePolicy),
		errors.Is(err, dredomain.ErrInvalidReportType),
		errors.Is(err, dredomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isProfileValidationError(err error) bool {
	switch {
	case errors.Is(err, reportconfigdomain.ErrInvalidName),
		errors.Is(err, reportconfigdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, dredomain.ErrNotFound),
		errors.Is(err, reportconfigdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, dredomain.ErrInvalidPeriod):
		return dredomain.ErrInvalidPeriod.Error()
	case errors.Is(err, dredomain.ErrInvalidRegime):
		return dredomain.ErrInvalidRegime.Error()
	case errors.Is(err, dredomain.ErrInvalidDatePolicy):
		return dredomain.ErrInvalidDatePolicy.Error()
	case errors.Is(err, dredomain.ErrInvalidReportType):
		return dredomain.ErrInvalidReportType.Error()
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_period":
		return "competence must be formatted as YYYY-MM"
	default:
		return "invalid value"
	}
}
