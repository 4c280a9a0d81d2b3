package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/linkwell/orderdesk/internal/auth/domain"
	bulkdomain "github.com/linkwell/orderdesk/internal/bulkanalysis/domain"
	clientdomain "github.com/linkwell/orderdesk/internal/client/domain"
	datarepairdomain "github.com/linkwell/orderdesk/internal/datarepair/domain"
	orderdomain "github.com/linkwell/orderdesk/internal/order/domain"
	publisherdomain "github.com/linkwell/orderdesk/internal/publisher/domain"
	reconciledomain "github.com/linkwell/orderdesk/internal/reconcile/domain"
	"gorm.io/gorm"
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
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
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

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, clientdomain.ErrForbidden),
		errors.Is(err, orderdomain.ErrForbidden),
		errors.Is(err, datarepairdomain.ErrForbidden),
		errors.Is(err, reconciledomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, publisherdomain.ErrWebsiteExists),
		errors.Is(err, bulkdomain.ErrDuplicateOrder):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case errors.Is(err, orderdomain.ErrShareLinkExpired):
		return http.StatusGone, errorPayload{
			Type:    "share_link_expired",
			Message: "share link expired",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, reconciledomain.ErrNotConfigured):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
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
		errors.Is(err, authdomain.ErrInvalidEmail),
		errors.Is(err, authdomain.ErrInvalidUserType):
		return true
	case isClientValidationError(err),
		isOrderValidationError(err),
		isBulkAnalysisValidationError(err),
		isPublisherValidationError(err):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, clientdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrLineItemNotFound),
		errors.Is(err, orderdomain.ErrShareLinkNotFound),
		errors.Is(err, bulkdomain.ErrNotFound),
		errors.Is(err, publisherdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isClientValidationError(err error) bool {
	return errors.Is(err, clientdomain.ErrInvalidID) ||
		errors.Is(err, clientdomain.ErrInvalidName) ||
		errors.Is(err, clientdomain.ErrInvalidEmail) ||
		errors.Is(err, clientdomain.ErrInvalidURL)
}

func isOrderValidationError(err error) bool {
	return errors.Is(err, orderdomain.ErrInvalidID) ||
		errors.Is(err, orderdomain.ErrNoLineItems) ||
		errors.Is(err, orderdomain.ErrNotPendingConfirm) ||
		errors.Is(err, orderdomain.ErrNotDraft) ||
		errors.Is(err, orderdomain.ErrInvalidLineItem) ||
		errors.Is(err, orderdomain.ErrInvalidAssignee)
}

func isBulkAnalysisValidationError(err error) bool {
	return errors.Is(err, bulkdomain.ErrInvalidID) ||
		errors.Is(err, bulkdomain.ErrInvalidDomain)
}

func isPublisherValidationError(err error) bool {
	return errors.Is(err, publisherdomain.ErrInvalidID) ||
		errors.Is(err, publisherdomain.ErrInvalidName) ||
		errors.Is(err, publisherdomain.ErrInvalidDomain) ||
		errors.Is(err, publisherdomain.ErrInvalidSource) ||
		errors.Is(err, publisherdomain.ErrOfferingInvalid)
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
