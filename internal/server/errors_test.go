package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	authdomain "github.com/linkwell/orderdesk/internal/auth/domain"
	bulkdomain "github.com/linkwell/orderdesk/internal/bulkanalysis/domain"
	clientdomain "github.com/linkwell/orderdesk/internal/client/domain"
	orderdomain "github.com/linkwell/orderdesk/internal/order/domain"
	reconciledomain "github.com/linkwell/orderdesk/internal/reconcile/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"invalid credentials", authdomain.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{"expired session", authdomain.ErrSessionExpired, http.StatusUnauthorized, "unauthorized"},
		{"client forbidden", clientdomain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"order forbidden", orderdomain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"duplicate user", authdomain.ErrUserExists, http.StatusConflict, "conflict"},
		{"duplicate order project", bulkdomain.ErrDuplicateOrder, http.StatusConflict, "conflict"},
		{"expired share link", orderdomain.ErrShareLinkExpired, http.StatusGone, "share_link_expired"},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"unknown share token", orderdomain.ErrShareLinkNotFound, http.StatusNotFound, "not_found"},
		{"missing record", gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{"reconcile unconfigured", reconciledomain.ErrNotConfigured, http.StatusServiceUnavailable, "service_unavailable"},
		{"order not draft", orderdomain.ErrNotDraft, http.StatusBadRequest, "validation_error"},
		{"invalid domain", bulkdomain.ErrInvalidDomain, http.StatusBadRequest, "validation_error"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, payload := mapError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantType, payload.Type)
		})
	}
}

func TestMapErrorValidationDetails(t *testing.T) {
	status, payload := mapError(newValidationError("client_id", "invalid_client_id", "client_id must be a valid id"))
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "client_id", payload.Errors[0].Field)
	assert.Equal(t, "invalid_client_id", payload.Errors[0].Code)

	status, payload = mapError(orderdomain.ErrInvalidAssignee)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "assignee", payload.Errors[0].Field)
}

func TestErrorHandlingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	r.GET("/boom", func(c *gin.Context) {
		AbortWithError(c, orderdomain.ErrNotFound)
	})
	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "fine"})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"not_found"`)

	// A handler that already wrote a response is left alone.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fine")
}
