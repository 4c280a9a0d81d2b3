package server

import (
	"fmt"
	"math"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/linkwell/orderdesk/internal/actorctx"
)

const (
	sessionCookieName = "od_session"
	contextUserKey    = "auth_user"
)

// AuthRequired resolves the session cookie to a user and stores the actor in
// the request context for downstream services.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookieName)
		if err != nil || strings.TrimSpace(token) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		actor := actorctx.Actor{
			UserID:   user.ID,
			UserType: user.UserType,
			ClientID: user.ClientID,
		}
		c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), actor))
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// InternalRequired rejects account users. Runs after AuthRequired.
func InternalRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actorctx.IsInternal(c.Request.Context()) {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// ShareViewRateLimit throttles the public share-link endpoint per source IP.
func (s *Server) ShareViewRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := s.shareLimiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			// The limiter backend being down should not take the public
			// page down with it.
			s.log.Warn(fmt.Sprintf("share view rate limit check failed: %v", err))
			c.Next()
			return
		}

		if !result.Allowed {
			if s.metrics != nil {
				s.metrics.RecordRateLimitDenied(c.Request.Context(), "share_view", "rate")
			}
			retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			AbortWithError(c, ErrRateLimited)
			return
		}

		if s.metrics != nil {
			s.metrics.RecordRateLimitAllowed(c.Request.Context(), "share_view")
		}
		c.Next()
	}
}
