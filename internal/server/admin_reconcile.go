package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	reconciledomain "github.com/linkwell/orderdesk/internal/reconcile/domain"
)

func (s *Server) ReconcileOrders(c *gin.Context) {
	var req reconciledomain.ReconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := s.reconcileSvc.ReconcileOrders(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
