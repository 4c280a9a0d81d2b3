package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	datarepairdomain "github.com/linkwell/orderdesk/internal/datarepair/domain"
)

type repairRequest struct {
	DryRun bool `json:"dry_run"`
	Limit  int  `json:"limit"`
}

func (s *Server) RepairNullBytes(c *gin.Context) {
	s.runRepair(c, s.repairSvc.FixNullBytes)
}

func (s *Server) RepairDuplicateOfferings(c *gin.Context) {
	s.runRepair(c, s.repairSvc.FixDuplicateOfferings)
}

func (s *Server) RepairOrphanedOfferings(c *gin.Context) {
	s.runRepair(c, s.repairSvc.FixOrphanedOfferings)
}

func (s *Server) runRepair(c *gin.Context, fn func(ctx context.Context, opts datarepairdomain.Options) (datarepairdomain.Report, error)) {
	var req repairRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := fn(c.Request.Context(), datarepairdomain.Options{
		DryRun: req.DryRun,
		Limit:  req.Limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
