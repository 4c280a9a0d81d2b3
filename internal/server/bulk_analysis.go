package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	bulkdomain "github.com/linkwell/orderdesk/internal/bulkanalysis/domain"
)

func (s *Server) ListAnalysisProjects(c *gin.Context) {
	clientID := strings.TrimSpace(c.Query("client_id"))
	resp, err := s.bulkSvc.ListProjects(c.Request.Context(), clientID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListProjectDomains(c *gin.Context) {
	resp, err := s.bulkSvc.ListDomains(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type addDomainsRequest struct {
	Domains []string `json:"domains"`
}

func (s *Server) AddProjectDomains(c *gin.Context) {
	var req addDomainsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bulkSvc.AddDomains(c.Request.Context(), bulkdomain.AddDomainsRequest{
		ProjectID: strings.TrimSpace(c.Param("id")),
		Domains:   req.Domains,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) QualifyProjectDomains(c *gin.Context) {
	resp, err := s.bulkSvc.QualifyDomains(c.Request.Context(), bulkdomain.QualifyDomainsRequest{
		ProjectID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
