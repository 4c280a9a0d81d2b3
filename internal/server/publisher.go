package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	publisherdomain "github.com/linkwell/orderdesk/internal/publisher/domain"
	"github.com/linkwell/orderdesk/pkg/db/pagination"
)

func (s *Server) CreatePublisher(c *gin.Context) {
	var req publisherdomain.CreatePublisherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.publisherSvc.CreatePublisher(c.Request.Context(), publisherdomain.CreatePublisherRequest{
		Name:   strings.TrimSpace(req.Name),
		Email:  strings.TrimSpace(req.Email),
		Source: strings.TrimSpace(req.Source),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPublisherByID(c *gin.Context) {
	resp, err := s.publisherSvc.GetPublisher(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPublishers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Source string `form:"source"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.publisherSvc.ListPublishers(c.Request.Context(), publisherdomain.ListPublishersRequest{
		Source:    strings.TrimSpace(query.Source),
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateWebsite(c *gin.Context) {
	var req publisherdomain.CreateWebsiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.publisherSvc.CreateWebsite(c.Request.Context(), publisherdomain.CreateWebsiteRequest{
		Domain: strings.TrimSpace(req.Domain),
		Name:   strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateOffering(c *gin.Context) {
	var req publisherdomain.CreateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.OfferingType = strings.TrimSpace(req.OfferingType)
	req.Currency = strings.TrimSpace(req.Currency)
	req.PublisherID = strings.TrimSpace(req.PublisherID)
	req.WebsiteID = strings.TrimSpace(req.WebsiteID)

	resp, err := s.publisherSvc.CreateOffering(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOfferings(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.publisherSvc.ListOfferings(c.Request.Context(), publisherdomain.ListOfferingsRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
