package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/linkwell/orderdesk/internal/order/domain"
	"github.com/linkwell/orderdesk/pkg/db/pagination"
)

type createOrderRequest struct {
	Currency  string                      `json:"currency"`
	LineItems []orderdomain.LineItemInput `json:"line_items"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateOrderRequest{
		Currency:  strings.TrimSpace(req.Currency),
		LineItems: req.LineItems,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrders(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ClientID string `form:"client_id"`
		Status   string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListOrdersRequest{
		ClientID:  strings.TrimSpace(query.ClientID),
		Status:    strings.TrimSpace(query.Status),
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrderByID(c *gin.Context) {
	resp, err := s.orderSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteDraftOrder(c *gin.Context) {
	if err := s.orderSvc.DeleteDraft(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "deleted"}})
}

type addLineItemsRequest struct {
	LineItems []orderdomain.LineItemInput `json:"line_items"`
}

func (s *Server) AddOrderLineItems(c *gin.Context) {
	var req addLineItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.AddLineItems(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.LineItems)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelOrderLineItem(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("id"))
	itemID := strings.TrimSpace(c.Param("itemId"))
	if err := s.orderSvc.CancelLineItem(c.Request.Context(), orderID, itemID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "cancelled"}})
}

func (s *Server) SubmitOrderForConfirmation(c *gin.Context) {
	resp, err := s.orderSvc.SubmitForConfirmation(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type confirmOrderRequest struct {
	AssignedTo string `json:"assigned_to"`
}

func (s *Server) ConfirmOrder(c *gin.Context) {
	var req confirmOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := s.orderSvc.Confirm(c.Request.Context(), orderdomain.ConfirmOrderRequest{
		OrderID:    strings.TrimSpace(c.Param("id")),
		AssignedTo: strings.TrimSpace(req.AssignedTo),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type shareLinkRequest struct {
	ValidDays int `json:"valid_days"`
}

func (s *Server) GenerateOrderShareLink(c *gin.Context) {
	var req shareLinkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := s.orderSvc.GenerateShareLink(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.ValidDays)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
