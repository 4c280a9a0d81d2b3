package domain

import (
	"context"
	"errors"

	bulkdomain "github.com/linkwell/orderdesk/internal/bulkanalysis/domain"
	"github.com/linkwell/orderdesk/pkg/db/pagination"
)

type LineItemInput struct {
	ClientID       string `json:"client_id"`
	TargetPageID   string `json:"target_page_id"`
	RetailPrice    int64  `json:"retail_price"`
	WholesalePrice int64  `json:"wholesale_price"`
}

type CreateOrderRequest struct {
	Currency  string          `json:"currency"`
	LineItems []LineItemInput `json:"line_items"`
}

type ListOrdersRequest struct {
	ClientID  string
	Status    string
	PageToken string
	PageSize  int32
}

type ListOrdersResponse struct {
	Orders   []Order             `json:"orders"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type OrderDetail struct {
	Order     Order           `json:"order"`
	LineItems []OrderLineItem `json:"line_items"`
}

type ConfirmOrderRequest struct {
	OrderID    string
	AssignedTo string
}

// ConfirmOrderResponse reports the confirmed order, the analysis projects
// created (reused projects are not repeated here), and which target pages
// seeded each project.
type ConfirmOrderResponse struct {
	Order              Order                            `json:"order"`
	ProjectsCreated    int                              `json:"projects_created"`
	Projects           []bulkdomain.BulkAnalysisProject `json:"projects"`
	ProjectTargetPages map[string][]string              `json:"project_target_pages"`
}

type ShareLink struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (OrderDetail, error)
	Get(ctx context.Context, orderID string) (OrderDetail, error)
	List(ctx context.Context, req ListOrdersRequest) (ListOrdersResponse, error)
	SubmitForConfirmation(ctx context.Context, orderID string) (Order, error)
	AddLineItems(ctx context.Context, orderID string, items []LineItemInput) (OrderDetail, error)
	CancelLineItem(ctx context.Context, orderID, lineItemID string) error
	// DeleteDraft removes a draft order and its line items. Internal only.
	DeleteDraft(ctx context.Context, orderID string) error
	// Confirm runs the confirmation transaction: preconditions, per-client
	// analysis project reuse-or-create, target page enrichment, line item
	// metadata, then the status flip. Internal only.
	Confirm(ctx context.Context, req ConfirmOrderRequest) (ConfirmOrderResponse, error)
	// GenerateShareLink mints a share token valid for the given number of
	// days (default 30). Internal only.
	GenerateShareLink(ctx context.Context, orderID string, validDays int) (ShareLink, error)
}

var (
	ErrInvalidID         = errors.New("invalid_order_id")
	ErrNotFound          = errors.New("order_not_found")
	ErrLineItemNotFound  = errors.New("line_item_not_found")
	ErrNoLineItems       = errors.New("order_has_no_line_items")
	ErrNotPendingConfirm = errors.New("order_not_pending_confirmation")
	ErrNotDraft          = errors.New("order_not_draft")
	ErrInvalidLineItem   = errors.New("invalid_line_item")
	ErrForbidden         = errors.New("order_forbidden")
	ErrInvalidAssignee   = errors.New("invalid_assignee")
	ErrShareLinkNotFound = errors.New("share_link_not_found")
	ErrShareLinkExpired  = errors.New("share_link_expired")
)
