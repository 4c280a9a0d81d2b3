package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Order lifecycle statuses.
const (
	StatusDraft               = "draft"
	StatusPendingConfirmation = "pending_confirmation"
	StatusConfirmed           = "confirmed"
	StatusCompleted           = "completed"
	StatusCancelled           = "cancelled"
)

// Order workflow states, advanced after confirmation.
const (
	StateAnalyzing  = "analyzing"
	StateInProgress = "in_progress"
	StateCompleted  = "completed"
)

// Line item statuses.
const (
	LineItemPending   = "pending"
	LineItemAssigned  = "assigned"
	LineItemCancelled = "cancelled"
	LineItemRefunded  = "refunded"
)

// MetadataKeyProjectID is where confirmation stashes the analysis project id
// inside a line item's metadata bag.
const MetadataKeyProjectID = "bulk_analysis_project_id"

type Order struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Status         string       `gorm:"not null;default:draft;index" json:"status"`
	State          string       `gorm:"column:state" json:"state,omitempty"`
	RetailTotal    int64        `gorm:"column:retail_total;not null;default:0" json:"retail_total"`
	WholesaleTotal int64        `gorm:"column:wholesale_total;not null;default:0" json:"wholesale_total"`
	Currency       string       `gorm:"not null;default:usd" json:"currency"`
	CreatedBy      snowflake.ID `gorm:"column:created_by" json:"created_by,omitempty"`
	AssignedTo     snowflake.ID `gorm:"column:assigned_to" json:"assigned_to,omitempty"`
	ApprovedAt     *time.Time   `gorm:"column:approved_at" json:"approved_at,omitempty"`
	// ShareToken grants unauthenticated read access until ShareExpiresAt.
	// Uniqueness is enforced by a partial index so blank tokens never collide.
	ShareToken      string            `gorm:"column:share_token;index" json:"-"`
	ShareExpiresAt  *time.Time        `gorm:"column:share_expires_at" json:"share_expires_at,omitempty"`
	PaymentRef      string            `gorm:"column:payment_ref" json:"payment_ref,omitempty"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

type OrderLineItem struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrderID          snowflake.ID      `gorm:"column:order_id;not null;index" json:"order_id"`
	ClientID         snowflake.ID      `gorm:"column:client_id;not null;index" json:"client_id"`
	TargetPageID     snowflake.ID      `gorm:"column:target_page_id" json:"target_page_id,omitempty"`
	AssignedDomainID snowflake.ID      `gorm:"column:assigned_domain_id" json:"assigned_domain_id,omitempty"`
	Status           string            `gorm:"not null;default:pending;index" json:"status"`
	RetailPrice      int64             `gorm:"column:retail_price;not null;default:0" json:"retail_price"`
	WholesalePrice   int64             `gorm:"column:wholesale_price;not null;default:0" json:"wholesale_price"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (OrderLineItem) TableName() string { return "order_line_items" }

// ActiveLineItem reports whether the line item still counts toward the order.
func ActiveLineItem(item OrderLineItem) bool {
	return item.Status != LineItemCancelled && item.Status != LineItemRefunded
}
