package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/linkwell/orderdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindByShareToken(ctx context.Context, db *gorm.DB, token string) (*Order, error)
	List(ctx context.Context, db *gorm.DB, clientID snowflake.ID, status string, p pagination.Pagination) ([]*Order, error)
	Update(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	InsertLineItems(ctx context.Context, db *gorm.DB, items []*OrderLineItem) error
	FindLineItemByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*OrderLineItem, error)
	ListLineItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]*OrderLineItem, error)
	UpdateLineItem(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	DeleteLineItemsByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error
}
