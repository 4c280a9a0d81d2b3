package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/linkwell/orderdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, client *Client) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Client, error)
	List(ctx context.Context, db *gorm.DB, name string, page pagination.Pagination) ([]*Client, error)
	InsertTargetPage(ctx context.Context, db *gorm.DB, page *TargetPage) error
	FindTargetPageByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*TargetPage, error)
	ListTargetPages(ctx context.Context, db *gorm.DB, clientID snowflake.ID) ([]*TargetPage, error)
	UpdateTargetPageEnrichment(ctx context.Context, db *gorm.DB, id snowflake.ID, keywords, description string) error
}
