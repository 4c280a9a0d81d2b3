package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/linkwell/orderdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	InsertPublisher(ctx context.Context, db *gorm.DB, publisher *Publisher) error
	FindPublisherByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Publisher, error)
	ListPublishers(ctx context.Context, db *gorm.DB, source string, p pagination.Pagination) ([]*Publisher, error)

	InsertWebsite(ctx context.Context, db *gorm.DB, website *Website) error
	FindWebsiteByDomain(ctx context.Context, db *gorm.DB, domainName string) (*Website, error)

	InsertOffering(ctx context.Context, db *gorm.DB, offering *PublisherOffering) error
	FindOfferingByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PublisherOffering, error)
	ListOfferings(ctx context.Context, db *gorm.DB, p pagination.Pagination) ([]*PublisherOffering, error)

	InsertRelationship(ctx context.Context, db *gorm.DB, rel *PublisherOfferingRelationship) error
	ListRelationshipsByOffering(ctx context.Context, db *gorm.DB, offeringID snowflake.ID) ([]*PublisherOfferingRelationship, error)
}
