package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/linkwell/orderdesk/internal/publisher/domain"
	"github.com/linkwell/orderdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertPublisher(ctx context.Context, db *gorm.DB, publisher *domain.Publisher) error {
	return db.WithContext(ctx).Create(publisher).Error
}

func (r *repo) FindPublisherByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Publisher, error) {
	var publisher domain.Publisher
	err := db.WithContext(ctx).Where("id = ?", id).First(&publisher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &publisher, nil
}

func (r *repo) ListPublishers(ctx context.Context, db *gorm.DB, source string, p pagination.Pagination) ([]*domain.Publisher, error) {
	stmt := db.WithContext(ctx).Model(&domain.Publisher{})
	if source != "" {
		stmt = stmt.Where("source = ?", source)
	}

	stmt = pagination.Apply(stmt.Order("created_at desc, id desc"), p)

	var rows []*domain.Publisher
	if err := stmt.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) InsertWebsite(ctx context.Context, db *gorm.DB, website *domain.Website) error {
	return db.WithContext(ctx).Create(website).Error
}

func (r *repo) FindWebsiteByDomain(ctx context.Context, db *gorm.DB, domainName string) (*domain.Website, error) {
	var website domain.Website
	err := db.WithContext(ctx).Where("domain = ?", domainName).First(&website).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &website, nil
}

func (r *repo) InsertOffering(ctx context.Context, db *gorm.DB, offering *domain.PublisherOffering) error {
	return db.WithContext(ctx).Create(offering).Error
}

func (r *repo) FindOfferingByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PublisherOffering, error) {
	var offering domain.PublisherOffering
	err := db.WithContext(ctx).Where("id = ?", id).First(&offering).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offering, nil
}

func (r *repo) ListOfferings(ctx context.Context, db *gorm.DB, p pagination.Pagination) ([]*domain.PublisherOffering, error) {
	stmt := pagination.Apply(
		db.WithContext(ctx).Model(&domain.PublisherOffering{}).Order("created_at desc, id desc"), p)

	var rows []*domain.PublisherOffering
	if err := stmt.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) InsertRelationship(ctx context.Context, db *gorm.DB, rel *domain.PublisherOfferingRelationship) error {
	return db.WithContext(ctx).Create(rel).Error
}

func (r *repo) ListRelationshipsByOffering(ctx context.Context, db *gorm.DB, offeringID snowflake.ID) ([]*domain.PublisherOfferingRelationship, error) {
	var rows []*domain.PublisherOfferingRelationship
	err := db.WithContext(ctx).
		Where("offering_id = ?", offeringID).
		Order("created_at asc, id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
