package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/linkwell/orderdesk/internal/client/domain"
	"github.com/linkwell/orderdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, client *domain.Client) error {
	return db.WithContext(ctx).Create(client).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Client, error) {
	var client domain.Client
	err := db.WithContext(ctx).Where("id = ?", id).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, name string, page pagination.Pagination) ([]*domain.Client, error) {
	var clients []*domain.Client
	stmt := db.WithContext(ctx).Model(&domain.Client{})
	if name != "" {
		stmt = stmt.Where("name LIKE ?", "%"+name+"%")
	}
	stmt = pagination.Apply(stmt, page)
	err := stmt.Order("created_at desc, id desc").Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *repo) InsertTargetPage(ctx context.Context, db *gorm.DB, pageRow *domain.TargetPage) error {
	return db.WithContext(ctx).Create(pageRow).Error
}

func (r *repo) FindTargetPageByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.TargetPage, error) {
	var pageRow domain.TargetPage
	err := db.WithContext(ctx).Where("id = ?", id).First(&pageRow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pageRow, nil
}

func (r *repo) ListTargetPages(ctx context.Context, db *gorm.DB, clientID snowflake.ID) ([]*domain.TargetPage, error) {
	var pages []*domain.TargetPage
	err := db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at asc, id asc").
		Find(&pages).Error
	if err != nil {
		return nil, err
	}
	return pages, nil
}

func (r *repo) UpdateTargetPageEnrichment(ctx context.Context, db *gorm.DB, id snowflake.ID, keywords, description string) error {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if keywords != "" {
		updates["keywords"] = keywords
	}
	if description != "" {
		updates["description"] = description
	}
	return db.WithContext(ctx).
		Model(&domain.TargetPage{}).
		Where("id = ?", id).
		Updates(updates).Error
}
