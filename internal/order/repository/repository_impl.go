package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/linkwell/orderdesk/internal/order/domain"
	"github.com/linkwell/orderdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repo) FindByShareToken(ctx context.Context, db *gorm.DB, token string) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Where("share_token = ?", token).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, clientID snowflake.ID, status string, p pagination.Pagination) ([]*domain.Order, error) {
	stmt := db.WithContext(ctx).Model(&domain.Order{})
	if clientID != 0 {
		stmt = stmt.Where("id IN (?)", db.Model(&domain.OrderLineItem{}).
			Select("DISTINCT order_id").
			Where("client_id = ?", clientID))
	}
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}

	stmt = pagination.Apply(stmt.Order("created_at desc, id desc"), p)

	var orders []*domain.Order
	if err := stmt.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now().UTC()
	return db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Order{}).Error
}

func (r *repo) InsertLineItems(ctx context.Context, db *gorm.DB, items []*domain.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(items).Error
}

func (r *repo) FindLineItemByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.OrderLineItem, error) {
	var item domain.OrderLineItem
	err := db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) ListLineItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]*domain.OrderLineItem, error) {
	var items []*domain.OrderLineItem
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateLineItem(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now().UTC()
	return db.WithContext(ctx).
		Model(&domain.OrderLineItem{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repo) DeleteLineItemsByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error {
	return db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&domain.OrderLineItem{}).Error
}
