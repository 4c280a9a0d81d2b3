package repository

import (
	"context"

	"github.com/linkwell/orderdesk/internal/audit/domain"
	"github.com/linkwell/orderdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertLog(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) ListLogs(ctx context.Context, db *gorm.DB, action string, p pagination.Pagination) ([]*domain.AuditLog, error) {
	stmt := db.WithContext(ctx).Model(&domain.AuditLog{})
	if action != "" {
		stmt = stmt.Where("action = ?", action)
	}

	stmt = pagination.Apply(stmt.Order("created_at desc, id desc"), p)

	var rows []*domain.AuditLog
	if err := stmt.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) InsertSnapshot(ctx context.Context, db *gorm.DB, snapshot *domain.OrderSnapshot) error {
	return db.WithContext(ctx).Create(snapshot).Error
}
