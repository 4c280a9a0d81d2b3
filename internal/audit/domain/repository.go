package domain

import (
	"context"

	"github.com/linkwell/orderdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	InsertLog(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	ListLogs(ctx context.Context, db *gorm.DB, action string, p pagination.Pagination) ([]*AuditLog, error)
	InsertSnapshot(ctx context.Context, db *gorm.DB, snapshot *OrderSnapshot) error
}
