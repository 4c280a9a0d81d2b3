package domain

import (
	"context"

	"github.com/linkwell/orderdesk/pkg/db/pagination"
)

type RecordRequest struct {
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

type ListLogsRequest struct {
	Action    string
	PageToken string
	PageSize  int32
}

type ListLogsResponse struct {
	Logs     []AuditLog          `json:"logs"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

// Service writes audit trail rows. Record and SnapshotOrder are best-effort
// for callers: they return the error for logging, callers never fail the
// surrounding operation on it.
type Service interface {
	Record(ctx context.Context, req RecordRequest) error
	SnapshotOrder(ctx context.Context, orderID string, snapshot map[string]any) error
	ListLogs(ctx context.Context, req ListLogsRequest) (ListLogsResponse, error)
}
