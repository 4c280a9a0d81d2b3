package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/linkwell/orderdesk/internal/actorctx"
	"github.com/linkwell/orderdesk/internal/audit/domain"
	"github.com/linkwell/orderdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) error {
	entry := domain.AuditLog{
		ID:         s.genID.Generate(),
		Action:     strings.TrimSpace(req.Action),
		TargetType: strings.TrimSpace(req.TargetType),
		TargetID:   strings.TrimSpace(req.TargetID),
		Metadata:   datatypes.JSONMap(req.Metadata),
		CreatedAt:  time.Now().UTC(),
	}
	if actor, ok := actorctx.ActorFromContext(ctx); ok {
		entry.ActorID = actor.UserID
		entry.ActorType = actor.UserType
	}
	return s.repo.InsertLog(ctx, s.db, &entry)
}

func (s *Service) SnapshotOrder(ctx context.Context, orderID string, snapshot map[string]any) error {
	id, err := snowflake.ParseString(orderID)
	if err != nil {
		return err
	}
	row := domain.OrderSnapshot{
		ID:        s.genID.Generate(),
		OrderID:   id,
		Snapshot:  datatypes.JSONMap(snapshot),
		CreatedAt: time.Now().UTC(),
	}
	return s.repo.InsertSnapshot(ctx, s.db, &row)
}

func (s *Service) ListLogs(ctx context.Context, req domain.ListLogsRequest) (domain.ListLogsResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.ListLogs(ctx, s.db, strings.TrimSpace(req.Action), pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListLogsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(entry *domain.AuditLog) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        entry.ID.String(),
			CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	logs := make([]domain.AuditLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}

	resp := domain.ListLogsResponse{Logs: logs}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}
