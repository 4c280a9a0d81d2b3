package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/linkwell/orderdesk/internal/actorctx"
	"github.com/linkwell/orderdesk/internal/client/domain"
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
		log:   p.Log.Named("client.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateClientRequest) (domain.Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Client{}, domain.ErrInvalidName
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Client{}, domain.ErrInvalidEmail
	}

	now := time.Now().UTC()
	client := domain.Client{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     email,
		Website:   strings.TrimSpace(req.Website),
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &client); err != nil {
		return domain.Client{}, err
	}
	return client, nil
}

func (s *Service) List(ctx context.Context, req domain.ListClientRequest) (domain.ListClientResponse, error) {
	// Account users see only their own client.
	if actor, ok := actorctx.ActorFromContext(ctx); ok && actor.UserType == actorctx.UserTypeAccount {
		client, err := s.repo.FindByID(ctx, s.db, actor.ClientID)
		if err != nil {
			return domain.ListClientResponse{}, err
		}
		resp := domain.ListClientResponse{}
		if client != nil {
			resp.Clients = []domain.Client{*client}
		}
		return resp, nil
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, strings.TrimSpace(req.Name), pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListClientResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(client *domain.Client) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        client.ID.String(),
			CreatedAt: client.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	clients := make([]domain.Client, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		clients = append(clients, *item)
	}

	resp := domain.ListClientResponse{Clients: clients}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Client, error) {
	clientID, err := s.parseID(id)
	if err != nil {
		return domain.Client{}, err
	}
	if err := s.authorizeClient(ctx, clientID); err != nil {
		return domain.Client{}, err
	}

	client, err := s.repo.FindByID(ctx, s.db, clientID)
	if err != nil {
		return domain.Client{}, err
	}
	if client == nil {
		return domain.Client{}, domain.ErrNotFound
	}
	return *client, nil
}

func (s *Service) ListTargetPages(ctx context.Context, clientID string) ([]domain.TargetPage, error) {
	id, err := s.parseID(clientID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeClient(ctx, id); err != nil {
		return nil, err
	}

	items, err := s.repo.ListTargetPages(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	pages := make([]domain.TargetPage, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		pages = append(pages, *item)
	}
	return pages, nil
}

func (s *Service) CreateTargetPage(ctx context.Context, req domain.CreateTargetPageRequest) (domain.TargetPage, error) {
	clientID, err := s.parseID(req.ClientID)
	if err != nil {
		return domain.TargetPage{}, err
	}
	if err := s.authorizeClient(ctx, clientID); err != nil {
		return domain.TargetPage{}, err
	}

	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" || !strings.HasPrefix(rawURL, "http") {
		return domain.TargetPage{}, domain.ErrInvalidURL
	}

	client, err := s.repo.FindByID(ctx, s.db, clientID)
	if err != nil {
		return domain.TargetPage{}, err
	}
	if client == nil {
		return domain.TargetPage{}, domain.ErrNotFound
	}

	now := time.Now().UTC()
	pageRow := domain.TargetPage{
		ID:        s.genID.Generate(),
		ClientID:  clientID,
		URL:       rawURL,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertTargetPage(ctx, s.db, &pageRow); err != nil {
		return domain.TargetPage{}, err
	}
	return pageRow, nil
}

func (s *Service) authorizeClient(ctx context.Context, clientID snowflake.ID) error {
	actor, ok := actorctx.ActorFromContext(ctx)
	if !ok {
		return nil
	}
	if actor.UserType == actorctx.UserTypeAccount && actor.ClientID != clientID {
		return domain.ErrForbidden
	}
	return nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
