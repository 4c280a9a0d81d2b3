package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	bulkdomain "github.com/linkwell/orderdesk/internal/bulkanalysis/domain"
	clientdomain "github.com/linkwell/orderdesk/internal/client/domain"
	"github.com/linkwell/orderdesk/internal/observability/metrics"
	orderdomain "github.com/linkwell/orderdesk/internal/order/domain"
	"github.com/linkwell/orderdesk/internal/shareview/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Projects created before order tagging existed carry no order reference, so
// resolution falls back to projects created for the same client from one day
// before to seven days after the order. Kept for legacy rows, not a model for
// new data.
const (
	fallbackBefore = 24 * time.Hour
	fallbackAfter  = 7 * 24 * time.Hour
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	OrderRepo  orderdomain.Repository
	ClientRepo clientdomain.Repository
	BulkRepo   bulkdomain.Repository
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	orderRepo  orderdomain.Repository
	clientRepo clientdomain.Repository
	bulkRepo   bulkdomain.Repository
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("shareview.service"),
		orderRepo:  p.OrderRepo,
		clientRepo: p.ClientRepo,
		bulkRepo:   p.BulkRepo,
		metrics:    p.Metrics,
	}
}

func (s *Service) Resolve(ctx context.Context, token string) (domain.OrderView, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		s.metrics.RecordShareView(ctx, "not_found")
		return domain.OrderView{}, orderdomain.ErrShareLinkNotFound
	}

	order, err := s.orderRepo.FindByShareToken(ctx, s.db, token)
	if err != nil {
		return domain.OrderView{}, err
	}
	if order == nil {
		s.metrics.RecordShareView(ctx, "not_found")
		return domain.OrderView{}, orderdomain.ErrShareLinkNotFound
	}
	if order.ShareExpiresAt != nil && time.Now().After(*order.ShareExpiresAt) {
		s.metrics.RecordShareView(ctx, "expired")
		return domain.OrderView{}, orderdomain.ErrShareLinkExpired
	}

	items, err := s.orderRepo.ListLineItems(ctx, s.db, order.ID)
	if err != nil {
		return domain.OrderView{}, err
	}

	active := make([]*orderdomain.OrderLineItem, 0, len(items))
	assigned := make(map[snowflake.ID]struct{})
	for _, item := range items {
		if item == nil || !orderdomain.ActiveLineItem(*item) {
			continue
		}
		active = append(active, item)
		if item.AssignedDomainID != 0 {
			assigned[item.AssignedDomainID] = struct{}{}
		}
	}

	tagged, err := s.bulkRepo.ListProjectsByOrder(ctx, s.db, order.ID)
	if err != nil {
		return domain.OrderView{}, err
	}
	taggedByClient := make(map[snowflake.ID][]*bulkdomain.BulkAnalysisProject)
	for _, project := range tagged {
		taggedByClient[project.ClientID] = append(taggedByClient[project.ClientID], project)
	}

	view := domain.OrderView{
		Order:   summarize(*order),
		Clients: []domain.ClientGroup{},
	}

	for _, clientID := range clientOrder(active) {
		group := domain.ClientGroup{
			ClientID:  clientID.String(),
			LineItems: []domain.LineItemView{},
			Domains:   []domain.CandidateDomain{},
		}
		if client, err := s.clientRepo.FindByID(ctx, s.db, clientID); err == nil && client != nil {
			group.ClientName = client.Name
		}

		for _, item := range active {
			if item.ClientID != clientID {
				continue
			}
			group.LineItems = append(group.LineItems, s.lineItemView(ctx, item))
		}

		projects := taggedByClient[clientID]
		if len(projects) == 0 {
			projects, err = s.fallbackProjects(ctx, clientID, order.CreatedAt)
			if err != nil {
				return domain.OrderView{}, err
			}
		}

		domains, err := s.candidateDomains(ctx, projects, assigned)
		if err != nil {
			return domain.OrderView{}, err
		}
		group.Domains = domains

		view.Clients = append(view.Clients, group)
	}

	s.metrics.RecordShareView(ctx, "ok")
	return view, nil
}

func (s *Service) lineItemView(ctx context.Context, item *orderdomain.OrderLineItem) domain.LineItemView {
	view := domain.LineItemView{
		ID:          item.ID.String(),
		Status:      item.Status,
		RetailPrice: item.RetailPrice,
	}
	if item.TargetPageID != 0 {
		view.TargetPageID = item.TargetPageID.String()
		if page, err := s.clientRepo.FindTargetPageByID(ctx, s.db, item.TargetPageID); err == nil && page != nil {
			view.TargetPageURL = page.URL
		}
	}
	if item.AssignedDomainID != 0 {
		view.AssignedDomainID = item.AssignedDomainID.String()
	}
	return view
}

func (s *Service) fallbackProjects(ctx context.Context, clientID snowflake.ID, orderCreatedAt time.Time) ([]*bulkdomain.BulkAnalysisProject, error) {
	from := orderCreatedAt.Add(-fallbackBefore)
	to := orderCreatedAt.Add(fallbackAfter)
	return s.bulkRepo.ListProjectsByClientWindow(ctx, s.db, clientID, from, to)
}

func (s *Service) candidateDomains(ctx context.Context, projects []*bulkdomain.BulkAnalysisProject, assigned map[snowflake.ID]struct{}) ([]domain.CandidateDomain, error) {
	if len(projects) == 0 {
		return []domain.CandidateDomain{}, nil
	}
	projectIDs := make([]snowflake.ID, 0, len(projects))
	for _, project := range projects {
		projectIDs = append(projectIDs, project.ID)
	}

	rows, err := s.bulkRepo.ListDomainsByProjects(ctx, s.db, projectIDs)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CandidateDomain, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		_, isAssigned := assigned[row.ID]
		out = append(out, domain.CandidateDomain{
			ID:                  row.ID.String(),
			ProjectID:           row.ProjectID.String(),
			Domain:              row.Domain,
			QualificationStatus: row.QualificationStatus,
			AlreadyAssigned:     isAssigned,
		})
	}
	return out, nil
}

func summarize(order orderdomain.Order) domain.OrderSummary {
	summary := domain.OrderSummary{
		ID:          order.ID.String(),
		Status:      order.Status,
		State:       order.State,
		RetailTotal: order.RetailTotal,
		Currency:    order.Currency,
		CreatedAt:   order.CreatedAt.Format(time.RFC3339),
	}
	if order.ShareExpiresAt != nil {
		summary.ShareExpiresAt = order.ShareExpiresAt.Format(time.RFC3339)
	}
	return summary
}

func clientOrder(items []*orderdomain.OrderLineItem) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(items))
	order := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ClientID]; ok {
			continue
		}
		seen[item.ClientID] = struct{}{}
		order = append(order, item.ClientID)
	}
	return order
}
