package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/linkwell/orderdesk/internal/actorctx"
	"github.com/linkwell/orderdesk/internal/bulkanalysis/domain"
	clientdomain "github.com/linkwell/orderdesk/internal/client/domain"
	enrichdomain "github.com/linkwell/orderdesk/internal/enrichment/domain"
	"github.com/linkwell/orderdesk/internal/liveevents"
	"github.com/linkwell/orderdesk/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	ClientRepo clientdomain.Repository
	Enrich     enrichdomain.Service
	Hub        *liveevents.Hub
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	clientRepo clientdomain.Repository
	enrich     enrichdomain.Service
	hub        *liveevents.Hub
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("bulkanalysis.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		clientRepo: p.ClientRepo,
		enrich:     p.Enrich,
		hub:        p.Hub,
		metrics:    p.Metrics,
	}
}

func (s *Service) ListProjects(ctx context.Context, clientID string) ([]domain.BulkAnalysisProject, error) {
	id, err := s.parseID(clientID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeClient(ctx, id); err != nil {
		return nil, err
	}

	items, err := s.repo.ListProjectsByClient(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	projects := make([]domain.BulkAnalysisProject, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		projects = append(projects, *item)
	}
	return projects, nil
}

func (s *Service) ListDomains(ctx context.Context, projectID string) ([]domain.BulkAnalysisDomain, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListDomainsByProject(ctx, s.db, project.ID)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.BulkAnalysisDomain, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rows = append(rows, *item)
	}
	return rows, nil
}

func (s *Service) AddDomains(ctx context.Context, req domain.AddDomainsRequest) ([]domain.BulkAnalysisDomain, error) {
	project, err := s.loadProject(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListDomainsByProject(ctx, s.db, project.ID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		if row != nil {
			seen[row.Domain] = struct{}{}
		}
	}

	now := time.Now().UTC()
	rows := make([]*domain.BulkAnalysisDomain, 0, len(req.Domains))
	for _, raw := range req.Domains {
		name, err := normalizeDomain(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		rows = append(rows, &domain.BulkAnalysisDomain{
			ID:                  s.genID.Generate(),
			ProjectID:           project.ID,
			Domain:              name,
			QualificationStatus: domain.QualificationPending,
			CreatedAt:           now,
			UpdatedAt:           now,
		})
	}

	if err := s.repo.InsertDomains(ctx, s.db, rows); err != nil {
		return nil, err
	}

	inserted := make([]domain.BulkAnalysisDomain, 0, len(rows))
	for _, row := range rows {
		inserted = append(inserted, *row)
	}
	return inserted, nil
}

func (s *Service) QualifyDomains(ctx context.Context, req domain.QualifyDomainsRequest) (domain.QualifyDomainsResponse, error) {
	project, err := s.loadProject(ctx, req.ProjectID)
	if err != nil {
		return domain.QualifyDomainsResponse{}, err
	}

	rows, err := s.repo.ListDomainsByProject(ctx, s.db, project.ID)
	if err != nil {
		return domain.QualifyDomainsResponse{}, err
	}

	pending := make([]*domain.BulkAnalysisDomain, 0, len(rows))
	for _, row := range rows {
		if row != nil && row.QualificationStatus == domain.QualificationPending {
			pending = append(pending, row)
		}
	}
	if len(pending) == 0 {
		return domain.QualifyDomainsResponse{}, nil
	}

	targetURLs, err := s.targetURLs(ctx, project.ClientID)
	if err != nil {
		return domain.QualifyDomainsResponse{}, err
	}

	resp := domain.QualifyDomainsResponse{}
	for i, row := range pending {
		verdict, err := s.enrich.QualifyDomain(ctx, row.Domain, targetURLs)
		if err != nil {
			if errors.Is(err, enrichdomain.ErrNotConfigured) {
				resp.Skipped += len(pending) - i
				break
			}
			s.log.Warn("domain qualification skipped",
				zap.String("project_id", project.ID.String()),
				zap.String("domain", row.Domain),
				zap.Error(err),
			)
			s.metrics.RecordEnrichmentFailure(ctx, "domain_qualification")
			resp.Skipped++
			continue
		}

		suggestion := datatypes.JSONMap{
			"status":    verdict.Status,
			"reasoning": verdict.Reasoning,
		}
		if err := s.repo.UpdateDomainQualification(ctx, s.db, row.ID, verdict.Status, suggestion); err != nil {
			s.log.Warn("domain qualification not persisted",
				zap.String("project_id", project.ID.String()),
				zap.String("domain", row.Domain),
				zap.Error(err),
			)
			resp.Skipped++
			continue
		}
		resp.Qualified++

		if project.OrderID != 0 {
			s.hub.Publish(project.OrderID.String(), liveevents.OrderEvent{
				OrderID:    project.OrderID.String(),
				Type:       liveevents.TypeDomainQualified,
				ProjectID:  project.ID.String(),
				Domain:     row.Domain,
				Status:     verdict.Status,
				OccurredAt: time.Now().UTC().Format(time.RFC3339),
			})
		}
	}
	return resp, nil
}

func (s *Service) loadProject(ctx context.Context, projectID string) (*domain.BulkAnalysisProject, error) {
	id, err := s.parseID(projectID)
	if err != nil {
		return nil, err
	}
	project, err := s.repo.FindProjectByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, domain.ErrNotFound
	}
	if err := s.authorizeClient(ctx, project.ClientID); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *Service) targetURLs(ctx context.Context, clientID snowflake.ID) ([]string, error) {
	pages, err := s.clientRepo.ListTargetPages(ctx, s.db, clientID)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(pages))
	for _, page := range pages {
		if page != nil {
			urls = append(urls, page.URL)
		}
	}
	return urls, nil
}

func (s *Service) authorizeClient(ctx context.Context, clientID snowflake.ID) error {
	actor, ok := actorctx.ActorFromContext(ctx)
	if !ok {
		return nil
	}
	if actor.UserType == actorctx.UserTypeAccount && actor.ClientID != clientID {
		return clientdomain.ErrForbidden
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

func normalizeDomain(raw string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.TrimPrefix(name, "https://")
	name = strings.TrimPrefix(name, "http://")
	name = strings.TrimPrefix(name, "www.")
	name = strings.TrimSuffix(name, "/")
	if name == "" || strings.ContainsAny(name, " /") || !strings.Contains(name, ".") {
		return "", domain.ErrInvalidDomain
	}
	return name, nil
}
