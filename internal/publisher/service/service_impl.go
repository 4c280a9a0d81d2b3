package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/linkwell/orderdesk/internal/publisher/domain"
	pkgdb "github.com/linkwell/orderdesk/pkg/db"
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
		log:   p.Log.Named("publisher.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) CreatePublisher(ctx context.Context, req domain.CreatePublisherRequest) (domain.Publisher, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Publisher{}, domain.ErrInvalidName
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = domain.SourceManual
	}
	if source != domain.SourceManual && source != domain.SourceShadow {
		return domain.Publisher{}, domain.ErrInvalidSource
	}

	now := time.Now().UTC()
	publisher := domain.Publisher{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     strings.TrimSpace(req.Email),
		Source:    source,
		Status:    "active",
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertPublisher(ctx, s.db, &publisher); err != nil {
		return domain.Publisher{}, err
	}
	return publisher, nil
}

func (s *Service) GetPublisher(ctx context.Context, id string) (domain.Publisher, error) {
	publisherID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || publisherID == 0 {
		return domain.Publisher{}, domain.ErrInvalidID
	}

	publisher, err := s.repo.FindPublisherByID(ctx, s.db, publisherID)
	if err != nil {
		return domain.Publisher{}, err
	}
	if publisher == nil {
		return domain.Publisher{}, domain.ErrNotFound
	}
	return *publisher, nil
}

func (s *Service) ListPublishers(ctx context.Context, req domain.ListPublishersRequest) (domain.ListPublishersResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.ListPublishers(ctx, s.db, strings.TrimSpace(req.Source), pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListPublishersResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(publisher *domain.Publisher) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        publisher.ID.String(),
			CreatedAt: publisher.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	publishers := make([]domain.Publisher, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		publishers = append(publishers, *item)
	}

	resp := domain.ListPublishersResponse{Publishers: publishers}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) CreateWebsite(ctx context.Context, req domain.CreateWebsiteRequest) (domain.Website, error) {
	domainName := normalizeDomain(req.Domain)
	if domainName == "" {
		return domain.Website{}, domain.ErrInvalidDomain
	}

	now := time.Now().UTC()
	website := domain.Website{
		ID:        s.genID.Generate(),
		Domain:    domainName,
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertWebsite(ctx, s.db, &website); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return domain.Website{}, domain.ErrWebsiteExists
		}
		return domain.Website{}, err
	}
	return website, nil
}

func (s *Service) CreateOffering(ctx context.Context, req domain.CreateOfferingRequest) (domain.OfferingDetail, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Price < 0 {
		return domain.OfferingDetail{}, domain.ErrOfferingInvalid
	}

	var publisherID, websiteID snowflake.ID
	var err error
	if strings.TrimSpace(req.PublisherID) != "" {
		publisherID, err = snowflake.ParseString(strings.TrimSpace(req.PublisherID))
		if err != nil {
			return domain.OfferingDetail{}, domain.ErrInvalidID
		}
	}
	if strings.TrimSpace(req.WebsiteID) != "" {
		websiteID, err = snowflake.ParseString(strings.TrimSpace(req.WebsiteID))
		if err != nil {
			return domain.OfferingDetail{}, domain.ErrOfferingInvalid
		}
	}

	offeringType := strings.TrimSpace(req.OfferingType)
	if offeringType == "" {
		offeringType = "guest_post"
	}

	now := time.Now().UTC()
	offering := domain.PublisherOffering{
		ID:           s.genID.Generate(),
		Name:         name,
		OfferingType: offeringType,
		Price:        req.Price,
		Currency:     normalizeCurrency(req.Currency),
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	rel := domain.PublisherOfferingRelationship{
		ID:          s.genID.Generate(),
		OfferingID:  offering.ID,
		PublisherID: publisherID,
		WebsiteID:   websiteID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertOffering(ctx, tx, &offering); err != nil {
			return err
		}
		return s.repo.InsertRelationship(ctx, tx, &rel)
	})
	if err != nil {
		return domain.OfferingDetail{}, err
	}

	return domain.OfferingDetail{
		Offering:      offering,
		Relationships: []domain.PublisherOfferingRelationship{rel},
	}, nil
}

func (s *Service) ListOfferings(ctx context.Context, req domain.ListOfferingsRequest) (domain.ListOfferingsResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.ListOfferings(ctx, s.db, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListOfferingsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(offering *domain.PublisherOffering) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        offering.ID.String(),
			CreatedAt: offering.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	offerings := make([]domain.OfferingDetail, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rels, err := s.repo.ListRelationshipsByOffering(ctx, s.db, item.ID)
		if err != nil {
			return domain.ListOfferingsResponse{}, err
		}
		detail := domain.OfferingDetail{Offering: *item}
		for _, rel := range rels {
			if rel != nil {
				detail.Relationships = append(detail.Relationships, *rel)
			}
		}
		offerings = append(offerings, detail)
	}

	resp := domain.ListOfferingsResponse{Offerings: offerings}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func normalizeDomain(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.TrimPrefix(name, "https://")
	name = strings.TrimPrefix(name, "http://")
	name = strings.TrimPrefix(name, "www.")
	name = strings.TrimSuffix(name, "/")
	if name == "" || strings.ContainsAny(name, " /") || !strings.Contains(name, ".") {
		return ""
	}
	return name
}

func normalizeCurrency(currency string) string {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return "usd"
	}
	return currency
}
