package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/linkwell/orderdesk/internal/actorctx"
	auditdomain "github.com/linkwell/orderdesk/internal/audit/domain"
	bulkdomain "github.com/linkwell/orderdesk/internal/bulkanalysis/domain"
	clientdomain "github.com/linkwell/orderdesk/internal/client/domain"
	enrichdomain "github.com/linkwell/orderdesk/internal/enrichment/domain"
	"github.com/linkwell/orderdesk/internal/liveevents"
	"github.com/linkwell/orderdesk/internal/observability/metrics"
	"github.com/linkwell/orderdesk/internal/order/domain"
	pkgdb "github.com/linkwell/orderdesk/pkg/db"
	"github.com/linkwell/orderdesk/pkg/db/pagination"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultShareDays = 30

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	BulkRepo   bulkdomain.Repository
	ClientRepo clientdomain.Repository
	Enrich     enrichdomain.Service
	Audit      auditdomain.Service
	Hub        *liveevents.Hub
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	bulkRepo   bulkdomain.Repository
	clientRepo clientdomain.Repository
	enrich     enrichdomain.Service
	audit      auditdomain.Service
	hub        *liveevents.Hub
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("order.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		bulkRepo:   p.BulkRepo,
		clientRepo: p.ClientRepo,
		enrich:     p.Enrich,
		audit:      p.Audit,
		hub:        p.Hub,
		metrics:    p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (domain.OrderDetail, error) {
	now := time.Now().UTC()
	order := domain.Order{
		ID:        s.genID.Generate(),
		Status:    domain.StatusDraft,
		Currency:  normalizeCurrency(req.Currency),
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if actor, ok := actorctx.ActorFromContext(ctx); ok {
		order.CreatedBy = actor.UserID
	}

	items, err := s.buildLineItems(ctx, order.ID, req.LineItems, now)
	if err != nil {
		return domain.OrderDetail{}, err
	}
	for _, item := range items {
		order.RetailTotal += item.RetailPrice
		order.WholesaleTotal += item.WholesalePrice
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &order); err != nil {
			return err
		}
		return s.repo.InsertLineItems(ctx, tx, items)
	})
	if err != nil {
		return domain.OrderDetail{}, err
	}

	return domain.OrderDetail{Order: order, LineItems: deref(items)}, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (domain.OrderDetail, error) {
	id, err := s.parseID(orderID)
	if err != nil {
		return domain.OrderDetail{}, err
	}

	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.OrderDetail{}, err
	}
	if order == nil {
		return domain.OrderDetail{}, domain.ErrNotFound
	}

	items, err := s.repo.ListLineItems(ctx, s.db, id)
	if err != nil {
		return domain.OrderDetail{}, err
	}
	if err := s.authorizeOrderRead(ctx, items); err != nil {
		return domain.OrderDetail{}, err
	}

	return domain.OrderDetail{Order: *order, LineItems: deref(items)}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListOrdersRequest) (domain.ListOrdersResponse, error) {
	var clientID snowflake.ID
	if req.ClientID != "" {
		id, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
		if err != nil {
			return domain.ListOrdersResponse{}, domain.ErrInvalidID
		}
		clientID = id
	}
	// Account users are pinned to their own client regardless of the filter.
	if actor, ok := actorctx.ActorFromContext(ctx); ok && actor.UserType == actorctx.UserTypeAccount {
		clientID = actor.ClientID
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, clientID, strings.TrimSpace(req.Status), pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListOrdersResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(order *domain.Order) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        order.ID.String(),
			CreatedAt: order.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	resp := domain.ListOrdersResponse{Orders: deref(items)}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) SubmitForConfirmation(ctx context.Context, orderID string) (domain.Order, error) {
	id, err := s.parseID(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Order{}, err
	}
	if order == nil {
		return domain.Order{}, domain.ErrNotFound
	}
	if order.Status != domain.StatusDraft {
		return domain.Order{}, domain.ErrNotDraft
	}

	items, err := s.repo.ListLineItems(ctx, s.db, id)
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.authorizeOrderRead(ctx, items); err != nil {
		return domain.Order{}, err
	}
	if countActive(items) == 0 {
		return domain.Order{}, domain.ErrNoLineItems
	}

	if err := s.repo.Update(ctx, s.db, id, map[string]any{
		"status": domain.StatusPendingConfirmation,
	}); err != nil {
		return domain.Order{}, err
	}
	order.Status = domain.StatusPendingConfirmation
	return *order, nil
}

func (s *Service) AddLineItems(ctx context.Context, orderID string, inputs []domain.LineItemInput) (domain.OrderDetail, error) {
	id, err := s.parseID(orderID)
	if err != nil {
		return domain.OrderDetail{}, err
	}
	if len(inputs) == 0 {
		return domain.OrderDetail{}, domain.ErrInvalidLineItem
	}

	var detail domain.OrderDetail
	err = s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if order.Status != domain.StatusDraft && order.Status != domain.StatusPendingConfirmation {
			return domain.ErrNotDraft
		}

		existing, err := s.repo.ListLineItems(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.authorizeOrderRead(ctx, existing); err != nil {
			return err
		}

		items, err := s.buildLineItems(ctx, id, inputs, time.Now().UTC())
		if err != nil {
			return err
		}
		if err := s.repo.InsertLineItems(ctx, tx, items); err != nil {
			return err
		}

		all := append(existing, items...)
		if err := s.updateTotals(ctx, tx, id, all); err != nil {
			return err
		}

		updated, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		detail = domain.OrderDetail{Order: *updated, LineItems: deref(all)}
		return nil
	})
	if err != nil {
		return domain.OrderDetail{}, err
	}
	return detail, nil
}

func (s *Service) CancelLineItem(ctx context.Context, orderID, lineItemID string) error {
	id, err := s.parseID(orderID)
	if err != nil {
		return err
	}
	itemID, err := snowflake.ParseString(strings.TrimSpace(lineItemID))
	if err != nil {
		return domain.ErrLineItemNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindLineItemByID(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item == nil || item.OrderID != id {
			return domain.ErrLineItemNotFound
		}
		if err := s.authorizeOrderRead(ctx, []*domain.OrderLineItem{item}); err != nil {
			return err
		}
		if item.Status == domain.LineItemCancelled {
			return nil
		}

		if err := s.repo.UpdateLineItem(ctx, tx, itemID, map[string]any{
			"status": domain.LineItemCancelled,
		}); err != nil {
			return err
		}

		items, err := s.repo.ListLineItems(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.updateTotals(ctx, tx, id, items)
	})
}

func (s *Service) DeleteDraft(ctx context.Context, orderID string) error {
	if !actorctx.IsInternal(ctx) {
		return domain.ErrForbidden
	}
	id, err := s.parseID(orderID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if order.Status != domain.StatusDraft {
			return domain.ErrNotDraft
		}
		if err := s.repo.DeleteLineItemsByOrder(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, id)
	})
}

func (s *Service) Confirm(ctx context.Context, req domain.ConfirmOrderRequest) (domain.ConfirmOrderResponse, error) {
	if !actorctx.IsInternal(ctx) {
		return domain.ConfirmOrderResponse{}, domain.ErrForbidden
	}
	orderID, err := s.parseID(req.OrderID)
	if err != nil {
		return domain.ConfirmOrderResponse{}, err
	}

	var assignedTo snowflake.ID
	if strings.TrimSpace(req.AssignedTo) != "" {
		assignedTo, err = snowflake.ParseString(strings.TrimSpace(req.AssignedTo))
		if err != nil {
			return domain.ConfirmOrderResponse{}, domain.ErrInvalidAssignee
		}
	}

	out := domain.ConfirmOrderResponse{
		ProjectTargetPages: map[string][]string{},
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if order.Status != domain.StatusPendingConfirmation {
			return domain.ErrNotPendingConfirm
		}

		items, err := s.repo.ListLineItems(ctx, tx, orderID)
		if err != nil {
			return err
		}
		active := activeItems(items)
		if len(active) == 0 {
			return domain.ErrNoLineItems
		}

		now := time.Now().UTC()
		for _, clientID := range clientOrder(active) {
			group := itemsForClient(active, clientID)
			project, created, err := s.reuseOrCreateProject(ctx, tx, orderID, clientID, group, now)
			if err != nil {
				return err
			}
			pageIDs := targetPageIDs(group)
			if created {
				out.ProjectsCreated++
				out.Projects = append(out.Projects, *project)
				out.ProjectTargetPages[project.ID.String()] = idStrings(pageIDs)
			}

			s.enrichTargetPages(ctx, tx, pageIDs)

			for _, item := range group {
				metadata := item.Metadata
				if metadata == nil {
					metadata = datatypes.JSONMap{}
				}
				metadata[domain.MetadataKeyProjectID] = project.ID.String()
				if err := s.repo.UpdateLineItem(ctx, tx, item.ID, map[string]any{
					"metadata": metadata,
				}); err != nil {
					return err
				}
			}
		}

		fields := map[string]any{
			"status":      domain.StatusConfirmed,
			"state":       domain.StateAnalyzing,
			"approved_at": now,
		}
		if assignedTo != 0 {
			fields["assigned_to"] = assignedTo
		}
		if err := s.repo.Update(ctx, tx, orderID, fields); err != nil {
			return err
		}

		updated, err := s.repo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		out.Order = *updated
		return nil
	})
	if err != nil {
		return domain.ConfirmOrderResponse{}, err
	}

	s.snapshotConfirmation(ctx, out.Order)
	s.metrics.RecordOrderConfirmed(ctx, out.ProjectsCreated)

	s.hub.Publish(out.Order.ID.String(), liveevents.OrderEvent{
		OrderID:    out.Order.ID.String(),
		Type:       liveevents.TypeOrderConfirmed,
		Status:     out.Order.Status,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	for _, project := range out.Projects {
		s.hub.Publish(out.Order.ID.String(), liveevents.OrderEvent{
			OrderID:    out.Order.ID.String(),
			Type:       liveevents.TypeProjectCreated,
			ProjectID:  project.ID.String(),
			OccurredAt: time.Now().UTC().Format(time.RFC3339),
		})
	}

	return out, nil
}

func (s *Service) GenerateShareLink(ctx context.Context, orderID string, validDays int) (domain.ShareLink, error) {
	if !actorctx.IsInternal(ctx) {
		return domain.ShareLink{}, domain.ErrForbidden
	}
	id, err := s.parseID(orderID)
	if err != nil {
		return domain.ShareLink{}, err
	}

	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.ShareLink{}, err
	}
	if order == nil {
		return domain.ShareLink{}, domain.ErrNotFound
	}

	if validDays <= 0 {
		validDays = defaultShareDays
	}
	token := newShareToken()
	expiresAt := time.Now().UTC().Add(time.Duration(validDays) * 24 * time.Hour)

	if err := s.repo.Update(ctx, s.db, id, map[string]any{
		"share_token":      token,
		"share_expires_at": expiresAt,
	}); err != nil {
		return domain.ShareLink{}, err
	}

	return domain.ShareLink{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}, nil
}

// reuseOrCreateProject returns the analysis project for (order, client),
// creating it when absent. A duplicate key error means a concurrent
// confirmation won the insert; the winner's row is reused.
func (s *Service) reuseOrCreateProject(ctx context.Context, tx *gorm.DB, orderID, clientID snowflake.ID, group []*domain.OrderLineItem, now time.Time) (*bulkdomain.BulkAnalysisProject, bool, error) {
	project, err := s.bulkRepo.FindProjectByOrderAndClient(ctx, tx, orderID, clientID)
	if err != nil {
		return nil, false, err
	}
	if project != nil {
		return project, false, nil
	}

	clientName := clientID.String()
	client, err := s.clientRepo.FindByID(ctx, tx, clientID)
	if err != nil {
		return nil, false, err
	}
	if client != nil {
		clientName = client.Name
	}

	pageIDs := targetPageIDs(group)
	tags := make([]string, 0, len(pageIDs)+2)
	tags = append(tags, bulkdomain.OrderTag(orderID), fmt.Sprintf("links:%d", len(group)))
	for _, pageID := range pageIDs {
		tags = append(tags, "page:"+pageID.String())
	}

	project = &bulkdomain.BulkAnalysisProject{
		ID:        s.genID.Generate(),
		ClientID:  clientID,
		OrderID:   orderID,
		Name:      fmt.Sprintf("order-%s-%s", orderID.String(), slug.Make(clientName)),
		Tags:      datatypes.JSONSlice[string](tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.bulkRepo.InsertProject(ctx, tx, project); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			existing, findErr := s.bulkRepo.FindProjectByOrderAndClient(ctx, tx, orderID, clientID)
			if findErr != nil {
				return nil, false, findErr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return project, true, nil
}

// enrichTargetPages backfills keywords and descriptions for pages missing
// them. Failures are logged and skipped, never fatal.
func (s *Service) enrichTargetPages(ctx context.Context, tx *gorm.DB, pageIDs []snowflake.ID) {
	for _, pageID := range pageIDs {
		page, err := s.clientRepo.FindTargetPageByID(ctx, tx, pageID)
		if err != nil || page == nil {
			continue
		}
		if page.Keywords != "" && page.Description != "" {
			continue
		}

		enriched, err := s.enrich.EnrichTargetPage(ctx, page.URL)
		if err != nil {
			if !errors.Is(err, enrichdomain.ErrNotConfigured) {
				s.log.Warn("target page enrichment skipped",
					zap.String("target_page_id", pageID.String()),
					zap.Error(err),
				)
				s.metrics.RecordEnrichmentFailure(ctx, "target_page")
			}
			continue
		}

		keywords := page.Keywords
		if keywords == "" {
			keywords = enriched.Keywords
		}
		description := page.Description
		if description == "" {
			description = enriched.Description
		}
		if err := s.clientRepo.UpdateTargetPageEnrichment(ctx, tx, pageID, keywords, description); err != nil {
			s.log.Warn("target page enrichment not persisted",
				zap.String("target_page_id", pageID.String()),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) snapshotConfirmation(ctx context.Context, order domain.Order) {
	items, err := s.repo.ListLineItems(ctx, s.db, order.ID)
	if err != nil {
		s.log.Warn("order snapshot skipped", zap.String("order_id", order.ID.String()), zap.Error(err))
		return
	}
	snapshot := map[string]any{
		"order":      order,
		"line_items": deref(items),
	}
	if err := s.audit.SnapshotOrder(ctx, order.ID.String(), snapshot); err != nil {
		s.log.Warn("order snapshot failed", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
	if err := s.audit.Record(ctx, auditdomain.RecordRequest{
		Action:     "order.confirmed",
		TargetType: "order",
		TargetID:   order.ID.String(),
		Metadata:   map[string]any{"status": order.Status, "state": order.State},
	}); err != nil {
		s.log.Warn("audit record failed", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}

func (s *Service) buildLineItems(ctx context.Context, orderID snowflake.ID, inputs []domain.LineItemInput, now time.Time) ([]*domain.OrderLineItem, error) {
	actor, hasActor := actorctx.ActorFromContext(ctx)
	items := make([]*domain.OrderLineItem, 0, len(inputs))
	for _, input := range inputs {
		clientID, err := snowflake.ParseString(strings.TrimSpace(input.ClientID))
		if err != nil || clientID == 0 {
			return nil, domain.ErrInvalidLineItem
		}
		if hasActor && actor.UserType == actorctx.UserTypeAccount && actor.ClientID != clientID {
			return nil, domain.ErrForbidden
		}
		var targetPageID snowflake.ID
		if strings.TrimSpace(input.TargetPageID) != "" {
			targetPageID, err = snowflake.ParseString(strings.TrimSpace(input.TargetPageID))
			if err != nil {
				return nil, domain.ErrInvalidLineItem
			}
		}
		if input.RetailPrice < 0 || input.WholesalePrice < 0 {
			return nil, domain.ErrInvalidLineItem
		}
		items = append(items, &domain.OrderLineItem{
			ID:             s.genID.Generate(),
			OrderID:        orderID,
			ClientID:       clientID,
			TargetPageID:   targetPageID,
			Status:         domain.LineItemPending,
			RetailPrice:    input.RetailPrice,
			WholesalePrice: input.WholesalePrice,
			Metadata:       datatypes.JSONMap{},
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return items, nil
}

func (s *Service) updateTotals(ctx context.Context, tx *gorm.DB, orderID snowflake.ID, items []*domain.OrderLineItem) error {
	var retail, wholesale int64
	for _, item := range items {
		if item == nil || !domain.ActiveLineItem(*item) {
			continue
		}
		retail += item.RetailPrice
		wholesale += item.WholesalePrice
	}
	return s.repo.Update(ctx, tx, orderID, map[string]any{
		"retail_total":    retail,
		"wholesale_total": wholesale,
	})
}

// authorizeOrderRead lets internal staff through, and account users only when
// the order touches their client.
func (s *Service) authorizeOrderRead(ctx context.Context, items []*domain.OrderLineItem) error {
	actor, ok := actorctx.ActorFromContext(ctx)
	if !ok || actor.UserType != actorctx.UserTypeAccount {
		return nil
	}
	if len(items) == 0 {
		return domain.ErrForbidden
	}
	for _, item := range items {
		if item != nil && item.ClientID == actor.ClientID {
			return nil
		}
	}
	return domain.ErrForbidden
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func newShareToken() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

func normalizeCurrency(currency string) string {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return "usd"
	}
	return currency
}

func activeItems(items []*domain.OrderLineItem) []*domain.OrderLineItem {
	out := make([]*domain.OrderLineItem, 0, len(items))
	for _, item := range items {
		if item != nil && domain.ActiveLineItem(*item) {
			out = append(out, item)
		}
	}
	return out
}

func countActive(items []*domain.OrderLineItem) int {
	return len(activeItems(items))
}

// clientOrder returns the distinct client ids in first-seen order.
func clientOrder(items []*domain.OrderLineItem) []snowflake.ID {
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

func itemsForClient(items []*domain.OrderLineItem, clientID snowflake.ID) []*domain.OrderLineItem {
	out := make([]*domain.OrderLineItem, 0, len(items))
	for _, item := range items {
		if item.ClientID == clientID {
			out = append(out, item)
		}
	}
	return out
}

func targetPageIDs(items []*domain.OrderLineItem) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(items))
	ids := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		if item.TargetPageID == 0 {
			continue
		}
		if _, ok := seen[item.TargetPageID]; ok {
			continue
		}
		seen[item.TargetPageID] = struct{}{}
		ids = append(ids, item.TargetPageID)
	}
	return ids
}

func idStrings(ids []snowflake.ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func deref[T any](items []*T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out
}
