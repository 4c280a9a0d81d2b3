package service

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/linkwell/orderdesk/internal/actorctx"
	auditdomain "github.com/linkwell/orderdesk/internal/audit/domain"
	bulkdomain "github.com/linkwell/orderdesk/internal/bulkanalysis/domain"
	bulkrepository "github.com/linkwell/orderdesk/internal/bulkanalysis/repository"
	clientdomain "github.com/linkwell/orderdesk/internal/client/domain"
	clientrepository "github.com/linkwell/orderdesk/internal/client/repository"
	enrichdomain "github.com/linkwell/orderdesk/internal/enrichment/domain"
	"github.com/linkwell/orderdesk/internal/liveevents"
	"github.com/linkwell/orderdesk/internal/order/domain"
	"github.com/linkwell/orderdesk/internal/order/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type enrichFake struct {
	mu         sync.Mutex
	configured bool
	enriched   []string
}

func (f *enrichFake) EnrichTargetPage(ctx context.Context, pageURL string) (enrichdomain.PageEnrichment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.configured {
		return enrichdomain.PageEnrichment{}, enrichdomain.ErrNotConfigured
	}
	f.enriched = append(f.enriched, pageURL)
	return enrichdomain.PageEnrichment{
		Keywords:    "seo, backlinks",
		Description: "generated description",
	}, nil
}

func (f *enrichFake) QualifyDomain(ctx context.Context, domainName string, targetURLs []string) (enrichdomain.DomainVerdict, error) {
	return enrichdomain.DomainVerdict{}, enrichdomain.ErrNotConfigured
}

type auditFake struct {
	mu        sync.Mutex
	records   []auditdomain.RecordRequest
	snapshots []string
}

func (f *auditFake) Record(ctx context.Context, req auditdomain.RecordRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, req)
	return nil
}

func (f *auditFake) SnapshotOrder(ctx context.Context, orderID string, snapshot map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, orderID)
	return nil
}

func (f *auditFake) ListLogs(ctx context.Context, req auditdomain.ListLogsRequest) (auditdomain.ListLogsResponse, error) {
	return auditdomain.ListLogsResponse{}, nil
}

type testEnv struct {
	svc    domain.Service
	db     *gorm.DB
	genID  *snowflake.Node
	enrich *enrichFake
	audit  *auditFake
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.Order{},
		&domain.OrderLineItem{},
		&bulkdomain.BulkAnalysisProject{},
		&bulkdomain.BulkAnalysisDomain{},
		&clientdomain.Client{},
		&clientdomain.TargetPage{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	enrich := &enrichFake{}
	audit := &auditFake{}

	svc := New(Params{
		DB:         conn,
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       repository.Provide(),
		BulkRepo:   bulkrepository.Provide(),
		ClientRepo: clientrepository.Provide(),
		Enrich:     enrich,
		Audit:      audit,
		Hub:        liveevents.NewHub(),
	})

	return &testEnv{svc: svc, db: conn, genID: node, enrich: enrich, audit: audit}
}

func internalCtx(env *testEnv) context.Context {
	return actorctx.WithActor(context.Background(), actorctx.Actor{
		UserID:   env.genID.Generate(),
		UserType: actorctx.UserTypeInternal,
	})
}

func accountCtx(env *testEnv, clientID snowflake.ID) context.Context {
	return actorctx.WithActor(context.Background(), actorctx.Actor{
		UserID:   env.genID.Generate(),
		UserType: actorctx.UserTypeAccount,
		ClientID: clientID,
	})
}

func (env *testEnv) createClient(t *testing.T, name string) clientdomain.Client {
	t.Helper()
	client := clientdomain.Client{
		ID:    env.genID.Generate(),
		Name:  name,
		Email: name + "@example.com",
	}
	require.NoError(t, env.db.Create(&client).Error)
	return client
}

func (env *testEnv) createTargetPage(t *testing.T, clientID snowflake.ID, url string) clientdomain.TargetPage {
	t.Helper()
	page := clientdomain.TargetPage{
		ID:       env.genID.Generate(),
		ClientID: clientID,
		URL:      url,
		Status:   "active",
	}
	require.NoError(t, env.db.Create(&page).Error)
	return page
}

func (env *testEnv) pendingOrder(t *testing.T, ctx context.Context, items []domain.LineItemInput) domain.Order {
	t.Helper()
	detail, err := env.svc.Create(ctx, domain.CreateOrderRequest{
		Currency:  "usd",
		LineItems: items,
	})
	require.NoError(t, err)
	order, err := env.svc.SubmitForConfirmation(ctx, detail.Order.ID.String())
	require.NoError(t, err)
	return order
}

func TestConfirmRequiresInternalActor(t *testing.T) {
	env := newTestEnv(t)
	client := env.createClient(t, "acme")

	ctx := internalCtx(env)
	order := env.pendingOrder(t, ctx, []domain.LineItemInput{
		{ClientID: client.ID.String(), RetailPrice: 100},
	})

	_, err := env.svc.Confirm(accountCtx(env, client.ID), domain.ConfirmOrderRequest{
		OrderID: order.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestConfirmRequiresPendingConfirmation(t *testing.T) {
	env := newTestEnv(t)
	client := env.createClient(t, "acme")
	ctx := internalCtx(env)

	detail, err := env.svc.Create(ctx, domain.CreateOrderRequest{
		LineItems: []domain.LineItemInput{{ClientID: client.ID.String(), RetailPrice: 100}},
	})
	require.NoError(t, err)

	_, err = env.svc.Confirm(ctx, domain.ConfirmOrderRequest{OrderID: detail.Order.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotPendingConfirm)
}

func TestConfirmCreatesOneProjectPerClient(t *testing.T) {
	env := newTestEnv(t)
	alpha := env.createClient(t, "alpha industries")
	beta := env.createClient(t, "beta corp")
	ctx := internalCtx(env)

	pageA := env.createTargetPage(t, alpha.ID, "https://alpha.example.com/pricing")
	pageB := env.createTargetPage(t, alpha.ID, "https://alpha.example.com/features")
	pageC := env.createTargetPage(t, beta.ID, "https://beta.example.com/")

	order := env.pendingOrder(t, ctx, []domain.LineItemInput{
		{ClientID: alpha.ID.String(), TargetPageID: pageA.ID.String(), RetailPrice: 300, WholesalePrice: 100},
		{ClientID: alpha.ID.String(), TargetPageID: pageB.ID.String(), RetailPrice: 250, WholesalePrice: 90},
		{ClientID: beta.ID.String(), TargetPageID: pageC.ID.String(), RetailPrice: 400, WholesalePrice: 150},
	})

	resp, err := env.svc.Confirm(ctx, domain.ConfirmOrderRequest{OrderID: order.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.ProjectsCreated)
	require.Len(t, resp.Projects, 2)
	assert.Equal(t, domain.StatusConfirmed, resp.Order.Status)
	assert.Equal(t, domain.StateAnalyzing, resp.Order.State)
	require.NotNil(t, resp.Order.ApprovedAt)

	for _, project := range resp.Projects {
		assert.Equal(t, order.ID, project.OrderID)
		assert.Contains(t, []string(project.Tags), bulkdomain.OrderTag(order.ID))
	}

	// Every active line item carries its project id in metadata.
	var items []domain.OrderLineItem
	require.NoError(t, env.db.Where("order_id = ?", order.ID).Find(&items).Error)
	require.Len(t, items, 3)
	for _, item := range items {
		projectID, ok := item.Metadata[domain.MetadataKeyProjectID].(string)
		require.True(t, ok, "line item missing project id metadata")
		assert.NotEmpty(t, projectID)
	}

	assert.Contains(t, env.audit.snapshots, order.ID.String())
}

func TestConfirmSecondRunRejected(t *testing.T) {
	env := newTestEnv(t)
	client := env.createClient(t, "acme")
	ctx := internalCtx(env)

	order := env.pendingOrder(t, ctx, []domain.LineItemInput{
		{ClientID: client.ID.String(), RetailPrice: 100},
	})

	_, err := env.svc.Confirm(ctx, domain.ConfirmOrderRequest{OrderID: order.ID.String()})
	require.NoError(t, err)

	_, err = env.svc.Confirm(ctx, domain.ConfirmOrderRequest{OrderID: order.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotPendingConfirm)
}

func TestConfirmReusesExistingProject(t *testing.T) {
	env := newTestEnv(t)
	client := env.createClient(t, "acme")
	ctx := internalCtx(env)

	order := env.pendingOrder(t, ctx, []domain.LineItemInput{
		{ClientID: client.ID.String(), RetailPrice: 100},
	})

	// A project already tagged to this (order, client) pair must be reused.
	existing := bulkdomain.BulkAnalysisProject{
		ID:       env.genID.Generate(),
		ClientID: client.ID,
		OrderID:  order.ID,
		Name:     "preexisting",
	}
	require.NoError(t, env.db.Create(&existing).Error)

	resp, err := env.svc.Confirm(ctx, domain.ConfirmOrderRequest{OrderID: order.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.ProjectsCreated)

	var count int64
	require.NoError(t, env.db.Model(&bulkdomain.BulkAnalysisProject{}).
		Where("order_id = ? AND client_id = ?", order.ID, client.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestConfirmEnrichesBlankTargetPages(t *testing.T) {
	env := newTestEnv(t)
	env.enrich.configured = true
	client := env.createClient(t, "acme")
	ctx := internalCtx(env)

	blank := env.createTargetPage(t, client.ID, "https://acme.example.com/")
	filled := clientdomain.TargetPage{
		ID:          env.genID.Generate(),
		ClientID:    client.ID,
		URL:         "https://acme.example.com/done",
		Keywords:    "existing",
		Description: "existing",
		Status:      "active",
	}
	require.NoError(t, env.db.Create(&filled).Error)

	order := env.pendingOrder(t, ctx, []domain.LineItemInput{
		{ClientID: client.ID.String(), TargetPageID: blank.ID.String(), RetailPrice: 100},
		{ClientID: client.ID.String(), TargetPageID: filled.ID.String(), RetailPrice: 100},
	})

	_, err := env.svc.Confirm(ctx, domain.ConfirmOrderRequest{OrderID: order.ID.String()})
	require.NoError(t, err)

	// Only the blank page is sent for enrichment.
	assert.Equal(t, []string{blank.URL}, env.enrich.enriched)

	var reloaded clientdomain.TargetPage
	require.NoError(t, env.db.First(&reloaded, "id = ?", blank.ID).Error)
	assert.Equal(t, "seo, backlinks", reloaded.Keywords)
	assert.Equal(t, "generated description", reloaded.Description)
}

func TestConfirmCancelledItemsExcluded(t *testing.T) {
	env := newTestEnv(t)
	client := env.createClient(t, "acme")
	other := env.createClient(t, "other")
	ctx := internalCtx(env)

	detail, err := env.svc.Create(ctx, domain.CreateOrderRequest{
		LineItems: []domain.LineItemInput{
			{ClientID: client.ID.String(), RetailPrice: 100},
			{ClientID: other.ID.String(), RetailPrice: 200},
		},
	})
	require.NoError(t, err)
	orderID := detail.Order.ID.String()

	// Cancel the second client's only item before confirmation.
	var cancelled domain.OrderLineItem
	for _, item := range detail.LineItems {
		if item.ClientID == other.ID {
			cancelled = item
		}
	}
	require.NoError(t, env.svc.CancelLineItem(ctx, orderID, cancelled.ID.String()))

	_, err = env.svc.SubmitForConfirmation(ctx, orderID)
	require.NoError(t, err)

	resp, err := env.svc.Confirm(ctx, domain.ConfirmOrderRequest{OrderID: orderID})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProjectsCreated)

	var count int64
	require.NoError(t, env.db.Model(&bulkdomain.BulkAnalysisProject{}).
		Where("client_id = ?", other.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmitRequiresActiveLineItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := internalCtx(env)

	detail, err := env.svc.Create(ctx, domain.CreateOrderRequest{})
	require.NoError(t, err)

	_, err = env.svc.SubmitForConfirmation(ctx, detail.Order.ID.String())
	assert.ErrorIs(t, err, domain.ErrNoLineItems)
}

func TestGenerateShareLink(t *testing.T) {
	env := newTestEnv(t)
	client := env.createClient(t, "acme")
	ctx := internalCtx(env)

	detail, err := env.svc.Create(ctx, domain.CreateOrderRequest{
		LineItems: []domain.LineItemInput{{ClientID: client.ID.String(), RetailPrice: 100}},
	})
	require.NoError(t, err)

	link, err := env.svc.GenerateShareLink(ctx, detail.Order.ID.String(), 0)
	require.NoError(t, err)
	assert.NotEmpty(t, link.Token)
	assert.NotEmpty(t, link.ExpiresAt)

	var order domain.Order
	require.NoError(t, env.db.First(&order, "id = ?", detail.Order.ID).Error)
	assert.Equal(t, link.Token, order.ShareToken)
	require.NotNil(t, order.ShareExpiresAt)

	_, err = env.svc.GenerateShareLink(accountCtx(env, client.ID), detail.Order.ID.String(), 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAccountUserScopedToOwnClient(t *testing.T) {
	env := newTestEnv(t)
	mine := env.createClient(t, "mine")
	theirs := env.createClient(t, "theirs")
	ctx := internalCtx(env)

	detail, err := env.svc.Create(ctx, domain.CreateOrderRequest{
		LineItems: []domain.LineItemInput{{ClientID: theirs.ID.String(), RetailPrice: 100}},
	})
	require.NoError(t, err)

	_, err = env.svc.Get(accountCtx(env, mine.ID), detail.Order.ID.String())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.svc.Get(accountCtx(env, theirs.ID), detail.Order.ID.String())
	assert.NoError(t, err)
}
