package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	bulkdomain "github.com/linkwell/orderdesk/internal/bulkanalysis/domain"
	bulkrepository "github.com/linkwell/orderdesk/internal/bulkanalysis/repository"
	clientdomain "github.com/linkwell/orderdesk/internal/client/domain"
	clientrepository "github.com/linkwell/orderdesk/internal/client/repository"
	orderdomain "github.com/linkwell/orderdesk/internal/order/domain"
	orderrepository "github.com/linkwell/orderdesk/internal/order/repository"
	"github.com/linkwell/orderdesk/internal/shareview/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	svc   domain.Service
	db    *gorm.DB
	genID *snowflake.Node
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&orderdomain.Order{},
		&orderdomain.OrderLineItem{},
		&bulkdomain.BulkAnalysisProject{},
		&bulkdomain.BulkAnalysisDomain{},
		&clientdomain.Client{},
		&clientdomain.TargetPage{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	svc := New(Params{
		DB:         conn,
		Log:        zap.NewNop(),
		OrderRepo:  orderrepository.Provide(),
		ClientRepo: clientrepository.Provide(),
		BulkRepo:   bulkrepository.Provide(),
	})

	return &testEnv{svc: svc, db: conn, genID: node}
}

func (env *testEnv) seedOrder(t *testing.T, token string, expiresAt *time.Time) orderdomain.Order {
	t.Helper()
	order := orderdomain.Order{
		ID:             env.genID.Generate(),
		Status:         orderdomain.StatusConfirmed,
		State:          orderdomain.StateAnalyzing,
		RetailTotal:    500,
		Currency:       "usd",
		ShareToken:     token,
		ShareExpiresAt: expiresAt,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	require.NoError(t, env.db.Create(&order).Error)
	return order
}

func (env *testEnv) seedLineItem(t *testing.T, orderID, clientID, domainID snowflake.ID, status string) orderdomain.OrderLineItem {
	t.Helper()
	item := orderdomain.OrderLineItem{
		ID:               env.genID.Generate(),
		OrderID:          orderID,
		ClientID:         clientID,
		AssignedDomainID: domainID,
		Status:           status,
		RetailPrice:      250,
		WholesalePrice:   90,
	}
	require.NoError(t, env.db.Create(&item).Error)
	return item
}

func futureTime(d time.Duration) *time.Time {
	at := time.Now().UTC().Add(d)
	return &at
}

func TestResolveUnknownToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Resolve(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, orderdomain.ErrShareLinkNotFound)

	_, err = env.svc.Resolve(context.Background(), "  ")
	assert.ErrorIs(t, err, orderdomain.ErrShareLinkNotFound)
}

func TestResolveExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, "expired-token", futureTime(-time.Hour))

	_, err := env.svc.Resolve(context.Background(), "expired-token")
	assert.ErrorIs(t, err, orderdomain.ErrShareLinkExpired)
}

func TestResolveHidesWholesaleAndCancelledItems(t *testing.T) {
	env := newTestEnv(t)
	client := clientdomain.Client{ID: env.genID.Generate(), Name: "acme", Email: "acme@example.com"}
	require.NoError(t, env.db.Create(&client).Error)

	order := env.seedOrder(t, "live-token", futureTime(time.Hour))
	env.seedLineItem(t, order.ID, client.ID, 0, orderdomain.LineItemPending)
	env.seedLineItem(t, order.ID, client.ID, 0, orderdomain.LineItemCancelled)

	view, err := env.svc.Resolve(context.Background(), "live-token")
	require.NoError(t, err)

	assert.Equal(t, order.ID.String(), view.Order.ID)
	assert.Equal(t, int64(500), view.Order.RetailTotal)
	require.Len(t, view.Clients, 1)
	assert.Equal(t, "acme", view.Clients[0].ClientName)
	assert.Len(t, view.Clients[0].LineItems, 1, "cancelled items are hidden")
}

func TestResolveUsesTaggedProjects(t *testing.T) {
	env := newTestEnv(t)
	client := clientdomain.Client{ID: env.genID.Generate(), Name: "acme", Email: "acme@example.com"}
	require.NoError(t, env.db.Create(&client).Error)

	order := env.seedOrder(t, "tagged-token", futureTime(time.Hour))
	env.seedLineItem(t, order.ID, client.ID, 0, orderdomain.LineItemPending)

	project := bulkdomain.BulkAnalysisProject{
		ID:       env.genID.Generate(),
		ClientID: client.ID,
		OrderID:  order.ID,
		Name:     "order-project",
	}
	require.NoError(t, env.db.Create(&project).Error)

	// A stray project for the same client without the order linkage must not
	// leak into the view when a tagged project exists.
	stray := bulkdomain.BulkAnalysisProject{
		ID:       env.genID.Generate(),
		ClientID: client.ID,
		Name:     "stray",
	}
	require.NoError(t, env.db.Create(&stray).Error)

	candidate := bulkdomain.BulkAnalysisDomain{
		ID:                  env.genID.Generate(),
		ProjectID:           project.ID,
		Domain:              "techblog.example.com",
		QualificationStatus: "high_quality",
	}
	require.NoError(t, env.db.Create(&candidate).Error)
	strayDomain := bulkdomain.BulkAnalysisDomain{
		ID:                  env.genID.Generate(),
		ProjectID:           stray.ID,
		Domain:              "stray.example.com",
		QualificationStatus: bulkdomain.QualificationPending,
	}
	require.NoError(t, env.db.Create(&strayDomain).Error)

	view, err := env.svc.Resolve(context.Background(), "tagged-token")
	require.NoError(t, err)

	require.Len(t, view.Clients, 1)
	require.Len(t, view.Clients[0].Domains, 1)
	assert.Equal(t, "techblog.example.com", view.Clients[0].Domains[0].Domain)
}

func TestResolveFallsBackToTimeWindow(t *testing.T) {
	env := newTestEnv(t)
	client := clientdomain.Client{ID: env.genID.Generate(), Name: "acme", Email: "acme@example.com"}
	require.NoError(t, env.db.Create(&client).Error)

	order := env.seedOrder(t, "legacy-token", futureTime(time.Hour))
	env.seedLineItem(t, order.ID, client.ID, 0, orderdomain.LineItemPending)

	// Legacy project: no order linkage, created shortly after the order.
	legacy := bulkdomain.BulkAnalysisProject{
		ID:        env.genID.Generate(),
		ClientID:  client.ID,
		Name:      "legacy",
		CreatedAt: order.CreatedAt.Add(2 * 24 * time.Hour),
	}
	require.NoError(t, env.db.Create(&legacy).Error)

	// Out-of-window project for the same client is ignored.
	old := bulkdomain.BulkAnalysisProject{
		ID:        env.genID.Generate(),
		ClientID:  client.ID,
		Name:      "old",
		CreatedAt: order.CreatedAt.Add(-30 * 24 * time.Hour),
	}
	require.NoError(t, env.db.Create(&old).Error)

	inWindow := bulkdomain.BulkAnalysisDomain{
		ID:                  env.genID.Generate(),
		ProjectID:           legacy.ID,
		Domain:              "legacy.example.com",
		QualificationStatus: bulkdomain.QualificationPending,
	}
	require.NoError(t, env.db.Create(&inWindow).Error)

	view, err := env.svc.Resolve(context.Background(), "legacy-token")
	require.NoError(t, err)

	require.Len(t, view.Clients, 1)
	require.Len(t, view.Clients[0].Domains, 1)
	assert.Equal(t, "legacy.example.com", view.Clients[0].Domains[0].Domain)
}

func TestResolveMarksAssignedDomains(t *testing.T) {
	env := newTestEnv(t)
	client := clientdomain.Client{ID: env.genID.Generate(), Name: "acme", Email: "acme@example.com"}
	require.NoError(t, env.db.Create(&client).Error)

	order := env.seedOrder(t, "assigned-token", futureTime(time.Hour))

	project := bulkdomain.BulkAnalysisProject{
		ID:       env.genID.Generate(),
		ClientID: client.ID,
		OrderID:  order.ID,
		Name:     "order-project",
	}
	require.NoError(t, env.db.Create(&project).Error)

	picked := bulkdomain.BulkAnalysisDomain{
		ID:                  env.genID.Generate(),
		ProjectID:           project.ID,
		Domain:              "picked.example.com",
		QualificationStatus: "high_quality",
	}
	other := bulkdomain.BulkAnalysisDomain{
		ID:                  env.genID.Generate(),
		ProjectID:           project.ID,
		Domain:              "other.example.com",
		QualificationStatus: "average_quality",
	}
	require.NoError(t, env.db.Create(&picked).Error)
	require.NoError(t, env.db.Create(&other).Error)

	env.seedLineItem(t, order.ID, client.ID, picked.ID, orderdomain.LineItemAssigned)

	view, err := env.svc.Resolve(context.Background(), "assigned-token")
	require.NoError(t, err)

	require.Len(t, view.Clients, 1)
	byDomain := map[string]bool{}
	for _, candidate := range view.Clients[0].Domains {
		byDomain[candidate.Domain] = candidate.AlreadyAssigned
	}
	assert.True(t, byDomain["picked.example.com"])
	assert.False(t, byDomain["other.example.com"])
}
