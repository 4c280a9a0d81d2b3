package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/linkwell/orderdesk/internal/actorctx"
	auditdomain "github.com/linkwell/orderdesk/internal/audit/domain"
	clientdomain "github.com/linkwell/orderdesk/internal/client/domain"
	"github.com/linkwell/orderdesk/internal/datarepair/domain"
	publisherdomain "github.com/linkwell/orderdesk/internal/publisher/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type auditFake struct {
	records []auditdomain.RecordRequest
}

func (a *auditFake) Record(_ context.Context, req auditdomain.RecordRequest) error {
	a.records = append(a.records, req)
	return nil
}

func (a *auditFake) SnapshotOrder(_ context.Context, _ string, _ map[string]any) error {
	return nil
}

func (a *auditFake) ListLogs(_ context.Context, _ auditdomain.ListLogsRequest) (auditdomain.ListLogsResponse, error) {
	return auditdomain.ListLogsResponse{}, nil
}

type testEnv struct {
	svc   domain.Service
	db    *gorm.DB
	genID *snowflake.Node
	audit *auditFake
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&clientdomain.Client{},
		&clientdomain.TargetPage{},
		&publisherdomain.PublisherOffering{},
		&publisherdomain.PublisherOfferingRelationship{},
		&publisherdomain.Website{},
	))

	// The shared in-memory database survives across tests in this package, so
	// start each test from empty tables.
	for _, table := range []string{
		"clients", "target_pages",
		"publisher_offerings", "publisher_offering_relationships", "websites",
	} {
		require.NoError(t, conn.Exec("DELETE FROM "+table).Error)
	}

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	audit := &auditFake{}
	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Audit: audit,
	})

	return &testEnv{svc: svc, db: conn, genID: node, audit: audit}
}

func internalCtx() context.Context {
	return actorctx.WithActor(context.Background(), actorctx.Actor{
		UserID:   42,
		UserType: actorctx.UserTypeInternal,
	})
}

func accountCtx(clientID snowflake.ID) context.Context {
	return actorctx.WithActor(context.Background(), actorctx.Actor{
		UserID:   43,
		UserType: actorctx.UserTypeAccount,
		ClientID: clientID,
	})
}

func TestRepairsRequireInternalActor(t *testing.T) {
	env := newTestEnv(t)
	ctx := accountCtx(7)

	_, err := env.svc.FixNullBytes(ctx, domain.Options{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = env.svc.FixDuplicateOfferings(ctx, domain.Options{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = env.svc.FixOrphanedOfferings(ctx, domain.Options{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestFixNullBytes(t *testing.T) {
	env := newTestEnv(t)

	dirty := clientdomain.Client{
		ID:    env.genID.Generate(),
		Name:  "Acme\x00 Co",
		Email: "acme@example.com",
	}
	clean := clientdomain.Client{
		ID:    env.genID.Generate(),
		Name:  "Globex",
		Email: "globex@example.com",
	}
	require.NoError(t, env.db.Create(&dirty).Error)
	require.NoError(t, env.db.Create(&clean).Error)

	page := clientdomain.TargetPage{
		ID:          env.genID.Generate(),
		ClientID:    dirty.ID,
		URL:         "https://acme.example.com/guides",
		Keywords:    "seo,\x00backlinks",
		Description: "imported\x00description",
	}
	require.NoError(t, env.db.Create(&page).Error)

	report, err := env.svc.FixNullBytes(internalCtx(), domain.Options{})
	require.NoError(t, err)

	assert.Equal(t, "null_bytes", report.Operation)
	assert.False(t, report.DryRun)
	assert.Equal(t, 3, report.Affected, "two page columns plus the client name")
	assert.Equal(t, 3, report.Repaired)

	var gotClient clientdomain.Client
	require.NoError(t, env.db.First(&gotClient, "id = ?", dirty.ID).Error)
	assert.Equal(t, "Acme Co", gotClient.Name)

	var gotPage clientdomain.TargetPage
	require.NoError(t, env.db.First(&gotPage, "id = ?", page.ID).Error)
	assert.Equal(t, "seo,backlinks", gotPage.Keywords)
	assert.Equal(t, "importeddescription", gotPage.Description)

	// A second pass finds nothing left to strip.
	again, err := env.svc.FixNullBytes(internalCtx(), domain.Options{})
	require.NoError(t, err)
	assert.Zero(t, again.Affected)
	assert.Zero(t, again.Repaired)
}

func TestFixNullBytesDryRun(t *testing.T) {
	env := newTestEnv(t)

	dirty := clientdomain.Client{
		ID:    env.genID.Generate(),
		Name:  "Acme\x00 Co",
		Email: "acme@example.com",
	}
	require.NoError(t, env.db.Create(&dirty).Error)

	report, err := env.svc.FixNullBytes(internalCtx(), domain.Options{DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Affected)
	assert.Zero(t, report.Repaired)

	var got clientdomain.Client
	require.NoError(t, env.db.First(&got, "id = ?", dirty.ID).Error)
	assert.Equal(t, "Acme\x00 Co", got.Name, "dry run must not mutate")
	assert.Empty(t, env.audit.records, "dry runs are not audited")
}

func TestFixDuplicateOfferingsKeepsOldest(t *testing.T) {
	env := newTestEnv(t)

	offering := publisherdomain.PublisherOffering{
		ID:   env.genID.Generate(),
		Name: "Guest Post on techblog.example.com",
	}
	require.NoError(t, env.db.Create(&offering).Error)

	base := time.Now().UTC().Add(-time.Hour)
	var oldest snowflake.ID
	for i := 0; i < 3; i++ {
		rel := publisherdomain.PublisherOfferingRelationship{
			ID:         env.genID.Generate(),
			OfferingID: offering.ID,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, env.db.Create(&rel).Error)
		if i == 0 {
			oldest = rel.ID
		}
	}

	report, err := env.svc.FixDuplicateOfferings(internalCtx(), domain.Options{})
	require.NoError(t, err)

	assert.Equal(t, "duplicate_offerings", report.Operation)
	assert.Equal(t, 1, report.Affected)
	assert.Equal(t, 1, report.Repaired)

	var remaining []publisherdomain.PublisherOfferingRelationship
	require.NoError(t, env.db.Where("offering_id = ?", offering.ID).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, oldest, remaining[0].ID)

	again, err := env.svc.FixDuplicateOfferings(internalCtx(), domain.Options{})
	require.NoError(t, err)
	assert.Zero(t, again.Affected)
}

func TestFixOrphanedOfferings(t *testing.T) {
	env := newTestEnv(t)

	website := publisherdomain.Website{
		ID:     env.genID.Generate(),
		Domain: "techblog.example.com",
	}
	require.NoError(t, env.db.Create(&website).Error)

	matched := publisherdomain.PublisherOffering{
		ID:   env.genID.Generate(),
		Name: "Guest Post on https://www.techblog.example.com/",
	}
	unmatched := publisherdomain.PublisherOffering{
		ID:   env.genID.Generate(),
		Name: "Guest Post on nowhere.example.net",
	}
	noDomain := publisherdomain.PublisherOffering{
		ID:   env.genID.Generate(),
		Name: "Premium Placement Bundle",
	}
	require.NoError(t, env.db.Create(&matched).Error)
	require.NoError(t, env.db.Create(&unmatched).Error)
	require.NoError(t, env.db.Create(&noDomain).Error)

	report, err := env.svc.FixOrphanedOfferings(internalCtx(), domain.Options{})
	require.NoError(t, err)

	assert.Equal(t, "orphaned_offerings", report.Operation)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 1, report.Repaired)

	var rel publisherdomain.PublisherOfferingRelationship
	require.NoError(t, env.db.First(&rel, "offering_id = ?", matched.ID).Error)
	assert.Equal(t, website.ID, rel.WebsiteID)

	actions := map[string]string{}
	for _, detail := range report.Details {
		actions[detail.ID] = detail.Action
	}
	assert.Equal(t, "create_relationship", actions[matched.ID.String()])
	assert.Equal(t, "skipped", actions[unmatched.ID.String()])
	assert.Equal(t, "skipped", actions[noDomain.ID.String()])

	// The repaired offering is no longer orphaned on the next pass.
	again, err := env.svc.FixOrphanedOfferings(internalCtx(), domain.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, again.Scanned)
}

func TestRepairsAreAudited(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.FixNullBytes(internalCtx(), domain.Options{})
	require.NoError(t, err)

	require.Len(t, env.audit.records, 1)
	assert.Equal(t, "repair.null_bytes", env.audit.records[0].Action)
}
