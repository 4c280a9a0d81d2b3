package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/linkwell/orderdesk/internal/actorctx"
	"github.com/linkwell/orderdesk/internal/bulkanalysis/domain"
	"github.com/linkwell/orderdesk/internal/bulkanalysis/repository"
	clientdomain "github.com/linkwell/orderdesk/internal/client/domain"
	clientrepository "github.com/linkwell/orderdesk/internal/client/repository"
	enrichdomain "github.com/linkwell/orderdesk/internal/enrichment/domain"
	"github.com/linkwell/orderdesk/internal/liveevents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type enrichFake struct {
	configured bool
	verdicts   map[string]enrichdomain.DomainVerdict
	failures   map[string]error
	qualified  []string
}

func (e *enrichFake) EnrichTargetPage(_ context.Context, _ string) (enrichdomain.PageEnrichment, error) {
	return enrichdomain.PageEnrichment{}, enrichdomain.ErrNotConfigured
}

func (e *enrichFake) QualifyDomain(_ context.Context, domainName string, _ []string) (enrichdomain.DomainVerdict, error) {
	if !e.configured {
		return enrichdomain.DomainVerdict{}, enrichdomain.ErrNotConfigured
	}
	if err := e.failures[domainName]; err != nil {
		return enrichdomain.DomainVerdict{}, err
	}
	e.qualified = append(e.qualified, domainName)
	if verdict, ok := e.verdicts[domainName]; ok {
		return verdict, nil
	}
	return enrichdomain.DomainVerdict{
		Domain:    domainName,
		Status:    enrichdomain.StatusAverageQuality,
		Reasoning: "no signals either way",
	}, nil
}

type testEnv struct {
	svc    domain.Service
	db     *gorm.DB
	genID  *snowflake.Node
	enrich *enrichFake
	hub    *liveevents.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.BulkAnalysisProject{},
		&domain.BulkAnalysisDomain{},
		&clientdomain.Client{},
		&clientdomain.TargetPage{},
	))

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	enrich := &enrichFake{configured: true}
	hub := liveevents.NewHub()
	svc := New(Params{
		DB:         conn,
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       repository.Provide(),
		ClientRepo: clientrepository.Provide(),
		Enrich:     enrich,
		Hub:        hub,
	})

	return &testEnv{svc: svc, db: conn, genID: node, enrich: enrich, hub: hub}
}

func (env *testEnv) seedProject(t *testing.T, clientID, orderID snowflake.ID) domain.BulkAnalysisProject {
	t.Helper()
	project := domain.BulkAnalysisProject{
		ID:       env.genID.Generate(),
		ClientID: clientID,
		OrderID:  orderID,
		Name:     "analysis",
	}
	require.NoError(t, env.db.Create(&project).Error)
	return project
}

func (env *testEnv) seedDomain(t *testing.T, projectID snowflake.ID, name, status string) domain.BulkAnalysisDomain {
	t.Helper()
	row := domain.BulkAnalysisDomain{
		ID:                  env.genID.Generate(),
		ProjectID:           projectID,
		Domain:              name,
		QualificationStatus: status,
	}
	require.NoError(t, env.db.Create(&row).Error)
	return row
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

func TestAddDomainsNormalizesAndDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	project := env.seedProject(t, env.genID.Generate(), 0)

	inserted, err := env.svc.AddDomains(internalCtx(), domain.AddDomainsRequest{
		ProjectID: project.ID.String(),
		Domains: []string{
			"https://www.TechBlog.example.com/",
			"techblog.example.com",
			"other.example.net",
		},
	})
	require.NoError(t, err)

	require.Len(t, inserted, 2, "url forms of the same domain collapse")
	assert.Equal(t, "techblog.example.com", inserted[0].Domain)
	assert.Equal(t, domain.QualificationPending, inserted[0].QualificationStatus)

	// Re-adding an existing domain is a silent no-op.
	again, err := env.svc.AddDomains(internalCtx(), domain.AddDomainsRequest{
		ProjectID: project.ID.String(),
		Domains:   []string{"other.example.net"},
	})
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestAddDomainsRejectsMalformedInput(t *testing.T) {
	env := newTestEnv(t)
	project := env.seedProject(t, env.genID.Generate(), 0)

	_, err := env.svc.AddDomains(internalCtx(), domain.AddDomainsRequest{
		ProjectID: project.ID.String(),
		Domains:   []string{"not a domain"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDomain)

	_, err = env.svc.AddDomains(internalCtx(), domain.AddDomainsRequest{
		ProjectID: project.ID.String(),
		Domains:   []string{"nodots"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDomain)
}

func TestProjectAccessScopedToClient(t *testing.T) {
	env := newTestEnv(t)
	owner := env.genID.Generate()
	stranger := env.genID.Generate()
	project := env.seedProject(t, owner, 0)

	_, err := env.svc.ListDomains(accountCtx(stranger), project.ID.String())
	assert.ErrorIs(t, err, clientdomain.ErrForbidden)

	_, err = env.svc.ListDomains(accountCtx(owner), project.ID.String())
	assert.NoError(t, err)
}

func TestQualifyDomainsPersistsVerdicts(t *testing.T) {
	env := newTestEnv(t)
	project := env.seedProject(t, env.genID.Generate(), 0)
	good := env.seedDomain(t, project.ID, "good.example.com", domain.QualificationPending)
	bad := env.seedDomain(t, project.ID, "bad.example.com", domain.QualificationPending)
	done := env.seedDomain(t, project.ID, "done.example.com", enrichdomain.StatusHighQuality)

	env.enrich.verdicts = map[string]enrichdomain.DomainVerdict{
		"good.example.com": {Status: enrichdomain.StatusHighQuality, Reasoning: "strong niche fit"},
		"bad.example.com":  {Status: enrichdomain.StatusDisqualified, Reasoning: "link farm"},
	}

	resp, err := env.svc.QualifyDomains(internalCtx(), domain.QualifyDomainsRequest{
		ProjectID: project.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Qualified)
	assert.Zero(t, resp.Skipped)
	assert.NotContains(t, env.enrich.qualified, done.Domain, "already qualified domains are not re-run")

	var gotGood domain.BulkAnalysisDomain
	require.NoError(t, env.db.First(&gotGood, "id = ?", good.ID).Error)
	assert.Equal(t, enrichdomain.StatusHighQuality, gotGood.QualificationStatus)
	assert.Equal(t, "strong niche fit", gotGood.Suggestion["reasoning"])

	var gotBad domain.BulkAnalysisDomain
	require.NoError(t, env.db.First(&gotBad, "id = ?", bad.ID).Error)
	assert.Equal(t, enrichdomain.StatusDisqualified, gotBad.QualificationStatus)
}

func TestQualifyDomainsSkipsPerDomainFailures(t *testing.T) {
	env := newTestEnv(t)
	project := env.seedProject(t, env.genID.Generate(), 0)
	env.seedDomain(t, project.ID, "flaky.example.com", domain.QualificationPending)
	ok := env.seedDomain(t, project.ID, "ok.example.com", domain.QualificationPending)

	env.enrich.failures = map[string]error{
		"flaky.example.com": errors.New("model timeout"),
	}

	resp, err := env.svc.QualifyDomains(internalCtx(), domain.QualifyDomainsRequest{
		ProjectID: project.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Qualified)
	assert.Equal(t, 1, resp.Skipped)

	var flaky domain.BulkAnalysisDomain
	require.NoError(t, env.db.First(&flaky, "domain = ? AND project_id = ?", "flaky.example.com", project.ID).Error)
	assert.Equal(t, domain.QualificationPending, flaky.QualificationStatus, "failed domains stay pending for a retry")

	var qualified domain.BulkAnalysisDomain
	require.NoError(t, env.db.First(&qualified, "id = ?", ok.ID).Error)
	assert.NotEqual(t, domain.QualificationPending, qualified.QualificationStatus)
}

func TestQualifyDomainsUnconfiguredEnrichment(t *testing.T) {
	env := newTestEnv(t)
	project := env.seedProject(t, env.genID.Generate(), 0)
	env.seedDomain(t, project.ID, "a.example.com", domain.QualificationPending)
	env.seedDomain(t, project.ID, "b.example.com", domain.QualificationPending)

	env.enrich.configured = false

	resp, err := env.svc.QualifyDomains(internalCtx(), domain.QualifyDomainsRequest{
		ProjectID: project.ID.String(),
	})
	require.NoError(t, err)
	assert.Zero(t, resp.Qualified)
	assert.Equal(t, 2, resp.Skipped, "an unconfigured backend skips the whole batch")
}

func TestQualifyDomainsPublishesOrderEvents(t *testing.T) {
	env := newTestEnv(t)
	orderID := env.genID.Generate()
	project := env.seedProject(t, env.genID.Generate(), orderID)
	env.seedDomain(t, project.ID, "live.example.com", domain.QualificationPending)

	sub, _, err := env.hub.Subscribe(orderID.String())
	require.NoError(t, err)
	defer sub.Close()

	_, err = env.svc.QualifyDomains(internalCtx(), domain.QualifyDomainsRequest{
		ProjectID: project.ID.String(),
	})
	require.NoError(t, err)

	event := <-sub.Events()
	assert.Equal(t, liveevents.TypeDomainQualified, event.Type)
	assert.Equal(t, "live.example.com", event.Domain)
	assert.Equal(t, project.ID.String(), event.ProjectID)
}

func TestQualifyDomainsUnknownProject(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.QualifyDomains(internalCtx(), domain.QualifyDomainsRequest{
		ProjectID: env.genID.Generate().String(),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.svc.QualifyDomains(internalCtx(), domain.QualifyDomainsRequest{ProjectID: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
