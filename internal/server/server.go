package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/linkwell/orderdesk/internal/audit"
	auditdomain "github.com/linkwell/orderdesk/internal/audit/domain"
	"github.com/linkwell/orderdesk/internal/auth"
	authdomain "github.com/linkwell/orderdesk/internal/auth/domain"
	"github.com/linkwell/orderdesk/internal/bulkanalysis"
	bulkdomain "github.com/linkwell/orderdesk/internal/bulkanalysis/domain"
	"github.com/linkwell/orderdesk/internal/client"
	clientdomain "github.com/linkwell/orderdesk/internal/client/domain"
	"github.com/linkwell/orderdesk/internal/config"
	"github.com/linkwell/orderdesk/internal/datarepair"
	datarepairdomain "github.com/linkwell/orderdesk/internal/datarepair/domain"
	"github.com/linkwell/orderdesk/internal/enrichment"
	"github.com/linkwell/orderdesk/internal/liveevents"
	"github.com/linkwell/orderdesk/internal/migration"
	"github.com/linkwell/orderdesk/internal/observability"
	obslogger "github.com/linkwell/orderdesk/internal/observability/logger"
	obsmetrics "github.com/linkwell/orderdesk/internal/observability/metrics"
	obstracing "github.com/linkwell/orderdesk/internal/observability/tracing"
	"github.com/linkwell/orderdesk/internal/order"
	orderdomain "github.com/linkwell/orderdesk/internal/order/domain"
	"github.com/linkwell/orderdesk/internal/publisher"
	publisherdomain "github.com/linkwell/orderdesk/internal/publisher/domain"
	"github.com/linkwell/orderdesk/internal/ratelimit"
	"github.com/linkwell/orderdesk/internal/reconcile"
	reconciledomain "github.com/linkwell/orderdesk/internal/reconcile/domain"
	"github.com/linkwell/orderdesk/internal/shareview"
	sharedomain "github.com/linkwell/orderdesk/internal/shareview/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	observability.Module,
	fx.Provide(registerGin),
	migration.Module,
	auth.Module,
	client.Module,
	enrichment.Module,
	bulkanalysis.Module,
	order.Module,
	shareview.Module,
	publisher.Module,
	audit.Module,
	datarepair.Module,
	reconcile.Module,
	liveevents.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	authsvc      authdomain.Service
	clientSvc    clientdomain.Service
	orderSvc     orderdomain.Service
	bulkSvc      bulkdomain.Service
	shareSvc     sharedomain.Service
	publisherSvc publisherdomain.Service
	repairSvc    datarepairdomain.Service
	reconcileSvc reconciledomain.Service
	auditSvc     auditdomain.Service
	liveEvents   *liveevents.Hub
	shareLimiter *ratelimit.ShareViewLimiter
	metrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Authsvc      authdomain.Service
	ClientSvc    clientdomain.Service
	OrderSvc     orderdomain.Service
	BulkSvc      bulkdomain.Service
	ShareSvc     sharedomain.Service
	PublisherSvc publisherdomain.Service
	RepairSvc    datarepairdomain.Service
	ReconcileSvc reconciledomain.Service
	AuditSvc     auditdomain.Service
	LiveEvents   *liveevents.Hub `optional:"true"`
	ShareLimiter *ratelimit.ShareViewLimiter
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		log:          p.Log,
		genID:        p.GenID,
		authsvc:      p.Authsvc,
		clientSvc:    p.ClientSvc,
		orderSvc:     p.OrderSvc,
		bulkSvc:      p.BulkSvc,
		shareSvc:     p.ShareSvc,
		publisherSvc: p.PublisherSvc,
		repairSvc:    p.RepairSvc,
		reconcileSvc: p.ReconcileSvc,
		auditSvc:     p.AuditSvc,
		liveEvents:   p.LiveEvents,
		shareLimiter: p.ShareLimiter,
		metrics:      p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()
	svc.registerPublicRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
	auth.POST("/users", s.AuthRequired(), InternalRequired(), s.CreateUser)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Clients --------
	api.GET("/clients", s.ListClients)
	api.POST("/clients", InternalRequired(), s.CreateClient)
	api.GET("/clients/:id", s.GetClientByID)
	api.GET("/clients/:id/target-pages", s.ListTargetPages)
	api.POST("/clients/:id/target-pages", s.CreateTargetPage)

	// -------- Orders --------
	api.GET("/orders", s.ListOrders)
	api.POST("/orders", InternalRequired(), s.CreateOrder)
	api.GET("/orders/:id", s.GetOrderByID)
	api.DELETE("/orders/:id", InternalRequired(), s.DeleteDraftOrder)
	api.POST("/orders/:id/line-items", InternalRequired(), s.AddOrderLineItems)
	api.POST("/orders/:id/line-items/:itemId/cancel", InternalRequired(), s.CancelOrderLineItem)
	api.POST("/orders/:id/submit", InternalRequired(), s.SubmitOrderForConfirmation)
	api.POST("/orders/:id/confirm", InternalRequired(), s.ConfirmOrder)
	api.POST("/orders/:id/share", InternalRequired(), s.GenerateOrderShareLink)
	api.GET("/orders/:id/live-events", s.StreamOrderLiveEvents)

	// -------- Analysis Projects --------
	api.GET("/projects", s.ListAnalysisProjects)
	api.GET("/projects/:id/domains", s.ListProjectDomains)
	api.POST("/projects/:id/domains", InternalRequired(), s.AddProjectDomains)
	api.POST("/projects/:id/qualify", InternalRequired(), s.QualifyProjectDomains)

	// -------- Publishers --------
	api.GET("/publishers", InternalRequired(), s.ListPublishers)
	api.POST("/publishers", InternalRequired(), s.CreatePublisher)
	api.GET("/publishers/:id", InternalRequired(), s.GetPublisherByID)
	api.POST("/websites", InternalRequired(), s.CreateWebsite)
	api.GET("/offerings", InternalRequired(), s.ListOfferings)
	api.POST("/offerings", InternalRequired(), s.CreateOffering)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.AuthRequired(), InternalRequired())

	admin.POST("/repair/null-bytes", s.RepairNullBytes)
	admin.POST("/repair/duplicate-offerings", s.RepairDuplicateOfferings)
	admin.POST("/repair/orphaned-offerings", s.RepairOrphanedOfferings)

	admin.POST("/reconcile/orders", s.ReconcileOrders)

	admin.GET("/audit-logs", s.ListAuditLogs)
}

func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/public")

	public.GET("/orders/:token", s.ShareViewRateLimit(), s.ViewSharedOrder)
}

// classifyErrorForLog reduces an error to (type, code) for the request log.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 && payload.Errors[0].Code != "" {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}
