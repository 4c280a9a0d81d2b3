package migration

import (
	auditdomain "github.com/linkwell/orderdesk/internal/audit/domain"
	authdomain "github.com/linkwell/orderdesk/internal/auth/domain"
	bulkdomain "github.com/linkwell/orderdesk/internal/bulkanalysis/domain"
	clientdomain "github.com/linkwell/orderdesk/internal/client/domain"
	"github.com/linkwell/orderdesk/internal/config"
	orderdomain "github.com/linkwell/orderdesk/internal/order/domain"
	publisherdomain "github.com/linkwell/orderdesk/internal/publisher/domain"
	"github.com/linkwell/orderdesk/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// mysql and sqlite deployments are dev/test setups; the ORM
			// schema is authoritative there.
			if err := conn.AutoMigrate(
				&authdomain.User{},
				&authdomain.Session{},
				&clientdomain.Client{},
				&clientdomain.TargetPage{},
				&orderdomain.Order{},
				&orderdomain.OrderLineItem{},
				&bulkdomain.BulkAnalysisProject{},
				&bulkdomain.BulkAnalysisDomain{},
				&publisherdomain.Publisher{},
				&publisherdomain.Website{},
				&publisherdomain.PublisherOffering{},
				&publisherdomain.PublisherOfferingRelationship{},
				&auditdomain.AuditLog{},
				&auditdomain.OrderSnapshot{},
			); err != nil {
				return err
			}
		}

		if cfg.Bootstrap.EnsureDefaultAdmin {
			return seed.EnsureDefaultAdmin(conn, cfg)
		}
		return nil
	}),
)
