package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/linkwell/orderdesk/internal/actorctx"
	auditdomain "github.com/linkwell/orderdesk/internal/audit/domain"
	"github.com/linkwell/orderdesk/internal/datarepair/domain"
	"github.com/linkwell/orderdesk/internal/observability/metrics"
	publisherdomain "github.com/linkwell/orderdesk/internal/publisher/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Table/column pairs known to have carried NUL bytes from a bad CSV import.
var nullByteTargets = []struct {
	Table  string
	Column string
}{
	{"target_pages", "keywords"},
	{"target_pages", "description"},
	{"clients", "name"},
	{"publisher_offerings", "name"},
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Audit   auditdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	audit   auditdomain.Service
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("datarepair.service"),
		genID:   p.GenID,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

func (s *Service) FixNullBytes(ctx context.Context, opts domain.Options) (domain.Report, error) {
	if !actorctx.IsInternal(ctx) {
		return domain.Report{}, domain.ErrForbidden
	}
	limit := normalizeLimit(opts.Limit)

	report := domain.Report{
		Operation: "null_bytes",
		DryRun:    opts.DryRun,
		Details:   []domain.RecordDetail{},
	}

	for _, target := range nullByteTargets {
		if report.Affected >= limit {
			break
		}

		rows, err := s.db.WithContext(ctx).
			Table(target.Table).
			Select("id, " + target.Column).
			Where(target.Column + " IS NOT NULL AND " + target.Column + " <> ''").
			Rows()
		if err != nil {
			return domain.Report{}, err
		}

		type corrupt struct {
			id    string
			value string
		}
		var found []corrupt
		for rows.Next() {
			var id, value string
			if err := rows.Scan(&id, &value); err != nil {
				rows.Close()
				return domain.Report{}, err
			}
			report.Scanned++
			if strings.ContainsRune(value, 0) {
				found = append(found, corrupt{id: id, value: value})
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return domain.Report{}, err
		}
		rows.Close()

		for _, row := range found {
			if report.Affected >= limit {
				break
			}
			report.Affected++
			detail := domain.RecordDetail{
				Table:  target.Table,
				Column: target.Column,
				ID:     row.id,
				Action: "strip_null_bytes",
			}
			if !opts.DryRun {
				cleaned := strings.ReplaceAll(row.value, "\x00", "")
				err := s.db.WithContext(ctx).
					Table(target.Table).
					Where("id = ?", row.id).
					Updates(map[string]any{
						target.Column: cleaned,
						"updated_at":  time.Now().UTC(),
					}).Error
				if err != nil {
					return domain.Report{}, err
				}
				report.Repaired++
			}
			report.Details = append(report.Details, detail)
		}
	}

	s.finish(ctx, &report)
	return report, nil
}

func (s *Service) FixDuplicateOfferings(ctx context.Context, opts domain.Options) (domain.Report, error) {
	if !actorctx.IsInternal(ctx) {
		return domain.Report{}, domain.ErrForbidden
	}
	limit := normalizeLimit(opts.Limit)

	report := domain.Report{
		Operation: "duplicate_offerings",
		DryRun:    opts.DryRun,
		Details:   []domain.RecordDetail{},
	}

	var offeringIDs []snowflake.ID
	err := s.db.WithContext(ctx).
		Model(&publisherdomain.PublisherOfferingRelationship{}).
		Select("offering_id").
		Group("offering_id").
		Having("COUNT(*) > 1").
		Scan(&offeringIDs).Error
	if err != nil {
		return domain.Report{}, err
	}
	report.Scanned = len(offeringIDs)

	for _, offeringID := range offeringIDs {
		if report.Affected >= limit {
			break
		}

		var rels []*publisherdomain.PublisherOfferingRelationship
		err := s.db.WithContext(ctx).
			Where("offering_id = ?", offeringID).
			Order("created_at asc, id asc").
			Find(&rels).Error
		if err != nil {
			return domain.Report{}, err
		}
		if len(rels) <= 1 {
			continue
		}
		report.Affected++

		// Keep the oldest row, drop the rest.
		surplus := rels[1:]
		detail := domain.RecordDetail{
			Table:  "publisher_offering_relationships",
			ID:     offeringID.String(),
			Action: "delete_duplicates",
		}
		if !opts.DryRun {
			ids := make([]snowflake.ID, 0, len(surplus))
			for _, rel := range surplus {
				ids = append(ids, rel.ID)
			}
			err := s.db.WithContext(ctx).
				Where("id IN ?", ids).
				Delete(&publisherdomain.PublisherOfferingRelationship{}).Error
			if err != nil {
				return domain.Report{}, err
			}
			report.Repaired++
		}
		report.Details = append(report.Details, detail)
	}

	s.finish(ctx, &report)
	return report, nil
}

func (s *Service) FixOrphanedOfferings(ctx context.Context, opts domain.Options) (domain.Report, error) {
	if !actorctx.IsInternal(ctx) {
		return domain.Report{}, domain.ErrForbidden
	}
	limit := normalizeLimit(opts.Limit)

	report := domain.Report{
		Operation: "orphaned_offerings",
		DryRun:    opts.DryRun,
		Details:   []domain.RecordDetail{},
	}

	var offerings []*publisherdomain.PublisherOffering
	err := s.db.WithContext(ctx).
		Where("id NOT IN (?)", s.db.
			Model(&publisherdomain.PublisherOfferingRelationship{}).
			Select("DISTINCT offering_id")).
		Order("created_at asc, id asc").
		Find(&offerings).Error
	if err != nil {
		return domain.Report{}, err
	}
	report.Scanned = len(offerings)

	now := time.Now().UTC()
	for _, offering := range offerings {
		if report.Affected >= limit {
			break
		}
		report.Affected++

		domainName := deriveDomain(offering.Name)
		if domainName == "" {
			report.Details = append(report.Details, domain.RecordDetail{
				Table:  "publisher_offerings",
				ID:     offering.ID.String(),
				Action: "skipped",
				Reason: "no domain derivable from offering name",
			})
			continue
		}

		var website publisherdomain.Website
		err := s.db.WithContext(ctx).Where("domain = ?", domainName).First(&website).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				report.Details = append(report.Details, domain.RecordDetail{
					Table:  "publisher_offerings",
					ID:     offering.ID.String(),
					Action: "skipped",
					Reason: "no website matching domain " + domainName,
				})
				continue
			}
			return domain.Report{}, err
		}

		detail := domain.RecordDetail{
			Table:  "publisher_offering_relationships",
			ID:     offering.ID.String(),
			Action: "create_relationship",
		}
		if !opts.DryRun {
			rel := publisherdomain.PublisherOfferingRelationship{
				ID:         s.genID.Generate(),
				OfferingID: offering.ID,
				WebsiteID:  website.ID,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := s.db.WithContext(ctx).Create(&rel).Error; err != nil {
				return domain.Report{}, err
			}
			report.Repaired++
		}
		report.Details = append(report.Details, detail)
	}

	s.finish(ctx, &report)
	return report, nil
}

func (s *Service) finish(ctx context.Context, report *domain.Report) {
	s.metrics.RecordRepair(ctx, report.Operation, outcome(report.DryRun), int64(report.Repaired))
	if report.DryRun {
		return
	}
	if err := s.audit.Record(ctx, auditdomain.RecordRequest{
		Action:     "repair." + report.Operation,
		TargetType: "repair",
		TargetID:   report.Operation,
		Metadata: map[string]any{
			"scanned":  report.Scanned,
			"affected": report.Affected,
			"repaired": report.Repaired,
		},
	}); err != nil {
		s.log.Warn("repair audit record failed",
			zap.String("operation", report.Operation),
			zap.Error(err),
		)
	}
}

func outcome(dryRun bool) string {
	if dryRun {
		return "dry_run"
	}
	return "applied"
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return domain.DefaultLimit
	}
	return limit
}

// deriveDomain pulls a domain name out of an offering name such as
// "Guest Post on example.com".
func deriveDomain(name string) string {
	for _, field := range strings.Fields(strings.ToLower(name)) {
		field = strings.Trim(field, "()[],;:\"'")
		field = strings.TrimPrefix(field, "https://")
		field = strings.TrimPrefix(field, "http://")
		field = strings.TrimPrefix(field, "www.")
		field = strings.TrimSuffix(field, "/")
		if strings.Contains(field, ".") && !strings.HasPrefix(field, ".") && !strings.HasSuffix(field, ".") {
			return field
		}
	}
	return ""
}
