package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertProject(ctx context.Context, db *gorm.DB, project *BulkAnalysisProject) error
	FindProjectByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BulkAnalysisProject, error)
	// FindProjectByOrderAndClient is the idempotency lookup used during order
	// confirmation.
	FindProjectByOrderAndClient(ctx context.Context, db *gorm.DB, orderID, clientID snowflake.ID) (*BulkAnalysisProject, error)
	ListProjectsByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]*BulkAnalysisProject, error)
	// ListProjectsByClientWindow supports the legacy fallback for projects
	// created before order tagging existed.
	ListProjectsByClientWindow(ctx context.Context, db *gorm.DB, clientID snowflake.ID, from, to time.Time) ([]*BulkAnalysisProject, error)
	ListProjectsByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) ([]*BulkAnalysisProject, error)

	InsertDomains(ctx context.Context, db *gorm.DB, domains []*BulkAnalysisDomain) error
	ListDomainsByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]*BulkAnalysisDomain, error)
	ListDomainsByProjects(ctx context.Context, db *gorm.DB, projectIDs []snowflake.ID) ([]*BulkAnalysisDomain, error)
	UpdateDomainQualification(ctx context.Context, db *gorm.DB, id snowflake.ID, status string, suggestion map[string]any) error
}
