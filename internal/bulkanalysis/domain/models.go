package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// BulkAnalysisProject groups candidate publishing domains under evaluation for
// one client. OrderID is the relational form of the legacy "order:<id>" tag;
// the tag is still written so existing tooling keeps finding projects by tag.
// At most one project exists per (order, client): checked at write time inside
// the confirmation transaction, and backed by a partial unique index in the
// postgres schema.
type BulkAnalysisProject struct {
	ID        snowflake.ID                `gorm:"primaryKey" json:"id"`
	ClientID  snowflake.ID                `gorm:"not null;index" json:"client_id"`
	OrderID   snowflake.ID                `gorm:"column:order_id;index" json:"order_id,omitempty"`
	Name      string                      `gorm:"not null" json:"name"`
	Tags      datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"tags"`
	CreatedAt time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (BulkAnalysisProject) TableName() string { return "bulk_analysis_projects" }

type BulkAnalysisDomain struct {
	ID                  snowflake.ID      `gorm:"primaryKey" json:"id"`
	ProjectID           snowflake.ID      `gorm:"not null;index" json:"project_id"`
	Domain              string            `gorm:"not null" json:"domain"`
	QualificationStatus string            `gorm:"column:qualification_status;not null;default:pending" json:"qualification_status"`
	Suggestion          datatypes.JSONMap `gorm:"type:jsonb" json:"suggestion,omitempty"`
	CreatedAt           time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (BulkAnalysisDomain) TableName() string { return "bulk_analysis_domains" }

const QualificationPending = "pending"

// OrderTag is the traceability tag written into a project's tag list.
func OrderTag(orderID snowflake.ID) string {
	return fmt.Sprintf("order:%s", orderID)
}
