package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Client struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name      string            `gorm:"not null" json:"name"`
	Website   string            `gorm:"column:website" json:"website,omitempty"`
	Email     string            `gorm:"not null" json:"email"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Client) TableName() string { return "clients" }

// TargetPage is a URL on the client's site that placed links should point at.
// Keywords and Description are empty until enrichment backfills them.
type TargetPage struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	ClientID    snowflake.ID `gorm:"not null;index" json:"client_id"`
	URL         string       `gorm:"not null" json:"url"`
	Keywords    string       `gorm:"column:keywords" json:"keywords,omitempty"`
	Description string       `gorm:"column:description" json:"description,omitempty"`
	Status      string       `gorm:"not null;default:active" json:"status"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (TargetPage) TableName() string { return "target_pages" }
