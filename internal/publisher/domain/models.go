package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Publisher sources. Shadow publishers are created automatically from inbound
// email parsing before the publisher claims the account.
const (
	SourceManual = "manual"
	SourceShadow = "shadow"
)

type Publisher struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name      string            `gorm:"not null" json:"name"`
	Email     string            `gorm:"column:email;index" json:"email,omitempty"`
	Source    string            `gorm:"not null;default:manual" json:"source"`
	Status    string            `gorm:"not null;default:active" json:"status"`
	ClaimedAt *time.Time        `gorm:"column:claimed_at" json:"claimed_at,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Publisher) TableName() string { return "publishers" }

type Website struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Domain    string       `gorm:"not null;uniqueIndex" json:"domain"`
	Name      string       `gorm:"column:name" json:"name,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Website) TableName() string { return "websites" }

type PublisherOffering struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"not null" json:"name"`
	OfferingType string       `gorm:"column:offering_type;not null;default:guest_post" json:"offering_type"`
	Price        int64        `gorm:"not null;default:0" json:"price"`
	Currency     string       `gorm:"not null;default:usd" json:"currency"`
	Status       string       `gorm:"not null;default:active" json:"status"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PublisherOffering) TableName() string { return "publisher_offerings" }

// PublisherOfferingRelationship links an offering to the publisher and
// website it is sold through. Exactly one row per offering is expected; the
// repair operations clean up violations.
type PublisherOfferingRelationship struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OfferingID  snowflake.ID `gorm:"column:offering_id;not null;index" json:"offering_id"`
	PublisherID snowflake.ID `gorm:"column:publisher_id;index" json:"publisher_id,omitempty"`
	WebsiteID   snowflake.ID `gorm:"column:website_id;index" json:"website_id,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PublisherOfferingRelationship) TableName() string {
	return "publisher_offering_relationships"
}
