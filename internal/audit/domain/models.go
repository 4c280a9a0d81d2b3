package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ActorID    snowflake.ID      `gorm:"column:actor_id;index" json:"actor_id,omitempty"`
	ActorType  string            `gorm:"column:actor_type" json:"actor_type,omitempty"`
	Action     string            `gorm:"not null;index" json:"action"`
	TargetType string            `gorm:"column:target_type;not null" json:"target_type"`
	TargetID   string            `gorm:"column:target_id;not null;index" json:"target_id"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// OrderSnapshot is a point-in-time serialized copy of an order and its line
// items, written when the order is confirmed.
type OrderSnapshot struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrderID   snowflake.ID      `gorm:"column:order_id;not null;index" json:"order_id"`
	Snapshot  datatypes.JSONMap `gorm:"type:jsonb" json:"snapshot"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (OrderSnapshot) TableName() string { return "order_snapshots" }
