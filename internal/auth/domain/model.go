package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Email        string       `gorm:"not null;uniqueIndex" json:"email"`
	Name         string       `gorm:"not null" json:"name"`
	UserType     string       `gorm:"column:user_type;not null" json:"user_type"`
	ClientID     snowflake.ID `gorm:"column:client_id" json:"client_id,omitempty"`
	PasswordHash string       `gorm:"column:password_hash;not null" json:"-"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (User) TableName() string { return "users" }

type Session struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"not null;index"`
	TokenHash string       `gorm:"column:token_hash;not null;uniqueIndex"`
	ExpiresAt time.Time    `gorm:"not null"`
	RevokedAt *time.Time
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Session) TableName() string { return "sessions" }
