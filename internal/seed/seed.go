package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/linkwell/orderdesk/internal/auth/domain"
	"github.com/linkwell/orderdesk/internal/auth/password"
	"github.com/linkwell/orderdesk/internal/config"
	"gorm.io/gorm"
)

// EnsureDefaultAdmin creates the bootstrap internal admin user when none
// exists. Used for local and self-hosted setups so the service is usable out
// of the box.
func EnsureDefaultAdmin(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	email := strings.TrimSpace(cfg.Bootstrap.AdminEmail)
	if email == "" {
		return errors.New("seed admin email is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user authdomain.User
		err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(cfg.Bootstrap.AdminPassword)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		user = authdomain.User{
			ID:           node.Generate(),
			Email:        email,
			Name:         "Admin",
			UserType:     "internal",
			PasswordHash: hashed,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}
