package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type LoginRequest struct {
	Email    string
	Password string
}

type LoginResult struct {
	User     User
	RawToken string
}

type CreateUserRequest struct {
	Email    string
	Name     string
	UserType string
	ClientID snowflake.ID
	Password string
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	// Authenticate resolves a session cookie to the user it belongs to.
	Authenticate(ctx context.Context, rawToken string) (*User, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
}

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidSession     = errors.New("invalid_session")
	ErrSessionExpired     = errors.New("session_expired")
	ErrUserExists         = errors.New("user_exists")
	ErrInvalidUserType    = errors.New("invalid_user_type")
	ErrInvalidEmail       = errors.New("invalid_email")
)
