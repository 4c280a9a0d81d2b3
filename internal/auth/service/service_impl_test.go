package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/linkwell/orderdesk/internal/actorctx"
	"github.com/linkwell/orderdesk/internal/auth/domain"
	"github.com/linkwell/orderdesk/internal/auth/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	svc   domain.Service
	db    *gorm.DB
	genID *snowflake.Node
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.User{}, &domain.Session{}))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})

	return &testEnv{svc: svc, db: conn, genID: node}
}

func (env *testEnv) createUser(t *testing.T, email, pass string) *domain.User {
	t.Helper()
	user, err := env.svc.CreateUser(context.Background(), domain.CreateUserRequest{
		Email:    email,
		Name:     "Test User",
		UserType: actorctx.UserTypeInternal,
		Password: pass,
	})
	require.NoError(t, err)
	return user
}

func TestCreateUserValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CreateUser(context.Background(), domain.CreateUserRequest{
		Email:    "not-an-email",
		UserType: actorctx.UserTypeInternal,
		Password: "secret123",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = env.svc.CreateUser(context.Background(), domain.CreateUserRequest{
		Email:    "ops@example.com",
		UserType: "superuser",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidUserType)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "dupe@example.com", "secret123")

	_, err := env.svc.CreateUser(context.Background(), domain.CreateUserRequest{
		Email:    "DUPE@example.com",
		UserType: actorctx.UserTypeAccount,
		Password: "secret123",
	})
	assert.ErrorIs(t, err, domain.ErrUserExists, "email lookup is case insensitive")
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "login@example.com", "right-password")

	_, err := env.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "login@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = env.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "right-password",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginAuthenticateRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	created := env.createUser(t, "roundtrip@example.com", "secret123")

	result, err := env.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "Roundtrip@Example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.RawToken)
	assert.Equal(t, created.ID, result.User.ID)

	user, err := env.svc.Authenticate(context.Background(), result.RawToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, actorctx.UserTypeInternal, user.UserType)
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "logout@example.com", "secret123")

	result, err := env.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "logout@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(context.Background(), result.RawToken))

	_, err = env.svc.Authenticate(context.Background(), result.RawToken)
	assert.ErrorIs(t, err, domain.ErrInvalidSession)

	// Logging out an already revoked or unknown token is a no-op.
	assert.NoError(t, env.svc.Logout(context.Background(), result.RawToken))
	assert.NoError(t, env.svc.Logout(context.Background(), ""))
}

func TestAuthenticateExpiredSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "expired@example.com", "secret123")

	raw := newSessionToken()
	session := domain.Session{
		ID:        env.genID.Generate(),
		UserID:    user.ID,
		TokenHash: hashToken(raw),
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, env.db.Create(&session).Error)

	_, err := env.svc.Authenticate(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestAuthenticateBlankToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}
