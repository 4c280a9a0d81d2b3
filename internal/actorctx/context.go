package actorctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// UserTypeInternal marks staff users; UserTypeAccount marks client users.
const (
	UserTypeInternal = "internal"
	UserTypeAccount  = "account"
)

// Actor is the authenticated principal for a request.
type Actor struct {
	UserID   snowflake.ID
	UserType string
	// ClientID is set for account users and scopes what they may read.
	ClientID snowflake.ID
}

type actorKey struct{}

// WithActor stores the actor in the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor from context, if set.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || actor.UserID == 0 {
		return Actor{}, false
	}
	return actor, true
}

// IsInternal reports whether the context actor is internal staff.
func IsInternal(ctx context.Context) bool {
	actor, ok := ActorFromContext(ctx)
	return ok && actor.UserType == UserTypeInternal
}
