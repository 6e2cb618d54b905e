package middleware

import (
	"context"

	"github.com/stockyardhq/stockyard-backend/pkg/auth"
)

type contextKey string

const ctxActor contextKey = "actor"

// ActorFromContext returns the authenticated actor, or false when the
// request was not authenticated.
func ActorFromContext(ctx context.Context) (auth.Actor, bool) {
	if ctx == nil {
		return auth.Actor{}, false
	}
	if v, ok := ctx.Value(ctxActor).(auth.Actor); ok {
		return v, true
	}
	return auth.Actor{}, false
}

// WithActor injects the actor into the context. Exposed for tests and the
// auth middleware.
func WithActor(ctx context.Context, actor auth.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

func UserIDFromContext(ctx context.Context) string {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return ""
	}
	return actor.UserID.String()
}
