package core

import "context"

type contextKey string

const ctxKeyActor contextKey = "history_actor"

// Actor identifies who triggered an operation for the history log.
type Actor struct {
	IPAddress string
	UserAgent string
}

// ContextWithActor attaches request origin details for history entries.
func ContextWithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

// ActorFromContext returns the actor stored in ctx, or the zero Actor.
func ActorFromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(ctxKeyActor).(Actor); ok {
		return a
	}
	return Actor{}
}
