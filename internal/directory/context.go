package directory

import "context"

type ctxKey string

const actorKey ctxKey = "directory_actor"

// ContextWithActor stores the authenticated account in the context.
func ContextWithActor(ctx context.Context, actor Account) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext extracts the authenticated account from the context.
func ActorFromContext(ctx context.Context) (Account, bool) {
	actor, ok := ctx.Value(actorKey).(Account)
	return actor, ok
}
