package auth

import "context"

type actorKey struct{}

// Actor is the opaque identity attached to ledger writes. Authorization happens upstream.
type Actor struct {
	Ref  string
	Role string
}

func ContextWithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok && a.Ref != ""
}
