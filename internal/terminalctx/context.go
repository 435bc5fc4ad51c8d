package terminalctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type contextKey struct{}

// Identity is the authenticated terminal identity resolved by the identity
// gate and threaded explicitly into handler calls.
type Identity struct {
	AccountID  snowflake.ID
	TerminalID snowflake.ID
	Label      string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
