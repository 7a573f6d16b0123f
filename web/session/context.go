package session

import "context"

type idCtxKey struct{}

func WithEditorSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, idCtxKey{}, sessionID)
}

func EditorSessionIDFromContext(ctx context.Context) (string, bool) {
	ctxVal := ctx.Value(idCtxKey{})
	val, ok := ctxVal.(string)
	return val, ok
}
