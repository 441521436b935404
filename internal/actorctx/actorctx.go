package actorctx

import "context"

type ctxKey string

const (
	keyUserID    ctxKey = "user_id"
	keyRequestID ctxKey = "request_id"
)

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, keyUserID, userID)
}

func UserIDFrom(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(keyUserID).(int64)

	return v, ok && v != 0
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

func RequestIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRequestID).(string)

	return v, ok && v != ""
}
