package services

import "context"

type contextKey string

const resolutionIDKey contextKey = "resolution_id"

// WithResolutionID stamps the id of the in-flight resolution onto the
// context so downstream logging can correlate records.
func WithResolutionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, resolutionIDKey, id)
}

// ResolutionID extracts the stamped resolution id, if any.
func ResolutionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(resolutionIDKey).(string)
	return id, ok && id != ""
}
