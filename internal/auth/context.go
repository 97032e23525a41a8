package auth

import "context"

type ctxKey string

const (
	ctxKeySub  ctxKey = "sub"
	ctxKeyName ctxKey = "name"
)

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeySub).(string); ok {
		return s
	}
	return ""
}

func WithName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxKeyName, name)
}

func NameFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyName).(string); ok {
		return s
	}
	return ""
}

// IsGuest reports whether a subject is a guest identity.
func IsGuest(sub string) bool {
	return len(sub) > 6 && sub[:6] == "guest|"
}
