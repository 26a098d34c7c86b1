package middleware

import "context"

type contextKey string

const (
	ctxAdminSubject contextKey = "admin_subject"
)

// AdminSubjectFromContext returns the subject of the admin token that
// authenticated the request, or "" outside admin routes.
func AdminSubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdminSubject).(string); ok {
		return v
	}
	return ""
}

// WithAdminSubject injects the admin subject into the context.
func WithAdminSubject(ctx context.Context, subject string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAdminSubject, subject)
}
