package logger

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// Scope describes the caller of a request, attached to every sentry event raised while serving it
type Scope struct {
	RequestID    string
	Role         string
	AmbassadorID string
	Route        string
}

// WithScope clones the current sentry hub, tags it with the scope and binds it to the returned context.
// Loggers obtained through FromContext(ctx) then report to that hub.
func WithScope(ctx context.Context, s Scope) context.Context {
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		if s.RequestID != "" {
			scope.SetTag("request_id", s.RequestID)
		}
		if s.Role != "" {
			scope.SetTag("role", s.Role)
		}
		if s.Route != "" {
			scope.SetTag("route", s.Route)
		}
		if s.AmbassadorID != "" {
			scope.SetUser(sentry.User{ID: s.AmbassadorID})
		}
	})
	return sentry.SetHubOnContext(ctx, hub)
}
