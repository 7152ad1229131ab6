package auth

import (
	"context"

	"vagentd/pkg/models"
)

type ctxIdentityKey struct{}

// IdentityFromContext returns the verified participant identity, or the
// zero value when the request was not authenticated.
func IdentityFromContext(ctx context.Context) models.Participant {
	if v := ctx.Value(ctxIdentityKey{}); v != nil {
		if p, ok := v.(models.Participant); ok {
			return p
		}
	}
	return models.Participant{}
}

// WithIdentity injects a verified identity into the context. Exposed for
// handler tests.
func WithIdentity(ctx context.Context, p models.Participant) context.Context {
	return context.WithValue(ctx, ctxIdentityKey{}, p)
}
