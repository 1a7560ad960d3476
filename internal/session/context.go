package session

import (
	"context"

	"github.com/noah-isme/tuition-roster/internal/models"
)

type identityKey struct{}

// WithIdentity attaches the signed-in admin to ctx.
func WithIdentity(ctx context.Context, identity *models.AdminIdentity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom returns the admin attached by WithIdentity, or nil.
func IdentityFrom(ctx context.Context) *models.AdminIdentity {
	identity, _ := ctx.Value(identityKey{}).(*models.AdminIdentity)
	return identity
}
