package resolver

import (
	"context"

	"oauth-service/internal/auth"
	"oauth-service/internal/storage"
)

// Resolver determines which internal user a normalized profile belongs
// to. It is the ONLY place where identity-to-user mapping logic lives.
type Resolver interface {
	Resolve(ctx context.Context, profile *auth.Profile) (*storage.User, error)
}
