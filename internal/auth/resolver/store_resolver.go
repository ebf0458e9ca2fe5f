package resolver

import (
	"context"
	"time"

	"github.com/google/uuid"

	"oauth-service/internal/auth"
	"oauth-service/internal/resilience"
	"oauth-service/internal/storage"
)

// StoreResolver upserts users keyed by (provider, provider_user_id):
// first successful callback creates the user, every later one
// refreshes display name and email. The internal id never changes.
type StoreResolver struct {
	users storage.UserStore
}

func NewStoreResolver(users storage.UserStore) *StoreResolver {
	return &StoreResolver{users: users}
}

func (r *StoreResolver) Resolve(ctx context.Context, profile *auth.Profile) (*storage.User, error) {
	if profile == nil || profile.Provider == "" || profile.ProviderUserID == "" {
		return nil, resilience.New(resilience.KindValidation, "profile missing provider identity")
	}

	existing, err := r.users.FindUserByProviderID(ctx, profile.Provider, profile.ProviderUserID)
	if err != nil {
		return nil, resilience.Wrap(resilience.KindDatabase, "user lookup failed", err)
	}

	if existing != nil {
		existing.DisplayName = profile.DisplayName
		existing.Email = profile.Email
		if err := r.users.UpdateUser(ctx, existing); err != nil {
			return nil, resilience.Wrap(resilience.KindDatabase, "user update failed", err)
		}
		return existing, nil
	}

	now := time.Now()
	user := &storage.User{
		ID:             uuid.NewString(),
		Provider:       profile.Provider,
		ProviderUserID: profile.ProviderUserID,
		DisplayName:    profile.DisplayName,
		Email:          profile.Email,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := r.users.CreateUser(ctx, user); err != nil {
		return nil, resilience.Wrap(resilience.KindDatabase, "user create failed", err)
	}
	return user, nil
}
