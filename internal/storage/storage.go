package storage

import (
	"context"
	"time"
)

// User is an identity record uniquely keyed by (provider,
// provider_user_id). ID is assigned once and never changes; display
// name and email are refreshed on every successful callback. Email is
// empty when the provider exposed none.
type User struct {
	ID             string
	Provider       string
	ProviderUserID string
	DisplayName    string
	Email          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserStore persists identity records. Lookups return (nil, nil) on
// miss; storage failures surface as generic errors the callers
// classify as database failures.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	FindUserByProviderID(ctx context.Context, provider, providerUserID string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error
}
