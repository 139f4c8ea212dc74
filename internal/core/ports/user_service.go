package ports

import (
	"context"

	"github.com/growthdesk/storefront/internal/core/domain"
)

// IdentityInput is what the identity provider tells us on sign-in.
type IdentityInput struct {
	IdentityRef string
	Email       string
	Name        string
}

// UserService defines use-case operations for users.
type UserService interface {
	// UpsertFromIdentity is idempotent per identity reference; the last call wins.
	UpsertFromIdentity(ctx context.Context, input IdentityInput) (string, error)
	// GetByIdentity and GetByID return nil, nil when the user does not exist.
	GetByIdentity(ctx context.Context, identityRef string) (*domain.User, error)
	GetByID(ctx context.Context, caller domain.Caller, id string) (*domain.User, error)
	IsActive(ctx context.Context, identityRef string) (bool, error)
	SetStatus(ctx context.Context, caller domain.Caller, id string, status domain.UserStatus) error
}
