package ports

import (
	"context"
	"time"

	"github.com/growthdesk/storefront/internal/core/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// UpsertByIdentity updates email and name of the user holding identityRef,
	// or inserts template when none exists. It returns the stored user.
	UpsertByIdentity(ctx context.Context, template *domain.User, now time.Time) (*domain.User, error)
	// FindByIdentity returns domain.ErrUserNotFound when no user holds identityRef.
	FindByIdentity(ctx context.Context, identityRef string) (*domain.User, error)
	// FindByID returns domain.ErrUserNotFound when id is unknown.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.User, error)
	// UpdateStatus returns domain.ErrUserNotFound when id is unknown.
	UpdateStatus(ctx context.Context, id string, status domain.UserStatus, now time.Time) error
}
