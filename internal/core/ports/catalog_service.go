package ports

import (
	"context"

	"github.com/growthdesk/storefront/internal/core/domain"
)

// CreateServiceInput carries the data for a new catalog service.
type CreateServiceInput struct {
	Name        string
	Description string
	Category    domain.Category
	Platform    string
	Type        string
}

// UpdateServiceInput patches a service; nil fields are not changed.
type UpdateServiceInput struct {
	Name        *string
	Description *string
	Category    *domain.Category
	Platform    *string
	Type        *string
	Active      *bool
}

// CreatePackageInput carries the data for a new package under ServiceID.
type CreatePackageInput struct {
	ServiceID    string
	Name         string
	Tier         domain.Tier
	Price        float64
	Deliverables []string
}

// UpdatePackageInput patches a package; nil fields are not changed.
type UpdatePackageInput struct {
	Name         *string
	Tier         *domain.Tier
	Price        *float64
	Deliverables []string
	Active       *bool
}

// AdminServiceFilter carries the admin console filters.
type AdminServiceFilter struct {
	Category domain.Category
	Active   *bool
	Search   string
}

// CatalogService defines use-case operations for the service catalog.
// Admin operations return domain.ErrForbidden for non-admin callers.
type CatalogService interface {
	ListActiveByCategory(ctx context.Context, category domain.Category) ([]domain.ServiceWithPackages, error)
	// GetActiveServiceByID returns nil when the service is absent or inactive.
	GetActiveServiceByID(ctx context.Context, id string) (*domain.ServiceWithPackages, error)
	ListAllActiveServices(ctx context.Context) ([]domain.ServiceWithPackages, error)

	ListAllServices(ctx context.Context, caller domain.Caller, filter AdminServiceFilter) ([]domain.ServiceWithPackages, error)
	GetServiceByID(ctx context.Context, caller domain.Caller, id string) (*domain.ServiceWithPackages, error)
	CreateService(ctx context.Context, caller domain.Caller, input CreateServiceInput) (string, error)
	UpdateService(ctx context.Context, caller domain.Caller, id string, input UpdateServiceInput) error
	// SetServiceActive sets the active flag, or flips it when active is nil.
	SetServiceActive(ctx context.Context, caller domain.Caller, id string, active *bool) error
	DeleteService(ctx context.Context, caller domain.Caller, id string) error

	CreatePackage(ctx context.Context, caller domain.Caller, input CreatePackageInput) (string, error)
	UpdatePackage(ctx context.Context, caller domain.Caller, id string, input UpdatePackageInput) error
	DeletePackage(ctx context.Context, caller domain.Caller, id string) error
}
