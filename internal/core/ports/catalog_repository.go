package ports

import (
	"context"
	"time"

	"github.com/growthdesk/storefront/internal/core/domain"
)

// ServiceFilter narrows ListServices. Zero values mean "no filter".
type ServiceFilter struct {
	Category domain.Category
	Active   *bool
	Search   string // case-insensitive match on name or description
	// NewestFirst sorts by created_at descending; otherwise insertion order.
	NewestFirst bool
}

// ServicePatch carries the fields of a service to overwrite. Nil fields are left untouched.
type ServicePatch struct {
	Name        *string
	Description *string
	Category    *domain.Category
	Platform    *string
	Type        *string
	Active      *bool
}

// PackagePatch carries the fields of a package to overwrite. A nil
// Deliverables slice leaves the stored list untouched.
type PackagePatch struct {
	Name         *string
	Tier         *domain.Tier
	Price        *float64
	Deliverables []string
	Active       *bool
}

// CatalogRepository defines persistence operations for services and packages.
type CatalogRepository interface {
	// CreateService inserts s and sets s.ID.
	CreateService(ctx context.Context, s *domain.Service) error
	// FindServiceByID returns domain.ErrServiceNotFound when id is unknown.
	FindServiceByID(ctx context.Context, id string) (*domain.Service, error)
	FindServicesByIDs(ctx context.Context, ids []string) ([]domain.Service, error)
	ListServices(ctx context.Context, filter ServiceFilter) ([]domain.Service, error)
	// PatchService returns domain.ErrServiceNotFound when id is unknown.
	PatchService(ctx context.Context, id string, patch ServicePatch, now time.Time) error
	CountServices(ctx context.Context) (int64, error)

	// CreatePackage inserts p and sets p.ID.
	CreatePackage(ctx context.Context, p *domain.Package) error
	// FindPackageByID returns domain.ErrPackageNotFound when id is unknown.
	FindPackageByID(ctx context.Context, id string) (*domain.Package, error)
	FindPackagesByIDs(ctx context.Context, ids []string) ([]domain.Package, error)
	// ListPackagesByServices returns the packages of all given services in one round trip.
	ListPackagesByServices(ctx context.Context, serviceIDs []string, activeOnly bool) ([]domain.Package, error)
	// PatchPackage returns domain.ErrPackageNotFound when id is unknown.
	PatchPackage(ctx context.Context, id string, patch PackagePatch, now time.Time) error

	// MarkOrdered stamps last_ordered_at on a package and its service, but
	// only while both are active. It returns domain.ErrInvalidPackage or
	// domain.ErrInvalidService when the conditional write matches nothing.
	// Inside a transaction the write makes a concurrent deactivation conflict
	// with the order being placed.
	MarkOrdered(ctx context.Context, packageID, serviceID string, now time.Time) error
}
