package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/growthdesk/storefront/internal/api/metrics"
	"github.com/growthdesk/storefront/internal/core/domain"
	"github.com/growthdesk/storefront/internal/core/ports"
)

// CatalogService implements ports.CatalogService.
type CatalogService struct {
	repo   ports.CatalogRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewCatalogService(repo ports.CatalogRepository, logger zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger, now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

func (s *CatalogService) ListActiveByCategory(ctx context.Context, category domain.Category) ([]domain.ServiceWithPackages, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrValidation, category)
	}
	active := true
	services, err := s.repo.ListServices(ctx, ports.ServiceFilter{Category: category, Active: &active})
	if err != nil {
		return nil, fmt.Errorf("list services by category: %w", err)
	}
	return s.attachPackages(ctx, services, true)
}

func (s *CatalogService) GetActiveServiceByID(ctx context.Context, id string) (*domain.ServiceWithPackages, error) {
	svc, err := s.repo.FindServiceByID(ctx, id)
	if errors.Is(err, domain.ErrServiceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	if !svc.Active {
		return nil, nil
	}
	out, err := s.attachPackages(ctx, []domain.Service{*svc}, true)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *CatalogService) ListAllActiveServices(ctx context.Context) ([]domain.ServiceWithPackages, error) {
	active := true
	services, err := s.repo.ListServices(ctx, ports.ServiceFilter{Active: &active})
	if err != nil {
		return nil, fmt.Errorf("list active services: %w", err)
	}
	return s.attachPackages(ctx, services, true)
}

func (s *CatalogService) ListAllServices(ctx context.Context, caller domain.Caller, filter ports.AdminServiceFilter) ([]domain.ServiceWithPackages, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrValidation, filter.Category)
	}
	services, err := s.repo.ListServices(ctx, ports.ServiceFilter{
		Category:    filter.Category,
		Active:      filter.Active,
		Search:      strings.TrimSpace(filter.Search),
		NewestFirst: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return s.attachPackages(ctx, services, false)
}

func (s *CatalogService) GetServiceByID(ctx context.Context, caller domain.Caller, id string) (*domain.ServiceWithPackages, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	svc, err := s.repo.FindServiceByID(ctx, id)
	if errors.Is(err, domain.ErrServiceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	out, err := s.attachPackages(ctx, []domain.Service{*svc}, false)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *CatalogService) CreateService(ctx context.Context, caller domain.Caller, in ports.CreateServiceInput) (string, error) {
	if !caller.IsAdmin() {
		return "", domain.ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if !in.Category.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", domain.ErrValidation, in.Category)
	}

	now := s.now()
	svc := &domain.Service{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Platform:    strings.TrimSpace(in.Platform),
		Type:        strings.TrimSpace(in.Type),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateService(ctx, svc); err != nil {
		s.logger.Error().Ctx(ctx).Err(err).Msg("failed to create service")
		return "", fmt.Errorf("create service: %w", err)
	}

	metrics.CatalogWritesTotal.WithLabelValues("service", "create").Inc()
	s.logger.Info().Ctx(ctx).Str("service_id", svc.ID).Str("category", string(svc.Category)).Str("admin", caller.IdentityRef).Msg("service created")
	return svc.ID, nil
}

func (s *CatalogService) UpdateService(ctx context.Context, caller domain.Caller, id string, in ports.UpdateServiceInput) error {
	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return fmt.Errorf("%w: name cannot be blank", domain.ErrValidation)
	}
	if in.Category != nil && !in.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", domain.ErrValidation, *in.Category)
	}

	patch := ports.ServicePatch{
		Name:        trimmed(in.Name),
		Description: trimmed(in.Description),
		Category:    in.Category,
		Platform:    trimmed(in.Platform),
		Type:        trimmed(in.Type),
		Active:      in.Active,
	}
	if err := s.repo.PatchService(ctx, id, patch, s.now()); err != nil {
		return fmt.Errorf("update service: %w", err)
	}

	metrics.CatalogWritesTotal.WithLabelValues("service", "update").Inc()
	s.logger.Info().Ctx(ctx).Str("service_id", id).Str("admin", caller.IdentityRef).Msg("service updated")
	return nil
}

func (s *CatalogService) SetServiceActive(ctx context.Context, caller domain.Caller, id string, active *bool) error {
	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	svc, err := s.repo.FindServiceByID(ctx, id)
	if err != nil {
		return fmt.Errorf("set service active: %w", err)
	}

	next := !svc.Active
	if active != nil {
		next = *active
	}
	if err := s.repo.PatchService(ctx, id, ports.ServicePatch{Active: &next}, s.now()); err != nil {
		return fmt.Errorf("set service active: %w", err)
	}

	metrics.CatalogWritesTotal.WithLabelValues("service", "set_active").Inc()
	s.logger.Info().Ctx(ctx).Str("service_id", id).Bool("active", next).Str("admin", caller.IdentityRef).Msg("service active flag changed")
	return nil
}

// DeleteService soft-deletes the service. Its packages keep their own flag.
func (s *CatalogService) DeleteService(ctx context.Context, caller domain.Caller, id string) error {
	inactive := false
	return s.SetServiceActive(ctx, caller, id, &inactive)
}

func (s *CatalogService) CreatePackage(ctx context.Context, caller domain.Caller, in ports.CreatePackageInput) (string, error) {
	if !caller.IsAdmin() {
		return "", domain.ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if !in.Tier.Valid() {
		return "", fmt.Errorf("%w: unknown tier %q", domain.ErrValidation, in.Tier)
	}
	if in.Price < 0 {
		return "", fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	deliverables := domain.CleanDeliverables(in.Deliverables)
	if len(deliverables) == 0 {
		return "", fmt.Errorf("%w: at least one deliverable is required", domain.ErrValidation)
	}

	if _, err := s.repo.FindServiceByID(ctx, in.ServiceID); err != nil {
		return "", fmt.Errorf("create package: %w", err)
	}

	now := s.now()
	pkg := &domain.Package{
		ServiceID:    in.ServiceID,
		Name:         name,
		Tier:         in.Tier,
		Price:        in.Price,
		Deliverables: deliverables,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreatePackage(ctx, pkg); err != nil {
		s.logger.Error().Ctx(ctx).Err(err).Str("service_id", in.ServiceID).Msg("failed to create package")
		return "", fmt.Errorf("create package: %w", err)
	}

	metrics.CatalogWritesTotal.WithLabelValues("package", "create").Inc()
	s.logger.Info().Ctx(ctx).Str("package_id", pkg.ID).Str("service_id", pkg.ServiceID).Str("tier", string(pkg.Tier)).Msg("package created")
	return pkg.ID, nil
}

func (s *CatalogService) UpdatePackage(ctx context.Context, caller domain.Caller, id string, in ports.UpdatePackageInput) error {
	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return fmt.Errorf("%w: name cannot be blank", domain.ErrValidation)
	}
	if in.Tier != nil && !in.Tier.Valid() {
		return fmt.Errorf("%w: unknown tier %q", domain.ErrValidation, *in.Tier)
	}
	if in.Price != nil && *in.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}

	patch := ports.PackagePatch{
		Name:   trimmed(in.Name),
		Tier:   in.Tier,
		Price:  in.Price,
		Active: in.Active,
	}
	if in.Deliverables != nil {
		patch.Deliverables = domain.CleanDeliverables(in.Deliverables)
		if len(patch.Deliverables) == 0 {
			return fmt.Errorf("%w: at least one deliverable is required", domain.ErrValidation)
		}
	}
	if err := s.repo.PatchPackage(ctx, id, patch, s.now()); err != nil {
		return fmt.Errorf("update package: %w", err)
	}

	metrics.CatalogWritesTotal.WithLabelValues("package", "update").Inc()
	s.logger.Info().Ctx(ctx).Str("package_id", id).Str("admin", caller.IdentityRef).Msg("package updated")
	return nil
}

// DeletePackage soft-deletes the package so existing orders still resolve it.
func (s *CatalogService) DeletePackage(ctx context.Context, caller domain.Caller, id string) error {
	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	inactive := false
	if err := s.repo.PatchPackage(ctx, id, ports.PackagePatch{Active: &inactive}, s.now()); err != nil {
		return fmt.Errorf("delete package: %w", err)
	}

	metrics.CatalogWritesTotal.WithLabelValues("package", "delete").Inc()
	s.logger.Info().Ctx(ctx).Str("package_id", id).Str("admin", caller.IdentityRef).Msg("package deactivated")
	return nil
}

// attachPackages loads the packages of all services in one query and groups
// them under their owner, preserving the order of services.
func (s *CatalogService) attachPackages(ctx context.Context, services []domain.Service, activeOnly bool) ([]domain.ServiceWithPackages, error) {
	out := make([]domain.ServiceWithPackages, 0, len(services))
	if len(services) == 0 {
		return out, nil
	}

	ids := make([]string, len(services))
	for i, svc := range services {
		ids[i] = svc.ID
	}
	packages, err := s.repo.ListPackagesByServices(ctx, ids, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}

	byService := make(map[string][]domain.Package, len(services))
	for _, p := range packages {
		byService[p.ServiceID] = append(byService[p.ServiceID], p)
	}
	for _, svc := range services {
		pkgs := byService[svc.ID]
		if pkgs == nil {
			pkgs = []domain.Package{}
		}
		out = append(out, domain.ServiceWithPackages{Service: svc, Packages: pkgs})
	}
	return out, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
