// Package seed loads the initial storefront catalog and optional demo users.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"sigs.k8s.io/yaml"

	"github.com/growthdesk/storefront/internal/core/domain"
	"github.com/growthdesk/storefront/internal/core/ports"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Services []ServiceEntry `json:"services"`
}

// ServiceEntry is one service of a catalog file with its packages.
type ServiceEntry struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Platform    string         `json:"platform"`
	Type        string         `json:"type"`
	Packages    []PackageEntry `json:"packages"`
}

type PackageEntry struct {
	Name         string   `json:"name"`
	Tier         string   `json:"tier"`
	Price        float64  `json:"price"`
	Deliverables []string `json:"deliverables"`
}

// Result summarises a seeding run.
type Result struct {
	AlreadySeeded bool
	Services      int
	Packages      int
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) ([]ServiceEntry, error) {
	var f catalogFile
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, s := range f.Services {
		if s.Name == "" {
			return nil, fmt.Errorf("parse catalog: service without name")
		}
		if !domain.Category(s.Category).Valid() {
			return nil, fmt.Errorf("parse catalog: service %q: unknown category %q", s.Name, s.Category)
		}
		for _, p := range s.Packages {
			if !domain.Tier(p.Tier).Valid() {
				return nil, fmt.Errorf("parse catalog: package %q: unknown tier %q", p.Name, p.Tier)
			}
			if p.Price < 0 {
				return nil, fmt.Errorf("parse catalog: package %q: negative price", p.Name)
			}
			if len(domain.CleanDeliverables(p.Deliverables)) == 0 {
				return nil, fmt.Errorf("parse catalog: package %q: no deliverables", p.Name)
			}
		}
	}
	return f.Services, nil
}

type Seeder struct {
	catalog ports.CatalogRepository
	users   ports.UserRepository
	log     zerolog.Logger
	now     func() time.Time
}

func NewSeeder(catalog ports.CatalogRepository, users ports.UserRepository, log zerolog.Logger) *Seeder {
	return &Seeder{
		catalog: catalog,
		users:   users,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SeedCatalog inserts the embedded catalog.
func (s *Seeder) SeedCatalog(ctx context.Context) (Result, error) {
	return s.SeedCatalogFrom(ctx, defaultCatalog)
}

// SeedCatalogFrom inserts every service and package in data, but only into
// an empty catalog.
func (s *Seeder) SeedCatalogFrom(ctx context.Context, data []byte) (Result, error) {
	services, err := Parse(data)
	if err != nil {
		return Result{}, err
	}

	n, err := s.catalog.CountServices(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("seed catalog: %w", err)
	}
	if n > 0 {
		s.log.Info().Int64("services", n).Msg("catalog already seeded")
		return Result{AlreadySeeded: true}, nil
	}

	var res Result
	now := s.now()
	for _, ss := range services {
		svc := &domain.Service{
			Name:        ss.Name,
			Description: ss.Description,
			Category:    domain.Category(ss.Category),
			Platform:    ss.Platform,
			Type:        ss.Type,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.catalog.CreateService(ctx, svc); err != nil {
			return res, fmt.Errorf("seed service %q: %w", ss.Name, err)
		}
		res.Services++

		for _, ps := range ss.Packages {
			pkg := &domain.Package{
				ServiceID:    svc.ID,
				Name:         ps.Name,
				Tier:         domain.Tier(ps.Tier),
				Price:        ps.Price,
				Deliverables: domain.CleanDeliverables(ps.Deliverables),
				Active:       true,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := s.catalog.CreatePackage(ctx, pkg); err != nil {
				return res, fmt.Errorf("seed package %q: %w", ps.Name, err)
			}
			res.Packages++
		}
	}

	s.log.Info().Int("services", res.Services).Int("packages", res.Packages).Msg("catalog seeded")
	return res, nil
}

// SeedDemoUsers upserts n active users with generated names and emails.
func (s *Seeder) SeedDemoUsers(ctx context.Context, n int, faker *gofakeit.Faker) ([]string, error) {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		now := s.now()
		u, err := s.users.UpsertByIdentity(ctx, &domain.User{
			IdentityRef: "demo|" + uuid.NewString(),
			Email:       faker.Email(),
			Name:        faker.Name(),
			Status:      domain.UserActive,
			Role:        domain.RoleUser,
			CreatedAt:   now,
			UpdatedAt:   now,
		}, now)
		if err != nil {
			return ids, fmt.Errorf("seed demo user: %w", err)
		}
		ids = append(ids, u.ID)
	}
	s.log.Info().Int("users", len(ids)).Msg("demo users seeded")
	return ids, nil
}
