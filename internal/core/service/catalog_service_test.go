package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growthdesk/storefront/internal/core/domain"
	"github.com/growthdesk/storefront/internal/core/ports"
)

func newTestCatalogService() (*CatalogService, *stubCatalogRepo) {
	repo := newStubCatalogRepo()
	svc := NewCatalogService(repo, discardLogger)
	svc.now = fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return svc, repo
}

func TestListActiveByCategory_HidesInactiveServicesAndPackages(t *testing.T) {
	svc, repo := newTestCatalogService()
	ig := repo.addService("Instagram", domain.CategorySocialMedia, true)
	repo.addPackage(ig.ID, domain.TierBronze, 24.99, true)
	repo.addPackage(ig.ID, domain.TierGold, 74.99, false)
	off := repo.addService("Retired", domain.CategorySocialMedia, false)
	repo.addPackage(off.ID, domain.TierBronze, 10, true)
	repo.addService("Forbes", domain.CategoryPublication, true)

	got, err := svc.ListActiveByCategory(context.Background(), domain.CategorySocialMedia)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ig.ID, got[0].ID)
	require.Len(t, got[0].Packages, 1)
	assert.Equal(t, domain.TierBronze, got[0].Packages[0].Tier)
}

func TestListActiveByCategory_UnknownCategory(t *testing.T) {
	svc, _ := newTestCatalogService()

	_, err := svc.ListActiveByCategory(context.Background(), "podcasts")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestListActiveByCategory_ServiceWithoutPackagesHasEmptySlice(t *testing.T) {
	svc, repo := newTestCatalogService()
	repo.addService("SEO", domain.CategoryTool, true)

	got, err := svc.ListActiveByCategory(context.Background(), domain.CategoryTool)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Packages)
	assert.Empty(t, got[0].Packages)
}

func TestGetActiveServiceByID(t *testing.T) {
	svc, repo := newTestCatalogService()
	active := repo.addService("Instagram", domain.CategorySocialMedia, true)
	inactive := repo.addService("Retired", domain.CategorySocialMedia, false)

	tests := []struct {
		name    string
		id      string
		wantNil bool
	}{
		{"active", active.ID, false},
		{"inactive", inactive.ID, true},
		{"unknown", "svc-999", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.GetActiveServiceByID(context.Background(), tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNil, got == nil)
		})
	}
}

func TestListAllActiveServices_SpansCategories(t *testing.T) {
	svc, repo := newTestCatalogService()
	repo.addService("Instagram", domain.CategorySocialMedia, true)
	repo.addService("Forbes", domain.CategoryPublication, true)
	repo.addService("Retired", domain.CategoryTool, false)

	got, err := svc.ListAllActiveServices(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAdminOperations_RejectNonAdmins(t *testing.T) {
	svc, repo := newTestCatalogService()
	s := repo.addService("Instagram", domain.CategorySocialMedia, true)
	p := repo.addPackage(s.ID, domain.TierBronze, 10, true)
	ctx := context.Background()

	ops := map[string]func(domain.Caller) error{
		"ListAllServices": func(c domain.Caller) error {
			_, err := svc.ListAllServices(ctx, c, ports.AdminServiceFilter{})
			return err
		},
		"GetServiceByID": func(c domain.Caller) error {
			_, err := svc.GetServiceByID(ctx, c, s.ID)
			return err
		},
		"CreateService": func(c domain.Caller) error {
			_, err := svc.CreateService(ctx, c, ports.CreateServiceInput{Name: "x", Category: domain.CategoryTool})
			return err
		},
		"UpdateService": func(c domain.Caller) error {
			return svc.UpdateService(ctx, c, s.ID, ports.UpdateServiceInput{})
		},
		"SetServiceActive": func(c domain.Caller) error {
			return svc.SetServiceActive(ctx, c, s.ID, nil)
		},
		"DeleteService": func(c domain.Caller) error {
			return svc.DeleteService(ctx, c, s.ID)
		},
		"CreatePackage": func(c domain.Caller) error {
			_, err := svc.CreatePackage(ctx, c, ports.CreatePackageInput{ServiceID: s.ID, Name: "x", Tier: domain.TierGold, Deliverables: []string{"a"}})
			return err
		},
		"UpdatePackage": func(c domain.Caller) error {
			return svc.UpdatePackage(ctx, c, p.ID, ports.UpdatePackageInput{})
		},
		"DeletePackage": func(c domain.Caller) error {
			return svc.DeletePackage(ctx, c, p.ID)
		},
	}

	for name, op := range ops {
		for _, caller := range []domain.Caller{domain.Anonymous, customer} {
			if err := op(caller); !errors.Is(err, domain.ErrForbidden) {
				t.Errorf("%s as %q: expected ErrForbidden, got %v", name, caller.IdentityRef, err)
			}
		}
	}

	// Nothing was written.
	assert.Len(t, repo.services, 1)
	assert.True(t, repo.services[0].Active)
	assert.True(t, repo.packages[0].Active)
}

func TestCreateService(t *testing.T) {
	svc, repo := newTestCatalogService()

	id, err := svc.CreateService(context.Background(), admin, ports.CreateServiceInput{
		Name:        "  TikTok Growth ",
		Description: "Followers",
		Category:    domain.CategorySocialMedia,
		Platform:    "tiktok",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	stored := repo.services[0]
	assert.Equal(t, "TikTok Growth", stored.Name)
	assert.True(t, stored.Active)
	assert.Equal(t, svc.now(), stored.CreatedAt)
	assert.Equal(t, stored.CreatedAt, stored.UpdatedAt)
}

func TestCreateService_Validation(t *testing.T) {
	svc, repo := newTestCatalogService()

	tests := []struct {
		name string
		in   ports.CreateServiceInput
	}{
		{"blank name", ports.CreateServiceInput{Name: "   ", Category: domain.CategoryTool}},
		{"unknown category", ports.CreateServiceInput{Name: "x", Category: "radio"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateService(context.Background(), admin, tt.in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	assert.Empty(t, repo.services)
}

func TestUpdateService_PatchesOnlyGivenFields(t *testing.T) {
	svc, repo := newTestCatalogService()
	s := repo.addService("Instagram", domain.CategorySocialMedia, true)
	repo.services[0].Description = "old"

	name := " Instagram Pro "
	require.NoError(t, svc.UpdateService(context.Background(), admin, s.ID, ports.UpdateServiceInput{Name: &name}))

	stored := repo.services[0]
	assert.Equal(t, "Instagram Pro", stored.Name)
	assert.Equal(t, "old", stored.Description)
	assert.Equal(t, svc.now(), stored.UpdatedAt)
}

func TestUpdateService_UnknownID(t *testing.T) {
	svc, _ := newTestCatalogService()
	name := "x"

	err := svc.UpdateService(context.Background(), admin, "svc-404", ports.UpdateServiceInput{Name: &name})
	assert.ErrorIs(t, err, domain.ErrServiceNotFound)
}

func TestSetServiceActive_FlipsWhenNil(t *testing.T) {
	svc, repo := newTestCatalogService()
	s := repo.addService("Instagram", domain.CategorySocialMedia, true)
	ctx := context.Background()

	require.NoError(t, svc.SetServiceActive(ctx, admin, s.ID, nil))
	assert.False(t, repo.services[0].Active)

	require.NoError(t, svc.SetServiceActive(ctx, admin, s.ID, nil))
	assert.True(t, repo.services[0].Active)

	on := true
	require.NoError(t, svc.SetServiceActive(ctx, admin, s.ID, &on))
	assert.True(t, repo.services[0].Active)
}

func TestDeleteService_IsSoftDelete(t *testing.T) {
	svc, repo := newTestCatalogService()
	s := repo.addService("Instagram", domain.CategorySocialMedia, true)
	repo.addPackage(s.ID, domain.TierBronze, 10, true)
	ctx := context.Background()

	require.NoError(t, svc.DeleteService(ctx, admin, s.ID))

	public, err := svc.GetActiveServiceByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, public)

	adminView, err := svc.GetServiceByID(ctx, admin, s.ID)
	require.NoError(t, err)
	require.NotNil(t, adminView)
	assert.False(t, adminView.Active)
	require.Len(t, adminView.Packages, 1)
	assert.True(t, adminView.Packages[0].Active)
}

func TestListAllServices_FiltersAndIncludesInactive(t *testing.T) {
	svc, repo := newTestCatalogService()
	repo.addService("Instagram Monthly", domain.CategorySocialMedia, true)
	repo.addService("Instagram Post", domain.CategorySocialMedia, false)
	repo.addService("Forbes", domain.CategoryPublication, true)
	ctx := context.Background()

	all, err := svc.ListAllServices(ctx, admin, ports.AdminServiceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	found, err := svc.ListAllServices(ctx, admin, ports.AdminServiceFilter{Search: " instagram "})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	inactive := false
	off, err := svc.ListAllServices(ctx, admin, ports.AdminServiceFilter{Active: &inactive})
	require.NoError(t, err)
	require.Len(t, off, 1)
	assert.Equal(t, "Instagram Post", off[0].Name)

	_, err = svc.ListAllServices(ctx, admin, ports.AdminServiceFilter{Category: "radio"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreatePackage(t *testing.T) {
	svc, repo := newTestCatalogService()
	s := repo.addService("Instagram", domain.CategorySocialMedia, true)

	id, err := svc.CreatePackage(context.Background(), admin, ports.CreatePackageInput{
		ServiceID:    s.ID,
		Name:         "Gold",
		Tier:         domain.TierGold,
		Price:        74.99,
		Deliverables: []string{" 1k likes ", "", "  "},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	stored := repo.packages[0]
	assert.Equal(t, s.ID, stored.ServiceID)
	assert.Equal(t, []string{"1k likes"}, stored.Deliverables)
	assert.True(t, stored.Active)
}

func TestCreatePackage_Validation(t *testing.T) {
	svc, repo := newTestCatalogService()
	s := repo.addService("Instagram", domain.CategorySocialMedia, true)

	valid := ports.CreatePackageInput{ServiceID: s.ID, Name: "Gold", Tier: domain.TierGold, Price: 10, Deliverables: []string{"a"}}
	tests := []struct {
		name   string
		mutate func(*ports.CreatePackageInput)
		want   error
	}{
		{"blank name", func(in *ports.CreatePackageInput) { in.Name = " " }, domain.ErrValidation},
		{"unknown tier", func(in *ports.CreatePackageInput) { in.Tier = "Ruby" }, domain.ErrValidation},
		{"negative price", func(in *ports.CreatePackageInput) { in.Price = -1 }, domain.ErrValidation},
		{"no deliverables", func(in *ports.CreatePackageInput) { in.Deliverables = []string{" "} }, domain.ErrValidation},
		{"unknown service", func(in *ports.CreatePackageInput) { in.ServiceID = "svc-404" }, domain.ErrServiceNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.CreatePackage(context.Background(), admin, in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, repo.packages)
}

func TestCreatePackage_ZeroPriceAllowed(t *testing.T) {
	svc, repo := newTestCatalogService()
	s := repo.addService("Free trial", domain.CategoryTool, true)

	_, err := svc.CreatePackage(context.Background(), admin, ports.CreatePackageInput{
		ServiceID: s.ID, Name: "Trial", Tier: domain.TierBronze, Price: 0, Deliverables: []string{"a"},
	})
	require.NoError(t, err)
	assert.Len(t, repo.packages, 1)
}

func TestUpdatePackage(t *testing.T) {
	svc, repo := newTestCatalogService()
	s := repo.addService("Instagram", domain.CategorySocialMedia, true)
	p := repo.addPackage(s.ID, domain.TierBronze, 10, true)
	ctx := context.Background()

	price := 12.5
	require.NoError(t, svc.UpdatePackage(ctx, admin, p.ID, ports.UpdatePackageInput{
		Price:        &price,
		Deliverables: []string{"x", " y "},
	}))
	assert.Equal(t, 12.5, repo.packages[0].Price)
	assert.Equal(t, []string{"x", "y"}, repo.packages[0].Deliverables)
	assert.Equal(t, domain.TierBronze, repo.packages[0].Tier)

	err := svc.UpdatePackage(ctx, admin, p.ID, ports.UpdatePackageInput{Deliverables: []string{}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = svc.UpdatePackage(ctx, admin, "pkg-404", ports.UpdatePackageInput{Price: &price})
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)
}

func TestDeletePackage_HidesFromPublicCatalog(t *testing.T) {
	svc, repo := newTestCatalogService()
	s := repo.addService("Instagram", domain.CategorySocialMedia, true)
	p := repo.addPackage(s.ID, domain.TierBronze, 10, true)
	ctx := context.Background()

	require.NoError(t, svc.DeletePackage(ctx, admin, p.ID))
	assert.False(t, repo.packages[0].Active)

	got, err := svc.GetActiveServiceByID(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Packages)
}
