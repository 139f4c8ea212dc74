package handler

import (
	"context"
	"io"
	"net/http/httptest"

	"github.com/labstack/echo/v4"

	"github.com/growthdesk/storefront/internal/api/middleware"
	"github.com/growthdesk/storefront/internal/core/domain"
	"github.com/growthdesk/storefront/internal/core/ports"
)

var (
	adminCaller = domain.Caller{IdentityRef: "idp|admin", UserID: "64b7f0c2a1b2c3d4e5f60001", Role: domain.RoleAdmin, Status: domain.UserActive}
	userCaller  = domain.Caller{IdentityRef: "idp|alice", UserID: "64b7f0c2a1b2c3d4e5f60002", Role: domain.RoleUser, Status: domain.UserActive}
)

// newContext builds an echo context carrying caller, the way the middleware
// chain would have left it.
func newContext(method, target string, body io.Reader, caller domain.Caller) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.CallerKey, caller)
	return c, rec
}

type stubCatalogService struct {
	listActiveByCategoryFn func(ctx context.Context, category domain.Category) ([]domain.ServiceWithPackages, error)
	getActiveFn            func(ctx context.Context, id string) (*domain.ServiceWithPackages, error)
	listAllActiveFn        func(ctx context.Context) ([]domain.ServiceWithPackages, error)
	listAllFn              func(ctx context.Context, caller domain.Caller, f ports.AdminServiceFilter) ([]domain.ServiceWithPackages, error)
	getFn                  func(ctx context.Context, caller domain.Caller, id string) (*domain.ServiceWithPackages, error)
	createServiceFn        func(ctx context.Context, caller domain.Caller, in ports.CreateServiceInput) (string, error)
	updateServiceFn        func(ctx context.Context, caller domain.Caller, id string, in ports.UpdateServiceInput) error
	setActiveFn            func(ctx context.Context, caller domain.Caller, id string, active *bool) error
	deleteServiceFn        func(ctx context.Context, caller domain.Caller, id string) error
	createPackageFn        func(ctx context.Context, caller domain.Caller, in ports.CreatePackageInput) (string, error)
	updatePackageFn        func(ctx context.Context, caller domain.Caller, id string, in ports.UpdatePackageInput) error
	deletePackageFn        func(ctx context.Context, caller domain.Caller, id string) error
}

func (s *stubCatalogService) ListActiveByCategory(ctx context.Context, category domain.Category) ([]domain.ServiceWithPackages, error) {
	return s.listActiveByCategoryFn(ctx, category)
}

func (s *stubCatalogService) GetActiveServiceByID(ctx context.Context, id string) (*domain.ServiceWithPackages, error) {
	return s.getActiveFn(ctx, id)
}

func (s *stubCatalogService) ListAllActiveServices(ctx context.Context) ([]domain.ServiceWithPackages, error) {
	return s.listAllActiveFn(ctx)
}

func (s *stubCatalogService) ListAllServices(ctx context.Context, caller domain.Caller, f ports.AdminServiceFilter) ([]domain.ServiceWithPackages, error) {
	return s.listAllFn(ctx, caller, f)
}

func (s *stubCatalogService) GetServiceByID(ctx context.Context, caller domain.Caller, id string) (*domain.ServiceWithPackages, error) {
	return s.getFn(ctx, caller, id)
}

func (s *stubCatalogService) CreateService(ctx context.Context, caller domain.Caller, in ports.CreateServiceInput) (string, error) {
	return s.createServiceFn(ctx, caller, in)
}

func (s *stubCatalogService) UpdateService(ctx context.Context, caller domain.Caller, id string, in ports.UpdateServiceInput) error {
	return s.updateServiceFn(ctx, caller, id, in)
}

func (s *stubCatalogService) SetServiceActive(ctx context.Context, caller domain.Caller, id string, active *bool) error {
	return s.setActiveFn(ctx, caller, id, active)
}

func (s *stubCatalogService) DeleteService(ctx context.Context, caller domain.Caller, id string) error {
	return s.deleteServiceFn(ctx, caller, id)
}

func (s *stubCatalogService) CreatePackage(ctx context.Context, caller domain.Caller, in ports.CreatePackageInput) (string, error) {
	return s.createPackageFn(ctx, caller, in)
}

func (s *stubCatalogService) UpdatePackage(ctx context.Context, caller domain.Caller, id string, in ports.UpdatePackageInput) error {
	return s.updatePackageFn(ctx, caller, id, in)
}

func (s *stubCatalogService) DeletePackage(ctx context.Context, caller domain.Caller, id string) error {
	return s.deletePackageFn(ctx, caller, id)
}

type stubOrderService struct {
	createFn      func(ctx context.Context, caller domain.Caller, in ports.CreateOrderInput) (*ports.CreateOrderResult, error)
	updateFn      func(ctx context.Context, caller domain.Caller, id string, st domain.OrderStatus) (*domain.Order, error)
	byUserFn      func(ctx context.Context, caller domain.Caller, userID string) ([]domain.OrderDetail, error)
	byIDFn        func(ctx context.Context, caller domain.Caller, id string) (*domain.OrderDetail, error)
	byStatusFn    func(ctx context.Context, caller domain.Caller, st domain.OrderStatus) ([]domain.Order, error)
	adminGetAllFn func(ctx context.Context, caller domain.Caller) ([]domain.OrderDetail, error)
	statsFn       func(ctx context.Context, caller domain.Caller, userID string) (*domain.OrderStats, error)
}

func (s *stubOrderService) CreateOrder(ctx context.Context, caller domain.Caller, in ports.CreateOrderInput) (*ports.CreateOrderResult, error) {
	return s.createFn(ctx, caller, in)
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, caller domain.Caller, id string, st domain.OrderStatus) (*domain.Order, error) {
	return s.updateFn(ctx, caller, id, st)
}

func (s *stubOrderService) GetByUser(ctx context.Context, caller domain.Caller, userID string) ([]domain.OrderDetail, error) {
	return s.byUserFn(ctx, caller, userID)
}

func (s *stubOrderService) GetByID(ctx context.Context, caller domain.Caller, id string) (*domain.OrderDetail, error) {
	return s.byIDFn(ctx, caller, id)
}

func (s *stubOrderService) GetByStatus(ctx context.Context, caller domain.Caller, st domain.OrderStatus) ([]domain.Order, error) {
	return s.byStatusFn(ctx, caller, st)
}

func (s *stubOrderService) AdminGetAll(ctx context.Context, caller domain.Caller) ([]domain.OrderDetail, error) {
	return s.adminGetAllFn(ctx, caller)
}

func (s *stubOrderService) Stats(ctx context.Context, caller domain.Caller, userID string) (*domain.OrderStats, error) {
	return s.statsFn(ctx, caller, userID)
}

type stubUserService struct {
	upsertFn     func(ctx context.Context, in ports.IdentityInput) (string, error)
	byIdentityFn func(ctx context.Context, ref string) (*domain.User, error)
	setStatusFn  func(ctx context.Context, caller domain.Caller, id string, st domain.UserStatus) error
}

func (s *stubUserService) UpsertFromIdentity(ctx context.Context, in ports.IdentityInput) (string, error) {
	return s.upsertFn(ctx, in)
}

func (s *stubUserService) GetByIdentity(ctx context.Context, ref string) (*domain.User, error) {
	return s.byIdentityFn(ctx, ref)
}

func (s *stubUserService) GetByID(ctx context.Context, caller domain.Caller, id string) (*domain.User, error) {
	return nil, nil
}

func (s *stubUserService) IsActive(ctx context.Context, ref string) (bool, error) {
	return false, nil
}

func (s *stubUserService) SetStatus(ctx context.Context, caller domain.Caller, id string, st domain.UserStatus) error {
	return s.setStatusFn(ctx, caller, id, st)
}
