package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/growthdesk/storefront/internal/core/domain"
	"github.com/growthdesk/storefront/internal/core/ports"
)

// CatalogHandler serves the public storefront catalog and its admin console.
type CatalogHandler struct {
	service ports.CatalogService
}

func NewCatalogHandler(service ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListActive handles GET /v1/catalog/services.
//
// @Summary      List active services with their active packages
// @Tags         catalog
// @Produce      json
// @Param        category  query     string  false  "socialMedia | publication | tool"
// @Success      200       {object}  serviceListResponse
// @Failure      400       {object}  errorResponse
// @Router       /v1/catalog/services [get]
func (h *CatalogHandler) ListActive(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		services []domain.ServiceWithPackages
		err      error
	)
	if category := c.QueryParam("category"); category != "" {
		services, err = h.service.ListActiveByCategory(ctx, domain.Category(category))
	} else {
		services, err = h.service.ListAllActiveServices(ctx)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serviceListResponse{Services: services})
}

// GetActive handles GET /v1/catalog/services/:id.
//
// @Summary      Get an active service
// @Tags         catalog
// @Produce      json
// @Param        id   path      string  true  "Service id"
// @Success      200  {object}  domain.ServiceWithPackages
// @Failure      404  {object}  errorResponse
// @Router       /v1/catalog/services/{id} [get]
func (h *CatalogHandler) GetActive(c echo.Context) error {
	svc, err := h.service.GetActiveServiceByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if svc == nil {
		return domain.ErrServiceNotFound
	}
	return c.JSON(http.StatusOK, svc)
}

// AdminList handles GET /v1/admin/services.
//
// @Summary      List every service, newest first
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        category  query     string  false  "socialMedia | publication | tool"
// @Param        active    query     bool    false  "Filter by active flag"
// @Param        q         query     string  false  "Case-insensitive search on name and description"
// @Success      200       {object}  serviceListResponse
// @Failure      403       {object}  errorResponse
// @Router       /v1/admin/services [get]
func (h *CatalogHandler) AdminList(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	filter := ports.AdminServiceFilter{
		Category: domain.Category(c.QueryParam("category")),
		Search:   c.QueryParam("q"),
	}
	if raw := c.QueryParam("active"); raw != "" {
		active, perr := strconv.ParseBool(raw)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "active must be a boolean")
		}
		filter.Active = &active
	}

	services, err := h.service.ListAllServices(c.Request().Context(), caller, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serviceListResponse{Services: services})
}

// AdminGet handles GET /v1/admin/services/:id.
//
// @Summary      Get a service regardless of its active flag
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Service id"
// @Success      200  {object}  domain.ServiceWithPackages
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/services/{id} [get]
func (h *CatalogHandler) AdminGet(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	svc, err := h.service.GetServiceByID(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	if svc == nil {
		return domain.ErrServiceNotFound
	}
	return c.JSON(http.StatusOK, svc)
}

// CreateService handles POST /v1/admin/services.
//
// @Summary      Create a service
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createServiceRequest  true  "Service"
// @Success      201   {object}  idResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/admin/services [post]
func (h *CatalogHandler) CreateService(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req createServiceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	id, err := h.service.CreateService(c.Request().Context(), caller, ports.CreateServiceInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    domain.Category(req.Category),
		Platform:    req.Platform,
		Type:        req.Type,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, idResponse{ID: id})
}

// UpdateService handles PATCH /v1/admin/services/:id.
//
// @Summary      Patch a service
// @Tags         admin
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string                true  "Service id"
// @Param        body  body  updateServiceRequest  true  "Fields to change"
// @Success      204
// @Failure      404   {object}  errorResponse
// @Router       /v1/admin/services/{id} [patch]
func (h *CatalogHandler) UpdateService(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req updateServiceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.service.UpdateService(c.Request().Context(), caller, c.Param("id"), req.toInput()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleService handles POST /v1/admin/services/:id/toggle.
//
// @Summary      Set or flip the active flag of a service
// @Tags         admin
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string                true   "Service id"
// @Param        body  body  toggleServiceRequest  false  "Explicit value; omit to flip"
// @Success      204
// @Failure      404   {object}  errorResponse
// @Router       /v1/admin/services/{id}/toggle [post]
func (h *CatalogHandler) ToggleService(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req toggleServiceRequest
	if c.Request().ContentLength > 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
	}
	if err := h.service.SetServiceActive(c.Request().Context(), caller, c.Param("id"), req.Active); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteService handles DELETE /v1/admin/services/:id.
//
// @Summary      Deactivate a service
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "Service id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/services/{id} [delete]
func (h *CatalogHandler) DeleteService(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteService(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// CreatePackage handles POST /v1/admin/services/:id/packages.
//
// @Summary      Add a package to a service
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Service id"
// @Param        body  body      createPackageRequest  true  "Package"
// @Success      201   {object}  idResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/admin/services/{id}/packages [post]
func (h *CatalogHandler) CreatePackage(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req createPackageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	id, err := h.service.CreatePackage(c.Request().Context(), caller, ports.CreatePackageInput{
		ServiceID:    c.Param("id"),
		Name:         req.Name,
		Tier:         domain.Tier(req.Tier),
		Price:        req.Price,
		Deliverables: req.Deliverables,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, idResponse{ID: id})
}

// UpdatePackage handles PATCH /v1/admin/packages/:id.
//
// @Summary      Patch a package
// @Tags         admin
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string                true  "Package id"
// @Param        body  body  updatePackageRequest  true  "Fields to change"
// @Success      204
// @Failure      404   {object}  errorResponse
// @Router       /v1/admin/packages/{id} [patch]
func (h *CatalogHandler) UpdatePackage(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req updatePackageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.service.UpdatePackage(c.Request().Context(), caller, c.Param("id"), req.toInput()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeletePackage handles DELETE /v1/admin/packages/:id.
//
// @Summary      Deactivate a package
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "Package id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/packages/{id} [delete]
func (h *CatalogHandler) DeletePackage(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	if err := h.service.DeletePackage(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
