package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/growthdesk/storefront/internal/api/middleware"
	"github.com/growthdesk/storefront/internal/core/domain"
	"github.com/growthdesk/storefront/internal/core/ports"
)

// UserHandler handles identity sync and user administration.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type userStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending active suspended"`
}

// Sync handles POST /v1/users/sync.
//
// @Summary      Create or refresh the caller's user record from token claims
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  idResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/users/sync [post]
func (h *UserHandler) Sync(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	email, _ := c.Get(middleware.EmailKey).(string)
	name, _ := c.Get(middleware.NameKey).(string)

	id, err := h.service.UpsertFromIdentity(c.Request().Context(), ports.IdentityInput{
		IdentityRef: caller.IdentityRef,
		Email:       email,
		Name:        name,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, idResponse{ID: id})
}

// Me handles GET /v1/users/me.
//
// @Summary      The caller's user record
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	user, err := h.service.GetByIdentity(c.Request().Context(), caller.IdentityRef)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	return c.JSON(http.StatusOK, user)
}

// SetStatus handles PATCH /v1/admin/users/:id/status.
//
// @Summary      Change a user's status
// @Tags         admin
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string             true  "User id"
// @Param        body  body  userStatusRequest  true  "Status"
// @Success      204
// @Failure      404   {object}  errorResponse
// @Router       /v1/admin/users/{id}/status [patch]
func (h *UserHandler) SetStatus(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req userStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.service.SetStatus(c.Request().Context(), caller, c.Param("id"), domain.UserStatus(req.Status)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
