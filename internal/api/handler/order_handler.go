package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/growthdesk/storefront/internal/core/domain"
	"github.com/growthdesk/storefront/internal/core/ports"
)

// OrderHandler handles HTTP requests for the order lifecycle.
type OrderHandler struct {
	service ports.OrderService
}

func NewOrderHandler(service ports.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create handles POST /v1/orders.
//
// @Summary      Place an order for a package
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string              false  "Replays with the same key return the first order"
// @Param        body             body      createOrderRequest  true   "Order"
// @Success      201              {object}  orderResponse
// @Success      200              {object}  orderResponse  "Replayed Idempotency-Key"
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      409              {object}  errorResponse  "Idempotency-Key still in flight"
// @Failure      422              {object}  errorResponse
// @Failure      429              {object}  errorResponse
// @Router       /v1/orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	userID := req.UserID
	if userID == "" {
		userID = caller.UserID
	}

	res, err := h.service.CreateOrder(c.Request().Context(), caller, ports.CreateOrderInput{
		UserID:    userID,
		PackageID: req.PackageID,
		InputData: domain.InputData{
			URL:   strings.TrimSpace(req.InputData.URL),
			Notes: strings.TrimSpace(req.InputData.Notes),
		},
		IdempotencyKey: strings.TrimSpace(c.Request().Header.Get("Idempotency-Key")),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if res.AlreadyExisted {
		status = http.StatusOK
	}
	c.Response().Header().Set(echo.HeaderLocation, "/v1/orders/"+res.Order.ID)
	return c.JSON(status, toOrderResponse(res.Order))
}

// Mine handles GET /v1/orders/mine.
//
// @Summary      List the caller's orders, newest first
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  orderListResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/orders/mine [get]
func (h *OrderHandler) Mine(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	if caller.UserID == "" {
		return c.JSON(http.StatusOK, orderListResponse{Orders: []orderDetailResponse{}})
	}
	orders, err := h.service.GetByUser(c.Request().Context(), caller, caller.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderListResponse(orders))
}

// MyStats handles GET /v1/orders/stats/mine.
//
// @Summary      Order counters for the caller's dashboard
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.OrderStats
// @Failure      401  {object}  errorResponse
// @Router       /v1/orders/stats/mine [get]
func (h *OrderHandler) MyStats(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	if caller.UserID == "" {
		return domain.ErrForbidden
	}
	stats, err := h.service.Stats(c.Request().Context(), caller, caller.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Get handles GET /v1/orders/:id.
//
// @Summary      Get one order with its package and service
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  orderDetailResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetByID(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	if detail == nil {
		return domain.ErrOrderNotFound
	}
	return c.JSON(http.StatusOK, toOrderDetailResponse(*detail))
}

// AdminList handles GET /v1/admin/orders.
//
// @Summary      List all orders, or those in one status
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "pending | inProgress | complete | canceled"
// @Success      200     {object}  orderListResponse
// @Failure      403     {object}  errorResponse
// @Router       /v1/admin/orders [get]
func (h *OrderHandler) AdminList(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if status := c.QueryParam("status"); status != "" {
		orders, err := h.service.GetByStatus(ctx, caller, domain.OrderStatus(status))
		if err != nil {
			return err
		}
		out := make([]orderResponse, 0, len(orders))
		for _, o := range orders {
			out = append(out, toOrderResponse(o))
		}
		return c.JSON(http.StatusOK, orderSummaryListResponse{Orders: out})
	}

	orders, err := h.service.AdminGetAll(ctx, caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderListResponse(orders))
}

// AdminStats handles GET /v1/admin/orders/stats.
//
// @Summary      Order counters across all users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.OrderStats
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/orders/stats [get]
func (h *OrderHandler) AdminStats(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	stats, err := h.service.Stats(c.Request().Context(), caller, "")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// UpdateStatus handles PATCH /v1/admin/orders/:id/status.
//
// @Summary      Move an order through its lifecycle
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true  "Order id"
// @Param        body  body      updateOrderStatusRequest  true  "Target status"
// @Success      200   {object}  orderResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/admin/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req updateOrderStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	order, err := h.service.UpdateStatus(c.Request().Context(), caller, c.Param("id"), domain.OrderStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(*order))
}

// UserOrders handles GET /v1/admin/users/:id/orders.
//
// @Summary      List one user's orders
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  orderListResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/users/{id}/orders [get]
func (h *OrderHandler) UserOrders(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	orders, err := h.service.GetByUser(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderListResponse(orders))
}
