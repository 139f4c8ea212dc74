package ports

import (
	"context"

	"github.com/growthdesk/storefront/internal/core/domain"
)

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	UserID    string
	PackageID string
	InputData domain.InputData
	// IdempotencyKey is optional; replays with the same key return the first order.
	IdempotencyKey string
}

// CreateOrderResult is returned by CreateOrder.
type CreateOrderResult struct {
	Order domain.Order
	// AlreadyExisted is true when the Idempotency-Key matched an existing order.
	AlreadyExisted bool
}

// OrderService defines use-case operations for orders.
type OrderService interface {
	CreateOrder(ctx context.Context, caller domain.Caller, input CreateOrderInput) (*CreateOrderResult, error)
	UpdateStatus(ctx context.Context, caller domain.Caller, orderID string, status domain.OrderStatus) (*domain.Order, error)
	GetByUser(ctx context.Context, caller domain.Caller, userID string) ([]domain.OrderDetail, error)
	// GetByID returns nil, nil when the order does not exist.
	GetByID(ctx context.Context, caller domain.Caller, orderID string) (*domain.OrderDetail, error)
	GetByStatus(ctx context.Context, caller domain.Caller, status domain.OrderStatus) ([]domain.Order, error)
	AdminGetAll(ctx context.Context, caller domain.Caller) ([]domain.OrderDetail, error)
	// Stats covers userID's orders, or all orders when userID is empty (admin only).
	Stats(ctx context.Context, caller domain.Caller, userID string) (*domain.OrderStats, error)
}
