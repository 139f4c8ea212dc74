package ports

import (
	"context"
	"time"

	"github.com/growthdesk/storefront/internal/core/domain"
)

// OrderFilter narrows List. Empty fields are not applied. Results are
// always newest first.
type OrderFilter struct {
	UserID string
	Status domain.OrderStatus
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	// Create inserts o and sets o.ID.
	Create(ctx context.Context, o *domain.Order) error
	// FindByID returns domain.ErrOrderNotFound when id is unknown.
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	// UpdateStatus moves the order from status `from` to `to`. The write only
	// applies while the stored status still equals `from`; otherwise
	// domain.ErrOrderNotFound is returned. completedAt is stored when non-nil.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, now time.Time, completedAt *time.Time) error
	// Stats aggregates orders of userID, or of everyone when userID is empty.
	Stats(ctx context.Context, userID string) (*domain.OrderStats, error)
}

// Transactor runs fn inside a storage transaction when the backend supports
// one. Repositories called with the ctx passed to fn join the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// IdempotencyStore remembers which order an Idempotency-Key produced.
// A key is reserved before the order is placed so concurrent retries cannot
// both create one.
type IdempotencyStore interface {
	// Reserve claims key. When the key is already taken, reserved is false
	// and orderID holds the order it produced, or "" while that request is
	// still in flight.
	Reserve(ctx context.Context, key string) (reserved bool, orderID string, err error)
	// Complete records the order created under a reserved key.
	Complete(ctx context.Context, key, orderID string) error
	// Release drops a reservation whose order was never created.
	Release(ctx context.Context, key string) error
}

// OrderEventPublisher delivers order lifecycle events to downstream consumers.
type OrderEventPublisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}
