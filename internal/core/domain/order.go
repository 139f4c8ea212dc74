package domain

import (
	"errors"
	"time"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "inProgress"
	OrderComplete   OrderStatus = "complete"
	OrderCanceled   OrderStatus = "canceled"
)

// AllOrderStatuses lists every status in lifecycle order.
var AllOrderStatuses = []OrderStatus{OrderPending, OrderInProgress, OrderComplete, OrderCanceled}

// validTransitions defines the allowed state machine transitions.
// complete and canceled are terminal.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderInProgress, OrderCanceled},
	OrderInProgress: {OrderComplete, OrderCanceled},
}

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidUser       = errors.New("user not found or not active")
	ErrInvalidPackage    = errors.New("package not found or not available")
	ErrInvalidService    = errors.New("service not found or not available")
	// ErrOrderInProgress is returned to a retry that arrives while the first
	// request with the same Idempotency-Key is still placing its order.
	ErrOrderInProgress = errors.New("order with this idempotency key is still being placed")
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderInProgress, OrderComplete, OrderCanceled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible from s.
func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(validTransitions[s]) == 0
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InputData carries the free-form per-order parameters a customer submits.
type InputData struct {
	URL   string `json:"url,omitempty" bson:"url,omitempty"`
	Notes string `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Order is a user's purchase of one package. TotalPrice is a snapshot of the
// package price at creation time. Orders are never deleted.
type Order struct {
	ID          string      `json:"id" bson:"_id,omitempty"`
	UserID      string      `json:"user_id" bson:"user_id"`
	PackageID   string      `json:"package_id" bson:"package_id"`
	Status      OrderStatus `json:"status" bson:"status"`
	InputData   InputData   `json:"input_data" bson:"input_data"`
	TotalPrice  float64     `json:"total_price" bson:"total_price"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" bson:"updated_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// OrderDetail is an order joined with its catalog entries and, for admin
// views, its owner. Package, Service and User are nil when unresolvable.
type OrderDetail struct {
	Order
	Package *Package     `json:"package"`
	Service *Service     `json:"service"`
	User    *UserSummary `json:"user,omitempty"`
}

// OrderStats aggregates order counts per status and the spend they represent.
type OrderStats struct {
	Total      int64                 `json:"total"`
	ByStatus   map[OrderStatus]int64 `json:"by_status"`
	TotalSpent float64               `json:"total_spent"`
}

// Order event types published after successful writes.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the integration event emitted for order lifecycle changes.
type OrderEvent struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	PackageID  string      `json:"package_id"`
	Status     OrderStatus `json:"status"`
	PrevStatus OrderStatus `json:"prev_status,omitempty"`
	TotalPrice float64     `json:"total_price"`
	OccurredAt time.Time   `json:"occurred_at"`
}
