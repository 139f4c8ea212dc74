package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/growthdesk/storefront/internal/api/metrics"
	"github.com/growthdesk/storefront/internal/core/domain"
	"github.com/growthdesk/storefront/internal/core/ports"
)

const tracerName = "github.com/growthdesk/storefront/internal/core/service"

// OrderService implements ports.OrderService.
type OrderService struct {
	orders    ports.OrderRepository
	users     ports.UserRepository
	catalog   ports.CatalogRepository
	tx        ports.Transactor
	idem      ports.IdempotencyStore
	publisher ports.OrderEventPublisher
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewOrderService wires the order use cases. tx, idem and publisher may be
// nil: orders are then created without a transaction, Idempotency-Key
// headers are ignored, and no events are emitted.
func NewOrderService(
	orders ports.OrderRepository,
	users ports.UserRepository,
	catalog ports.CatalogRepository,
	tx ports.Transactor,
	idem ports.IdempotencyStore,
	publisher ports.OrderEventPublisher,
	logger zerolog.Logger,
) *OrderService {
	if tx == nil {
		tx = directTx{}
	}
	return &OrderService{
		orders:    orders,
		users:     users,
		catalog:   catalog,
		tx:        tx,
		idem:      idem,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		now:       utcNow,
	}
}

// directTx runs fn without a transaction.
type directTx struct{}

func (directTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// CreateOrder validates the user -> package -> service chain and inserts a
// pending order priced at the package's current price.
func (s *OrderService) CreateOrder(ctx context.Context, caller domain.Caller, in ports.CreateOrderInput) (*ports.CreateOrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder", trace.WithAttributes(
		attribute.String("order.user_id", in.UserID),
		attribute.String("order.package_id", in.PackageID),
	))
	defer span.End()

	if !caller.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !caller.CanActFor(in.UserID) {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(in.PackageID) == "" {
		return nil, fmt.Errorf("%w: package_id is required", domain.ErrValidation)
	}

	idemKey := ""
	if in.IdempotencyKey != "" && s.idem != nil {
		idemKey = in.UserID + ":" + in.IdempotencyKey
		existing, err := s.reserve(ctx, idemKey, in.UserID)
		switch {
		case errors.Is(err, domain.ErrOrderInProgress):
			span.SetAttributes(attribute.Bool("order.in_flight", true))
			return nil, fmt.Errorf("create order: %w", err)
		case err != nil:
			// Store unavailable: place the order without a reservation.
			idemKey = ""
		case existing != nil:
			span.SetAttributes(attribute.Bool("order.replayed", true))
			return &ports.CreateOrderResult{Order: *existing, AlreadyExisted: true}, nil
		}
	}

	var (
		order domain.Order
		pkg   *domain.Package
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, pkg, err = s.placeOrder(ctx, in)
		return err
	})
	if err != nil {
		if idemKey != "" {
			if relErr := s.idem.Release(ctx, idemKey); relErr != nil {
				s.logger.Warn().Ctx(ctx).Err(relErr).Msg("failed to release idempotency key")
			}
		}
		metrics.OrdersRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order failed")
		s.logger.Warn().Ctx(ctx).Err(err).Str("user_id", in.UserID).Str("package_id", in.PackageID).Msg("order rejected")
		return nil, fmt.Errorf("create order: %w", err)
	}

	if idemKey != "" {
		if err := s.idem.Complete(ctx, idemKey, order.ID); err != nil {
			s.logger.Warn().Ctx(ctx).Err(err).Str("order_id", order.ID).Msg("failed to store idempotency key")
		}
	}

	metrics.OrdersCreatedTotal.WithLabelValues(string(pkg.Tier)).Inc()
	span.SetAttributes(attribute.String("order.id", order.ID))
	s.logger.Info().Ctx(ctx).
		Str("order_id", order.ID).
		Str("user_id", order.UserID).
		Str("package_id", order.PackageID).
		Float64("total_price", order.TotalPrice).
		Msg("order created")

	s.publish(ctx, domain.OrderEvent{
		Type:       domain.EventOrderCreated,
		OrderID:    order.ID,
		UserID:     order.UserID,
		PackageID:  order.PackageID,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		OccurredAt: order.CreatedAt,
	})

	return &ports.CreateOrderResult{Order: order}, nil
}

func (s *OrderService) placeOrder(ctx context.Context, in ports.CreateOrderInput) (domain.Order, *domain.Package, error) {
	user, err := s.users.FindByID(ctx, in.UserID)
	if errors.Is(err, domain.ErrUserNotFound) || (err == nil && user.Status != domain.UserActive) {
		return domain.Order{}, nil, domain.ErrInvalidUser
	}
	if err != nil {
		return domain.Order{}, nil, err
	}

	pkg, err := s.catalog.FindPackageByID(ctx, in.PackageID)
	if errors.Is(err, domain.ErrPackageNotFound) || (err == nil && !pkg.Active) {
		return domain.Order{}, nil, domain.ErrInvalidPackage
	}
	if err != nil {
		return domain.Order{}, nil, err
	}

	svc, err := s.catalog.FindServiceByID(ctx, pkg.ServiceID)
	if errors.Is(err, domain.ErrServiceNotFound) || (err == nil && !svc.Active) {
		return domain.Order{}, nil, domain.ErrInvalidService
	}
	if err != nil {
		return domain.Order{}, nil, err
	}

	now := s.now()
	if err := s.catalog.MarkOrdered(ctx, pkg.ID, svc.ID, now); err != nil {
		return domain.Order{}, nil, err
	}

	order := domain.Order{
		UserID:     user.ID,
		PackageID:  pkg.ID,
		Status:     domain.OrderPending,
		InputData:  in.InputData,
		TotalPrice: pkg.Price,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.orders.Create(ctx, &order); err != nil {
		return domain.Order{}, nil, err
	}
	return order, pkg, nil
}

// reserve claims key for this request. It returns the previously created
// order on a replay, domain.ErrOrderInProgress while another request holds
// the key, and the store error when the reservation could not be made.
// A key pointing at a missing or foreign order is released and re-claimed.
func (s *OrderService) reserve(ctx context.Context, key, userID string) (*domain.Order, error) {
	for attempt := 0; attempt < 2; attempt++ {
		reserved, orderID, err := s.idem.Reserve(ctx, key)
		if err != nil {
			s.logger.Warn().Ctx(ctx).Err(err).Msg("idempotency reserve failed, processing anyway")
			return nil, err
		}
		if reserved {
			return nil, nil
		}
		if orderID == "" {
			s.logger.Info().Ctx(ctx).Str("user_id", userID).Msg("idempotency key still in flight")
			return nil, domain.ErrOrderInProgress
		}

		existing, err := s.orders.FindByID(ctx, orderID)
		if err == nil && existing.UserID == userID {
			s.logger.Info().Ctx(ctx).Str("order_id", orderID).Msg("idempotent replay")
			return existing, nil
		}
		s.logger.Warn().Ctx(ctx).Err(err).Str("order_id", orderID).Msg("idempotency key points at an unusable order")
		if err := s.idem.Release(ctx, key); err != nil {
			return nil, err
		}
	}
	return nil, domain.ErrOrderInProgress
}

// UpdateStatus applies a lifecycle transition. Re-applying the current status
// only refreshes updated_at.
func (s *OrderService) UpdateStatus(ctx context.Context, caller domain.Caller, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrValidation, status)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	from := order.Status
	if from != status && !from.CanTransitionTo(status) {
		metrics.OrderTransitionsTotal.WithLabelValues(string(from), string(status), "rejected").Inc()
		return nil, fmt.Errorf("update order status: %w (from %s to %s)", domain.ErrInvalidTransition, from, status)
	}

	now := s.now()
	var completedAt *time.Time
	if from != status && status == domain.OrderComplete {
		completedAt = &now
	}

	if err := s.orders.UpdateStatus(ctx, orderID, from, status, now, completedAt); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			metrics.OrderTransitionsTotal.WithLabelValues(string(from), string(status), "conflict").Inc()
			return nil, fmt.Errorf("update order status: %w (order changed concurrently)", domain.ErrInvalidTransition)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "update status failed")
		return nil, fmt.Errorf("update order status: %w", err)
	}

	order.Status = status
	order.UpdatedAt = now
	if completedAt != nil {
		order.CompletedAt = completedAt
	}

	if from == status {
		s.logger.Debug().Ctx(ctx).Str("order_id", orderID).Str("status", string(status)).Msg("order status unchanged")
		return order, nil
	}

	metrics.OrderTransitionsTotal.WithLabelValues(string(from), string(status), "applied").Inc()
	s.logger.Info().Ctx(ctx).
		Str("order_id", orderID).
		Str("from", string(from)).
		Str("to", string(status)).
		Str("admin", caller.IdentityRef).
		Msg("order status changed")

	s.publish(ctx, domain.OrderEvent{
		Type:       domain.EventOrderStatusChanged,
		OrderID:    order.ID,
		UserID:     order.UserID,
		PackageID:  order.PackageID,
		Status:     status,
		PrevStatus: from,
		TotalPrice: order.TotalPrice,
		OccurredAt: now,
	})

	return order, nil
}

func (s *OrderService) GetByUser(ctx context.Context, caller domain.Caller, userID string) ([]domain.OrderDetail, error) {
	if !caller.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !caller.CanActFor(userID) {
		return nil, domain.ErrForbidden
	}
	orders, err := s.orders.List(ctx, ports.OrderFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	return s.join(ctx, orders, false)
}

// GetByID returns nil when the order does not exist or belongs to someone
// else and the caller is not an admin.
func (s *OrderService) GetByID(ctx context.Context, caller domain.Caller, orderID string) (*domain.OrderDetail, error) {
	if !caller.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !caller.CanActFor(order.UserID) {
		return nil, nil
	}

	details, err := s.join(ctx, []domain.Order{*order}, false)
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (s *OrderService) GetByStatus(ctx context.Context, caller domain.Caller, status domain.OrderStatus) ([]domain.Order, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrValidation, status)
	}
	orders, err := s.orders.List(ctx, ports.OrderFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("list orders by status: %w", err)
	}
	return orders, nil
}

func (s *OrderService) AdminGetAll(ctx context.Context, caller domain.Caller) ([]domain.OrderDetail, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	orders, err := s.orders.List(ctx, ports.OrderFilter{})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return s.join(ctx, orders, true)
}

func (s *OrderService) Stats(ctx context.Context, caller domain.Caller, userID string) (*domain.OrderStats, error) {
	if userID == "" && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if userID != "" && !caller.CanActFor(userID) {
		return nil, domain.ErrForbidden
	}
	stats, err := s.orders.Stats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	if stats.ByStatus == nil {
		stats.ByStatus = make(map[domain.OrderStatus]int64, len(domain.AllOrderStatuses))
	}
	for _, st := range domain.AllOrderStatuses {
		if _, ok := stats.ByStatus[st]; !ok {
			stats.ByStatus[st] = 0
		}
	}
	return stats, nil
}

// join attaches package, service and optionally user summaries to orders,
// batching lookups per entity type. Unresolvable references stay nil.
func (s *OrderService) join(ctx context.Context, orders []domain.Order, withUser bool) ([]domain.OrderDetail, error) {
	out := make([]domain.OrderDetail, 0, len(orders))
	if len(orders) == 0 {
		return out, nil
	}

	packages, err := s.catalog.FindPackagesByIDs(ctx, uniq(orders, func(o domain.Order) string { return o.PackageID }))
	if err != nil {
		return nil, fmt.Errorf("load order packages: %w", err)
	}
	pkgByID := make(map[string]*domain.Package, len(packages))
	serviceIDs := make([]string, 0, len(packages))
	for i := range packages {
		pkgByID[packages[i].ID] = &packages[i]
		serviceIDs = append(serviceIDs, packages[i].ServiceID)
	}

	services, err := s.catalog.FindServicesByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, fmt.Errorf("load order services: %w", err)
	}
	svcByID := make(map[string]*domain.Service, len(services))
	for i := range services {
		svcByID[services[i].ID] = &services[i]
	}

	userByID := map[string]*domain.UserSummary{}
	if withUser {
		users, err := s.users.FindByIDs(ctx, uniq(orders, func(o domain.Order) string { return o.UserID }))
		if err != nil {
			return nil, fmt.Errorf("load order users: %w", err)
		}
		for _, u := range users {
			userByID[u.ID] = &domain.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	}

	for _, o := range orders {
		d := domain.OrderDetail{Order: o, Package: pkgByID[o.PackageID]}
		if d.Package != nil {
			d.Service = svcByID[d.Package.ServiceID]
		}
		if withUser {
			d.User = userByID[o.UserID]
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *OrderService) publish(ctx context.Context, event domain.OrderEvent) {
	if s.publisher == nil {
		return
	}
	event.ID = uuid.NewString()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Ctx(ctx).Err(err).Str("order_id", event.OrderID).Str("event", event.Type).Msg("failed to publish order event")
	}
}

func uniq(orders []domain.Order, key func(domain.Order) string) []string {
	seen := make(map[string]struct{}, len(orders))
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		k := key(o)
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidUser):
		return "invalid_user"
	case errors.Is(err, domain.ErrInvalidPackage):
		return "invalid_package"
	case errors.Is(err, domain.ErrInvalidService):
		return "invalid_service"
	default:
		return "error"
	}
}
