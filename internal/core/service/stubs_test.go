package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/growthdesk/storefront/internal/core/domain"
	"github.com/growthdesk/storefront/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

var (
	admin    = domain.Caller{IdentityRef: "auth|admin", UserID: "admin-1", Role: domain.RoleAdmin, Status: domain.UserActive}
	customer = domain.Caller{IdentityRef: "auth|alice", UserID: "user-1", Role: domain.RoleUser, Status: domain.UserActive}
	stranger = domain.Caller{IdentityRef: "auth|bob", UserID: "user-2", Role: domain.RoleUser, Status: domain.UserActive}
	unsynced = domain.Caller{IdentityRef: "auth|new"}
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type stubCatalogRepo struct {
	services []*domain.Service
	packages []*domain.Package
	seq      int
	marks    int
	// beforeMark runs before MarkOrdered checks the catalog, simulating a
	// concurrent admin edit between the reads and the write.
	beforeMark func()
}

func newStubCatalogRepo() *stubCatalogRepo { return &stubCatalogRepo{} }

func (r *stubCatalogRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *stubCatalogRepo) CreateService(_ context.Context, s *domain.Service) error {
	s.ID = r.nextID("svc")
	clone := *s
	r.services = append(r.services, &clone)
	return nil
}

func (r *stubCatalogRepo) FindServiceByID(_ context.Context, id string) (*domain.Service, error) {
	for _, s := range r.services {
		if s.ID == id {
			clone := *s
			return &clone, nil
		}
	}
	return nil, domain.ErrServiceNotFound
}

func (r *stubCatalogRepo) FindServicesByIDs(ctx context.Context, ids []string) ([]domain.Service, error) {
	out := []domain.Service{}
	for _, id := range ids {
		if s, err := r.FindServiceByID(ctx, id); err == nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubCatalogRepo) ListServices(_ context.Context, f ports.ServiceFilter) ([]domain.Service, error) {
	out := []domain.Service{}
	for _, s := range r.services {
		if f.Category != "" && s.Category != f.Category {
			continue
		}
		if f.Active != nil && s.Active != *f.Active {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(s.Name), q) && !strings.Contains(strings.ToLower(s.Description), q) {
				continue
			}
		}
		out = append(out, *s)
	}
	if f.NewestFirst {
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out, nil
}

func (r *stubCatalogRepo) PatchService(_ context.Context, id string, p ports.ServicePatch, now time.Time) error {
	for _, s := range r.services {
		if s.ID != id {
			continue
		}
		if p.Name != nil {
			s.Name = *p.Name
		}
		if p.Description != nil {
			s.Description = *p.Description
		}
		if p.Category != nil {
			s.Category = *p.Category
		}
		if p.Platform != nil {
			s.Platform = *p.Platform
		}
		if p.Type != nil {
			s.Type = *p.Type
		}
		if p.Active != nil {
			s.Active = *p.Active
		}
		s.UpdatedAt = now
		return nil
	}
	return domain.ErrServiceNotFound
}

func (r *stubCatalogRepo) CountServices(context.Context) (int64, error) {
	return int64(len(r.services)), nil
}

func (r *stubCatalogRepo) CreatePackage(_ context.Context, p *domain.Package) error {
	p.ID = r.nextID("pkg")
	clone := *p
	r.packages = append(r.packages, &clone)
	return nil
}

func (r *stubCatalogRepo) FindPackageByID(_ context.Context, id string) (*domain.Package, error) {
	for _, p := range r.packages {
		if p.ID == id {
			clone := *p
			return &clone, nil
		}
	}
	return nil, domain.ErrPackageNotFound
}

func (r *stubCatalogRepo) FindPackagesByIDs(ctx context.Context, ids []string) ([]domain.Package, error) {
	out := []domain.Package{}
	for _, id := range ids {
		if p, err := r.FindPackageByID(ctx, id); err == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubCatalogRepo) ListPackagesByServices(_ context.Context, serviceIDs []string, activeOnly bool) ([]domain.Package, error) {
	want := make(map[string]bool, len(serviceIDs))
	for _, id := range serviceIDs {
		want[id] = true
	}
	out := []domain.Package{}
	for _, p := range r.packages {
		if !want[p.ServiceID] || (activeOnly && !p.Active) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubCatalogRepo) PatchPackage(_ context.Context, id string, p ports.PackagePatch, now time.Time) error {
	for _, pkg := range r.packages {
		if pkg.ID != id {
			continue
		}
		if p.Name != nil {
			pkg.Name = *p.Name
		}
		if p.Tier != nil {
			pkg.Tier = *p.Tier
		}
		if p.Price != nil {
			pkg.Price = *p.Price
		}
		if p.Deliverables != nil {
			pkg.Deliverables = p.Deliverables
		}
		if p.Active != nil {
			pkg.Active = *p.Active
		}
		pkg.UpdatedAt = now
		return nil
	}
	return domain.ErrPackageNotFound
}

func (r *stubCatalogRepo) MarkOrdered(_ context.Context, packageID, serviceID string, _ time.Time) error {
	if r.beforeMark != nil {
		r.beforeMark()
	}
	var pkgOK, svcOK bool
	for _, p := range r.packages {
		if p.ID == packageID && p.ServiceID == serviceID && p.Active {
			pkgOK = true
		}
	}
	for _, s := range r.services {
		if s.ID == serviceID && s.Active {
			svcOK = true
		}
	}
	switch {
	case !pkgOK:
		return domain.ErrInvalidPackage
	case !svcOK:
		return domain.ErrInvalidService
	}
	r.marks++
	return nil
}

// addService and addPackage seed the stub directly, bypassing the service layer.
func (r *stubCatalogRepo) addService(name string, category domain.Category, active bool) *domain.Service {
	s := &domain.Service{Name: name, Category: category, Active: active}
	_ = r.CreateService(context.Background(), s)
	return s
}

func (r *stubCatalogRepo) addPackage(serviceID string, tier domain.Tier, price float64, active bool) *domain.Package {
	p := &domain.Package{
		ServiceID:    serviceID,
		Name:         string(tier) + " package",
		Tier:         tier,
		Price:        price,
		Deliverables: []string{"something"},
		Active:       active,
	}
	_ = r.CreatePackage(context.Background(), p)
	return p
}

type stubUserRepo struct {
	byID     map[string]*domain.User
	seq      int
	upserts  int
	upsertFn func() error // if set and returns non-nil, UpsertByIdentity fails
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func (r *stubUserRepo) UpsertByIdentity(_ context.Context, t *domain.User, now time.Time) (*domain.User, error) {
	r.upserts++
	if r.upsertFn != nil {
		if err := r.upsertFn(); err != nil {
			return nil, err
		}
	}
	for _, u := range r.byID {
		if u.IdentityRef == t.IdentityRef {
			u.Email = t.Email
			u.Name = t.Name
			u.UpdatedAt = now
			clone := *u
			return &clone, nil
		}
	}
	r.seq++
	u := *t
	u.ID = fmt.Sprintf("user-%d", r.seq)
	r.byID[u.ID] = &u
	clone := u
	return &clone, nil
}

func (r *stubUserRepo) FindByIdentity(_ context.Context, ref string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.IdentityRef == ref {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByIDs(_ context.Context, ids []string) ([]domain.User, error) {
	out := []domain.User{}
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) UpdateStatus(_ context.Context, id string, status domain.UserStatus, now time.Time) error {
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Status = status
	u.UpdatedAt = now
	return nil
}

// put stores u as-is under u.ID.
func (r *stubUserRepo) put(u domain.User) {
	r.byID[u.ID] = &u
}

type stubOrderRepo struct {
	orders    []*domain.Order
	seq       int
	createErr error
	// beforeUpdate runs before the compare-and-set, simulating a concurrent writer.
	beforeUpdate func(o *domain.Order)
}

func newStubOrderRepo() *stubOrderRepo { return &stubOrderRepo{} }

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	o.ID = fmt.Sprintf("ord-%d", r.seq)
	clone := *o
	r.orders = append(r.orders, &clone)
	return nil
}

func (r *stubOrderRepo) find(id string) *domain.Order {
	for _, o := range r.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	o := r.find(id)
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

// List mirrors the Mongo sort: newest first, later inserts winning ties.
func (r *stubOrderRepo) List(_ context.Context, f ports.OrderFilter) ([]domain.Order, error) {
	out := []domain.Order{}
	for i := len(r.orders) - 1; i >= 0; i-- {
		o := r.orders[i]
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, *o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus, now time.Time, completedAt *time.Time) error {
	o := r.find(id)
	if o == nil {
		return domain.ErrOrderNotFound
	}
	if r.beforeUpdate != nil {
		r.beforeUpdate(o)
	}
	if o.Status != from {
		return domain.ErrOrderNotFound
	}
	o.Status = to
	o.UpdatedAt = now
	if completedAt != nil {
		t := *completedAt
		o.CompletedAt = &t
	}
	return nil
}

func (r *stubOrderRepo) Stats(_ context.Context, userID string) (*domain.OrderStats, error) {
	stats := &domain.OrderStats{ByStatus: map[domain.OrderStatus]int64{}}
	for _, o := range r.orders {
		if userID != "" && o.UserID != userID {
			continue
		}
		stats.Total++
		stats.ByStatus[o.Status]++
		if o.Status != domain.OrderCanceled {
			stats.TotalSpent += o.TotalPrice
		}
	}
	return stats, nil
}

const pendingOrder = ""

type stubIdempotency struct {
	keys       map[string]string
	reserveErr error
	released   int
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]string)}
}

func (s *stubIdempotency) Reserve(_ context.Context, key string) (bool, string, error) {
	if s.reserveErr != nil {
		return false, "", s.reserveErr
	}
	if id, ok := s.keys[key]; ok {
		return false, id, nil
	}
	s.keys[key] = pendingOrder
	return true, "", nil
}

func (s *stubIdempotency) Complete(_ context.Context, key, orderID string) error {
	s.keys[key] = orderID
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, key string) error {
	s.released++
	delete(s.keys, key)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type countingTx struct {
	calls int
}

func (t *countingTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}
