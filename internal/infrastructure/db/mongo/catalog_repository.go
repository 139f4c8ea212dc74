package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/growthdesk/storefront/internal/core/domain"
	"github.com/growthdesk/storefront/internal/core/ports"
)

// CatalogRepository implements ports.CatalogRepository over the services
// and packages collections.
type CatalogRepository struct {
	services *mongo.Collection
	packages *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{
		services: db.Collection(collectionServices),
		packages: db.Collection(collectionPackages),
	}
}

type serviceDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	Platform    string             `bson:"platform,omitempty"`
	Type        string             `bson:"type,omitempty"`
	Active      bool               `bson:"active"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d serviceDoc) toDomain() domain.Service {
	return domain.Service{
		ID:          hexOrEmpty(d.ID),
		Name:        d.Name,
		Description: d.Description,
		Category:    domain.Category(d.Category),
		Platform:    d.Platform,
		Type:        d.Type,
		Active:      d.Active,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type packageDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ServiceID    primitive.ObjectID `bson:"service_id"`
	Name         string             `bson:"name"`
	Tier         string             `bson:"tier"`
	Price        float64            `bson:"price"`
	Deliverables []string           `bson:"deliverables"`
	Active       bool               `bson:"active"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d packageDoc) toDomain() domain.Package {
	return domain.Package{
		ID:           hexOrEmpty(d.ID),
		ServiceID:    hexOrEmpty(d.ServiceID),
		Name:         d.Name,
		Tier:         domain.Tier(d.Tier),
		Price:        d.Price,
		Deliverables: d.Deliverables,
		Active:       d.Active,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// CreateService inserts a new service document and sets s.ID.
func (r *CatalogRepository) CreateService(ctx context.Context, s *domain.Service) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := serviceDoc{
		Name:        s.Name,
		Description: s.Description,
		Category:    string(s.Category),
		Platform:    s.Platform,
		Type:        s.Type,
		Active:      s.Active,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	res, err := r.services.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	s.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (r *CatalogRepository) FindServiceByID(ctx context.Context, id string) (*domain.Service, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrServiceNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc serviceDoc
	if err := r.services.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrServiceNotFound
		}
		return nil, fmt.Errorf("find service: %w", err)
	}
	s := doc.toDomain()
	return &s, nil
}

func (r *CatalogRepository) FindServicesByIDs(ctx context.Context, ids []string) ([]domain.Service, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []domain.Service{}, nil
	}
	return r.findServices(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find())
}

// ListServices applies filter; without NewestFirst results come back in
// insertion order (_id ascending).
func (r *CatalogRepository) ListServices(ctx context.Context, f ports.ServiceFilter) ([]domain.Service, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = string(f.Category)
	}
	if f.Active != nil {
		filter["active"] = *f.Active
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": rx},
			bson.M{"description": rx},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if f.NewestFirst {
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	}
	return r.findServices(ctx, filter, opts)
}

func (r *CatalogRepository) findServices(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.services.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find services: %w", err)
	}
	var docs []serviceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode services: %w", err)
	}

	out := make([]domain.Service, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *CatalogRepository) PatchService(ctx context.Context, id string, p ports.ServicePatch, now time.Time) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrServiceNotFound
	}

	set := bson.M{"updated_at": now}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Category != nil {
		set["category"] = string(*p.Category)
	}
	if p.Platform != nil {
		set["platform"] = *p.Platform
	}
	if p.Type != nil {
		set["type"] = *p.Type
	}
	if p.Active != nil {
		set["active"] = *p.Active
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.services.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("patch service: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrServiceNotFound
	}
	return nil
}

func (r *CatalogRepository) CountServices(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.services.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count services: %w", err)
	}
	return n, nil
}

// CreatePackage inserts a new package document and sets p.ID.
func (r *CatalogRepository) CreatePackage(ctx context.Context, p *domain.Package) error {
	serviceID, ok := objectID(p.ServiceID)
	if !ok {
		return domain.ErrServiceNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := packageDoc{
		ServiceID:    serviceID,
		Name:         p.Name,
		Tier:         string(p.Tier),
		Price:        p.Price,
		Deliverables: p.Deliverables,
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	res, err := r.packages.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert package: %w", err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (r *CatalogRepository) FindPackageByID(ctx context.Context, id string) (*domain.Package, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrPackageNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc packageDoc
	if err := r.packages.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, fmt.Errorf("find package: %w", err)
	}
	p := doc.toDomain()
	return &p, nil
}

func (r *CatalogRepository) FindPackagesByIDs(ctx context.Context, ids []string) ([]domain.Package, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []domain.Package{}, nil
	}
	return r.findPackages(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

func (r *CatalogRepository) ListPackagesByServices(ctx context.Context, serviceIDs []string, activeOnly bool) ([]domain.Package, error) {
	oids := objectIDs(serviceIDs)
	if len(oids) == 0 {
		return []domain.Package{}, nil
	}
	filter := bson.M{"service_id": bson.M{"$in": oids}}
	if activeOnly {
		filter["active"] = true
	}
	return r.findPackages(ctx, filter)
}

func (r *CatalogRepository) findPackages(ctx context.Context, filter bson.M) ([]domain.Package, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.packages.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find packages: %w", err)
	}
	var docs []packageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode packages: %w", err)
	}

	out := make([]domain.Package, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *CatalogRepository) PatchPackage(ctx context.Context, id string, p ports.PackagePatch, now time.Time) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrPackageNotFound
	}

	set := bson.M{"updated_at": now}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Tier != nil {
		set["tier"] = string(*p.Tier)
	}
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.Deliverables != nil {
		set["deliverables"] = p.Deliverables
	}
	if p.Active != nil {
		set["active"] = *p.Active
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.packages.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("patch package: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPackageNotFound
	}
	return nil
}

func (r *CatalogRepository) MarkOrdered(ctx context.Context, packageID, serviceID string, now time.Time) error {
	pkgOID, ok := objectID(packageID)
	if !ok {
		return domain.ErrInvalidPackage
	}
	svcOID, ok := objectID(serviceID)
	if !ok {
		return domain.ErrInvalidService
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stamp := bson.M{"$set": bson.M{"last_ordered_at": now}}

	res, err := r.packages.UpdateOne(ctx, bson.M{"_id": pkgOID, "service_id": svcOID, "active": true}, stamp)
	if err != nil {
		return fmt.Errorf("mark package ordered: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrInvalidPackage
	}

	res, err = r.services.UpdateOne(ctx, bson.M{"_id": svcOID, "active": true}, stamp)
	if err != nil {
		return fmt.Errorf("mark service ordered: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrInvalidService
	}
	return nil
}
