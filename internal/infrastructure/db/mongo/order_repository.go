package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/growthdesk/storefront/internal/core/domain"
	"github.com/growthdesk/storefront/internal/core/ports"
)

type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(collectionOrders)}
}

type inputDataDoc struct {
	URL   string `bson:"url,omitempty"`
	Notes string `bson:"notes,omitempty"`
}

type orderDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id"`
	PackageID   primitive.ObjectID `bson:"package_id"`
	Status      string             `bson:"status"`
	InputData   inputDataDoc       `bson:"input_data"`
	TotalPrice  float64            `bson:"total_price"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
	CompletedAt *time.Time         `bson:"completed_at,omitempty"`
}

func (d orderDoc) toDomain() domain.Order {
	o := domain.Order{
		ID:         hexOrEmpty(d.ID),
		UserID:     hexOrEmpty(d.UserID),
		PackageID:  hexOrEmpty(d.PackageID),
		Status:     domain.OrderStatus(d.Status),
		InputData:  domain.InputData{URL: d.InputData.URL, Notes: d.InputData.Notes},
		TotalPrice: d.TotalPrice,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}
	if d.CompletedAt != nil {
		t := d.CompletedAt.UTC()
		o.CompletedAt = &t
	}
	return o
}

// Create inserts a new order document and sets o.ID.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	userID, ok := objectID(o.UserID)
	if !ok {
		return domain.ErrInvalidUser
	}
	packageID, ok := objectID(o.PackageID)
	if !ok {
		return domain.ErrInvalidPackage
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := orderDoc{
		UserID:      userID,
		PackageID:   packageID,
		Status:      string(o.Status),
		InputData:   inputDataDoc{URL: o.InputData.URL, Notes: o.InputData.Notes},
		TotalPrice:  o.TotalPrice,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		CompletedAt: o.CompletedAt,
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	o.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrOrderNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc orderDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	o := doc.toDomain()
	return &o, nil
}

// List returns matching orders newest first.
func (r *OrderRepository) List(ctx context.Context, f ports.OrderFilter) ([]domain.Order, error) {
	filter := bson.M{}
	if f.UserID != "" {
		oid, ok := objectID(f.UserID)
		if !ok {
			return []domain.Order{}, nil
		}
		filter["user_id"] = oid
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}

	out := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// UpdateStatus is a compare-and-set on the status field.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, now time.Time, completedAt *time.Time) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrOrderNotFound
	}

	set := bson.M{
		"status":     string(to),
		"updated_at": now,
	}
	if completedAt != nil {
		set["completed_at"] = *completedAt
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid, "status": string(from)}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

type statusGroup struct {
	Status string  `bson:"_id"`
	Count  int64   `bson:"count"`
	Spent  float64 `bson:"spent"`
}

// Stats groups orders by status. Canceled orders do not count towards spend.
func (r *OrderRepository) Stats(ctx context.Context, userID string) (*domain.OrderStats, error) {
	pipeline := mongo.Pipeline{}
	if userID != "" {
		oid, ok := objectID(userID)
		if !ok {
			return &domain.OrderStats{ByStatus: map[domain.OrderStatus]int64{}}, nil
		}
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"user_id": oid}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.M{
		"_id":   "$status",
		"count": bson.M{"$sum": 1},
		"spent": bson.M{"$sum": "$total_price"},
	}}})

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate order stats: %w", err)
	}
	var groups []statusGroup
	if err := cur.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode order stats: %w", err)
	}

	stats := &domain.OrderStats{ByStatus: make(map[domain.OrderStatus]int64, len(groups))}
	for _, g := range groups {
		st := domain.OrderStatus(g.Status)
		stats.ByStatus[st] = g.Count
		stats.Total += g.Count
		if st != domain.OrderCanceled {
			stats.TotalSpent += g.Spent
		}
	}
	return stats, nil
}
