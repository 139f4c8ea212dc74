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
)

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(collectionUsers)}
}

type userDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	IdentityRef string             `bson:"identity_ref"`
	Email       string             `bson:"email"`
	Name        string             `bson:"name,omitempty"`
	Status      string             `bson:"status"`
	Role        string             `bson:"role"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:          hexOrEmpty(d.ID),
		IdentityRef: d.IdentityRef,
		Email:       d.Email,
		Name:        d.Name,
		Status:      domain.UserStatus(d.Status),
		Role:        domain.Role(d.Role),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// UpsertByIdentity refreshes email and name of an existing user or inserts
// t in a single atomic findAndModify. Two concurrent first sign-ins race on
// the unique identity_ref index; the loser retries once and takes the update path.
func (r *UserRepository) UpsertByIdentity(ctx context.Context, t *domain.User, now time.Time) (*domain.User, error) {
	filter := bson.M{"identity_ref": t.IdentityRef}
	update := bson.M{
		"$set": bson.M{
			"email":      t.Email,
			"name":       t.Name,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"status":     string(t.Status),
			"role":       string(t.Role),
			"created_at": t.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc userDoc
	for attempt := 0; ; attempt++ {
		err := r.findOneAndUpdate(ctx, filter, update, opts, &doc)
		if err == nil {
			return doc.toDomain(), nil
		}
		if mongo.IsDuplicateKeyError(err) && attempt == 0 {
			continue
		}
		return nil, fmt.Errorf("upsert user: %w", err)
	}
}

func (r *UserRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M, opts *options.FindOneAndUpdateOptions, out *userDoc) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(out)
}

func (r *UserRepository) FindByIdentity(ctx context.Context, identityRef string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"identity_ref": identityRef})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []domain.User{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	out := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.toDomain())
	}
	return out, nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status domain.UserStatus, now time.Time) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"status":     string(status),
		"updated_at": now,
	}})
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
