package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pennyplan/internal/common"
	"github.com/dmitrijs2005/pennyplan/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding user documents.
const CollectionName = "users"

// userDocument keeps the field names of the existing users collection.
type userDocument struct {
	ID        string    `bson:"_id"`
	UserName  string    `bson:"username"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password,omitempty"`
	GoogleID  string    `bson:"googleId,omitempty"`
	Picture   string    `bson:"picture,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func toDocument(u *models.User) *userDocument {
	return &userDocument{
		ID:        u.ID,
		UserName:  u.UserName,
		Email:     u.Email,
		Password:  u.PasswordHash,
		GoogleID:  u.GoogleID,
		Picture:   u.Picture,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:           d.ID,
		UserName:     d.UserName,
		Email:        d.Email,
		PasswordHash: d.Password,
		GoogleID:     d.GoogleID,
		Picture:      d.Picture,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type MongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{
		coll: coll,
		// BSON dates carry millisecond precision
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the unique indexes on email and username.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("username_unique")},
	})
	if err != nil {
		return fmt.Errorf("mongo error: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	u := prepareNew(user, r.now())

	if _, err := r.coll.InsertOne(ctx, toDocument(u)); err != nil {
		return nil, mapMongoWriteError(err)
	}
	return u, nil
}

func (r *MongoRepository) GetUserByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "email", Value: email}},
		bson.D{{Key: "username", Value: username}},
	}}})
}

func (r *MongoRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *MongoRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *MongoRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	u := user.Clone()
	u.UpdatedAt = r.now()

	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: u.ID}}, toDocument(u))
	if err != nil {
		return nil, mapMongoWriteError(err)
	}
	if res.MatchedCount == 0 {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	return doc.toModel(), nil
}

func mapMongoWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", common.ErrorDuplicateKey, err)
	}
	return fmt.Errorf("mongo error: %w", err)
}

var _ Repository = (*MongoRepository)(nil)
