package mongodb

import (
	"context"
	"errors"
	"strings"
	"time"

	"mindful_server/core/domain"
	"mindful_server/core/port/out"
	"mindful_server/pkg/apperr"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionUsers = "users"

// UserAdapter implements out.UserRepository using MongoDB.
type UserAdapter struct {
	collection  *mongo.Collection
	uniqueEmail bool
}

var _ out.UserRepository = (*UserAdapter)(nil)

const emailUniqueIndex = "email_unique"

// NewUserAdapter creates a new MongoDB user adapter.
func NewUserAdapter(db *mongo.Database) *UserAdapter {
	return &UserAdapter{collection: db.Collection(collectionUsers)}
}

// EnsureIndexes creates necessary indexes for the collection. Emails get a
// unique index only when the adapter enforces unique emails.
func (a *UserAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "email", Value: 1},
				{Key: "created_at", Value: 1},
			},
		},
	}
	if a.uniqueEmail {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(emailUniqueIndex),
		})
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type userDocument struct {
	UserID       string    `bson:"user_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password"`
	Token        string    `bson:"token,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (d *userDocument) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Token:        d.Token,
		CreatedAt:    d.CreatedAt.UTC(),
	}, nil
}

// Create inserts a new user.
func (a *UserAdapter) Create(ctx context.Context, user *domain.User) error {
	doc := &userDocument{
		UserID:       user.ID.String(),
		Name:         user.Name,
		Email:        strings.ToLower(user.Email),
		PasswordHash: user.PasswordHash,
		Token:        user.Token,
		CreatedAt:    user.CreatedAt,
	}
	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), emailUniqueIndex) {
				return apperr.AlreadyExists("user with this email")
			}
			return apperr.AlreadyExists("user")
		}
		return apperr.DatabaseError("create user", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (a *UserAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return a.findOne(ctx, bson.M{"user_id": id.String()}, nil)
}

// FindByEmail returns the earliest registered user with email.
func (a *UserAdapter) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return a.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}, opts)
}

func (a *UserAdapter) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.User, error) {
	var doc userDocument
	var err error
	if opts != nil {
		err = a.collection.FindOne(ctx, filter, opts).Decode(&doc)
	} else {
		err = a.collection.FindOne(ctx, filter).Decode(&doc)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.DatabaseError("get user", err)
	}
	user, err := doc.toDomain()
	if err != nil {
		return nil, apperr.DatabaseError("decode user", err)
	}
	return user, nil
}

// UpdateToken stores the latest issued token.
func (a *UserAdapter) UpdateToken(ctx context.Context, id uuid.UUID, token string) error {
	res, err := a.collection.UpdateOne(ctx,
		bson.M{"user_id": id.String()},
		bson.M{"$set": bson.M{"token": token}},
	)
	if err != nil {
		return apperr.DatabaseError("update token", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user")
	}
	return nil
}
