package out

import (
	"context"

	"mindful_server/core/domain"

	"github.com/google/uuid"
)

// TweetRepository persists tweets. Lookups return (nil, nil) when the tweet
// does not exist.
type TweetRepository interface {
	Save(ctx context.Context, tweet *domain.Tweet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tweet, error)
	// ListByUser returns the user's tweets, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Tweet, error)
}

// UserRepository persists accounts. Lookups return (nil, nil) when the user
// does not exist.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// FindByEmail matches case-insensitively and returns the earliest
	// registered account when several share an email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateToken(ctx context.Context, id uuid.UUID, token string) error
}

// Store is one persistence backend serving both repositories.
type Store interface {
	Tweets() TweetRepository
	Users() UserRepository
	// EnsureIndexes creates collections, tables or indexes the backend needs.
	EnsureIndexes(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
