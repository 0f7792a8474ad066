package mongodb

import (
	"context"
	"fmt"

	"mindful_server/core/port/out"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store serves both repositories from one database.
type Store struct {
	client *mongo.Client
	tweets *TweetAdapter
	users  *UserAdapter
}

var _ out.Store = (*Store)(nil)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithUniqueEmail adds a unique index on users.email so concurrent
// registrations cannot both insert the same address.
func WithUniqueEmail() StoreOption {
	return func(s *Store) { s.users.uniqueEmail = true }
}

// NewStore wraps a connected client.
func NewStore(client *mongo.Client, database string, opts ...StoreOption) *Store {
	db := client.Database(database)
	s := &Store{
		client: client,
		tweets: NewTweetAdapter(db),
		users:  NewUserAdapter(db),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Tweets() out.TweetRepository { return s.tweets }
func (s *Store) Users() out.UserRepository   { return s.users }

// EnsureIndexes creates indexes on every collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if err := s.tweets.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("tweets indexes: %w", err)
	}
	if err := s.users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
