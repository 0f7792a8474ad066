package persistence

import (
	"context"

	"mindful_server/core/port/out"
	"mindful_server/pkg/apperr"

	"github.com/jmoiron/sqlx"
)

// Store serves both repositories from one PostgreSQL database.
type Store struct {
	db          *sqlx.DB
	tweets      *TweetAdapter
	users       *UserAdapter
	uniqueEmail bool
}

var _ out.Store = (*Store)(nil)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithUniqueEmail makes EnsureIndexes add a unique index on lower(email).
func WithUniqueEmail() StoreOption {
	return func(s *Store) { s.uniqueEmail = true }
}

// NewStore wraps an open connection.
func NewStore(db *sqlx.DB, opts ...StoreOption) *Store {
	s := &Store{db: db, tweets: NewTweetAdapter(db), users: NewUserAdapter(db)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Tweets() out.TweetRepository { return s.tweets }
func (s *Store) Users() out.UserRepository   { return s.users }

// EnsureIndexes applies Schema, then UniqueEmailSchema when enabled.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return apperr.DatabaseError("apply schema", err)
	}
	if s.uniqueEmail {
		if _, err := s.db.ExecContext(ctx, UniqueEmailSchema); err != nil {
			return apperr.DatabaseError("apply unique email index", err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}
