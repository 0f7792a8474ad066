// Package badgerstore keeps users and tweets in an embedded Badger database.
// With an empty directory it runs fully in memory.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"mindful_server/core/domain"
	"mindful_server/core/port/out"
	"mindful_server/pkg/apperr"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Key layout:
//
//	tweet:<id>                          tweet record
//	user_tweets:<user>:<rev-nanos>:<id> index, newest first
//	user:<id>                           user record
//	user_email:<esc-email>:<nanos>:<id> index, earliest first
//	user_email_owner:<esc-email>        owning user id, unique emails only
const (
	prefixTweet      = "tweet:"
	prefixUserTweets = "user_tweets:"
	prefixUser       = "user:"
	prefixUserEmail  = "user_email:"
	prefixEmailOwner = "user_email_owner:"
)

// maxConflictRetries bounds retries of a user create that lost a
// transaction conflict. A retry observes the winner's writes.
const maxConflictRetries = 3

// Store implements out.Store on Badger.
type Store struct {
	db     *badger.DB
	tweets *tweetRepo
	users  *userRepo
}

var _ out.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithUniqueEmail rejects a second user with an email already stored.
func WithUniqueEmail() Option {
	return func(s *Store) { s.users.uniqueEmail = true }
}

// Open opens dir, or an in-memory database when dir is empty.
func Open(dir string, opts ...Option) (*Store, error) {
	dbOpts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR)
	if dir == "" {
		dbOpts = dbOpts.WithInMemory(true)
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	s := &Store{db: db, tweets: &tweetRepo{db: db}, users: &userRepo{db: db}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Tweets() out.TweetRepository { return s.tweets }
func (s *Store) Users() out.UserRepository   { return s.users }

// EnsureIndexes is a no-op: indexes are maintained on write.
func (s *Store) EnsureIndexes(context.Context) error { return nil }

func (s *Store) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

func sortableNanos(t time.Time) string {
	return fmt.Sprintf("%019d", t.UnixNano())
}

func reversedNanos(t time.Time) string {
	return fmt.Sprintf("%019d", math.MaxInt64-t.UnixNano())
}

func getJSON(txn *badger.Txn, key string, v any) (bool, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

// lastSegment returns the id after the final colon of an index key.
func lastSegment(key []byte) string {
	s := string(key)
	return s[strings.LastIndexByte(s, ':')+1:]
}

// =============================================================================
// Tweets
// =============================================================================

type tweetRepo struct {
	db *badger.DB
}

func (r *tweetRepo) Save(_ context.Context, t *domain.Tweet) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		key := prefixTweet + t.ID.String()
		if _, err := txn.Get([]byte(key)); err == nil {
			return apperr.AlreadyExists("tweet")
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := setJSON(txn, key, t); err != nil {
			return err
		}
		idx := prefixUserTweets + t.UserID.String() + ":" + reversedNanos(t.CreatedAt) + ":" + t.ID.String()
		return txn.Set([]byte(idx), nil)
	})
	return wrap("save tweet", err)
}

func (r *tweetRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Tweet, error) {
	var t domain.Tweet
	var found bool
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, prefixTweet+id.String(), &t)
		return err
	})
	if err != nil {
		return nil, wrap("get tweet", err)
	}
	if !found {
		return nil, nil
	}
	return &t, nil
}

func (r *tweetRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Tweet, error) {
	tweets := []*domain.Tweet{}
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixUserTweets + userID.String() + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var t domain.Tweet
			found, err := getJSON(txn, prefixTweet+lastSegment(it.Item().Key()), &t)
			if err != nil {
				return err
			}
			if found {
				tweets = append(tweets, &t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrap("list tweets", err)
	}
	return tweets, nil
}

// =============================================================================
// Users
// =============================================================================

type userRecord struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Token        string    `json:"token,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Token:        u.Token,
		CreatedAt:    u.CreatedAt.UTC(),
	}
}

type userRepo struct {
	db          *badger.DB
	uniqueEmail bool
}

func (r *userRepo) Create(_ context.Context, u *domain.User) error {
	rec := userRecord{
		ID:           u.ID,
		Name:         u.Name,
		Email:        strings.ToLower(strings.TrimSpace(u.Email)),
		PasswordHash: u.PasswordHash,
		Token:        u.Token,
		CreatedAt:    u.CreatedAt,
	}
	create := func(txn *badger.Txn) error {
		key := prefixUser + u.ID.String()
		if _, err := txn.Get([]byte(key)); err == nil {
			return apperr.AlreadyExists("user")
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		esc := url.QueryEscape(rec.Email)
		if r.uniqueEmail {
			taken, err := emailTaken(txn, esc)
			if err != nil {
				return err
			}
			if taken {
				return apperr.AlreadyExists("user with this email")
			}
			if err := txn.Set([]byte(prefixEmailOwner+esc), []byte(u.ID.String())); err != nil {
				return err
			}
		}
		if err := setJSON(txn, key, rec); err != nil {
			return err
		}
		idx := prefixUserEmail + esc + ":" + sortableNanos(rec.CreatedAt) + ":" + u.ID.String()
		return txn.Set([]byte(idx), nil)
	}

	var err error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		if err = r.db.Update(create); !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	return wrap("create user", err)
}

// emailTaken reads the owner key so that concurrent creates of the same
// email conflict at commit. The index scan covers users stored before
// unique emails were enforced.
func emailTaken(txn *badger.Txn, esc string) (bool, error) {
	_, err := txn.Get([]byte(prefixEmailOwner + esc))
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return false, err
	}

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	prefix := []byte(prefixUserEmail + esc + ":")
	it.Seek(prefix)
	return it.ValidForPrefix(prefix), nil
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	var rec userRecord
	var found bool
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, prefixUser+id.String(), &rec)
		return err
	})
	if err != nil {
		return nil, wrap("get user", err)
	}
	if !found {
		return nil, nil
	}
	return rec.toDomain(), nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var rec userRecord
	var found bool
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixUserEmail + url.QueryEscape(email) + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var err error
			if found, err = getJSON(txn, prefixUser+lastSegment(it.Item().Key()), &rec); err != nil || found {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrap("find user", err)
	}
	if !found {
		return nil, nil
	}
	return rec.toDomain(), nil
}

func (r *userRepo) UpdateToken(_ context.Context, id uuid.UUID, token string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		key := prefixUser + id.String()
		var rec userRecord
		found, err := getJSON(txn, key, &rec)
		if err != nil {
			return err
		}
		if !found {
			return apperr.NotFound("user")
		}
		rec.Token = token
		return setJSON(txn, key, rec)
	})
	return wrap("update token", err)
}

func wrap(op string, err error) error {
	if err == nil || apperr.IsAppError(err) {
		return err
	}
	return apperr.DatabaseError(op, err)
}
