package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mindful_server/core/domain"
	"mindful_server/core/port/out"
	"mindful_server/pkg/apperr"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TweetAdapter implements out.TweetRepository.
type TweetAdapter struct {
	db *sqlx.DB
}

var _ out.TweetRepository = (*TweetAdapter)(nil)

// NewTweetAdapter creates a new TweetAdapter.
func NewTweetAdapter(db *sqlx.DB) *TweetAdapter {
	return &TweetAdapter{db: db}
}

type tweetRow struct {
	ID         uuid.UUID `db:"id"`
	UserID     uuid.UUID `db:"user_id"`
	Text       string    `db:"text"`
	Emotion    string    `db:"emotion"`
	Message    string    `db:"message"`
	Suggestion string    `db:"suggestion"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r *tweetRow) toDomain() *domain.Tweet {
	return &domain.Tweet{
		ID:         r.ID,
		UserID:     r.UserID,
		Text:       r.Text,
		Emotion:    domain.Emotion(r.Emotion),
		Message:    r.Message,
		Suggestion: r.Suggestion,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

func (a *TweetAdapter) Save(ctx context.Context, t *domain.Tweet) error {
	query := `
		INSERT INTO tweets (id, user_id, text, emotion, message, suggestion, created_at)
		VALUES (:id, :user_id, :text, :emotion, :message, :suggestion, :created_at)`

	row := tweetRow{
		ID:         t.ID,
		UserID:     t.UserID,
		Text:       t.Text,
		Emotion:    string(t.Emotion),
		Message:    t.Message,
		Suggestion: t.Suggestion,
		CreatedAt:  t.CreatedAt,
	}
	if _, err := a.db.NamedExecContext(ctx, query, row); err != nil {
		if isUniqueViolation(err) {
			return apperr.AlreadyExists("tweet")
		}
		return apperr.DatabaseError("save tweet", err)
	}
	return nil
}

func (a *TweetAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tweet, error) {
	query := `
		SELECT id, user_id, text, emotion, message, suggestion, created_at
		FROM tweets
		WHERE id = $1`

	var row tweetRow
	if err := a.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.DatabaseError("get tweet", err)
	}
	return row.toDomain(), nil
}

func (a *TweetAdapter) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Tweet, error) {
	query := `
		SELECT id, user_id, text, emotion, message, suggestion, created_at
		FROM tweets
		WHERE user_id = $1
		ORDER BY created_at DESC, id`

	var rows []tweetRow
	if err := a.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, apperr.DatabaseError("list tweets", err)
	}

	tweets := make([]*domain.Tweet, len(rows))
	for i := range rows {
		tweets[i] = rows[i].toDomain()
	}
	return tweets, nil
}
