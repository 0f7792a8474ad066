package mongodb

import (
	"context"
	"errors"
	"time"

	"mindful_server/core/domain"
	"mindful_server/core/port/out"
	"mindful_server/pkg/apperr"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionTweets = "tweets"

// TweetAdapter implements out.TweetRepository using MongoDB.
type TweetAdapter struct {
	collection *mongo.Collection
}

var _ out.TweetRepository = (*TweetAdapter)(nil)

// NewTweetAdapter creates a new MongoDB tweet adapter.
func NewTweetAdapter(db *mongo.Database) *TweetAdapter {
	return &TweetAdapter{collection: db.Collection(collectionTweets)}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *TweetAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tweet_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type tweetDocument struct {
	TweetID    string    `bson:"tweet_id"`
	UserID     string    `bson:"user_id"`
	Text       string    `bson:"text"`
	Emotion    string    `bson:"emotion"`
	Message    string    `bson:"message"`
	Suggestion string    `bson:"suggestion"`
	CreatedAt  time.Time `bson:"created_at"`
}

func toTweetDocument(t *domain.Tweet) *tweetDocument {
	return &tweetDocument{
		TweetID:    t.ID.String(),
		UserID:     t.UserID.String(),
		Text:       t.Text,
		Emotion:    string(t.Emotion),
		Message:    t.Message,
		Suggestion: t.Suggestion,
		CreatedAt:  t.CreatedAt,
	}
}

func (d *tweetDocument) toDomain() (*domain.Tweet, error) {
	id, err := uuid.Parse(d.TweetID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, err
	}
	return &domain.Tweet{
		ID:         id,
		UserID:     userID,
		Text:       d.Text,
		Emotion:    domain.Emotion(d.Emotion),
		Message:    d.Message,
		Suggestion: d.Suggestion,
		CreatedAt:  d.CreatedAt.UTC(),
	}, nil
}

// Save inserts a tweet. Tweets are never updated.
func (a *TweetAdapter) Save(ctx context.Context, tweet *domain.Tweet) error {
	if _, err := a.collection.InsertOne(ctx, toTweetDocument(tweet)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.AlreadyExists("tweet")
		}
		return apperr.DatabaseError("save tweet", err)
	}
	return nil
}

// GetByID retrieves a tweet by ID.
func (a *TweetAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tweet, error) {
	var doc tweetDocument
	err := a.collection.FindOne(ctx, bson.M{"tweet_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.DatabaseError("get tweet", err)
	}
	tweet, err := doc.toDomain()
	if err != nil {
		return nil, apperr.DatabaseError("decode tweet", err)
	}
	return tweet, nil
}

// ListByUser returns the user's tweets, newest first.
func (a *TweetAdapter) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Tweet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := a.collection.Find(ctx, bson.M{"user_id": userID.String()}, opts)
	if err != nil {
		return nil, apperr.DatabaseError("list tweets", err)
	}
	defer cursor.Close(ctx)

	var docs []tweetDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperr.DatabaseError("list tweets", err)
	}

	tweets := make([]*domain.Tweet, 0, len(docs))
	for i := range docs {
		t, err := docs[i].toDomain()
		if err != nil {
			return nil, apperr.DatabaseError("decode tweet", err)
		}
		tweets = append(tweets, t)
	}
	return tweets, nil
}
