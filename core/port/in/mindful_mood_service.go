package in

import (
	"context"

	"mindful_server/core/domain"

	"github.com/google/uuid"
)

// MoodService classifies texts and manages tweets.
type MoodService interface {
	Classify(ctx context.Context, text string) (*domain.Assessment, error)
	CreateTweet(ctx context.Context, userID uuid.UUID, text string) (*domain.Tweet, error)
	ListTweetsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Tweet, error)
	GetTweet(ctx context.Context, tweetID uuid.UUID) (*domain.Tweet, error)
}

// ClassifyRequest is the body of the predict endpoint.
type ClassifyRequest struct {
	Text string `json:"text" form:"text"`
}

// CreateTweetRequest is the body of the tweet creation endpoint.
type CreateTweetRequest struct {
	Text string `json:"text" form:"text"`
}
