// Package mood classifies texts and records them as tweets.
package mood

import (
	"context"
	"strings"
	"time"

	"mindful_server/core/domain"
	"mindful_server/core/port/in"
	"mindful_server/core/port/out"
	"mindful_server/core/service/emotion"
	"mindful_server/core/service/suggestion"
	"mindful_server/pkg/apperr"
	"mindful_server/pkg/logger"
	"mindful_server/pkg/metrics"

	"github.com/google/uuid"
)

// ResponseSelector picks the message and activity for a resolved emotion.
type ResponseSelector interface {
	SelectMessage(e domain.Emotion) (string, error)
	SelectActivity(e domain.Emotion) (string, error)
}

// Service implements in.MoodService.
type Service struct {
	classifier out.EmotionClassifier
	resolver   emotion.Resolver
	selector   ResponseSelector
	tweets     out.TweetRepository
	latency    *metrics.LatencyRegistry
	now        func() time.Time
}

var _ in.MoodService = (*Service)(nil)

// NewService creates the mood service. latency may be nil.
func NewService(
	classifier out.EmotionClassifier,
	resolver emotion.Resolver,
	selector ResponseSelector,
	tweets out.TweetRepository,
	latency *metrics.LatencyRegistry,
) *Service {
	return &Service{
		classifier: classifier,
		resolver:   resolver,
		selector:   selector,
		tweets:     tweets,
		latency:    latency,
		now:        time.Now,
	}
}

// Classify scores text, resolves one emotion and attaches a response.
func (s *Service) Classify(ctx context.Context, text string) (*domain.Assessment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.MissingField("text")
	}

	scores, err := s.score(ctx, text)
	if err != nil {
		return nil, err
	}

	e, err := s.resolver.Resolve(scores)
	if err != nil {
		logger.WithError(err).Error("[MoodService.Classify] classifier %s returned %d scores", s.classifier.Name(), len(scores))
		return nil, err
	}

	result := &domain.Assessment{Emotion: e, Scores: scores}
	if result.IsUncertain() {
		result.Message = suggestion.UncertainMessage
		return result, nil
	}

	if result.Message, err = s.selector.SelectMessage(e); err != nil {
		return nil, err
	}
	if result.Suggestion, err = s.selector.SelectActivity(e); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) score(ctx context.Context, text string) (domain.ScoreVector, error) {
	start := time.Now()
	scores, err := s.classifier.Score(ctx, text)
	if s.latency != nil {
		s.latency.Record("classifier."+s.classifier.Name(), time.Since(start), err != nil)
	}
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, apperr.ExternalError("classifier", err)
	}
	return scores, nil
}

// CreateTweet classifies text and persists it for userID.
func (s *Service) CreateTweet(ctx context.Context, userID uuid.UUID, text string) (*domain.Tweet, error) {
	if userID == uuid.Nil {
		return nil, apperr.InvalidToken("")
	}

	result, err := s.Classify(ctx, text)
	if err != nil {
		return nil, err
	}

	tweet := &domain.Tweet{
		ID:         uuid.New(),
		UserID:     userID,
		Text:       text,
		Emotion:    result.Emotion,
		Message:    result.Message,
		Suggestion: result.Suggestion,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.tweets.Save(ctx, tweet); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]any{
		"tweet_id": tweet.ID,
		"user_id":  userID,
		"emotion":  tweet.Emotion,
	}).Debug("[MoodService.CreateTweet] stored")
	return tweet, nil
}

// ListTweetsByUser returns the user's tweets, newest first.
func (s *Service) ListTweetsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Tweet, error) {
	tweets, err := s.tweets.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if tweets == nil {
		tweets = []*domain.Tweet{}
	}
	return tweets, nil
}

// GetTweet returns one tweet or NotFound.
func (s *Service) GetTweet(ctx context.Context, tweetID uuid.UUID) (*domain.Tweet, error) {
	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	if tweet == nil {
		return nil, apperr.NotFound("tweet")
	}
	return tweet, nil
}
