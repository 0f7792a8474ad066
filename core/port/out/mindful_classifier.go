package out

import (
	"context"

	"mindful_server/core/domain"
)

// EmotionClassifier wraps a pretrained text classifier.
type EmotionClassifier interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Labels is the declared output order of Score.
	Labels() []string
	// Score returns one score per label, in Labels order.
	Score(ctx context.Context, text string) (domain.ScoreVector, error)
}
