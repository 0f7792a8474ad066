package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tweet is a user-authored text together with its assessment. Tweets are
// written once and never updated.
type Tweet struct {
	ID         uuid.UUID `json:"tweet_id"`
	UserID     uuid.UUID `json:"user_id"`
	Text       string    `json:"text"`
	Emotion    Emotion   `json:"emotion"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion"`
	CreatedAt  time.Time `json:"created_at"`
}

// Assessment is the outcome of classifying one text.
type Assessment struct {
	Emotion    Emotion     `json:"emotion"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion"`
	Scores     ScoreVector `json:"-"`
}

// IsUncertain reports whether the confidence gate withheld a label.
func (a *Assessment) IsUncertain() bool {
	return a.Emotion == EmotionUncertain
}
