package http

import (
	"time"

	"mindful_server/core/domain"
	in "mindful_server/core/port/in"
	"mindful_server/infra/middleware"
	"mindful_server/pkg/apperr"
	"mindful_server/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// MoodHandler serves classification and tweet endpoints.
type MoodHandler struct {
	service in.MoodService
}

func NewMoodHandler(service in.MoodService) *MoodHandler {
	return &MoodHandler{service: service}
}

// Register mounts the routes. requireSession guards tweet creation.
func (h *MoodHandler) Register(router fiber.Router, requireSession fiber.Handler) {
	router.Post("/predict-emotion", h.Predict)

	tweets := router.Group("/tweets")
	tweets.Post("/", requireSession, h.CreateTweet)
	tweets.Get("/:tweetId", h.GetTweet)

	router.Get("/users/:userId/tweets", middleware.ValidateUUID("userId"), h.ListByUser)
}

type assessmentResponse struct {
	Emotion     domain.Emotion `json:"emotion"`
	MentalState string         `json:"mental_state"`
	Message     string         `json:"message"`
	Suggestion  string         `json:"suggestion"`
}

type createTweetResponse struct {
	TweetID    string         `json:"tweet_id"`
	Text       string         `json:"text"`
	Status     domain.Emotion `json:"status"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Predict classifies a text without persisting it.
// POST /api/v1/predict-emotion
func (h *MoodHandler) Predict(c *fiber.Ctx) error {
	var req in.ClassifyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	a, err := h.service.Classify(c.UserContext(), req.Text)
	if err != nil {
		return err
	}

	return response.OK(c, assessmentResponse{
		Emotion:     a.Emotion,
		MentalState: a.Emotion.Title(),
		Message:     a.Message,
		Suggestion:  a.Suggestion,
	})
}

// CreateTweet classifies and stores a tweet for the session user.
// POST /api/v1/tweets
func (h *MoodHandler) CreateTweet(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req in.CreateTweetRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	t, err := h.service.CreateTweet(c.UserContext(), userID, req.Text)
	if err != nil {
		return err
	}

	return response.OKWithMessage(c, "Tweet created successfully", createTweetResponse{
		TweetID:    t.ID.String(),
		Text:       t.Text,
		Status:     t.Emotion,
		Message:    t.Message,
		Suggestion: t.Suggestion,
		CreatedAt:  t.CreatedAt,
	})
}

// GetTweet returns one tweet.
// GET /api/v1/tweets/:tweetId
func (h *MoodHandler) GetTweet(c *fiber.Ctx) error {
	// A malformed id cannot name a stored tweet.
	tweetID, err := uuid.Parse(c.Params("tweetId"))
	if err != nil {
		return apperr.NotFound("tweet")
	}

	t, err := h.service.GetTweet(c.UserContext(), tweetID)
	if err != nil {
		return err
	}
	return response.OK(c, t)
}

// ListByUser returns a user's tweets, newest first.
// GET /api/v1/users/:userId/tweets
func (h *MoodHandler) ListByUser(c *fiber.Ctx) error {
	userID, err := uuidParam(c, "userId")
	if err != nil {
		return err
	}

	tweets, err := h.service.ListTweetsByUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return response.List(c, tweets, len(tweets))
}
