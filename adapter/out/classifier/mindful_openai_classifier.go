package classifier

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"mindful_server/core/domain"
	"mindful_server/core/port/out"
	"mindful_server/pkg/apperr"
	"mindful_server/pkg/httputil"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig configures the chat-model scorer.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Labels    []string
	MaxLength int
	Timeout   time.Duration
}

// OpenAIClassifier asks a chat model for independent per-label probabilities.
type OpenAIClassifier struct {
	client    *openai.Client
	model     string
	labels    []string
	maxLength int
	prompt    string
}

var _ out.EmotionClassifier = (*OpenAIClassifier)(nil)

// NewOpenAIClassifier creates the scorer.
func NewOpenAIClassifier(cfg OpenAIConfig) (*OpenAIClassifier, error) {
	if cfg.APIKey == "" {
		return nil, apperr.ConfigError("openai api key is empty")
	}
	if len(cfg.Labels) == 0 {
		return nil, apperr.ConfigError("openai classifier needs a label list")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	config.HTTPClient = httputil.NewClient(httputil.OpenAIClientConfig(cfg.Timeout))

	return &OpenAIClassifier{
		client:    openai.NewClientWithConfig(config),
		model:     cfg.Model,
		labels:    cfg.Labels,
		maxLength: cfg.MaxLength,
		prompt:    buildScoringPrompt(cfg.Labels),
	}, nil
}

func buildScoringPrompt(labels []string) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = fmt.Sprintf("%q", l)
	}
	return "You rate the emotional tone of a short social media post. " +
		"The post may be written in Indonesian or English. " +
		"Return a JSON object whose keys are exactly " + strings.Join(quoted, ", ") +
		" and whose values are independent probabilities between 0 and 1 that the post expresses that state. " +
		"The values do not need to sum to 1. Return only the JSON object."
}

// Name implements out.EmotionClassifier.
func (c *OpenAIClassifier) Name() string { return "openai" }

// Labels implements out.EmotionClassifier.
func (c *OpenAIClassifier) Labels() []string { return c.labels }

// Score implements out.EmotionClassifier. Labels missing from the reply
// score 0; values are clamped to [0,1].
func (c *OpenAIClassifier) Score(ctx context.Context, text string) (domain.ScoreVector, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.prompt},
			{Role: openai.ChatMessageRoleUser, Content: truncate(text, c.maxLength)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, apperr.ExternalError("openai", err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperr.ExternalError("openai", fmt.Errorf("empty completion"))
	}

	var probs map[string]float64
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &probs); err != nil {
		return nil, apperr.ExternalError("openai", fmt.Errorf("decode scores: %w", err))
	}

	normalized := make(map[string]float64, len(probs))
	for k, v := range probs {
		normalized[strings.ToLower(strings.TrimSpace(k))] = v
	}

	scores := make(domain.ScoreVector, len(c.labels))
	for i, l := range c.labels {
		v := normalized[strings.ToLower(l)]
		if math.IsNaN(v) {
			v = 0
		}
		scores[i] = math.Min(1, math.Max(0, v))
	}
	return scores, nil
}
