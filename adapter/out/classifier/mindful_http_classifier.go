package classifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mindful_server/core/domain"
	"mindful_server/core/port/out"
	"mindful_server/pkg/apperr"
	"mindful_server/pkg/httputil"
	"mindful_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"
)

// HTTPConfig points at a model server exposing GET /metadata and POST /predict.
type HTTPConfig struct {
	BaseURL    string
	MaxLength  int
	Activation Activation
	Timeout    time.Duration
}

// HTTPClassifier calls an inference server over HTTP.
type HTTPClassifier struct {
	baseURL    string
	client     *http.Client
	cb         *gobreaker.CircuitBreaker
	maxLength  int
	activation Activation
	labels     []string
}

var _ out.EmotionClassifier = (*HTTPClassifier)(nil)

type metadataResponse struct {
	Labels []string `json:"labels"`
}

type predictRequest struct {
	Text      string `json:"text"`
	MaxLength int    `json:"max_length"`
}

type predictResponse struct {
	Scores []float64 `json:"scores"`
}

// NewHTTPClassifier fetches the server's label metadata and returns a ready
// classifier. client may be nil.
func NewHTTPClassifier(ctx context.Context, cfg HTTPConfig, client *http.Client) (*HTTPClassifier, error) {
	if cfg.BaseURL == "" {
		return nil, apperr.ConfigError("classifier url is empty")
	}
	if client == nil {
		client = httputil.NewClient(httputil.ModelServerConfig(cfg.Timeout))
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}

	c := &HTTPClassifier{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		client:     client,
		maxLength:  cfg.MaxLength,
		activation: cfg.Activation,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "model-server",
			MaxRequests: 3,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.ConsecutiveFailures > 5 ||
					(counts.Requests >= 10 && failureRatio >= 0.6)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("[CircuitBreaker] %s: state changed from %s to %s", name, from.String(), to.String())
			},
		}),
	}

	var meta metadataResponse
	if err := c.do(ctx, http.MethodGet, "/metadata", nil, &meta); err != nil {
		return nil, apperr.ExternalError("classifier", fmt.Errorf("fetch metadata: %w", err))
	}
	if len(meta.Labels) == 0 {
		return nil, apperr.ConfigError("classifier metadata declares no labels")
	}
	c.labels = meta.Labels
	return c, nil
}

// Name implements out.EmotionClassifier.
func (c *HTTPClassifier) Name() string { return "http" }

// Labels implements out.EmotionClassifier.
func (c *HTTPClassifier) Labels() []string { return c.labels }

// Score implements out.EmotionClassifier.
func (c *HTTPClassifier) Score(ctx context.Context, text string) (domain.ScoreVector, error) {
	body, err := json.Marshal(predictRequest{Text: truncate(text, c.maxLength), MaxLength: c.maxLength})
	if err != nil {
		return nil, apperr.InternalWithError(err)
	}

	result, err := c.cb.Execute(func() (interface{}, error) {
		var resp predictResponse
		if err := c.do(ctx, http.MethodPost, "/predict", body, &resp); err != nil {
			return nil, err
		}
		return resp.Scores, nil
	})
	if err != nil {
		return nil, apperr.ExternalError("classifier", err)
	}
	return domain.ScoreVector(c.activation.Apply(result.([]float64))), nil
}

// IsCircuitOpen reports whether calls currently fail fast.
func (c *HTTPClassifier) IsCircuitOpen() bool {
	return c.cb.State() == gobreaker.StateOpen
}

func (c *HTTPClassifier) do(ctx context.Context, method, path string, body []byte, v any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}
