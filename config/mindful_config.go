package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"mindful_server/core/domain"
)

// DevJWTSecret signs tokens in development when JWT_SECRET is unset.
const DevJWTSecret = "mindful-dev-secret"

const defaultActivityRanges = "depression:201-210,anxiety:301-310,lonely:401-410,neutral:501-510,happy:601-610"

type Config struct {
	Port           string
	Environment    string
	LogLevel       string
	AllowedOrigins []string

	// Storage
	StorageBackend string
	MongoDBURL     string
	MongoDBName    string
	DatabaseURL    string
	BadgerDir      string
	RedisURL       string

	// Auth
	JWTSecret         string
	TokenTTL          time.Duration
	UniqueEmail       bool
	MinPasswordLength int
	ReuseStoredToken  bool
	LoginRateLimit    int
	LoginRateWindow   time.Duration

	// Classifier
	ClassifierBackend    string
	ClassifierURL        string
	ClassifierTimeout    time.Duration
	ClassifierMaxLength  int
	ClassifierActivation string
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	LLMModel             string

	// Resolution
	ResolutionPolicy       string
	MultiLabelThreshold    float64
	ConfidenceThresholdPct float64
	Labels                 domain.LabelSet

	// Activities
	ActivityCatalogPath string
	ActivityRanges      domain.ActivityRanges
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),

		// Storage
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", "mongodb")),
		MongoDBURL:     getEnv("MONGODB_URL", "mongodb://localhost:27017"),
		MongoDBName:    getEnv("MONGODB_DATABASE", "mindful"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		BadgerDir:      getEnv("BADGER_DIR", ""),
		RedisURL:       getEnv("REDIS_URL", ""),

		// Auth
		JWTSecret:         getEnv("JWT_SECRET", ""),
		TokenTTL:          time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		UniqueEmail:       getEnvBool("AUTH_UNIQUE_EMAIL", true),
		MinPasswordLength: getEnvInt("AUTH_MIN_PASSWORD_LENGTH", 6),
		ReuseStoredToken:  getEnvBool("AUTH_REUSE_STORED_TOKEN", true),
		LoginRateLimit:    getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow:   time.Duration(getEnvInt("LOGIN_RATE_WINDOW_SEC", 60)) * time.Second,

		// Classifier
		ClassifierBackend:    strings.ToLower(getEnv("CLASSIFIER_BACKEND", "http")),
		ClassifierURL:        getEnv("CLASSIFIER_URL", "http://localhost:8501"),
		ClassifierTimeout:    getEnvDuration("CLASSIFIER_TIMEOUT", time.Duration(getEnvInt("CLASSIFIER_TIMEOUT_SEC", 30))*time.Second),
		ClassifierMaxLength:  getEnvInt("CLASSIFIER_MAX_LENGTH", 512),
		ClassifierActivation: getEnv("CLASSIFIER_ACTIVATION", "none"),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", ""),
		LLMModel:             getEnv("LLM_MODEL", "gpt-4o-mini"),

		// Resolution
		ResolutionPolicy:       strings.ToLower(getEnv("RESOLUTION_POLICY", "multilabel")),
		MultiLabelThreshold:    getEnvFloat("MULTILABEL_THRESHOLD", 0.5),
		ConfidenceThresholdPct: getEnvFloat("CONFIDENCE_THRESHOLD_PCT", 0),

		// Activities
		ActivityCatalogPath: getEnv("ACTIVITY_CATALOG_PATH", ""),
	}

	def := domain.DefaultLabelSet()
	labels, err := domain.ParseLabelSet(
		getEnv("EMOTION_LABELS", joinEmotions(def.Labels)),
		getEnv("POSITIVE_LABELS", joinEmotions(def.Positive)),
		getEnv("NEGATIVE_LABELS", joinEmotions(def.Negative)),
	)
	if err != nil {
		return nil, fmt.Errorf("label configuration: %w", err)
	}
	cfg.Labels = labels

	ranges, err := domain.ParseActivityRanges(getEnv("ACTIVITY_RANGES", defaultActivityRanges))
	if err != nil {
		return nil, fmt.Errorf("ACTIVITY_RANGES: %w", err)
	}
	cfg.ActivityRanges = ranges

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = DevJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on settings the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in %s", c.Environment)
	}
	if c.IsProduction() && c.JWTSecret == DevJWTSecret {
		return fmt.Errorf("JWT_SECRET must not use the development default in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL_HOURS must be positive")
	}
	if c.MinPasswordLength < 0 {
		return fmt.Errorf("AUTH_MIN_PASSWORD_LENGTH must not be negative")
	}
	if c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW_SEC must be positive")
	}

	switch c.StorageBackend {
	case "mongodb":
		if c.MongoDBURL == "" {
			return fmt.Errorf("MONGODB_URL is required for the mongodb backend")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case "badger":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.ClassifierBackend {
	case "http":
		if c.ClassifierURL == "" {
			return fmt.Errorf("CLASSIFIER_URL is required for the http classifier")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai classifier")
		}
	case "keyword":
	default:
		return fmt.Errorf("unknown CLASSIFIER_BACKEND %q", c.ClassifierBackend)
	}

	switch strings.ToLower(c.ClassifierActivation) {
	case "", "none", "softmax", "sigmoid":
	default:
		return fmt.Errorf("unknown CLASSIFIER_ACTIVATION %q", c.ClassifierActivation)
	}

	switch c.ResolutionPolicy {
	case "multilabel", "polarity":
	default:
		return fmt.Errorf("unknown RESOLUTION_POLICY %q", c.ResolutionPolicy)
	}
	if c.MultiLabelThreshold <= 0 || c.MultiLabelThreshold >= 1 {
		return fmt.Errorf("MULTILABEL_THRESHOLD must be in (0, 1)")
	}
	if c.ConfidenceThresholdPct < 0 || c.ConfidenceThresholdPct > 100 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD_PCT must be in [0, 100]")
	}

	if err := c.Labels.Validate(); err != nil {
		return fmt.Errorf("label configuration: %w", err)
	}
	return c.ActivityRanges.Validate()
}

func joinEmotions(es []domain.Emotion) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = string(e)
	}
	return strings.Join(parts, ",")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
