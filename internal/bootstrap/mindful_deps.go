package bootstrap

import (
	"context"
	"fmt"
	"time"

	"mindful_server/adapter/out/badgerstore"
	"mindful_server/adapter/out/catalog"
	"mindful_server/adapter/out/classifier"
	"mindful_server/adapter/out/mongodb"
	"mindful_server/adapter/out/persistence"
	"mindful_server/config"
	"mindful_server/core/port/out"
	"mindful_server/core/service/auth"
	"mindful_server/core/service/emotion"
	"mindful_server/core/service/mood"
	"mindful_server/core/service/suggestion"
	"mindful_server/infra/database"
	"mindful_server/pkg/apperr"
	"mindful_server/pkg/logger"
	"mindful_server/pkg/metrics"
	"mindful_server/pkg/ratelimit"

	"github.com/redis/go-redis/v9"
)

const latencyWindow = 1000

// loginLimiterPrefix names the login bucket; the limiter adds the
// "ratelimit:" namespace itself.
const loginLimiterPrefix = "login"

type Dependencies struct {
	Config *config.Config
	Store  out.Store
	Redis  *redis.Client

	Classifier out.EmotionClassifier
	Catalog    *catalog.Catalog
	Selector   *suggestion.Selector
	Latency    *metrics.LatencyRegistry

	LoginLimiter ratelimit.Limiter

	// Services
	AuthService *auth.Service
	MoodService *mood.Service
}

// NewDependencies connects every backend named by cfg and builds the
// services. The returned cleanup closes what was opened.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{
		Config:  cfg,
		Latency: metrics.NewLatencyRegistry(latencyWindow),
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// Storage
	store, err := newStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	deps.Store = store
	closers = append(closers, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.WithError(err).Warn("Failed to close store")
		}
	})
	logger.Info("Storage backend %s connected", cfg.StorageBackend)

	// Redis is optional; without it login limits are process local.
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fail(fmt.Errorf("redis: %w", err))
		}
		deps.Redis = rdb
		closers = append(closers, func() { _ = rdb.Close() })
		deps.LoginLimiter = ratelimit.NewSlidingWindowLimiter(rdb, loginLimiterPrefix, cfg.LoginRateLimit, cfg.LoginRateWindow)
		logger.Info("Redis connected, login limit %d per %v", cfg.LoginRateLimit, cfg.LoginRateWindow)
	} else {
		deps.LoginLimiter = ratelimit.NewLocalLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
		logger.Warn("REDIS_URL not set, using in-process login rate limiting")
	}

	// Classifier
	clf, err := newClassifier(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	if err := cfg.Labels.ValidateAgainst(clf.Labels()); err != nil {
		return fail(apperr.ConfigError(err.Error()))
	}
	deps.Classifier = clf
	logger.Info("Classifier %s ready with labels %v", clf.Name(), clf.Labels())

	resolver, err := emotion.NewResolver(cfg.Labels, emotion.Config{
		Policy:        cfg.ResolutionPolicy,
		Threshold:     cfg.MultiLabelThreshold,
		ConfidencePct: cfg.ConfidenceThresholdPct,
	})
	if err != nil {
		return fail(apperr.ConfigError(err.Error()))
	}

	// Responses
	cat, err := catalog.Load(cfg.ActivityCatalogPath)
	if err != nil {
		return fail(err)
	}
	deps.Catalog = cat
	deps.Selector = suggestion.NewSelector(cat, cfg.ActivityRanges)
	if err := deps.Selector.Validate(cfg.Labels); err != nil {
		return fail(err)
	}
	logger.Info("Activity catalog loaded with %d entries", cat.Len())

	// Services
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return fail(err)
	}
	authCfg := auth.DefaultConfig()
	authCfg.UniqueEmail = cfg.UniqueEmail
	authCfg.MinPasswordLength = cfg.MinPasswordLength
	authCfg.ReuseStoredToken = cfg.ReuseStoredToken
	deps.AuthService = auth.NewService(store.Users(), tokens, authCfg)

	deps.MoodService = mood.NewService(clf, resolver, deps.Selector, store.Tweets(), deps.Latency)

	return deps, cleanup, nil
}

func newStore(ctx context.Context, cfg *config.Config) (out.Store, error) {
	switch cfg.StorageBackend {
	case "mongodb":
		client, err := mongodb.NewClient(ctx, cfg.MongoDBURL)
		if err != nil {
			return nil, fmt.Errorf("mongodb: %w", err)
		}
		var opts []mongodb.StoreOption
		if cfg.UniqueEmail {
			opts = append(opts, mongodb.WithUniqueEmail())
		}
		return mongodb.NewStore(client, cfg.MongoDBName, opts...), nil
	case "postgres":
		db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		var opts []persistence.StoreOption
		if cfg.UniqueEmail {
			opts = append(opts, persistence.WithUniqueEmail())
		}
		return persistence.NewStore(db, opts...), nil
	case "badger":
		var opts []badgerstore.Option
		if cfg.UniqueEmail {
			opts = append(opts, badgerstore.WithUniqueEmail())
		}
		store, err := badgerstore.Open(cfg.BadgerDir, opts...)
		if err != nil {
			return nil, fmt.Errorf("badger: %w", err)
		}
		return store, nil
	default:
		return nil, apperr.ConfigError("unknown storage backend: " + cfg.StorageBackend)
	}
}

func newClassifier(ctx context.Context, cfg *config.Config) (out.EmotionClassifier, error) {
	switch cfg.ClassifierBackend {
	case "http":
		activation, err := classifier.ParseActivation(cfg.ClassifierActivation)
		if err != nil {
			return nil, apperr.ConfigError(err.Error())
		}
		return classifier.NewHTTPClassifier(ctx, classifier.HTTPConfig{
			BaseURL:    cfg.ClassifierURL,
			MaxLength:  cfg.ClassifierMaxLength,
			Activation: activation,
			Timeout:    cfg.ClassifierTimeout,
		}, nil)
	case "openai":
		return classifier.NewOpenAIClassifier(classifier.OpenAIConfig{
			APIKey:    cfg.OpenAIAPIKey,
			BaseURL:   cfg.OpenAIBaseURL,
			Model:     cfg.LLMModel,
			Labels:    cfg.Labels.Names(),
			MaxLength: cfg.ClassifierMaxLength,
			Timeout:   cfg.ClassifierTimeout,
		})
	case "keyword":
		return classifier.NewKeywordClassifier(cfg.Labels.Names(), classifier.DefaultLexicon(), cfg.ClassifierMaxLength), nil
	default:
		return nil, apperr.ConfigError("unknown classifier backend: " + cfg.ClassifierBackend)
	}
}

// Migrate ensures indexes or schema for the configured store.
func Migrate(ctx context.Context, cfg *config.Config) error {
	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}
	logger.Info("Storage backend %s migrated", cfg.StorageBackend)
	return nil
}
