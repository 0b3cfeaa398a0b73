package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/novelhub/readerkit/internal/api"
	"github.com/novelhub/readerkit/internal/config"
	"github.com/novelhub/readerkit/internal/i18n"
	"github.com/novelhub/readerkit/internal/lock"
	"github.com/novelhub/readerkit/internal/persist"
	"github.com/novelhub/readerkit/internal/query"
	"github.com/novelhub/readerkit/internal/reader"
	"github.com/novelhub/readerkit/internal/telemetry"
	"github.com/novelhub/readerkit/internal/token"
	"github.com/redis/go-redis/v9"
)

const serviceName = "readerkit"

// app holds everything a command needs. It is built once per invocation.
type app struct {
	cfg       config.Config
	cache     *query.Client
	svc       *reader.Service
	metrics   *telemetry.CacheMetrics
	persister *persist.Persister
	redis     *redis.Client
	shutdown  func(context.Context) error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg, shutdown: func(context.Context) error { return nil }}

	shutdown, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	a.shutdown = shutdown

	if cfg.RedisAddr != "" {
		a.redis = lock.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}

	tokens, err := a.tokenStore(ctx)
	if err != nil {
		return nil, err
	}

	a.metrics, err = telemetry.NewCacheMetrics()
	if err != nil {
		return nil, err
	}
	a.cache = query.New(
		query.WithMetrics(a.metrics),
		query.WithGCTime(cfg.GCTime),
		query.WithRetry(query.RetryPolicy{
			Retries:     cfg.Retry,
			Delay:       cfg.RetryDelay,
			MaxDelay:    query.DefaultRetryPolicy().MaxDelay,
			ShouldRetry: api.Retryable,
		}),
	)

	client := api.NewClient(cfg.APIBaseURL, tokens,
		api.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		api.WithLocale(i18n.Resolve(cfg.Locale)),
	)
	a.svc = reader.New(a.cache, client, tokens, reader.NewWriterNotifier(os.Stderr))
	a.svc.SameSite = cfg.SameSite()

	if cfg.PersistenceEnabled() {
		if err := a.restore(ctx); err != nil {
			log.Printf("restore query cache: %v", err)
		}
	}
	return a, nil
}

func (a *app) tokenStore(ctx context.Context) (token.Store, error) {
	var store token.Store
	switch a.cfg.TokenBackend {
	case config.TokenBackendRedis:
		store = token.NewRedisStore(a.redis, a.cfg.TokenName)
	default:
		cs, err := token.NewCookieStore(a.cfg.APIBaseURL, a.cfg.TokenName)
		if err != nil {
			return nil, err
		}
		store = cs
	}
	if a.cfg.Token != "" {
		if err := store.Set(ctx, a.cfg.Token, token.Options{SameSite: a.cfg.SameSite()}); err != nil {
			return nil, fmt.Errorf("seed token: %w", err)
		}
	}
	return token.Guard(store), nil
}

func (a *app) restore(ctx context.Context) error {
	store, err := persist.OpenS3(ctx, persist.S3Options{
		Endpoint:  a.cfg.S3Endpoint,
		Region:    a.cfg.S3Region,
		Bucket:    a.cfg.S3Bucket,
		AccessKey: a.cfg.S3AccessKey,
		SecretKey: a.cfg.S3SecretKey,
	})
	if err != nil {
		return err
	}
	var locker lock.Locker = lock.NewLocalLocker()
	if a.redis != nil {
		locker = lock.NewRedisLocker(a.redis)
	}
	a.persister = &persist.Persister{
		Store:   store,
		Locker:  locker,
		Key:     a.cfg.CacheObjectKey,
		MaxAge:  a.cfg.CacheMaxAge,
		LockTTL: a.cfg.LockTTL,
		Exclude: reader.UserScoped(),
	}
	n, err := a.persister.Restore(ctx, a.cache)
	if err != nil {
		return err
	}
	log.Printf("restored %d cached queries from %s", n, a.cfg.CacheObjectKey)
	return nil
}

// close saves the cache snapshot and releases every client.
func (a *app) close(ctx context.Context) error {
	if a.persister != nil {
		saved, err := a.persister.Save(ctx, a.cache)
		if err != nil {
			log.Printf("save query cache: %v", err)
		} else if !saved {
			log.Printf("query cache snapshot skipped: another writer holds %s", a.cfg.CacheObjectKey)
		}
	}
	if a.cache != nil {
		a.cache.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Printf("close redis: %v", err)
		}
	}
	return a.shutdown(ctx)
}
