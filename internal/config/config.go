package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

const envPrefix = "READERKIT_"

const (
	TokenBackendCookie = "cookie"
	TokenBackendRedis  = "redis"
)

type Config struct {
	APIBaseURL   string        `env:"READERKIT_API_BASE_URL"`
	Locale       string        `env:"READERKIT_LOCALE" envDefault:"en-US"`
	HTTPTimeout  time.Duration `env:"READERKIT_HTTP_TIMEOUT" envDefault:"10s"`
	TokenBackend string        `env:"READERKIT_TOKEN_BACKEND" envDefault:"cookie"`
	TokenName    string        `env:"READERKIT_TOKEN_NAME" envDefault:"token"`
	TokenSite    string        `env:"READERKIT_TOKEN_SAMESITE" envDefault:"lax"`
	Token        string        `env:"READERKIT_TOKEN"`

	RedisAddr     string `env:"READERKIT_REDIS_ADDR"`
	RedisPassword string `env:"READERKIT_REDIS_PASSWORD"`
	RedisDB       int    `env:"READERKIT_REDIS_DB" envDefault:"0"`

	S3Endpoint     string        `env:"READERKIT_S3_ENDPOINT"`
	S3Region       string        `env:"READERKIT_S3_REGION"`
	S3Bucket       string        `env:"READERKIT_S3_BUCKET"`
	S3AccessKey    string        `env:"READERKIT_S3_ACCESS_KEY"`
	S3SecretKey    string        `env:"READERKIT_S3_SECRET_KEY"`
	CacheObjectKey string        `env:"READERKIT_CACHE_OBJECT_KEY" envDefault:"readerkit/query-cache.json"`
	CacheMaxAge    time.Duration `env:"READERKIT_CACHE_MAX_AGE" envDefault:"24h"`

	GCTime     time.Duration `env:"READERKIT_GC_TIME" envDefault:"5m"`
	Retry      int           `env:"READERKIT_RETRY" envDefault:"3"`
	RetryDelay time.Duration `env:"READERKIT_RETRY_DELAY" envDefault:"1s"`
	LockTTL    time.Duration `env:"READERKIT_LOCK_TTL" envDefault:"45s"`

	OTelEndpoint string `env:"READERKIT_OTEL_ENDPOINT"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an optional YAML or TOML file underneath the
// environment. File keys are the variable names without the READERKIT_
// prefix, in any case (api_base_url, gc_time). Environment variables win.
func LoadFile(path string) (Config, error) {
	environ := env.ToMap(os.Environ())
	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		for _, key := range v.AllKeys() {
			name := envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
			if _, set := environ[name]; !set {
				environ[name] = v.GetString(key)
			}
		}
	}
	return parse(environ)
}

func parse(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.TokenBackend = strings.ToLower(strings.TrimSpace(cfg.TokenBackend))

	if cfg.APIBaseURL == "" {
		return cfg, errors.New("READERKIT_API_BASE_URL is required")
	}
	switch cfg.TokenBackend {
	case TokenBackendCookie:
	case TokenBackendRedis:
		if cfg.RedisAddr == "" {
			return cfg, errors.New("READERKIT_REDIS_ADDR is required for the redis token backend")
		}
	default:
		return cfg, fmt.Errorf("unknown token backend %q", cfg.TokenBackend)
	}
	if _, ok := parseSameSite(cfg.TokenSite); !ok {
		return cfg, fmt.Errorf("invalid READERKIT_TOKEN_SAMESITE %q", cfg.TokenSite)
	}
	if cfg.PersistenceEnabled() && (cfg.S3Endpoint == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "") {
		return cfg, errors.New("S3 endpoint/access/secret are required when READERKIT_S3_BUCKET is set")
	}
	if cfg.Retry < 0 {
		cfg.Retry = 0
	}
	return cfg, nil
}

// PersistenceEnabled reports whether the query cache is snapshotted to S3.
func (c Config) PersistenceEnabled() bool {
	return c.S3Bucket != ""
}

// SameSite returns the cookie policy for the auth token.
func (c Config) SameSite() http.SameSite {
	mode, _ := parseSameSite(c.TokenSite)
	return mode
}

func parseSameSite(v string) (http.SameSite, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "lax":
		return http.SameSiteLaxMode, true
	case "strict":
		return http.SameSiteStrictMode, true
	case "none":
		return http.SameSiteNoneMode, true
	case "default":
		return http.SameSiteDefaultMode, true
	default:
		return 0, false
	}
}
