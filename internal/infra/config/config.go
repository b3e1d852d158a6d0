package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config aggregates application configuration loaded from the environment and
// an optional .env file.
type Config struct {
	Env       string
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	StorageMode string
	MongoURI    string
	MongoDB     string

	KafkaBrokers     []string
	KafkaTopicPrefix string
	KafkaGroupID     string

	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	CacheMode          string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	CacheTTL           time.Duration
	CacheFlushSchedule string

	FixturesPath  string
	MaxWindowDays int
}

// Load reads configuration with viper defaults, a .env file when present and
// environment overrides.
func Load() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "")
	v.SetDefault("STORAGE_MODE", StorageMemory)
	v.SetDefault("MONGO_DB", "rentcalc")
	v.SetDefault("KAFKA_TOPIC_PREFIX", "")
	v.SetDefault("KAFKA_GROUP_ID", "rentcalc-cache")
	v.SetDefault("IDEMP_TTL", "168h")
	v.SetDefault("OUTBOX_POLL_INTERVAL", "500ms")
	v.SetDefault("RETRY_BACKOFF", "1s,5s,30s")
	v.SetDefault("CACHE_MODE", CacheMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("CACHE_FLUSH_SCHEDULE", "0 3 * * *")
	v.SetDefault("FIXTURES_PATH", "")
	v.SetDefault("AVAILABILITY_MAX_WINDOW_DAYS", 731)

	v.AutomaticEnv()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read .env: %w", err)
		}
	}

	cfg := Config{
		Env:                strings.ToLower(v.GetString("APP_ENV")),
		HTTPAddr:           v.GetString("HTTP_ADDR"),
		LogLevel:           strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:          strings.ToLower(v.GetString("LOG_FORMAT")),
		StorageMode:        strings.ToLower(v.GetString("STORAGE_MODE")),
		MongoURI:           v.GetString("MONGO_URI"),
		MongoDB:            v.GetString("MONGO_DB"),
		KafkaBrokers:       splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopicPrefix:   v.GetString("KAFKA_TOPIC_PREFIX"),
		KafkaGroupID:       v.GetString("KAFKA_GROUP_ID"),
		CacheMode:          strings.ToLower(v.GetString("CACHE_MODE")),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		CacheFlushSchedule: v.GetString("CACHE_FLUSH_SCHEDULE"),
		FixturesPath:       v.GetString("FIXTURES_PATH"),
		MaxWindowDays:      v.GetInt("AVAILABILITY_MAX_WINDOW_DAYS"),
	}

	var err error
	if cfg.IdempotencyTTL, err = parseDuration(v, "IDEMP_TTL"); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDuration(v, "OUTBOX_POLL_INTERVAL"); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = parseDuration(v, "CACHE_TTL"); err != nil {
		return Config{}, err
	}
	for _, raw := range splitList(v.GetString("RETRY_BACKOFF")) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StorageMode {
	case StorageMemory:
	case StorageMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORAGE_MODE=mongo")
		}
	default:
		return fmt.Errorf("unknown STORAGE_MODE %q", c.StorageMode)
	}
	switch c.CacheMode {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required when CACHE_MODE=redis")
		}
	default:
		return fmt.Errorf("unknown CACHE_MODE %q", c.CacheMode)
	}
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is required")
	}
	if c.CacheFlushSchedule != "" {
		if _, err := cron.ParseStandard(c.CacheFlushSchedule); err != nil {
			return fmt.Errorf("CACHE_FLUSH_SCHEDULE: %w", err)
		}
	}
	if c.MaxWindowDays <= 0 {
		return errors.New("AVAILABILITY_MAX_WINDOW_DAYS must be positive")
	}
	return nil
}

func (c Config) IsDevelopment() bool {
	return c.Env == "dev" || c.Env == "local" || c.Env == "development"
}

// KafkaEnabled reports whether events leave the process.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// InvalidationGroupID is the consumer group of the cache invalidation
// consumer. A process-local cache needs every instance to see every event, so
// each instance joins its own group; a shared Redis cache is invalidated once
// per event by the shared group.
func (c Config) InvalidationGroupID(instance string) string {
	if c.CacheMode != CacheMemory || instance == "" {
		return c.KafkaGroupID
	}
	return c.KafkaGroupID + "-" + instance
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
