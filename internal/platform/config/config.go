// Package config loads service configuration from defaults, an optional
// config file and environment variables. Keys are dotted (ocr.max_concurrent)
// and map to upper-case environment names (OCR_MAX_CONCURRENT).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"docverify/internal/domain"
	"docverify/pkg/platform/secrets"
	strutil "docverify/pkg/platform/strings"
)

// ConfigFileEnv names the environment variable pointing at an optional
// YAML/JSON/TOML config file.
const ConfigFileEnv = "DOCVERIFY_CONFIG"

const devSigningKey = "dev-secret-key-change-in-production"

// Event sink backends.
const (
	EventsBackendMemory = "memory"
	EventsBackendKafka  = "kafka"
	EventsBackendNATS   = "nats"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	OCR       OCRConfig       `mapstructure:"ocr"`
	Rules     RulesConfig     `mapstructure:"rules"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Events    EventsConfig    `mapstructure:"events"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr             string        `mapstructure:"addr"`
	DocumentRoot     string        `mapstructure:"document_root"`
	MetricsTokenHash string        `mapstructure:"metrics_token_hash"` // bcrypt hash of the /metrics admin token
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text | json
}

// DatabaseConfig configures PostgreSQL. An empty URL selects in-memory stores,
// optionally seeded with application records from SeedFile.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	SeedFile        string        `mapstructure:"seed_file"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig configures the application record cache. An empty URL
// disables caching.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

type OCRConfig struct {
	Language         string        `mapstructure:"language"`
	MaxConcurrent    int           `mapstructure:"max_concurrent"`
	RunTimeout       time.Duration `mapstructure:"run_timeout"`
	TesseractPath    string        `mapstructure:"tesseract_path"`
	PdftoppmPath     string        `mapstructure:"pdftoppm_path"`
	TessdataDir      string        `mapstructure:"tessdata_dir"`
	DPI              int           `mapstructure:"dpi"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
}

// RulesConfig points at an optional file of extra ID layout rules.
type RulesConfig struct {
	File string `mapstructure:"file"`
}

// PolicyConfig mirrors domain.Policy with configuration keys.
type PolicyConfig struct {
	AutoApproveMin          int    `mapstructure:"auto_approve_min"`
	ManualReviewMinorMin    int    `mapstructure:"manual_review_minor_min"`
	ManualReviewMultipleMin int    `mapstructure:"manual_review_multiple_min"`
	NameWarnBelow           int    `mapstructure:"name_warn_below"`
	NameErrorBelow          int    `mapstructure:"name_error_below"`
	AddressWarnBelow        int    `mapstructure:"address_warn_below"`
	AddressErrorBelow       int    `mapstructure:"address_error_below"`
	StatePartialCredit      int    `mapstructure:"state_partial_credit"`
	DateLayout              string `mapstructure:"date_layout"`
}

// Domain converts the configured thresholds to a domain.Policy.
func (p PolicyConfig) Domain() domain.Policy {
	return domain.Policy{
		AutoApproveMin:          p.AutoApproveMin,
		ManualReviewMinorMin:    p.ManualReviewMinorMin,
		ManualReviewMultipleMin: p.ManualReviewMultipleMin,
		NameWarnBelow:           p.NameWarnBelow,
		NameErrorBelow:          p.NameErrorBelow,
		AddressWarnBelow:        p.AddressWarnBelow,
		AddressErrorBelow:       p.AddressErrorBelow,
		StatePartialCredit:      p.StatePartialCredit,
		DateLayout:              p.DateLayout,
	}
}

type EventsConfig struct {
	Backend        string        `mapstructure:"backend"`
	Buffer         int           `mapstructure:"buffer"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
	Kafka          KafkaConfig   `mapstructure:"kafka"`
	NATS           NATSConfig    `mapstructure:"nats"`
}

type KafkaConfig struct {
	Brokers           []string `mapstructure:"brokers"`
	Topic             string   `mapstructure:"topic"`
	ClientID          string   `mapstructure:"client_id"`
	CreateTopic       bool     `mapstructure:"create_topic"`
	Partitions        int32    `mapstructure:"partitions"`
	ReplicationFactor int16    `mapstructure:"replication_factor"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// AuthConfig configures service-to-service bearer tokens.
type AuthConfig struct {
	JWTSigningKey string `mapstructure:"jwt_signing_key"`
	Issuer        string `mapstructure:"issuer"`
	Audience      string `mapstructure:"audience"`
}

// RateLimitConfig bounds verification requests per calling client.
type RateLimitConfig struct {
	Every time.Duration `mapstructure:"every"`
	Burst int           `mapstructure:"burst"`
}

func setDefaults(v *viper.Viper) {
	policy := domain.DefaultPolicy()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.document_root", "")
	v.SetDefault("server.metrics_token_hash", "")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.url", "")
	v.SetDefault("database.seed_file", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.cache_ttl", 5*time.Minute)

	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.max_concurrent", 2)
	v.SetDefault("ocr.run_timeout", time.Duration(0))
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.pdftoppm_path", "pdftoppm")
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.failure_threshold", 5)
	v.SetDefault("ocr.cooldown", 30*time.Second)

	v.SetDefault("rules.file", "")

	v.SetDefault("policy.auto_approve_min", policy.AutoApproveMin)
	v.SetDefault("policy.manual_review_minor_min", policy.ManualReviewMinorMin)
	v.SetDefault("policy.manual_review_multiple_min", policy.ManualReviewMultipleMin)
	v.SetDefault("policy.name_warn_below", policy.NameWarnBelow)
	v.SetDefault("policy.name_error_below", policy.NameErrorBelow)
	v.SetDefault("policy.address_warn_below", policy.AddressWarnBelow)
	v.SetDefault("policy.address_error_below", policy.AddressErrorBelow)
	v.SetDefault("policy.state_partial_credit", policy.StatePartialCredit)
	v.SetDefault("policy.date_layout", policy.DateLayout)

	v.SetDefault("events.backend", EventsBackendMemory)
	v.SetDefault("events.buffer", 256)
	v.SetDefault("events.publish_timeout", 2*time.Second)
	v.SetDefault("events.kafka.brokers", []string{})
	v.SetDefault("events.kafka.topic", "docverify.verifications")
	v.SetDefault("events.kafka.client_id", "docverify")
	v.SetDefault("events.kafka.create_topic", true)
	v.SetDefault("events.kafka.partitions", 3)
	v.SetDefault("events.kafka.replication_factor", 1)
	v.SetDefault("events.nats.url", "")
	v.SetDefault("events.nats.subject_prefix", "docverify")

	v.SetDefault("auth.jwt_signing_key", devSigningKey)
	v.SetDefault("auth.issuer", "docverify")
	v.SetDefault("auth.audience", "docverify-api")

	v.SetDefault("rate_limit.every", 600*time.Millisecond)
	v.SetDefault("rate_limit.burst", 20)
}

// Load reads configuration from defaults, the file named by DOCVERIFY_CONFIG
// (if set) and the environment, then validates it.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Events.Kafka.Brokers = strutil.SplitList(cfg.Events.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if err := c.Policy.Domain().Validate(); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	if c.OCR.MaxConcurrent <= 0 {
		return fmt.Errorf("ocr.max_concurrent must be positive, got %d", c.OCR.MaxConcurrent)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	switch c.Events.Backend {
	case EventsBackendMemory:
	case EventsBackendKafka:
		if len(c.Events.Kafka.Brokers) == 0 {
			return fmt.Errorf("events.kafka.brokers is required for the kafka backend")
		}
	case EventsBackendNATS:
		if c.Events.NATS.URL == "" {
			return fmt.Errorf("events.nats.url is required for the nats backend")
		}
	default:
		return fmt.Errorf("events.backend must be memory, kafka or nats, got %q", c.Events.Backend)
	}
	if c.Server.MetricsTokenHash != "" {
		if err := secrets.ValidateHash(c.Server.MetricsTokenHash); err != nil {
			return fmt.Errorf("server.metrics_token_hash: %w", err)
		}
	}
	if c.Auth.JWTSigningKey == "" {
		return fmt.Errorf("auth.jwt_signing_key is required")
	}
	if c.RateLimit.Burst <= 0 || c.RateLimit.Every <= 0 {
		return fmt.Errorf("rate_limit.every and rate_limit.burst must be positive")
	}
	return nil
}

// UsesDevSigningKey reports whether the built-in development key is active.
func (c *Config) UsesDevSigningKey() bool {
	return c.Auth.JWTSigningKey == devSigningKey
}
