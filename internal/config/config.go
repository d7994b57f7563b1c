package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultDatabaseURL     = "file:studiobook.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	defaultJWTSecret       = "change-me-jwt-secret"
	defaultStorageSecret   = "change-me-storage-secret"
	defaultStorageRoot     = "./uploads"
	defaultBookingPrefix   = "STU"
	defaultDPWindow        = 72 * time.Hour
	defaultJWTTTL          = 24 * time.Hour
	defaultSignedURLTTL    = 7 * 24 * time.Hour
	defaultCleanupInterval = time.Hour
	defaultKafkaTopic      = "studio.booking.events"
	defaultTimezone        = "Asia/Jakarta"
)

type HTTPConfig struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	AllowedOrigins  []string      `toml:"allowed_origins"`
	PublicBaseURL   string        `toml:"public_base_url"`

	// TrustedProxies may set X-Forwarded-For. Empty means the socket address is the client IP.
	TrustedProxies []string `toml:"trusted_proxies"`
}

type DatabaseConfig struct {
	URL          string `toml:"url"`
	MaxOpenConns int    `toml:"max_open_conns"`
	LogQueries   bool   `toml:"log_queries"`
}

type AuthConfig struct {
	JWTSecret string        `toml:"jwt_secret"`
	JWTTTL    time.Duration `toml:"jwt_ttl"`
}

type StorageConfig struct {
	Root         string        `toml:"root"`
	SigningKey   string        `toml:"signing_key"`
	SignedURLTTL time.Duration `toml:"signed_url_ttl"`
}

type BookingConfig struct {
	CodePrefix string        `toml:"code_prefix"`
	DPWindow   time.Duration `toml:"dp_window"`
}

// StudioConfig is shown to clients as payment instructions.
type StudioConfig struct {
	Name          string `toml:"name"`
	BankName      string `toml:"bank_name"`
	AccountNumber string `toml:"account_number"`
	AccountName   string `toml:"account_name"`
	Timezone      string `toml:"timezone"`
}

type KafkaConfig struct {
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

type JobsConfig struct {
	Enabled         bool          `toml:"enabled"`
	CleanupInterval time.Duration `toml:"cleanup_interval"`

	// ExpiryInterval > 0 turns on cancelling unpaid invoices past their DP deadline. Off by default.
	ExpiryInterval time.Duration `toml:"expiry_interval"`
}

type Config struct {
	AppEnv   string         `toml:"app_env"`
	HTTP     HTTPConfig     `toml:"http"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Storage  StorageConfig  `toml:"storage"`
	Booking  BookingConfig  `toml:"booking"`
	Studio   StudioConfig   `toml:"studio"`
	Kafka    KafkaConfig    `toml:"kafka"`
	Jobs     JobsConfig     `toml:"jobs"`
}

func Default() *Config {
	return &Config{
		AppEnv: "dev",
		HTTP: HTTPConfig{
			Addr:            defaultHTTPAddr,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			},
		},
		Database: DatabaseConfig{URL: defaultDatabaseURL, MaxOpenConns: 10},
		Auth:     AuthConfig{JWTSecret: defaultJWTSecret, JWTTTL: defaultJWTTTL},
		Storage: StorageConfig{
			Root:         defaultStorageRoot,
			SigningKey:   defaultStorageSecret,
			SignedURLTTL: defaultSignedURLTTL,
		},
		Booking: BookingConfig{CodePrefix: defaultBookingPrefix, DPWindow: defaultDPWindow},
		Studio:  StudioConfig{Name: "Studio", Timezone: defaultTimezone},
		Kafka:   KafkaConfig{Topic: defaultKafkaTopic},
		Jobs: JobsConfig{
			Enabled:         true,
			CleanupInterval: defaultCleanupInterval,
		},
	}
}

// Load reads defaults, then the optional TOML file, then environment overrides.
// An empty path falls back to CONFIG_FILE and then to ./config.toml if it exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	}
	if path == "" {
		if _, err := os.Stat("config.toml"); err == nil {
			path = "config.toml"
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := firstEnv("APP_ENV", "ENV"); v != "" {
		cfg.AppEnv = v
	}
	cfg.AppEnv = strings.ToLower(cfg.AppEnv)

	setString(&cfg.HTTP.Addr, "HTTP_ADDR")
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" && os.Getenv("HTTP_ADDR") == "" {
		cfg.HTTP.Addr = ":" + port
	}
	setString(&cfg.HTTP.PublicBaseURL, "PUBLIC_BASE_URL")
	if extra := os.Getenv("CORS_ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.HTTP.AllowedOrigins = append(cfg.HTTP.AllowedOrigins, o)
			}
		}
	}

	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Storage.Root, "STORAGE_ROOT")
	setString(&cfg.Storage.SigningKey, "STORAGE_SIGNING_KEY")
	setString(&cfg.Booking.CodePrefix, "BOOKING_CODE_PREFIX")
	setString(&cfg.Studio.Name, "STUDIO_NAME")
	setString(&cfg.Studio.BankName, "STUDIO_BANK_NAME")
	setString(&cfg.Studio.AccountNumber, "STUDIO_BANK_ACCOUNT_NUMBER")
	setString(&cfg.Studio.AccountName, "STUDIO_BANK_ACCOUNT_NAME")
	setString(&cfg.Studio.Timezone, "STUDIO_TIMEZONE")
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")
	if proxies := os.Getenv("TRUSTED_PROXIES"); proxies != "" {
		cfg.HTTP.TrustedProxies = splitList(proxies)
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = splitList(brokers)
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"JWT_TTL", &cfg.Auth.JWTTTL},
		{"SIGNED_URL_TTL", &cfg.Storage.SignedURLTTL},
		{"DP_WINDOW", &cfg.Booking.DPWindow},
		{"JOBS_CLEANUP_INTERVAL", &cfg.Jobs.CleanupInterval},
		{"JOBS_EXPIRY_INTERVAL", &cfg.Jobs.ExpiryInterval},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.name); err != nil {
			return err
		}
	}

	if v := strings.TrimSpace(os.Getenv("JOBS_ENABLED")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid JOBS_ENABLED value %q: %w", v, err)
		}
		cfg.Jobs.Enabled = b
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return errors.New("DATABASE_URL must not be empty")
	}
	if c.Auth.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be > 0")
	}
	if c.Storage.SignedURLTTL <= 0 {
		return errors.New("SIGNED_URL_TTL must be > 0")
	}
	if c.Booking.DPWindow <= 0 {
		return errors.New("DP_WINDOW must be > 0")
	}
	prefix := strings.TrimSpace(c.Booking.CodePrefix)
	if prefix == "" || strings.Contains(prefix, "-") {
		return errors.New("BOOKING_CODE_PREFIX must be non-empty and must not contain '-'")
	}
	if _, err := time.LoadLocation(c.Studio.Timezone); err != nil {
		return fmt.Errorf("invalid STUDIO_TIMEZONE %q: %w", c.Studio.Timezone, err)
	}
	if c.Jobs.Enabled && c.Jobs.CleanupInterval <= 0 {
		return errors.New("JOBS_CLEANUP_INTERVAL must be > 0")
	}
	if c.Jobs.ExpiryInterval < 0 {
		return errors.New("JOBS_EXPIRY_INTERVAL must be >= 0 (0 disables expiry)")
	}

	if c.IsProdLike() {
		if isEmptyOrDefault(c.Auth.JWTSecret, defaultJWTSecret) {
			return errors.New("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(c.Storage.SigningKey, defaultStorageSecret) {
			return errors.New("in prod/release STORAGE_SIGNING_KEY must be set and not default")
		}
	}
	return nil
}

// Location is the studio's time zone. Event dates and "today" are interpreted in it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Studio.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProdLike() bool {
	env := strings.ToLower(strings.TrimSpace(c.AppEnv))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v
		}
	}
	return ""
}

func setString(dst *string, name string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name string) error {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", name, v, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
