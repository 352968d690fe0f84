package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds environment-based settings
type Config struct {
	Environment    string
	LogLevel       string
	DatabaseURL    string
	MigrationsPath string
	JWTSecret      string
	ServerAddress  string

	RedisURL string

	MQTTBrokerURL string
	MQTTTopic     string

	UseSpaces       bool
	SpacesEndpoint  string
	SpacesRegion    string
	SpacesBucket    string
	SpacesCDNURL    string
	SpacesAccessKey string
	SpacesSecretKey string

	AdminEmail    string
	AdminPassword string

	PrayerAPI PrayerAPIConfig
	Fetch     FetchConfig
}

// PrayerAPIConfig configures the upstream prayer-time API and the retry and
// rate limits applied to it.
type PrayerAPIConfig struct {
	BaseURL             string
	Method              int
	School              int
	Country             string
	Timeout             time.Duration
	MaxRetries          int
	RetryDelay          time.Duration
	RateLimitCapacity   int
	RateLimitRefillRate float64
}

type FetchConfig struct {
	// BatchSize is how many entries are written per upsert statement.
	BatchSize              int
	RequestDelay           time.Duration
	DistrictDelay          time.Duration
	MaxConcurrentDistricts int
	// JobTimeout bounds one background fetch job; zero disables it.
	JobTimeout             time.Duration
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	jwt := os.Getenv("JWT_SECRET")
	if jwt == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	p := &parser{}
	cfg := &Config{
		Environment:    stringOr("APP_ENV", "production"),
		LogLevel:       stringOr("LOG_LEVEL", "info"),
		DatabaseURL:    dbURL,
		MigrationsPath: stringOr("MIGRATIONS_PATH", "./migrations"),
		JWTSecret:      jwt,
		ServerAddress:  stringOr("SERVER_ADDRESS", ":8080"),

		RedisURL: os.Getenv("REDIS_URL"),

		MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),
		MQTTTopic:     stringOr("MQTT_TOPIC", "sehri/schedules"),

		UseSpaces:       p.boolean("USE_SPACES", false),
		SpacesEndpoint:  os.Getenv("SPACES_ENDPOINT"),
		SpacesRegion:    os.Getenv("SPACES_REGION"),
		SpacesBucket:    os.Getenv("SPACES_BUCKET"),
		SpacesCDNURL:    os.Getenv("SPACES_CDN_URL"),
		SpacesAccessKey: os.Getenv("SPACES_ACCESS_KEY"),
		SpacesSecretKey: os.Getenv("SPACES_SECRET_KEY"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		PrayerAPI: PrayerAPIConfig{
			BaseURL:             stringOr("PRAYER_API_BASE_URL", "https://api.aladhan.com/v1"),
			Method:              p.integer("PRAYER_API_METHOD", 1),
			School:              p.integer("PRAYER_API_SCHOOL", 1),
			Country:             stringOr("PRAYER_API_COUNTRY", "Bangladesh"),
			Timeout:             p.duration("PRAYER_API_TIMEOUT", 10*time.Second),
			MaxRetries:          p.integer("PRAYER_API_MAX_RETRIES", 3),
			RetryDelay:          p.duration("PRAYER_API_RETRY_DELAY", time.Second),
			RateLimitCapacity:   p.integer("RATE_LIMIT_CAPACITY", 10),
			RateLimitRefillRate: p.float("RATE_LIMIT_REFILL_RATE", 2),
		},
		Fetch: FetchConfig{
			BatchSize:              p.integer("FETCH_BATCH_SIZE", 100),
			RequestDelay:           p.duration("FETCH_REQUEST_DELAY", 100*time.Millisecond),
			DistrictDelay:          p.duration("FETCH_DISTRICT_DELAY", 500*time.Millisecond),
			MaxConcurrentDistricts: p.integer("FETCH_MAX_CONCURRENT_DISTRICTS", 5),
			JobTimeout:             p.duration("FETCH_JOB_TIMEOUT", 6*time.Hour),
		},
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.PrayerAPI.MaxRetries < 0:
		return fmt.Errorf("PRAYER_API_MAX_RETRIES must not be negative")
	case c.PrayerAPI.Timeout <= 0:
		return fmt.Errorf("PRAYER_API_TIMEOUT must be positive")
	case c.PrayerAPI.RateLimitCapacity < 1:
		return fmt.Errorf("RATE_LIMIT_CAPACITY must be at least 1")
	case c.PrayerAPI.RateLimitRefillRate <= 0:
		return fmt.Errorf("RATE_LIMIT_REFILL_RATE must be positive")
	case c.Fetch.BatchSize < 1:
		return fmt.Errorf("FETCH_BATCH_SIZE must be at least 1")
	case c.Fetch.MaxConcurrentDistricts < 1:
		return fmt.Errorf("FETCH_MAX_CONCURRENT_DISTRICTS must be at least 1")
	case c.Fetch.RequestDelay < 0 || c.Fetch.DistrictDelay < 0:
		return fmt.Errorf("fetch delays must not be negative")
	case c.Fetch.JobTimeout < 0:
		return fmt.Errorf("FETCH_JOB_TIMEOUT must not be negative")
	case c.UseSpaces && (c.SpacesBucket == "" || c.SpacesEndpoint == ""):
		return fmt.Errorf("USE_SPACES requires SPACES_ENDPOINT and SPACES_BUCKET")
	}
	return nil
}

func stringOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// parser keeps the first malformed value so Load can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
}

func (p *parser) integer(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *parser) boolean(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}
