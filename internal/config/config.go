package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/quake-feed/internal/domain"
)

// DefaultUSGSBaseURL is the FDSN event query endpoint.
const DefaultUSGSBaseURL = "https://earthquake.usgs.gov/fdsnws/event/1/query"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// USGS client configuration.
	USGSBaseURL     string
	USGSTimeout     time.Duration
	USGSRateLimit   float64 // requests per second
	USGSRateBurst   int
	DetailCacheSize int

	// Filters the store starts with. RefreshInterval of zero disables
	// periodic refresh.
	DefaultFilters  domain.FilterSpec
	RefreshInterval time.Duration

	// Alert publishing.
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaAlertTopic string

	// Snapshot persistence; disabled when RedisAddr is empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SnapshotTTL   time.Duration

	Alerts domain.AlertSettings
}

// Load reads configuration from environment variables (and an optional .env
// file), applying defaults where unset.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	usgsTimeout, err := parsePositiveDuration("USGS_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	snapshotTTL, err := parsePositiveDuration("SNAPSHOT_TTL", "24h")
	if err != nil {
		return nil, err
	}
	alertMaxAge, err := parsePositiveDuration("ALERT_MAX_AGE", "24h")
	if err != nil {
		return nil, err
	}

	rateLimit, err := parseFloat("USGS_RATE_LIMIT", 2)
	if err != nil {
		return nil, err
	}
	if rateLimit <= 0 {
		return nil, errors.New("USGS_RATE_LIMIT must be positive")
	}
	detailCacheSize, err := parseInt("USGS_DETAIL_CACHE_SIZE", 500)
	if err != nil {
		return nil, err
	}
	if detailCacheSize < 1 {
		return nil, errors.New("USGS_DETAIL_CACHE_SIZE must be at least 1")
	}
	rateBurst, err := parseInt("USGS_RATE_BURST", 4)
	if err != nil {
		return nil, err
	}
	if rateBurst < 1 {
		return nil, errors.New("USGS_RATE_BURST must be at least 1")
	}

	minMag, err := parseFloat("DEFAULT_MIN_MAGNITUDE", domain.DefaultMinMagnitude)
	if err != nil {
		return nil, err
	}
	days, err := parseInt("DEFAULT_TIME_RANGE_DAYS", domain.DefaultTimeRangeDays)
	if err != nil {
		return nil, err
	}
	refreshInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("REFRESH_INTERVAL", "0s"))
	if err != nil || refreshInterval < 0 {
		return nil, errors.New("invalid REFRESH_INTERVAL")
	}
	redisDB, err := parseInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	alerts, err := parseAlertSettings(alertMaxAge)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		USGSBaseURL:     sharedcfg.EnvOrDefault("USGS_BASE_URL", DefaultUSGSBaseURL),
		USGSTimeout:     usgsTimeout,
		USGSRateLimit:   rateLimit,
		USGSRateBurst:   rateBurst,
		DetailCacheSize: detailCacheSize,

		DefaultFilters:  domain.FilterSpec{MinMagnitude: minMag, TimeRangeDays: days},
		RefreshInterval: refreshInterval,

		KafkaEnabled:    os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAlertTopic: sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "quake-alerts"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		SnapshotTTL:   snapshotTTL,

		Alerts: alerts,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaAlertTopic == "" {
		return nil, errors.New("KAFKA_ALERT_TOPIC is required when KAFKA_ENABLED is true")
	}
	if cfg.Alerts.Enabled {
		if err := validateAlertSettings(cfg.Alerts); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func parseAlertSettings(maxAge time.Duration) (domain.AlertSettings, error) {
	s := domain.DefaultAlertSettings()
	s.Enabled = os.Getenv("ALERTS_ENABLED") == "true"
	s.MaxAge = maxAge

	var err error
	if s.MinMagnitude, err = parseFloat("ALERT_MIN_MAGNITUDE", s.MinMagnitude); err != nil {
		return s, err
	}
	if s.MaxDistanceKm, err = parseFloat("ALERT_MAX_DISTANCE_KM", s.MaxDistanceKm); err != nil {
		return s, err
	}
	if s.HomeLatitude, err = parseFloat("ALERT_HOME_LAT", 0); err != nil {
		return s, err
	}
	if s.HomeLongitude, err = parseFloat("ALERT_HOME_LON", 0); err != nil {
		return s, err
	}
	return s, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
