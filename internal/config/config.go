package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Forecast loader configuration.
	ForecastURL       string
	ForecastTimeout   time.Duration // 0 keeps the transport default
	ForecastRateLimit int           // requests per minute, 0 disables

	SearchDebounce time.Duration
	MapResizeDelay time.Duration

	// PageIdleTimeout drops a browser's page state after this long without a request.
	PageIdleTimeout time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// StorePath enables the file-backed store when set.
	StorePath            string
	OfflineWorkerEnabled bool

	// Analytics sink. Events are only logged when no brokers are configured.
	AnalyticsKafkaBrokers []string
	AnalyticsKafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	forecastTimeout, err := parseDuration("FORECAST_TIMEOUT", "0s", true)
	if err != nil {
		return nil, err
	}
	searchDebounce, err := parseDuration("SEARCH_DEBOUNCE", "300ms", false)
	if err != nil {
		return nil, err
	}
	mapResizeDelay, err := parseDuration("MAP_RESIZE_DELAY", "100ms", false)
	if err != nil {
		return nil, err
	}
	pageIdleTimeout, err := parseDuration("PAGE_IDLE_TIMEOUT", "30m", false)
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s", false)
	if err != nil {
		return nil, err
	}

	rateLimit, err := strconv.Atoi(sharedcfg.EnvOrDefault("FORECAST_RATE_LIMIT", "6"))
	if err != nil || rateLimit < 0 {
		return nil, errors.New("invalid FORECAST_RATE_LIMIT")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ForecastURL:       sharedcfg.EnvOrDefault("FORECAST_URL", "https://api.data.gov.sg/v1/environment/4-day-weather-forecast"),
		ForecastTimeout:   forecastTimeout,
		ForecastRateLimit: rateLimit,

		SearchDebounce: searchDebounce,
		MapResizeDelay: mapResizeDelay,

		PageIdleTimeout: pageIdleTimeout,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		StorePath:            os.Getenv("STORE_PATH"),
		OfflineWorkerEnabled: sharedcfg.EnvOrDefault("OFFLINE_WORKER_ENABLED", "true") == "true",

		AnalyticsKafkaTopic: sharedcfg.EnvOrDefault("ANALYTICS_KAFKA_TOPIC", "shoresquad-analytics"),
	}
	if brokers := os.Getenv("ANALYTICS_KAFKA_BROKERS"); brokers != "" {
		cfg.AnalyticsKafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("HTTP_ADDR is required")
	}
	if cfg.ForecastURL == "" {
		return nil, errors.New("FORECAST_URL is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if len(cfg.AnalyticsKafkaBrokers) > 0 && cfg.AnalyticsKafkaTopic == "" {
		return nil, errors.New("ANALYTICS_KAFKA_TOPIC is required when ANALYTICS_KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// parseDuration reads a positive duration, or a non-negative one when allowZero is set.
func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
