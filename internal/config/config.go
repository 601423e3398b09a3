package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultGeoJSONURL is the national county feature collection keyed by
// five-digit FIPS code.
const DefaultGeoJSONURL = "https://raw.githubusercontent.com/plotly/datasets/master/geojson-counties-fips.json"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dataset sources. An empty CatalogPath selects the embedded catalog; an
	// empty DataDir resolves relative dataset locations against embedded data.
	CatalogPath  string
	DataDir      string
	GeoJSONURL   string
	RegionPrefix string

	FetchTimeout   time.Duration
	FetchRetries   int
	FetchCacheSize int

	RenderWidth    int
	RenderHeight   int
	RenderCacheTTL time.Duration

	// ReloadSchedule is a cron expression; empty disables scheduled reloads.
	ReloadSchedule string

	// Joined-record export.
	KafkaBrokers       []string
	KafkaTopic         string
	KafkaEnabled       bool
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	renderCacheTTL, err := parsePositiveDuration("RENDER_CACHE_TTL", "1m")
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	fetchRetries, err := parseInt("FETCH_RETRIES", 2, 0, 10)
	if err != nil {
		return nil, err
	}
	width, err := parseInt("RENDER_WIDTH", 720, 120, 4096)
	if err != nil {
		return nil, err
	}
	height, err := parseInt("RENDER_HEIGHT", 480, 120, 4096)
	if err != nil {
		return nil, err
	}

	brokers := sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CatalogPath:  os.Getenv("CATALOG_PATH"),
		DataDir:      os.Getenv("DATA_DIR"),
		GeoJSONURL:   sharedcfg.EnvOrDefault("GEOJSON_URL", DefaultGeoJSONURL),
		RegionPrefix: sharedcfg.EnvOrDefault("REGION_PREFIX", "13"),

		FetchTimeout:   fetchTimeout,
		FetchRetries:   fetchRetries,
		FetchCacheSize: parseCacheSize(),

		RenderWidth:    width,
		RenderHeight:   height,
		RenderCacheTTL: renderCacheTTL,

		ReloadSchedule: strings.TrimSpace(os.Getenv("RELOAD_SCHEDULE")),

		KafkaBrokers:       brokers,
		KafkaTopic:         sharedcfg.EnvOrDefault("KAFKA_TOPIC", "choropleth-joined"),
		KafkaEnabled:       kafkaEnabled,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if !validPrefix(cfg.RegionPrefix) {
		return nil, errors.New("invalid REGION_PREFIX: must be 1-5 digits")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseInt(key string, fallback, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, errors.New("invalid " + key + ": must be " + strconv.Itoa(lo) + "-" + strconv.Itoa(hi))
	}
	return n, nil
}

func parseCacheSize() int {
	if s := os.Getenv("FETCH_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 32
}

func validPrefix(p string) bool {
	if p == "" || len(p) > 5 {
		return false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
