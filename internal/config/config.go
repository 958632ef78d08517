package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreMemory = "memory"
	StoreDuckDB = "duckdb"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Location resolution.
	DefaultLocation string
	SeedFile        string
	TitleTimezone   *time.Location

	// User config store.
	StoreDriver    string
	DuckDBPath     string
	StoreCacheSize int
	StoreTimeout   time.Duration

	// Diary entry pipeline.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
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

	storeTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("STORE_TIMEOUT", "2s"))
	if err != nil || storeTimeout <= 0 {
		return nil, errors.New("invalid STORE_TIMEOUT")
	}

	tzName := sharedcfg.EnvOrDefault("TITLE_TIMEZONE", "Asia/Shanghai")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TITLE_TIMEZONE %q: %w", tzName, err)
	}

	cacheSize, err := parseStoreCacheSize()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DefaultLocation: strings.TrimSpace(sharedcfg.EnvOrDefault("DEFAULT_LOCATION", "Shanghai")),
		SeedFile:        os.Getenv("LOCATION_SEED_FILE"),
		TitleTimezone:   tz,

		StoreDriver:    strings.ToLower(sharedcfg.EnvOrDefault("STORE_DRIVER", StoreMemory)),
		DuckDBPath:     os.Getenv("DUCKDB_PATH"),
		StoreCacheSize: cacheSize,
		StoreTimeout:   storeTimeout,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "diary-messages"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "diary-entries"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "diary-location"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.DefaultLocation == "" {
		return nil, errors.New("DEFAULT_LOCATION is required")
	}
	if cfg.StoreDriver != StoreMemory && cfg.StoreDriver != StoreDuckDB {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want %s or %s", cfg.StoreDriver, StoreMemory, StoreDuckDB)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}

	return cfg, nil
}

// parseStoreCacheSize reads STORE_CACHE_SIZE. Zero disables the cache.
func parseStoreCacheSize() (int, error) {
	s := os.Getenv("STORE_CACHE_SIZE")
	if s == "" {
		return 1000, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid STORE_CACHE_SIZE")
	}
	return n, nil
}
