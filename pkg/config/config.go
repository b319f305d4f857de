// Package config loads and validates the suggest service configuration from
// a YAML file with environment-variable overrides. It provides typed structs
// for every subsystem (Server, Scorer, Interventions, Host, Redis, Kafka,
// Postgres, Logging, Metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	Server        ServerConfig         `yaml:"server"`
	Scorer        ScorerConfig         `yaml:"scorer"`
	Interventions []InterventionConfig `yaml:"interventions"`
	Host          HostConfig           `yaml:"host"`
	Redis         RedisConfig          `yaml:"redis"`
	Kafka         KafkaConfig          `yaml:"kafka"`
	Postgres      PostgresConfig       `yaml:"postgres"`
	Logging       LoggingConfig        `yaml:"logging"`
	Metrics       MetricsConfig        `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RateLimitPerMin int           `yaml:"rateLimitPerMin"`
}

// ScorerConfig controls the query scorer: the edit-distance cutoff for a
// single word pair, the stop words skipped during scoring, and the maximum
// summed score a document may carry and still be surfaced.
type ScorerConfig struct {
	DistanceThreshold int      `yaml:"distanceThreshold"`
	StopWords         []string `yaml:"stopWords"`
	MaxScore          int      `yaml:"maxScore"`
}

// InterventionConfig is one corpus document: an intervention id and the
// keywords a query is matched against.
type InterventionConfig struct {
	ID       string   `yaml:"id"`
	Keywords []string `yaml:"keywords"`
}

// HostConfig points at the host application's local control endpoint.
type HostConfig struct {
	ControlURL string        `yaml:"controlUrl"`
	Timeout    time.Duration `yaml:"timeout"`
}

// RedisConfig holds Redis connection and result-cache parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	TelemetryEvents string `yaml:"telemetryEvents"`
}

// PostgresConfig holds PostgreSQL connection parameters for the telemetry
// snapshot store.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	SnapshotEvery   time.Duration `yaml:"snapshotEvery"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-
// variable overrides. Missing values keep their defaults, including the
// built-in intervention corpus when none is configured.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if len(cfg.Interventions) == 0 {
		cfg.Interventions = DefaultInterventions()
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// DefaultInterventions returns the built-in corpus: the three standard
// interventions and the keyword phrases users type for them.
func DefaultInterventions() []InterventionConfig {
	return []InterventionConfig{
		{
			ID:       "clear-data",
			Keywords: []string{"cache", "clear", "cookies", "delete", "history", "remove"},
		},
		{
			ID:       "refresh-profile",
			Keywords: []string{"fix", "profile", "refresh", "repair", "reset", "restore", "slow"},
		},
		{
			ID:       "update-app",
			Keywords: []string{"latest", "update", "upgrade", "version"},
		},
	}
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimitPerMin: 600,
		},
		Scorer: ScorerConfig{
			DistanceThreshold: 1,
			StopWords:         []string{"app", "the"},
			MaxScore:          1,
		},
		Host: HostConfig{
			ControlURL: "http://localhost:9801",
			Timeout:    2 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 30 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "suggestd-group",
			Topics: KafkaTopics{
				TelemetryEvents: "suggest-telemetry",
			},
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "suggestd",
			User:            "suggestd",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			SnapshotEvery:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads SD_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SD_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SD_SCORER_DISTANCE_THRESHOLD"); v != "" {
		if d, err := strconv.Atoi(v); err == nil {
			cfg.Scorer.DistanceThreshold = d
		}
	}
	if v := os.Getenv("SD_SCORER_STOP_WORDS"); v != "" {
		cfg.Scorer.StopWords = strings.Split(v, ",")
	}
	if v := os.Getenv("SD_SCORER_MAX_SCORE"); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			cfg.Scorer.MaxScore = m
		}
	}
	if v := os.Getenv("SD_HOST_CONTROL_URL"); v != "" {
		cfg.Host.ControlURL = v
	}
	if v := os.Getenv("SD_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SD_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SD_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SD_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SD_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SD_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SD_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SD_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SD_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SD_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("SD_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
	envDuration("SD_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SD_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SD_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envDuration("SD_HOST_TIMEOUT", &cfg.Host.Timeout)
	envDuration("SD_REDIS_CACHE_TTL", &cfg.Redis.CacheTTL)
	envDuration("SD_POSTGRES_CONN_MAX_LIFETIME", &cfg.Postgres.ConnMaxLifetime)
	envDuration("SD_POSTGRES_SNAPSHOT_EVERY", &cfg.Postgres.SnapshotEvery)
}

// envDuration overrides dst when the variable holds a valid duration
// string such as "30s" or "2m".
func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
