package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Scorer.DistanceThreshold != 1 || cfg.Scorer.MaxScore != 1 {
		t.Errorf("scorer defaults = %+v", cfg.Scorer)
	}
	if len(cfg.Interventions) != 3 {
		t.Fatalf("default interventions = %d, want 3", len(cfg.Interventions))
	}
	if cfg.Interventions[0].ID != "clear-data" {
		t.Errorf("first intervention = %s, want clear-data", cfg.Interventions[0].ID)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SD_SERVER_PORT", "9999")
	t.Setenv("SD_SCORER_DISTANCE_THRESHOLD", "2")
	t.Setenv("SD_SCORER_STOP_WORDS", "foo,bar")
	t.Setenv("SD_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Scorer.DistanceThreshold != 2 {
		t.Errorf("DistanceThreshold = %d, want 2", cfg.Scorer.DistanceThreshold)
	}
	if len(cfg.Scorer.StopWords) != 2 || cfg.Scorer.StopWords[0] != "foo" {
		t.Errorf("StopWords = %v, want [foo bar]", cfg.Scorer.StopWords)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Brokers = %v", cfg.Kafka.Brokers)
	}
}

// Duration fields are not representable in the YAML file; the env override
// is their only external configuration path.
func TestLoadDurationEnvOverrides(t *testing.T) {
	t.Setenv("SD_SERVER_WRITE_TIMEOUT", "3s")
	t.Setenv("SD_HOST_TIMEOUT", "500ms")
	t.Setenv("SD_REDIS_CACHE_TTL", "2m")
	t.Setenv("SD_POSTGRES_SNAPSHOT_EVERY", "30s")
	t.Setenv("SD_POSTGRES_CONN_MAX_LIFETIME", "bogus")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.WriteTimeout != 3*time.Second {
		t.Errorf("WriteTimeout = %v, want 3s", cfg.Server.WriteTimeout)
	}
	if cfg.Host.Timeout != 500*time.Millisecond {
		t.Errorf("Host.Timeout = %v, want 500ms", cfg.Host.Timeout)
	}
	if cfg.Redis.CacheTTL != 2*time.Minute {
		t.Errorf("CacheTTL = %v, want 2m", cfg.Redis.CacheTTL)
	}
	if cfg.Postgres.SnapshotEvery != 30*time.Second {
		t.Errorf("SnapshotEvery = %v, want 30s", cfg.Postgres.SnapshotEvery)
	}
	// Unparseable values keep the default.
	if cfg.Postgres.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want default 5m", cfg.Postgres.ConnMaxLifetime)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 7070
scorer:
  distanceThreshold: 2
  maxScore: 3
interventions:
  - id: custom
    keywords: [alpha, beta]
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Scorer.MaxScore != 3 {
		t.Errorf("MaxScore = %d, want 3", cfg.Scorer.MaxScore)
	}
	if len(cfg.Interventions) != 1 || cfg.Interventions[0].ID != "custom" {
		t.Errorf("Interventions = %+v, want the configured corpus", cfg.Interventions)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %s, want default", cfg.Redis.Addr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
