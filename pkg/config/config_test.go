package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
environment: test
debug: false
server:
  port: 5000
  read_timeout: 30s
  write_timeout: 120s
  shutdown_timeout: 10s
quantum:
  enabled: true
  timeout: 10s
model:
  sequence_length: 24
  features: [price, volume, volatility, demand]
  hidden_size: 64
  num_layers: 2
  dropout: 0.2
  learning_rate: 0.001
  train_epochs: 50
  benchmark_epochs: 20
  seed: 42
history:
  max_observations: 10000
cache:
  enabled: true
  ttl: 5m
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Fatalf("port %d", cfg.Server.Port)
	}
	if cfg.Model.SequenceLength != 24 {
		t.Fatalf("sequence_length %d", cfg.Model.SequenceLength)
	}
	if len(cfg.Model.Features) != 4 || cfg.Model.Features[0] != "price" {
		t.Fatalf("features %v", cfg.Model.Features)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Fatalf("cache ttl %v", cfg.Cache.TTL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected port validation error")
	}
}

func TestValidateRejectsEmptyFeatures(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.Model.Features = nil
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected features validation error")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("IBMQ_TOKEN", "tok-123")
	t.Setenv("PORT", "8080")
	t.Setenv("DEBUG", "true")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quantum.Token != "tok-123" {
		t.Fatalf("token %q", cfg.Quantum.Token)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("port %d", cfg.Server.Port)
	}
	if !cfg.Debug {
		t.Fatalf("debug not overridden")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Fatalf("brokers %v", cfg.Kafka.Brokers)
	}
}

func TestLoadWithEnvBadPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	if _, err := LoadWithEnv(writeConfig(t, validYAML)); err == nil {
		t.Fatalf("expected PORT parse error")
	}
}
