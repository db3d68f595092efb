package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Debug       bool   `yaml:"debug"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Quantum struct {
		Enabled bool          `yaml:"enabled"`
		Token   string        `yaml:"token"`
		APIURL  string        `yaml:"api_url"`
		Device  string        `yaml:"device"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"quantum"`
	Model struct {
		SequenceLength  int      `yaml:"sequence_length"`
		Features        []string `yaml:"features"`
		HiddenSize      int      `yaml:"hidden_size"`
		NumLayers       int      `yaml:"num_layers"`
		Dropout         float64  `yaml:"dropout"`
		LearningRate    float64  `yaml:"learning_rate"`
		TrainEpochs     int      `yaml:"train_epochs"`
		BenchmarkEpochs int      `yaml:"benchmark_epochs"`
		Seed            int64    `yaml:"seed"`
	} `yaml:"model"`
	History struct {
		MaxObservations int `yaml:"max_observations"`
	} `yaml:"history"`
	Cache struct {
		Enabled bool          `yaml:"enabled"`
		TTL     time.Duration `yaml:"ttl"`
		Redis   struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled  bool     `yaml:"enabled"`
		Brokers  []string `yaml:"brokers"`
		Topic    string   `yaml:"topic"`
		GroupID  string   `yaml:"group_id"`
		MinBytes int      `yaml:"min_bytes"`
		MaxBytes int      `yaml:"max_bytes"`
	} `yaml:"kafka"`
	Audit struct {
		Enabled    bool `yaml:"enabled"`
		ClickHouse struct {
			Host        string        `yaml:"host"`
			Port        int           `yaml:"port"`
			Database    string        `yaml:"database"`
			User        string        `yaml:"user"`
			Password    string        `yaml:"password"`
			DialTimeout time.Duration `yaml:"dial_timeout"`
		} `yaml:"clickhouse"`
	} `yaml:"audit"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("IBMQ_TOKEN"); v != "" {
		c.Quantum.Token = v
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v := os.Getenv("DEBUG"); v != "" {
		c.Debug = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	if c.Model.SequenceLength <= 0 {
		return fmt.Errorf("model.sequence_length must be positive")
	}
	if len(c.Model.Features) == 0 {
		return fmt.Errorf("model.features cannot be empty")
	}
	if c.Model.HiddenSize <= 0 {
		return fmt.Errorf("model.hidden_size must be positive")
	}
	if c.Model.NumLayers <= 0 {
		return fmt.Errorf("model.num_layers must be positive")
	}
	if c.Model.Dropout < 0 || c.Model.Dropout >= 1 {
		return fmt.Errorf("model.dropout must be in [0, 1)")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Audit.Enabled && c.Audit.ClickHouse.Host == "" {
		return fmt.Errorf("audit.clickhouse.host is required when audit is enabled")
	}
	return nil
}

// LogLevel derives the logger level from the debug flag. Debug affects
// verbosity only, never numerical results.
func (c *Config) LogLevel() string {
	if c.Debug {
		return "debug"
	}
	return "info"
}
