package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds engine constants and backend settings. Values come from an
// optional YAML file with environment overrides for the deploy-specific
// backends.
type Config struct {
	Listen string `yaml:"listen"`

	DatabaseURL string `yaml:"databaseUrl"`
	RedisURL    string `yaml:"redisUrl"`
	SnapshotDir string `yaml:"snapshotDir"`

	Engine EngineConfig `yaml:"engine"`
	Cache  CacheConfig  `yaml:"cache"`
}

// EngineConfig carries the optimizer constants. Defaults match the recorded
// behavior of the production model.
type EngineConfig struct {
	// Epsilon is the Laplace smoothing constant for transition
	// probabilities.
	Epsilon float64 `yaml:"epsilon"`
	// Gamma is the per-step discount factor on future earnings.
	Gamma float64 `yaml:"gamma"`
	// LambdaFloor is the minimum outgoing demand rate (trips/hour) used
	// when deriving wait time, so sparse hours never divide by zero.
	LambdaFloor float64 `yaml:"lambdaFloor"`
	// TickMinutes is the DP time granularity.
	TickMinutes int `yaml:"tickMinutes"`
	// BulkTimeout bounds the bulk scoring sweeps; remaining solves are
	// skipped and partial results returned.
	BulkTimeout Duration `yaml:"bulkTimeout"`
}

// CacheConfig controls the shared result-cache tier.
type CacheConfig struct {
	TTL Duration `yaml:"ttl"`
}

// Duration unmarshals YAML strings like "30m" or "1h30m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:      ":8080",
		SnapshotDir: "data/cache",
		Engine: EngineConfig{
			Epsilon:     0.1,
			Gamma:       0.95,
			LambdaFloor: 0.5,
			TickMinutes: 5,
			BulkTimeout: Duration(30 * time.Second),
		},
		Cache: CacheConfig{TTL: Duration(time.Hour)},
	}
}

// Load reads the YAML file at path (if non-empty and present), then applies
// environment overrides. Missing file with an explicit path is an error;
// an empty path just means defaults+env.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Listen = ":" + v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("SNAPSHOT_DIR"); v != "" {
		c.SnapshotDir = v
	}
}

func (c *Config) validate() error {
	if c.Engine.Epsilon <= 0 {
		return fmt.Errorf("engine.epsilon must be > 0, got %v", c.Engine.Epsilon)
	}
	if c.Engine.Gamma <= 0 || c.Engine.Gamma > 1 {
		return fmt.Errorf("engine.gamma must be in (0,1], got %v", c.Engine.Gamma)
	}
	if c.Engine.LambdaFloor <= 0 {
		return fmt.Errorf("engine.lambdaFloor must be > 0, got %v", c.Engine.LambdaFloor)
	}
	if c.Engine.TickMinutes <= 0 {
		return fmt.Errorf("engine.tickMinutes must be > 0, got %d", c.Engine.TickMinutes)
	}
	return nil
}
