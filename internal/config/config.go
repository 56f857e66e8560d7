package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Events   EventsConfig   `yaml:"events"`
	Grading  GradingConfig  `yaml:"grading"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int `yaml:"port"`
	MetricsPort int `yaml:"metrics_port"`
	// RateLimit is requests per minute per client; 0 disables limiting.
	RateLimit int `yaml:"rate_limit"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

// GradingConfig carries the grading-scale parameters. Band boundaries and the
// neutral midpoint are calibration data, versioned so results can be compared
// across deployments.
type GradingConfig struct {
	Version string `yaml:"version"`
	// NeutralMidpoint is the scaled value assigned when a bound pair has no
	// variance (min == max).
	NeutralMidpoint float64 `yaml:"neutral_midpoint"`
	// Bands maps a grade letter to the upper scaled-value cutoff (exclusive).
	// The last band must reach 1.0.
	Bands []GradeBand `yaml:"bands"`
}

type GradeBand struct {
	Grade  string  `yaml:"grade"`
	Cutoff float64 `yaml:"cutoff"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaultGrading() GradingConfig {
	return GradingConfig{
		Version:         "agb-2024.1",
		NeutralMidpoint: 0.5,
		Bands: []GradeBand{
			{Grade: "A", Cutoff: 0.1},
			{Grade: "B", Cutoff: 0.3},
			{Grade: "C", Cutoff: 0.5},
			{Grade: "D", Cutoff: 0.7},
			{Grade: "E", Cutoff: 1.0},
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
			RateLimit:   120,
		},
		Events: EventsConfig{
			URL: "nats://localhost:4222",
		},
		Grading: defaultGrading(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Grading.Validate(); err != nil {
		return nil, fmt.Errorf("grading config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the bands ascend and cover the scale, and that the
// neutral midpoint falls inside it.
func (g GradingConfig) Validate() error {
	if len(g.Bands) == 0 {
		return fmt.Errorf("at least one grade band required")
	}
	if !sort.SliceIsSorted(g.Bands, func(i, j int) bool {
		return g.Bands[i].Cutoff < g.Bands[j].Cutoff
	}) {
		return fmt.Errorf("band cutoffs must be ascending")
	}
	last := g.Bands[len(g.Bands)-1]
	if last.Cutoff < 1.0 {
		return fmt.Errorf("last band %q cutoff %.2f does not reach 1.0", last.Grade, last.Cutoff)
	}
	if g.NeutralMidpoint < 0 || g.NeutralMidpoint > 1 {
		return fmt.Errorf("neutral midpoint %.2f outside [0, 1]", g.NeutralMidpoint)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PLATESCORE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("PLATESCORE_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("PLATESCORE_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimit = n
		}
	}
	if v := os.Getenv("PLATESCORE_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("PLATESCORE_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("PLATESCORE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
