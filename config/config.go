package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Index    IndexConfig    `yaml:"index"`
	Loader   LoaderConfig   `yaml:"loader"`
	Ranking  RankingConfig  `yaml:"ranking"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "postgres" or "sqlite"
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	ApplyPostgresDDL       bool   `yaml:"apply_postgres_ddl"`
}

// IndexConfig holds the attribute index artifact and rebuild settings.
type IndexConfig struct {
	ArtifactPath           string        `yaml:"artifact_path"`
	RebuildIntervalSeconds int           `yaml:"rebuild_interval_seconds"`
	RebuildInterval        time.Duration `yaml:"-"`
}

// LoaderConfig holds the scraped-JSON ingest settings.
type LoaderConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
	BuildingsFile   string        `yaml:"buildings_file"`
	RoomsDir        string        `yaml:"rooms_dir"`
	AvailabilityDir string        `yaml:"availability_dir"`
}

// RankingConfig selects the personalization strategy and its knobs.
type RankingConfig struct {
	Strategy          string  `yaml:"strategy"` // "heuristic" or "probability"
	SmoothingAlpha    float64 `yaml:"smoothing_alpha"`
	ProbabilityWeight float64 `yaml:"probability_weight"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	switch cfg.Database.Driver {
	case "", "postgres":
		cfg.Database.Driver = "postgres"
	case "sqlite":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if cfg.Index.ArtifactPath == "" {
		cfg.Index.ArtifactPath = "./data/filters_index.json"
	}
	if cfg.Index.RebuildIntervalSeconds <= 0 {
		cfg.Index.RebuildIntervalSeconds = 3600
	}
	cfg.Index.RebuildInterval = time.Duration(cfg.Index.RebuildIntervalSeconds) * time.Second

	if cfg.Loader.IntervalSeconds <= 0 {
		cfg.Loader.IntervalSeconds = 900
	}
	cfg.Loader.Interval = time.Duration(cfg.Loader.IntervalSeconds) * time.Second

	switch cfg.Ranking.Strategy {
	case "":
		cfg.Ranking.Strategy = "heuristic"
	case "heuristic", "probability":
	default:
		return nil, fmt.Errorf("unsupported ranking strategy %q", cfg.Ranking.Strategy)
	}
	if cfg.Ranking.SmoothingAlpha <= 0 {
		cfg.Ranking.SmoothingAlpha = 1.0
	}
	if cfg.Ranking.ProbabilityWeight <= 0 {
		cfg.Ranking.ProbabilityWeight = 10.0
	}

	return &cfg, nil
}
