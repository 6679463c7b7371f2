package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Provider struct {
	Name        string  `yaml:"name"`
	Enabled     bool    `yaml:"enabled"`
	BaseURL     string  `yaml:"base_url"`
	Rank        int     `yaml:"rank"`          // lower tries first
	QuotaPerDay int     `yaml:"quota_per_day"` // calls per rolling 24h period
	CostPerCall float64 `yaml:"cost_per_call"` // USD, for savings estimation
}

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Sources struct {
		PreferAPIs bool       `yaml:"prefer_apis"`
		Providers  []Provider `yaml:"providers"`
		Scrape     struct {
			RequestsPerSec float64 `yaml:"requests_per_sec"`
			Burst          int     `yaml:"burst"`
			FanOut         int     `yaml:"fan_out"`
		} `yaml:"scrape"`
	} `yaml:"sources"`

	Email struct {
		Concurrency int  `yaml:"concurrency"`
		LookupAPI   bool `yaml:"lookup_api"` // allow paid contact lookup fallback
	} `yaml:"email"`

	Cache struct {
		TTLHours           int      `yaml:"ttl_hours"`
		PopularMinRepeats  int      `yaml:"popular_min_repeats"`
		WarmQueries        []string `yaml:"warm_queries"` // "query|location"
		MaintenanceMinutes int      `yaml:"maintenance_minutes"`
	} `yaml:"cache"`

	Stream struct {
		PollIntervalMS int `yaml:"poll_interval_ms"`
	} `yaml:"stream"`

	Worker struct {
		MaxAttempts   int `yaml:"max_attempts"`
		BackoffBaseMS int `yaml:"backoff_base_ms"`
	} `yaml:"worker"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
