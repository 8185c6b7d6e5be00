package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Region struct {
	Name  string  `yaml:"name"`
	Query string  `yaml:"query"` // overrides search.query when set
	Lat   float64 `yaml:"lat"`
	Lng   float64 `yaml:"lng"`
}

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Source struct {
		// "browser" drives a headless Chrome session against the maps UI;
		// "places" uses the Places text-search HTTP API.
		Kind string `yaml:"kind"`

		Browser struct {
			Headless          bool `yaml:"headless"`
			NavTimeoutSeconds int  `yaml:"nav_timeout_seconds"`
			ScrollSettleMs    int  `yaml:"scroll_settle_ms"`
			ScrollTimeoutSecs int  `yaml:"scroll_timeout_seconds"`
		} `yaml:"browser"`

		Places struct {
			MaxPages          int `yaml:"max_pages"`
			TokenDelaySeconds int `yaml:"token_delay_seconds"`
		} `yaml:"places"`
	} `yaml:"source"`

	Search struct {
		Query          string   `yaml:"query"`
		Regions        []Region `yaml:"regions"`
		MaxResults     int      `yaml:"max_results"`     // global result cap
		PerRegionMax   int      `yaml:"per_region_max"`  // listings pulled per region
		RegionAttempts int      `yaml:"region_attempts"` // tries before skipping a region
		SkipKnown      bool     `yaml:"skip_known"`      // skip places already in the lead store
	} `yaml:"search"`

	Enrich struct {
		EmailEnabled       bool     `yaml:"email_enabled"`
		PageTimeoutSeconds int      `yaml:"page_timeout_seconds"`
		ProbePaths         []string `yaml:"probe_paths"`
		ListingDelayMs     int      `yaml:"listing_delay_ms"`
	} `yaml:"enrich"`

	Concurrency struct {
		Regions  int `yaml:"regions"`
		Listings int `yaml:"listings"`
	} `yaml:"concurrency"`

	Rate struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate"`

	Output struct {
		CSV    string `yaml:"csv"`
		JSON   string `yaml:"json"`
		Report string `yaml:"report"`
		Store  string `yaml:"store"` // sqlite lead mirror, relative to data_dir
	} `yaml:"output"`
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

func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Source.Browser.NavTimeoutSeconds) * time.Second
}

func (c Config) ScrollSettle() time.Duration {
	return time.Duration(c.Source.Browser.ScrollSettleMs) * time.Millisecond
}

func (c Config) ScrollTimeout() time.Duration {
	return time.Duration(c.Source.Browser.ScrollTimeoutSecs) * time.Second
}

func (c Config) PageTimeout() time.Duration {
	return time.Duration(c.Enrich.PageTimeoutSeconds) * time.Second
}

func (c Config) ListingDelay() time.Duration {
	return time.Duration(c.Enrich.ListingDelayMs) * time.Millisecond
}

func (c Config) TokenDelay() time.Duration {
	return time.Duration(c.Source.Places.TokenDelaySeconds) * time.Second
}
