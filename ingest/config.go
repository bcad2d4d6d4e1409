package ingest

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultQueries are the topic searches fanned out on every cycle.
var defaultQueries = []string{
	"Ethiopian music",
	"Ethiopia new music",
	"Eritrean music",
	"Amharic music",
	"Oromo music",
	"Tigrigna music",
}

// Config configures the ingestion pipeline.
type Config struct {
	// Queries are the search topics fanned out on every cycle.
	Queries []string `yaml:"queries"`

	// CategoryID restricts search results to one video category.
	// Default: "10" (Music).
	CategoryID string `yaml:"category_id"`

	// Region biases search results toward a region code. Default: "ET".
	Region string `yaml:"region"`

	// MaxResultsPerQuery caps candidates per search call. Default: 25.
	MaxResultsPerQuery int `yaml:"max_results_per_query"`

	// PublishedWithin bounds how old a candidate may be at search time.
	// Default: 7 days.
	PublishedWithin time.Duration `yaml:"published_within"`

	// BatchSize is how many video IDs go into one statistics request.
	// Default and maximum: 50.
	BatchSize int `yaml:"batch_size"`

	// SyncHour is the hour of day (1-23) the daily cycle runs at.
	// Default: 2. Hour 0 is indistinguishable from an unset field and is
	// reserved; it falls back to the default.
	SyncHour int `yaml:"sync_hour"`

	// PreservePublishedAt keeps the publish timestamp already stored for a
	// video instead of overwriting it with the latest API value. The API
	// value normally never changes, so the default is to take it as-is.
	PreservePublishedAt bool `yaml:"preserve_published_at"`
}

func (c *Config) defaults() {
	if len(c.Queries) == 0 {
		c.Queries = append([]string(nil), defaultQueries...)
	}
	if c.CategoryID == "" {
		c.CategoryID = "10"
	}
	if c.Region == "" {
		c.Region = "ET"
	}
	if c.MaxResultsPerQuery <= 0 {
		c.MaxResultsPerQuery = 25
	}
	if c.PublishedWithin <= 0 {
		c.PublishedWithin = 7 * 24 * time.Hour
	}
	if c.BatchSize <= 0 || c.BatchSize > 50 {
		c.BatchSize = 50
	}
	if c.SyncHour <= 0 || c.SyncHour > 23 {
		c.SyncHour = 2
	}
}

// LoadConfig reads a YAML config file and applies defaults for anything
// left unset. An empty path yields the default config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("ingest: read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("ingest: parse config: %w", err)
		}
	}
	cfg.defaults()
	return cfg, nil
}
