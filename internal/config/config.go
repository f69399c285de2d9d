package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"gramlens/internal/category"
)

// Config is the application's configuration model. Every threshold the
// pipeline uses lives here and is threaded through component calls;
// components never read ambient globals.
type Config struct {
	Account     AccountConfig     `yaml:"account"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Lexicon     []LexiconEntry    `yaml:"lexicon"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Storage     StorageConfig     `yaml:"storage"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type AccountConfig struct {
	// The account whose engagement is analyzed.
	Username string `yaml:"username"`
}

type CredentialsConfig struct {
	// Instagram API session token. If empty, read from env IG_SESSION_TOKEN.
	SessionToken string `yaml:"sessionToken"`
}

type AnalysisConfig struct {
	// BFS bounds over the follow graph.
	MaxDepth         int `yaml:"maxDepth"`
	MaxUsersPerLevel int `yaml:"maxUsersPerLevel"`
	// Posts below MinLikes are dropped before metric computation.
	MinLikes        int `yaml:"minLikes"`
	MaxPostsPerUser int `yaml:"maxPostsPerUser"`
	// Signals backed by fewer posts than MinSample are omitted from
	// recommendations rather than reported with low confidence.
	MinSample int `yaml:"minSample"`
	// Hashtag stats kept in a report.
	TopHashtags int `yaml:"topHashtags"`
	// Wall-clock budget in seconds for one traversal; on expiry the
	// partial result is kept.
	TraversalTimeoutSec int `yaml:"traversalTimeoutSec"`
}

// TraversalTimeout returns the traversal budget as a duration.
func (a AnalysisConfig) TraversalTimeout() time.Duration {
	if a.TraversalTimeoutSec <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(a.TraversalTimeoutSec) * time.Second
}

// LexiconEntry is one ordered category definition. YAML sequence order
// is the tie-break order used by the categorizer.
type LexiconEntry struct {
	Name     string   `yaml:"name"`
	Triggers []string `yaml:"triggers"`
}

type ScheduleConfig struct {
	// Hours (UTC) never suggested as posting windows.
	QuietHours []int `yaml:"quietHours"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a sensible default configuration.
func Default() Config {
	lex := make([]LexiconEntry, 0)
	for _, e := range category.Default() {
		lex = append(lex, LexiconEntry{Name: e.Name, Triggers: e.Triggers})
	}
	return Config{
		Account:     AccountConfig{Username: ""},
		Credentials: CredentialsConfig{SessionToken: ""},
		Analysis: AnalysisConfig{
			MaxDepth:         2,
			MaxUsersPerLevel: 50,
			MinLikes:         10000,
			MaxPostsPerUser:  10,
			MinSample:           3,
			TopHashtags:         20,
			TraversalTimeoutSec: 300,
		},
		Lexicon:  lex,
		Schedule: ScheduleConfig{QuietHours: []int{0, 1, 2, 3, 4, 5}},
		Storage:  StorageConfig{DBPath: "./gramlens.db"},
		Metrics:  MetricsConfig{Addr: ""},
	}
}

// BuildLexicon converts the configured entries into a categorizer
// lexicon, preserving declaration order. Falls back to the built-in
// lexicon when the config carries none.
func (c Config) BuildLexicon() *category.Lexicon {
	if len(c.Lexicon) == 0 {
		return category.NewLexicon(category.Default())
	}
	entries := make([]category.Entry, 0, len(c.Lexicon))
	for _, e := range c.Lexicon {
		entries = append(entries, category.Entry{Name: e.Name, Triggers: e.Triggers})
	}
	return category.NewLexicon(entries)
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Credentials.SessionToken == "" {
		c.Credentials.SessionToken = os.Getenv("IG_SESSION_TOKEN")
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = os.Getenv("METRICS_ADDR")
	}
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
