package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is tried when neither --config nor STATUSDASH_CONFIG is set.
	DefaultPath = "data/config"
	// EnvPath names the environment variable carrying the config path.
	EnvPath = "STATUSDASH_CONFIG"
	// EnvURL overrides source.url.
	EnvURL = "STATUSDASH_URL"
)

// Config represents the complete dashboard configuration
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	UI      UIConfig      `yaml:"ui"`
	Trend   TrendConfig   `yaml:"trend"`
	Logging LoggingConfig `yaml:"logging"`
	Journal JournalConfig `yaml:"journal"`

	// LoadedFrom records the file or directory the config came from; empty
	// when only defaults are in effect.
	LoadedFrom string `yaml:"-"`
}

// SourceConfig describes the status endpoint.
type SourceConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
	// Poll is a cron spec ("@every 30s"); empty disables background refetches.
	Poll string `yaml:"poll"`
}

// Timeout returns the request timeout as a duration.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// UIConfig controls the console surface.
type UIConfig struct {
	// Mode is tview, plain or headless.
	Mode           string `yaml:"mode"`
	TargetFPS      int    `yaml:"target_fps"`
	SparklineWidth int    `yaml:"sparkline_width"`
	EnableMouse    bool   `yaml:"enable_mouse"`
	Color          bool   `yaml:"color"`
}

// TrendConfig controls the trend window.
type TrendConfig struct {
	// Mode is "after" or "first50".
	Mode          string `yaml:"mode"`
	DefaultOffset int    `yaml:"default_offset"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// JournalConfig enables the fetch journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			URL:            "http://localhost:8080/status",
			TimeoutSeconds: 10,
			UserAgent:      "statusdash",
			Poll:           "@every 30s",
		},
		UI: UIConfig{
			Mode:           "tview",
			TargetFPS:      30,
			SparklineWidth: 24,
			EnableMouse:    true,
			Color:          true,
		},
		Trend: TrendConfig{
			Mode: "after",
		},
		Logging: LoggingConfig{
			Enabled:       false,
			Dir:           "data/logs",
			RetentionDays: 7,
		},
		Journal: JournalConfig{
			Enabled: false,
			Path:    "data/journal/statusdash.db",
		},
	}
}

// Load loads configuration from a YAML file or from every *.yaml/*.yml file
// in a directory, merged in name order. Keys absent from the files keep
// their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	files := []string{path}
	if info.IsDir() {
		files, err = yamlFiles(path)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no YAML files found in %s", path)
		}
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", filepath.Base(file), err)
		}
	}
	cfg.LoadedFrom = path
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve picks the config location: the explicit path, then
// STATUSDASH_CONFIG, then DefaultPath. A missing default path is not an
// error; defaults are returned instead. STATUSDASH_URL is applied last.
func Resolve(explicit string) (*Config, error) {
	path := strings.TrimSpace(explicit)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvPath))
	}
	var (
		cfg *Config
		err error
	)
	switch {
	case path != "":
		cfg, err = Load(path)
	default:
		cfg, err = Load(DefaultPath)
		if errors.Is(err, os.ErrNotExist) {
			cfg, err = Default(), nil
			cfg.normalize()
		}
	}
	if err != nil {
		return nil, err
	}
	if url := strings.TrimSpace(os.Getenv(EnvURL)); url != "" {
		cfg.Source.URL = url
	}
	return cfg, nil
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (c *Config) normalize() {
	c.Source.URL = strings.TrimSpace(c.Source.URL)
	c.Source.Poll = strings.TrimSpace(c.Source.Poll)
	if c.Source.TimeoutSeconds <= 0 {
		c.Source.TimeoutSeconds = 10
	}
	c.UI.Mode = strings.ToLower(strings.TrimSpace(c.UI.Mode))
	if c.UI.Mode == "" {
		c.UI.Mode = "tview"
	}
	if c.UI.TargetFPS <= 0 {
		c.UI.TargetFPS = 30
	}
	if c.UI.SparklineWidth <= 0 {
		c.UI.SparklineWidth = 24
	}
	c.Trend.Mode = strings.ToLower(strings.TrimSpace(c.Trend.Mode))
	if c.Trend.Mode == "" {
		c.Trend.Mode = "after"
	}
	if c.Trend.DefaultOffset < 0 {
		c.Trend.DefaultOffset = 0
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = 7
	}
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.UI.Mode {
	case "tview", "plain", "headless":
	default:
		return fmt.Errorf("invalid ui.mode %q (want tview, plain or headless)", c.UI.Mode)
	}
	switch c.Trend.Mode {
	case "after", "first50":
	default:
		return fmt.Errorf("invalid trend.mode %q (want after or first50)", c.Trend.Mode)
	}
	if c.Source.Poll != "" {
		if _, err := parser.Parse(c.Source.Poll); err != nil {
			return fmt.Errorf("invalid source.poll %q: %w", c.Source.Poll, err)
		}
	}
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) == "" {
		return errors.New("journal.enabled requires journal.path")
	}
	if c.Logging.Enabled && strings.TrimSpace(c.Logging.Dir) == "" {
		return errors.New("logging.enabled requires logging.dir")
	}
	return nil
}

// Print writes a summary of the resolved configuration to w.
func (c *Config) Print(w io.Writer) {
	from := c.LoadedFrom
	if from == "" {
		from = "(defaults)"
	}
	fmt.Fprintf(w, "Config: %s\n", from)
	fmt.Fprintf(w, "Source: %s (timeout %ds)\n", c.Source.URL, c.Source.TimeoutSeconds)
	if c.Source.Poll != "" {
		fmt.Fprintf(w, "Poll: %s\n", c.Source.Poll)
	}
	fmt.Fprintf(w, "UI: %s (fps=%d sparkline=%d)\n", c.UI.Mode, c.UI.TargetFPS, c.UI.SparklineWidth)
	fmt.Fprintf(w, "Trend: %s offset=%d\n", c.Trend.Mode, c.Trend.DefaultOffset)
	if c.Logging.Enabled {
		fmt.Fprintf(w, "Logging: %s (retention %dd)\n", c.Logging.Dir, c.Logging.RetentionDays)
	}
	if c.Journal.Enabled {
		fmt.Fprintf(w, "Journal: %s\n", c.Journal.Path)
	}
}
