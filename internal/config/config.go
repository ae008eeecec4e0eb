package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vango-dev/canopy/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "canopy.json"

	// DefaultWidth and DefaultHeight size the layout viewport.
	DefaultWidth  = 800
	DefaultHeight = 600

	// DefaultInspectorAddr is where the inspector listens.
	DefaultInspectorAddr = "localhost:7070"

	// DefaultInspectorQueue is how many frames may wait for a slow client.
	DefaultInspectorQueue = 64

	// DefaultSnapshotDir is the snapshot directory of the disk store.
	DefaultSnapshotDir = "snapshots"

	// DefaultSnapshotPrefix is the key prefix of the S3 store.
	DefaultSnapshotPrefix = "snapshots/"

	// DefaultNamespace is the Prometheus metrics namespace.
	DefaultNamespace = "canopy"

	// DefaultCounters is how many counters the demo app mounts.
	DefaultCounters = 3
)

// Config represents the complete canopy.json configuration.
type Config struct {
	// Viewport is the size the root widget is laid out in.
	Viewport ViewportConfig `json:"viewport"`

	// Inspector configures the HTTP inspector.
	Inspector InspectorConfig `json:"inspector"`

	// Snapshot configures where snapshots are stored.
	Snapshot SnapshotConfig `json:"snapshot"`

	// Log configures the slog handler.
	Log LogConfig `json:"log"`

	// Metrics configures the Prometheus metrics.
	Metrics MetricsConfig `json:"metrics"`

	// Demo configures the demo app.
	Demo DemoConfig `json:"demo"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ViewportConfig is the layout viewport in logical pixels.
type ViewportConfig struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// InspectorConfig contains inspector server settings.
type InspectorConfig struct {
	// Enabled starts the inspector with the host.
	Enabled bool `json:"enabled,omitempty"`

	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`

	// QueueSize is how many frames may wait for a slow client.
	QueueSize int `json:"queueSize,omitempty"`
}

// SnapshotConfig selects the snapshot store. A non-empty Bucket selects S3,
// otherwise snapshots go to Dir.
type SnapshotConfig struct {
	Dir      string `json:"dir,omitempty"`
	Bucket   string `json:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Region   string `json:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty"`
}

// DemoConfig contains demo app settings.
type DemoConfig struct {
	Counters int `json:"counters,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Viewport: ViewportConfig{
			Width:  DefaultWidth,
			Height: DefaultHeight,
		},
		Inspector: InspectorConfig{
			Addr:      DefaultInspectorAddr,
			QueueSize: DefaultInspectorQueue,
		},
		Snapshot: SnapshotConfig{
			Dir:    DefaultSnapshotDir,
			Prefix: DefaultSnapshotPrefix,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Demo: DemoConfig{
			Counters: DefaultCounters,
		},
	}
}

// Default is New.
func Default() *Config {
	return New()
}

// Load reads configuration from the specified directory.
// It looks for canopy.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E202").
				WithDetail("No canopy.json found in " + filepath.Dir(path)).
				WithSuggestion("Create canopy.json or run without --config to use the defaults")
		}
		return nil, errors.New("E202").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E203").
			WithDetail("Failed to parse canopy.json: " + err.Error()).
			WithSuggestion("Check that canopy.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E202").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E202").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Viewport.Width == 0 {
		c.Viewport.Width = DefaultWidth
	}
	if c.Viewport.Height == 0 {
		c.Viewport.Height = DefaultHeight
	}
	if c.Inspector.Addr == "" {
		c.Inspector.Addr = DefaultInspectorAddr
	}
	if c.Inspector.QueueSize == 0 {
		c.Inspector.QueueSize = DefaultInspectorQueue
	}
	if c.Snapshot.Dir == "" {
		c.Snapshot.Dir = DefaultSnapshotDir
	}
	if c.Snapshot.Prefix == "" {
		c.Snapshot.Prefix = DefaultSnapshotPrefix
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Demo.Counters == 0 {
		c.Demo.Counters = DefaultCounters
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return errors.New("E201").
			WithDetailf("viewport must be positive, got %gx%g", c.Viewport.Width, c.Viewport.Height)
	}
	if c.Inspector.Enabled && c.Inspector.Addr == "" {
		return errors.New("E201").
			WithDetail("inspector.addr is required when the inspector is enabled")
	}
	if c.Inspector.QueueSize < 0 {
		return errors.New("E201").
			WithDetailf("inspector.queueSize must not be negative, got %d", c.Inspector.QueueSize)
	}
	if c.Snapshot.Bucket != "" && c.Snapshot.Region == "" {
		return errors.New("E201").
			WithDetail("snapshot.region is required with snapshot.bucket")
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("E201").
			WithDetailf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return errors.New("E201").
			WithDetailf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Demo.Counters < 0 {
		return errors.New("E201").
			WithDetailf("demo.counters must not be negative, got %d", c.Demo.Counters)
	}
	return nil
}

// UseS3 reports whether snapshots go to S3.
func (c *Config) UseS3() bool {
	return c.Snapshot.Bucket != ""
}

// SnapshotPath returns the absolute path to the snapshot directory.
func (c *Config) SnapshotPath() string {
	if filepath.IsAbs(c.Snapshot.Dir) {
		return c.Snapshot.Dir
	}
	return filepath.Join(c.Dir(), c.Snapshot.Dir)
}

// Logger builds a slog logger writing to w with the configured level and
// format. An invalid level logs at Info.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, bool) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, false
	}
	return level, true
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing canopy.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E202").
				WithDetail("No canopy.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or its closest parent holding canopy.json. Without one it returns the
// defaults.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return New(), nil
	}

	return Load(root)
}
