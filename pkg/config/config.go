package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/protodoc/pkg/cache"
	"github.com/platinummonkey/protodoc/pkg/observability"
	"github.com/platinummonkey/protodoc/pkg/resolver"
	"github.com/platinummonkey/protodoc/pkg/server"
	"github.com/platinummonkey/protodoc/pkg/watcher"
)

// Config holds all protodoc configuration
type Config struct {
	// ProtoPaths are directories (walked recursively) or .proto files
	ProtoPaths []string `yaml:"proto_paths"`

	// SiteConfig is the mkdocs.yml whose nav is updated
	SiteConfig string `yaml:"site_config"`

	// DocsDir overrides the site config's docs_dir
	DocsDir string `yaml:"docs_dir"`

	// OutputDir receives the generated pages; relative paths are resolved
	// against the docs directory
	OutputDir string `yaml:"output_dir"`

	DocExtension string `yaml:"doc_extension"`
	CacheFile    string `yaml:"cache_file"`
	Workers      int    `yaml:"workers"`

	Log   LogConfig   `yaml:"log"`
	Memo  MemoConfig  `yaml:"memo"`
	Watch WatchConfig `yaml:"watch"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MemoConfig sizes the in-memory extraction memo
type MemoConfig struct {
	MaxEntries int           `yaml:"max_entries"`
	TTL        time.Duration `yaml:"ttl"`
}

// WatchConfig configures "protodoc watch"
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`

	// RebuildSchedule is a cron expression for periodic forced rebuilds.
	// Empty disables them.
	RebuildSchedule string `yaml:"rebuild_schedule"`

	// ServeAddr starts the preview server when set
	ServeAddr string `yaml:"serve_addr"`
}

// Config file names searched by LoadConfigFromDir, in order
var configNames = []string{"protodoc.yaml", "protodoc.yml", ".protodoc.yaml", ".protodoc.yml"}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		SiteConfig:   "mkdocs.yml",
		OutputDir:    "api",
		DocExtension: resolver.DefaultDocExtension,
		CacheFile:    DefaultCacheFile(),
		Workers:      runtime.NumCPU(),
		Log: LogConfig{
			Level:  "info",
			Format: observability.FormatText,
		},
		Memo: MemoConfig{
			MaxEntries: cache.DefaultMemoEntries,
			TTL:        cache.DefaultMemoTTL,
		},
		Watch: WatchConfig{
			Debounce: watcher.DefaultDebounce,
		},
	}
}

// DefaultCacheFile returns the per-user change cache location
func DefaultCacheFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".protodoc_cache.json"
	}
	return filepath.Join(home, ".protodoc_cache.json")
}

// LoadConfig reads a YAML config file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	// relative paths in the file are relative to the file
	base := filepath.Dir(path)
	for i, p := range config.ProtoPaths {
		config.ProtoPaths[i] = relativeTo(base, p)
	}
	config.SiteConfig = relativeTo(base, config.SiteConfig)
	config.DocsDir = relativeTo(base, config.DocsDir)
	config.CacheFile = relativeTo(base, config.CacheFile)

	return config, nil
}

// LoadConfigFromDir searches dir for a config file, falling back to the
// defaults when there is none
func LoadConfigFromDir(dir string) (*Config, error) {
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadConfig(path)
		}
	}
	return DefaultConfig(), nil
}

// SaveConfig writes config to path
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from PROTODOC_* environment variables
func (c *Config) ApplyEnv() {
	if paths := getEnv("PROTODOC_PROTO_PATHS", ""); paths != "" {
		c.ProtoPaths = splitList(paths)
	}
	c.SiteConfig = getEnv("PROTODOC_SITE_CONFIG", c.SiteConfig)
	c.DocsDir = getEnv("PROTODOC_DOCS_DIR", c.DocsDir)
	c.OutputDir = getEnv("PROTODOC_OUTPUT_DIR", c.OutputDir)
	c.DocExtension = getEnv("PROTODOC_DOC_EXTENSION", c.DocExtension)
	c.CacheFile = getEnv("PROTODOC_CACHE_FILE", c.CacheFile)
	c.Workers = getEnvInt("PROTODOC_WORKERS", c.Workers)

	c.Log.Level = getEnv("PROTODOC_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("PROTODOC_LOG_FORMAT", c.Log.Format)

	c.Memo.MaxEntries = getEnvInt("PROTODOC_MEMO_MAX_ENTRIES", c.Memo.MaxEntries)
	c.Memo.TTL = getEnvDuration("PROTODOC_MEMO_TTL", c.Memo.TTL)

	c.Watch.Debounce = getEnvDuration("PROTODOC_WATCH_DEBOUNCE", c.Watch.Debounce)
	c.Watch.RebuildSchedule = getEnv("PROTODOC_WATCH_REBUILD_SCHEDULE", c.Watch.RebuildSchedule)
	c.Watch.ServeAddr = getEnv("PROTODOC_WATCH_SERVE_ADDR", c.Watch.ServeAddr)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.ProtoPaths) == 0 {
		return ErrNoProtoPaths
	}
	for _, p := range c.ProtoPaths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("proto path must not be empty")
		}
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return ErrNoOutputDir
	}
	if !strings.HasPrefix(c.DocExtension, ".") || len(c.DocExtension) < 2 {
		return fmt.Errorf("invalid doc extension %q (must start with a dot)", c.DocExtension)
	}
	if c.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.Memo.MaxEntries < 0 {
		return fmt.Errorf("memo max entries must not be negative")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch debounce must not be negative")
	}
	if c.Watch.RebuildSchedule != "" {
		if _, err := cron.ParseStandard(c.Watch.RebuildSchedule); err != nil {
			return fmt.Errorf("invalid rebuild schedule %q: %w", c.Watch.RebuildSchedule, err)
		}
	}
	if c.Watch.ServeAddr != "" {
		if _, _, err := net.SplitHostPort(c.Watch.ServeAddr); err != nil {
			return fmt.Errorf("invalid serve address %q: %w", c.Watch.ServeAddr, err)
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", observability.FormatText, observability.FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q (must be text or json)", c.Log.Format)
	}
	return nil
}

// ServeAddr returns the preview server address, or the default one when
// serving is enabled without an explicit address
func (c *Config) ServeAddr(enabled bool) string {
	if c.Watch.ServeAddr != "" {
		return c.Watch.ServeAddr
	}
	if enabled {
		return server.DefaultAddr
	}
	return ""
}

// ResolveOutputDir returns the absolute output directory for docsDir
func (c *Config) ResolveOutputDir(docsDir string) string {
	out := c.OutputDir
	if !filepath.IsAbs(out) {
		out = filepath.Join(docsDir, out)
	}
	if abs, err := filepath.Abs(out); err == nil {
		return abs
	}
	return out
}

// MemoCacheConfig converts the memo settings for cache.NewExtractMemo
func (c *Config) MemoCacheConfig() *cache.Config {
	return &cache.Config{MaxEntries: c.Memo.MaxEntries, TTL: c.Memo.TTL}
}

func relativeTo(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == os.PathListSeparator
	}) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
