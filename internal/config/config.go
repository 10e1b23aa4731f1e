// Package config loads persistkit settings from a YAML or TOML file,
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/persistkit/internal/store"
)

const (
	defaultDriver       = store.DriverSQLite3
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	defaultLogMaxSizeMB = 10
	defaultLogMaxFiles  = 5
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Store   StoreConfig   `toml:"store" yaml:"store"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics"`
}

type StoreConfig struct {
	Path     string `toml:"path" yaml:"path"`
	InMemory bool   `toml:"in_memory" yaml:"in_memory"`
	Driver   string `toml:"driver" yaml:"driver"`
}

type LoggingConfig struct {
	Level     string `toml:"level" yaml:"level"`
	Format    string `toml:"format" yaml:"format"`
	File      string `toml:"file" yaml:"file"`
	MaxSizeMB int    `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxFiles  int    `toml:"max_files" yaml:"max_files"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

type LoadOptions struct {
	ConfigPath string
	Env        map[string]string
	Flags      FlagOverrides
}

type FlagOverrides struct {
	StorePath *string
	InMemory  *bool
	Driver    *string
	Verbose   bool
}

func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Driver: defaultDriver,
		},
		Logging: LoggingConfig{
			Level:     defaultLogLevel,
			Format:    defaultLogFormat,
			MaxSizeMB: defaultLogMaxSizeMB,
			MaxFiles:  defaultLogMaxFiles,
		},
	}
}

// Load builds the effective configuration: defaults, then the config file,
// then PERSISTKIT_* environment variables, then flags. A missing config file
// is not an error.
func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	configPath, err := resolveConfigPath(opts)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}
	if err := loadAndApplyFile(configPath, &cfg); err != nil {
		return Config{}, err
	}

	if err := applyEnvOverrides(&cfg, opts); err != nil {
		return Config{}, err
	}
	applyFlagOverrides(&cfg, opts.Flags)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type rawConfig struct {
	Store   *rawStore   `toml:"store" yaml:"store"`
	Logging *rawLogging `toml:"logging" yaml:"logging"`
	Metrics *rawMetrics `toml:"metrics" yaml:"metrics"`
}

type rawStore struct {
	Path     *string `toml:"path" yaml:"path"`
	InMemory *bool   `toml:"in_memory" yaml:"in_memory"`
	Driver   *string `toml:"driver" yaml:"driver"`
}

type rawLogging struct {
	Level     *string `toml:"level" yaml:"level"`
	Format    *string `toml:"format" yaml:"format"`
	File      *string `toml:"file" yaml:"file"`
	MaxSizeMB *int    `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxFiles  *int    `toml:"max_files" yaml:"max_files"`
}

type rawMetrics struct {
	Enabled *bool `toml:"enabled" yaml:"enabled"`
}

func loadAndApplyFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	raw, err := decodeRaw(path, data)
	if err != nil {
		return err
	}
	applyRawConfig(cfg, raw)
	return nil
}

// decodeRaw picks the decoder from the file extension. Unknown keys are
// rejected in both formats.
func decodeRaw(path string, data []byte) (rawConfig, error) {
	var raw rawConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			return raw, fmt.Errorf("%w: parse TOML file %q: %v", ErrInvalidConfig, path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return raw, fmt.Errorf("%w: parse YAML file %q: %v", ErrInvalidConfig, path, err)
		}
	default:
		return raw, fmt.Errorf("%w: unsupported config file extension %q (want .toml, .yaml or .yml)", ErrInvalidConfig, ext)
	}
	return raw, nil
}

func applyRawConfig(cfg *Config, raw rawConfig) {
	if raw.Store != nil {
		setString(raw.Store.Path, &cfg.Store.Path)
		setBool(raw.Store.InMemory, &cfg.Store.InMemory)
		setString(raw.Store.Driver, &cfg.Store.Driver)
	}

	if raw.Logging != nil {
		setString(raw.Logging.Level, &cfg.Logging.Level)
		setString(raw.Logging.Format, &cfg.Logging.Format)
		setString(raw.Logging.File, &cfg.Logging.File)
		setInt(raw.Logging.MaxSizeMB, &cfg.Logging.MaxSizeMB)
		setInt(raw.Logging.MaxFiles, &cfg.Logging.MaxFiles)
	}

	if raw.Metrics != nil {
		setBool(raw.Metrics.Enabled, &cfg.Metrics.Enabled)
	}
}

func applyEnvOverrides(cfg *Config, opts LoadOptions) error {
	if value, ok := lookupEnv(opts, "PERSISTKIT_STORE_PATH"); ok {
		cfg.Store.Path = value
	}
	if value, ok := lookupEnv(opts, "PERSISTKIT_STORE_IN_MEMORY"); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: parse PERSISTKIT_STORE_IN_MEMORY: %v", ErrInvalidConfig, err)
		}
		cfg.Store.InMemory = parsed
	}
	if value, ok := lookupEnv(opts, "PERSISTKIT_STORE_DRIVER"); ok {
		cfg.Store.Driver = value
	}

	if value, ok := lookupEnv(opts, "PERSISTKIT_LOG_LEVEL"); ok {
		cfg.Logging.Level = value
	}
	if value, ok := lookupEnv(opts, "PERSISTKIT_LOG_FORMAT"); ok {
		cfg.Logging.Format = value
	}
	if value, ok := lookupEnv(opts, "PERSISTKIT_LOG_FILE"); ok {
		cfg.Logging.File = value
	}
	if value, ok := lookupEnv(opts, "PERSISTKIT_LOG_MAX_SIZE_MB"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: parse PERSISTKIT_LOG_MAX_SIZE_MB: %v", ErrInvalidConfig, err)
		}
		cfg.Logging.MaxSizeMB = parsed
	}
	if value, ok := lookupEnv(opts, "PERSISTKIT_LOG_MAX_FILES"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: parse PERSISTKIT_LOG_MAX_FILES: %v", ErrInvalidConfig, err)
		}
		cfg.Logging.MaxFiles = parsed
	}

	if value, ok := lookupEnv(opts, "PERSISTKIT_METRICS_ENABLED"); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: parse PERSISTKIT_METRICS_ENABLED: %v", ErrInvalidConfig, err)
		}
		cfg.Metrics.Enabled = parsed
	}

	return nil
}

func applyFlagOverrides(cfg *Config, flags FlagOverrides) {
	if flags.StorePath != nil {
		cfg.Store.Path = *flags.StorePath
		// An explicit file wins over an in-memory setting from file or env.
		if cfg.Store.Path != "" && flags.InMemory == nil {
			cfg.Store.InMemory = false
		}
	}
	if flags.InMemory != nil {
		cfg.Store.InMemory = *flags.InMemory
		if *flags.InMemory && flags.StorePath == nil {
			cfg.Store.Path = ""
		}
	}
	if flags.Driver != nil {
		cfg.Store.Driver = *flags.Driver
	}
	if flags.Verbose {
		cfg.Logging.Level = "debug"
	}
}

func validate(cfg Config) error {
	switch cfg.Store.Driver {
	case store.DriverSQLite3, store.DriverSQLite:
	default:
		return fmt.Errorf("%w: store.driver must be %q or %q, got %q", ErrInvalidConfig, store.DriverSQLite3, store.DriverSQLite, cfg.Store.Driver)
	}
	if cfg.Store.InMemory && cfg.Store.Path != "" {
		return fmt.Errorf("%w: store.path and store.in_memory are mutually exclusive", ErrInvalidConfig)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalidConfig, err)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("%w: logging.format must be \"text\" or \"json\", got %q", ErrInvalidConfig, cfg.Logging.Format)
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		return fmt.Errorf("%w: logging.max_size_mb must be > 0", ErrInvalidConfig)
	}
	if cfg.Logging.MaxFiles <= 0 {
		return fmt.Errorf("%w: logging.max_files must be > 0", ErrInvalidConfig)
	}
	return nil
}

// Options converts the store settings into container options.
func (c StoreConfig) Options() []store.Option {
	opts := []store.Option{
		store.WithInMemory(c.InMemory),
		store.WithDriver(c.Driver),
	}
	if c.Path != "" {
		opts = append(opts, store.WithPath(c.Path))
	}
	return opts
}

func setString(raw *string, target *string) {
	if raw != nil {
		*target = *raw
	}
}

func setBool(raw *bool, target *bool) {
	if raw != nil {
		*target = *raw
	}
}

func setInt(raw *int, target *int) {
	if raw != nil {
		*target = *raw
	}
}

// resolveConfigPath returns the explicit path, $PERSISTKIT_CONFIG, or the
// first existing config.{toml,yaml,yml} in the user config directory.
func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigPath != "" {
		return opts.ConfigPath, nil
	}
	if value, ok := lookupEnv(opts, "PERSISTKIT_CONFIG"); ok {
		return value, nil
	}
	return defaultConfigPath()
}

func lookupEnv(opts LoadOptions, key string) (string, bool) {
	if opts.Env != nil {
		if value, ok := opts.Env[key]; ok {
			return value, true
		}
	}
	return os.LookupEnv(key)
}

func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	dir = filepath.Join(dir, "persistkit")
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}
