// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/rigbench/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rigbench configuration.
type Config struct {
	Version string `toml:"version" json:"version" yaml:"version"`

	Scoring      ScoringConfig      `toml:"scoring" json:"scoring" yaml:"scoring"`
	Workloads    WorkloadsConfig    `toml:"workloads" json:"workloads" yaml:"workloads"`
	Topology     TopologyConfig     `toml:"topology" json:"topology" yaml:"topology"`
	Capabilities CapabilitiesConfig `toml:"capabilities" json:"capabilities" yaml:"capabilities"`
	Output       OutputConfig       `toml:"output" json:"output" yaml:"output"`
	Logging      LoggingConfig      `toml:"logging" json:"logging" yaml:"logging"`
	Run          RunConfig          `toml:"run" json:"run" yaml:"run"`
}

// ScoringConfig controls score normalization.
type ScoringConfig struct {
	// NormalizationConstant is K in round(K / elapsed_ms). Scores taken with
	// different constants are not comparable.
	NormalizationConstant float64 `toml:"normalization_constant" json:"normalization_constant" yaml:"normalization_constant"`
	// MinElapsed is the clock resolution; samples at or below it are rejected.
	MinElapsed string `toml:"min_elapsed" json:"min_elapsed" yaml:"min_elapsed"`
}

// WorkloadsConfig sizes and selects the workload battery.
type WorkloadsConfig struct {
	Iterations   int            `toml:"iterations" json:"iterations" yaml:"iterations"`
	MemoryPasses int            `toml:"memory_passes" json:"memory_passes" yaml:"memory_passes"`
	Sizes        map[string]int `toml:"sizes" json:"sizes,omitempty" yaml:"sizes,omitempty"`
	Disabled     []string       `toml:"disabled" json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Include      []string       `toml:"include" json:"include,omitempty" yaml:"include,omitempty"`
}

// TopologyConfig overrides detected host facts. Zero means detect.
type TopologyConfig struct {
	LogicalCPUs     int   `toml:"logical_cpus" json:"logical_cpus" yaml:"logical_cpus"`
	L2Bytes         int64 `toml:"l2_bytes" json:"l2_bytes" yaml:"l2_bytes"`
	L3Bytes         int64 `toml:"l3_bytes" json:"l3_bytes" yaml:"l3_bytes"`
	FallbackL2Bytes int64 `toml:"fallback_l2_bytes" json:"fallback_l2_bytes" yaml:"fallback_l2_bytes"`
	FallbackL3Bytes int64 `toml:"fallback_l3_bytes" json:"fallback_l3_bytes" yaml:"fallback_l3_bytes"`
	RAMMultiplier   int   `toml:"ram_multiplier" json:"ram_multiplier" yaml:"ram_multiplier"`
}

// CapabilitiesConfig forces capabilities off, e.g. to compare scalar runs.
type CapabilitiesConfig struct {
	Disable []string `toml:"disable" json:"disable,omitempty" yaml:"disable,omitempty"`
}

// OutputConfig controls where and how results go.
type OutputConfig struct {
	// Dir holds one JSON file per run (empty = ~/.rigbench/results).
	Dir string `toml:"dir" json:"dir" yaml:"dir"`
	// HistoryDB is the SQLite run index (empty = ~/.rigbench/history.db).
	HistoryDB string `toml:"history_db" json:"history_db" yaml:"history_db"`
	// Format is text, json, yaml or markdown.
	Format string `toml:"format" json:"format" yaml:"format"`
	Save   bool   `toml:"save" json:"save" yaml:"save"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `toml:"level" json:"level" yaml:"level"`
	File  string `toml:"file" json:"file" yaml:"file"`
}

// RunConfig holds run-time behavior.
type RunConfig struct {
	RaisePriority bool `toml:"raise_priority" json:"raise_priority" yaml:"raise_priority"`
	// TUI is "auto", "always" or "never".
	TUI string `toml:"tui" json:"tui" yaml:"tui"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// ConfigVersion is written into new config files.
const ConfigVersion = "1"

// Valid enumerations.
var (
	validFormats   = []string{"text", "json", "yaml", "markdown"}
	validTUIModes  = []string{"auto", "always", "never"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: ConfigVersion,
		Scoring: ScoringConfig{
			NormalizationConstant: 1_000_000,
			MinElapsed:            "1us",
		},
		Workloads: WorkloadsConfig{
			Iterations:   1_000_000,
			MemoryPasses: 10,
		},
		Topology: TopologyConfig{
			FallbackL2Bytes: 256 * 1024,
			FallbackL3Bytes: 16 * 1024 * 1024,
			RAMMultiplier:   4,
		},
		Output: OutputConfig{
			Format: "text",
			Save:   true,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Run: RunConfig{
			RaisePriority: true,
			TUI:           "auto",
		},
	}
}

// MinElapsedDuration parses Scoring.MinElapsed.
func (c *Config) MinElapsedDuration() (time.Duration, error) {
	if c.Scoring.MinElapsed == "" {
		return time.Microsecond, nil
	}
	return time.ParseDuration(c.Scoring.MinElapsed)
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the rigbench configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigbench"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// HistoryDBPath resolves Output.HistoryDB, defaulting into ConfigDir.
func (c *Config) HistoryDBPath() (string, error) {
	if c.Output.HistoryDB != "" {
		return c.Output.HistoryDB, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// .env and environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			cfg = Default()
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = multierr.Append(loadErr, fmt.Errorf("failed to load JSON config: %w", err))
			} else {
				return finish(cfg)
			}
		}
	}

	cfg, err := finish(Default())
	if err != nil {
		return nil, err
	}
	// Defaults are usable even when a file failed to parse.
	return cfg, loadErr
}

// finish applies overrides, fills defaults and validates.
func finish(cfg *Config) (*Config, error) {
	if err := LoadDotEnv(""); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file on top of cfg.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON loads configuration from a JSON file on top of cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

// LoadDotEnv loads a .env file into the process environment without
// overriding variables that are already set. An empty path means ./.env;
// a missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// EncodeTOML renders cfg with a header comment.
func EncodeTOML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# rigbench configuration file")
	fmt.Fprintln(&buf, "# Generated by rigbench - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveTOML saves the configuration to a TOML file atomically.
func SaveTOML(cfg *Config, path string) error {
	data, err := EncodeTOML(cfg)
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0644, 0755); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file atomically.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0644, 0755); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// EncodeYAML renders cfg as YAML for `config show --format yaml`.
func EncodeYAML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Scoring.NormalizationConstant <= 0 {
		add("scoring.normalization_constant", "must be positive, got %v", c.Scoring.NormalizationConstant)
	}
	if d, err := c.MinElapsedDuration(); err != nil {
		add("scoring.min_elapsed", "invalid duration %q", c.Scoring.MinElapsed)
	} else if d <= 0 {
		add("scoring.min_elapsed", "must be positive, got %s", d)
	}

	if c.Workloads.Iterations < 1 {
		add("workloads.iterations", "must be at least 1, got %d", c.Workloads.Iterations)
	}
	if c.Workloads.MemoryPasses < 1 {
		add("workloads.memory_passes", "must be at least 1, got %d", c.Workloads.MemoryPasses)
	}
	for id, n := range c.Workloads.Sizes {
		if n < 1 {
			add("workloads.sizes."+id, "must be at least 1, got %d", n)
		}
	}

	if c.Topology.LogicalCPUs < 0 {
		add("topology.logical_cpus", "must not be negative, got %d", c.Topology.LogicalCPUs)
	}
	if c.Topology.L2Bytes < 0 {
		add("topology.l2_bytes", "must not be negative, got %d", c.Topology.L2Bytes)
	}
	if c.Topology.L3Bytes < 0 {
		add("topology.l3_bytes", "must not be negative, got %d", c.Topology.L3Bytes)
	}
	if c.Topology.RAMMultiplier < 1 {
		add("topology.ram_multiplier", "must be at least 1, got %d", c.Topology.RAMMultiplier)
	}

	if _, err := c.DisabledCapabilities(); err != nil {
		for _, e := range multierr.Errors(err) {
			add("capabilities.disable", "%v", e)
		}
	}

	if !oneOf(c.Output.Format, validFormats) {
		add("output.format", "must be one of %s, got %q", strings.Join(validFormats, ", "), c.Output.Format)
	}
	if !oneOf(strings.ToLower(c.Logging.Level), validLogLevels) {
		add("logging.level", "must be one of %s, got %q", strings.Join(validLogLevels, ", "), c.Logging.Level)
	}
	if !oneOf(c.Run.TUI, validTUIModes) {
		add("run.tui", "must be one of %s, got %q", strings.Join(validTUIModes, ", "), c.Run.TUI)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value fields.
// Booleans are left alone; their zero value is meaningful.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Scoring.NormalizationConstant == 0 {
		c.Scoring.NormalizationConstant = d.Scoring.NormalizationConstant
	}
	if c.Scoring.MinElapsed == "" {
		c.Scoring.MinElapsed = d.Scoring.MinElapsed
	}
	if c.Workloads.Iterations == 0 {
		c.Workloads.Iterations = d.Workloads.Iterations
	}
	if c.Workloads.MemoryPasses == 0 {
		c.Workloads.MemoryPasses = d.Workloads.MemoryPasses
	}
	if c.Topology.FallbackL2Bytes <= 0 {
		c.Topology.FallbackL2Bytes = d.Topology.FallbackL2Bytes
	}
	if c.Topology.FallbackL3Bytes <= 0 {
		c.Topology.FallbackL3Bytes = d.Topology.FallbackL3Bytes
	}
	if c.Topology.RAMMultiplier == 0 {
		c.Topology.RAMMultiplier = d.Topology.RAMMultiplier
	}
	if c.Output.Format == "" {
		c.Output.Format = d.Output.Format
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Run.TUI == "" {
		c.Run.TUI = d.Run.TUI
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RIGBENCH_ITERATIONS: overrides workloads.iterations
//   - RIGBENCH_K: overrides scoring.normalization_constant
//   - RIGBENCH_LOGICAL_CPUS: overrides topology.logical_cpus
//   - RIGBENCH_DISABLE_CAPS: comma list, overrides capabilities.disable
//   - RIGBENCH_RESULTS_DIR: overrides output.dir
//   - RIGBENCH_HISTORY_DB: overrides output.history_db
//   - RIGBENCH_FORMAT: overrides output.format
//   - RIGBENCH_LOG_LEVEL: overrides logging.level
//   - RIGBENCH_LOG_FILE: overrides logging.file
//   - RIGBENCH_NO_PRIORITY: set to "1" or "true" to skip the priority raise
//
// Malformed numbers are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("RIGBENCH_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workloads.Iterations = n
		}
	}
	if v := os.Getenv("RIGBENCH_K"); v != "" {
		if k, err := strconv.ParseFloat(v, 64); err == nil {
			c.Scoring.NormalizationConstant = k
		}
	}
	if v := os.Getenv("RIGBENCH_LOGICAL_CPUS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Topology.LogicalCPUs = n
		}
	}
	if v := os.Getenv("RIGBENCH_DISABLE_CAPS"); v != "" {
		c.Capabilities.Disable = splitList(v)
	}
	if v := os.Getenv("RIGBENCH_RESULTS_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("RIGBENCH_HISTORY_DB"); v != "" {
		c.Output.HistoryDB = v
	}
	if v := os.Getenv("RIGBENCH_FORMAT"); v != "" {
		c.Output.Format = v
	}
	if v := os.Getenv("RIGBENCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("RIGBENCH_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("RIGBENCH_NO_PRIORITY"); v != "" {
		c.Run.RaisePriority = !(v == "1" || strings.EqualFold(v, "true"))
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "workloads.iterations").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "output.format").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field
// equivalent. Acronyms such as "cpus" or "tui" match case-insensitively.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			field.SetBool(strVal == "1" || strings.EqualFold(strVal, "true") || strings.EqualFold(strVal, "yes"))
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				field.Set(reflect.ValueOf(splitList(strVal)))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all scalar configuration keys in dot notation, derived
// from the toml tags.
func GetAllKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := strings.Split(f.Tag.Get("toml"), ",")[0]
			if name == "" || name == "-" {
				continue
			}
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type, prefix+name+".")
				continue
			}
			if f.Type.Kind() == reflect.Map {
				continue
			}
			keys = append(keys, prefix+name)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Workloads.Sizes != nil {
		clone.Workloads.Sizes = make(map[string]int, len(c.Workloads.Sizes))
		for k, v := range c.Workloads.Sizes {
			clone.Workloads.Sizes[k] = v
		}
	}
	clone.Workloads.Disabled = append([]string(nil), c.Workloads.Disabled...)
	clone.Workloads.Include = append([]string(nil), c.Workloads.Include...)
	clone.Capabilities.Disable = append([]string(nil), c.Capabilities.Disable...)
	return &clone
}

// String returns a string representation of the config for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			if cfg == nil {
				cfg = Default()
			}
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
// On error the current configuration is kept.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
