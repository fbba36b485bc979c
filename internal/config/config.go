// Package config loads application configuration from environment variables,
// optionally layered over a YAML profile.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/wpass/internal/domain/model"
)

// Store backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Emit targets.
const (
	EmitLog    = "log"
	EmitStdout = "stdout"
)

// Log formats.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatColor = "color"
)

// Config holds the application configuration.
type Config struct {
	StoreBackend     string
	DataPath         string
	SecretKey        []byte
	LinkAddr         string
	BenchAddr        string
	TickInterval     time.Duration
	LongPress        time.Duration
	MultiPressWindow time.Duration
	DebounceSamples  int
	UnlockPattern    []model.UnlockStep
	ActiveLow        bool
	EmitTarget       string
	LogLevel         string
	LogFormat        string
}

// profile is the YAML file layout. Every key mirrors a WPASS_ variable.
type profile struct {
	StoreBackend     string `yaml:"store_backend"`
	DataPath         string `yaml:"data_path"`
	SecretKey        string `yaml:"secret_key"`
	LinkAddr         string `yaml:"link_addr"`
	BenchAddr        string `yaml:"bench_addr"`
	TickInterval     string `yaml:"tick_interval"`
	LongPress        string `yaml:"long_press"`
	MultiPressWindow string `yaml:"multi_press_window"`
	DebounceSamples  string `yaml:"debounce_samples"`
	UnlockPattern    string `yaml:"unlock_pattern"`
	ActiveLow        string `yaml:"active_low"`
	EmitTarget       string `yaml:"emit_target"`
	LogLevel         string `yaml:"log_level"`
	LogFormat        string `yaml:"log_format"`
}

func (p profile) values() map[string]string {
	all := map[string]string{
		"WPASS_STORE_BACKEND":      p.StoreBackend,
		"WPASS_DATA_PATH":          p.DataPath,
		"WPASS_SECRET_KEY":         p.SecretKey,
		"WPASS_LINK_ADDR":          p.LinkAddr,
		"WPASS_BENCH_ADDR":         p.BenchAddr,
		"WPASS_TICK_INTERVAL":      p.TickInterval,
		"WPASS_LONG_PRESS":         p.LongPress,
		"WPASS_MULTI_PRESS_WINDOW": p.MultiPressWindow,
		"WPASS_DEBOUNCE_SAMPLES":   p.DebounceSamples,
		"WPASS_UNLOCK_PATTERN":     p.UnlockPattern,
		"WPASS_ACTIVE_LOW":         p.ActiveLow,
		"WPASS_EMIT_TARGET":        p.EmitTarget,
		"WPASS_LOG_LEVEL":          p.LogLevel,
		"WPASS_LOG_FORMAT":         p.LogFormat,
	}
	set := make(map[string]string, len(all))
	for k, v := range all {
		if v != "" {
			set[k] = v
		}
	}
	return set
}

// source resolves a key from the environment first, then the profile.
type source struct {
	file map[string]string
}

func (s source) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	v, ok := s.file[key]
	return v, ok
}

func (s source) duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := s.lookup(key)
	if !ok {
		return def, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, parsed)
	}
	return parsed, nil
}

func (s source) oneOf(key, def string, allowed ...string) (string, error) {
	v, ok := s.lookup(key)
	if !ok {
		return def, nil
	}
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s must be one of %s, got %q", key, strings.Join(allowed, "|"), v)
}

// Load reads configuration and returns a validated Config. When
// WPASS_CONFIG_FILE names a YAML profile it is read first; environment
// variables override its values. ${VAR} references in the profile are
// expanded. Defaults: json backend at wpass.json, link on 127.0.0.1:7070,
// bench API on 127.0.0.1:8080, 10ms ticks, 500ms long press, 150ms
// multi-press window, 3 debounce samples, unlock pattern left:1,middle:2,
// active-low buttons, emission to the log, info level text logs.
func Load() (*Config, error) {
	src := source{}
	if path, ok := os.LookupEnv("WPASS_CONFIG_FILE"); ok && path != "" {
		file, err := readProfile(path)
		if err != nil {
			return nil, err
		}
		src.file = file
	}

	cfg := &Config{}
	var err error

	if cfg.StoreBackend, err = src.oneOf("WPASS_STORE_BACKEND", BackendJSON, BackendJSON, BackendSQLite); err != nil {
		return nil, err
	}

	cfg.DataPath = defaultDataPath(cfg.StoreBackend)
	if v, ok := src.lookup("WPASS_DATA_PATH"); ok && v != "" {
		cfg.DataPath = v
	}

	if v, ok := src.lookup("WPASS_SECRET_KEY"); ok && v != "" {
		key, err := hex.DecodeString(v)
		if err != nil || len(key) != 32 {
			return nil, fmt.Errorf("WPASS_SECRET_KEY must be 64 hex characters (32 bytes)")
		}
		cfg.SecretKey = key
	}

	cfg.LinkAddr = "127.0.0.1:7070"
	if v, ok := src.lookup("WPASS_LINK_ADDR"); ok {
		cfg.LinkAddr = v
	}

	cfg.BenchAddr = "127.0.0.1:8080"
	if v, ok := src.lookup("WPASS_BENCH_ADDR"); ok {
		cfg.BenchAddr = v
	}

	if cfg.TickInterval, err = src.duration("WPASS_TICK_INTERVAL", 10*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.LongPress, err = src.duration("WPASS_LONG_PRESS", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.MultiPressWindow, err = src.duration("WPASS_MULTI_PRESS_WINDOW", 150*time.Millisecond); err != nil {
		return nil, err
	}

	cfg.DebounceSamples = 3
	if v, ok := src.lookup("WPASS_DEBOUNCE_SAMPLES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 {
			return nil, fmt.Errorf("WPASS_DEBOUNCE_SAMPLES must be an integer of at least 2, got %q", v)
		}
		cfg.DebounceSamples = n
	}

	cfg.UnlockPattern = []model.UnlockStep{
		{Button: model.ButtonLeft, Presses: 1},
		{Button: model.ButtonMiddle, Presses: 2},
	}
	if v, ok := src.lookup("WPASS_UNLOCK_PATTERN"); ok {
		steps, err := model.ParseUnlockPattern(v)
		if err != nil {
			return nil, fmt.Errorf("WPASS_UNLOCK_PATTERN: %w", err)
		}
		cfg.UnlockPattern = steps
	}

	cfg.ActiveLow = true
	if v, ok := src.lookup("WPASS_ACTIVE_LOW"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("WPASS_ACTIVE_LOW has invalid boolean %q: %w", v, err)
		}
		cfg.ActiveLow = b
	}

	if cfg.EmitTarget, err = src.oneOf("WPASS_EMIT_TARGET", EmitLog, EmitLog, EmitStdout); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = src.oneOf("WPASS_LOG_LEVEL", "info", "debug", "info", "warn", "error"); err != nil {
		return nil, err
	}
	if cfg.LogFormat, err = src.oneOf("WPASS_LOG_FORMAT", FormatText, FormatText, FormatJSON, FormatColor); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultDataPath(backend string) string {
	if backend == BackendSQLite {
		return "wpass.db"
	}
	return "wpass.json"
}

func readProfile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var p profile
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &p); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return p.values(), nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envRef.FindStringSubmatch(match)[1])
	})
}
