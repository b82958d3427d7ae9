// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for webchat.
//
// Configuration sources (in order of precedence):
//   - Environment variables (WEBCHAT_*), including an optional .env file
//   - ~/.webchat/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/webchat-tui/internal/model"
	"github.com/jeranaias/webchat-tui/internal/session"
	"github.com/jeranaias/webchat-tui/internal/util"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendHTTP   = "http"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete webchat configuration.
type Config struct {
	// Identity of the local user
	Identity IdentityConfig `toml:"identity"`

	// Store selects and configures the message store backend
	Store StoreConfig `toml:"store"`

	// Chat tunes the session engine
	Chat ChatConfig `toml:"chat"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// Log configuration
	Log LogConfig `toml:"log"`
}

// IdentityConfig names the signed-in user. An empty UserID leaves the client
// unauthenticated: history can be read but sends are rejected.
type IdentityConfig struct {
	UserID      string `toml:"user_id" env:"WEBCHAT_USER_ID,overwrite"`
	DisplayName string `toml:"display_name" env:"WEBCHAT_DISPLAY_NAME,overwrite"`
}

// StoreConfig contains message store configuration.
type StoreConfig struct {
	// Backend is "sqlite" (local file) or "http" (hosted API)
	Backend string `toml:"backend" env:"WEBCHAT_STORE_BACKEND,overwrite"`
	// Path is the sqlite database file
	Path string `toml:"path" env:"WEBCHAT_STORE_PATH,overwrite"`
	// URL is the base URL of the hosted API
	URL string `toml:"url" env:"WEBCHAT_STORE_URL,overwrite"`
	// Token is the bearer token for the hosted API
	Token string `toml:"token" env:"WEBCHAT_STORE_TOKEN,overwrite"`
	// RequestsPerSecond limits outgoing API calls (0 = unlimited)
	RequestsPerSecond float64 `toml:"requests_per_second" env:"WEBCHAT_STORE_RPS,overwrite"`
	// Burst is the number of calls allowed above the rate
	Burst int `toml:"burst" env:"WEBCHAT_STORE_BURST,overwrite"`
	// TimeoutSecs bounds each store call
	TimeoutSecs int `toml:"timeout_secs" env:"WEBCHAT_STORE_TIMEOUT_SECS,overwrite"`
	// PollIntervalMs is the sqlite feed's fallback poll period
	PollIntervalMs int `toml:"poll_interval_ms" env:"WEBCHAT_STORE_POLL_INTERVAL_MS,overwrite"`
}

// ChatConfig contains session engine settings.
type ChatConfig struct {
	// DefaultConversation is selected at startup when set
	DefaultConversation string `toml:"default_conversation" env:"WEBCHAT_CONVERSATION,overwrite"`
	// TypingDelayMs is how long after a send the indicator appears
	TypingDelayMs int `toml:"typing_delay_ms" env:"WEBCHAT_TYPING_DELAY_MS,overwrite"`
	// TypingDurationMs is how long it stays visible (0 disables it)
	TypingDurationMs int `toml:"typing_duration_ms" env:"WEBCHAT_TYPING_DURATION_MS,overwrite"`
	// MaxMessageLength caps content length in characters
	MaxMessageLength int `toml:"max_message_length" env:"WEBCHAT_MAX_MESSAGE_LENGTH,overwrite"`
	// UnknownAuthorName labels authors whose profile cannot be resolved
	UnknownAuthorName string `toml:"unknown_author_name" env:"WEBCHAT_UNKNOWN_AUTHOR_NAME,overwrite"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is "dark", "light" or "auto"
	Theme string `toml:"theme" env:"WEBCHAT_THEME,overwrite"`
	// Markdown renders message bodies as markdown
	Markdown bool `toml:"markdown" env:"WEBCHAT_MARKDOWN,overwrite"`
	// ShowTimestamps shows the clock time next to each message
	ShowTimestamps bool `toml:"show_timestamps" env:"WEBCHAT_SHOW_TIMESTAMPS,overwrite"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `toml:"level" env:"WEBCHAT_LOG_LEVEL,overwrite"`
	// Path is the log file; the terminal is never written to
	Path string `toml:"path" env:"WEBCHAT_LOG_PATH,overwrite"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	dir, err := ConfigDir()
	if err != nil {
		dir = ".webchat"
	}
	defaults := session.DefaultConfig()

	return &Config{
		Identity: IdentityConfig{
			UserID:      "me",
			DisplayName: "Me",
		},
		Store: StoreConfig{
			Backend:        BackendSQLite,
			Path:           filepath.Join(dir, "webchat.db"),
			Burst:          5,
			TimeoutSecs:    15,
			PollIntervalMs: 2000,
		},
		Chat: ChatConfig{
			DefaultConversation: "",
			TypingDelayMs:       int(defaults.TypingDelay / time.Millisecond),
			TypingDurationMs:    int(defaults.TypingDuration / time.Millisecond),
			MaxMessageLength:    defaults.MaxMessageLength,
			UnknownAuthorName:   defaults.UnknownAuthorName,
		},
		UI: UIConfig{
			Theme:          "auto",
			Markdown:       true,
			ShowTimestamps: true,
		},
		Log: LogConfig{
			Level: "info",
			Path:  filepath.Join(dir, "webchat.log"),
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the webchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".webchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions tightens a config file to 0600. It may hold the
// store token.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads ~/.webchat/config.toml, then applies a .env file in the working
// directory and the process environment. A missing config file is not an
// error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load with an explicit config file.
func LoadFromPath(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	return LoadWith(path, envconfig.OsLookuper())
}

// LoadWith loads the TOML file at path (if it exists) and applies overrides
// from env. Use envconfig.MapLookuper in tests.
func LoadWith(path string, env envconfig.Lookuper) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		} else if !errors.Is(statErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config %s: %w", path, statErr)
		}
	}

	if err := cfg.ApplyEnvOverrides(env); err != nil {
		return nil, err
	}
	if err := fillDefaults(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep the
// values already in cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// loadDotEnv loads a .env file into the process environment without
// overriding variables that are already set.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// fillDefaults fills in values that may not be empty.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = defaults.Store.Backend
	}
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaults.Store.Path
	}
	cfg.Store.Path = expandHome(cfg.Store.Path)
	if cfg.Store.TimeoutSecs == 0 {
		cfg.Store.TimeoutSecs = defaults.Store.TimeoutSecs
	}
	if cfg.Store.PollIntervalMs == 0 {
		cfg.Store.PollIntervalMs = defaults.Store.PollIntervalMs
	}

	if cfg.Chat.MaxMessageLength == 0 {
		cfg.Chat.MaxMessageLength = defaults.Chat.MaxMessageLength
	}
	if cfg.Chat.UnknownAuthorName == "" {
		cfg.Chat.UnknownAuthorName = defaults.Chat.UnknownAuthorName
	}

	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = defaults.Log.Path
	}
	cfg.Log.Path = expandHome(cfg.Log.Path)

	if cfg.Identity.DisplayName == "" {
		cfg.Identity.DisplayName = cfg.Identity.UserID
	}
	return nil
}

// expandHome replaces a leading "~/" with the home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies WEBCHAT_* variables from env. Only variables that
// are present change the config.
//
// Supported environment variables:
//   - WEBCHAT_USER_ID, WEBCHAT_DISPLAY_NAME
//   - WEBCHAT_STORE_BACKEND, WEBCHAT_STORE_PATH, WEBCHAT_STORE_URL, WEBCHAT_STORE_TOKEN
//   - WEBCHAT_STORE_RPS, WEBCHAT_STORE_BURST, WEBCHAT_STORE_TIMEOUT_SECS, WEBCHAT_STORE_POLL_INTERVAL_MS
//   - WEBCHAT_CONVERSATION, WEBCHAT_TYPING_DELAY_MS, WEBCHAT_TYPING_DURATION_MS
//   - WEBCHAT_MAX_MESSAGE_LENGTH, WEBCHAT_UNKNOWN_AUTHOR_NAME
//   - WEBCHAT_THEME, WEBCHAT_MARKDOWN, WEBCHAT_SHOW_TIMESTAMPS
//   - WEBCHAT_LOG_LEVEL, WEBCHAT_LOG_PATH
func (c *Config) ApplyEnvOverrides(env envconfig.Lookuper) error {
	if env == nil {
		env = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(context.Background(), c, env); err != nil {
		return fmt.Errorf("parsing env vars: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# webchat configuration file")
	fmt.Fprintln(&buf, "# Environment variables (WEBCHAT_*) override these values.")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
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
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Store
	switch c.Store.Backend {
	case BackendSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			add("store.path", "required for the sqlite backend")
		}
	case BackendHTTP:
		if c.Store.URL == "" {
			add("store.url", "required for the http backend")
		} else if u, err := url.Parse(c.Store.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("store.url", "invalid URL '%s', must be http(s)://host", c.Store.URL)
		}
	default:
		add("store.backend", "invalid backend '%s', must be one of: sqlite, http", c.Store.Backend)
	}
	if c.Store.RequestsPerSecond < 0 {
		add("store.requests_per_second", "must not be negative")
	}
	if c.Store.Burst < 0 {
		add("store.burst", "must not be negative")
	}
	if c.Store.TimeoutSecs < 0 {
		add("store.timeout_secs", "must not be negative")
	}
	if c.Store.PollIntervalMs < 0 {
		add("store.poll_interval_ms", "must not be negative")
	}

	// Chat
	if c.Chat.TypingDelayMs < 0 {
		add("chat.typing_delay_ms", "must not be negative")
	}
	if c.Chat.TypingDurationMs < 0 {
		add("chat.typing_duration_ms", "must not be negative")
	}
	if c.Chat.MaxMessageLength < 1 {
		add("chat.max_message_length", "must be at least 1")
	}

	// UI
	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light", "auto":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme)
	}

	// Log
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		add("log.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// SessionConfig converts the chat settings for the session engine.
func (c *Config) SessionConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.TypingDelay = time.Duration(c.Chat.TypingDelayMs) * time.Millisecond
	cfg.TypingDuration = time.Duration(c.Chat.TypingDurationMs) * time.Millisecond
	cfg.MaxMessageLength = c.Chat.MaxMessageLength
	cfg.UnknownAuthorName = c.Chat.UnknownAuthorName
	cfg.RequestTimeout = c.StoreTimeout()
	return cfg
}

// IdentityModel returns the configured identity.
func (c *Config) IdentityModel() model.Identity {
	return model.Identity{UserID: c.Identity.UserID, DisplayName: c.Identity.DisplayName}
}

// StoreTimeout returns the per-call store timeout.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Store.TimeoutSecs) * time.Second
}

// PollInterval returns the sqlite feed poll period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Store.PollIntervalMs) * time.Millisecond
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the configuration as TOML with the store token redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Store.Token != "" {
		safe.Store.Token = "[REDACTED]"
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(safe); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}
