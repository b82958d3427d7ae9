// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func noEnv() envconfig.Lookuper {
	return envconfig.MapLookuper(map[string]string{})
}

// =============================================================================
// DEFAULT TESTS
// =============================================================================

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "me", cfg.Identity.UserID)
	assert.Equal(t, 1000, cfg.Chat.TypingDelayMs)
	assert.Equal(t, 3000, cfg.Chat.TypingDurationMs)
	assert.Equal(t, "Unknown", cfg.Chat.UnknownAuthorName)
	assert.True(t, strings.HasSuffix(cfg.Store.Path, "webchat.db"))
	assert.NoError(t, cfg.Validate())
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoadWith_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWith(filepath.Join(t.TempDir(), "absent.toml"), noEnv())
	require.NoError(t, err)
	assert.Equal(t, Default().Chat, cfg.Chat)
}

func TestLoadWith_File(t *testing.T) {
	path := writeConfig(t, `
[identity]
user_id = "alex"

[store]
backend = "HTTP"
url = "https://chat.example.com/api"
token = "tok"
requests_per_second = 2.5

[chat]
default_conversation = "general"
typing_duration_ms = 0

[ui]
markdown = false
`)

	cfg, err := LoadWith(path, noEnv())
	require.NoError(t, err)

	assert.Equal(t, "alex", cfg.Identity.UserID)
	assert.Equal(t, "alex", cfg.Identity.DisplayName, "display name falls back to the user id")
	assert.Equal(t, BackendHTTP, cfg.Store.Backend)
	assert.Equal(t, 2.5, cfg.Store.RequestsPerSecond)
	assert.Equal(t, 5, cfg.Store.Burst, "unset keys keep defaults")
	assert.Equal(t, "general", cfg.Chat.DefaultConversation)
	assert.Equal(t, 0, cfg.Chat.TypingDurationMs, "explicit zero disables typing")
	assert.False(t, cfg.UI.Markdown)
	assert.True(t, cfg.UI.ShowTimestamps)
}

func TestLoadWith_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[store]
backend = "sqlite"
path = "/tmp/file.db"
`)
	env := envconfig.MapLookuper(map[string]string{
		"WEBCHAT_USER_ID":            "jordan",
		"WEBCHAT_STORE_PATH":         "/tmp/env.db",
		"WEBCHAT_TYPING_DELAY_MS":    "250",
		"WEBCHAT_SHOW_TIMESTAMPS":    "false",
		"WEBCHAT_LOG_LEVEL":          "debug",
		"WEBCHAT_MAX_MESSAGE_LENGTH": "10",
	})

	cfg, err := LoadWith(path, env)
	require.NoError(t, err)

	assert.Equal(t, "jordan", cfg.Identity.UserID)
	assert.Equal(t, "Me", cfg.Identity.DisplayName)
	assert.Equal(t, "/tmp/env.db", cfg.Store.Path)
	assert.Equal(t, 250, cfg.Chat.TypingDelayMs)
	assert.False(t, cfg.UI.ShowTimestamps)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10, cfg.SessionConfig().MaxMessageLength)
}

func TestLoadWith_InvalidEnv(t *testing.T) {
	env := envconfig.MapLookuper(map[string]string{"WEBCHAT_STORE_BURST": "many"})
	_, err := LoadWith("", env)
	assert.Error(t, err)
}

func TestLoadWith_UnknownKey(t *testing.T) {
	path := writeConfig(t, `
[chat]
typing_speed = 3
`)
	_, err := LoadWith(path, noEnv())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat.typing_speed")
}

func TestLoadTOML_FixesPermissions(t *testing.T) {
	path := writeConfig(t, "[log]\nlevel = \"warn\"\n")
	require.NoError(t, os.Chmod(path, 0644))

	cfg := Default()
	require.NoError(t, LoadTOML(cfg, path))
	assert.Equal(t, "warn", cfg.Log.Level)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("mode = %o, want 600", info.Mode().Perm())
	}
}

func TestLoadDotEnv_Missing(t *testing.T) {
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

// =============================================================================
// SAVE TESTS
// =============================================================================

func TestSaveTOML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Identity = IdentityConfig{UserID: "casey", DisplayName: "Casey"}
	cfg.Chat.DefaultConversation = "random-chat"

	require.NoError(t, SaveTOML(cfg, path))

	loaded, err := LoadWith(path, noEnv())
	require.NoError(t, err)
	assert.Equal(t, cfg.Identity, loaded.Identity)
	assert.Equal(t, cfg.Chat, loaded.Chat)
	assert.Equal(t, cfg.Store, loaded.Store)
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"bad backend", func(c *Config) { c.Store.Backend = "redis" }, "store.backend"},
		{"http needs url", func(c *Config) { c.Store.Backend = BackendHTTP }, "store.url"},
		{"http bad url", func(c *Config) { c.Store.Backend = BackendHTTP; c.Store.URL = "ftp://x" }, "store.url"},
		{"negative rps", func(c *Config) { c.Store.RequestsPerSecond = -1 }, "store.requests_per_second"},
		{"negative typing", func(c *Config) { c.Chat.TypingDurationMs = -5 }, "chat.typing_duration_ms"},
		{"zero length", func(c *Config) { c.Chat.MaxMessageLength = 0 }, "chat.max_message_length"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(cfg)

			err := cfg.Validate()
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs), "Validate() = %v", err)
			require.Len(t, verrs, 1)
			assert.Equal(t, tc.field, verrs[0].Field)
		})
	}
}

// =============================================================================
// DERIVED SETTINGS TESTS
// =============================================================================

func TestConfig_SessionConfig(t *testing.T) {
	cfg := Default()
	cfg.Chat.TypingDelayMs = 500
	cfg.Chat.TypingDurationMs = 0
	cfg.Store.TimeoutSecs = 7

	sc := cfg.SessionConfig()
	assert.Equal(t, 500*time.Millisecond, sc.TypingDelay)
	assert.Zero(t, sc.TypingDuration)
	assert.Equal(t, 7*time.Second, sc.RequestTimeout)
	assert.Equal(t, "me", cfg.IdentityModel().UserID)
}

func TestConfig_StringRedactsToken(t *testing.T) {
	cfg := Default()
	cfg.Store.Token = "super-secret"

	out := cfg.String()
	assert.NotContains(t, out, "super-secret")
	assert.Contains(t, out, "[REDACTED]")
	assert.Equal(t, "super-secret", cfg.Store.Token, "original is untouched")
}
