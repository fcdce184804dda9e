package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDevelopmentDefaults(t *testing.T) {
	cfg, err := load(envFrom(nil))
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8080, cfg.Port)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEmpty(t, cfg.DatabaseDSN)
	assert.Empty(t, cfg.AllowedOrigins)

	assert.Equal(t, "", cfg.Chat.APIKey)
	assert.Equal(t, "gpt-4", cfg.Chat.Model)
	assert.Equal(t, 500, cfg.Chat.MaxTokens)
	assert.InDelta(t, 0.8, cfg.Chat.Temperature, 0.0001)
	assert.True(t, cfg.Chat.Enabled)
	assert.Equal(t, 10, cfg.Chat.MaxHistory)
	assert.Equal(t, 20*time.Second, cfg.Chat.Timeout)
	assert.Equal(t, 200, cfg.CommentsLimit)
}

func TestLoadProductionRequiresSecrets(t *testing.T) {
	_, err := load(envFrom(map[string]string{"ENVIRONMENT": "production"}))
	assert.ErrorContains(t, err, "JWT_SECRET")

	_, err = load(envFrom(map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": "x"}))
	assert.ErrorContains(t, err, "DATABASE_URL")

	cfg, err := load(envFrom(map[string]string{
		"ENVIRONMENT":     "production",
		"JWT_SECRET":      "x",
		"DATABASE_URL":    "postgres://db/folio",
		"ALLOWED_ORIGINS": " https://a.example , ,https://b.example",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for key, value := range map[string]string{
		"PORT":                "80",
		"OPENAI_TEMPERATURE":  "hot",
		"CHAT_MAX_HISTORY":    "11",
		"CHAT_ENABLED":        "maybe",
		"CHAT_TIMEOUT":        "-1s",
		"OPENAI_MAX_TOKENS":   "0",
		"COMMENTS_LIST_LIMIT": "0",
		"S3_BUCKET_NAME":      "bucket-without-credentials",
		"GOOGLE_CLIENT_ID":    "id-without-secret",
	} {
		_, err := load(envFrom(map[string]string{key: value}))
		assert.Error(t, err, key)
	}
}

func TestLoadChatProfileFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Sam Rivera\ncompanies:\n  - Acme\n"), 0o600))

	profile, err := LoadChatProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "Sam Rivera", profile.Name)
	assert.Equal(t, []string{"Acme"}, profile.Companies)
	assert.Equal(t, DefaultChatProfile().Personality, profile.Personality)
}

func TestLoadChatProfileEnvOverride(t *testing.T) {
	t.Setenv("FOLIO_CHAT_NAME", "Env Person")

	profile, err := LoadChatProfile("")
	require.NoError(t, err)
	assert.Equal(t, "Env Person", profile.Name)
}

func TestLoadChatProfileMissingFile(t *testing.T) {
	_, err := LoadChatProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
