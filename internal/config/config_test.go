package config

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/raine/telegram-stamp-bot/internal/llm"
	"github.com/raine/telegram-stamp-bot/internal/maintenance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func requiredEnv() map[string]string {
	return map[string]string{
		EnvBotToken:        "123:abc",
		EnvGeminiAPIKey:    "gemini-key",
		EnvOwnerTelegramID: "4242",
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(requiredEnv()))
	require.NoError(t, err)
	assert.Equal(t, int64(4242), cfg.OwnerTelegramID)
	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, llm.DefaultModel, cfg.GeminiModel)
	assert.True(t, cfg.ScanDeepAnalysis)
	assert.Equal(t, 30*24*time.Hour, cfg.CacheMaxAge)
	assert.Equal(t, maintenance.DefaultCacheMaxAge, cfg.CacheMaxAge, "bot and pruner agree on the cache age")
}

func TestFromEnv_Overrides(t *testing.T) {
	env := requiredEnv()
	env[EnvDBPath] = "/var/lib/stamps/db.sqlite"
	env[EnvGeminiModel] = "gemini-2.5-pro"
	env[EnvScanDeepAnalysis] = "false"
	env[EnvCacheMaxAge] = "48h"

	cfg, err := FromEnv(envMap(env))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/stamps/db.sqlite", cfg.DBPath)
	assert.Equal(t, "gemini-2.5-pro", cfg.GeminiModel)
	assert.False(t, cfg.ScanDeepAnalysis)
	assert.Equal(t, 48*time.Hour, cfg.CacheMaxAge)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"owner not a number", EnvOwnerTelegramID, "me"},
		{"deep flag", EnvScanDeepAnalysis, "vielleicht"},
		{"cache age", EnvCacheMaxAge, "30 Tage"},
		{"negative cache age", EnvCacheMaxAge, "-1h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := requiredEnv()
			env[tt.key] = tt.val
			_, err := FromEnv(envMap(env))
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestMissingRequired(t *testing.T) {
	env := requiredEnv()
	delete(env, EnvGeminiAPIKey)
	assert.Equal(t, []string{EnvGeminiAPIKey}, MissingRequired(envMap(env)))

	_, err := FromEnv(envMap(env))
	assert.ErrorContains(t, err, EnvGeminiAPIKey)
}

func TestWriteEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), EnvFileName)
	values := map[string]string{
		EnvBotToken:        `123:a"b`,
		EnvOwnerTelegramID: "4242",
	}
	require.NoError(t, WriteEnvFile(path, values))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	read, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, values, read)
}

func TestValidateUserID(t *testing.T) {
	assert.NoError(t, validateUserID("123"))
	assert.Error(t, validateUserID(""))
	assert.Error(t, validateUserID("abc"))
}

func jsonServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestValidateTelegramToken(t *testing.T) {
	orig := telegramAPIURL
	t.Cleanup(func() { telegramAPIURL = orig })

	telegramAPIURL = jsonServer(t, http.StatusOK, `{"ok":true}`).URL
	assert.NoError(t, validateTelegramToken("123:abc"))

	telegramAPIURL = jsonServer(t, http.StatusUnauthorized, `{"ok":false,"description":"Unauthorized"}`).URL
	assert.EqualError(t, validateTelegramToken("bad"), "Unauthorized")
}

func TestValidateGeminiKey(t *testing.T) {
	orig := geminiAPIURL
	t.Cleanup(func() { geminiAPIURL = orig })

	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()
	geminiAPIURL = srv.URL
	assert.NoError(t, validateGeminiKey("k+y"))
	assert.Equal(t, "k+y", gotKey)

	geminiAPIURL = jsonServer(t, http.StatusBadRequest, `{"error":{"message":"API key not valid"}}`).URL
	assert.EqualError(t, validateGeminiKey("bad"), "API key not valid")

	geminiAPIURL = jsonServer(t, http.StatusInternalServerError, `{}`).URL
	assert.ErrorContains(t, validateGeminiKey("k"), "HTTP 500")
}
