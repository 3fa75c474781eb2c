package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "digest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DIGEST_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("GEMINI_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "gemini-2.5-pro", cfg.Model)
	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, DefaultFeeds, cfg.Feeds)
	assert.Equal(t, DefaultInterests, cfg.Interests)
	assert.Equal(t, 10, cfg.MaxItemsPerFeed)
	assert.Equal(t, 10, cfg.SelectMin)
	assert.Equal(t, 15, cfg.SelectMax)
	assert.Equal(t, 5, cfg.FallbackCount)
	assert.Equal(t, PolicyPassthrough, cfg.SelectionPolicy)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "index.html", cfg.OutputPath)
}

func TestLoad_MissingCredential(t *testing.T) {
	t.Setenv("DIGEST_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoad_ProviderAndOverrides(t *testing.T) {
	path := writeProfile(t, "feeds:\n  - https://a.example/rss\n  - https://b.example/rss\ninterests: |\n  space and rockets\n")
	t.Setenv("DIGEST_CONFIG", path)
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MAX_ITEMS_PER_FEED", "3")
	t.Setenv("SELECTION_POLICY", "strict")
	t.Setenv("REQUEST_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, []string{"https://a.example/rss", "https://b.example/rss"}, cfg.Feeds)
	assert.Equal(t, "space and rockets", cfg.Interests)
	assert.Equal(t, 3, cfg.MaxItemsPerFeed)
	assert.Equal(t, PolicyStrict, cfg.SelectionPolicy)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown provider", env: map[string]string{"LLM_PROVIDER": "cohere"}},
		{name: "non numeric cap", env: map[string]string{"MAX_ITEMS_PER_FEED": "ten"}},
		{name: "zero fallback", env: map[string]string{"FALLBACK_COUNT": "0"}},
		{name: "inverted range", env: map[string]string{"SELECT_MIN": "20", "SELECT_MAX": "5"}},
		{name: "bad policy", env: map[string]string{"SELECTION_POLICY": "maybe"}},
		{name: "bad timeout", env: map[string]string{"REQUEST_TIMEOUT": "soon"}},
		{name: "half telegram", env: map[string]string{"TELEGRAM_TOKEN": "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DIGEST_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			t.Setenv("LLM_PROVIDER", "")
			t.Setenv("GEMINI_API_KEY", "key")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadProfile_BrokenYAML(t *testing.T) {
	path := writeProfile(t, "feeds: [unterminated")

	_, err := LoadProfile(path)
	assert.Error(t, err)
}

func TestLoadProfile_EmptyFieldsUseDefaults(t *testing.T) {
	path := writeProfile(t, "interests: \"\"\n")

	profile, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultFeeds, profile.Feeds)
	assert.Equal(t, DefaultInterests, profile.Interests)
}
