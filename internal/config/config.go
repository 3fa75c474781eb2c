// Package config loads the process-wide settings once at start-up.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	PolicyPassthrough = "passthrough"
	PolicyStrict      = "strict"
)

var defaultModels = map[string]string{
	ProviderGemini:    "gemini-2.5-pro",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-haiku-4-5",
}

var apiKeyEnv = map[string]string{
	ProviderGemini:    "GEMINI_API_KEY",
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// DefaultFeeds is used when the profile file is missing or lists no feeds.
var DefaultFeeds = []string{
	"https://news.ycombinator.com/rss",
	"https://astralcodexten.substack.com/feed",
	"https://aella.substack.com/feed",
	"https://feeds.feedburner.com/marginalrevolution/feed",
	"https://www.lesswrong.com/feed.xml?view=curated-rss",
	"https://www.indiehackers.com/feed",
	"https://spacenews.com/feed/",
	"https://www.politico.eu/feed/",
	"https://www.euractiv.com/feed/",
}

// DefaultInterests is used when the profile file has no interests.
const DefaultInterests = `I am looking for high-signal content. My specific interests are:

1. HARD TECH & AI: LLMs, agents, code, open-source models, and technical breakthroughs.
2. THE FUTURE: Transhumanism, longevity, biohacking, and space colonization (SpaceX, Starship, Mars).
3. BUSINESS: Bootstrapped startups, indie hacking, SaaS metrics, interesting VC-backed companies.
4. SOCIOLOGY & DATA: Unconventional social studies, evolutionary psychology, prediction markets, and contrarian takes on society.
5. GEOPOLITICS: Specifically European strategic autonomy, EU defense, and macro-political shifts in Europe.

EXCLUDE: Generic gadget reviews (iPhone rumors), celebrity gossip, sports, partisan US domestic politics (unless it affects global tech), and crypto shitcoins (unless technical blockchain innovation).`

type Config struct {
	// Sources
	ProfilePath string
	Feeds       []string
	Interests   string

	// Language model settings
	Provider         string
	Model            string
	APIKey           string
	MaxModelRequests int // model calls per run (0 = unlimited)

	// Pipeline bounds
	MaxItemsPerFeed    int
	SelectMin          int
	SelectMax          int
	FallbackCount      int
	SelectionPolicy    string // passthrough | strict
	FeedConcurrency    int
	ExtractConcurrency int
	RequestTimeout     time.Duration

	// Output
	OutputPath     string
	S3Bucket       string
	S3Key          string
	S3Region       string
	TelegramToken  string
	TelegramChatID string
	PublicURL      string

	Debug bool
}

// Profile is the YAML file with the feed list and interest profile.
//
//	feeds:
//	  - https://...
//	interests: |
//	  ...
type Profile struct {
	Feeds     []string `yaml:"feeds"`
	Interests string   `yaml:"interests"`
}

// Load builds the Config from defaults, the environment and the profile file.
func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		ProfilePath:        "configs/digest.yaml",
		Provider:           ProviderGemini,
		MaxModelRequests:   2,
		MaxItemsPerFeed:    10,
		SelectMin:          10,
		SelectMax:          15,
		FallbackCount:      5,
		SelectionPolicy:    PolicyPassthrough,
		FeedConcurrency:    1,
		ExtractConcurrency: 1,
		RequestTimeout:     30 * time.Second,
		OutputPath:         "index.html",
		S3Key:              "index.html",
	}

	cfg.ProfilePath = getEnvOrDefault("DIGEST_CONFIG", cfg.ProfilePath)
	cfg.Provider = strings.ToLower(getEnvOrDefault("LLM_PROVIDER", cfg.Provider))
	cfg.Model = os.Getenv("LLM_MODEL")
	if cfg.Model == "" {
		cfg.Model = defaultModels[cfg.Provider]
	}
	if env, ok := apiKeyEnv[cfg.Provider]; ok {
		cfg.APIKey = os.Getenv(env)
	}

	var err error
	ints := []struct {
		key string
		dst *int
		min int
	}{
		{"MAX_MODEL_REQUESTS", &cfg.MaxModelRequests, 0},
		{"MAX_ITEMS_PER_FEED", &cfg.MaxItemsPerFeed, 1},
		{"SELECT_MIN", &cfg.SelectMin, 1},
		{"SELECT_MAX", &cfg.SelectMax, 1},
		{"FALLBACK_COUNT", &cfg.FallbackCount, 1},
		{"FEED_CONCURRENCY", &cfg.FeedConcurrency, 1},
		{"EXTRACT_CONCURRENCY", &cfg.ExtractConcurrency, 1},
	}
	for _, v := range ints {
		if *v.dst, err = getEnvInt(v.key, *v.dst, v.min); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("REQUEST_TIMEOUT must be a positive duration, got %q", v)
		}
		cfg.RequestTimeout = d
	}

	cfg.SelectionPolicy = strings.ToLower(getEnvOrDefault("SELECTION_POLICY", cfg.SelectionPolicy))
	cfg.OutputPath = getEnvOrDefault("OUTPUT_PATH", cfg.OutputPath)
	cfg.S3Bucket = os.Getenv("S3_BUCKET")
	cfg.S3Key = getEnvOrDefault("S3_KEY", cfg.S3Key)
	cfg.S3Region = os.Getenv("S3_REGION")
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.PublicURL = os.Getenv("DIGEST_PUBLIC_URL")

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	profile, err := LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, err
	}
	cfg.Feeds = profile.Feeds
	cfg.Interests = profile.Interests

	return cfg, cfg.Validate()
}

// LoadProfile reads the feed list and interest profile from a YAML file.
// A missing file, or missing fields, fall back to the built-in defaults.
func LoadProfile(path string) (*Profile, error) {
	profile := &Profile{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, profile); err != nil {
			return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
		}
	}

	if len(profile.Feeds) == 0 {
		profile.Feeds = append([]string(nil), DefaultFeeds...)
	}
	profile.Interests = strings.TrimSpace(profile.Interests)
	if profile.Interests == "" {
		profile.Interests = DefaultInterests
	}
	return profile, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue, min int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < min {
		return 0, fmt.Errorf("%s must be an integer >= %d, got %q", key, min, value)
	}
	return n, nil
}

func (c *Config) Validate() error {
	env, ok := apiKeyEnv[c.Provider]
	if !ok {
		return fmt.Errorf("LLM_PROVIDER must be one of gemini, openai, anthropic; got %q", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%s is required", env)
	}
	if c.SelectMin > c.SelectMax {
		return fmt.Errorf("SELECT_MIN (%d) must not exceed SELECT_MAX (%d)", c.SelectMin, c.SelectMax)
	}
	if c.SelectionPolicy != PolicyPassthrough && c.SelectionPolicy != PolicyStrict {
		return fmt.Errorf("SELECTION_POLICY must be 'passthrough' or 'strict'")
	}
	if len(c.Feeds) == 0 {
		return fmt.Errorf("at least one feed is required")
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == "") {
		return fmt.Errorf("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	return nil
}
