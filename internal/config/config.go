// Package config loads the single JSON configuration file that selects the
// active store profile and carries the embedding/chat API keys.
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App           App           `mapstructure:"app"`
	Gemini        Gemini        `mapstructure:"gemini"`
	Store         Store         `mapstructure:"store"`
	Server        Server        `mapstructure:"server"`
	Collector     Collector     `mapstructure:"collector"`
	ImageSearch   ImageSearch   `mapstructure:"image_search"`
	Observability Observability `mapstructure:"observability"`
	Rundown       Rundown       `mapstructure:"rundown"`
}

// App holds general application configuration.
type App struct {
	LogLevel   string `mapstructure:"log_level"`
	ConfigFile string `mapstructure:"config_file"`
}

// Gemini holds the embedding/chat model configuration (§4.4, §4.6).
type Gemini struct {
	APIKey             string  `mapstructure:"api_key"`
	ChatModel          string  `mapstructure:"chat_model"`
	EmbeddingModel     string  `mapstructure:"embedding_model"`
	EmbeddingDimension int32   `mapstructure:"embedding_dimension"`
	Temperature        float32 `mapstructure:"temperature"`
	TopP               float32 `mapstructure:"top_p"`
	MaxOutputTokens    int32   `mapstructure:"max_output_tokens"`
}

// Store picks the active persistence profile: "local" (SQLite) or any
// other name, looked up in Profiles (Postgres connection string).
type Store struct {
	ActiveProfile string            `mapstructure:"active_profile"`
	LocalPath     string            `mapstructure:"local_path"`
	Profiles      map[string]string `mapstructure:"profiles"`
}

// Server holds the read API's HTTP configuration (C9, §6).
type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	CORS            CORSConfig    `mapstructure:"cors"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// CORSConfig configures the read API's cross-origin policy.
type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig throttles the read API: when Enabled, the server caps
// in-flight requests at 100. RequestsPerMinute is not read by the server.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

// Collector holds the homepage-crawl stage's network tunables (§5).
type Collector struct {
	UserAgent           string        `mapstructure:"user_agent"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout"`
	ImageCheckTimeout   time.Duration `mapstructure:"image_check_timeout"`
	ImageGetTimeout     time.Duration `mapstructure:"image_get_timeout"`
	ParseRetryBackoff   time.Duration `mapstructure:"parse_retry_backoff"`
	PerProviderDelay    time.Duration `mapstructure:"per_provider_delay"`
}

// ImageSearch is the external image-search collaborator's credentials,
// specified only via its interface per spec.md §6 (out of scope for the
// core pipeline itself).
type ImageSearch struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// Observability configures the optional PostHog digest-stage-transition
// telemetry.
type Observability struct {
	PostHog PostHogConfig `mapstructure:"posthog"`
}

// PostHogConfig is config-gated: Enabled must be true before APIKey is
// required.
type PostHogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Host    string `mapstructure:"host"`
}

// Rundown names the fixed set of category rundowns the summariser (C6)
// must fill in on every digest (§4.6).
type Rundown struct {
	Categories []string `mapstructure:"categories"`
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.Mutex
)

// Load reads the JSON config file at path (plus a local .env, if present)
// into the package-level singleton and returns it.
func Load(path string) (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	_ = godotenv.Load() // best-effort; absence is not an error

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	setDefaults(v)
	v.AutomaticEnv()
	bindEnvironmentVariables(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := validate(&c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg = &c
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("gemini.chat_model", "gemini-flash-lite-latest")
	v.SetDefault("gemini.embedding_model", "gemini-embedding-001")
	v.SetDefault("gemini.embedding_dimension", int32(768))
	v.SetDefault("gemini.temperature", float32(1.0))
	v.SetDefault("gemini.top_p", float32(1.0))
	v.SetDefault("gemini.max_output_tokens", int32(2048))
	v.SetDefault("store.active_profile", "local")
	v.SetDefault("store.local_path", "./data")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.refresh_interval", 600*time.Second)
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.requests_per_minute", 100)
	v.SetDefault("collector.user_agent", "newsdigest-collector/1.0")
	v.SetDefault("collector.fetch_timeout", 10*time.Second)
	v.SetDefault("collector.image_check_timeout", 5*time.Second)
	v.SetDefault("collector.image_get_timeout", 3*time.Second)
	v.SetDefault("collector.parse_retry_backoff", 2*time.Second)
	v.SetDefault("collector.per_provider_delay", 100*time.Millisecond)
	v.SetDefault("rundown.categories", []string{"Daily News", "Australian News", "US News"})
}

func bindEnvironmentVariables(v *viper.Viper) {
	bindings := map[string][]string{
		"gemini.api_key":       {"GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY", "GOOGLE_AI_API_KEY"},
		"image_search.api_key": {"IMAGE_SEARCH_API_KEY"},
		"observability.posthog.api_key": {"POSTHOG_API_KEY"},
	}
	for key, envs := range bindings {
		for _, e := range envs {
			if val := os.Getenv(e); val != "" {
				v.Set(key, val)
				break
			}
		}
	}
}

func validate(c *Config) error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini.api_key is required (set GEMINI_API_KEY or the config field)")
	}
	if c.Store.ActiveProfile == "" {
		return fmt.Errorf("store.active_profile is required")
	}
	if c.Store.ActiveProfile != "local" {
		if _, ok := c.Store.Profiles[c.Store.ActiveProfile]; !ok {
			return fmt.Errorf("store.active_profile %q has no entry in store.profiles", c.Store.ActiveProfile)
		}
	}
	if c.Observability.PostHog.Enabled && c.Observability.PostHog.APIKey == "" {
		return fmt.Errorf("observability.posthog.api_key is required when posthog is enabled")
	}
	return nil
}

// Get returns the loaded singleton. Panics if Load has not succeeded yet,
// matching the teacher's singleton-access contract.
func Get() *Config {
	once.Do(func() {
		if cfg == nil {
			panic("config: Get called before a successful Load")
		}
	})
	return cfg
}

// Reset clears the singleton; used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cfg = nil
	once = sync.Once{}
}
