package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// LiteEnvPrefix prefixes every lite setting read from the environment.
const LiteEnvPrefix = "NARRATIVE"

// LiteConfig configures the standalone MCP server: SQLite feedback, an in-process cache and
// no external services unless a completion key is present.
type LiteConfig struct {
	DataDir string

	CacheMaxItems int
	CacheTTL      time.Duration

	// An empty key disables generative composition.
	CompletionAPIKey string
	CompletionModel  string

	Transport string
	LogLevel  string
	LogFormat string
}

func DefaultLiteConfig() *LiteConfig {
	home, _ := os.UserHomeDir()
	return &LiteConfig{
		DataDir:         filepath.Join(home, ".nursing-narrative"),
		CacheMaxItems:   1000,
		CacheTTL:        time.Hour,
		CompletionModel: "claude-sonnet-4-20250514",
		Transport:       "stdio",
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// LoadLiteConfig overlays NARRATIVE_* variables and ANTHROPIC_API_KEY on the defaults.
// Non-positive or unparseable cache settings keep their defaults.
func LoadLiteConfig() *LiteConfig {
	def := DefaultLiteConfig()

	v := viper.New()
	v.SetEnvPrefix(LiteEnvPrefix)
	v.AutomaticEnv()
	_ = v.BindEnv("completion_api_key", "ANTHROPIC_API_KEY")

	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("completion_model", def.CompletionModel)
	v.SetDefault("transport", def.Transport)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)

	cfg := &LiteConfig{
		DataDir:          v.GetString("data_dir"),
		CacheMaxItems:    def.CacheMaxItems,
		CacheTTL:         def.CacheTTL,
		CompletionAPIKey: v.GetString("completion_api_key"),
		CompletionModel:  v.GetString("completion_model"),
		Transport:        v.GetString("transport"),
		LogLevel:         v.GetString("log_level"),
		LogFormat:        v.GetString("log_format"),
	}
	if n := v.GetInt("cache_max_items"); n > 0 {
		cfg.CacheMaxItems = n
	}
	if d := v.GetDuration("cache_ttl"); d > 0 {
		cfg.CacheTTL = d
	}
	return cfg
}

func (c *LiteConfig) FeedbackDBPath() string {
	return filepath.Join(c.DataDir, "feedback.db")
}

func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates DataDir and its exports directory.
func (c *LiteConfig) EnsureDataDir() error {
	return os.MkdirAll(c.ExportDir(), 0o755)
}

// CompletionConfig maps the lite settings onto the shared completion configuration with
// conservative limits for a single desktop user.
func (c *LiteConfig) CompletionConfig() domain.CompletionConfig {
	return domain.CompletionConfig{
		Enabled:     c.CompletionAPIKey != "",
		APIKey:      c.CompletionAPIKey,
		Model:       c.CompletionModel,
		MaxTokens:   2048,
		Timeout:     time.Minute,
		RateLimit:   2,
		Burst:       1,
		MaxFailures: 3,
		OpenTimeout: 30 * time.Second,
	}
}
