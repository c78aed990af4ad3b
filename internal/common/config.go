package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/ratio/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	Degiro      DegiroConfig  `toml:"degiro"`
	Gemini      GeminiConfig  `toml:"gemini"`
	Claude      ClaudeConfig  `toml:"claude"`
	LLM         LLMConfig     `toml:"llm"`
	Reports     ReportsConfig `toml:"reports"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`

	// KeysFile is a TOML file of API keys and credentials seeded into the
	// KV store at startup. Each [section] carries value and description.
	KeysFile string `toml:"keys_file"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// DegiroConfig contains Degiro trading platform API configuration
type DegiroConfig struct {
	Username       string        `toml:"username"`        // Degiro account username
	Password       string        `toml:"password"`        // Degiro account password (prefer RATIO_DEGIRO_PASSWORD env var)
	BaseURL        string        `toml:"base_url"`        // API base URL (default: "https://trader.degiro.nl")
	RateLimit      time.Duration `toml:"rate_limit"`      // Minimum time between API requests
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
	UserAgent      string        `toml:"user_agent"`      // User agent string for API requests
	SearchLimit    int           `toml:"search_limit"`    // Max products returned per search (default: 10)
}

// GeminiConfig contains Google Gemini API configuration for narrative generation
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for AI operations (default: "gemini-3-flash-preview")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 1000)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// ClaudeConfig contains Anthropic Claude API configuration for narrative generation
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key for Claude operations
	Model       string  `toml:"model"`       // Model for AI operations (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 1000)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // Default provider: "claude" or "gemini" (default: "claude")
	Enabled         bool        `toml:"enabled"`          // Enable AI narrative generation (default: true)
}

// ReportsConfig contains configuration for report generation output
type ReportsConfig struct {
	OutputDir    string `toml:"output_dir"`    // Directory for generated PDFs and the data snapshot
	SettingsFile string `toml:"settings_file"` // Path to the prompt/settings file (default: "./api_settings.json")
	CacheTTL     string `toml:"cache_ttl"`     // Provider document cache lifetime as duration string (default: "24h")
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in ratio.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development", // Default to development mode
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
			KeysFile: "./keys.toml",
		},
		Logging: LoggingConfig{
			Level:  "info",                     // Info level for production (debug|info|warn|error)
			Format: "text",                     // Human-readable text format (text|json)
			Output: []string{"stdout", "file"}, // Log to both console and file
		},
		Degiro: DegiroConfig{
			Username:       "", // User must provide credentials in config or env
			Password:       "",
			BaseURL:        "https://trader.degiro.nl",
			RateLimit:      1 * time.Second, // 1 request per second to stay under platform throttling
			RequestTimeout: 30 * time.Second,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			SearchLimit:    10,
		},
		Gemini: GeminiConfig{
			APIKey:      "",                       // User must provide API key (GEMINI_API_KEY or config)
			Model:       "gemini-3-flash-preview", // Model for narrative generation
			MaxTokens:   1000,                     // Default max tokens per analysis
			Timeout:     "5m",                     // 5 minutes for operations
			RateLimit:   "4s",                     // Default to 4s (15 RPM) for free tier
			Temperature: 0.2,                      // Low temperature for factual analysis
		},
		Claude: ClaudeConfig{
			APIKey:      "",                          // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022", // Model for narrative generation
			MaxTokens:   1000,                        // Default max tokens per analysis
			Timeout:     "5m",                        // 5 minutes for operations
			RateLimit:   "1s",                        // Default rate limit
			Temperature: 0.2,                         // Low temperature for factual analysis
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
			Enabled:         true,
		},
		Reports: ReportsConfig{
			OutputDir:    ".",                   // Reports written to working directory by default
			SettingsFile: "./api_settings.json", // Prompt templates and sampling parameters
			CacheTTL:     "24h",                 // Provider documents cached for a day
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
// Priority system: CLI flags > Environment variables > Config file > Defaults
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files.
// Example: LoadFromFiles("base.toml", "override.toml") - override.toml settings take precedence over base.toml
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: RATIO_ENV, fallback: GO_ENV)
	if env := os.Getenv("RATIO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Storage configuration
	if badgerPath := os.Getenv("RATIO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if keysFile := os.Getenv("RATIO_KEYS_FILE"); keysFile != "" {
		config.Storage.KeysFile = keysFile
	}

	// Logging configuration
	if level := os.Getenv("RATIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("RATIO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("RATIO_LOG_OUTPUT"); output != "" {
		// Split comma-separated output types
		outputs := []string{}
		for _, o := range splitString(output, ",") {
			trimmed := trimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Degiro configuration
	if username := os.Getenv("RATIO_DEGIRO_USERNAME"); username != "" {
		config.Degiro.Username = username
	}
	if password := os.Getenv("RATIO_DEGIRO_PASSWORD"); password != "" {
		config.Degiro.Password = password
	}
	if baseURL := os.Getenv("RATIO_DEGIRO_BASE_URL"); baseURL != "" {
		config.Degiro.BaseURL = baseURL
	}
	if rateLimit := os.Getenv("RATIO_DEGIRO_RATE_LIMIT"); rateLimit != "" {
		if rl, err := time.ParseDuration(rateLimit); err == nil {
			config.Degiro.RateLimit = rl
		}
	}
	if requestTimeout := os.Getenv("RATIO_DEGIRO_REQUEST_TIMEOUT"); requestTimeout != "" {
		if rt, err := time.ParseDuration(requestTimeout); err == nil {
			config.Degiro.RequestTimeout = rt
		}
	}
	if userAgent := os.Getenv("RATIO_DEGIRO_USER_AGENT"); userAgent != "" {
		config.Degiro.UserAgent = userAgent
	}
	if searchLimit := os.Getenv("RATIO_DEGIRO_SEARCH_LIMIT"); searchLimit != "" {
		if sl, err := strconv.Atoi(searchLimit); err == nil && sl > 0 {
			config.Degiro.SearchLimit = sl
		}
	}

	// Gemini configuration
	// RATIO_ prefix takes priority over the standard GEMINI_API_KEY env var
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("RATIO_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("RATIO_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if maxTokens := os.Getenv("RATIO_GEMINI_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Gemini.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("RATIO_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if rateLimit := os.Getenv("RATIO_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}
	if temperature := os.Getenv("RATIO_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("RATIO_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // RATIO_ prefix takes priority
	}
	if model := os.Getenv("RATIO_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("RATIO_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("RATIO_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if rateLimit := os.Getenv("RATIO_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}
	if temperature := os.Getenv("RATIO_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("RATIO_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if enabled := os.Getenv("RATIO_LLM_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.LLM.Enabled = e
		}
	}

	// Reports configuration
	if outputDir := os.Getenv("RATIO_REPORTS_OUTPUT_DIR"); outputDir != "" {
		config.Reports.OutputDir = outputDir
	}
	if settingsFile := os.Getenv("RATIO_REPORTS_SETTINGS_FILE"); settingsFile != "" {
		config.Reports.SettingsFile = settingsFile
	}
	if cacheTTL := os.Getenv("RATIO_REPORTS_CACHE_TTL"); cacheTTL != "" {
		if _, err := time.ParseDuration(cacheTTL); err == nil {
			config.Reports.CacheTTL = cacheTTL
		}
	}
}

// ResolveAPIKey resolves an API key by name with environment variable priority
// Resolution order: environment variables → KV store → config fallback → error
// This ensures RATIO_* environment variables always take precedence
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	// Map of KV store key names to environment variable names
	// Environment variables have highest priority
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"RATIO_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"anthropic_api_key": {"RATIO_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
		"claude_api_key":    {"RATIO_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	}

	// Check environment variables (highest priority)
	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	// Try to resolve from KV store (medium priority)
	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	// Fallback to config value (lowest priority)
	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

// CacheTTLDuration parses the configured cache TTL, falling back to 24h on bad input
func (c *Config) CacheTTLDuration() time.Duration {
	if c.Reports.CacheTTL == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(c.Reports.CacheTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// Helper functions for string manipulation
func splitString(s, sep string) []string {
	result := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if i+len(sep) <= len(s) && s[i:i+len(sep)] == sep {
			result = append(result, s[start:i])
			start = i + len(sep)
			i = start - 1
		}
	}
	result = append(result, s[start:])
	return result
}

func trimSpace(s string) string {
	start := 0
	end := len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
