package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// DefaultGeneratorBaseURL is the Gemini REST endpoint.
const DefaultGeneratorBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// DefaultGeneratorModels is the model fallback order tried until one answers.
var DefaultGeneratorModels = []string{
	"gemini-2.0-flash",
	"gemini-2.0-flash-001",
	"gemini-2.0-flash-lite",
	"gemini-2.0-pro-exp",
	"gemini-flash-latest",
	"gemini-pro-latest",
}

// Config holds application configuration.
type Config struct {
	// QuoteMaxChars is the maximum character count for saved quote text
	QuoteMaxChars int `json:"quote_max_chars"`

	// DefaultCategory is used when a request names no category.
	DefaultCategory string `json:"default_category,omitempty"`

	// GeneratorBaseURL is the base of the generateContent REST API.
	GeneratorBaseURL string `json:"generator_base_url,omitempty"`

	// GeneratorModels is the ordered list of models to try.
	// An overlay list replaces the base list; order matters so lists are not merged.
	GeneratorModels []string `json:"generator_models,omitempty"`

	// GeneratorAPIKeyEnv names the environment variable holding the API key.
	// The key itself is never stored in config files.
	GeneratorAPIKeyEnv string `json:"generator_api_key_env,omitempty"`

	// GeneratorTimeoutSeconds bounds a single generateContent call.
	GeneratorTimeoutSeconds int `json:"generator_timeout_seconds,omitempty"`

	// GeneratorMaxRetries is how many times a 503 from one model is retried.
	GeneratorMaxRetries int `json:"generator_max_retries,omitempty"`

	// RecentQuoteMemory is how many recent quotes are remembered for repeat suppression.
	RecentQuoteMemory int `json:"recent_quote_memory,omitempty"`

	// ServerURL is where `muse ui` reaches the HTTP API.
	ServerURL string `json:"server_url,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.muse/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// When true, any directory is allowed (but symlink and extension checks still apply).
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		QuoteMaxChars:           1000,
		DefaultCategory:         "motivation",
		GeneratorBaseURL:        DefaultGeneratorBaseURL,
		GeneratorModels:         append([]string(nil), DefaultGeneratorModels...),
		GeneratorAPIKeyEnv:      "GEMINI_API_KEY",
		GeneratorTimeoutSeconds: 30,
		GeneratorMaxRetries:     3,
		RecentQuoteMemory:       32,
		ServerURL:               "http://127.0.0.1:8000",
		LogLevel:                "info",
	}
}

// APIKey returns the generator API key from the configured environment variable.
func (c *Config) APIKey() string {
	if c.GeneratorAPIKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.GeneratorAPIKeyEnv))
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.muse.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.muse) and project (.muse) directories.
// The project config is found by walking upward from startDir to the nearest .muse/config.json.
// Project config takes precedence for scalar values; arrays are merged (deduplicated).
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .muse/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".muse", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated
// except GeneratorModels, which is replaced wholesale.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.QuoteMaxChars = pickInt(overlay.QuoteMaxChars, base.QuoteMaxChars)
	result.GeneratorTimeoutSeconds = pickInt(overlay.GeneratorTimeoutSeconds, base.GeneratorTimeoutSeconds)
	result.GeneratorMaxRetries = pickInt(overlay.GeneratorMaxRetries, base.GeneratorMaxRetries)
	result.RecentQuoteMemory = pickInt(overlay.RecentQuoteMemory, base.RecentQuoteMemory)
	result.DBMaxOpenConns = pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	result.DefaultCategory = pickString(overlay.DefaultCategory, base.DefaultCategory)
	result.GeneratorBaseURL = pickString(overlay.GeneratorBaseURL, base.GeneratorBaseURL)
	result.GeneratorAPIKeyEnv = pickString(overlay.GeneratorAPIKeyEnv, base.GeneratorAPIKeyEnv)
	result.ServerURL = pickString(overlay.ServerURL, base.ServerURL)
	result.LogLevel = pickString(overlay.LogLevel, base.LogLevel)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Ordered list: overlay replaces base when set
	result.GeneratorModels = mergeStringSlice(base.GeneratorModels, nil)
	if models := mergeStringSlice(overlay.GeneratorModels, nil); len(models) > 0 {
		result.GeneratorModels = models
	}

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func pickString(overlay, base string) string {
	if s := strings.TrimSpace(overlay); s != "" {
		return s
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
