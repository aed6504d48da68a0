package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	ProjectDir   string `yaml:"project_dir" json:"project_dir"`
	ResultsDir   string `yaml:"results_dir" json:"results_dir"`
	DataCacheDir string `yaml:"data_cache_dir" json:"data_cache_dir"`

	BackendURL     string        `yaml:"backend_url" json:"backend_url" validate:"required,url"`
	PollInterval   time.Duration `yaml:"poll_interval" json:"poll_interval" validate:"min=100ms,max=1m"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout" validate:"min=1s"`

	// Defaults offered by the analyze command and the interactive form.
	DefaultMarket         string `yaml:"default_market" json:"default_market" validate:"required"`
	DefaultResearchDepth  int    `yaml:"default_research_depth" json:"default_research_depth" validate:"min=1,max=5"`
	DefaultLLMProvider    string `yaml:"default_llm_provider" json:"default_llm_provider"`
	IncludeNews           bool   `yaml:"include_news" json:"include_news"`
	IncludeSocial         bool   `yaml:"include_social" json:"include_social"`
	IncludeRiskAssessment bool   `yaml:"include_risk_assessment" json:"include_risk_assessment"`

	ChartDays    int  `yaml:"chart_days" json:"chart_days" validate:"min=5,max=730"`
	CacheEnabled bool `yaml:"cache_enabled" json:"cache_enabled"`

	LogLevel string `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Debug    bool   `yaml:"debug" json:"debug"`

	// Market data credentials. Usually supplied through the environment.
	FinnhubAPIKey       string `yaml:"finnhub_api_key,omitempty" json:"finnhub_api_key,omitempty"`
	FinnhubRateLimit    int    `yaml:"finnhub_rate_limit" json:"finnhub_rate_limit" validate:"min=1"`
	LongportAppKey      string `yaml:"longport_app_key,omitempty" json:"longport_app_key,omitempty"`
	LongportAppSecret   string `yaml:"longport_app_secret,omitempty" json:"longport_app_secret,omitempty"`
	LongportAccessToken string `yaml:"longport_access_token,omitempty" json:"longport_access_token,omitempty"`
}

// DefaultConfig returns defaults rooted at the working directory, overlaid
// with .env and process environment values.
func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(currentDir)
	LoadDotEnv()
	cfg.ApplyEnv()
	return cfg
}

// LoadDotEnv loads variables from the given files, or .env in the working
// directory. Variables already set in the process win. Missing files are ignored.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// DefaultConfigWithRoot returns the built-in defaults with data directories under root.
func DefaultConfigWithRoot(root string) *Config {
	return &Config{
		ProjectDir:   root,
		ResultsDir:   filepath.Join(root, "results"),
		DataCacheDir: filepath.Join(root, "data", "cache"),

		BackendURL:     "http://localhost:5000",
		PollInterval:   2 * time.Second,
		RequestTimeout: 30 * time.Second,

		DefaultMarket:         "美股",
		DefaultResearchDepth:  3,
		DefaultLLMProvider:    "",
		IncludeNews:           true,
		IncludeSocial:         true,
		IncludeRiskAssessment: true,

		ChartDays:    90,
		CacheEnabled: true,

		LogLevel: "info",

		FinnhubRateLimit: 60,
	}
}

// ApplyEnv overrides fields with MANBO_* and provider environment variables.
func (c *Config) ApplyEnv() {
	if val := os.Getenv("MANBO_PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("MANBO_RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}
	if val := os.Getenv("MANBO_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}

	if val := os.Getenv("MANBO_BACKEND_URL"); val != "" {
		c.BackendURL = val
	} else if val := os.Getenv("BACKEND_URL"); val != "" {
		c.BackendURL = val
	}
	if val := os.Getenv("MANBO_POLL_INTERVAL"); val != "" {
		if d, err := parseDurationOrMillis(val); err == nil {
			c.PollInterval = d
		}
	}
	if val := os.Getenv("MANBO_REQUEST_TIMEOUT"); val != "" {
		if d, err := parseDurationOrMillis(val); err == nil {
			c.RequestTimeout = d
		}
	}

	if val := os.Getenv("MANBO_DEFAULT_MARKET"); val != "" {
		c.DefaultMarket = val
	}
	if val := os.Getenv("MANBO_RESEARCH_DEPTH"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.DefaultResearchDepth = v
		}
	}
	if val := os.Getenv("MANBO_LLM_PROVIDER"); val != "" {
		c.DefaultLLMProvider = val
	}

	if val := os.Getenv("MANBO_CHART_DAYS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.ChartDays = v
		}
	}
	if val := os.Getenv("MANBO_CACHE_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = enabled
		}
	}

	if val := os.Getenv("MANBO_LOG_LEVEL"); val != "" {
		c.LogLevel = strings.ToLower(val)
	}
	if val := os.Getenv("MANBO_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}

	if val := os.Getenv("MANBO_FINNHUB_API_KEY"); val != "" {
		c.FinnhubAPIKey = val
	} else if val := os.Getenv("FINNHUB_API_KEY"); val != "" {
		c.FinnhubAPIKey = val
	}
	if val := os.Getenv("MANBO_FINNHUB_RATE_LIMIT"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.FinnhubRateLimit = v
		}
	}
	if val := os.Getenv("LONGPORT_APP_KEY"); val != "" {
		c.LongportAppKey = val
	}
	if val := os.Getenv("LONGPORT_APP_SECRET"); val != "" {
		c.LongportAppSecret = val
	}
	if val := os.Getenv("LONGPORT_ACCESS_TOKEN"); val != "" {
		c.LongportAccessToken = val
	}
}

// parseDurationOrMillis accepts "2s" style durations or a bare millisecond count.
func parseDurationOrMillis(val string) (time.Duration, error) {
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(val)
}

var validate = validator.New()

// Validate checks field bounds and returns the first violations as one error.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// HasFinnhub reports whether Finnhub candles can be requested.
func (c *Config) HasFinnhub() bool { return c.FinnhubAPIKey != "" }

// HasLongport reports whether all three Longport credentials are present.
func (c *Config) HasLongport() bool {
	return c.LongportAppKey != "" && c.LongportAppSecret != "" && c.LongportAccessToken != ""
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.ResultsDir, c.DataCacheDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
