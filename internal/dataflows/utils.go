package dataflows

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dyike/manbo/internal/models"
)

// CacheManager handles file-based caching for data
type CacheManager struct {
	cacheDir     string
	ttl          time.Duration
	cacheEnabled bool
}

// NewCacheManager creates a new cache manager
func NewCacheManager(cacheDir string, ttl time.Duration, cacheEnabled bool) *CacheManager {
	return &CacheManager{
		cacheDir:     cacheDir,
		ttl:          ttl,
		cacheEnabled: cacheEnabled && cacheDir != "",
	}
}

func (cm *CacheManager) getCacheKey(source, method string, params interface{}) string {
	data, _ := json.Marshal(params)
	hash := md5.Sum(data)
	return fmt.Sprintf("%s_%s_%x.json", source, method, hash)
}

// Get retrieves data from cache if not expired
func (cm *CacheManager) Get(source, method string, params interface{}, result interface{}) bool {
	if !cm.cacheEnabled {
		return false
	}

	filePath := filepath.Join(cm.cacheDir, cm.getCacheKey(source, method, params))

	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}

	if time.Since(info.ModTime()) > cm.ttl {
		os.Remove(filePath)
		return false
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return false
	}

	return json.Unmarshal(data, result) == nil
}

// Set stores data in cache
func (cm *CacheManager) Set(source, method string, params interface{}, data interface{}) error {
	if !cm.cacheEnabled {
		return nil
	}

	filePath := filepath.Join(cm.cacheDir, cm.getCacheKey(source, method, params))

	if err := os.MkdirAll(cm.cacheDir, 0o755); err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filePath, jsonData, 0o644)
}

// RetryConfig configures retry behavior for market data providers.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultRetryConfig returns sensible retry defaults
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
	}
}

// WithRetry executes fn with exponential backoff until it succeeds, the
// retries are exhausted, or ctx is done.
func WithRetry(ctx context.Context, config *RetryConfig, fn func() error) error {
	var lastErr error
	delay := config.BaseDelay

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * config.Multiplier)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}

		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

var symbolRe = regexp.MustCompile(`^[A-Z0-9.\-]+$`)

// ValidateSymbol checks if a stock symbol is valid format
func ValidateSymbol(symbol string) error {
	symbol = NormalizeSymbol(symbol)
	if len(symbol) == 0 {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 12 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !symbolRe.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// NormalizeSymbol converts symbol to standard format
func NormalizeSymbol(symbol string) string {
	return strings.TrimSpace(strings.ToUpper(symbol))
}

// splitSuffix separates "700.HK" into ("700", "HK").
func splitSuffix(symbol string) (string, string) {
	if i := strings.LastIndex(symbol, "."); i > 0 {
		return symbol[:i], symbol[i+1:]
	}
	return symbol, ""
}

// YahooSymbol maps a user symbol to Yahoo Finance notation
// (AAPL, 600519.SS, 000001.SZ, 0700.HK).
func YahooSymbol(symbol string, market models.Market) string {
	symbol = NormalizeSymbol(symbol)
	code, suffix := splitSuffix(symbol)
	switch market {
	case models.MarketCN:
		switch suffix {
		case "SS", "SZ":
			return symbol
		case "SH":
			return code + ".SS"
		}
		if strings.HasPrefix(code, "6") || strings.HasPrefix(code, "9") {
			return code + ".SS"
		}
		return code + ".SZ"
	case models.MarketHK:
		code = strings.TrimLeft(code, "0")
		if len(code) < 4 {
			code = strings.Repeat("0", 4-len(code)) + code
		}
		return code + ".HK"
	default:
		if suffix == "US" {
			return code
		}
		return symbol
	}
}

// LongportSymbol maps a user symbol to Longport notation (AAPL.US, 700.HK, 600519.SH).
func LongportSymbol(symbol string, market models.Market) string {
	symbol = NormalizeSymbol(symbol)
	code, suffix := splitSuffix(symbol)
	switch market {
	case models.MarketHK:
		code = strings.TrimLeft(code, "0")
		if code == "" {
			code = "0"
		}
		return code + ".HK"
	case models.MarketCN:
		switch suffix {
		case "SH", "SZ":
			return symbol
		case "SS":
			return code + ".SH"
		}
		if strings.HasPrefix(code, "6") || strings.HasPrefix(code, "9") {
			return code + ".SH"
		}
		return code + ".SZ"
	default:
		return code + ".US"
	}
}

// ParseDateString parses common date formats
func ParseDateString(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	formats := []string{
		time.DateOnly,
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006/01/02",
		"20060102",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
