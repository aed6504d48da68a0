package dataflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/dyike/manbo/internal/logger"
	"github.com/dyike/manbo/internal/models"
)

const (
	FinnhubBaseURL = "https://finnhub.io/api/v1"
	// free tier allowance
	DefaultFinnhubPerMinute = 60
)

// ErrMissingAPIKey is returned when a keyed provider has no credentials.
var ErrMissingAPIKey = errors.New("finnhub API key not configured")

// FinnhubClient handles Finnhub API operations
type FinnhubClient struct {
	client  *resty.Client
	cache   *CacheManager
	limiter *rate.Limiter
	apiKey  string
	log     *logger.Logger
}

// FinnhubOption configures the client
type FinnhubOption func(*FinnhubClient)

// WithFinnhubBaseURL points the client at another host (tests, proxies).
func WithFinnhubBaseURL(baseURL string) FinnhubOption {
	return func(fc *FinnhubClient) {
		fc.client.SetBaseURL(baseURL)
	}
}

// WithFinnhubRateLimit sets the allowed requests per minute.
func WithFinnhubRateLimit(perMinute int) FinnhubOption {
	return func(fc *FinnhubClient) {
		if perMinute > 0 {
			fc.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
		}
	}
}

// WithFinnhubLogger sets the logger
func WithFinnhubLogger(l *logger.Logger) FinnhubOption {
	return func(fc *FinnhubClient) {
		fc.log = logger.OrSilent(l).Component("finnhub")
	}
}

// NewFinnhubClient creates a new Finnhub client
func NewFinnhubClient(config *Config, opts ...FinnhubOption) *FinnhubClient {
	cacheDir := filepath.Join(config.DataCacheDir, "finnhub")
	cache := NewCacheManager(cacheDir, 6*time.Hour, config.CacheEnabled)

	client := resty.New()
	client.SetBaseURL(FinnhubBaseURL)
	client.SetTimeout(config.RequestTimeout)

	fc := &FinnhubClient{
		client: client,
		cache:  cache,
		apiKey: config.FinnhubAPIKey,
		log:    logger.NewSilent(),
	}
	WithFinnhubRateLimit(DefaultFinnhubPerMinute)(fc)
	if config.FinnhubRateLimit > 0 {
		WithFinnhubRateLimit(config.FinnhubRateLimit)(fc)
	}
	for _, opt := range opts {
		opt(fc)
	}
	return fc
}

func (fc *FinnhubClient) Name() string { return "finnhub" }

// FetchCandles requests raw daily candles. A "no_data" payload is returned as is.
func (fc *FinnhubClient) FetchCandles(ctx context.Context, symbol string, from, to time.Time) (FinnhubCandles, error) {
	if fc.apiKey == "" {
		return FinnhubCandles{}, ErrMissingAPIKey
	}
	if err := fc.limiter.Wait(ctx); err != nil {
		return FinnhubCandles{}, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := fc.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":     symbol,
			"resolution": "D",
			"from":       strconv.FormatInt(from.Unix(), 10),
			"to":         strconv.FormatInt(to.Unix(), 10),
			"token":      fc.apiKey,
		}).
		Get("/stock/candle")
	if err != nil {
		return FinnhubCandles{}, fmt.Errorf("failed to fetch candles: %w", err)
	}

	if resp.StatusCode() != 200 {
		return FinnhubCandles{}, fmt.Errorf("finnhub API error: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	var candles FinnhubCandles
	if err := json.Unmarshal(resp.Body(), &candles); err != nil {
		return FinnhubCandles{}, fmt.Errorf("failed to parse candles: %w", err)
	}
	return candles, nil
}

// DailyCandles implements CandleProvider.
func (fc *FinnhubClient) DailyCandles(ctx context.Context, symbol string, market models.Market, from, to time.Time) ([]models.Candle, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	cacheKey := map[string]interface{}{
		"symbol": symbol,
		"from":   from.Format(time.DateOnly),
		"to":     to.Format(time.DateOnly),
	}

	var raw FinnhubCandles
	if !fc.cache.Get("finnhub", "candles", cacheKey, &raw) {
		var err error
		raw, err = fc.FetchCandles(ctx, symbol, from, to)
		if err != nil {
			return nil, err
		}
		if err := fc.cache.Set("finnhub", "candles", cacheKey, raw); err != nil {
			fc.log.Debug().Err(err).Msg("cache write failed")
		}
	}

	if raw.NoData() {
		fc.log.Debug().Str("symbol", symbol).Str("status", raw.Status).Msg("no candle data")
	}
	return CandlesFromFinnhub(raw), nil
}
