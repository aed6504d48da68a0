package dataflows

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"github.com/dyike/manbo/internal/models"
)

// YahooFinanceClient handles Yahoo Finance data operations
type YahooFinanceClient struct {
	cache *CacheManager
	retry *RetryConfig
}

// NewYahooFinanceClient creates a new Yahoo Finance client
func NewYahooFinanceClient(config *Config) *YahooFinanceClient {
	cacheDir := filepath.Join(config.DataCacheDir, "yahoo_finance")
	cache := NewCacheManager(cacheDir, 12*time.Hour, config.CacheEnabled)

	return &YahooFinanceClient{
		cache: cache,
		retry: DefaultRetryConfig(),
	}
}

func (yf *YahooFinanceClient) Name() string { return "yahoo" }

// DailyCandles implements CandleProvider.
func (yf *YahooFinanceClient) DailyCandles(ctx context.Context, symbol string, market models.Market, from, to time.Time) ([]models.Candle, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = YahooSymbol(symbol, market)

	cacheKey := map[string]interface{}{
		"symbol": symbol,
		"start":  from.Format(time.DateOnly),
		"end":    to.Format(time.DateOnly),
	}

	var cached []models.Candle
	if yf.cache.Get("yahoo", "historical", cacheKey, &cached) {
		return cached, nil
	}

	var result []models.Candle
	err := WithRetry(ctx, yf.retry, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		params := &chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&from),
			End:      datetime.New(&to),
			Interval: datetime.OneDay,
		}

		iter := chart.Get(params)
		result = make([]models.Candle, 0)
		for iter.Next() {
			result = append(result, CandleFromYahooBar(iter.Bar()))
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to get historical data for %s: %w", symbol, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result = sortCandles(result)
	_ = yf.cache.Set("yahoo", "historical", cacheKey, result)
	return result, nil
}
