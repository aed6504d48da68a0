package dataflows

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/quote"

	"github.com/dyike/manbo/internal/models"
)

// LongportClient reads daily candlesticks through the Longport quote API.
// The quote context is opened lazily on first use.
type LongportClient struct {
	appKey, appSecret, accessToken string

	mu       sync.Mutex
	quoteCtx *quote.QuoteContext
}

func NewLongportClient(cfg *Config) (*LongportClient, error) {
	if !cfg.HasLongport() {
		return nil, errors.New("longport API credentials not configured")
	}
	return &LongportClient{
		appKey:      cfg.LongportAppKey,
		appSecret:   cfg.LongportAppSecret,
		accessToken: cfg.LongportAccessToken,
	}, nil
}

func (lpc *LongportClient) Name() string { return "longport" }

func (lpc *LongportClient) quoteContext() (*quote.QuoteContext, error) {
	lpc.mu.Lock()
	defer lpc.mu.Unlock()
	if lpc.quoteCtx != nil {
		return lpc.quoteCtx, nil
	}
	conf, err := lpconfig.New(lpconfig.WithConfigKey(lpc.appKey, lpc.appSecret, lpc.accessToken))
	if err != nil {
		return nil, fmt.Errorf("longport config: %w", err)
	}
	qc, err := quote.NewFromCfg(conf)
	if err != nil {
		return nil, fmt.Errorf("longport quote context: %w", err)
	}
	lpc.quoteCtx = qc
	return qc, nil
}

// DailyCandles implements CandleProvider. Longport returns the most recent
// N sticks, so the window is converted to a count and trimmed afterwards.
func (lpc *LongportClient) DailyCandles(ctx context.Context, symbol string, market models.Market, from, to time.Time) ([]models.Candle, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	qc, err := lpc.quoteContext()
	if err != nil {
		return nil, err
	}

	days := int(math.Ceil(time.Since(from).Hours() / 24))
	count := int32(min(max(days, 1), 1000))

	sticks, err := qc.Candlesticks(ctx, LongportSymbol(symbol, market), quote.PeriodDay, count, quote.AdjustTypeNo)
	if err != nil {
		return nil, fmt.Errorf("longport candlesticks: %w", err)
	}

	candles := make([]models.Candle, 0, len(sticks))
	for _, stick := range sticks {
		if c, ok := CandleFromLongport(stick); ok {
			candles = append(candles, c)
		}
	}
	return FilterRange(sortCandles(candles), from, to), nil
}

// Close releases the quote connection if one was opened.
func (lpc *LongportClient) Close() error {
	lpc.mu.Lock()
	defer lpc.mu.Unlock()
	if lpc.quoteCtx == nil {
		return nil
	}
	err := lpc.quoteCtx.Close()
	lpc.quoteCtx = nil
	return err
}
