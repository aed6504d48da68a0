package dataflows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dyike/manbo/internal/logger"
	"github.com/dyike/manbo/internal/models"
)

// MarketDataService tries candle providers in order and returns the first
// non-empty series.
type MarketDataService struct {
	providers []CandleProvider
	log       *logger.Logger
}

// NewMarketDataService creates a service over an explicit provider chain.
func NewMarketDataService(log *logger.Logger, providers ...CandleProvider) *MarketDataService {
	return &MarketDataService{
		providers: providers,
		log:       logger.OrSilent(log).Component("marketdata"),
	}
}

// ProvidersForMarket builds the default chain for a market. Finnhub leads for
// US symbols and Longport for Hong Kong when credentials exist; Yahoo is
// always the fallback.
func ProvidersForMarket(cfg *Config, market models.Market, log *logger.Logger) []CandleProvider {
	var chain []CandleProvider
	switch market {
	case models.MarketUS:
		if cfg.HasFinnhub() {
			chain = append(chain, NewFinnhubClient(cfg, WithFinnhubLogger(log)))
		}
	case models.MarketHK:
		if lp, err := NewLongportClient(cfg); err == nil {
			chain = append(chain, lp)
		}
	}
	return append(chain, NewYahooFinanceClient(cfg))
}

// Providers returns the provider names in order.
func (s *MarketDataService) Providers() []string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name()
	}
	return names
}

// Candles returns the first non-empty series and the provider that served it.
// Empty data from every provider is not an error. An error is returned only
// when every provider failed.
func (s *MarketDataService) Candles(ctx context.Context, symbol string, market models.Market, from, to time.Time) ([]models.Candle, string, error) {
	if len(s.providers) == 0 {
		return nil, "", errors.New("no market data providers configured")
	}

	var errs []error
	for _, p := range s.providers {
		candles, err := p.DailyCandles(ctx, symbol, market, from, to)
		if err != nil {
			s.log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("candle fetch failed")
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if len(candles) > 0 {
			s.log.Debug().Str("provider", p.Name()).Int("candles", len(candles)).Msg("candles loaded")
			return candles, p.Name(), nil
		}
		s.log.Debug().Str("provider", p.Name()).Msg("provider returned no data")
	}

	if len(errs) == len(s.providers) {
		return []models.Candle{}, "", errors.Join(errs...)
	}
	return []models.Candle{}, "", nil
}

// ChartPoints fetches candles and projects them for plotting.
func (s *MarketDataService) ChartPoints(ctx context.Context, symbol string, market models.Market, days int) ([]models.ChartPoint, string, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -days)
	candles, source, err := s.Candles(ctx, symbol, market, from, to)
	if err != nil {
		return nil, "", err
	}
	return ToChartPoints(candles), source, nil
}

// Close releases providers holding connections.
func (s *MarketDataService) Close() error {
	var errs []error
	for _, p := range s.providers {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
