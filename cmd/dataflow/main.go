// Command dataflow prints the daily candles and chart points the market data
// providers return for a symbol, or re-renders a saved market_data.csv. It is
// a development aid for checking provider wiring and normalization.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyike/manbo/config"
	"github.com/dyike/manbo/internal/dataflows"
	"github.com/dyike/manbo/internal/display"
	"github.com/dyike/manbo/internal/logger"
	"github.com/dyike/manbo/internal/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		market  string
		days    int
		points  bool
		asCSV   bool
		fromCSV string
	)

	cmd := &cobra.Command{
		Use:   "dataflow [SYMBOL]",
		Short: "Dump normalized market data as JSON or CSV",
		Args: func(cmd *cobra.Command, args []string) error {
			if fromCSV != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromCSV != "" {
				f, err := os.Open(fromCSV)
				if err != nil {
					return err
				}
				defer f.Close()
				return renderCSV(cmd.OutOrStdout(), f)
			}

			cfg := config.DefaultConfig()
			log := logger.New(cfg.LogLevel)

			m, err := models.ParseMarket(market)
			if err != nil {
				return err
			}
			svc := dataflows.NewMarketDataService(log, dataflows.ProvidersForMarket(cfg, m, log)...)
			defer svc.Close()

			to := time.Now()
			from := to.AddDate(0, 0, -days)
			candles, source, err := svc.Candles(cmd.Context(), args[0], m, from, to)
			if err != nil {
				return err
			}
			log.Info().Str("source", source).Int("candles", len(candles)).Msg("fetched")

			if asCSV {
				return dataflows.WriteCandlesCSV(cmd.OutOrStdout(), args[0], candles)
			}
			var payload any = candles
			if points {
				payload = dataflows.ToChartPoints(candles)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		},
	}
	cmd.Flags().StringVar(&market, "market", string(models.MarketUS), "Market: 美股, A股 or 港股")
	cmd.Flags().IntVar(&days, "days", 30, "Number of calendar days")
	cmd.Flags().BoolVar(&points, "points", false, "Print chart points instead of candles")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Print candles as CSV")
	cmd.Flags().StringVar(&fromCSV, "from-csv", "", "Render a saved market_data.csv as a sparkline instead of fetching")
	return cmd
}

// renderCSV prints the symbol and the price sparkline of a candle CSV.
func renderCSV(w io.Writer, r io.Reader) error {
	symbol, candles, err := dataflows.ReadCandlesCSV(r)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s (%d candles)\n", symbol, len(candles))
	fmt.Fprintln(w, display.ChartSummary(dataflows.ToChartPoints(candles), 0))
	return nil
}
