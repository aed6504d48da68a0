package dataflows

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dyike/manbo/internal/models"
)

// CSVFileName is the candle file written next to exported reports.
const CSVFileName = "market_data.csv"

var csvHeader = []string{"Symbol", "Date", "Open", "High", "Low", "Close", "Volume"}

// WriteCandlesCSV writes one row per candle. Missing OHLC fields and volume
// are left empty.
func WriteCandlesCSV(w io.Writer, symbol string, candles []models.Candle) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, c := range candles {
		volume := ""
		if c.Volume != nil {
			volume = strconv.FormatInt(*c.Volume, 10)
		}
		row := []string{
			symbol,
			c.Date.Format(time.DateOnly),
			nullString(c.Open),
			nullString(c.High),
			nullString(c.Low),
			c.Close.String(),
			volume,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCandlesCSV parses a file produced by WriteCandlesCSV. Rows with an
// unparseable date or close are skipped.
func ReadCandlesCSV(r io.Reader) (string, []models.Candle, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)
	records, err := reader.ReadAll()
	if err != nil {
		return "", nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) <= 1 {
		return "", nil, errors.New("no data in csv")
	}

	var (
		symbol  string
		candles []models.Candle
	)
	for _, record := range records[1:] {
		date, err := time.Parse(time.DateOnly, record[1])
		if err != nil {
			continue
		}
		closePrice, err := decimal.NewFromString(record[5])
		if err != nil {
			continue
		}
		symbol = record[0]
		c := models.Candle{
			Date:  date,
			Open:  parseNull(record[2]),
			High:  parseNull(record[3]),
			Low:   parseNull(record[4]),
			Close: closePrice,
		}
		if v, err := strconv.ParseInt(record[6], 10, 64); err == nil {
			c.Volume = &v
		}
		candles = append(candles, c)
	}
	return symbol, sortCandles(candles), nil
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func parseNull(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
