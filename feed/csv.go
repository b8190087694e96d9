// Package feed loads historical tick data for the backtester from CSV files.
package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rustyeddy/bounce/backtest"
)

// Tick is one CSV row: timestamp_ms,symbol,price[,volume].
type Tick struct {
	Timestamp int64
	Symbol    string
	Price     float64
	Volume    float64
}

// CSVFeed streams ticks from a CSV file one at a time. A single header row
// ("timestamp,...") is allowed; empty and short rows are skipped. Next
// returns ok=false at EOF.
type CSVFeed struct {
	f *os.File
	r *csv.Reader

	sawFirst bool
}

func OpenCSV(path string) (*CSVFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	return &CSVFeed{f: f, r: r}, nil
}

func (f *CSVFeed) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

func (f *CSVFeed) Next() (Tick, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return Tick{}, false, nil
		}
		if err != nil {
			return Tick{}, false, err
		}
		if len(row) == 0 {
			continue
		}

		if !f.sawFirst {
			f.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "timestamp") {
				continue
			}
		}

		t, ok, err := parseRow(row)
		if err != nil {
			return Tick{}, false, err
		}
		if !ok {
			continue
		}
		return t, true, nil
	}
}

func parseRow(row []string) (Tick, bool, error) {
	// Need at least: timestamp,symbol,price
	if len(row) < 3 {
		return Tick{}, false, nil
	}

	tsField := strings.TrimSpace(row[0])
	if tsField == "" {
		return Tick{}, false, nil
	}
	ts, err := strconv.ParseInt(tsField, 10, 64)
	if err != nil {
		return Tick{}, false, fmt.Errorf("bad timestamp %q: %w", row[0], err)
	}

	sym := strings.TrimSpace(row[1])
	if sym == "" {
		return Tick{}, false, nil
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil {
		return Tick{}, false, fmt.Errorf("bad price %q: %w", row[2], err)
	}

	t := Tick{Timestamp: ts, Symbol: sym, Price: price}
	if len(row) > 3 && strings.TrimSpace(row[3]) != "" {
		vol, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil {
			return Tick{}, false, fmt.Errorf("bad volume %q: %w", row[3], err)
		}
		t.Volume = vol
	}
	return t, true, nil
}

// LoadSeries reads a whole CSV file into a backtest series. Consecutive rows
// sharing a timestamp are merged into one data point, so a file can quote
// several symbols per bar. Rows are expected in time order; the loader
// preserves file order either way.
func LoadSeries(path string) ([]backtest.DataPoint, error) {
	f, err := OpenCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var series []backtest.DataPoint
	for {
		t, ok, err := f.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		if n := len(series); n > 0 && series[n-1].Timestamp == t.Timestamp {
			series[n-1].Prices[t.Symbol] = t.Price
			series[n-1].Volumes[t.Symbol] = t.Volume
			continue
		}
		series = append(series, backtest.DataPoint{
			Timestamp: t.Timestamp,
			Prices:    map[string]float64{t.Symbol: t.Price},
			Volumes:   map[string]float64{t.Symbol: t.Volume},
		})
	}
	return series, nil
}
