package database

import (
	"fmt"
	"math"
	"sort"
	"time"

	"stocks2ml/frame"
)

// LoadWidePanel pivots the long close-price table into a wide frame of one
// column per symbol, rows sorted by date. Symbol/date cells the repository
// never saw are NaN.
func LoadWidePanel(repo DataRepository) (*frame.Frame, error) {
	symbols, err := repo.GetAllSymbols()
	if err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols found in repository")
	}

	type cell struct {
		symbol int
		value  float64
	}
	byDate := make(map[time.Time][]cell)

	for si, symbol := range symbols {
		prices, err := repo.QueryClose(symbol, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load closes for %s: %w", symbol, err)
		}
		for _, p := range prices {
			day := p.Date.UTC().Truncate(24 * time.Hour)
			byDate[day] = append(byDate[day], cell{symbol: si, value: p.Close})
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for day := range byDate {
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	data := make([][]float64, len(dates))
	for ri, day := range dates {
		row := make([]float64, len(symbols))
		for i := range row {
			row[i] = math.NaN()
		}
		for _, c := range byDate[day] {
			row[c.symbol] = c.value
		}
		data[ri] = row
	}

	f, err := frame.New(symbols, data)
	if err != nil {
		return nil, err
	}
	f.Dates = dates
	return f, nil
}
