package core

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/guregu/null/v6"

	"sharpe.service/api"
	ex "sharpe.service/extensions"
	m "sharpe.service/models"
)

// ReturnTable holds aligned log returns, one column per surviving
// instrument. Every column has exactly one value per timestamp.
type ReturnTable struct {
	Timestamps []time.Time
	Symbols    []string
	columns    map[string][]float64
}

func (rt *ReturnTable) Returns(symbol string) []float64 {
	return rt.columns[symbol]
}

func (rt *ReturnTable) Rows() int {
	return len(rt.Timestamps)
}

// BuildReturnTable aligns every history on the union of their timestamps and
// computes log returns column by column. An instrument missing a price, or
// carrying a null or non positive one, anywhere on the union index is
// excluded whole rather than patched.
func BuildReturnTable(histories []*m.PriceHistory, field api.PriceField) (*ReturnTable, []m.Exclusion, error) {
	index := buildTimestampIndex(histories)

	table := &ReturnTable{
		Symbols: make([]string, 0, len(histories)),
		columns: make(map[string][]float64, len(histories)),
	}
	if len(index) > 1 {
		// the first timestamp has no prior price, so it carries no return
		table.Timestamps = index[1:]
	}

	exclusions := make([]m.Exclusion, 0)
	for _, history := range histories {
		column, ok := buildReturnColumn(history, index, field)
		if !ok {
			exclusions = append(exclusions, m.Exclusion{Symbol: history.Meta.Symbol, Reason: m.ExcludedIncomplete})
			continue
		}
		table.Symbols = append(table.Symbols, history.Meta.Symbol)
		table.columns[history.Meta.Symbol] = column
	}

	if err := verifyTableAlignment(table); err != nil {
		return nil, nil, err
	}

	return table, exclusions, nil
}

func buildTimestampIndex(histories []*m.PriceHistory) []time.Time {
	seen := make(map[int64]time.Time)
	for _, history := range histories {
		for _, bar := range history.Bars {
			seen[bar.Timestamp.Unix()] = bar.Timestamp
		}
	}

	index := slices.Collect(maps.Values(seen))
	slices.SortFunc(index, func(a, b time.Time) int { return a.Compare(b) })
	return index
}

func buildReturnColumn(history *m.PriceHistory, index []time.Time, field api.PriceField) ([]float64, bool) {
	cells := make(map[int64]null.Float, len(history.Bars))
	for _, bar := range history.Bars {
		cells[bar.Timestamp.Unix()] = field.FromBar(bar)
	}

	prices := make([]float64, len(index))
	for i, timestamp := range index {
		cell, ok := cells[timestamp.Unix()]
		if !ok || !cell.Valid || cell.Float64 <= 0 {
			return nil, false
		}
		prices[i] = cell.Float64
	}

	returns := make([]float64, 0, len(prices))
	for i := 1; i < len(prices); i++ {
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}

	return returns, true
}

func verifyTableAlignment(table *ReturnTable) error {
	if len(table.Symbols) == 0 {
		return nil
	}

	lengths := make([]int, 0, len(table.Symbols)+1)
	lengths = append(lengths, table.Rows())
	for _, symbol := range table.Symbols {
		lengths = append(lengths, len(table.columns[symbol]))
	}

	if !ex.AreAllEqual(lengths) {
		return fmt.Errorf("return table misaligned, row counts %v", lengths)
	}

	return nil
}
