package core

import (
	"cmp"
	"math"
	"slices"
	"strings"

	ex "sharpe.service/extensions"
	m "sharpe.service/models"
)

// BuildSharpeRecords computes annualized figures for every column in the
// table, in table order.
func BuildSharpeRecords(table *ReturnTable, riskFreeRate float64, periodsPerYear int) []*m.SharpeRecord {
	records := make([]*m.SharpeRecord, 0, len(table.Symbols))
	for _, symbol := range table.Symbols {
		returns := table.Returns(symbol)
		ratio, mean, vol := SharpeRatio(returns, riskFreeRate, periodsPerYear)
		records = append(records, &m.SharpeRecord{
			Symbol:         symbol,
			AnnualizedMean: mean,
			AnnualizedVol:  vol,
			SharpeRatio:    ratio,
			Observations:   len(returns),
		})
	}
	return records
}

// RankTop orders records by Sharpe ratio, best first, and keeps the top n.
// A record whose ratio is NaN or infinite is excluded instead of ranked.
func RankTop(records []*m.SharpeRecord, n int) ([]*m.SharpeRecord, []m.Exclusion) {
	finite := func(record *m.SharpeRecord) bool {
		return !math.IsNaN(record.SharpeRatio) && !math.IsInf(record.SharpeRatio, 0)
	}

	ranked := ex.FilterMultiplePtr(records, finite)
	degenerate := ex.FilterMultiplePtr(records, func(record *m.SharpeRecord) bool { return !finite(record) })

	exclusions := make([]m.Exclusion, 0, len(degenerate))
	for _, record := range degenerate {
		exclusions = append(exclusions, m.Exclusion{Symbol: record.Symbol, Reason: m.ExcludedDegenerate})
	}

	// stable so tied ratios keep their request order
	slices.SortStableFunc(ranked, func(a, b *m.SharpeRecord) int {
		return cmp.Compare(b.SharpeRatio, a.SharpeRatio)
	})

	return ranked[:ex.Min(n, len(ranked))], exclusions
}

// normalizeUniverse uppercases, dedupes and caps the requested symbol list.
func normalizeUniverse(symbols []string) ([]string, []m.Exclusion) {
	normalized := make([]string, 0, len(symbols))
	exclusions := make([]m.Exclusion, 0)
	seen := make(map[string]bool, len(symbols))

	for _, symbol := range symbols {
		cleaned := strings.ToUpper(strings.TrimSpace(symbol))
		if cleaned == "" {
			continue
		}
		if seen[cleaned] {
			exclusions = append(exclusions, m.Exclusion{Symbol: cleaned, Reason: m.ExcludedDuplicate})
			continue
		}
		seen[cleaned] = true
		if len(normalized) >= MaxInstruments {
			exclusions = append(exclusions, m.Exclusion{Symbol: cleaned, Reason: m.ExcludedUniverseCap})
			continue
		}
		normalized = append(normalized, cleaned)
	}

	return normalized, exclusions
}
