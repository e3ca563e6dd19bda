package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"sharpe.service/api"
	ex "sharpe.service/extensions"
	m "sharpe.service/models"
)

const (
	DefaultPeriodYears  = 1
	DefaultRiskFreeRate = 0.025
	DefaultTopN         = 10
	MaxInstruments      = 50
)

var (
	ErrEmptyUniverse = errors.New("no instruments requested")
	ErrNoUsableData  = errors.New("no instrument has a usable return series")
)

type RankSettings struct {
	Symbols      []string
	PeriodYears  int
	RiskFreeRate float64
	Interval     api.Interval
	PriceField   api.PriceField
	TopN         int
}

func (settings *RankSettings) Validate() error {
	if settings.PeriodYears < 1 {
		return fmt.Errorf("period must be at least one year, got %d", settings.PeriodYears)
	}
	if settings.TopN < 1 {
		return fmt.Errorf("top must be at least 1, got %d", settings.TopN)
	}
	if settings.Interval.IsIntraday() {
		// whole year lookbacks always overrun the provider's intraday window
		lookback := time.Duration(settings.PeriodYears) * 365 * 24 * time.Hour
		if lookback > api.MaxIntradayLookback {
			return fmt.Errorf("interval %s only serves the last %d days, a %d year lookback cannot be satisfied",
				settings.Interval.Token(), int(api.MaxIntradayLookback.Hours()/24), settings.PeriodYears)
		}
	}
	return nil
}

func (settings *RankSettings) timeRange(now time.Time) (start, end time.Time) {
	end = now.UTC()
	start = end.AddDate(-settings.PeriodYears, 0, 0)
	return
}

// RunRanking walks the whole pipeline: normalize the universe, fetch bars,
// build the aligned return table, compute Sharpe figures and keep the top N.
// Instruments dropped along the way are reported on the result, a run that
// drops everything is an error rather than an empty ranking.
func (sc *ServiceContext) RunRanking(settings RankSettings) (*m.RankResult, error) {
	start := time.Now()

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	symbols, excluded := normalizeUniverse(settings.Symbols)
	if len(symbols) == 0 {
		return nil, ErrEmptyUniverse
	}

	from, to := settings.timeRange(time.Now())
	log.Info().
		Int("symbols", len(symbols)).
		Str("interval", settings.Interval.Token()).
		Str("field", settings.PriceField.Token()).
		Time("from", from).
		Time("to", to).
		Msg("starting ranking run")

	histories, fetchExcluded, err := sc.fetchPriceHistories(symbols, from, to, settings.Interval)
	if err != nil {
		return nil, err
	}
	excluded = append(excluded, fetchExcluded...)

	barCounts := make([]int, len(histories))
	for i, history := range histories {
		barCounts[i] = len(history.Bars)
	}
	log.Info().
		Int("instruments", len(histories)).
		Int("bars", ex.Sum(barCounts)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched price histories")

	table, tableExcluded, err := BuildReturnTable(histories, settings.PriceField)
	if err != nil {
		return nil, err
	}
	excluded = append(excluded, tableExcluded...)

	if len(table.Symbols) == 0 {
		return nil, fmt.Errorf("%w: all %d requested instruments were excluded", ErrNoUsableData, len(symbols))
	}

	log.Info().
		Int("instruments", len(table.Symbols)).
		Int("rows", table.Rows()).
		Dur("elapsed", time.Since(start)).
		Msg("built return table")

	records := BuildSharpeRecords(table, settings.RiskFreeRate, settings.Interval.PeriodsPerYear())
	ranked, degenerateExcluded := RankTop(records, settings.TopN)
	excluded = append(excluded, degenerateExcluded...)

	if len(ranked) == 0 {
		return nil, fmt.Errorf("%w: every surviving instrument has a degenerate ratio", ErrNoUsableData)
	}

	for _, exclusion := range excluded {
		log.Debug().Str("symbol", exclusion.Symbol).Str("reason", exclusion.Reason).Msg("excluded from ranking")
	}

	log.Info().
		Int("ranked", len(ranked)).
		Int("excluded", len(excluded)).
		Dur("elapsed", time.Since(start)).
		Msg("ranking run completed")

	return &m.RankResult{
		Records:      ranked,
		Excluded:     excluded,
		Interval:     settings.Interval.Token(),
		PriceField:   settings.PriceField.Token(),
		RiskFreeRate: settings.RiskFreeRate,
		Start:        from,
		End:          to,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}
