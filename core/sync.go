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

// SyncInstrumentHistory pulls a symbol's bars from the provider and stores
// whatever the cache does not have yet. The returned count is the number of
// rows inserted. A symbol refreshed more recently than minAge is skipped.
func (sc *ServiceContext) SyncInstrumentHistory(symbol string, interval api.Interval, lookbackYears int, minAge time.Duration) (int64, error) {
	if sc.PostgresConnection == nil {
		return 0, errors.New("sync requires a postgres connection")
	}

	md, err := sc.PostgresConnection.GetInstrumentBySymbol(sc.Context, symbol)
	if err != nil {
		return 0, fmt.Errorf("error determining if instrument exists in sync: %w", err)
	}

	if md == nil {
		log.Info().Str("symbol", symbol).Msg("adding new instrument to db")
		md = &m.InstrumentMetadata{
			Symbol:        symbol,
			LastRefreshed: time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		}

		if err := sc.PostgresConnection.InsertNewInstrument(sc.Context, md, nil); err != nil {
			return 0, fmt.Errorf("error adding %s to db: %w", symbol, err)
		}
	}

	if age := time.Since(md.LastRefreshed); age < minAge {
		log.Info().Str("symbol", symbol).Str("refreshed", ex.FmtShort(md.LastRefreshed)).Msg("recently refreshed, skipping sync")
		return 0, nil
	}

	mostRecent, err := sc.PostgresConnection.GetMostRecentBarTimestamp(sc.Context, md.Id, interval.Token())
	if err != nil {
		return 0, fmt.Errorf("error getting most recent bar for symbol %s: %w", symbol, err)
	}

	end := time.Now().UTC()
	start := end.AddDate(-lookbackYears, 0, 0)
	history, err := sc.MarketData.PriceHistory(sc.Context, symbol, start, end, interval)
	if err != nil {
		return 0, fmt.Errorf("error fetching history for %s: %w", symbol, err)
	}

	newOnly := func(bar *m.PriceBar) bool { return mostRecent == nil || bar.Timestamp.After(*mostRecent) }
	toInsert := ex.FilterMultiplePtr(history.Bars, newOnly)

	tx, err := sc.PostgresConnection.GetTransaction(sc.Context)
	if err != nil {
		return 0, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(sc.Context) // this will kick off if we return before committing

	var inserted int64
	if len(toInsert) > 0 {
		rows := make([]*m.PriceRow, len(toInsert))
		for i, bar := range toInsert {
			rows[i] = m.PriceRowFromBar(md.Id, interval.Token(), bar)
		}

		inserted, err = sc.PostgresConnection.InsertPriceRows(sc.Context, rows, &tx)
		if err != nil {
			return 0, fmt.Errorf("error inserting price rows: %w", err)
		}
	}

	if err := sc.PostgresConnection.UpdateLastRefreshed(sc.Context, symbol, end, &tx); err != nil {
		return 0, err
	}

	if err := tx.Commit(sc.Context); err != nil {
		return 0, fmt.Errorf("error committing sync transaction for %s: %w", symbol, err)
	}

	log.Info().
		Str("symbol", symbol).
		Str("interval", interval.Token()).
		Int("fetched", len(history.Bars)).
		Int64("inserted", inserted).
		Msg("instrument history synced")

	return inserted, nil
}
