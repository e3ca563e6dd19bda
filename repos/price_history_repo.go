package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"sharpe.service/api"
	m "sharpe.service/models"
)

func (pg *Postgres) GetPriceRows(ctx context.Context, symbol, interval string, start, end time.Time) ([]*m.PriceRow, error) {
	query := `
		SELECT
			yph.source_id,
			yph."interval",
			yph."timestamp",
			yph."open",
			yph.high,
			yph.low,
			yph."close",
			yph.adjusted_close,
			yph.volume
		FROM yf_price_history yph
		JOIN yf_instrument_metadata yim ON yph.source_id = yim.id
		WHERE yim.symbol = @symbol
			AND yph."interval" = @interval
			AND yph."timestamp" >= @start
			AND yph."timestamp" < @end
		ORDER BY yph."timestamp" ASC`

	args := pgx.NamedArgs{
		"symbol":   symbol,
		"interval": interval,
		"start":    start,
		"end":      end,
	}

	res, err := Query[m.PriceRow](ctx, pg, query, args)
	if err != nil {
		return nil, fmt.Errorf("unable to query price rows by symbol (%s): %w", symbol, err)
	}
	return res, nil
}

func (pg *Postgres) InsertPriceRows(ctx context.Context, rows []*m.PriceRow, tx *pgx.Tx) (int64, error) {
	columns := []string{
		"source_id", "interval", "timestamp", "open", "high",
		"low", "close", "adjusted_close", "volume",
	}

	entries := make([][]any, len(rows))
	for i, row := range rows {
		entries[i] = []any{
			row.SourceId, row.Interval, row.Timestamp, row.Open, row.High,
			row.Low, row.Close, row.AdjustedClose, row.Volume,
		}
	}

	return pg.BulkInsert(ctx, "yf_price_history", columns, entries, tx)
}

func (pg *Postgres) GetMostRecentBarTimestamp(ctx context.Context, sourceId int32, interval string) (*time.Time, error) {
	query := `
		SELECT MAX("timestamp")
		FROM yf_price_history
		WHERE source_id = @source_id
			AND "interval" = @interval`

	args := pgx.NamedArgs{
		"source_id": sourceId,
		"interval":  interval,
	}

	// MAX over zero rows is NULL, so scan through a pointer
	var mostRecent *time.Time
	if err := pg.db.QueryRow(ctx, query, args).Scan(&mostRecent); err != nil {
		return nil, fmt.Errorf("unable to query most recent bar timestamp: %w", err)
	}

	return mostRecent, nil
}

// PriceHistory serves cached bars in the same shape the provider client
// returns, so the ranking pipeline can run against either source.
func (pg *Postgres) PriceHistory(ctx context.Context, symbol string, start, end time.Time, interval api.Interval) (*m.PriceHistory, error) {
	rows, err := pg.GetPriceRows(ctx, symbol, interval.Token(), start, end)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no cached bars for interval %s: %w", symbol, interval.Token(), api.ErrNoData)
	}

	bars := make([]*m.PriceBar, len(rows))
	for i, row := range rows {
		bars[i] = row.Bar()
	}

	return &m.PriceHistory{
		Meta: m.PriceMeta{
			Symbol:   symbol,
			Interval: interval.Token(),
		},
		Bars: bars,
	}, nil
}
