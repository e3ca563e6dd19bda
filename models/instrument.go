package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// InstrumentMetadata is one row of yf_instrument_metadata.
type InstrumentMetadata struct {
	Id            int32     `db:"id"`
	Symbol        string    `db:"symbol"`
	LastRefreshed time.Time `db:"last_refreshed"`
}

// PriceRow is one row of yf_price_history.
type PriceRow struct {
	SourceId      int32      `db:"source_id"`
	Interval      string     `db:"interval"`
	Timestamp     time.Time  `db:"timestamp"`
	Open          null.Float `db:"open"`
	High          null.Float `db:"high"`
	Low           null.Float `db:"low"`
	Close         null.Float `db:"close"`
	AdjustedClose null.Float `db:"adjusted_close"`
	Volume        null.Float `db:"volume"`
}

func PriceRowFromBar(sourceId int32, interval string, bar *PriceBar) *PriceRow {
	return &PriceRow{
		SourceId:      sourceId,
		Interval:      interval,
		Timestamp:     bar.Timestamp,
		Open:          bar.Open,
		High:          bar.High,
		Low:           bar.Low,
		Close:         bar.Close,
		AdjustedClose: bar.AdjustedClose,
		Volume:        bar.Volume,
	}
}

func (row *PriceRow) Bar() *PriceBar {
	return &PriceBar{
		Timestamp:     row.Timestamp,
		Open:          row.Open,
		High:          row.High,
		Low:           row.Low,
		Close:         row.Close,
		AdjustedClose: row.AdjustedClose,
		Volume:        row.Volume,
	}
}
