package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// PriceHistory is one instrument's bars over a requested range, oldest first.
type PriceHistory struct {
	Meta PriceMeta
	Bars []*PriceBar
}

type PriceMeta struct {
	Symbol           string
	Currency         string
	ExchangeTimezone string
	Interval         string
}

// PriceBar keeps every cell nullable, the provider reports null entries for
// halted sessions and partially available history.
type PriceBar struct {
	Timestamp     time.Time
	Open          null.Float
	High          null.Float
	Low           null.Float
	Close         null.Float
	AdjustedClose null.Float
	Volume        null.Float
}
