package models

import "time"

// Exclusion reasons reported on RankResult. Values are stable, clients key on them.
const (
	ExcludedDuplicate   = "duplicate"
	ExcludedUniverseCap = "universe cap"
	ExcludedNoData      = "no data"
	ExcludedIncomplete  = "incomplete series"
	ExcludedDegenerate  = "degenerate ratio"
)

// SharpeRecord is one instrument's annualized statistics.
type SharpeRecord struct {
	Symbol         string  `json:"symbol"`
	AnnualizedMean float64 `json:"annualizedMean"`
	AnnualizedVol  float64 `json:"annualizedVol"`
	SharpeRatio    float64 `json:"sharpeRatio"`
	Observations   int     `json:"observations"`
}

// Exclusion names an instrument that was requested but did not rank, and why.
type Exclusion struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// RankResult is the ranked table plus everything that fell out on the way.
type RankResult struct {
	Records      []*SharpeRecord `json:"records"`
	Excluded     []Exclusion     `json:"excluded"`
	Interval     string          `json:"interval"`
	PriceField   string          `json:"priceField"`
	RiskFreeRate float64         `json:"riskFreeRate"`
	Start        time.Time       `json:"start"`
	End          time.Time       `json:"end"`
	GeneratedAt  time.Time       `json:"generatedAt"`
}
