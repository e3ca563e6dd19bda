package api

import (
	"fmt"
	"strings"
	"time"

	ex "sharpe.service/extensions"
)

// Interval is a sampling frequency the market data provider understands.
type Interval uint8

const (
	IntervalOneMinute Interval = iota
	IntervalTwoMinute
	IntervalFiveMinute
	IntervalFifteenMinute
	IntervalThirtyMinute
	IntervalSixtyMinute
	IntervalNinetyMinute
	IntervalHourly
	IntervalDaily
	IntervalFiveDay
	IntervalWeekly
	IntervalMonthly
	IntervalQuarterly
)

// MaxIntradayLookback is the provider limit on how far back intraday
// history reaches.
const MaxIntradayLookback = 60 * 24 * time.Hour

// annualization assumes equity sessions: 252 trading days of 390 minutes
const (
	tradingDaysPerYear   = 252
	sessionMinutesPerDay = 390
)

var intervals = []Interval{
	IntervalOneMinute,
	IntervalTwoMinute,
	IntervalFiveMinute,
	IntervalFifteenMinute,
	IntervalThirtyMinute,
	IntervalSixtyMinute,
	IntervalNinetyMinute,
	IntervalHourly,
	IntervalDaily,
	IntervalFiveDay,
	IntervalWeekly,
	IntervalMonthly,
	IntervalQuarterly,
}

func (i Interval) Name() string {
	switch i {
	case IntervalOneMinute:
		return "IntervalOneMinute"
	case IntervalTwoMinute:
		return "IntervalTwoMinute"
	case IntervalFiveMinute:
		return "IntervalFiveMinute"
	case IntervalFifteenMinute:
		return "IntervalFifteenMinute"
	case IntervalThirtyMinute:
		return "IntervalThirtyMinute"
	case IntervalSixtyMinute:
		return "IntervalSixtyMinute"
	case IntervalNinetyMinute:
		return "IntervalNinetyMinute"
	case IntervalHourly:
		return "IntervalHourly"
	case IntervalDaily:
		return "IntervalDaily"
	case IntervalFiveDay:
		return "IntervalFiveDay"
	case IntervalWeekly:
		return "IntervalWeekly"
	case IntervalMonthly:
		return "IntervalMonthly"
	case IntervalQuarterly:
		return "IntervalQuarterly"
	default:
		return ""
	}
}

// Token is the wire form the provider expects in chart requests.
func (i Interval) Token() string {
	switch i {
	case IntervalOneMinute:
		return "1m"
	case IntervalTwoMinute:
		return "2m"
	case IntervalFiveMinute:
		return "5m"
	case IntervalFifteenMinute:
		return "15m"
	case IntervalThirtyMinute:
		return "30m"
	case IntervalSixtyMinute:
		return "60m"
	case IntervalNinetyMinute:
		return "90m"
	case IntervalHourly:
		return "1h"
	case IntervalDaily:
		return "1d"
	case IntervalFiveDay:
		return "5d"
	case IntervalWeekly:
		return "1wk"
	case IntervalMonthly:
		return "1mo"
	case IntervalQuarterly:
		return "3mo"
	default:
		return ""
	}
}

// PeriodsPerYear is the annualization factor for statistics sampled at this
// interval. Five day bars annualize like weekly ones.
func (i Interval) PeriodsPerYear() int {
	switch i {
	case IntervalOneMinute:
		return tradingDaysPerYear * sessionMinutesPerDay
	case IntervalTwoMinute:
		return tradingDaysPerYear * sessionMinutesPerDay / 2
	case IntervalFiveMinute:
		return tradingDaysPerYear * sessionMinutesPerDay / 5
	case IntervalFifteenMinute:
		return tradingDaysPerYear * sessionMinutesPerDay / 15
	case IntervalThirtyMinute:
		return tradingDaysPerYear * sessionMinutesPerDay / 30
	case IntervalSixtyMinute, IntervalHourly:
		return tradingDaysPerYear * sessionMinutesPerDay / 60
	case IntervalNinetyMinute:
		return tradingDaysPerYear * sessionMinutesPerDay / 90
	case IntervalDaily:
		return tradingDaysPerYear
	case IntervalFiveDay, IntervalWeekly:
		return 52
	case IntervalMonthly:
		return 12
	case IntervalQuarterly:
		return 4
	default:
		return 0
	}
}

func (i Interval) IsIntraday() bool {
	return i <= IntervalHourly
}

func ParseInterval(token string) (Interval, error) {
	for _, i := range intervals {
		if ex.AreEqual(i.Token(), token) {
			return i, nil
		}
	}

	tokens := make([]string, len(intervals))
	for idx, i := range intervals {
		tokens[idx] = i.Token()
	}
	return 0, fmt.Errorf("unrecognized interval %q, valid intervals are %s", token, strings.Join(tokens, ", "))
}
