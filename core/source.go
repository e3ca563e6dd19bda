package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"sharpe.service/api"
	ex "sharpe.service/extensions"
	m "sharpe.service/models"
)

const FetchWorkers = 8

// PriceSource serves one symbol's bars over [start, end). Both the provider
// client and the postgres cache satisfy it, so rankings can run against
// either.
type PriceSource interface {
	PriceHistory(ctx context.Context, symbol string, start, end time.Time, interval api.Interval) (*m.PriceHistory, error)
}

// fetchPriceHistories pulls bars for every symbol concurrently. A symbol the
// source has no data for becomes an exclusion, any other failure aborts the
// whole fetch.
func (sc *ServiceContext) fetchPriceHistories(symbols []string, start, end time.Time, interval api.Interval) ([]*m.PriceHistory, []m.Exclusion, error) {
	if len(symbols) == 0 {
		return nil, nil, nil
	}

	group, ctx := errgroup.WithContext(sc.Context)
	group.SetLimit(ex.Min(FetchWorkers, len(symbols)))

	// one slot per symbol, so no locking and request order is kept
	results := make([]*m.PriceHistory, len(symbols))
	for i, symbol := range symbols {
		group.Go(func() error {
			history, err := sc.MarketData.PriceHistory(ctx, symbol, start, end, interval)
			if err != nil {
				if errors.Is(err, api.ErrNoData) {
					log.Warn().Str("symbol", symbol).Msg("no price data, excluding from ranking")
					return nil
				}
				return fmt.Errorf("error fetching price history for %s: %w", symbol, err)
			}
			results[i] = history
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	histories := make([]*m.PriceHistory, 0, len(symbols))
	exclusions := make([]m.Exclusion, 0)
	for i, history := range results {
		if history == nil {
			exclusions = append(exclusions, m.Exclusion{Symbol: symbols[i], Reason: m.ExcludedNoData})
			continue
		}
		histories = append(histories, history)
	}

	return histories, exclusions, nil
}
