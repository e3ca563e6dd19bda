package commands

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"sharpe.service/api"
	"sharpe.service/core"
	"sharpe.service/repos"
)

var syncFlags struct {
	tickers  []string
	file     string
	interval string
	years    int
}

var syncCmd = &cobra.Command{
	Use:   "sync [tickers...]",
	Short: "Refresh the postgres price cache from the provider",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().StringSliceVarP(&syncFlags.tickers, "tickers", "t", nil, "comma separated tickers to sync")
	syncCmd.Flags().StringVarP(&syncFlags.file, "file", "f", "", "file with one ticker per line (.txt, .csv, .xlsx)")
	syncCmd.Flags().StringVar(&syncFlags.interval, "interval", api.IntervalMonthly.Token(), "bar interval to cache")
	syncCmd.Flags().IntVar(&syncFlags.years, "years", 5, "lookback to fetch in whole years")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg := setup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		return errors.New("sync needs DATABASE_URL set")
	}

	symbols, err := gatherSymbols(syncFlags.tickers, syncFlags.file, args)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		return errors.New("no symbols to sync")
	}

	interval, err := api.ParseInterval(syncFlags.interval)
	if err != nil {
		return err
	}

	pg, err := repos.GetPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pg.Close()

	client := marketDataClient(cfg)
	sc := &core.ServiceContext{
		Context:            ctx,
		PostgresConnection: pg,
		MarketData:         &client,
	}

	failures := 0
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}

		if _, err := sc.SyncInstrumentHistory(symbol, interval, syncFlags.years, cfg.SyncMinAge); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("sync failed")
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d symbols failed to sync", failures, len(symbols))
	}
	return nil
}
