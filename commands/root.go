// Package commands wires the sharpe CLI: ranking runs, the http service and
// the price cache sync.
package commands

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	yf "sharpe.service/api/yahoo_finance"
	"sharpe.service/config"
	"sharpe.service/repos"
	"sharpe.service/universe"
)

var (
	logLevelFlag  string
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:           "sharpe",
	Short:         "Rank instruments by their annualized Sharpe ratio",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "log format (console or json)")
}

// setup loads configuration and wires the global logger. Flags win over
// environment values.
func setup() *config.Config {
	cfg := config.Load()
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if logFormatFlag != "" {
		cfg.LogFormat = logFormatFlag
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.LogFormat != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	return cfg
}

func marketDataClient(cfg *config.Config) yf.YahooFinanceClient {
	return yf.GetClient(cfg.Provider.Host, cfg.Provider.RequestTimeout, cfg.Provider.RequestsPerSecond, cfg.Provider.Burst)
}

// openPostgres returns nil when no database is configured, callers treat the
// cache as optional.
func openPostgres(ctx context.Context, cfg *config.Config) (*repos.Postgres, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	return repos.GetPostgresConnection(ctx, cfg.DatabaseURL)
}

// gatherSymbols merges the ticker flag, positional arguments and an optional
// list file into one slice. Normalization happens later in the pipeline.
func gatherSymbols(tickers []string, file string, args []string) ([]string, error) {
	symbols := make([]string, 0, len(tickers)+len(args))
	symbols = append(symbols, tickers...)
	symbols = append(symbols, args...)

	if file != "" {
		fromFile, err := universe.Load(file)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, fromFile...)
	}

	return symbols, nil
}
