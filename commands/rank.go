package commands

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"sharpe.service/api"
	"sharpe.service/core"
	m "sharpe.service/models"
)

var rankFlags struct {
	tickers  []string
	file     string
	period   int
	riskFree float64
	interval string
	field    string
	top      int
	out      string
	cached   bool
}

var rankCmd = &cobra.Command{
	Use:   "rank [tickers...]",
	Short: "Rank instruments by Sharpe ratio and render the chart",
	RunE:  runRank,
}

func init() {
	rankCmd.Flags().StringSliceVarP(&rankFlags.tickers, "tickers", "t", nil, "comma separated tickers to rank")
	rankCmd.Flags().StringVarP(&rankFlags.file, "file", "f", "", "file with one ticker per line (.txt, .csv, .xlsx)")
	rankCmd.Flags().IntVar(&rankFlags.period, "period", core.DefaultPeriodYears, "lookback period in whole years")
	rankCmd.Flags().Float64Var(&rankFlags.riskFree, "risk-free", core.DefaultRiskFreeRate, "annual risk free rate")
	rankCmd.Flags().StringVar(&rankFlags.interval, "interval", api.IntervalMonthly.Token(), "bar interval (1d, 1wk, 1mo, ...)")
	rankCmd.Flags().StringVar(&rankFlags.field, "field", api.PriceFieldAdjustedClose.Token(), "price field used for returns")
	rankCmd.Flags().IntVar(&rankFlags.top, "top", core.DefaultTopN, "number of instruments to keep")
	rankCmd.Flags().StringVarP(&rankFlags.out, "out", "o", "sharpe.png", "chart output path, empty disables the chart")
	rankCmd.Flags().BoolVar(&rankFlags.cached, "cached", false, "rank from the postgres cache instead of the provider")
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg := setup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	symbols, err := gatherSymbols(rankFlags.tickers, rankFlags.file, args)
	if err != nil {
		return err
	}

	interval, err := api.ParseInterval(rankFlags.interval)
	if err != nil {
		return err
	}
	field, err := api.ParsePriceField(rankFlags.field)
	if err != nil {
		return err
	}

	sc := &core.ServiceContext{Context: ctx}

	pg, err := openPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	if pg != nil {
		defer pg.Close()
		sc.PostgresConnection = pg
	}

	if rankFlags.cached {
		if pg == nil {
			return errors.New("--cached needs DATABASE_URL set")
		}
		sc.MarketData = pg
	} else {
		client := marketDataClient(cfg)
		sc.MarketData = &client
	}

	result, err := sc.RunRanking(core.RankSettings{
		Symbols:      symbols,
		PeriodYears:  rankFlags.period,
		RiskFreeRate: rankFlags.riskFree,
		Interval:     interval,
		PriceField:   field,
		TopN:         rankFlags.top,
	})
	if err != nil {
		return err
	}

	printRankResult(cmd, result)

	if rankFlags.out != "" {
		image, err := core.RenderBarChart(result)
		if err != nil {
			return err
		}
		if err := os.WriteFile(rankFlags.out, image, 0o644); err != nil {
			return fmt.Errorf("error writing chart to %s: %w", rankFlags.out, err)
		}
		log.Info().Str("path", rankFlags.out).Msg("chart written")
	}

	return nil
}

func printRankResult(cmd *cobra.Command, result *m.RankResult) {
	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "RANK\tSYMBOL\tSHARPE\tMEAN\tVOL\tOBS")
	for i, record := range result.Records {
		fmt.Fprintf(writer, "%d\t%s\t%.4f\t%.4f\t%.4f\t%d\n",
			i+1, record.Symbol, record.SharpeRatio, record.AnnualizedMean, record.AnnualizedVol, record.Observations)
	}
	writer.Flush()

	if len(result.Excluded) > 0 {
		fmt.Fprintln(cmd.OutOrStdout())
		for _, exclusion := range result.Excluded {
			fmt.Fprintf(cmd.OutOrStdout(), "excluded %s (%s)\n", exclusion.Symbol, exclusion.Reason)
		}
	}
}
