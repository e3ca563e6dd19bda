package repos

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"sharpe.service/api"
	ex "sharpe.service/extensions"
	m "sharpe.service/models"
)

func Test_Base_CanGetConnectionAndPing(t *testing.T) {
	ctx := context.Background()
	pg := getConnection(t, ctx)
	err := pg.Ping(ctx)

	if err != nil {
		t.Errorf("error pinging postgres database: %s", err)
	}
}

func Test_InstrumentMetadataRepo_CanInsertAndGet(t *testing.T) {
	symbol := "_TEST"

	testMetadata := m.InstrumentMetadata{
		Symbol:        symbol,
		LastRefreshed: time.Date(2025, time.August, 22, 0, 0, 0, 0, time.UTC),
	}

	ctx := context.Background()
	pg := getConnection(t, ctx)

	exists, err := pg.GetInstrumentBySymbol(ctx, symbol)
	if err != nil {
		t.Fatalf("error determining if instrument exists for %s (should be absent): %s", symbol, err)
	}
	if exists != nil {
		t.Fatalf("symbol %s has not been inserted yet, so the lookup should come back nil", symbol)
	}

	if err := pg.InsertNewInstrument(ctx, &testMetadata, nil); err != nil {
		t.Fatalf("error inserting new instrument: %s", err)
	}
	if testMetadata.Id == 0 {
		t.Fatalf("id for test instrument failed to set properly")
	}

	defer pg.deleteTestPriceData(t, ctx, testMetadata.Id)

	res, err := pg.GetInstrumentBySymbol(ctx, symbol)
	if err != nil {
		t.Fatalf("error getting instrument by symbol, %s", err)
	}
	if testMetadata.Id != res.Id {
		t.Fatalf("ids did not match, inserted %d, got back %d", testMetadata.Id, res.Id)
	}
	if testMetadata.Symbol != res.Symbol {
		t.Fatalf("symbols did not match, inserted %s, got back %s", testMetadata.Symbol, res.Symbol)
	}
	if !testMetadata.LastRefreshed.Equal(res.LastRefreshed) {
		t.Fatalf("last refreshed time did not match, inserted %s, got back %s", ex.FmtLong(testMetadata.LastRefreshed), ex.FmtLong(res.LastRefreshed))
	}
}

func Test_PriceHistoryRepo_CanInsertAndGet(t *testing.T) {
	symbol := "_TEST2"
	interval := api.IntervalDaily.Token()

	testMetadata := m.InstrumentMetadata{
		Symbol:        symbol,
		LastRefreshed: time.Date(2025, time.August, 22, 0, 0, 0, 0, time.UTC),
	}

	ctx := context.Background()
	pg := getConnection(t, ctx)

	if err := pg.InsertNewInstrument(ctx, &testMetadata, nil); err != nil {
		t.Fatalf("error inserting new instrument: %s", err)
	}

	defer pg.deleteTestPriceData(t, ctx, testMetadata.Id)

	testRows := make([]*m.PriceRow, 2)
	testRows[0] = &m.PriceRow{
		SourceId:      testMetadata.Id,
		Interval:      interval,
		Timestamp:     time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC),
		Open:          null.FloatFrom(100),
		High:          null.FloatFrom(105),
		Low:           null.FloatFrom(95),
		Close:         null.FloatFrom(102),
		AdjustedClose: null.FloatFrom(101.5),
		Volume:        null.FloatFrom(1000),
	}
	testRows[1] = &m.PriceRow{
		SourceId:  testMetadata.Id,
		Interval:  interval,
		Timestamp: time.Date(2025, time.August, 21, 0, 0, 0, 0, time.UTC),
		Open:      null.FloatFrom(102),
		High:      null.FloatFrom(107),
		Low:       null.FloatFrom(97),
		Close:     null.FloatFrom(104),
		// adjusted close intentionally left null
		Volume: null.FloatFrom(2000),
	}

	ct, err := pg.InsertPriceRows(ctx, testRows, nil)
	if err != nil {
		t.Fatalf("error inserting price rows: %s", err)
	}
	if ct != int64(len(testRows)) {
		t.Fatalf("expected to insert %d price rows, but inserted %d", len(testRows), ct)
	}

	start := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	rows, err := pg.GetPriceRows(ctx, symbol, interval, start, end)
	if err != nil {
		t.Fatalf("error getting price rows by symbol: %s", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 price rows back, got %d", len(rows))
	}

	// oldest first
	comparePriceRows(t, testRows[0], rows[0])
	comparePriceRows(t, testRows[1], rows[1])

	mostRecent, err := pg.GetMostRecentBarTimestamp(ctx, testMetadata.Id, interval)
	if err != nil {
		t.Fatalf("error getting most recent bar timestamp: %s", err)
	}
	if mostRecent == nil || !mostRecent.Equal(testRows[1].Timestamp) {
		t.Fatalf("most recent timestamp mismatch, expected %s, got %v", ex.FmtShort(testRows[1].Timestamp), mostRecent)
	}
}

func Test_PriceHistoryRepo_ServesPriceHistory(t *testing.T) {
	symbol := "_TEST3"

	testMetadata := m.InstrumentMetadata{
		Symbol:        symbol,
		LastRefreshed: time.Date(2025, time.August, 22, 0, 0, 0, 0, time.UTC),
	}

	ctx := context.Background()
	pg := getConnection(t, ctx)

	if err := pg.InsertNewInstrument(ctx, &testMetadata, nil); err != nil {
		t.Fatalf("error inserting new instrument: %s", err)
	}

	defer pg.deleteTestPriceData(t, ctx, testMetadata.Id)

	row := m.PriceRow{
		SourceId:      testMetadata.Id,
		Interval:      api.IntervalDaily.Token(),
		Timestamp:     time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC),
		Close:         null.FloatFrom(55),
		AdjustedClose: null.FloatFrom(54.5),
	}
	if _, err := pg.InsertPriceRows(ctx, []*m.PriceRow{&row}, nil); err != nil {
		t.Fatalf("error inserting price row: %s", err)
	}

	start := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)

	history, err := pg.PriceHistory(ctx, symbol, start, end, api.IntervalDaily)
	if err != nil {
		t.Fatalf("error serving cached price history: %s", err)
	}
	if history.Meta.Symbol != symbol {
		t.Fatalf("symbol mismatch, expected %s, got %s", symbol, history.Meta.Symbol)
	}
	if len(history.Bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(history.Bars))
	}
	ex.AssertPtrEqual(t, "adjusted close", 54.5, history.Bars[0].AdjustedClose.Ptr())

	// weekly bars were never cached for this symbol
	_, err = pg.PriceHistory(ctx, symbol, start, end, api.IntervalWeekly)
	if !errors.Is(err, api.ErrNoData) {
		t.Fatalf("expected no-data error for uncached interval, got %v", err)
	}
}

func comparePriceRows(t *testing.T, expected, actual *m.PriceRow) {
	t.Helper()
	if !expected.Timestamp.Equal(actual.Timestamp) {
		t.Fatalf("value mismatch for timestamp, expected %v, got %v", ex.FmtLong(expected.Timestamp), ex.FmtLong(actual.Timestamp))
	}
	ex.AssertPtrEqual(t, "interval", expected.Interval, &actual.Interval)
	ex.AssertPtrEqual(t, "open", expected.Open.Float64, actual.Open.Ptr())
	ex.AssertPtrEqual(t, "high", expected.High.Float64, actual.High.Ptr())
	ex.AssertPtrEqual(t, "low", expected.Low.Float64, actual.Low.Ptr())
	ex.AssertPtrEqual(t, "close", expected.Close.Float64, actual.Close.Ptr())
	ex.AssertNillability(t, "adjusted close", !expected.AdjustedClose.Valid, actual.AdjustedClose.Ptr())
	ex.AssertPtrEqual(t, "volume", expected.Volume.Float64, actual.Volume.Ptr())
}

func getConnection(t *testing.T, ctx context.Context) *Postgres {
	t.Helper()
	_ = godotenv.Load("../.env")

	connectionString := os.Getenv("DATABASE_URL")
	if connectionString == "" {
		t.Skip("DATABASE_URL is not set, skipping repo tests")
	}

	res, err := GetPostgresConnection(ctx, connectionString)
	if err != nil {
		t.Fatalf("error getting postgres connection: %s", err)
	}

	t.Cleanup(func() {
		res.Close()
	})

	return res
}

func (pg *Postgres) deleteTestPriceData(t *testing.T, ctx context.Context, id int32) {
	t.Helper()

	args := pgx.NamedArgs{"source_id": id}
	_, err1 := pg.db.Exec(ctx, "DELETE FROM yf_price_history WHERE source_id = @source_id", args)
	if err1 != nil {
		t.Errorf("cleanup yf_price_history failed: %s", err1)
	}

	_, err2 := pg.db.Exec(ctx, "DELETE FROM yf_instrument_metadata WHERE id = @source_id", args)
	if err2 != nil {
		t.Errorf("cleanup yf_instrument_metadata failed: %s", err2)
	}
}
