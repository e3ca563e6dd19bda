package yahoo_finance

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	c "sharpe.service/api"
	ex "sharpe.service/extensions"
)

const dailyChartPayload = `{
  "chart": {
    "result": [{
      "meta": {
        "currency": "USD",
        "symbol": "AAPL",
        "exchangeTimezoneName": "America/New_York"
      },
      "timestamp": [1704205800, 1704292200, 1704378600],
      "indicators": {
        "quote": [{
          "open": [187.15, 184.22, 182.15],
          "high": [188.44, 185.88, 183.0872],
          "low": [183.885, 183.43, 180.88],
          "close": [185.64, 184.25, 181.91],
          "volume": [82488700, 58414500, 71983600]
        }],
        "adjclose": [{
          "adjclose": [184.5339, null, 180.8263]
        }]
      }
    }],
    "error": null
  }
}`

const notFoundPayload = `{
  "chart": {
    "result": null,
    "error": {
      "code": "Not Found",
      "description": "No data found, symbol may be delisted"
    }
  }
}`

const badRequestPayload = `{
  "chart": {
    "result": null,
    "error": {
      "code": "Bad Request",
      "description": "Invalid input - interval=7m is not supported"
    }
  }
}`

type stubConnection struct {
	lastEndpoint *url.URL
	payload      string
	err          error
}

func (s *stubConnection) Request(ctx context.Context, endpoint *url.URL) (*http.Response, error) {
	s.lastEndpoint = endpoint
	if s.err != nil {
		return nil, s.err
	}

	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(s.payload)),
	}, nil
}

func getStubClient(t *testing.T, payload string) (YahooFinanceClient, *stubConnection) {
	t.Helper()
	stub := &stubConnection{payload: payload}
	yfc := GetClient("", 0, 100, 100)
	yfc.Client.Connection = stub
	return yfc, stub
}

func Test_YahooFinance_PriceHistory(t *testing.T) {
	yfc, stub := getStubClient(t, dailyChartPayload)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	res, err := yfc.PriceHistory(context.Background(), "AAPL", start, end, c.IntervalDaily)
	if err != nil {
		t.Fatalf("error getting price history: %s", err)
	}

	// request shape
	ex.AssertPtrEqual(t, "path", "/v8/finance/chart/AAPL", &stub.lastEndpoint.Path)
	query := stub.lastEndpoint.Query()
	period1 := strconv.FormatInt(start.Unix(), 10)
	period2 := strconv.FormatInt(end.Unix(), 10)
	for key, expected := range map[string]string{
		"period1":              period1,
		"period2":              period2,
		"interval":             "1d",
		"includeAdjustedClose": "true",
		"events":               "div,split",
	} {
		actual := query.Get(key)
		ex.AssertPtrEqual(t, key, expected, &actual)
	}

	// meta data
	ex.AssertPtrEqual(t, "symbol", "AAPL", &res.Meta.Symbol)
	ex.AssertPtrEqual(t, "currency", "USD", &res.Meta.Currency)
	ex.AssertPtrEqual(t, "time zone", "America/New_York", &res.Meta.ExchangeTimezone)
	ex.AssertPtrEqual(t, "interval", "1d", &res.Meta.Interval)

	if len(res.Bars) != 3 {
		t.Fatalf("error expecting 3 bars, got %d", len(res.Bars))
	}

	// daily bars collapse to the civil date at midnight UTC
	firstDate := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	if !res.Bars[0].Timestamp.Equal(firstDate) {
		t.Fatalf("error normalizing timestamp, expected %s, got %s", firstDate, res.Bars[0].Timestamp)
	}

	ex.AssertPtrEqual(t, "open", 187.15, res.Bars[0].Open.Ptr())
	ex.AssertPtrEqual(t, "close", 185.64, res.Bars[0].Close.Ptr())
	ex.AssertPtrEqual(t, "adjusted close", 184.5339, res.Bars[0].AdjustedClose.Ptr())
	ex.AssertPtrEqual(t, "volume", float64(82488700), res.Bars[0].Volume.Ptr())

	// a null cell stays null, it must not become zero
	ex.AssertNillability(t, "adjusted close", true, res.Bars[1].AdjustedClose.Ptr())
	ex.AssertPtrEqual(t, "close", 184.25, res.Bars[1].Close.Ptr())
}

func Test_YahooFinance_IntradayKeepsExactInstant(t *testing.T) {
	yfc, _ := getStubClient(t, dailyChartPayload)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	res, err := yfc.PriceHistory(context.Background(), "AAPL", start, end, c.IntervalHourly)
	if err != nil {
		t.Fatalf("error getting price history: %s", err)
	}

	instant := time.Unix(1704205800, 0).UTC()
	if !res.Bars[0].Timestamp.Equal(instant) {
		t.Fatalf("error keeping intraday instant, expected %s, got %s", instant, res.Bars[0].Timestamp)
	}
}

func Test_YahooFinance_UnknownSymbolIsNoData(t *testing.T) {
	yfc, _ := getStubClient(t, notFoundPayload)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	_, err := yfc.PriceHistory(context.Background(), "NOPE", start, end, c.IntervalDaily)

	ex.AssertErrorIs(t, "unknown symbol", err, c.ErrNoData)
}

func Test_YahooFinance_ProviderErrorIsNotNoData(t *testing.T) {
	yfc, _ := getStubClient(t, badRequestPayload)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	_, err := yfc.PriceHistory(context.Background(), "AAPL", start, end, c.IntervalDaily)

	if err == nil {
		t.Fatalf("error expecting provider error to surface")
	}
	if errors.Is(err, c.ErrNoData) {
		t.Fatalf("error expecting a distinct provider error, got no-data: %s", err)
	}
}

func Test_YahooFinance_EmptyResultIsNoData(t *testing.T) {
	yfc, _ := getStubClient(t, `{"chart":{"result":[],"error":null}}`)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	_, err := yfc.PriceHistory(context.Background(), "AAPL", start, end, c.IntervalDaily)

	ex.AssertErrorIs(t, "empty result", err, c.ErrNoData)
}

func Test_YahooFinance_TruncatedIndicatorsStayNull(t *testing.T) {
	payload := `{
	  "chart": {
	    "result": [{
	      "meta": {"currency": "USD", "symbol": "THIN", "exchangeTimezoneName": "America/New_York"},
	      "timestamp": [1704205800, 1704292200],
	      "indicators": {
	        "quote": [{"open": [10.0], "high": [10.5], "low": [9.5], "close": [10.2], "volume": [1000]}],
	        "adjclose": [{"adjclose": [10.2]}]
	      }
	    }],
	    "error": null
	  }
	}`
	yfc, _ := getStubClient(t, payload)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	res, err := yfc.PriceHistory(context.Background(), "THIN", start, end, c.IntervalDaily)
	if err != nil {
		t.Fatalf("error getting price history: %s", err)
	}

	if len(res.Bars) != 2 {
		t.Fatalf("error expecting 2 bars, got %d", len(res.Bars))
	}
	ex.AssertPtrEqual(t, "close", 10.2, res.Bars[0].Close.Ptr())
	ex.AssertNillability(t, "close", true, res.Bars[1].Close.Ptr())
}
