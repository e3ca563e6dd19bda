package yahoo_finance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"

	c "sharpe.service/api"
	m "sharpe.service/models"
)

// public
const (
	HostDefault = "query1.finance.yahoo.com"
)

// private
const (
	defaultTimeout = time.Second * 30

	chartPath = "/v8/finance/chart/"

	// provider error codes worth telling apart
	codeNotFound = "Not Found"
)

type YahooFinanceClient struct {
	*c.Client
}

func GetClient(host string, timeout time.Duration, requestsPerSecond float64, burst int) YahooFinanceClient {
	if host == "" {
		host = HostDefault
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return YahooFinanceClient{
		c.ClientFactory(host, timeout, requestsPerSecond, burst),
	}
}

// chart response envelope, https://query1.finance.yahoo.com/v8/finance/chart/AAPL
type chartEnvelope struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Currency             string `json:"currency"`
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []null.Float `json:"open"`
			High   []null.Float `json:"high"`
			Low    []null.Float `json:"low"`
			Close  []null.Float `json:"close"`
			Volume []null.Float `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []null.Float `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// PriceHistory fetches one symbol's bars over [start, end), oldest first.
// A symbol the provider does not know comes back as api.ErrNoData.
func (yfc *YahooFinanceClient) PriceHistory(ctx context.Context, symbol string, start, end time.Time, interval c.Interval) (*m.PriceHistory, error) {
	endpoint := yfc.buildRequestPath(symbol, map[string]string{
		"period1":  strconv.FormatInt(start.Unix(), 10),
		"period2":  strconv.FormatInt(end.Unix(), 10),
		"interval": interval.Token(),
	})

	response, err := yfc.Client.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("error requesting chart for %s: %w", symbol, err)
	}
	defer response.Body.Close()

	envelope, err := parseChartEnvelope(response.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing chart response for %s (status %d): %w", symbol, response.StatusCode, err)
	}

	if envelope.Chart.Error != nil {
		if envelope.Chart.Error.Code == codeNotFound {
			return nil, fmt.Errorf("%s: %s: %w", symbol, envelope.Chart.Error.Description, c.ErrNoData)
		}
		return nil, fmt.Errorf("provider error for %s: %s: %s", symbol, envelope.Chart.Error.Code, envelope.Chart.Error.Description)
	}

	if len(envelope.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: chart result is empty: %w", symbol, c.ErrNoData)
	}

	history, err := buildPriceHistory(&envelope.Chart.Result[0], interval)
	if err != nil {
		return nil, fmt.Errorf("error building price history for %s: %w", symbol, err)
	}

	if len(history.Bars) == 0 {
		return nil, fmt.Errorf("%s: no bars in requested range: %w", symbol, c.ErrNoData)
	}

	history.Meta.Interval = interval.Token()
	return history, nil
}

func (yfc *YahooFinanceClient) buildRequestPath(symbol string, params map[string]string) *url.URL {
	endpoint := &url.URL{}
	endpoint.Path = chartPath + symbol

	// base parameters
	query := endpoint.Query()
	query.Set("includeAdjustedClose", "true")
	query.Set("includePrePost", "false")
	query.Set("events", "div,split")

	// additional parameters
	for key, value := range params {
		query.Set(key, value)
	}

	endpoint.RawQuery = query.Encode()

	return endpoint
}

func parseChartEnvelope(reader io.Reader) (*chartEnvelope, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	var envelope chartEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	return &envelope, nil
}

func buildPriceHistory(result *chartResult, interval c.Interval) (*m.PriceHistory, error) {
	location := getTimeZone(result.Meta.ExchangeTimezoneName)

	var quote struct {
		Open   []null.Float `json:"open"`
		High   []null.Float `json:"high"`
		Low    []null.Float `json:"low"`
		Close  []null.Float `json:"close"`
		Volume []null.Float `json:"volume"`
	}
	if len(result.Indicators.Quote) > 0 {
		quote = result.Indicators.Quote[0]
	}

	var adjclose []null.Float
	if len(result.Indicators.AdjClose) > 0 {
		adjclose = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]*m.PriceBar, 0, len(result.Timestamp))
	for i, unixSeconds := range result.Timestamp {
		bars = append(bars, &m.PriceBar{
			Timestamp:     normalizeTimestamp(unixSeconds, interval, location),
			Open:          cellAt(quote.Open, i),
			High:          cellAt(quote.High, i),
			Low:           cellAt(quote.Low, i),
			Close:         cellAt(quote.Close, i),
			AdjustedClose: cellAt(adjclose, i),
			Volume:        cellAt(quote.Volume, i),
		})
	}

	return &m.PriceHistory{
		Meta: m.PriceMeta{
			Symbol:           result.Meta.Symbol,
			Currency:         result.Meta.Currency,
			ExchangeTimezone: result.Meta.ExchangeTimezoneName,
		},
		Bars: bars,
	}, nil
}

// normalizeTimestamp keeps intraday bars on their exact instant. Daily and
// coarser bars collapse to the civil date in the exchange time zone so the
// same session lines up across exchanges.
func normalizeTimestamp(unixSeconds int64, interval c.Interval, location *time.Location) time.Time {
	t := time.Unix(unixSeconds, 0).UTC()
	if interval.IsIntraday() {
		return t
	}

	local := t.In(location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// cellAt tolerates short indicator arrays, the provider truncates them on
// some thinly traded symbols.
func cellAt(cells []null.Float, i int) null.Float {
	if i >= len(cells) {
		return null.Float{}
	}
	return cells[i]
}

func getTimeZone(name string) *time.Location {
	if name == "" {
		return time.UTC
	}

	location, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Str("timezone", name).Msg("unrecognized exchange time zone, falling back to UTC")
		return time.UTC
	}

	return location
}
