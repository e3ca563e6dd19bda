package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrNoData marks a symbol the source simply has nothing for, as opposed to
// a transport failure. Callers test with errors.Is.
var ErrNoData = errors.New("no price data for symbol")

const userAgent = "Mozilla/5.0 (compatible; sharpe-service/1.0)"

type Connection interface {
	Request(ctx context.Context, endpoint *url.URL) (*http.Response, error)
}

type ClientHost struct {
	client  *http.Client
	host    string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

type Client struct {
	Connection Connection
}

func (conn *ClientHost) Request(ctx context.Context, endpoint *url.URL) (*http.Response, error) {
	endpoint.Scheme = "https"
	endpoint.Host = conn.host

	if err := conn.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, err := conn.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		return conn.client.Do(req)
	})
	if err != nil {
		return nil, err
	}

	return res.(*http.Response), nil
}

func ClientFactory(host string, timeout time.Duration, requestsPerSecond float64, burst int) *Client {
	client := &http.Client{
		Timeout: timeout,
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    host,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	clientHost := &ClientHost{
		client:  client,
		host:    host,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		breaker: breaker,
	}

	return &Client{
		Connection: clientHost,
	}
}
