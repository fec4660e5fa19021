// Package quote looks up point-in-time stock prices from Alpha Vantage.
package quote

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"papertrade/internal/models"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

type Provider interface {
	Lookup(ctx context.Context, symbol string) (Quote, error)
	LookupWithRetry(ctx context.Context, symbol string) (Quote, error)
}

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	log     *logrus.Logger
}

func NewClient(apiKey string, timeout time.Duration, log *logrus.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// NewClientWithBaseURL points the client at a non-default endpoint.
func NewClientWithBaseURL(apiKey, baseURL string, timeout time.Duration, log *logrus.Logger) *Client {
	c := NewClient(apiKey, timeout, log)
	c.baseURL = baseURL
	return c
}

// Lookup fetches the current intraday price for symbol. Symbols containing a
// caret or comma are known-invalid ticker formats and are rejected without a
// network call. Network and parse failures map to ErrQuoteUnavailable and
// never propagate raw.
func (c *Client) Lookup(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Quote{}, models.ErrInvalidInput
	}
	if strings.ContainsAny(symbol, "^,") {
		return Quote{}, models.ErrSymbolNotFound
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("datatype", "csv")
	params.Set("function", "TIME_SERIES_INTRADAY")
	params.Set("interval", "1min")
	params.Set("symbol", symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", models.ErrQuoteUnavailable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warnf("quote fetch for %s failed: %v", symbol, err)
		return Quote{}, fmt.Errorf("%w: %v", models.ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.log.Warnf("quote fetch for %s: status %d", symbol, resp.StatusCode)
		return Quote{}, fmt.Errorf("%w: status %d", models.ErrQuoteUnavailable, resp.StatusCode)
	}

	price, err := parseIntradayCSV(resp.Body)
	if err != nil {
		// A 200 with no usable rows is what the provider returns for an
		// unknown ticker.
		c.log.Warnf("quote parse for %s failed: %v", symbol, err)
		return Quote{}, models.ErrSymbolNotFound
	}
	return Quote{Symbol: symbol, Price: price}, nil
}

// parseIntradayCSV pulls the close price out of the first data row of an
// intraday CSV response (timestamp,open,high,low,close,volume).
func parseIntradayCSV(r io.Reader) (decimal.Decimal, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	if _, err := reader.Read(); err != nil {
		return decimal.Zero, fmt.Errorf("read header: %w", err)
	}
	row, err := reader.Read()
	if err != nil {
		return decimal.Zero, fmt.Errorf("read data row: %w", err)
	}
	if len(row) < 5 {
		return decimal.Zero, fmt.Errorf("short data row: %d fields", len(row))
	}
	price, err := decimal.NewFromString(row[4])
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse close price: %w", err)
	}
	if price.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("non-positive close price %s", price)
	}
	return price, nil
}

// LookupWithRetry retries transient provider failures with exponential
// backoff, three attempts in total, then surfaces ErrQuoteUnavailable.
// Unknown symbols are not retried.
func (c *Client) LookupWithRetry(ctx context.Context, symbol string) (Quote, error) {
	var q Quote
	backoff := retry.WithMaxRetries(2, retry.NewExponential(250*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		q, err = c.Lookup(ctx, symbol)
		if errors.Is(err, models.ErrQuoteUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return Quote{}, err
	}
	return q, nil
}
