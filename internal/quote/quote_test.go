package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/internal/models"
)

const intradayCSV = "timestamp,open,high,low,close,volume\n" +
	"2024-05-01 15:59:00,187.10,187.60,186.90,187.45,120345\n" +
	"2024-05-01 15:58:00,186.80,187.20,186.70,187.10,98012\n"

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithBaseURL("test-key", srv.URL, 5*time.Second, logrus.New()), srv
}

func TestLookup(t *testing.T) {
	var hits int32
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "csv", r.URL.Query().Get("datatype"))
		w.Write([]byte(intradayCSV))
	})

	q, err := c.Lookup(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("187.45")), "got %s", q.Price)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestLookupRejectsBadSymbolsLocally(t *testing.T) {
	var hits int32
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})

	_, err := c.Lookup(context.Background(), "^DJI")
	assert.ErrorIs(t, err, models.ErrSymbolNotFound)

	_, err = c.Lookup(context.Background(), "AAPL,MSFT")
	assert.ErrorIs(t, err, models.ErrSymbolNotFound)

	_, err = c.Lookup(context.Background(), "  ")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	assert.Equal(t, int32(0), atomic.LoadInt32(&hits), "provider must not be called")
}

func TestLookupMapsProviderFailures(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.Lookup(context.Background(), "AAPL")
	assert.ErrorIs(t, err, models.ErrQuoteUnavailable)
}

func TestLookupUnknownSymbol(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Alpha Vantage answers 200 with an error document for unknown tickers.
		w.Write([]byte("{}"))
	})
	_, err := c.Lookup(context.Background(), "NOSUCH")
	assert.ErrorIs(t, err, models.ErrSymbolNotFound)
}

func TestLookupWithRetryExhaustsAttempts(t *testing.T) {
	var hits int32
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.LookupWithRetry(context.Background(), "AAPL")
	assert.ErrorIs(t, err, models.ErrQuoteUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits), "retry must be bounded")
}

func TestLookupWithRetryRecovers(t *testing.T) {
	var hits int32
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(intradayCSV))
	})

	q, err := c.LookupWithRetry(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("187.45")))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestLookupWithRetryDoesNotRetryUnknownSymbol(t *testing.T) {
	var hits int32
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("{}"))
	})

	_, err := c.LookupWithRetry(context.Background(), "NOSUCH")
	assert.ErrorIs(t, err, models.ErrSymbolNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
