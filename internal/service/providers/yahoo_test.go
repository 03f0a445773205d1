package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYahooExpirations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/GME", r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		_, _ = w.Write([]byte(`{"optionChain":{"result":[{"expirationDates":[1749168000,1749772800]}]}}`))
	}))
	defer srv.Close()

	c := NewYahooClient(time.Second, WithOptionsURL(srv.URL))
	exps, err := c.Expirations(context.Background(), "GME")
	require.NoError(t, err)
	require.Len(t, exps, 2)
	assert.Equal(t, time.Unix(1749168000, 0).UTC(), exps[0])
}

func TestYahooExpirationsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"optionChain":{"result":[]}}`))
	}))
	defer srv.Close()

	c := NewYahooClient(time.Second, WithOptionsURL(srv.URL))
	exps, err := c.Expirations(context.Background(), "XXXX")
	require.NoError(t, err)
	assert.Empty(t, exps)
}

func TestYahooExpirationsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"optionChain":{"result":[],"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	c := NewYahooClient(time.Second, WithOptionsURL(srv.URL))
	_, err := c.Expirations(context.Background(), "XXXX")
	assert.ErrorContains(t, err, "No data found")
}

func TestYahooChainMissingFieldsAreZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1749168000", r.URL.Query().Get("date"))
		_, _ = w.Write([]byte(`{"optionChain":{"result":[{"options":[{
			"expirationDate":1749168000,
			"calls":[{"strike":25.0,"volume":120,"openInterest":300},{"strike":30.0}],
			"puts":[{"strike":20.0,"volume":40}]
		}]}]}}`))
	}))
	defer srv.Close()

	c := NewYahooClient(time.Second, WithOptionsURL(srv.URL))
	chain, err := c.Chain(context.Background(), "GME", time.Unix(1749168000, 0).UTC())
	require.NoError(t, err)

	require.Len(t, chain.Calls, 2)
	assert.Equal(t, 120.0, chain.Calls[0].Volume)
	// volume and open interest omitted on the wire decode as zero
	assert.Equal(t, 0.0, chain.Calls[1].Volume)
	assert.Equal(t, 0.0, chain.Calls[1].OpenInterest)
	require.Len(t, chain.Puts, 1)
	assert.Equal(t, 0.0, chain.Puts[0].OpenInterest)
}

func TestYahooChainNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"optionChain":{"result":[{"options":[]}]}}`))
	}))
	defer srv.Close()

	c := NewYahooClient(time.Second, WithOptionsURL(srv.URL))
	_, err := c.Chain(context.Background(), "GME", time.Unix(1749168000, 0).UTC())
	assert.ErrorContains(t, err, "no chain")
}

func TestYahooDailyHistorySkipsNullCloses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "60d", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[1748822400,1748908800,1748995200],
			"indicators":{"quote":[{
				"close":[24.5,null,26.1],
				"volume":[1000000,null,2000000]
			}]}
		}]}}`))
	}))
	defer srv.Close()

	c := NewYahooClient(time.Second, WithChartURL(srv.URL))
	bars, err := c.DailyHistory(context.Background(), "GME", 60)
	require.NoError(t, err)

	require.Len(t, bars, 2)
	assert.Equal(t, 24.5, bars[0].Close)
	assert.Equal(t, 26.1, bars[1].Close)
	assert.Equal(t, 2000000.0, bars[1].Volume)
}

func TestYahooDailyHistoryHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewYahooClient(time.Second, WithChartURL(srv.URL))
	_, err := c.DailyHistory(context.Background(), "GME", 60)
	assert.ErrorContains(t, err, "429")
}
