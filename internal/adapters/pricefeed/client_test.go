package pricefeed_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/walkforward/internal/adapters/pricefeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *pricefeed.Client {
	return pricefeed.NewClient(pricefeed.Config{
		BaseURL:    srv.URL,
		RatePerSec: 1000,
		Burst:      100,
		RetryWait:  time.Millisecond,
	})
}

func TestFetchHistory_Success(t *testing.T) {
	data, err := os.ReadFile("../../../testdata/fixtures/pricefeed_history.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/prices/history", r.URL.Path)
		assert.Equal(t, "BTC/USD", r.URL.Query().Get("pair"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	defer srv.Close()

	prices, err := newTestClient(srv).FetchHistory(context.Background(), "BTC/USD", 500)
	require.NoError(t, err)
	require.Len(t, prices, 3)

	assert.Equal(t, "2024-03-01T00:10:00Z", prices[0].Timestamp)
	assert.InDelta(t, 64210.5, prices[0].Price, 1e-9)
	assert.Equal(t, "chainlink", prices[0].Oracle)

	// precio como string y oracle como objeto
	assert.InDelta(t, 64190.25, prices[1].Price, 1e-9)
	assert.JSONEq(t, `{"name":"pyth","conf":0.02}`, prices[1].Oracle)

	// timestamp numérico en ms y oracle null
	assert.Equal(t, "1709251200000", prices[2].Timestamp)
	assert.Empty(t, prices[2].Oracle)
}

func TestFetchHistory_Paginates(t *testing.T) {
	const total = 2500
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		type rec struct {
			Timestamp int64   `json:"timestamp"`
			Price     float64 `json:"price"`
		}
		var page []rec
		for i := offset; i < offset+limit && i < total; i++ {
			page = append(page, rec{Timestamp: int64(1_700_000_000_000 - i*60_000), Price: 100})
		}
		json.NewEncoder(w).Encode(map[string]any{"pair": "ETH/USD", "prices": page})
	}))
	defer srv.Close()

	prices, err := newTestClient(srv).FetchHistory(context.Background(), "ETH/USD", 0)
	require.NoError(t, err)
	assert.Len(t, prices, total)
	assert.Equal(t, int32(3), calls.Load(), "1000 + 1000 + 500")
	assert.Equal(t, fmt.Sprint(1_700_000_000_000), prices[0].Timestamp)
}

func TestFetchHistory_RespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(map[string]any{"prices": []map[string]any{
			{"timestamp": "2024-01-01T00:02:00Z", "price": 3},
			{"timestamp": "2024-01-01T00:01:00Z", "price": 2},
			{"timestamp": "2024-01-01T00:00:00Z", "price": 1},
		}})
	}))
	defer srv.Close()

	prices, err := newTestClient(srv).FetchHistory(context.Background(), "SOL/USD", 3)
	require.NoError(t, err)
	assert.Len(t, prices, 3)
}

func TestFetchHistory_BadPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prices":[{"timestamp":"2024-01-01T00:00:00Z","price":"n/a"}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchHistory(context.Background(), "BTC/USD", 10)
	assert.Error(t, err)
}

func TestFetchHistory_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"prices":[]}`))
	}))
	defer srv.Close()

	prices, err := newTestClient(srv).FetchHistory(context.Background(), "BTC/USD", 10)
	require.NoError(t, err)
	assert.Empty(t, prices)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchHistory_RateLimitedExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchHistory(context.Background(), "BTC/USD", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited after 3 retries")
	assert.Equal(t, int32(4), calls.Load())
}

func TestFetchHistory_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchHistory(context.Background(), "BTC/USD", 10)
	assert.Error(t, err)
}

func TestFetchHistory_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unknown pair", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchHistory(context.Background(), "XXX/USD", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown pair")
	assert.Equal(t, int32(1), calls.Load())
}

func TestListPairs_Sorted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/pairs", r.URL.Path)
		w.Write([]byte(`{"pairs":["SOL/USD","BTC/USD","ETH/USD"]}`))
	}))
	defer srv.Close()

	pairs, err := newTestClient(srv).ListPairs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC/USD", "ETH/USD", "SOL/USD"}, pairs)
}
