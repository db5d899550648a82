package server

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chaos_market/internal/engine"
	"chaos_market/internal/pricing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	settings := engine.Settings{
		StartingCash:     decimal.NewFromInt(500),
		HouseCash:        decimal.NewFromInt(1_000_000),
		TotalShares:      1000,
		CreatorAllotment: 1,
		InitialPriceMin:  30.0,
		InitialPriceMax:  51.0,
		HistoryLimit:     20,
	}
	policy := pricing.NewAdditive(decimal.NewFromInt(1), decimal.NewFromInt(1))
	eng := engine.New(engine.DefaultLedger(settings), policy, nil, settings, rand.New(rand.NewSource(11)))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go eng.Run(ctx)

	ts := httptest.NewServer(New(eng, nil, nil).Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	var doc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	return resp, doc
}

func getJSON(t *testing.T, ts *httptest.Server, path string, dst any) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	return resp
}

func TestGetStocks(t *testing.T) {
	ts := newTestServer(t)

	var stocks []map[string]any
	resp := getJSON(t, ts, "/api/stocks", &stocks)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, stocks, 2)
	// Ordered by descending price: GRAVITY at 45 before NPCLIFE at 38.
	assert.Equal(t, "GRAVITY", stocks[0]["symbol"])
	assert.Equal(t, "NPCLIFE", stocks[1]["symbol"])
}

func TestTradeEndpoint(t *testing.T) {
	ts := newTestServer(t)

	t.Run("Buy Defaults To One Share", func(t *testing.T) {
		resp, doc := postJSON(t, ts, "/api/trade", `{"user":"alice","symbol":"gravity","action":"buy"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, doc["success"])
		result := doc["result"].(map[string]any)
		assert.Equal(t, "GRAVITY", result["symbol"])
		assert.Equal(t, float64(1), result["shares_owned"])
	})

	t.Run("Unknown Stock Is 404", func(t *testing.T) {
		resp, doc := postJSON(t, ts, "/api/trade", `{"user":"alice","symbol":"NOPE","action":"buy"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, false, doc["success"])
		assert.Equal(t, "not_found", doc["kind"])
	})

	t.Run("Insufficient Funds Is 409", func(t *testing.T) {
		resp, doc := postJSON(t, ts, "/api/trade", `{"user":"brokebob","symbol":"GRAVITY","action":"buy","shares":500}`)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "insufficient_resources", doc["kind"])
	})

	t.Run("Bad Action Is 400", func(t *testing.T) {
		resp, _ := postJSON(t, ts, "/api/trade", `{"user":"alice","symbol":"GRAVITY","action":"borrow"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Player Without Cash Context Is 400", func(t *testing.T) {
		resp, doc := postJSON(t, ts, "/api/trade", `{"user":"Player","symbol":"GRAVITY","action":"buy"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "missing_context", doc["kind"])
	})

	t.Run("Player With Cash Context", func(t *testing.T) {
		resp, doc := postJSON(t, ts, "/api/trade", `{"user":"Player","symbol":"GRAVITY","action":"buy","currentCash":5000}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, doc["success"])
	})

	t.Run("Malformed Body Is 400", func(t *testing.T) {
		resp, _ := postJSON(t, ts, "/api/trade", `{"user":`+`"`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestIssueEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, doc := postJSON(t, ts, "/api/stocks", `{"user":"carol","symbol":"snow","name":"Snow Machines","param":"snowLevel"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	stock := doc["stock"].(map[string]any)
	assert.Equal(t, "SNOW", stock["symbol"])
	assert.Equal(t, "snowLevel", stock["param"])

	resp, doc = postJSON(t, ts, "/api/stocks", `{"user":"carol","symbol":"snow2","name":"Snow Again","param":"snowLevel"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", doc["kind"])
}

func TestPortfolioEndpoints(t *testing.T) {
	ts := newTestServer(t)

	var view map[string]any
	resp := getJSON(t, ts, "/api/portfolio/dave", &view)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "500", view["cash"])

	_, _ = postJSON(t, ts, "/api/trade", `{"user":"dave","symbol":"GRAVITY","action":"buy","shares":2}`)

	resp2, doc := postJSON(t, ts, "/api/portfolio/dave/reset", ``)
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, float64(1), doc["cleared_stocks"])

	getJSON(t, ts, "/api/portfolio/dave", &view)
	assert.Equal(t, "0", view["cash"])
	assert.Empty(t, view["stocks"])
}

func TestPlayerCashEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, doc := postJSON(t, ts, "/api/player/cash", `{"cash":250000}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, doc["success"])

	resp, doc = postJSON(t, ts, "/api/player/cash", `{"cash":-5}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", doc["kind"])
}

func TestParametersEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var params map[string]map[string]any
	resp := getJSON(t, ts, "/api/parameters", &params)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, params, "gravity")
	assert.Equal(t, 10.5, params["gravity"]["value"], "gravity starts at its midpoint")
}

func TestLeaderboardEndpoint(t *testing.T) {
	ts := newTestServer(t)

	_, _ = postJSON(t, ts, "/api/trade", `{"user":"rich","symbol":"GRAVITY","action":"buy","shares":2}`)

	var board []map[string]any
	resp := getJSON(t, ts, "/api/leaderboard", &board)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, board, 1)
	assert.Equal(t, "rich", board[0]["identity"])

	badResp, err := http.Get(ts.URL + "/api/leaderboard?limit=zero")
	require.NoError(t, err)
	defer badResp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, badResp.StatusCode)
}

func TestSessionEndpoints(t *testing.T) {
	ts := newTestServer(t)

	_, _ = postJSON(t, ts, "/api/trade", `{"user":"eve","symbol":"GRAVITY","action":"buy"}`)

	resp, doc := postJSON(t, ts, "/api/game/start", ``)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, doc["success"])

	var status map[string]any
	getJSON(t, ts, "/api/game/status", &status)
	assert.Equal(t, float64(2), status["total_stocks"])
	assert.Equal(t, float64(0), status["total_participants"], "session start drops every participant")
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	var doc map[string]bool
	resp := getJSON(t, ts, "/healthz", &doc)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, doc["ok"])
}
