package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chaos_market/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "market.db"))
	require.NoError(t, err)
	return store
}

func TestStore_EmptyLoad(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadSnapshot()
	require.ErrorIs(t, err, ErrNoSnapshot)
}

func TestStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	start := time.Date(2026, 2, 14, 18, 30, 0, 0, time.UTC)
	snap := domain.Snapshot{
		SessionStart: start,
		Stocks: []domain.Stock{
			{
				Symbol:      "GRAVITY",
				Name:        "Gravity Control Inc",
				Parameter:   "gravity",
				Price:       decimal.NewFromFloat(45.5),
				History:     []decimal.Decimal{decimal.NewFromInt(44), decimal.NewFromFloat(45.5)},
				TotalShares: 1000,
				HouseShares: 930,
				TopHolder:   "alice",
				Creator:     domain.HouseIdentity,
			},
		},
		Portfolios: []domain.Portfolio{
			{
				Identity:   "alice",
				Cash:       decimal.NewFromFloat(123.45),
				Holdings:   map[string]int64{"GRAVITY": 70},
				Kind:       domain.KindChatter,
				LastActive: start.Add(10 * time.Minute),
			},
		},
		Parameters: []domain.Parameter{
			{Key: "gravity", Value: 14.3, Min: 1, Max: 20, Unit: "m/s²"},
		},
	}
	require.NoError(t, store.SaveSnapshot(snap))

	loaded, err := store.LoadSnapshot()
	require.NoError(t, err)

	require.Len(t, loaded.Stocks, 1)
	stock := loaded.Stocks[0]
	assert.Equal(t, "GRAVITY", stock.Symbol)
	assert.True(t, stock.Price.Equal(decimal.NewFromFloat(45.5)))
	assert.Len(t, stock.History, 2)
	assert.Equal(t, int64(930), stock.HouseShares)
	assert.Equal(t, "alice", stock.TopHolder)

	require.Len(t, loaded.Portfolios, 1)
	pf := loaded.Portfolios[0]
	assert.True(t, pf.Cash.Equal(decimal.NewFromFloat(123.45)))
	assert.Equal(t, int64(70), pf.Holdings["GRAVITY"])
	assert.Equal(t, domain.KindChatter, pf.Kind)

	require.Len(t, loaded.Parameters, 1)
	assert.Equal(t, 14.3, loaded.Parameters[0].Value)

	assert.True(t, loaded.SessionStart.Equal(start))
}

func TestStore_SaveReplacesPrevious(t *testing.T) {
	store := newTestStore(t)

	first := domain.Snapshot{
		Stocks: []domain.Stock{
			{Symbol: "OLD", Price: decimal.NewFromInt(10), TotalShares: 1000, HouseShares: 1000},
			{Symbol: "KEEP", Price: decimal.NewFromInt(20), TotalShares: 1000, HouseShares: 1000},
		},
	}
	require.NoError(t, store.SaveSnapshot(first))

	second := domain.Snapshot{
		Stocks: []domain.Stock{
			{Symbol: "KEEP", Price: decimal.NewFromInt(25), TotalShares: 1000, HouseShares: 990},
		},
	}
	require.NoError(t, store.SaveSnapshot(second))

	loaded, err := store.LoadSnapshot()
	require.NoError(t, err)
	require.Len(t, loaded.Stocks, 1, "save must replace, not merge")
	assert.Equal(t, "KEEP", loaded.Stocks[0].Symbol)
	assert.True(t, loaded.Stocks[0].Price.Equal(decimal.NewFromInt(25)))
}
