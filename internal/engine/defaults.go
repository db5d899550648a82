package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"chaos_market/internal/domain"
)

// DefaultLedger builds the fresh default state used when no usable snapshot
// exists: the full parameter table, the house portfolio and two house-owned
// seed stocks.
func DefaultLedger(settings Settings) *Ledger {
	l := NewLedger(domain.DefaultParameters())
	l.AddPortfolio(domain.NewPortfolio(domain.HouseIdentity, domain.KindHouse, settings.HouseCash, time.Now()))
	seedStock(l, settings, "GRAVITY", "Gravity Control Inc", "gravity", []float64{42.0, 43.0, 44.0, 45.0})
	seedStock(l, settings, "NPCLIFE", "NPC Life Corp", "npcHealth", []float64{35.0, 36.0, 37.0, 38.0})
	return l
}

func seedStock(l *Ledger, settings Settings, symbol, name, param string, history []float64) {
	s := &domain.Stock{
		Symbol:      symbol,
		Name:        name,
		Parameter:   param,
		Price:       decimal.NewFromFloat(history[len(history)-1]),
		TotalShares: settings.TotalShares,
		HouseShares: settings.TotalShares,
		Creator:     domain.HouseIdentity,
	}
	for _, p := range history {
		s.AppendHistory(decimal.NewFromFloat(p), settings.HistoryLimit)
	}
	l.AddStock(s)
}
