package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"chaos_market/internal/domain"
)

// Ledger is the authoritative in-memory state: the stock registry, the
// portfolio table and the parameter table. It is owned exclusively by the
// Engine; nothing else mutates it. It carries no policy of its own.
type Ledger struct {
	stocks       map[string]*domain.Stock
	portfolios   map[string]*domain.Portfolio
	parameters   map[string]*domain.Parameter
	sessionStart time.Time
}

// NewLedger creates an empty ledger carrying the given parameter table.
func NewLedger(params []*domain.Parameter) *Ledger {
	l := &Ledger{
		stocks:     make(map[string]*domain.Stock),
		portfolios: make(map[string]*domain.Portfolio),
		parameters: make(map[string]*domain.Parameter, len(params)),
	}
	for _, p := range params {
		l.parameters[p.Key] = p
	}
	return l
}

// Stock returns the live stock for a normalized symbol, or nil.
func (l *Ledger) Stock(symbol string) *domain.Stock {
	return l.stocks[symbol]
}

// AddStock registers a newly issued stock.
func (l *Ledger) AddStock(s *domain.Stock) {
	l.stocks[s.Symbol] = s
}

// StockBoundTo returns the stock currently bound to a parameter key, or nil.
func (l *Ledger) StockBoundTo(paramKey string) *domain.Stock {
	for _, s := range l.stocks {
		if s.Parameter == paramKey {
			return s
		}
	}
	return nil
}

// Portfolio returns the live portfolio for an identity, or nil.
func (l *Ledger) Portfolio(identity string) *domain.Portfolio {
	return l.portfolios[identity]
}

// AddPortfolio registers a portfolio.
func (l *Ledger) AddPortfolio(p *domain.Portfolio) {
	l.portfolios[p.Identity] = p
}

// RemovePortfolio drops a portfolio from the table.
func (l *Ledger) RemovePortfolio(identity string) {
	delete(l.portfolios, identity)
}

// Parameter returns the live parameter for a key, or nil.
func (l *Ledger) Parameter(key string) *domain.Parameter {
	return l.parameters[key]
}

// PriceOf is the price lookup used to value holdings.
func (l *Ledger) PriceOf(symbol string) (decimal.Decimal, bool) {
	s, ok := l.stocks[symbol]
	if !ok {
		return decimal.Zero, false
	}
	return s.Price, true
}

// Worth returns cash plus priced holdings for a portfolio.
func (l *Ledger) Worth(p *domain.Portfolio) decimal.Decimal {
	return p.Cash.Add(p.StockValue(l.PriceOf))
}

// Snapshot deep-copies the entire ledger into its serialized document form,
// with stocks ordered by descending price and portfolios and parameters by
// key for deterministic output.
func (l *Ledger) Snapshot() domain.Snapshot {
	snap := domain.Snapshot{
		SessionStart: l.sessionStart,
		Stocks:       make([]domain.Stock, 0, len(l.stocks)),
		Portfolios:   make([]domain.Portfolio, 0, len(l.portfolios)),
		Parameters:   make([]domain.Parameter, 0, len(l.parameters)),
	}
	for _, s := range l.stocks {
		snap.Stocks = append(snap.Stocks, *s.Clone())
	}
	sort.Slice(snap.Stocks, func(i, j int) bool {
		if snap.Stocks[i].Price.Equal(snap.Stocks[j].Price) {
			return snap.Stocks[i].Symbol < snap.Stocks[j].Symbol
		}
		return snap.Stocks[i].Price.GreaterThan(snap.Stocks[j].Price)
	})
	for _, p := range l.portfolios {
		snap.Portfolios = append(snap.Portfolios, *p.Clone())
	}
	sort.Slice(snap.Portfolios, func(i, j int) bool {
		return snap.Portfolios[i].Identity < snap.Portfolios[j].Identity
	})
	for _, p := range l.parameters {
		snap.Parameters = append(snap.Parameters, *p)
	}
	sort.Slice(snap.Parameters, func(i, j int) bool {
		return snap.Parameters[i].Key < snap.Parameters[j].Key
	})
	return snap
}

// Restore replaces the ledger's state with a loaded snapshot. Parameters
// missing from the snapshot keep their default entry so newer builds gain new
// parameters without losing persisted ones.
func (l *Ledger) Restore(snap domain.Snapshot) {
	l.sessionStart = snap.SessionStart
	l.stocks = make(map[string]*domain.Stock, len(snap.Stocks))
	for i := range snap.Stocks {
		s := snap.Stocks[i]
		l.stocks[s.Symbol] = s.Clone()
	}
	l.portfolios = make(map[string]*domain.Portfolio, len(snap.Portfolios))
	for i := range snap.Portfolios {
		p := snap.Portfolios[i]
		l.portfolios[p.Identity] = p.Clone()
	}
	for i := range snap.Parameters {
		p := snap.Parameters[i]
		l.parameters[p.Key] = &p
	}
}
