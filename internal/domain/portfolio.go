package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a portfolio. It governs cash seeding on lazy creation and
// eligibility for idle expiry.
type Kind string

const (
	KindHouse   Kind = "house"
	KindPlayer  Kind = "player"
	KindChatter Kind = "chatter"
)

// KindFor resolves the portfolio kind from a participant identity.
func KindFor(identity string) Kind {
	switch identity {
	case HouseIdentity:
		return KindHouse
	case PlayerIdentity:
		return KindPlayer
	default:
		return KindChatter
	}
}

// Portfolio holds one participant's cash and share positions. Zero holdings
// are removed from the map, never stored as zero.
type Portfolio struct {
	Identity   string           `json:"identity"`
	Cash       decimal.Decimal  `json:"cash"`
	Holdings   map[string]int64 `json:"holdings"`
	Kind       Kind             `json:"kind"`
	LastActive time.Time        `json:"last_active"`
}

// NewPortfolio creates a portfolio with seed cash.
func NewPortfolio(identity string, kind Kind, seedCash decimal.Decimal, now time.Time) *Portfolio {
	return &Portfolio{
		Identity:   identity,
		Cash:       seedCash,
		Holdings:   make(map[string]int64),
		Kind:       kind,
		LastActive: now,
	}
}

// Shares returns the held share count for a symbol, zero if absent.
func (p *Portfolio) Shares(symbol string) int64 {
	return p.Holdings[symbol]
}

// AddShares increments the holding for a symbol.
func (p *Portfolio) AddShares(symbol string, qty int64) {
	p.Holdings[symbol] += qty
}

// RemoveShares decrements the holding for a symbol, deleting the entry when
// it reaches zero.
func (p *Portfolio) RemoveShares(symbol string, qty int64) {
	remaining := p.Holdings[symbol] - qty
	if remaining <= 0 {
		delete(p.Holdings, symbol)
		return
	}
	p.Holdings[symbol] = remaining
}

// Touch records activity for idle-expiry accounting.
func (p *Portfolio) Touch(now time.Time) {
	p.LastActive = now
}

// StockValue prices the portfolio's positions with the supplied price lookup.
func (p *Portfolio) StockValue(priceOf func(symbol string) (decimal.Decimal, bool)) decimal.Decimal {
	total := decimal.Zero
	for symbol, shares := range p.Holdings {
		price, ok := priceOf(symbol)
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(shares)))
	}
	return total
}

// Clone returns a deep copy for handing to readers outside the mutation path.
func (p *Portfolio) Clone() *Portfolio {
	cp := *p
	cp.Holdings = make(map[string]int64, len(p.Holdings))
	for k, v := range p.Holdings {
		cp.Holdings[k] = v
	}
	return &cp
}
