package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Reserved portfolio identities. The house owns every share that has not been
// sold to a participant and is excluded from leaderboards and top-holder
// computation. The player identity mirrors the live game's wallet and never
// earns cash inside the engine.
const (
	HouseIdentity  = "System"
	PlayerIdentity = "Player"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide validates a raw action string from the boundary.
func ParseSide(raw string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(raw))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", Validationf("invalid action %q", raw)
	}
}

// Stock is a synthetic instrument whose ownership concentration drives a
// single gameplay parameter. Symbol and TotalShares are immutable after
// issuance; Price moves only through the pricing policy.
type Stock struct {
	Symbol      string            `json:"symbol"`
	Name        string            `json:"name"`
	Parameter   string            `json:"param"`
	Price       decimal.Decimal   `json:"price"`
	History     []decimal.Decimal `json:"history"`
	TotalShares int64             `json:"total_shares"`
	HouseShares int64             `json:"house_shares"`
	TopHolder   string            `json:"top_holder,omitempty"`
	Creator     string            `json:"creator"`
}

// NormalizeSymbol applies the canonical case normalization for stock symbols.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Outstanding returns the number of shares held outside the house.
func (s *Stock) Outstanding() int64 {
	return s.TotalShares - s.HouseShares
}

// MarketCap returns price * total shares.
func (s *Stock) MarketCap() decimal.Decimal {
	return s.Price.Mul(decimal.NewFromInt(s.TotalShares))
}

// AppendHistory records a new price, evicting the oldest entry once the
// history reaches limit.
func (s *Stock) AppendHistory(price decimal.Decimal, limit int) {
	s.History = append(s.History, price)
	if limit > 0 && len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}

// RecentHistory returns up to the last n prices.
func (s *Stock) RecentHistory(n int) []decimal.Decimal {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// Clone returns a deep copy for handing to readers outside the mutation path.
func (s *Stock) Clone() *Stock {
	cp := *s
	cp.History = make([]decimal.Decimal, len(s.History))
	copy(cp.History, s.History)
	return &cp
}
