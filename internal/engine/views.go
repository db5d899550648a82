package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"chaos_market/internal/domain"
)

// TradeResult describes one committed trade from the actor's point of view.
type TradeResult struct {
	Symbol      string                 `json:"symbol"`
	Side        domain.Side            `json:"side"`
	Quantity    int64                  `json:"quantity"`
	Price       decimal.Decimal        `json:"new_price"`
	Cash        decimal.Decimal        `json:"new_cash"`
	SharesOwned int64                  `json:"shares_owned"`
	TotalWorth  decimal.Decimal        `json:"total_worth"`
	TopHolder   string                 `json:"top_holder,omitempty"`
	Parameter   domain.ParameterUpdate `json:"parameter"`
}

// PortfolioView is the valued read model of one portfolio.
type PortfolioView struct {
	Cash       decimal.Decimal  `json:"cash"`
	Holdings   map[string]int64 `json:"stocks"`
	StockValue decimal.Decimal  `json:"stock_value"`
	TotalWorth decimal.Decimal  `json:"total_worth"`
}

// LeaderboardEntry ranks one non-house participant by total worth.
type LeaderboardEntry struct {
	Identity   string          `json:"identity"`
	Cash       decimal.Decimal `json:"cash"`
	StockValue decimal.Decimal `json:"stock_value"`
	TotalWorth decimal.Decimal `json:"total_worth"`
	StockCount int             `json:"stock_count"`
	Kind       domain.Kind     `json:"kind"`
}

// UserView is the admin listing of one non-house portfolio.
type UserView struct {
	Identity   string          `json:"identity"`
	Cash       decimal.Decimal `json:"cash"`
	StockCount int             `json:"stock_count"`
	TotalWorth decimal.Decimal `json:"total_worth"`
	Kind       domain.Kind     `json:"kind"`
	LastActive time.Time       `json:"last_active"`
}

// SessionStatus reports the running game session.
type SessionStatus struct {
	StartTime    time.Time     `json:"start_time"`
	Duration     time.Duration `json:"duration"`
	TotalStocks  int           `json:"total_stocks"`
	Participants int           `json:"total_participants"`
}
