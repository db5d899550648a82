package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType identifies a change-event on the broadcast stream.
type EventType string

const (
	EventStockUpdated      EventType = "stock-updated"
	EventStockIssued       EventType = "stock-issued"
	EventParameterUpdated  EventType = "parameter-updated"
	EventPortfolioReset    EventType = "portfolio-reset"
	EventPlayerCashUpdated EventType = "player-cash-updated"
	EventSessionStarted    EventType = "session-started"
)

// Event is a structured notification emitted after a committed mutation, for
// real-time fan-out to subscribers. Emission is fire-and-forget: it happens
// after the ledger change is already committed and never rolls it back.
type Event struct {
	ID      string    `json:"id"`
	Type    EventType `json:"type"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// NewEvent stamps a change-event with an ID and emission time.
func NewEvent(t EventType, payload any) Event {
	return Event{ID: uuid.NewString(), Type: t, At: time.Now(), Payload: payload}
}

// Broadcaster fans committed change-events out to external subscribers.
type Broadcaster interface {
	Broadcast(Event)
}

// NopBroadcaster discards events. Used in tests and when no hub is wired.
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(Event) {}

// StockUpdate is the payload of stock-updated: one committed trade and the
// ownership/parameter state it produced.
type StockUpdate struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Side      Side            `json:"side"`
	Quantity  int64           `json:"quantity"`
	Actor     string          `json:"actor"`
	TopHolder string          `json:"top_holder,omitempty"`
	Parameter ParameterUpdate `json:"parameter"`
}

// ParameterUpdate is the payload of parameter-updated.
type ParameterUpdate struct {
	Key   string  `json:"parameter"`
	Value float64 `json:"value"`
}

// StockIssue is the payload of stock-issued.
type StockIssue struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Parameter string          `json:"param"`
	Price     decimal.Decimal `json:"price"`
	Creator   string          `json:"creator"`
}

// PortfolioReset is the payload of portfolio-reset.
type PortfolioReset struct {
	Identity      string `json:"identity"`
	ClearedStocks int    `json:"cleared_stocks"`
}

// PlayerCashUpdate is the payload of player-cash-updated.
type PlayerCashUpdate struct {
	Cash       decimal.Decimal `json:"cash"`
	TotalWorth decimal.Decimal `json:"total_worth"`
}

// SessionStart is the payload of session-started.
type SessionStart struct {
	StartedAt time.Time `json:"started_at"`
}
