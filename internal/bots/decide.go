package bots

import (
	"math/rand"
	"sort"

	"github.com/shopspring/decimal"

	"chaos_market/internal/domain"
)

type actionKind int

const (
	actNone actionKind = iota
	actTrade
	actIssue
)

// action is one bot decision. The decision core is pure given the injected
// rand, so it is testable without running the population.
type action struct {
	kind     actionKind
	symbol   string
	side     domain.Side
	quantity int64
	name     string
	param    string
}

// decideTrade picks a random stock and either sells 10-50% of a held
// position or buys 1-10 affordable shares.
func decideTrade(view portfolioView, stocks []domain.Stock, rng *rand.Rand) action {
	if len(stocks) == 0 {
		return action{kind: actNone}
	}
	stock := stocks[rng.Intn(len(stocks))]
	owned := view.Holdings[stock.Symbol]

	if owned > 0 && rng.Float64() < 0.5 {
		portion := 0.1 + rng.Float64()*0.4
		qty := int64(float64(owned) * portion)
		if qty < 1 {
			qty = 1
		}
		return action{kind: actTrade, symbol: stock.Symbol, side: domain.SideSell, quantity: qty}
	}

	if !stock.Price.IsPositive() {
		return action{kind: actNone}
	}
	affordable := view.Cash.Div(stock.Price).IntPart()
	if affordable < 1 {
		return action{kind: actNone}
	}
	limit := affordable
	if limit > 10 {
		limit = 10
	}
	qty := 1 + rng.Int63n(limit)
	if qty > affordable {
		qty = affordable
	}
	return action{kind: actTrade, symbol: stock.Symbol, side: domain.SideBuy, quantity: qty}
}

// decideIssue proposes a new stock against an unbound parameter with a name
// from the pool. Nothing free means no action.
func decideIssue(stocks []domain.Stock, params map[string]domain.Parameter, rng *rand.Rand) action {
	bound := make(map[string]bool, len(stocks))
	taken := make(map[string]bool, len(stocks))
	for _, s := range stocks {
		bound[s.Parameter] = true
		taken[s.Symbol] = true
	}

	var freeParams []string
	for key := range params {
		if !bound[key] {
			freeParams = append(freeParams, key)
		}
	}
	sort.Strings(freeParams) // map order is random; keep draws reproducible
	var freeNames []string
	for _, n := range stockNames {
		if !taken[n] {
			freeNames = append(freeNames, n)
		}
	}
	if len(freeParams) == 0 || len(freeNames) == 0 {
		return action{kind: actNone}
	}

	symbol := freeNames[rng.Intn(len(freeNames))]
	param := freeParams[rng.Intn(len(freeParams))]
	return action{
		kind:   actIssue,
		symbol: symbol,
		name:   symbol + " Corp",
		param:  param,
	}
}

// portfolioView is the minimal read the decision core needs.
type portfolioView struct {
	Cash     decimal.Decimal
	Holdings map[string]int64
}
