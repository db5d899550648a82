package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"chaos_market/internal/domain"
	"chaos_market/internal/infra"
	"chaos_market/internal/pricing"
)

// Settings are the market tunables fixed at startup.
type Settings struct {
	StartingCash     decimal.Decimal // seed cash for lazily created chat portfolios
	HouseCash        decimal.Decimal
	TotalShares      int64 // fixed share count per issued stock
	CreatorAllotment int64 // shares granted to a stock's creator at issuance
	InitialPriceMin  float64
	InitialPriceMax  float64
	HistoryLimit     int
	IdleExpiry       time.Duration // 0 disables idle-portfolio expiry
}

// Engine is the market state engine: a single-writer loop that owns the
// ledger. Mutating operations are sent through the inbox and run to
// completion one at a time, so the multi-step mutation of a trade is atomic
// by construction. Reads take the RWMutex and return copies.
type Engine struct {
	inbox    chan func()
	ledger   *Ledger
	policy   pricing.Policy
	cast     domain.Broadcaster
	settings Settings
	rng      *rand.Rand
	now      func() time.Time

	mu        sync.RWMutex // held by the loop during mutation, by readers otherwise
	lastSweep time.Time
}

// New creates an engine around an existing ledger. rng must be injected so
// initial price draws stay reproducible in tests.
func New(ledger *Ledger, policy pricing.Policy, cast domain.Broadcaster, settings Settings, rng *rand.Rand) *Engine {
	if policy == nil {
		panic("engine: pricing policy is required")
	}
	if rng == nil {
		panic("engine: rand source must be injected")
	}
	if cast == nil {
		cast = domain.NopBroadcaster{}
	}
	return &Engine{
		inbox:    make(chan func(), 256),
		ledger:   ledger,
		policy:   policy,
		cast:     cast,
		settings: settings,
		rng:      rng,
		now:      time.Now,
	}
}

// Run starts the mutation loop. It MUST run in a single goroutine.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("Market engine started (single-writer loop)")

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			e.DumpState("panic_dump.json")
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Market engine stopping...")
			return
		case op := <-e.inbox:
			op()
		}
	}
}

// do submits a mutation to the loop and waits for it to finish.
func (e *Engine) do(fn func()) {
	done := make(chan struct{})
	e.inbox <- func() {
		defer close(done)
		fn()
	}
	<-done
}

// emit fans committed change-events out, in commit order, fire-and-forget.
// It runs on the loop goroutine but after the mutation has already been
// applied; a slow or failed subscriber never rolls the ledger back.
func (e *Engine) emit(events []domain.Event) {
	for _, ev := range events {
		e.cast.Broadcast(ev)
		infra.GlobalMetrics.RecordEventBroadcast()
	}
}

// ExecuteTrade performs one atomic buy or sell for identity against symbol.
// cashHint is the live in-game balance and is mandatory for the player
// identity, whose cash is a mirror of the external game's wallet.
func (e *Engine) ExecuteTrade(identity, symbol string, side domain.Side, quantity int64, cashHint *decimal.Decimal) (TradeResult, error) {
	var (
		res TradeResult
		err error
	)
	e.do(func() {
		var events []domain.Event
		res, events, err = e.applyTrade(identity, symbol, side, quantity, cashHint)
		e.emit(events)
	})
	if err != nil {
		infra.GlobalMetrics.RecordTradeRejected()
	} else {
		infra.GlobalMetrics.RecordTradeExecuted()
	}
	return res, err
}

func (e *Engine) applyTrade(identity, symbol string, side domain.Side, quantity int64, cashHint *decimal.Decimal) (TradeResult, []domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var zero TradeResult
	if identity == "" || identity == domain.HouseIdentity {
		return zero, nil, domain.Validationf("invalid trading identity %q", identity)
	}
	if quantity <= 0 {
		return zero, nil, domain.Validationf("quantity must be a positive integer")
	}
	sym := domain.NormalizeSymbol(symbol)
	stock := e.ledger.Stock(sym)
	if stock == nil {
		return zero, nil, domain.NotFoundf("stock %s not found", sym)
	}

	pf := e.ensurePortfolio(identity)
	effective := pf.Cash
	if pf.Kind == domain.KindPlayer {
		if cashHint == nil {
			return zero, nil, domain.ErrMissingCashContext
		}
		effective = *cashHint
	}

	qty := decimal.NewFromInt(quantity)
	switch side {
	case domain.SideBuy:
		cost := stock.Price.Mul(qty).Ceil()
		if effective.LessThan(cost) {
			return zero, nil, domain.Insufficientf("not enough cash: need %s, have %s", cost, effective)
		}
		if stock.HouseShares < quantity {
			return zero, nil, domain.Insufficientf("not enough shares available: %d on offer", stock.HouseShares)
		}
		pf.Cash = effective.Sub(cost)
		pf.AddShares(sym, quantity)
		stock.HouseShares -= quantity
	case domain.SideSell:
		if owned := pf.Shares(sym); owned < quantity {
			return zero, nil, domain.Insufficientf("not enough shares owned: have %d", owned)
		}
		proceeds := stock.Price.Mul(qty).Floor()
		pf.Cash = effective.Add(proceeds)
		pf.RemoveShares(sym, quantity)
		stock.HouseShares += quantity
	default:
		return zero, nil, domain.Validationf("invalid action %q", side)
	}

	now := e.now()
	stock.Price = e.policy.NextPrice(stock.Price, side, quantity)
	stock.AppendHistory(stock.Price, e.settings.HistoryLimit)
	pf.Touch(now)

	top := refreshTopHolder(e.ledger, stock)
	pu := syncParameter(e.ledger, stock)
	e.sweepIdle(now)

	res := TradeResult{
		Symbol:      sym,
		Side:        side,
		Quantity:    quantity,
		Price:       stock.Price,
		Cash:        pf.Cash,
		SharesOwned: pf.Shares(sym),
		TotalWorth:  e.ledger.Worth(pf),
		TopHolder:   top,
		Parameter:   pu,
	}
	events := []domain.Event{
		domain.NewEvent(domain.EventStockUpdated, domain.StockUpdate{
			Symbol:    sym,
			Price:     stock.Price,
			Side:      side,
			Quantity:  quantity,
			Actor:     identity,
			TopHolder: top,
			Parameter: pu,
		}),
		domain.NewEvent(domain.EventParameterUpdated, pu),
	}
	return res, events, nil
}

// IssueStock creates a new stock bound to an unclaimed parameter. The creator
// underwrites a small allotment of shares at the initial price; the rest of
// the fixed issue stays with the house.
func (e *Engine) IssueStock(creator, symbol, name, paramKey string) (domain.Stock, error) {
	var (
		issued domain.Stock
		err    error
	)
	e.do(func() {
		var events []domain.Event
		issued, events, err = e.applyIssue(creator, symbol, name, paramKey)
		e.emit(events)
	})
	return issued, err
}

func (e *Engine) applyIssue(creator, symbol, name, paramKey string) (domain.Stock, []domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var zero domain.Stock
	sym := domain.NormalizeSymbol(symbol)
	if sym == "" || len(sym) > 12 {
		return zero, nil, domain.Validationf("invalid symbol %q", symbol)
	}
	if name == "" {
		return zero, nil, domain.Validationf("stock name is required")
	}
	if creator == "" || creator == domain.HouseIdentity {
		return zero, nil, domain.Validationf("invalid creator identity %q", creator)
	}
	if e.ledger.Stock(sym) != nil {
		return zero, nil, domain.Validationf("symbol %s already exists", sym)
	}
	if e.ledger.Parameter(paramKey) == nil {
		return zero, nil, domain.Validationf("unknown parameter %q", paramKey)
	}
	if bound := e.ledger.StockBoundTo(paramKey); bound != nil {
		return zero, nil, domain.Validationf("parameter %s already bound to %s", paramKey, bound.Symbol)
	}

	pf := e.ensurePortfolio(creator)
	price := e.drawInitialPrice()
	allot := e.settings.CreatorAllotment
	cost := price.Mul(decimal.NewFromInt(allot)).Ceil()
	if pf.Cash.LessThan(cost) {
		return zero, nil, domain.Insufficientf("not enough cash to underwrite %s: need %s, have %s", sym, cost, pf.Cash)
	}

	now := e.now()
	stock := &domain.Stock{
		Symbol:      sym,
		Name:        name,
		Parameter:   paramKey,
		Price:       price,
		TotalShares: e.settings.TotalShares,
		HouseShares: e.settings.TotalShares - allot,
		Creator:     creator,
	}
	stock.AppendHistory(price, e.settings.HistoryLimit)
	pf.Cash = pf.Cash.Sub(cost)
	pf.AddShares(sym, allot)
	pf.Touch(now)
	e.ledger.AddStock(stock)

	refreshTopHolder(e.ledger, stock)
	pu := syncParameter(e.ledger, stock)
	e.sweepIdle(now)

	events := []domain.Event{
		domain.NewEvent(domain.EventStockIssued, domain.StockIssue{
			Symbol:    sym,
			Name:      name,
			Parameter: paramKey,
			Price:     price,
			Creator:   creator,
		}),
		domain.NewEvent(domain.EventParameterUpdated, pu),
	}
	slog.Info("stock issued",
		slog.String("symbol", sym),
		slog.String("param", paramKey),
		slog.String("creator", creator),
		slog.String("price", price.String()))
	return *stock.Clone(), events, nil
}

// SyncPlayerCash overwrites the player portfolio's cash mirror with the live
// in-game balance. This is the only channel by which the game's currency
// enters the engine.
func (e *Engine) SyncPlayerCash(cash decimal.Decimal) (domain.PlayerCashUpdate, error) {
	var (
		upd domain.PlayerCashUpdate
		err error
	)
	e.do(func() {
		e.mu.Lock()
		if cash.IsNegative() {
			err = domain.Validationf("cash cannot be negative")
			e.mu.Unlock()
			return
		}
		pf := e.ensurePortfolio(domain.PlayerIdentity)
		pf.Cash = cash
		pf.Touch(e.now())
		upd = domain.PlayerCashUpdate{Cash: cash, TotalWorth: e.ledger.Worth(pf)}
		e.mu.Unlock()
		e.emit([]domain.Event{domain.NewEvent(domain.EventPlayerCashUpdated, upd)})
	})
	return upd, err
}

// ResetPortfolio liquidates every holding of identity back into house
// inventory at no cash effect, zeroes the portfolio's cash and re-derives
// top holder and parameter for every affected stock.
func (e *Engine) ResetPortfolio(identity string) (int, error) {
	var (
		cleared int
		err     error
	)
	e.do(func() {
		var events []domain.Event
		cleared, events, err = e.applyReset(identity)
		e.emit(events)
	})
	return cleared, err
}

func (e *Engine) applyReset(identity string) (int, []domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if identity == "" || identity == domain.HouseIdentity {
		return 0, nil, domain.Validationf("cannot reset portfolio %q", identity)
	}
	pf := e.ensurePortfolio(identity)

	affected := make([]*domain.Stock, 0, len(pf.Holdings))
	for sym, shares := range pf.Holdings {
		// Stocks are never deleted, so every held symbol resolves.
		stock := e.ledger.Stock(sym)
		stock.HouseShares += shares
		affected = append(affected, stock)
	}
	cleared := len(pf.Holdings)
	pf.Holdings = make(map[string]int64)
	pf.Cash = decimal.Zero
	pf.Touch(e.now())

	events := []domain.Event{
		domain.NewEvent(domain.EventPortfolioReset, domain.PortfolioReset{
			Identity:      identity,
			ClearedStocks: cleared,
		}),
	}
	for _, stock := range affected {
		refreshTopHolder(e.ledger, stock)
		pu := syncParameter(e.ledger, stock)
		events = append(events, domain.NewEvent(domain.EventParameterUpdated, pu))
	}
	if pf.Kind == domain.KindPlayer {
		events = append(events, domain.NewEvent(domain.EventPlayerCashUpdated, domain.PlayerCashUpdate{
			Cash:       decimal.Zero,
			TotalWorth: decimal.Zero,
		}))
	}
	slog.Info("portfolio reset", slog.String("identity", identity), slog.Int("cleared", cleared))
	return cleared, events, nil
}

// GetPortfolio returns a valued view of identity's portfolio, lazily creating
// it with kind-dependent seed cash on first reference.
func (e *Engine) GetPortfolio(identity string) (PortfolioView, error) {
	var (
		view PortfolioView
		err  error
	)
	e.do(func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if identity == "" {
			err = domain.Validationf("identity is required")
			return
		}
		pf := e.ensurePortfolio(identity)
		sv := pf.StockValue(e.ledger.PriceOf)
		view = PortfolioView{
			Cash:       pf.Cash,
			Holdings:   pf.Clone().Holdings,
			StockValue: sv,
			TotalWorth: pf.Cash.Add(sv),
		}
	})
	return view, err
}

// StartSession resets the whole market for a new game session: prices
// re-rolled inside the initial range, all shares back to the house, every
// non-house portfolio deleted and every parameter at its midpoint.
func (e *Engine) StartSession() (domain.SessionStart, error) {
	var start domain.SessionStart
	e.do(func() {
		e.mu.Lock()
		now := e.now()
		for _, stock := range e.ledger.stocks {
			stock.Price = e.drawInitialPrice()
			stock.History = []decimal.Decimal{stock.Price}
			stock.HouseShares = stock.TotalShares
			stock.TopHolder = ""
		}
		for identity := range e.ledger.portfolios {
			if identity != domain.HouseIdentity {
				e.ledger.RemovePortfolio(identity)
			}
		}
		if house := e.ledger.Portfolio(domain.HouseIdentity); house != nil {
			house.Cash = e.settings.HouseCash
		}
		for _, p := range e.ledger.parameters {
			p.Reset()
		}
		e.ledger.sessionStart = now
		start = domain.SessionStart{StartedAt: now}
		e.mu.Unlock()
		e.emit([]domain.Event{domain.NewEvent(domain.EventSessionStarted, start)})
		slog.Info("session started", slog.Time("at", now))
	})
	return start, nil
}

// ensurePortfolio resolves or lazily creates a portfolio. Seed cash depends
// on kind: chatters start with the configured stake, the player starts at
// zero until its first cash sync, the house holds the bank.
func (e *Engine) ensurePortfolio(identity string) *domain.Portfolio {
	if pf := e.ledger.Portfolio(identity); pf != nil {
		return pf
	}
	kind := domain.KindFor(identity)
	var seed decimal.Decimal
	switch kind {
	case domain.KindHouse:
		seed = e.settings.HouseCash
	case domain.KindPlayer:
		seed = decimal.Zero
	default:
		seed = e.settings.StartingCash
	}
	pf := domain.NewPortfolio(identity, kind, seed, e.now())
	e.ledger.AddPortfolio(pf)
	slog.Debug("portfolio created", slog.String("identity", identity), slog.String("kind", string(kind)))
	return pf
}

// sweepIdle expires chat portfolios with zero holdings and no activity inside
// the idle window. It runs inside the mutation path, throttled to one sweep
// per minute, so the engine keeps a single mutator.
func (e *Engine) sweepIdle(now time.Time) {
	if e.settings.IdleExpiry <= 0 {
		return
	}
	if now.Sub(e.lastSweep) < time.Minute {
		return
	}
	e.lastSweep = now
	cutoff := now.Add(-e.settings.IdleExpiry)
	for identity, pf := range e.ledger.portfolios {
		if pf.Kind != domain.KindChatter || len(pf.Holdings) > 0 {
			continue
		}
		if pf.LastActive.After(cutoff) {
			continue
		}
		e.ledger.RemovePortfolio(identity)
		infra.GlobalMetrics.RecordPortfolioExpired()
		slog.Debug("idle portfolio expired", slog.String("identity", identity))
	}
}

func (e *Engine) drawInitialPrice() decimal.Decimal {
	v := e.settings.InitialPriceMin
	if span := e.settings.InitialPriceMax - e.settings.InitialPriceMin; span > 0 {
		v += e.rng.Float64() * span
	}
	return decimal.NewFromFloat(v).Round(1)
}

// DumpState writes the entire ledger to a file for post-mortem inspection.
func (e *Engine) DumpState(filename string) {
	slog.Info("Dumping ledger state...", slog.String("file", filename))

	b, err := json.MarshalIndent(e.ledger.Snapshot(), "", "  ")
	if err != nil {
		slog.Error("Failed to marshal ledger", slog.Any("error", err))
		return
	}
	if err := os.WriteFile(filename, b, 0644); err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
