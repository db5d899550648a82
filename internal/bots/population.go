// Package bots runs the automated trader population: named participants that
// trade and issue stocks on jittered intervals, keeping the market moving
// when chat is quiet. Bots are ordinary chat-kind participants going through
// the engine's public operations; they get no special access to the ledger.
package bots

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"chaos_market/internal/domain"
	"chaos_market/internal/engine"
)

var botNames = []string{
	"TraderJoe", "WolfOfWallSt", "MoneyBags", "StockSage", "CryptoBro",
	"DiamondHands", "PaperHands", "WallStreetBet", "YOLO_Gambler", "MarginCall",
	"ShortSqueeze", "PumpNDump", "BagHolder", "StonksOnly", "BullsWin",
	"BearMarket", "TradingGod", "HedgeFundGuy", "QuantBro", "AlgoTrader",
	"MarketMaker", "SilverFox", "GoldenBull", "RedCandle",
}

var stockNames = []string{
	"ROCK", "TITAN", "NOVA", "ECHO", "QUANT", "APEX", "NEXUS", "ORION",
	"ALPHA", "OMEGA", "PULSE", "FLUX", "SPARK", "BLAZE", "FROST", "MOON",
	"STONK", "DIAM", "CRASH", "BOOM",
}

// Market is the slice of the engine the population drives.
type Market interface {
	Stocks() []domain.Stock
	Parameters() map[string]domain.Parameter
	GetPortfolio(identity string) (engine.PortfolioView, error)
	ExecuteTrade(identity, symbol string, side domain.Side, quantity int64, cashHint *decimal.Decimal) (engine.TradeResult, error)
	IssueStock(creator, symbol, name, paramKey string) (domain.Stock, error)
}

// Config sizes and paces the population.
type Config struct {
	Count            int
	MinDelay         time.Duration
	MaxDelay         time.Duration
	TradeProbability float64 // chance to trade instead of issuing a new stock
}

// Population drives Config.Count named bots.
type Population struct {
	market Market
	cfg    Config
	names  []string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPopulation picks Count distinct bot names. rng is injected for
// reproducible decisions in tests.
func NewPopulation(market Market, cfg Config, rng *rand.Rand) *Population {
	names := make([]string, len(botNames))
	copy(names, botNames)
	rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
	if cfg.Count < len(names) {
		names = names[:cfg.Count]
	}
	return &Population{market: market, cfg: cfg, names: names, rng: rng}
}

// Run starts one loop per bot and blocks until ctx is cancelled.
func (p *Population) Run(ctx context.Context) {
	slog.Info("bot population started", slog.Int("bots", len(p.names)))
	var wg sync.WaitGroup
	for _, name := range p.names {
		wg.Add(1)
		go func(bot string) {
			defer wg.Done()
			p.loop(ctx, bot)
		}(name)
	}
	wg.Wait()
	slog.Info("bot population stopped")
}

func (p *Population) loop(ctx context.Context, bot string) {
	timer := time.NewTimer(p.nextDelay())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			p.act(bot)
			timer.Reset(p.nextDelay())
		}
	}
}

func (p *Population) nextDelay() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	span := p.cfg.MaxDelay - p.cfg.MinDelay
	if span <= 0 {
		return p.cfg.MinDelay
	}
	return p.cfg.MinDelay + time.Duration(p.rng.Int63n(int64(span)))
}

// act performs one bot decision. Rejections (outpriced, sold out, symbol
// taken by a faster bot) are normal market friction and only logged.
func (p *Population) act(bot string) {
	stocks := p.market.Stocks()
	view, err := p.market.GetPortfolio(bot)
	if err != nil {
		slog.Warn("bot portfolio lookup failed", slog.String("bot", bot), slog.Any("error", err))
		return
	}

	pv := portfolioView{Cash: view.Cash, Holdings: view.Holdings}

	p.mu.Lock()
	rng := p.rng
	wantTrade := rng.Float64() < p.cfg.TradeProbability
	var decision action
	if wantTrade && len(stocks) > 0 {
		decision = decideTrade(pv, stocks, rng)
	} else {
		decision = decideIssue(stocks, p.market.Parameters(), rng)
		if decision.kind == actNone && len(stocks) > 0 {
			decision = decideTrade(pv, stocks, rng)
		}
	}
	p.mu.Unlock()

	switch decision.kind {
	case actTrade:
		res, err := p.market.ExecuteTrade(bot, decision.symbol, decision.side, decision.quantity, nil)
		if err != nil {
			slog.Debug("bot trade rejected", slog.String("bot", bot), slog.Any("error", err))
			return
		}
		slog.Debug("bot traded",
			slog.String("bot", bot),
			slog.String("symbol", res.Symbol),
			slog.String("side", string(res.Side)),
			slog.Int64("quantity", res.Quantity))
	case actIssue:
		stock, err := p.market.IssueStock(bot, decision.symbol, decision.name, decision.param)
		if err != nil {
			slog.Debug("bot issuance rejected", slog.String("bot", bot), slog.Any("error", err))
			return
		}
		slog.Info("bot issued stock",
			slog.String("bot", bot),
			slog.String("symbol", stock.Symbol),
			slog.String("param", stock.Parameter))
	}
}
