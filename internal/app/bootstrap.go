package app

import (
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"chaos_market/internal/domain"
	"chaos_market/internal/engine"
	"chaos_market/internal/infra"
	"chaos_market/internal/infra/storage"
	"chaos_market/internal/infra/ws"
	"chaos_market/internal/pricing"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config *infra.Config
	Store  *storage.Store
	Engine *engine.Engine
	Hub    *ws.Hub
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB,
// engine, websocket hub).
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping Chaos Market...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStore(cfg.Snapshot.Path)
	if err != nil {
		return err
	}
	b.Store = store
	slog.Info("✅ Database initialized")

	// 4. Pricing policy
	policy, err := pricing.New(cfg.Market.Pricing.Policy, pricing.Options{
		Step:       cfg.Market.Pricing.Step,
		Floor:      cfg.Market.Pricing.Floor,
		PercentMin: cfg.Market.Pricing.PercentMin,
		PercentMax: cfg.Market.Pricing.PercentMax,
		Rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	if err != nil {
		return err
	}

	// 5. Engine and hub. The hub needs the engine's snapshot for new
	// subscribers and the engine needs the hub as its broadcaster, so the
	// hub closes over the engine pointer assigned right after.
	var eng *engine.Engine
	hub := ws.NewHub(func() domain.Snapshot { return eng.Snapshot() }, cfg.Server.AllowedOrigins)

	settings := engine.Settings{
		StartingCash:     cfg.Market.StartingCash,
		HouseCash:        cfg.Market.HouseCash,
		TotalShares:      cfg.Market.TotalShares,
		CreatorAllotment: cfg.Market.CreatorAllotment,
		InitialPriceMin:  cfg.Market.InitialPriceMin,
		InitialPriceMax:  cfg.Market.InitialPriceMax,
		HistoryLimit:     cfg.Market.HistoryLimit,
		IdleExpiry:       time.Duration(cfg.Market.IdleExpiryMin) * time.Minute,
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	eng = engine.New(engine.DefaultLedger(settings), policy, hub, settings, rng)
	b.Engine = eng
	b.Hub = hub
	slog.Info("✅ Market engine ready")

	return nil
}

// RestoreSession loads the last saved snapshot, if any, so a restart resumes
// the running session. A missing or unreadable snapshot falls back to the
// default seed market.
func (b *Bootstrap) RestoreSession() {
	snap, err := b.Store.LoadSnapshot()
	if err != nil {
		if errors.Is(err, storage.ErrNoSnapshot) {
			slog.Info("No saved session, starting with the seed market")
		} else {
			slog.Warn("Saved session unreadable, starting with the seed market", slog.Any("error", err))
		}
		return
	}
	b.Engine.RestoreSnapshot(snap)
	slog.Info("✅ Session restored",
		slog.Int("stocks", len(snap.Stocks)),
		slog.Int("portfolios", len(snap.Portfolios)),
		slog.Time("session_start", snap.SessionStart))
}
