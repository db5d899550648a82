package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chaos_market/internal/domain"
)

// ErrNoSnapshot is returned by LoadSnapshot when nothing has been persisted
// yet. Callers fall back to the fresh default ledger.
var ErrNoSnapshot = errors.New("no snapshot recorded")

// StockRecord is the persisted form of one stock.
type StockRecord struct {
	Symbol      string `gorm:"primaryKey"`
	Name        string
	Parameter   string
	Price       string
	History     string // JSON array of prices
	TotalShares int64
	HouseShares int64
	TopHolder   string
	Creator     string
	UpdatedAt   time.Time
}

// PortfolioRecord is the persisted form of one portfolio.
type PortfolioRecord struct {
	Identity   string `gorm:"primaryKey"`
	Cash       string
	Holdings   string // JSON map of symbol to share count
	Kind       string
	LastActive time.Time
}

// ParameterRecord is the persisted form of one gameplay parameter.
type ParameterRecord struct {
	Key         string `gorm:"primaryKey"`
	Value       float64
	Min         float64
	Max         float64
	Unit        string
	Description string
}

// MetaRecord holds snapshot-level values (session start time).
type MetaRecord struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

const metaSessionStart = "session_start"

// Store persists ledger snapshots in SQLite.
type Store struct {
	db *gorm.DB
}

// NewStore opens (or creates) the snapshot database. An empty path uses the
// OS-specific default location.
func NewStore(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = defaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Pure Go SQLite
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&StockRecord{}, &PortfolioRecord{}, &ParameterRecord{}, &MetaRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

func defaultDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "ChaosMarket", "data", "market.db"), nil
}

// SaveSnapshot replaces the persisted snapshot with snap in one transaction.
func (s *Store) SaveSnapshot(snap domain.Snapshot) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&StockRecord{}, &PortfolioRecord{}, &ParameterRecord{}, &MetaRecord{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		for i := range snap.Stocks {
			rec, err := encodeStock(&snap.Stocks[i], now)
			if err != nil {
				return err
			}
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
		}
		for i := range snap.Portfolios {
			rec, err := encodePortfolio(&snap.Portfolios[i])
			if err != nil {
				return err
			}
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
		}
		for i := range snap.Parameters {
			p := &snap.Parameters[i]
			rec := &ParameterRecord{
				Key:         p.Key,
				Value:       p.Value,
				Min:         p.Min,
				Max:         p.Max,
				Unit:        p.Unit,
				Description: p.Description,
			}
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
		}
		meta := &MetaRecord{Key: metaSessionStart, Value: snap.SessionStart.Format(time.RFC3339Nano)}
		return tx.Create(meta).Error
	})
}

// LoadSnapshot reads the persisted snapshot. ErrNoSnapshot means an empty
// store; any other error means the snapshot is unreadable and the caller
// should fall back to defaults.
func (s *Store) LoadSnapshot() (domain.Snapshot, error) {
	var snap domain.Snapshot

	var stockRecs []StockRecord
	if err := s.db.Find(&stockRecs).Error; err != nil {
		return snap, err
	}
	var pfRecs []PortfolioRecord
	if err := s.db.Find(&pfRecs).Error; err != nil {
		return snap, err
	}
	if len(stockRecs) == 0 && len(pfRecs) == 0 {
		return snap, ErrNoSnapshot
	}

	for i := range stockRecs {
		stock, err := decodeStock(&stockRecs[i])
		if err != nil {
			return snap, err
		}
		snap.Stocks = append(snap.Stocks, *stock)
	}
	for i := range pfRecs {
		pf, err := decodePortfolio(&pfRecs[i])
		if err != nil {
			return snap, err
		}
		snap.Portfolios = append(snap.Portfolios, *pf)
	}

	var paramRecs []ParameterRecord
	if err := s.db.Find(&paramRecs).Error; err != nil {
		return snap, err
	}
	for _, rec := range paramRecs {
		snap.Parameters = append(snap.Parameters, domain.Parameter{
			Key:         rec.Key,
			Value:       rec.Value,
			Min:         rec.Min,
			Max:         rec.Max,
			Unit:        rec.Unit,
			Description: rec.Description,
		})
	}

	var meta MetaRecord
	err := s.db.First(&meta, "key = ?", metaSessionStart).Error
	if err == nil && meta.Value != "" {
		if at, perr := time.Parse(time.RFC3339Nano, meta.Value); perr == nil {
			snap.SessionStart = at
		}
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return snap, err
	}

	return snap, nil
}

func encodeStock(s *domain.Stock, now time.Time) (*StockRecord, error) {
	history, err := json.Marshal(s.History)
	if err != nil {
		return nil, err
	}
	return &StockRecord{
		Symbol:      s.Symbol,
		Name:        s.Name,
		Parameter:   s.Parameter,
		Price:       s.Price.String(),
		History:     string(history),
		TotalShares: s.TotalShares,
		HouseShares: s.HouseShares,
		TopHolder:   s.TopHolder,
		Creator:     s.Creator,
		UpdatedAt:   now,
	}, nil
}

func decodeStock(rec *StockRecord) (*domain.Stock, error) {
	price, err := decimal.NewFromString(rec.Price)
	if err != nil {
		return nil, fmt.Errorf("corrupt price for %s: %w", rec.Symbol, err)
	}
	var history []decimal.Decimal
	if rec.History != "" {
		if err := json.Unmarshal([]byte(rec.History), &history); err != nil {
			return nil, fmt.Errorf("corrupt history for %s: %w", rec.Symbol, err)
		}
	}
	return &domain.Stock{
		Symbol:      rec.Symbol,
		Name:        rec.Name,
		Parameter:   rec.Parameter,
		Price:       price,
		History:     history,
		TotalShares: rec.TotalShares,
		HouseShares: rec.HouseShares,
		TopHolder:   rec.TopHolder,
		Creator:     rec.Creator,
	}, nil
}

func encodePortfolio(p *domain.Portfolio) (*PortfolioRecord, error) {
	holdings, err := json.Marshal(p.Holdings)
	if err != nil {
		return nil, err
	}
	return &PortfolioRecord{
		Identity:   p.Identity,
		Cash:       p.Cash.String(),
		Holdings:   string(holdings),
		Kind:       string(p.Kind),
		LastActive: p.LastActive,
	}, nil
}

func decodePortfolio(rec *PortfolioRecord) (*domain.Portfolio, error) {
	cash, err := decimal.NewFromString(rec.Cash)
	if err != nil {
		return nil, fmt.Errorf("corrupt cash for %s: %w", rec.Identity, err)
	}
	holdings := make(map[string]int64)
	if rec.Holdings != "" {
		if err := json.Unmarshal([]byte(rec.Holdings), &holdings); err != nil {
			return nil, fmt.Errorf("corrupt holdings for %s: %w", rec.Identity, err)
		}
	}
	return &domain.Portfolio{
		Identity:   rec.Identity,
		Cash:       cash,
		Holdings:   holdings,
		Kind:       domain.Kind(rec.Kind),
		LastActive: rec.LastActive,
	}, nil
}
