package engine

import (
	"sort"

	"chaos_market/internal/domain"
)

// Read operations observe the ledger without mutating it; they interleave
// freely with the mutation loop under the read lock and return copies.

// Stocks returns all stocks ordered by descending price.
func (e *Engine) Stocks() []domain.Stock {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Snapshot().Stocks
}

// Parameters returns the current parameter table keyed by parameter key.
// The external game client polls this every tick.
func (e *Engine) Parameters() map[string]domain.Parameter {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]domain.Parameter, len(e.ledger.parameters))
	for key, p := range e.ledger.parameters {
		out[key] = *p
	}
	return out
}

// Leaderboard ranks non-house participants by total worth, highest first.
func (e *Engine) Leaderboard(limit int) []LeaderboardEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entries := make([]LeaderboardEntry, 0, len(e.ledger.portfolios))
	for identity, pf := range e.ledger.portfolios {
		if identity == domain.HouseIdentity {
			continue
		}
		sv := pf.StockValue(e.ledger.PriceOf)
		entries = append(entries, LeaderboardEntry{
			Identity:   identity,
			Cash:       pf.Cash,
			StockValue: sv,
			TotalWorth: pf.Cash.Add(sv),
			StockCount: len(pf.Holdings),
			Kind:       pf.Kind,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalWorth.Equal(entries[j].TotalWorth) {
			return entries[i].Identity < entries[j].Identity
		}
		return entries[i].TotalWorth.GreaterThan(entries[j].TotalWorth)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Users lists every non-house portfolio for the admin surface.
func (e *Engine) Users() []UserView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	users := make([]UserView, 0, len(e.ledger.portfolios))
	for identity, pf := range e.ledger.portfolios {
		if identity == domain.HouseIdentity {
			continue
		}
		users = append(users, UserView{
			Identity:   identity,
			Cash:       pf.Cash,
			StockCount: len(pf.Holdings),
			TotalWorth: e.ledger.Worth(pf),
			Kind:       pf.Kind,
			LastActive: pf.LastActive,
		})
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].TotalWorth.Equal(users[j].TotalWorth) {
			return users[i].Identity < users[j].Identity
		}
		return users[i].TotalWorth.GreaterThan(users[j].TotalWorth)
	})
	return users
}

// Status reports the running session.
func (e *Engine) Status() SessionStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st := SessionStatus{
		StartTime:   e.ledger.sessionStart,
		TotalStocks: len(e.ledger.stocks),
	}
	if !st.StartTime.IsZero() {
		st.Duration = e.now().Sub(st.StartTime)
	}
	for identity := range e.ledger.portfolios {
		if identity != domain.HouseIdentity {
			st.Participants++
		}
	}
	return st
}

// Snapshot deep-copies the full ledger. Used by the snapshot saver and as the
// initial state for new broadcast subscribers.
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Snapshot()
}

// RestoreSnapshot replaces the ledger with a loaded snapshot. Call before Run.
func (e *Engine) RestoreSnapshot(snap domain.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledger.Restore(snap)
}
