package domain

import "time"

// Snapshot is the full ledger serialized as a self-describing document. It is
// both the persisted crash-recovery form and the initial state a newly
// connecting broadcast subscriber receives before any incremental event.
// All slices hold deep copies, never live ledger state.
type Snapshot struct {
	SessionStart time.Time   `json:"session_start"`
	Stocks       []Stock     `json:"stocks"`
	Portfolios   []Portfolio `json:"portfolios"`
	Parameters   []Parameter `json:"parameters"`
}
