package scheduler

import (
	"log/slog"

	"chaos_market/internal/domain"
	"chaos_market/internal/infra"
)

// SnapshotSource produces a consistent copy of the market state.
type SnapshotSource interface {
	Snapshot() domain.Snapshot
}

// SnapshotSink persists a snapshot.
type SnapshotSink interface {
	SaveSnapshot(domain.Snapshot) error
}

// SnapshotJob periodically saves the market state so a restart
// can resume the running session.
type SnapshotJob struct {
	source SnapshotSource
	sink   SnapshotSink
}

func NewSnapshotJob(source SnapshotSource, sink SnapshotSink) *SnapshotJob {
	return &SnapshotJob{source: source, sink: sink}
}

func (j *SnapshotJob) Name() string { return "market-snapshot" }

func (j *SnapshotJob) Run() error {
	snap := j.source.Snapshot()
	if err := j.sink.SaveSnapshot(snap); err != nil {
		infra.GlobalMetrics.RecordSnapshotFailure()
		return err
	}
	infra.GlobalMetrics.RecordSnapshotSave()
	slog.Debug("Market snapshot saved",
		slog.Int("stocks", len(snap.Stocks)),
		slog.Int("portfolios", len(snap.Portfolios)))
	return nil
}
