package repository

import (
	"context"
	"time"

	"CardPull/internal/domain/models"
)

// CatalogReader loads static card metadata from the external store.
type CatalogReader interface {
	ListCards(ctx context.Context, category string) ([]models.CardMeta, error)
}

// PriceReader loads raw price snapshots, optionally filtered by item id
// set and time range. Zero time bounds mean unbounded.
type PriceReader interface {
	ListSnapshots(ctx context.Context, itemIDs []string, from, to time.Time) ([]models.PriceSnapshot, error)
}

// SnapshotWriter appends raw price observations collected from an
// upstream provider.
type SnapshotWriter interface {
	InsertSnapshots(ctx context.Context, snaps []models.PriceSnapshot) error
}

// PredictionWriter persists per-card predictions. Writes are idempotent
// upserts keyed by item id: a rerun for the same card replaces the
// previous document.
type PredictionWriter interface {
	UpsertPredictions(ctx context.Context, preds []models.Prediction) error
}

// PredictionReader reads back a stored prediction by item id.
type PredictionReader interface {
	GetPrediction(ctx context.Context, itemID string) (*models.Prediction, error)
}

// RankingWriter fully replaces the single "latest" ranking document.
type RankingWriter interface {
	ReplaceLatest(ctx context.Context, snap *models.RankingSnapshot) error
}

// RankingReader returns the current "latest" ranking document, or nil
// when none has been written yet.
type RankingReader interface {
	GetLatest(ctx context.Context) (*models.RankingSnapshot, error)
}

// ArtifactStore persists and restores the trained model bundle.
// Load must fail when the stored feature schema does not match what the
// caller expects; a mismatched bundle is never usable.
type ArtifactStore interface {
	Save(ctx context.Context, bundle *models.ModelBundle) error
	Load(ctx context.Context) (*models.ModelBundle, error)
}

// RankingCache keeps the latest ranking document hot for external
// readers. Refreshed only after a fully successful predict run.
type RankingCache interface {
	SetLatest(ctx context.Context, snap *models.RankingSnapshot) error
}

// RunReport summarizes one pipeline run for downstream workflow consumers.
type RunReport struct {
	Mode       string    `json:"mode"` // train or predict
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
	Items      int       `json:"items"`
	Succeeded  bool      `json:"succeeded"`
	Error      string    `json:"error,omitempty"`
}

// RunNotifier publishes run outcome reports (completion and failure).
type RunNotifier interface {
	NotifyRun(ctx context.Context, report RunReport) error
	Close() error
}

// Metrics records pipeline observability signals.
type Metrics interface {
	RecordStageRows(stage string, rows int)
	RecordStageDuration(stage string, seconds float64)
	RecordItemsScored(tier string, n int)
	RecordError(kind string)
}
