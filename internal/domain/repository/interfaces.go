package repository

import (
	"context"
	"time"

	"OddsFlow/internal/domain/models"
)

// QuoteSource fetches nested odds snapshots from the external quotation
// source. FetchOdds also returns the remaining request quota reported by
// the source after the call (-1 when unknown).
type QuoteSource interface {
	FetchOdds(ctx context.Context, sportKey string, markets []string) ([]models.Event, int, error)
	ListSports(ctx context.Context) ([]models.Sport, error)
}

// RawStore owns the append-only bronze table. AppendBatch never updates
// or deletes existing rows; a failed batch reports how many rows were
// accepted via models.PartialInsertError.
type RawStore interface {
	Init(ctx context.Context) error
	AppendBatch(ctx context.Context, records []models.QuoteRecord, ingestionDate, ingestionTS time.Time) (int, error)
	Stats(ctx context.Context) (*models.LoadStats, error)
	// StagedSince applies the staging filter (target bookmaker, odds > 0)
	// at read time. A zero watermark selects all partitions; otherwise only
	// rows with ingestion_date strictly after it.
	StagedSince(ctx context.Context, bookmaker string, watermark time.Time) ([]models.StagedRow, error)
	Health(ctx context.Context) error
}

// MetricsStore owns the silver metrics table and the fully-recomputed
// gold tables.
type MetricsStore interface {
	Init(ctx context.Context) error
	InsertBatch(ctx context.Context, rows []models.MatchMarketMetrics) error
	// All returns the deduplicated metrics rows, latest version per
	// (game_id, market_type).
	All(ctx context.Context) ([]models.MatchMarketMetrics, error)
	// Replace rewrites the silver table from scratch (full rebuild).
	Replace(ctx context.Context, rows []models.MatchMarketMetrics) error

	ReplaceDailySummaries(ctx context.Context, rows []models.DailySummary) error
	ReplaceMatchFacts(ctx context.Context, rows []models.MatchFact) error
	DailySummaries(ctx context.Context) ([]models.DailySummary, error)
	MatchFacts(ctx context.Context, limit int) ([]models.MatchFact, error)
}

// CursorStore persists the transform watermark. Advance is
// compare-and-set: it fails with models.ErrWatermarkConflict when the
// stored value no longer equals old.
type CursorStore interface {
	Watermark(ctx context.Context) (time.Time, error)
	Advance(ctx context.Context, old, new time.Time) error
	Health(ctx context.Context) error
}

// Notifier publishes run summaries for the external alerting channel.
type Notifier interface {
	NotifyRun(ctx context.Context, s *models.RunSummary) error
	Close() error
}

// Metrics records pipeline observability signals.
type Metrics interface {
	RecordRowsExtracted(sportKey string, n int)
	RecordRowsLoaded(n int)
	RecordError(kind string)
	RecordStageDuration(stage string, seconds float64)
	RecordQuotaRemaining(n int)
	RecordWatermark(t time.Time)
}
