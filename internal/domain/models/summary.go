package models

import "time"

// Run statuses reported in the run summary.
const (
	RunStatusSuccess  = "success"
	RunStatusNoData   = "no_data"
	RunStatusDegraded = "degraded"
	RunStatusFailed   = "failed"
)

// RunSummary is the notification payload of one pipeline run. Content is
// produced here; delivery (email, chat) is the orchestrator's concern.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     string    `json:"status"`

	ExtractedRows  int      `json:"extracted_rows"`
	FailedLeagues  []string `json:"failed_leagues,omitempty"`
	QuotaRemaining int      `json:"quota_remaining"`

	LoadedRows      int        `json:"loaded_rows"`
	BronzeStats     *LoadStats `json:"bronze_stats,omitempty"`

	MetricsRows  int        `json:"metrics_rows"`
	OldWatermark *time.Time `json:"old_watermark,omitempty"`
	NewWatermark *time.Time `json:"new_watermark,omitempty"`

	QualityViolations int    `json:"quality_violations"`
	Error             string `json:"error,omitempty"`
}
