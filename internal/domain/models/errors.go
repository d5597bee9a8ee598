package models

import (
	"errors"
	"fmt"
)

// ErrSchemaViolation marks a raw store schema mismatch. Fatal, never
// retried automatically.
var ErrSchemaViolation = errors.New("raw store schema violation")

// ErrWatermarkConflict is returned when the transform cursor was advanced
// by another run between read and write.
var ErrWatermarkConflict = errors.New("watermark advanced by another run")

// ErrQuotaExhausted signals the source's request quota reached zero
// mid-run. Collected data stays valid; further requests are skipped.
var ErrQuotaExhausted = errors.New("source request quota exhausted")

// SourceUnavailableError wraps an unreachable or rate-limited quote
// source for one league. Retryable by the caller; other leagues proceed.
type SourceUnavailableError struct {
	SportKey string
	Err      error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("odds source unavailable for %s: %v", e.SportKey, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// PartialInsertError reports how many rows of a batch were accepted
// before an insert failure. The caller decides on retrying the rest.
type PartialInsertError struct {
	Inserted  int
	Submitted int
	Err       error
}

func (e *PartialInsertError) Error() string {
	return fmt.Sprintf("partial insert: %d/%d rows accepted: %v", e.Inserted, e.Submitted, e.Err)
}

func (e *PartialInsertError) Unwrap() error { return e.Err }

// QualityViolation is one failed data-quality rule for one row.
type QualityViolation struct {
	Rule       string `json:"rule"`
	GameID     string `json:"game_id"`
	MarketType string `json:"market_type"`
	Detail     string `json:"detail"`
}

// QualityReport is the structured result of validating one run's
// transformed rows. A non-empty report marks the run degraded; breaching
// the hard threshold aborts downstream aggregation.
type QualityReport struct {
	Checked    int                `json:"checked"`
	Violations []QualityViolation `json:"violations"`
}

// Degraded reports whether any rule failed.
func (r *QualityReport) Degraded() bool { return len(r.Violations) > 0 }

// Breached reports whether the failing share exceeds ratio (0..1).
func (r *QualityReport) Breached(ratio float64) bool {
	if r.Checked == 0 {
		return false
	}
	return float64(len(r.Violations))/float64(r.Checked) > ratio
}
