package usecase

import (
	"context"
	"errors"
	"time"

	"OddsFlow/internal/domain/models"
)

type fakeSource struct {
	events map[string][]models.Event
	errs   map[string]error
	quota  int
	calls  int
}

func (f *fakeSource) FetchOdds(ctx context.Context, sportKey string, markets []string) ([]models.Event, int, error) {
	f.calls++
	if err, ok := f.errs[sportKey]; ok {
		return nil, f.quota, err
	}
	return f.events[sportKey], f.quota, nil
}

func (f *fakeSource) ListSports(ctx context.Context) ([]models.Sport, error) {
	return nil, nil
}

type fakeRawStore struct {
	records   []models.QuoteRecord
	staged    []models.StagedRow
	appendErr error
	stagedErr error
}

func (f *fakeRawStore) Init(ctx context.Context) error { return nil }

func (f *fakeRawStore) AppendBatch(ctx context.Context, records []models.QuoteRecord, ingestionDate, ingestionTS time.Time) (int, error) {
	if f.appendErr != nil {
		return 0, f.appendErr
	}
	f.records = append(f.records, records...)
	return len(records), nil
}

func (f *fakeRawStore) Stats(ctx context.Context) (*models.LoadStats, error) {
	return &models.LoadStats{TotalRows: uint64(len(f.records))}, nil
}

func (f *fakeRawStore) StagedSince(ctx context.Context, bookmaker string, watermark time.Time) ([]models.StagedRow, error) {
	if f.stagedErr != nil {
		return nil, f.stagedErr
	}
	var out []models.StagedRow
	for _, r := range f.staged {
		if r.Bookmaker != bookmaker || r.Odds <= 0 {
			continue
		}
		if !watermark.IsZero() && !r.IngestionDate.After(watermark) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRawStore) Health(ctx context.Context) error { return nil }

type fakeMetricsStore struct {
	inserted  []models.MatchMarketMetrics
	replaced  bool
	summaries []models.DailySummary
	facts     []models.MatchFact
}

func (f *fakeMetricsStore) Init(ctx context.Context) error { return nil }

func (f *fakeMetricsStore) InsertBatch(ctx context.Context, rows []models.MatchMarketMetrics) error {
	f.inserted = append(f.inserted, rows...)
	return nil
}

func (f *fakeMetricsStore) All(ctx context.Context) ([]models.MatchMarketMetrics, error) {
	return f.inserted, nil
}

func (f *fakeMetricsStore) Replace(ctx context.Context, rows []models.MatchMarketMetrics) error {
	f.replaced = true
	f.inserted = rows
	return nil
}

func (f *fakeMetricsStore) ReplaceDailySummaries(ctx context.Context, rows []models.DailySummary) error {
	f.summaries = rows
	return nil
}

func (f *fakeMetricsStore) ReplaceMatchFacts(ctx context.Context, rows []models.MatchFact) error {
	f.facts = rows
	return nil
}

func (f *fakeMetricsStore) DailySummaries(ctx context.Context) ([]models.DailySummary, error) {
	return f.summaries, nil
}

func (f *fakeMetricsStore) MatchFacts(ctx context.Context, limit int) ([]models.MatchFact, error) {
	return f.facts, nil
}

type fakeCursorStore struct {
	wm       time.Time
	conflict bool
	advances int
}

func (f *fakeCursorStore) Watermark(ctx context.Context) (time.Time, error) { return f.wm, nil }

func (f *fakeCursorStore) Advance(ctx context.Context, old, new time.Time) error {
	if f.conflict || !old.Equal(f.wm) {
		return models.ErrWatermarkConflict
	}
	f.wm = new
	f.advances++
	return nil
}

func (f *fakeCursorStore) Health(ctx context.Context) error { return nil }

type fakeNotifier struct {
	summaries []*models.RunSummary
	err       error
}

func (f *fakeNotifier) NotifyRun(ctx context.Context, s *models.RunSummary) error {
	if f.err != nil {
		return f.err
	}
	f.summaries = append(f.summaries, s)
	return nil
}

func (f *fakeNotifier) Close() error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordRowsExtracted(string, int) {}
func (nopMetrics) RecordRowsLoaded(int)            {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordStageDuration(string, float64) {}
func (nopMetrics) RecordQuotaRemaining(int)        {}
func (nopMetrics) RecordWatermark(time.Time)       {}

var errBoom = errors.New("boom")
