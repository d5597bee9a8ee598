package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"OddsFlow/internal/domain/models"
	applogger "OddsFlow/pkg/logger"
)

func f(v float64) *float64 { return &v }

func stagedRow(gameID, market, outcome string, odds float64, ingestion, extracted time.Time) models.StagedRow {
	return models.StagedRow{
		QuoteRecord: models.QuoteRecord{
			GameID:       gameID,
			SportKey:     "soccer_epl",
			SportTitle:   "EPL",
			HomeTeam:     "Arsenal",
			AwayTeam:     "Chelsea",
			CommenceTime: time.Date(2025, 3, 8, 17, 30, 0, 0, time.UTC),
			Bookmaker:    "betway",
			MarketType:   market,
			OutcomeName:  outcome,
			Odds:         odds,
			ExtractedAt:  extracted,
		},
		IngestionDate: ingestion,
	}
}

func TestPivotMetricsH2H(t *testing.T) {
	day := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	ext := day.Add(9 * time.Hour)
	rows := []models.StagedRow{
		stagedRow("g1", models.MarketH2H, "Arsenal", 1.80, day, ext),
		stagedRow("g1", models.MarketH2H, "Chelsea", 4.20, day, ext),
		stagedRow("g1", models.MarketH2H, "Draw", 3.60, day, ext),
	}
	now := time.Now().UTC()
	out := PivotMetrics(rows, now)
	if len(out) != 1 {
		t.Fatalf("got %d rows, want 1", len(out))
	}
	m := out[0]
	if m.HomeWinOdds == nil || *m.HomeWinOdds != 1.80 {
		t.Errorf("home odds = %v", m.HomeWinOdds)
	}
	if m.AwayWinOdds == nil || *m.AwayWinOdds != 4.20 {
		t.Errorf("away odds = %v", m.AwayWinOdds)
	}
	if m.DrawOdds == nil || *m.DrawOdds != 3.60 {
		t.Errorf("draw odds = %v", m.DrawOdds)
	}
	if m.BookmakerMargin == nil || *m.BookmakerMargin != 0.0714 {
		t.Errorf("margin = %v, want 0.0714", m.BookmakerMargin)
	}
	if m.NeutralHomeProb == nil || *m.NeutralHomeProb != 0.5185 {
		t.Errorf("neutral = %v, want 0.5185", m.NeutralHomeProb)
	}
	if !m.TransformedAt.Equal(now) {
		t.Errorf("transformed_at = %v", m.TransformedAt)
	}
}

func TestPivotMetricsTieBreak(t *testing.T) {
	day := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	early := day.Add(6 * time.Hour)
	late := day.Add(12 * time.Hour)
	rows := []models.StagedRow{
		// duplicate home quotes in one snapshot: highest odds wins
		stagedRow("g1", models.MarketH2H, "Arsenal", 1.75, day, late),
		stagedRow("g1", models.MarketH2H, "Arsenal", 1.85, day, early),
		// equal odds: the later extraction wins
		stagedRow("g1", models.MarketH2H, "Chelsea", 4.20, day, early),
		stagedRow("g1", models.MarketH2H, "Chelsea", 4.20, day, late),
	}
	out := PivotMetrics(rows, time.Now().UTC())
	if len(out) != 1 {
		t.Fatalf("got %d rows, want 1", len(out))
	}
	if *out[0].HomeWinOdds != 1.85 {
		t.Errorf("home odds = %v, want 1.85 (max odds wins)", *out[0].HomeWinOdds)
	}
	if !out[0].ExtractedAt.Equal(late) {
		t.Errorf("extracted_at = %v, want the latest in group", out[0].ExtractedAt)
	}
}

func TestPivotMetricsSeparatesSnapshots(t *testing.T) {
	day1 := time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	rows := []models.StagedRow{
		stagedRow("g1", models.MarketH2H, "Arsenal", 1.90, day1, day1.Add(time.Hour)),
		stagedRow("g1", models.MarketH2H, "Arsenal", 1.80, day2, day2.Add(time.Hour)),
	}
	out := PivotMetrics(rows, time.Now().UTC())
	if len(out) != 2 {
		t.Fatalf("got %d rows, want one per ingestion date", len(out))
	}
}

func TestPivotMetricsSkipsUnknownOutcomes(t *testing.T) {
	day := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	rows := []models.StagedRow{
		stagedRow("g1", models.MarketH2H, "Tottenham", 2.0, day, day),
	}
	if out := PivotMetrics(rows, time.Now().UTC()); len(out) != 0 {
		t.Fatalf("unclassifiable outcomes must not produce rows, got %d", len(out))
	}
}

func newTestTransformer(raw *fakeRawStore, store *fakeMetricsStore, cursor *fakeCursorStore) *Transformer {
	return NewTransformer(raw, store, cursor, "betway", 0.5, nopMetrics{}, applogger.Nop())
}

func TestTransformRunAdvancesWatermark(t *testing.T) {
	day := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	raw := &fakeRawStore{staged: []models.StagedRow{
		stagedRow("g1", models.MarketH2H, "Arsenal", 1.80, day, day.Add(time.Hour)),
		stagedRow("g1", models.MarketH2H, "Chelsea", 4.20, day, day.Add(time.Hour)),
		stagedRow("g1", models.MarketH2H, "Draw", 3.60, day, day.Add(time.Hour)),
	}}
	store := &fakeMetricsStore{}
	cursor := &fakeCursorStore{}

	res, err := newTestTransformer(raw, store, cursor).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.RowsOut != 1 || len(store.inserted) != 1 {
		t.Fatalf("rows out = %d, inserted = %d", res.RowsOut, len(store.inserted))
	}
	if !cursor.wm.Equal(day) {
		t.Fatalf("watermark = %v, want %v", cursor.wm, day)
	}
	if res.NewWatermark == nil || !res.NewWatermark.Equal(day) {
		t.Fatalf("result watermark = %v", res.NewWatermark)
	}
}

func TestTransformRunNoNewPartitions(t *testing.T) {
	day := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	raw := &fakeRawStore{staged: []models.StagedRow{
		stagedRow("g1", models.MarketH2H, "Arsenal", 1.80, day, day.Add(time.Hour)),
	}}
	store := &fakeMetricsStore{}
	cursor := &fakeCursorStore{wm: day}

	res, err := newTestTransformer(raw, store, cursor).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.RowsIn != 0 || res.RowsOut != 0 {
		t.Fatalf("no-op pass should process nothing, got in=%d out=%d", res.RowsIn, res.RowsOut)
	}
	if cursor.advances != 0 {
		t.Fatalf("watermark must not move on a no-op pass")
	}
}

func TestTransformRunWatermarkConflict(t *testing.T) {
	day := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	raw := &fakeRawStore{staged: []models.StagedRow{
		stagedRow("g1", models.MarketH2H, "Arsenal", 1.80, day, day.Add(time.Hour)),
		stagedRow("g1", models.MarketH2H, "Chelsea", 4.20, day, day.Add(time.Hour)),
		stagedRow("g1", models.MarketH2H, "Draw", 3.60, day, day.Add(time.Hour)),
	}}
	cursor := &fakeCursorStore{conflict: true}

	_, err := newTestTransformer(raw, &fakeMetricsStore{}, cursor).Run(context.Background())
	if !errors.Is(err, models.ErrWatermarkConflict) {
		t.Fatalf("err = %v, want watermark conflict", err)
	}
}

func TestRebuildKeepsLatestSnapshot(t *testing.T) {
	day1 := time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	raw := &fakeRawStore{staged: []models.StagedRow{
		stagedRow("g1", models.MarketH2H, "Arsenal", 1.90, day1, day1.Add(time.Hour)),
		stagedRow("g1", models.MarketH2H, "Chelsea", 4.00, day1, day1.Add(time.Hour)),
		stagedRow("g1", models.MarketH2H, "Draw", 3.50, day1, day1.Add(time.Hour)),
		stagedRow("g1", models.MarketH2H, "Arsenal", 1.80, day2, day2.Add(time.Hour)),
		stagedRow("g1", models.MarketH2H, "Chelsea", 4.20, day2, day2.Add(time.Hour)),
		stagedRow("g1", models.MarketH2H, "Draw", 3.60, day2, day2.Add(time.Hour)),
	}}
	store := &fakeMetricsStore{}
	cursor := &fakeCursorStore{wm: day2}

	res, err := newTestTransformer(raw, store, cursor).Rebuild(context.Background())
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if !store.replaced {
		t.Fatalf("rebuild must replace, not append")
	}
	if res.RowsOut != 1 || len(store.inserted) != 1 {
		t.Fatalf("rows out = %d, want 1 surviving snapshot", res.RowsOut)
	}
	if *store.inserted[0].HomeWinOdds != 1.80 {
		t.Fatalf("surviving home odds = %v, want the newer snapshot", *store.inserted[0].HomeWinOdds)
	}
}
