package usecase

import (
	"context"
	"testing"
	"time"

	"OddsFlow/internal/domain/models"
	applogger "OddsFlow/pkg/logger"
)

func silverRow(gameID, home, away string, homeOdds, awayOdds, drawOdds float64, kickoff time.Time) models.MatchMarketMetrics {
	m := models.MatchMarketMetrics{
		GameID:       gameID,
		SportKey:     "soccer_epl",
		SportTitle:   "EPL",
		HomeTeam:     home,
		AwayTeam:     away,
		CommenceTime: kickoff,
		MarketType:   models.MarketH2H,
		HomeWinOdds:  f(homeOdds),
		AwayWinOdds:  f(awayOdds),
		DrawOdds:     f(drawOdds),
	}
	m.ComputeDerived()
	return m
}

func TestBuildDailySummaries(t *testing.T) {
	kickoff1 := time.Date(2025, 3, 8, 15, 0, 0, 0, time.UTC)
	kickoff2 := time.Date(2025, 3, 8, 19, 45, 0, 0, time.UTC)
	rows := []models.MatchMarketMetrics{
		silverRow("g1", "Arsenal", "Chelsea", 1.80, 4.20, 3.60, kickoff1),
		silverRow("g2", "Liverpool", "Everton", 1.50, 6.00, 4.50, kickoff2),
	}
	out := BuildDailySummaries(rows)
	if len(out) != 1 {
		t.Fatalf("got %d summaries, want 1", len(out))
	}
	s := out[0]
	if s.TotalMatches != 2 || s.DistinctHomeTeams != 2 || s.DistinctAwayTeams != 2 {
		t.Errorf("counts = %d/%d/%d", s.TotalMatches, s.DistinctHomeTeams, s.DistinctAwayTeams)
	}
	if s.MinHomeOdds != 1.50 || s.MaxHomeOdds != 1.80 {
		t.Errorf("home odds range = %v..%v", s.MinHomeOdds, s.MaxHomeOdds)
	}
	if s.AvgHomeOdds != 1.65 {
		t.Errorf("avg home odds = %v, want 1.65", s.AvgHomeOdds)
	}
	if !s.EarliestKickoff.Equal(kickoff1) || !s.LatestKickoff.Equal(kickoff2) {
		t.Errorf("kickoff window = %v..%v", s.EarliestKickoff, s.LatestKickoff)
	}
}

func TestBuildDailySummariesSkipsIncompleteRows(t *testing.T) {
	kickoff := time.Date(2025, 3, 8, 15, 0, 0, 0, time.UTC)
	incomplete := silverRow("g1", "Arsenal", "Chelsea", 1.80, 4.20, 3.60, kickoff)
	incomplete.DrawOdds = nil
	incomplete.BookmakerMargin = nil
	totals := models.MatchMarketMetrics{
		GameID: "g2", SportKey: "soccer_epl", SportTitle: "EPL",
		HomeTeam: "A", AwayTeam: "B", CommenceTime: kickoff,
		MarketType: models.MarketTotals, OverOdds: f(1.9), UnderOdds: f(1.9),
	}
	if out := BuildDailySummaries([]models.MatchMarketMetrics{incomplete, totals}); len(out) != 0 {
		t.Fatalf("incomplete and non-h2h rows must not roll up, got %d", len(out))
	}
}

func TestBuildMatchFacts(t *testing.T) {
	early := time.Date(2025, 3, 8, 15, 0, 0, 0, time.UTC)
	late := time.Date(2025, 3, 9, 15, 0, 0, 0, time.UTC)
	rows := []models.MatchMarketMetrics{
		silverRow("g1", "Arsenal", "Chelsea", 1.80, 4.20, 3.60, early),
		silverRow("g2", "Liverpool", "Everton", 1.50, 6.00, 4.50, late),
	}
	noHome := silverRow("g3", "Spurs", "West Ham", 2.0, 3.5, 3.3, early)
	noHome.HomeWinOdds = nil
	rows = append(rows, noHome)

	out := BuildMatchFacts(rows)
	if len(out) != 2 {
		t.Fatalf("got %d facts, want 2 (rows without a home price drop out)", len(out))
	}
	if out[0].GameID != "g2" {
		t.Errorf("facts must order newest kickoff first, got %s", out[0].GameID)
	}
	if out[0].HomeWinOdds != 1.50 {
		t.Errorf("home odds = %v", out[0].HomeWinOdds)
	}
}

func TestViewBuilderReplacesBothViews(t *testing.T) {
	store := &fakeMetricsStore{inserted: []models.MatchMarketMetrics{
		silverRow("g1", "Arsenal", "Chelsea", 1.80, 4.20, 3.60, time.Date(2025, 3, 8, 15, 0, 0, 0, time.UTC)),
	}}
	nSummaries, nFacts, err := NewViewBuilder(store, nopMetrics{}, applogger.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("views run: %v", err)
	}
	if nSummaries != 1 || nFacts != 1 {
		t.Fatalf("summaries=%d facts=%d", nSummaries, nFacts)
	}
	if len(store.summaries) != 1 || len(store.facts) != 1 {
		t.Fatalf("store not replaced: %d/%d", len(store.summaries), len(store.facts))
	}
}
