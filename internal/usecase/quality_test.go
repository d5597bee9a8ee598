package usecase

import (
	"testing"
	"time"

	"OddsFlow/internal/domain/models"
)

func metricsRow(gameID string) models.MatchMarketMetrics {
	return models.MatchMarketMetrics{
		GameID:       gameID,
		MarketType:   models.MarketH2H,
		HomeTeam:     "Arsenal",
		AwayTeam:     "Chelsea",
		CommenceTime: time.Date(2025, 3, 8, 17, 30, 0, 0, time.UTC),
		HomeWinOdds:  f(1.80),
		AwayWinOdds:  f(4.20),
		DrawOdds:     f(3.60),
	}
}

func TestCheckQualityPassesCleanRows(t *testing.T) {
	valid, report := CheckQuality([]models.MatchMarketMetrics{metricsRow("g1"), metricsRow("g2")})
	if len(valid) != 2 {
		t.Fatalf("valid = %d, want 2", len(valid))
	}
	if report.Degraded() {
		t.Fatalf("clean batch reported degraded: %+v", report.Violations)
	}
	if report.Checked != 2 {
		t.Fatalf("checked = %d", report.Checked)
	}
}

func TestCheckQualityOddsRange(t *testing.T) {
	bad := metricsRow("g1")
	bad.HomeWinOdds = f(0.5)
	valid, report := CheckQuality([]models.MatchMarketMetrics{bad, metricsRow("g2")})
	if len(valid) != 1 || valid[0].GameID != "g2" {
		t.Fatalf("out-of-range odds row must be filtered, valid=%v", valid)
	}
	if len(report.Violations) != 1 || report.Violations[0].Rule != "odds_range" {
		t.Fatalf("violations = %+v", report.Violations)
	}
}

func TestCheckQualityMarginRange(t *testing.T) {
	bad := metricsRow("g1")
	bad.BookmakerMargin = f(0.9)
	_, report := CheckQuality([]models.MatchMarketMetrics{bad})
	if len(report.Violations) != 1 || report.Violations[0].Rule != "margin_range" {
		t.Fatalf("violations = %+v", report.Violations)
	}
}

func TestCheckQualityMissingFields(t *testing.T) {
	bad := metricsRow("")
	_, report := CheckQuality([]models.MatchMarketMetrics{bad})
	if len(report.Violations) != 1 || report.Violations[0].Rule != "required_fields" {
		t.Fatalf("violations = %+v", report.Violations)
	}
}

func TestCheckQualityNoOutcomes(t *testing.T) {
	bad := metricsRow("g1")
	bad.HomeWinOdds, bad.AwayWinOdds, bad.DrawOdds = nil, nil, nil
	_, report := CheckQuality([]models.MatchMarketMetrics{bad})
	if len(report.Violations) != 1 || report.Violations[0].Rule != "no_outcomes" {
		t.Fatalf("violations = %+v", report.Violations)
	}
}

func TestCheckQualityDuplicateKeys(t *testing.T) {
	valid, report := CheckQuality([]models.MatchMarketMetrics{metricsRow("g1"), metricsRow("g1")})
	if len(valid) != 1 {
		t.Fatalf("valid = %d, want only the first of the dup pair", len(valid))
	}
	if len(report.Violations) != 1 || report.Violations[0].Rule != "unique_key" {
		t.Fatalf("violations = %+v", report.Violations)
	}
}

func TestQualityReportBreached(t *testing.T) {
	r := &models.QualityReport{Checked: 10}
	for i := 0; i < 6; i++ {
		r.Violations = append(r.Violations, models.QualityViolation{Rule: "odds_range"})
	}
	if !r.Breached(0.5) {
		t.Fatalf("6/10 must breach a 0.5 threshold")
	}
	r.Violations = r.Violations[:5]
	if r.Breached(0.5) {
		t.Fatalf("5/10 must not breach a 0.5 threshold")
	}
}
