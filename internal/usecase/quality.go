package usecase

import (
	"fmt"

	"OddsFlow/internal/domain/models"
)

const (
	minPlausibleOdds = 1.0
	maxPlausibleOdds = 10000.0
	maxPlausibleMargin = 0.5
)

// CheckQuality validates transformed metric rows. Rows that fail a rule
// are excluded from the returned slice and reported, never silently
// dropped. Rules: required identity fields, at least one priced
// outcome, decimal odds within [1, 10000], h2h margin within [0, 0.5],
// and no duplicate (game_id, market_type) keys within the batch.
func CheckQuality(rows []models.MatchMarketMetrics) ([]models.MatchMarketMetrics, *models.QualityReport) {
	report := &models.QualityReport{Checked: len(rows)}
	valid := make([]models.MatchMarketMetrics, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for _, m := range rows {
		if v := checkRow(&m); v != nil {
			report.Violations = append(report.Violations, *v)
			continue
		}
		if _, dup := seen[m.Key()]; dup {
			report.Violations = append(report.Violations, models.QualityViolation{
				Rule:       "unique_key",
				GameID:     m.GameID,
				MarketType: m.MarketType,
				Detail:     "duplicate (game_id, market_type) in batch",
			})
			continue
		}
		seen[m.Key()] = struct{}{}
		valid = append(valid, m)
	}
	return valid, report
}

func checkRow(m *models.MatchMarketMetrics) *models.QualityViolation {
	fail := func(rule, detail string) *models.QualityViolation {
		return &models.QualityViolation{Rule: rule, GameID: m.GameID, MarketType: m.MarketType, Detail: detail}
	}

	if m.GameID == "" || m.MarketType == "" || m.HomeTeam == "" || m.AwayTeam == "" {
		return fail("required_fields", "missing game_id, market_type or team name")
	}
	if m.CommenceTime.IsZero() {
		return fail("required_fields", "missing commence_time")
	}

	priced := 0
	for name, odds := range map[string]*float64{
		"home_win_odds":    m.HomeWinOdds,
		"away_win_odds":    m.AwayWinOdds,
		"draw_odds":        m.DrawOdds,
		"home_spread_odds": m.HomeSpreadOdds,
		"away_spread_odds": m.AwaySpreadOdds,
		"over_odds":        m.OverOdds,
		"under_odds":       m.UnderOdds,
	} {
		if odds == nil {
			continue
		}
		priced++
		if *odds < minPlausibleOdds || *odds > maxPlausibleOdds {
			return fail("odds_range", fmt.Sprintf("%s %v outside [%v, %v]", name, *odds, minPlausibleOdds, maxPlausibleOdds))
		}
	}
	if priced == 0 {
		return fail("no_outcomes", "no priced outcome in row")
	}

	if m.BookmakerMargin != nil && (*m.BookmakerMargin < 0 || *m.BookmakerMargin > maxPlausibleMargin) {
		return fail("margin_range", fmt.Sprintf("bookmaker_margin %v outside [0, %v]", *m.BookmakerMargin, maxPlausibleMargin))
	}
	return nil
}
