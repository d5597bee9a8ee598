package models

import (
	"math"
	"time"
)

// MatchMarketMetrics is one pivoted, metrics-enriched row per
// (game_id, market_type) snapshot. Odds columns not quoted by the
// market are nil.
type MatchMarketMetrics struct {
	GameID       string     `json:"game_id"`
	SportKey     string     `json:"sport_key"`
	SportTitle   string     `json:"sport_title"`
	HomeTeam     string     `json:"home_team"`
	AwayTeam     string     `json:"away_team"`
	CommenceTime time.Time  `json:"commence_time"`
	MarketType   string     `json:"market_type"`

	HomeWinOdds    *float64 `json:"home_win_odds,omitempty"`
	AwayWinOdds    *float64 `json:"away_win_odds,omitempty"`
	DrawOdds       *float64 `json:"draw_odds,omitempty"`
	HomeSpreadOdds *float64 `json:"home_spread_odds,omitempty"`
	AwaySpreadOdds *float64 `json:"away_spread_odds,omitempty"`
	SpreadPoint    *float64 `json:"spread_point,omitempty"`
	OverOdds       *float64 `json:"over_odds,omitempty"`
	UnderOdds      *float64 `json:"under_odds,omitempty"`
	TotalPoint     *float64 `json:"total_point,omitempty"`

	ImpliedProbHome *float64 `json:"implied_prob_home,omitempty"`
	ImpliedProbAway *float64 `json:"implied_prob_away,omitempty"`
	ImpliedProbDraw *float64 `json:"implied_prob_draw,omitempty"`
	BookmakerMargin *float64 `json:"bookmaker_margin,omitempty"`
	NeutralHomeProb *float64 `json:"neutral_home_prob,omitempty"`

	MatchDate time.Time `json:"match_date"`
	MatchHour int       `json:"match_hour"`

	ExtractedAt   time.Time `json:"extracted_at"`
	IngestionDate time.Time `json:"ingestion_date"`
	TransformedAt time.Time `json:"transformed_at"`
}

// Key returns the merge key of a metrics row.
func (m *MatchMarketMetrics) Key() string {
	return m.GameID + "|" + m.MarketType
}

// Round4 rounds to 4 decimal places, the precision of all derived metrics.
func Round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

// ImpliedProbability is the reciprocal of a decimal odds value, rounded
// to 4 decimals. Returns nil for odds <= 0.
func ImpliedProbability(odds *float64) *float64 {
	if odds == nil || *odds <= 0 {
		return nil
	}
	p := Round4(1 / *odds)
	return &p
}

// ComputeDerived fills implied probabilities, h2h margin, neutral home
// probability and the match date/hour components. Metrics requiring a
// missing or non-positive input stay nil.
func (m *MatchMarketMetrics) ComputeDerived() {
	m.ImpliedProbHome = ImpliedProbability(m.HomeWinOdds)
	m.ImpliedProbAway = ImpliedProbability(m.AwayWinOdds)
	m.ImpliedProbDraw = ImpliedProbability(m.DrawOdds)

	// margin and the normalized probability come from the raw
	// reciprocals so rounding error does not compound
	if m.MarketType == MarketH2H &&
		m.HomeWinOdds != nil && *m.HomeWinOdds > 0 &&
		m.AwayWinOdds != nil && *m.AwayWinOdds > 0 &&
		m.DrawOdds != nil && *m.DrawOdds > 0 {
		home := 1 / *m.HomeWinOdds
		sum := home + 1 / *m.AwayWinOdds + 1 / *m.DrawOdds
		margin := Round4(sum - 1)
		m.BookmakerMargin = &margin
		neutral := Round4(home / sum)
		m.NeutralHomeProb = &neutral
	}

	utc := m.CommenceTime.UTC()
	m.MatchDate = time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	m.MatchHour = utc.Hour()
}

// DailySummary is the gold-layer daily rollup, one row per
// (match_date, sport_title, sport_key), computed over h2h-complete
// market rows only.
type DailySummary struct {
	MatchDate  time.Time `json:"match_date"`
	SportTitle string    `json:"sport_title"`
	SportKey   string    `json:"sport_key"`

	TotalMatches      int `json:"total_matches"`
	DistinctHomeTeams int `json:"distinct_home_teams"`
	DistinctAwayTeams int `json:"distinct_away_teams"`

	AvgHomeOdds float64 `json:"avg_home_odds"`
	MinHomeOdds float64 `json:"min_home_odds"`
	MaxHomeOdds float64 `json:"max_home_odds"`
	AvgAwayOdds float64 `json:"avg_away_odds"`
	AvgDrawOdds float64 `json:"avg_draw_odds"`

	AvgMargin       float64 `json:"avg_margin"`
	AvgImpliedHome  float64 `json:"avg_implied_home"`
	AvgImpliedAway  float64 `json:"avg_implied_away"`
	AvgImpliedDraw  float64 `json:"avg_implied_draw"`

	EarliestKickoff time.Time `json:"earliest_kickoff"`
	LatestKickoff   time.Time `json:"latest_kickoff"`
}

// MatchFact is the gold-layer per-match fact row, one per game_id with
// a home win price present, carrying pivoted odds plus lineage.
type MatchFact struct {
	GameID       string    `json:"game_id"`
	SportKey     string    `json:"sport_key"`
	SportTitle   string    `json:"sport_title"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
	MatchDate    time.Time `json:"match_date"`
	MatchHour    int       `json:"match_hour"`

	HomeWinOdds     float64  `json:"home_win_odds"`
	AwayWinOdds     *float64 `json:"away_win_odds,omitempty"`
	DrawOdds        *float64 `json:"draw_odds,omitempty"`
	ImpliedProbHome *float64 `json:"implied_prob_home,omitempty"`
	ImpliedProbAway *float64 `json:"implied_prob_away,omitempty"`
	ImpliedProbDraw *float64 `json:"implied_prob_draw,omitempty"`
	BookmakerMargin *float64 `json:"bookmaker_margin,omitempty"`
	NeutralHomeProb *float64 `json:"neutral_home_prob,omitempty"`

	ExtractedAt   time.Time `json:"extracted_at"`
	IngestionDate time.Time `json:"ingestion_date"`
	TransformedAt time.Time `json:"transformed_at"`
}
