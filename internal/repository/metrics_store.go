package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"OddsFlow/internal/domain/models"
	drepo "OddsFlow/internal/domain/repository"
	pkgch "OddsFlow/pkg/clickhouse"
)

// ClickHouseMetricsStore holds the silver metrics table and the two
// recomputed gold views.
type ClickHouseMetricsStore struct {
	db        *sql.DB
	database  string
	metrics   string
	daily     string
	facts     string
	chunkSize int
}

// NewClickHouseMetricsStore creates the silver and gold store.
func NewClickHouseMetricsStore(ch *pkgch.Client, database string, chunkSize int) *ClickHouseMetricsStore {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &ClickHouseMetricsStore{
		db:        ch.DB(),
		database:  database,
		metrics:   database + ".odds_metrics",
		daily:     database + ".daily_odds_summary",
		facts:     database + ".match_odds_facts",
		chunkSize: chunkSize,
	}
}

var _ drepo.MetricsStore = (*ClickHouseMetricsStore)(nil)

// Init creates the silver and gold tables. The metrics table is a
// ReplacingMergeTree keyed by (game_id, market_type) so the newest
// transformed_at version wins on merge; reads use FINAL.
func (s *ClickHouseMetricsStore) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            game_id String,
            sport_key String,
            sport_title String,
            home_team String,
            away_team String,
            commence_time DateTime('UTC'),
            market_type String,
            home_win_odds Nullable(Float64),
            away_win_odds Nullable(Float64),
            draw_odds Nullable(Float64),
            home_spread_odds Nullable(Float64),
            away_spread_odds Nullable(Float64),
            spread_point Nullable(Float64),
            over_odds Nullable(Float64),
            under_odds Nullable(Float64),
            total_point Nullable(Float64),
            implied_prob_home Nullable(Float64),
            implied_prob_away Nullable(Float64),
            implied_prob_draw Nullable(Float64),
            bookmaker_margin Nullable(Float64),
            neutral_home_prob Nullable(Float64),
            match_date Date,
            match_hour UInt8,
            extracted_at DateTime('UTC'),
            ingestion_date Date,
            transformed_at DateTime('UTC')
        ) ENGINE = ReplacingMergeTree(transformed_at)
        PARTITION BY ingestion_date
        ORDER BY (game_id, market_type)`, s.metrics),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            match_date Date,
            sport_title String,
            sport_key String,
            total_matches UInt64,
            distinct_home_teams UInt64,
            distinct_away_teams UInt64,
            avg_home_odds Float64,
            min_home_odds Float64,
            max_home_odds Float64,
            avg_away_odds Float64,
            avg_draw_odds Float64,
            avg_margin Float64,
            avg_implied_home Float64,
            avg_implied_away Float64,
            avg_implied_draw Float64,
            earliest_kickoff DateTime('UTC'),
            latest_kickoff DateTime('UTC')
        ) ENGINE = MergeTree
        ORDER BY (match_date, sport_key)`, s.daily),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            game_id String,
            sport_key String,
            sport_title String,
            home_team String,
            away_team String,
            commence_time DateTime('UTC'),
            match_date Date,
            match_hour UInt8,
            home_win_odds Float64,
            away_win_odds Nullable(Float64),
            draw_odds Nullable(Float64),
            implied_prob_home Nullable(Float64),
            implied_prob_away Nullable(Float64),
            implied_prob_draw Nullable(Float64),
            bookmaker_margin Nullable(Float64),
            neutral_home_prob Nullable(Float64),
            extracted_at DateTime('UTC'),
            ingestion_date Date,
            transformed_at DateTime('UTC')
        ) ENGINE = MergeTree
        ORDER BY (match_date, game_id)`, s.facts),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init metrics schema: %w", err)
		}
	}
	return nil
}

const metricsColumns = `game_id, sport_key, sport_title, home_team, away_team, commence_time,
    market_type,
    home_win_odds, away_win_odds, draw_odds,
    home_spread_odds, away_spread_odds, spread_point,
    over_odds, under_odds, total_point,
    implied_prob_home, implied_prob_away, implied_prob_draw,
    bookmaker_margin, neutral_home_prob,
    match_date, match_hour, extracted_at, ingestion_date, transformed_at`

// InsertBatch appends metric rows; the engine dedupes by version on merge.
func (s *ClickHouseMetricsStore) InsertBatch(ctx context.Context, rows []models.MatchMarketMetrics) error {
	if len(rows) == 0 {
		return nil
	}
	for start := 0; start < len(rows); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.insertMetricsChunk(ctx, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseMetricsStore) insertMetricsChunk(ctx context.Context, rows []models.MatchMarketMetrics) error {
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", 26), ", ") + ")"
	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*26)
	for _, m := range rows {
		values = append(values, placeholder)
		args = append(args,
			m.GameID, m.SportKey, m.SportTitle, m.HomeTeam, m.AwayTeam, m.CommenceTime,
			m.MarketType,
			m.HomeWinOdds, m.AwayWinOdds, m.DrawOdds,
			m.HomeSpreadOdds, m.AwaySpreadOdds, m.SpreadPoint,
			m.OverOdds, m.UnderOdds, m.TotalPoint,
			m.ImpliedProbHome, m.ImpliedProbAway, m.ImpliedProbDraw,
			m.BookmakerMargin, m.NeutralHomeProb,
			m.MatchDate, uint8(m.MatchHour),
			m.ExtractedAt, m.IngestionDate, m.TransformedAt,
		)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.metrics, metricsColumns, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert metrics: %w", err)
	}
	return nil
}

// All returns the deduplicated silver table, latest version per key.
func (s *ClickHouseMetricsStore) All(ctx context.Context) ([]models.MatchMarketMetrics, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL ORDER BY game_id, market_type", metricsColumns, s.metrics)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("metrics all: %w", err)
	}
	defer rows.Close()

	out := make([]models.MatchMarketMetrics, 0, 256)
	for rows.Next() {
		m, err := scanMetrics(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func scanMetrics(rows *sql.Rows) (models.MatchMarketMetrics, error) {
	var m models.MatchMarketMetrics
	var matchHour uint8
	err := rows.Scan(
		&m.GameID, &m.SportKey, &m.SportTitle, &m.HomeTeam, &m.AwayTeam, &m.CommenceTime,
		&m.MarketType,
		&m.HomeWinOdds, &m.AwayWinOdds, &m.DrawOdds,
		&m.HomeSpreadOdds, &m.AwaySpreadOdds, &m.SpreadPoint,
		&m.OverOdds, &m.UnderOdds, &m.TotalPoint,
		&m.ImpliedProbHome, &m.ImpliedProbAway, &m.ImpliedProbDraw,
		&m.BookmakerMargin, &m.NeutralHomeProb,
		&m.MatchDate, &matchHour,
		&m.ExtractedAt, &m.IngestionDate, &m.TransformedAt,
	)
	if err != nil {
		return m, fmt.Errorf("scan metrics row: %w", err)
	}
	m.MatchHour = int(matchHour)
	m.CommenceTime = m.CommenceTime.UTC()
	m.MatchDate = m.MatchDate.UTC()
	m.ExtractedAt = m.ExtractedAt.UTC()
	m.IngestionDate = m.IngestionDate.UTC()
	m.TransformedAt = m.TransformedAt.UTC()
	return m, nil
}

// Replace truncates the silver table and reinserts the given rows.
// Used only by full rebuilds.
func (s *ClickHouseMetricsStore) Replace(ctx context.Context, rows []models.MatchMarketMetrics) error {
	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE "+s.metrics); err != nil {
		return fmt.Errorf("truncate metrics: %w", err)
	}
	return s.InsertBatch(ctx, rows)
}

// ReplaceDailySummaries recomputes the daily summary view from scratch.
func (s *ClickHouseMetricsStore) ReplaceDailySummaries(ctx context.Context, rows []models.DailySummary) error {
	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE "+s.daily); err != nil {
		return fmt.Errorf("truncate daily summary: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*17)
	for _, d := range rows {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			d.MatchDate, d.SportTitle, d.SportKey,
			uint64(d.TotalMatches), uint64(d.DistinctHomeTeams), uint64(d.DistinctAwayTeams),
			d.AvgHomeOdds, d.MinHomeOdds, d.MaxHomeOdds, d.AvgAwayOdds, d.AvgDrawOdds,
			d.AvgMargin, d.AvgImpliedHome, d.AvgImpliedAway, d.AvgImpliedDraw,
			d.EarliestKickoff, d.LatestKickoff,
		)
	}
	q := fmt.Sprintf(`INSERT INTO %s
        (match_date, sport_title, sport_key,
         total_matches, distinct_home_teams, distinct_away_teams,
         avg_home_odds, min_home_odds, max_home_odds, avg_away_odds, avg_draw_odds,
         avg_margin, avg_implied_home, avg_implied_away, avg_implied_draw,
         earliest_kickoff, latest_kickoff)
        VALUES %s`, s.daily, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert daily summary: %w", err)
	}
	return nil
}

// ReplaceMatchFacts recomputes the match facts view from scratch.
func (s *ClickHouseMetricsStore) ReplaceMatchFacts(ctx context.Context, rows []models.MatchFact) error {
	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE "+s.facts); err != nil {
		return fmt.Errorf("truncate match facts: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*19)
	for _, f := range rows {
		values = append(values, "("+strings.TrimSuffix(strings.Repeat("?, ", 19), ", ")+")")
		args = append(args,
			f.GameID, f.SportKey, f.SportTitle, f.HomeTeam, f.AwayTeam, f.CommenceTime,
			f.MatchDate, uint8(f.MatchHour),
			f.HomeWinOdds, f.AwayWinOdds, f.DrawOdds,
			f.ImpliedProbHome, f.ImpliedProbAway, f.ImpliedProbDraw,
			f.BookmakerMargin, f.NeutralHomeProb,
			f.ExtractedAt, f.IngestionDate, f.TransformedAt,
		)
	}
	q := fmt.Sprintf(`INSERT INTO %s
        (game_id, sport_key, sport_title, home_team, away_team, commence_time,
         match_date, match_hour,
         home_win_odds, away_win_odds, draw_odds,
         implied_prob_home, implied_prob_away, implied_prob_draw,
         bookmaker_margin, neutral_home_prob,
         extracted_at, ingestion_date, transformed_at)
        VALUES %s`, s.facts, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert match facts: %w", err)
	}
	return nil
}

// DailySummaries reads the gold summary view ordered by recency.
func (s *ClickHouseMetricsStore) DailySummaries(ctx context.Context) ([]models.DailySummary, error) {
	q := fmt.Sprintf(`
        SELECT match_date, sport_title, sport_key,
               total_matches, distinct_home_teams, distinct_away_teams,
               avg_home_odds, min_home_odds, max_home_odds, avg_away_odds, avg_draw_odds,
               avg_margin, avg_implied_home, avg_implied_away, avg_implied_draw,
               earliest_kickoff, latest_kickoff
        FROM %s
        ORDER BY match_date DESC, sport_key`, s.daily)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("daily summaries: %w", err)
	}
	defer rows.Close()

	out := make([]models.DailySummary, 0, 64)
	for rows.Next() {
		var d models.DailySummary
		var matches, homes, aways uint64
		if err := rows.Scan(
			&d.MatchDate, &d.SportTitle, &d.SportKey,
			&matches, &homes, &aways,
			&d.AvgHomeOdds, &d.MinHomeOdds, &d.MaxHomeOdds, &d.AvgAwayOdds, &d.AvgDrawOdds,
			&d.AvgMargin, &d.AvgImpliedHome, &d.AvgImpliedAway, &d.AvgImpliedDraw,
			&d.EarliestKickoff, &d.LatestKickoff,
		); err != nil {
			return nil, fmt.Errorf("scan daily summary: %w", err)
		}
		d.TotalMatches = int(matches)
		d.DistinctHomeTeams = int(homes)
		d.DistinctAwayTeams = int(aways)
		d.MatchDate = d.MatchDate.UTC()
		d.EarliestKickoff = d.EarliestKickoff.UTC()
		d.LatestKickoff = d.LatestKickoff.UTC()
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// MatchFacts reads the gold facts view, newest matches first.
func (s *ClickHouseMetricsStore) MatchFacts(ctx context.Context, limit int) ([]models.MatchFact, error) {
	q := fmt.Sprintf(`
        SELECT game_id, sport_key, sport_title, home_team, away_team, commence_time,
               match_date, match_hour,
               home_win_odds, away_win_odds, draw_odds,
               implied_prob_home, implied_prob_away, implied_prob_draw,
               bookmaker_margin, neutral_home_prob,
               extracted_at, ingestion_date, transformed_at
        FROM %s
        ORDER BY commence_time DESC, game_id`, s.facts)
	var args []interface{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("match facts: %w", err)
	}
	defer rows.Close()

	out := make([]models.MatchFact, 0, 64)
	for rows.Next() {
		var f models.MatchFact
		var matchHour uint8
		if err := rows.Scan(
			&f.GameID, &f.SportKey, &f.SportTitle, &f.HomeTeam, &f.AwayTeam, &f.CommenceTime,
			&f.MatchDate, &matchHour,
			&f.HomeWinOdds, &f.AwayWinOdds, &f.DrawOdds,
			&f.ImpliedProbHome, &f.ImpliedProbAway, &f.ImpliedProbDraw,
			&f.BookmakerMargin, &f.NeutralHomeProb,
			&f.ExtractedAt, &f.IngestionDate, &f.TransformedAt,
		); err != nil {
			return nil, fmt.Errorf("scan match fact: %w", err)
		}
		f.MatchHour = int(matchHour)
		f.CommenceTime = f.CommenceTime.UTC()
		f.MatchDate = f.MatchDate.UTC()
		f.ExtractedAt = f.ExtractedAt.UTC()
		f.IngestionDate = f.IngestionDate.UTC()
		f.TransformedAt = f.TransformedAt.UTC()
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
