package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"OddsFlow/internal/domain/models"
	drepo "OddsFlow/internal/domain/repository"
	pkgch "OddsFlow/pkg/clickhouse"
	applogger "OddsFlow/pkg/logger"
)

// ClickHouseRawStore implements the append-only bronze layer.
type ClickHouseRawStore struct {
	db        *sql.DB
	database  string
	table     string
	chunkSize int
	l         *applogger.Logger
}

// NewClickHouseRawStore creates the bronze store.
func NewClickHouseRawStore(ch *pkgch.Client, database string, chunkSize int) *ClickHouseRawStore {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &ClickHouseRawStore{
		db:        ch.DB(),
		database:  database,
		table:     database + ".odds_raw",
		chunkSize: chunkSize,
	}
}

// SetLogger injects a structured logger.
func (s *ClickHouseRawStore) SetLogger(l *applogger.Logger) { s.l = l }

var _ drepo.RawStore = (*ClickHouseRawStore)(nil)

// Init creates the database and the bronze table if absent.
func (s *ClickHouseRawStore) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            game_id String,
            sport_key String,
            sport_title String,
            home_team String,
            away_team String,
            commence_time DateTime('UTC'),
            bookmaker String,
            market_type String,
            outcome_name String,
            odds Float64,
            point Nullable(Float64),
            extracted_at DateTime('UTC'),
            ingestion_date Date,
            ingestion_timestamp DateTime('UTC')
        ) ENGINE = MergeTree
        PARTITION BY ingestion_date
        ORDER BY (game_id, market_type, outcome_name)`, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init raw schema: %w", err)
		}
	}
	return nil
}

// AppendBatch inserts records as new rows, chunked. It never updates or
// deletes. On failure the returned count reports rows already accepted
// and the error is a models.PartialInsertError.
func (s *ClickHouseRawStore) AppendBatch(ctx context.Context, records []models.QuoteRecord, ingestionDate, ingestionTS time.Time) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	inserted := 0
	for start := 0; start < len(records); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(records) {
			end = len(records)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*14)
		for _, r := range records[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.GameID,
				r.SportKey,
				r.SportTitle,
				r.HomeTeam,
				r.AwayTeam,
				r.CommenceTime,
				r.Bookmaker,
				r.MarketType,
				r.OutcomeName,
				r.Odds,
				r.Point,
				r.ExtractedAt,
				ingestionDate,
				ingestionTS,
			)
		}

		q := fmt.Sprintf(`INSERT INTO %s
            (game_id, sport_key, sport_title, home_team, away_team, commence_time,
             bookmaker, market_type, outcome_name, odds, point, extracted_at,
             ingestion_date, ingestion_timestamp)
            VALUES %s`, s.table, strings.Join(values, ","))

		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("raw append chunk failed",
					applogger.Int("inserted", inserted),
					applogger.Int("submitted", len(records)),
					applogger.Error(err),
				)
			}
			if isSchemaError(err) {
				err = fmt.Errorf("%w: %v", models.ErrSchemaViolation, err)
			}
			return inserted, &models.PartialInsertError{
				Inserted:  inserted,
				Submitted: len(records),
				Err:       err,
			}
		}
		inserted = end
	}
	return inserted, nil
}

// Stats returns bronze table statistics in one aggregate query.
func (s *ClickHouseRawStore) Stats(ctx context.Context) (*models.LoadStats, error) {
	q := fmt.Sprintf(`
        SELECT count(), uniqExact(sport_key), uniqExact(game_id),
               uniqExact(market_type), max(ingestion_date)
        FROM %s`, s.table)

	var st models.LoadStats
	var latest sql.NullTime
	err := s.db.QueryRowContext(ctx, q).Scan(
		&st.TotalRows, &st.DistinctSports, &st.DistinctMatches, &st.DistinctMarkets, &latest,
	)
	if err != nil {
		return nil, fmt.Errorf("raw stats: %w", err)
	}
	if latest.Valid {
		st.LatestIngestion = latest.Time.UTC()
	}
	return &st, nil
}

// StagedSince is the silver staging view: target bookmaker, positive
// odds, types cast, restricted to partitions after the watermark.
func (s *ClickHouseRawStore) StagedSince(ctx context.Context, bookmaker string, watermark time.Time) ([]models.StagedRow, error) {
	q := fmt.Sprintf(`
        SELECT game_id, sport_key, sport_title, home_team, away_team, commence_time,
               bookmaker, market_type, outcome_name, toFloat64(odds), point,
               extracted_at, ingestion_date
        FROM %s
        WHERE bookmaker = ? AND odds > 0`, s.table)
	args := []interface{}{bookmaker}
	if !watermark.IsZero() {
		q += " AND ingestion_date > ?"
		args = append(args, watermark)
	}
	q += " ORDER BY game_id, market_type, extracted_at, outcome_name"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("staged rows: %w", err)
	}
	defer rows.Close()

	out := make([]models.StagedRow, 0, 1024)
	for rows.Next() {
		var r models.StagedRow
		var point sql.NullFloat64
		if err := rows.Scan(
			&r.GameID, &r.SportKey, &r.SportTitle, &r.HomeTeam, &r.AwayTeam, &r.CommenceTime,
			&r.Bookmaker, &r.MarketType, &r.OutcomeName, &r.Odds, &point,
			&r.ExtractedAt, &r.IngestionDate,
		); err != nil {
			return nil, fmt.Errorf("scan staged row: %w", err)
		}
		if point.Valid {
			p := point.Float64
			r.Point = &p
		}
		r.CommenceTime = r.CommenceTime.UTC()
		r.ExtractedAt = r.ExtractedAt.UTC()
		r.IngestionDate = r.IngestionDate.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// Health pings the warehouse.
func (s *ClickHouseRawStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// isSchemaError classifies ClickHouse errors that indicate a table
// shape mismatch rather than a transient failure.
func isSchemaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, models.ErrSchemaViolation) {
		return true
	}
	msg := err.Error()
	for _, pat := range []string{
		"NO_SUCH_COLUMN_IN_TABLE",
		"UNKNOWN_IDENTIFIER",
		"TYPE_MISMATCH",
		"Cannot parse",
	} {
		if strings.Contains(msg, pat) {
			return true
		}
	}
	return false
}
