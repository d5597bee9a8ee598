package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"OddsFlow/internal/domain/models"
	drepo "OddsFlow/internal/domain/repository"
	applogger "OddsFlow/pkg/logger"
)

// TransformResult carries the outcome of one transform pass.
type TransformResult struct {
	RowsIn       int
	RowsOut      int
	Report       *models.QualityReport
	OldWatermark *time.Time
	NewWatermark *time.Time
}

// Transformer pivots staged bronze rows into silver metric rows,
// incrementally past the stored watermark.
type Transformer struct {
	raw           drepo.RawStore
	store         drepo.MetricsStore
	cursor        drepo.CursorStore
	bookmaker     string
	hardFailRatio float64
	metrics       drepo.Metrics
	l             *applogger.Logger
}

// NewTransformer creates a new Transformer instance.
func NewTransformer(raw drepo.RawStore, store drepo.MetricsStore, cursor drepo.CursorStore,
	bookmaker string, hardFailRatio float64, metrics drepo.Metrics, l *applogger.Logger) *Transformer {
	return &Transformer{
		raw: raw, store: store, cursor: cursor,
		bookmaker: bookmaker, hardFailRatio: hardFailRatio,
		metrics: metrics, l: l,
	}
}

// Run processes only bronze partitions newer than the watermark and
// advances it afterwards. The advance is compare-and-set; a conflict
// means another worker committed first and this pass must not be
// treated as applied. A pass with no new partitions is a no-op that
// leaves the watermark unchanged.
func (t *Transformer) Run(ctx context.Context) (*TransformResult, error) {
	old, err := t.cursor.Watermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("read watermark: %w", err)
	}

	staged, err := t.raw.StagedSince(ctx, t.bookmaker, old)
	if err != nil {
		t.metrics.RecordError("transform")
		return nil, fmt.Errorf("stage bronze rows: %w", err)
	}

	res := &TransformResult{RowsIn: len(staged)}
	if !old.IsZero() {
		o := old
		res.OldWatermark = &o
	}
	if len(staged) == 0 {
		t.l.Info("no new bronze partitions past watermark")
		res.Report = &models.QualityReport{}
		return res, nil
	}

	now := time.Now().UTC()
	pivoted := PivotMetrics(staged, now)
	valid, report := CheckQuality(pivoted)
	res.Report = report
	if report.Degraded() {
		t.l.Warn("quality violations in transform batch",
			applogger.Int("checked", report.Checked),
			applogger.Int("violations", len(report.Violations)),
		)
		t.metrics.RecordError("quality")
	}
	if report.Breached(t.hardFailRatio) {
		return res, fmt.Errorf("quality hard threshold breached: %d of %d rows invalid",
			len(report.Violations), report.Checked)
	}

	if err := t.store.InsertBatch(ctx, valid); err != nil {
		t.metrics.RecordError("transform")
		return res, fmt.Errorf("insert metrics: %w", err)
	}
	res.RowsOut = len(valid)

	newWM := maxIngestionDate(staged)
	if newWM.After(old) {
		if err := t.cursor.Advance(ctx, old, newWM); err != nil {
			return res, err
		}
		t.metrics.RecordWatermark(newWM)
		w := newWM
		res.NewWatermark = &w
	}

	t.l.Info("transform pass complete",
		applogger.Int("rows_in", len(staged)),
		applogger.Int("rows_out", len(valid)),
		applogger.Time("watermark", newWM),
	)
	return res, nil
}

// Rebuild reprocesses the entire bronze history and replaces the silver
// table, ignoring and then resetting the watermark. Only the newest
// snapshot per (game_id, market_type) survives.
func (t *Transformer) Rebuild(ctx context.Context) (*TransformResult, error) {
	old, err := t.cursor.Watermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("read watermark: %w", err)
	}

	staged, err := t.raw.StagedSince(ctx, t.bookmaker, time.Time{})
	if err != nil {
		t.metrics.RecordError("transform")
		return nil, fmt.Errorf("stage bronze rows: %w", err)
	}

	now := time.Now().UTC()
	pivoted := collapseLatest(PivotMetrics(staged, now))
	valid, report := CheckQuality(pivoted)
	res := &TransformResult{RowsIn: len(staged), Report: report}
	if report.Breached(t.hardFailRatio) {
		return res, fmt.Errorf("quality hard threshold breached: %d of %d rows invalid",
			len(report.Violations), report.Checked)
	}

	if err := t.store.Replace(ctx, valid); err != nil {
		t.metrics.RecordError("transform")
		return res, fmt.Errorf("replace metrics: %w", err)
	}
	res.RowsOut = len(valid)

	if newWM := maxIngestionDate(staged); !newWM.IsZero() {
		if err := t.cursor.Advance(ctx, old, newWM); err != nil {
			return res, err
		}
		t.metrics.RecordWatermark(newWM)
		w := newWM
		res.NewWatermark = &w
	}
	return res, nil
}

// pivotGroup accumulates one (game_id, market_type, ingestion_date)
// snapshot during pivoting.
type pivotGroup struct {
	row models.MatchMarketMetrics
	// best quote chosen so far per side, for the tie-break
	best map[models.OutcomeSide]models.StagedRow
}

// PivotMetrics turns flat staged rows into one metrics row per
// (game_id, market_type, ingestion_date) snapshot. When a snapshot
// carries several quotes for the same side, the highest odds wins,
// then the latest extracted_at. Derived metrics are computed on the
// pivoted shape and every row is stamped with transformedAt.
func PivotMetrics(rows []models.StagedRow, transformedAt time.Time) []models.MatchMarketMetrics {
	groups := make(map[string]*pivotGroup)
	order := make([]string, 0)

	for _, r := range rows {
		side := models.ClassifyOutcome(r.MarketType, r.OutcomeName, r.HomeTeam, r.AwayTeam)
		if side == models.SideUnknown {
			continue
		}
		key := r.GameID + "|" + r.MarketType + "|" + r.IngestionDate.Format("2006-01-02")
		g, ok := groups[key]
		if !ok {
			g = &pivotGroup{
				row: models.MatchMarketMetrics{
					GameID:        r.GameID,
					SportKey:      r.SportKey,
					SportTitle:    r.SportTitle,
					HomeTeam:      r.HomeTeam,
					AwayTeam:      r.AwayTeam,
					CommenceTime:  r.CommenceTime,
					MarketType:    r.MarketType,
					IngestionDate: r.IngestionDate,
					ExtractedAt:   r.ExtractedAt,
					TransformedAt: transformedAt,
				},
				best: make(map[models.OutcomeSide]models.StagedRow),
			}
			groups[key] = g
			order = append(order, key)
		}
		if r.ExtractedAt.After(g.row.ExtractedAt) {
			g.row.ExtractedAt = r.ExtractedAt
		}
		if cur, ok := g.best[side]; !ok || betterQuote(r, cur) {
			g.best[side] = r
		}
	}

	sort.Strings(order)
	out := make([]models.MatchMarketMetrics, 0, len(order))
	for _, key := range order {
		g := groups[key]
		for side, q := range g.best {
			odds := q.Odds
			switch side {
			case models.SideHome:
				if g.row.MarketType == models.MarketSpreads {
					g.row.HomeSpreadOdds = &odds
					g.row.SpreadPoint = q.Point
				} else {
					g.row.HomeWinOdds = &odds
				}
			case models.SideAway:
				if g.row.MarketType == models.MarketSpreads {
					g.row.AwaySpreadOdds = &odds
				} else {
					g.row.AwayWinOdds = &odds
				}
			case models.SideDraw:
				g.row.DrawOdds = &odds
			case models.SideOver:
				g.row.OverOdds = &odds
				g.row.TotalPoint = q.Point
			case models.SideUnder:
				g.row.UnderOdds = &odds
				if g.row.TotalPoint == nil {
					g.row.TotalPoint = q.Point
				}
			}
		}
		g.row.ComputeDerived()
		out = append(out, g.row)
	}
	return out
}

// betterQuote prefers higher odds, then the later extraction.
func betterQuote(a, b models.StagedRow) bool {
	if a.Odds != b.Odds {
		return a.Odds > b.Odds
	}
	return a.ExtractedAt.After(b.ExtractedAt)
}

// collapseLatest keeps, per (game_id, market_type), only the row from
// the newest ingestion date, breaking ties by extracted_at.
func collapseLatest(rows []models.MatchMarketMetrics) []models.MatchMarketMetrics {
	latest := make(map[string]models.MatchMarketMetrics, len(rows))
	order := make([]string, 0, len(rows))
	for _, m := range rows {
		cur, ok := latest[m.Key()]
		if !ok {
			latest[m.Key()] = m
			order = append(order, m.Key())
			continue
		}
		if m.IngestionDate.After(cur.IngestionDate) ||
			(m.IngestionDate.Equal(cur.IngestionDate) && m.ExtractedAt.After(cur.ExtractedAt)) {
			latest[m.Key()] = m
		}
	}
	sort.Strings(order)
	out := make([]models.MatchMarketMetrics, 0, len(order))
	for _, k := range order {
		out = append(out, latest[k])
	}
	return out
}

func maxIngestionDate(rows []models.StagedRow) time.Time {
	var max time.Time
	for _, r := range rows {
		if r.IngestionDate.After(max) {
			max = r.IngestionDate
		}
	}
	return max
}

