package usecase

import (
	"context"
	"fmt"
	"sort"

	"OddsFlow/internal/domain/models"
	drepo "OddsFlow/internal/domain/repository"
	applogger "OddsFlow/pkg/logger"
)

// ViewBuilder fully recomputes the gold views from the deduplicated
// silver table. Views are derived state; a rebuild always reflects the
// current silver contents, never an increment.
type ViewBuilder struct {
	store   drepo.MetricsStore
	metrics drepo.Metrics
	l       *applogger.Logger
}

// NewViewBuilder creates a new ViewBuilder instance.
func NewViewBuilder(store drepo.MetricsStore, metrics drepo.Metrics, l *applogger.Logger) *ViewBuilder {
	return &ViewBuilder{store: store, metrics: metrics, l: l}
}

// Run reads the silver table once and replaces both gold views.
func (v *ViewBuilder) Run(ctx context.Context) (int, int, error) {
	rows, err := v.store.All(ctx)
	if err != nil {
		v.metrics.RecordError("views")
		return 0, 0, fmt.Errorf("read silver metrics: %w", err)
	}

	summaries := BuildDailySummaries(rows)
	facts := BuildMatchFacts(rows)

	if err := v.store.ReplaceDailySummaries(ctx, summaries); err != nil {
		v.metrics.RecordError("views")
		return 0, 0, fmt.Errorf("replace daily summaries: %w", err)
	}
	if err := v.store.ReplaceMatchFacts(ctx, facts); err != nil {
		v.metrics.RecordError("views")
		return len(summaries), 0, fmt.Errorf("replace match facts: %w", err)
	}

	v.l.Info("gold views rebuilt",
		applogger.Int("daily_summaries", len(summaries)),
		applogger.Int("match_facts", len(facts)),
	)
	return len(summaries), len(facts), nil
}

// BuildDailySummaries rolls h2h-complete rows up to one summary per
// (match_date, sport_title, sport_key). Rows missing any of the three
// h2h prices or their derived metrics are excluded from averages.
func BuildDailySummaries(rows []models.MatchMarketMetrics) []models.DailySummary {
	type acc struct {
		s          models.DailySummary
		games      map[string]struct{}
		homes      map[string]struct{}
		aways      map[string]struct{}
		sumHome    float64
		sumAway    float64
		sumDraw    float64
		sumMargin  float64
		sumImpH    float64
		sumImpA    float64
		sumImpD    float64
		n          int
	}

	groups := make(map[string]*acc)
	for _, m := range rows {
		if !h2hComplete(&m) {
			continue
		}
		key := m.MatchDate.Format("2006-01-02") + "|" + m.SportTitle + "|" + m.SportKey
		a, ok := groups[key]
		if !ok {
			a = &acc{
				s: models.DailySummary{
					MatchDate:       m.MatchDate,
					SportTitle:      m.SportTitle,
					SportKey:        m.SportKey,
					MinHomeOdds:     *m.HomeWinOdds,
					MaxHomeOdds:     *m.HomeWinOdds,
					EarliestKickoff: m.CommenceTime,
					LatestKickoff:   m.CommenceTime,
				},
				games: make(map[string]struct{}),
				homes: make(map[string]struct{}),
				aways: make(map[string]struct{}),
			}
			groups[key] = a
		}
		a.n++
		a.games[m.GameID] = struct{}{}
		a.homes[m.HomeTeam] = struct{}{}
		a.aways[m.AwayTeam] = struct{}{}
		a.sumHome += *m.HomeWinOdds
		a.sumAway += *m.AwayWinOdds
		a.sumDraw += *m.DrawOdds
		a.sumMargin += *m.BookmakerMargin
		a.sumImpH += *m.ImpliedProbHome
		a.sumImpA += *m.ImpliedProbAway
		a.sumImpD += *m.ImpliedProbDraw
		if *m.HomeWinOdds < a.s.MinHomeOdds {
			a.s.MinHomeOdds = *m.HomeWinOdds
		}
		if *m.HomeWinOdds > a.s.MaxHomeOdds {
			a.s.MaxHomeOdds = *m.HomeWinOdds
		}
		if m.CommenceTime.Before(a.s.EarliestKickoff) {
			a.s.EarliestKickoff = m.CommenceTime
		}
		if m.CommenceTime.After(a.s.LatestKickoff) {
			a.s.LatestKickoff = m.CommenceTime
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.DailySummary, 0, len(keys))
	for _, k := range keys {
		a := groups[k]
		n := float64(a.n)
		a.s.TotalMatches = len(a.games)
		a.s.DistinctHomeTeams = len(a.homes)
		a.s.DistinctAwayTeams = len(a.aways)
		a.s.AvgHomeOdds = models.Round4(a.sumHome / n)
		a.s.AvgAwayOdds = models.Round4(a.sumAway / n)
		a.s.AvgDrawOdds = models.Round4(a.sumDraw / n)
		a.s.AvgMargin = models.Round4(a.sumMargin / n)
		a.s.AvgImpliedHome = models.Round4(a.sumImpH / n)
		a.s.AvgImpliedAway = models.Round4(a.sumImpA / n)
		a.s.AvgImpliedDraw = models.Round4(a.sumImpD / n)
		out = append(out, a.s)
	}
	return out
}

// BuildMatchFacts projects one fact row per h2h metrics row with a
// home price, newest kickoff first.
func BuildMatchFacts(rows []models.MatchMarketMetrics) []models.MatchFact {
	out := make([]models.MatchFact, 0, len(rows))
	for _, m := range rows {
		if m.MarketType != models.MarketH2H || m.HomeWinOdds == nil {
			continue
		}
		out = append(out, models.MatchFact{
			GameID:          m.GameID,
			SportKey:        m.SportKey,
			SportTitle:      m.SportTitle,
			HomeTeam:        m.HomeTeam,
			AwayTeam:        m.AwayTeam,
			CommenceTime:    m.CommenceTime,
			MatchDate:       m.MatchDate,
			MatchHour:       m.MatchHour,
			HomeWinOdds:     *m.HomeWinOdds,
			AwayWinOdds:     m.AwayWinOdds,
			DrawOdds:        m.DrawOdds,
			ImpliedProbHome: m.ImpliedProbHome,
			ImpliedProbAway: m.ImpliedProbAway,
			ImpliedProbDraw: m.ImpliedProbDraw,
			BookmakerMargin: m.BookmakerMargin,
			NeutralHomeProb: m.NeutralHomeProb,
			ExtractedAt:     m.ExtractedAt,
			IngestionDate:   m.IngestionDate,
			TransformedAt:   m.TransformedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CommenceTime.Equal(out[j].CommenceTime) {
			return out[i].CommenceTime.After(out[j].CommenceTime)
		}
		return out[i].GameID < out[j].GameID
	})
	return out
}

func h2hComplete(m *models.MatchMarketMetrics) bool {
	return m.MarketType == models.MarketH2H &&
		m.HomeWinOdds != nil && m.AwayWinOdds != nil && m.DrawOdds != nil &&
		m.ImpliedProbHome != nil && m.ImpliedProbAway != nil && m.ImpliedProbDraw != nil &&
		m.BookmakerMargin != nil
}

