package usecase

import (
	"context"
	"errors"
	"time"

	"OddsFlow/internal/domain/models"
	drepo "OddsFlow/internal/domain/repository"
	"OddsFlow/pkg/config"
	applogger "OddsFlow/pkg/logger"
)

// ExtractResult carries the flattened output of one extraction sweep.
type ExtractResult struct {
	Records        []models.QuoteRecord
	FailedLeagues  []string
	QuotaRemaining int
	ExtractedAt    time.Time
}

// Extractor pulls odds for every configured league and flattens the
// nested responses into quote records.
type Extractor struct {
	source    drepo.QuoteSource
	leagues   []config.League
	bookmaker string
	metrics   drepo.Metrics
	l         *applogger.Logger
}

// NewExtractor creates a new Extractor instance.
func NewExtractor(source drepo.QuoteSource, leagues []config.League, bookmaker string, metrics drepo.Metrics, l *applogger.Logger) *Extractor {
	return &Extractor{source: source, leagues: leagues, bookmaker: bookmaker, metrics: metrics, l: l}
}

// Run fetches each league sequentially. A failing league is recorded
// and skipped; quota exhaustion stops the sweep but keeps what was
// already fetched. Run fails outright only when every league fails.
func (e *Extractor) Run(ctx context.Context) (*ExtractResult, error) {
	res := &ExtractResult{
		QuotaRemaining: -1,
		ExtractedAt:    time.Now().UTC(),
	}
	seen := make(map[string]struct{})

	for _, league := range e.leagues {
		if res.QuotaRemaining == 0 {
			e.l.Warn("api quota spent, skipping remaining leagues",
				applogger.String("sport_key", league.SportKey),
			)
			res.FailedLeagues = append(res.FailedLeagues, league.SportKey)
			continue
		}
		events, quota, err := e.source.FetchOdds(ctx, league.SportKey, league.Markets)
		if quota >= 0 {
			res.QuotaRemaining = quota
			e.metrics.RecordQuotaRemaining(quota)
		}
		if err != nil {
			if errors.Is(err, models.ErrQuotaExhausted) {
				e.l.Warn("api quota exhausted, stopping sweep",
					applogger.String("sport_key", league.SportKey),
					applogger.Int("leagues_done", len(e.leagues)-len(res.FailedLeagues)),
				)
				e.metrics.RecordError("quota")
				res.FailedLeagues = append(res.FailedLeagues, league.SportKey)
				break
			}
			e.l.Error("league fetch failed",
				applogger.String("sport_key", league.SportKey),
				applogger.Error(err),
			)
			e.metrics.RecordError("extract")
			res.FailedLeagues = append(res.FailedLeagues, league.SportKey)
			continue
		}

		n := 0
		for _, ev := range events {
			for _, rec := range Flatten(ev, e.bookmaker, res.ExtractedAt) {
				if _, dup := seen[rec.Key()]; dup {
					continue
				}
				seen[rec.Key()] = struct{}{}
				res.Records = append(res.Records, rec)
				n++
			}
		}
		e.metrics.RecordRowsExtracted(league.SportKey, n)
		e.l.Info("league extracted",
			applogger.String("sport_key", league.SportKey),
			applogger.Int("events", len(events)),
			applogger.Int("rows", n),
		)
	}

	if len(res.FailedLeagues) == len(e.leagues) {
		return res, errors.New("all leagues failed to extract")
	}
	if len(res.FailedLeagues) > 0 {
		e.l.Warn("sweep finished with failed leagues",
			applogger.Strings("failed_leagues", res.FailedLeagues),
		)
	}
	return res, nil
}

// Flatten expands one event into per-outcome records for the target
// bookmaker, stamping every row with match context and the extraction
// time. Other bookmakers in the response are dropped. Empty bookmaker
// or market lists yield nothing rather than an error.
func Flatten(ev models.Event, bookmaker string, extractedAt time.Time) []models.QuoteRecord {
	var out []models.QuoteRecord
	for _, bm := range ev.Bookmakers {
		if bm.Key != bookmaker {
			continue
		}
		for _, mkt := range bm.Markets {
			for _, oc := range mkt.Outcomes {
				out = append(out, models.QuoteRecord{
					GameID:       ev.ID,
					SportKey:     ev.SportKey,
					SportTitle:   ev.SportTitle,
					HomeTeam:     ev.HomeTeam,
					AwayTeam:     ev.AwayTeam,
					CommenceTime: ev.CommenceTime,
					Bookmaker:    bm.Key,
					MarketType:   mkt.Key,
					OutcomeName:  oc.Name,
					Odds:         oc.Price,
					Point:        oc.Point,
					ExtractedAt:  extractedAt,
				})
			}
		}
	}
	return out
}
