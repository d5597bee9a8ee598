package usecase

import (
	"context"
	"testing"
	"time"

	"OddsFlow/internal/domain/models"
	"OddsFlow/pkg/config"
	applogger "OddsFlow/pkg/logger"
)

func event(id string) models.Event {
	return models.Event{
		ID:           id,
		SportKey:     "soccer_epl",
		SportTitle:   "EPL",
		HomeTeam:     "Arsenal",
		AwayTeam:     "Chelsea",
		CommenceTime: time.Date(2025, 3, 8, 17, 30, 0, 0, time.UTC),
		Bookmakers: []models.Bookmaker{{
			Key: "betway",
			Markets: []models.Market{{
				Key: models.MarketH2H,
				Outcomes: []models.Outcome{
					{Name: "Arsenal", Price: 1.80},
					{Name: "Chelsea", Price: 4.20},
					{Name: "Draw", Price: 3.60},
				},
			}},
		}},
	}
}

func leagues(keys ...string) []config.League {
	out := make([]config.League, 0, len(keys))
	for _, k := range keys {
		out = append(out, config.League{SportKey: k, Markets: []string{models.MarketH2H}})
	}
	return out
}

func TestFlatten(t *testing.T) {
	now := time.Now().UTC()
	recs := Flatten(event("g1"), "betway", now)
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	r := recs[0]
	if r.GameID != "g1" || r.Bookmaker != "betway" || r.MarketType != models.MarketH2H {
		t.Errorf("record context not denormalized: %+v", r)
	}
	if !r.ExtractedAt.Equal(now) {
		t.Errorf("extracted_at = %v", r.ExtractedAt)
	}
}

func TestFlattenEmptyBookmakers(t *testing.T) {
	ev := event("g1")
	ev.Bookmakers = nil
	if recs := Flatten(ev, "betway", time.Now().UTC()); len(recs) != 0 {
		t.Fatalf("empty bookmakers must yield no records, got %d", len(recs))
	}
}

func TestExtractorRun(t *testing.T) {
	src := &fakeSource{
		events: map[string][]models.Event{
			"soccer_epl":    {event("g1")},
			"soccer_laliga": {event("g2")},
		},
		quota: 480,
	}
	ext := NewExtractor(src, leagues("soccer_epl", "soccer_laliga"), "betway", nopMetrics{}, applogger.Nop())
	res, err := ext.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Records) != 6 {
		t.Fatalf("records = %d, want 6", len(res.Records))
	}
	if res.QuotaRemaining != 480 {
		t.Fatalf("quota = %d", res.QuotaRemaining)
	}
}

func TestExtractorSkipsFailingLeague(t *testing.T) {
	src := &fakeSource{
		events: map[string][]models.Event{"soccer_epl": {event("g1")}},
		errs:   map[string]error{"soccer_laliga": errBoom},
		quota:  -1,
	}
	ext := NewExtractor(src, leagues("soccer_laliga", "soccer_epl"), "betway", nopMetrics{}, applogger.Nop())
	res, err := ext.Run(context.Background())
	if err != nil {
		t.Fatalf("one failing league must not fail the sweep: %v", err)
	}
	if len(res.Records) != 3 {
		t.Fatalf("records = %d, want 3 from the healthy league", len(res.Records))
	}
	if len(res.FailedLeagues) != 1 || res.FailedLeagues[0] != "soccer_laliga" {
		t.Fatalf("failed leagues = %v", res.FailedLeagues)
	}
}

func TestExtractorAllLeaguesFail(t *testing.T) {
	src := &fakeSource{errs: map[string]error{"soccer_epl": errBoom}, quota: -1}
	ext := NewExtractor(src, leagues("soccer_epl"), "betway", nopMetrics{}, applogger.Nop())
	if _, err := ext.Run(context.Background()); err == nil {
		t.Fatalf("a sweep where every league fails must error")
	}
}

func TestExtractorQuotaExhaustedStopsSweep(t *testing.T) {
	src := &fakeSource{
		events: map[string][]models.Event{"soccer_epl": {event("g1")}},
		errs:   map[string]error{"soccer_laliga": models.ErrQuotaExhausted},
		quota:  -1,
	}
	ext := NewExtractor(src, leagues("soccer_epl", "soccer_laliga", "soccer_seriea"), "betway", nopMetrics{}, applogger.Nop())
	res, err := ext.Run(context.Background())
	if err != nil {
		t.Fatalf("quota exhaustion keeps already fetched data: %v", err)
	}
	if len(res.Records) != 3 {
		t.Fatalf("records = %d, want 3 fetched before exhaustion", len(res.Records))
	}
	if len(res.FailedLeagues) != 1 {
		t.Fatalf("failed leagues = %v (the sweep stops, remaining leagues untried)", res.FailedLeagues)
	}
}

func TestExtractorStopsWhenQuotaSpent(t *testing.T) {
	// once the remaining-quota header reads zero, later leagues are
	// skipped without burning a doomed request on each
	src := &fakeSource{
		events: map[string][]models.Event{
			"soccer_epl":    {event("g1")},
			"soccer_laliga": {event("g2")},
			"soccer_seriea": {event("g3")},
		},
		quota: 0,
	}
	ext := NewExtractor(src, leagues("soccer_epl", "soccer_laliga", "soccer_seriea"), "betway", nopMetrics{}, applogger.Nop())
	res, err := ext.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("requests issued = %d, want 1 after quota hit 0", src.calls)
	}
	if len(res.Records) != 3 {
		t.Fatalf("records = %d, want 3 from the first league", len(res.Records))
	}
	if len(res.FailedLeagues) != 2 {
		t.Fatalf("skipped leagues = %v, want the two untried ones", res.FailedLeagues)
	}
}

func TestFlattenDropsOtherBookmakers(t *testing.T) {
	ev := event("g1")
	ev.Bookmakers = append(ev.Bookmakers, models.Bookmaker{
		Key: "pinnacle",
		Markets: []models.Market{{
			Key:      models.MarketH2H,
			Outcomes: []models.Outcome{{Name: "Arsenal", Price: 1.75}},
		}},
	})
	recs := Flatten(ev, "betway", time.Now().UTC())
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3 from the target bookmaker only", len(recs))
	}
	for _, r := range recs {
		if r.Bookmaker != "betway" {
			t.Fatalf("non-target bookmaker row leaked: %s", r.Bookmaker)
		}
	}
}

func TestExtractorDeduplicatesRecords(t *testing.T) {
	// the same event appearing under two league configs must load once
	src := &fakeSource{
		events: map[string][]models.Event{
			"soccer_epl":  {event("g1")},
			"soccer_cups": {event("g1")},
		},
		quota: -1,
	}
	ext := NewExtractor(src, leagues("soccer_epl", "soccer_cups"), "betway", nopMetrics{}, applogger.Nop())
	res, err := ext.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Records) != 3 {
		t.Fatalf("records = %d, want 3 after dedupe", len(res.Records))
	}
}
