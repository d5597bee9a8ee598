package models

import (
	"testing"
	"time"
)

func f(v float64) *float64 { return &v }

func TestImpliedProbability(t *testing.T) {
	got := ImpliedProbability(f(2.0))
	if got == nil || *got != 0.5 {
		t.Fatalf("implied(2.0) = %v, want 0.5", got)
	}
	if ImpliedProbability(nil) != nil {
		t.Fatalf("implied(nil) should be nil")
	}
	if ImpliedProbability(f(0)) != nil {
		t.Fatalf("implied(0) should be nil")
	}
	if ImpliedProbability(f(-1.5)) != nil {
		t.Fatalf("implied(-1.5) should be nil")
	}
}

func TestComputeDerivedH2H(t *testing.T) {
	m := MatchMarketMetrics{
		MarketType:   MarketH2H,
		CommenceTime: time.Date(2025, 3, 8, 17, 30, 0, 0, time.UTC),
		HomeWinOdds:  f(1.80),
		AwayWinOdds:  f(4.20),
		DrawOdds:     f(3.60),
	}
	m.ComputeDerived()

	checks := []struct {
		name string
		got  *float64
		want float64
	}{
		{"implied_prob_home", m.ImpliedProbHome, 0.5556},
		{"implied_prob_away", m.ImpliedProbAway, 0.2381},
		{"implied_prob_draw", m.ImpliedProbDraw, 0.2778},
		{"bookmaker_margin", m.BookmakerMargin, 0.0714},
		{"neutral_home_prob", m.NeutralHomeProb, 0.5185},
	}
	for _, c := range checks {
		if c.got == nil {
			t.Fatalf("%s is nil, want %v", c.name, c.want)
		}
		if *c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, *c.got, c.want)
		}
	}
	if !m.MatchDate.Equal(time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("match_date = %v", m.MatchDate)
	}
	if m.MatchHour != 17 {
		t.Errorf("match_hour = %d, want 17", m.MatchHour)
	}
}

func TestComputeDerivedFairBook(t *testing.T) {
	m := MatchMarketMetrics{
		MarketType:   MarketH2H,
		CommenceTime: time.Now().UTC(),
		HomeWinOdds:  f(2.0),
		AwayWinOdds:  f(4.0),
		DrawOdds:     f(4.0),
	}
	m.ComputeDerived()
	if m.BookmakerMargin == nil || *m.BookmakerMargin != 0 {
		t.Fatalf("margin = %v, want 0 for a fair book", m.BookmakerMargin)
	}
	if m.NeutralHomeProb == nil || *m.NeutralHomeProb != 0.5 {
		t.Fatalf("neutral_home_prob = %v, want 0.5", m.NeutralHomeProb)
	}
}

func TestComputeDerivedIncompleteH2H(t *testing.T) {
	m := MatchMarketMetrics{
		MarketType:   MarketH2H,
		CommenceTime: time.Now().UTC(),
		HomeWinOdds:  f(1.80),
		AwayWinOdds:  f(4.20),
	}
	m.ComputeDerived()
	if m.BookmakerMargin != nil {
		t.Fatalf("margin should be nil without all three prices, got %v", *m.BookmakerMargin)
	}
	if m.NeutralHomeProb != nil {
		t.Fatalf("neutral prob should be nil without all three prices")
	}
	if m.ImpliedProbHome == nil || *m.ImpliedProbHome != 0.5556 {
		t.Fatalf("partial implied probs should still be computed")
	}
}

func TestComputeDerivedTotalsNoMargin(t *testing.T) {
	m := MatchMarketMetrics{
		MarketType:   MarketTotals,
		CommenceTime: time.Now().UTC(),
		OverOdds:     f(1.90),
		UnderOdds:    f(1.90),
	}
	m.ComputeDerived()
	if m.BookmakerMargin != nil || m.NeutralHomeProb != nil {
		t.Fatalf("totals market must not carry h2h-derived metrics")
	}
}
