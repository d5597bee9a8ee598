package models

import "time"

// Market types quoted by the odds source.
const (
	MarketH2H     = "h2h"
	MarketSpreads = "spreads"
	MarketTotals  = "totals"
)

// Outcome is a single priced outcome inside a market.
type Outcome struct {
	Name  string
	Price float64
	Point *float64
}

// Market is one betting market quoted by a bookmaker for an event.
type Market struct {
	Key        string
	LastUpdate time.Time
	Outcomes   []Outcome
}

// Bookmaker carries the markets one bookmaker quotes on an event.
type Bookmaker struct {
	Key     string
	Title   string
	Markets []Market
}

// Event is one match as returned by the odds source, with nested quotes.
type Event struct {
	ID           string
	SportKey     string
	SportTitle   string
	CommenceTime time.Time
	HomeTeam     string
	AwayTeam     string
	Bookmakers   []Bookmaker
}

// Sport describes an entry of the source's sport catalog.
type Sport struct {
	Key    string
	Title  string
	Group  string
	Active bool
}

// QuoteRecord is one flattened quote: one outcome of one market of one
// bookmaker for one match. Match-level fields are denormalized onto
// every record.
type QuoteRecord struct {
	GameID       string
	SportKey     string
	SportTitle   string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	Bookmaker    string
	MarketType   string
	OutcomeName  string
	Odds         float64
	Point        *float64
	ExtractedAt  time.Time
}

// Key returns the identity of a quote within one extraction batch.
// (game_id, bookmaker, market_type, outcome_name) is unique per batch.
func (q *QuoteRecord) Key() string {
	return q.GameID + "|" + q.Bookmaker + "|" + q.MarketType + "|" + q.OutcomeName
}

// StagedRow is a QuoteRecord that passed the staging filter
// (target bookmaker, odds > 0), tagged with its ingestion partition.
type StagedRow struct {
	QuoteRecord
	IngestionDate time.Time
}

// LoadStats summarizes the bronze table after a load.
type LoadStats struct {
	RowsLoaded      int       `json:"rows_loaded"`
	TotalRows       uint64    `json:"total_rows"`
	DistinctSports  uint64    `json:"distinct_sports"`
	DistinctMatches uint64    `json:"distinct_matches"`
	DistinctMarkets uint64    `json:"distinct_markets"`
	LatestIngestion time.Time `json:"latest_ingestion_date"`
}
