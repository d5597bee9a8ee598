package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"OddsFlow/internal/domain/models"
	drepo "OddsFlow/internal/domain/repository"
	"OddsFlow/internal/service/ratelimit"
	xhttp "OddsFlow/pkg/http"
)

const (
	quotaRemainingHeader = "x-requests-remaining"
	quotaUsedHeader      = "x-requests-used"
)

// Client implements a QuoteSource backed by The Odds API v4.
type Client struct {
	apiKey    string
	baseURL   string
	regions   []string
	bookmaker string
	rps       float64

	http    *xhttp.Client
	limiter *ratelimit.Limiter
}

// New creates a new odds source client.
func New(apiKey, baseURL string, regions []string, bookmaker string, timeout time.Duration, rps float64) drepo.QuoteSource {
	return &Client{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		regions:   regions,
		bookmaker: bookmaker,
		rps:       rps,
		http:      xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter:   ratelimit.New(),
	}
}

type wireOutcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point"`
}

type wireMarket struct {
	Key        string        `json:"key"`
	LastUpdate string        `json:"last_update"`
	Outcomes   []wireOutcome `json:"outcomes"`
}

type wireBookmaker struct {
	Key     string       `json:"key"`
	Title   string       `json:"title"`
	Markets []wireMarket `json:"markets"`
}

type wireEvent struct {
	ID           string          `json:"id"`
	SportKey     string          `json:"sport_key"`
	SportTitle   string          `json:"sport_title"`
	CommenceTime string          `json:"commence_time"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	Bookmakers   []wireBookmaker `json:"bookmakers"`
}

type wireSport struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Group  string `json:"group"`
	Active bool   `json:"active"`
}

// FetchOdds requests one league's odds and returns the nested events plus
// the remaining request quota reported by the source (-1 when the header
// is missing).
func (c *Client) FetchOdds(ctx context.Context, sportKey string, markets []string) ([]models.Event, int, error) {
	if err := c.limiter.Wait(ctx, "oddsapi", c.rps, c.rps); err != nil {
		return nil, -1, err
	}

	opts := &xhttp.RequestOptions{
		Method: "GET",
		URL:    fmt.Sprintf("%s/sports/%s/odds/", c.baseURL, sportKey),
		QueryParams: map[string][]string{
			"apiKey":     {c.apiKey},
			"regions":    {strings.Join(c.regions, ",")},
			"markets":    {strings.Join(markets, ",")},
			"bookmakers": {c.bookmaker},
			"oddsFormat": {"decimal"},
		},
	}

	resp, err := c.http.SendRequest(ctx, opts)
	if err != nil {
		return nil, -1, &models.SourceUnavailableError{SportKey: sportKey, Err: err}
	}
	defer resp.Body.Close()

	remaining := parseQuota(resp.Header.Get(quotaRemainingHeader))

	switch {
	case resp.StatusCode == 401:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if strings.Contains(string(body), "OUT_OF_USAGE_CREDITS") || remaining == 0 {
			return nil, remaining, fmt.Errorf("%w: %s", models.ErrQuotaExhausted, body)
		}
		return nil, remaining, fmt.Errorf("odds source rejected API key (status 401)")
	case resp.StatusCode == 429 || resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, remaining, &models.SourceUnavailableError{
			SportKey: sportKey,
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, body),
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, remaining, fmt.Errorf("fetch odds %s: status %d: %s", sportKey, resp.StatusCode, body)
	}

	var wire []wireEvent
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, remaining, fmt.Errorf("decode odds response: %w", err)
	}

	events := make([]models.Event, 0, len(wire))
	for _, w := range wire {
		ev, err := w.toModel()
		if err != nil {
			return nil, remaining, fmt.Errorf("event %s: %w", w.ID, err)
		}
		events = append(events, ev)
	}
	return events, remaining, nil
}

// ListSports returns the source's sport catalog.
func (c *Client) ListSports(ctx context.Context) ([]models.Sport, error) {
	if err := c.limiter.Wait(ctx, "oddsapi", c.rps, c.rps); err != nil {
		return nil, err
	}

	var wire []wireSport
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      "GET",
		URL:         c.baseURL + "/sports/",
		QueryParams: map[string][]string{"apiKey": {c.apiKey}},
	}, &wire)
	if err != nil {
		return nil, fmt.Errorf("list sports: %w", err)
	}

	sports := make([]models.Sport, len(wire))
	for i, w := range wire {
		sports[i] = models.Sport{Key: w.Key, Title: w.Title, Group: w.Group, Active: w.Active}
	}
	return sports, nil
}

func (w *wireEvent) toModel() (models.Event, error) {
	commence, err := time.Parse(time.RFC3339, w.CommenceTime)
	if err != nil {
		return models.Event{}, fmt.Errorf("parse commence_time %q: %w", w.CommenceTime, err)
	}

	ev := models.Event{
		ID:           w.ID,
		SportKey:     w.SportKey,
		SportTitle:   w.SportTitle,
		CommenceTime: commence.UTC(),
		HomeTeam:     w.HomeTeam,
		AwayTeam:     w.AwayTeam,
		Bookmakers:   make([]models.Bookmaker, 0, len(w.Bookmakers)),
	}
	for _, b := range w.Bookmakers {
		mb := models.Bookmaker{Key: b.Key, Title: b.Title, Markets: make([]models.Market, 0, len(b.Markets))}
		for _, m := range b.Markets {
			mm := models.Market{Key: m.Key, Outcomes: make([]models.Outcome, 0, len(m.Outcomes))}
			if lu, err := time.Parse(time.RFC3339, m.LastUpdate); err == nil {
				mm.LastUpdate = lu.UTC()
			}
			for _, o := range m.Outcomes {
				mm.Outcomes = append(mm.Outcomes, models.Outcome{Name: o.Name, Price: o.Price, Point: o.Point})
			}
			mb.Markets = append(mb.Markets, mm)
		}
		ev.Bookmakers = append(ev.Bookmakers, mb)
	}
	return ev, nil
}

func parseQuota(s string) int {
	if s == "" {
		return -1
	}
	// the header is sometimes a float ("19.0")
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return -1
}
