package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	models "OddsFlow/internal/domain/models"
	"OddsFlow/internal/service/cache"
	xlogger "OddsFlow/pkg/logger"
)

type stubSource struct {
	sports []models.Sport
	err    error
}

func (s *stubSource) FetchOdds(ctx context.Context, sportKey string, markets []string) ([]models.Event, int, error) {
	return nil, -1, nil
}

func (s *stubSource) ListSports(ctx context.Context) ([]models.Sport, error) {
	return s.sports, s.err
}

func TestSportsQuotaExhaustedUnavailable(t *testing.T) {
	h := NewOpsHandler(xlogger.Nop(), nil, nil, nil,
		&stubSource{err: models.ErrQuotaExhausted}, cache.NewMemory(), nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/sports", nil)
	rec := httptest.NewRecorder()
	if err := h.Sports(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}

	var body struct {
		Status int `json:"status"`
		Data   []struct {
			Code string `json:"code"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", body.Status)
	}
	if len(body.Data) != 1 || body.Data[0].Code != "ERR_UNAVAILABLE" {
		t.Fatalf("error payload = %+v", body.Data)
	}
}

func TestSportsServesCachedCatalog(t *testing.T) {
	src := &stubSource{sports: []models.Sport{{Key: "soccer_epl", Title: "EPL"}}}
	h := NewOpsHandler(xlogger.Nop(), nil, nil, nil, src, cache.NewMemory(), nil)

	e := echo.New()
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/sports", nil)
		rec := httptest.NewRecorder()
		if err := h.Sports(e.NewContext(req, rec)); err != nil {
			t.Fatalf("handler call %d: %v", i, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("call %d status = %d", i, rec.Code)
		}
	}
	// the second call must come from the cache, and errors after a
	// warm cache never reach the source
	src.err = models.ErrQuotaExhausted
	req := httptest.NewRequest(http.MethodGet, "/api/sports", nil)
	rec := httptest.NewRecorder()
	if err := h.Sports(e.NewContext(req, rec)); err != nil {
		t.Fatalf("cached call: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("cached status = %d", rec.Code)
	}
}
