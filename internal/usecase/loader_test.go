package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"OddsFlow/internal/domain/models"
	applogger "OddsFlow/pkg/logger"
)

func TestLoaderStampsBatch(t *testing.T) {
	raw := &fakeRawStore{}
	recs := Flatten(event("g1"), "betway", time.Now().UTC())
	st, err := NewLoader(raw, nopMetrics{}, applogger.Nop()).Run(context.Background(), recs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.RowsLoaded != 3 || len(raw.records) != 3 {
		t.Fatalf("rows loaded = %d", st.RowsLoaded)
	}
}

func TestLoaderAppendsWithoutDedup(t *testing.T) {
	raw := &fakeRawStore{}
	recs := Flatten(event("g1"), "betway", time.Now().UTC())
	ld := NewLoader(raw, nopMetrics{}, applogger.Nop())
	for i := 0; i < 2; i++ {
		if _, err := ld.Run(context.Background(), recs); err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
	}
	if len(raw.records) != 6 {
		t.Fatalf("raw rows = %d, want 6", len(raw.records))
	}
}

func TestLoaderEmptyBatch(t *testing.T) {
	st, err := NewLoader(&fakeRawStore{}, nopMetrics{}, applogger.Nop()).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty load: %v", err)
	}
	if st.RowsLoaded != 0 {
		t.Fatalf("rows loaded = %d", st.RowsLoaded)
	}
}

func TestLoaderSchemaMismatchFatal(t *testing.T) {
	raw := &fakeRawStore{appendErr: &models.PartialInsertError{
		Submitted: 3,
		Err:       models.ErrSchemaViolation,
	}}
	_, err := NewLoader(raw, nopMetrics{}, applogger.Nop()).
		Run(context.Background(), Flatten(event("g1"), "betway", time.Now().UTC()))
	if !errors.Is(err, models.ErrSchemaViolation) {
		t.Fatalf("err = %v, want schema violation", err)
	}
}
