package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"OddsFlow/internal/domain/models"
	drepo "OddsFlow/internal/domain/repository"
	applogger "OddsFlow/pkg/logger"
	"OddsFlow/pkg/util"
)

// Loader appends extracted quote records to the bronze table.
type Loader struct {
	store   drepo.RawStore
	metrics drepo.Metrics
	l       *applogger.Logger
}

// NewLoader creates a new Loader instance.
func NewLoader(store drepo.RawStore, metrics drepo.Metrics, l *applogger.Logger) *Loader {
	return &Loader{store: store, metrics: metrics, l: l}
}

// Run stamps the batch with one ingestion date and timestamp and
// appends it. A schema mismatch is fatal; any other partial failure
// reports how many rows landed so the run can continue degraded.
func (ld *Loader) Run(ctx context.Context, records []models.QuoteRecord) (*models.LoadStats, error) {
	if len(records) == 0 {
		ld.l.Info("no records to load")
		return &models.LoadStats{}, nil
	}

	now := time.Now().UTC()
	ingestionDate := util.UTCDate(now)

	inserted, err := ld.store.AppendBatch(ctx, records, ingestionDate, now)
	ld.metrics.RecordRowsLoaded(inserted)
	if err != nil {
		ld.metrics.RecordError("load")
		if errors.Is(err, models.ErrSchemaViolation) {
			return nil, fmt.Errorf("bronze schema mismatch: %w", err)
		}
		var pie *models.PartialInsertError
		if errors.As(err, &pie) && pie.Inserted > 0 {
			ld.l.Warn("partial bronze load",
				applogger.Int("inserted", pie.Inserted),
				applogger.Int("submitted", pie.Submitted),
				applogger.Error(err),
			)
			st, serr := ld.store.Stats(ctx)
			if serr != nil {
				return nil, err
			}
			st.RowsLoaded = pie.Inserted
			return st, err
		}
		return nil, err
	}

	st, err := ld.store.Stats(ctx)
	if err != nil {
		ld.l.Warn("bronze stats unavailable", applogger.Error(err))
		st = &models.LoadStats{}
	}
	st.RowsLoaded = inserted
	ld.l.Info("bronze load complete",
		applogger.Int("rows_loaded", inserted),
		applogger.Uint64("total_rows", st.TotalRows),
		applogger.Uint64("distinct_matches", st.DistinctMatches),
	)
	return st, nil
}
