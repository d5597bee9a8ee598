package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"OddsFlow/internal/domain/models"
	drepo "OddsFlow/internal/domain/repository"
	applogger "OddsFlow/pkg/logger"
)

// Pipeline runs the extract, load, transform and view stages in order
// and publishes a run summary at the end.
type Pipeline struct {
	extractor *Extractor
	loader    *Loader
	transform *Transformer
	views     *ViewBuilder
	notifier  drepo.Notifier
	metrics   drepo.Metrics
	l         *applogger.Logger
}

// NewPipeline creates a new Pipeline instance.
func NewPipeline(extractor *Extractor, loader *Loader, transform *Transformer,
	views *ViewBuilder, notifier drepo.Notifier, metrics drepo.Metrics, l *applogger.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor, loader: loader, transform: transform,
		views: views, notifier: notifier, metrics: metrics, l: l,
	}
}

// Run executes one end-to-end pass. fullRebuild reprocesses the whole
// bronze history instead of incrementing past the watermark. The
// summary is published even when a stage fails; the returned error
// reflects the failing stage.
func (p *Pipeline) Run(ctx context.Context, fullRebuild bool) (*models.RunSummary, error) {
	sum := &models.RunSummary{
		RunID:          uuid.NewString(),
		StartedAt:      time.Now().UTC(),
		Status:         models.RunStatusSuccess,
		QuotaRemaining: -1,
	}
	p.l.Info("pipeline run starting",
		applogger.String("run_id", sum.RunID),
		applogger.Bool("full_rebuild", fullRebuild),
	)

	err := p.run(ctx, fullRebuild, sum)
	sum.FinishedAt = time.Now().UTC()
	if err != nil {
		sum.Status = models.RunStatusFailed
		sum.Error = err.Error()
	}

	if nerr := p.notifier.NotifyRun(ctx, sum); nerr != nil {
		// alerting must not fail the run itself
		p.l.Error("run summary notification failed", applogger.Error(nerr))
		p.metrics.RecordError("notify")
	}

	p.l.Info("pipeline run finished",
		applogger.String("run_id", sum.RunID),
		applogger.String("status", sum.Status),
		applogger.Duration("took", sum.FinishedAt.Sub(sum.StartedAt)),
	)
	return sum, err
}

func (p *Pipeline) run(ctx context.Context, fullRebuild bool, sum *models.RunSummary) error {
	ext, err := p.timedExtract(ctx, sum)
	if err != nil {
		return err
	}
	if len(ext.Records) == 0 {
		sum.Status = models.RunStatusNoData
		p.l.Warn("extraction yielded no records, skipping downstream stages")
		return nil
	}

	if err := p.timedLoad(ctx, ext.Records, sum); err != nil {
		return err
	}
	if err := p.timedTransform(ctx, fullRebuild, sum); err != nil {
		return err
	}
	if err := p.timedViews(ctx, sum); err != nil {
		return err
	}

	if len(sum.FailedLeagues) > 0 || sum.QualityViolations > 0 {
		sum.Status = models.RunStatusDegraded
	}
	return nil
}

// Ingest runs extract and load only.
func (p *Pipeline) Ingest(ctx context.Context) (*models.RunSummary, error) {
	sum := &models.RunSummary{
		RunID:          uuid.NewString(),
		StartedAt:      time.Now().UTC(),
		Status:         models.RunStatusSuccess,
		QuotaRemaining: -1,
	}
	err := func() error {
		ext, err := p.timedExtract(ctx, sum)
		if err != nil {
			return err
		}
		if len(ext.Records) == 0 {
			sum.Status = models.RunStatusNoData
			return nil
		}
		return p.timedLoad(ctx, ext.Records, sum)
	}()
	sum.FinishedAt = time.Now().UTC()
	if err != nil {
		sum.Status = models.RunStatusFailed
		sum.Error = err.Error()
	} else if len(sum.FailedLeagues) > 0 {
		sum.Status = models.RunStatusDegraded
	}
	return sum, err
}

// Transform runs the incremental transform stage only.
func (p *Pipeline) Transform(ctx context.Context, fullRebuild bool) (*models.RunSummary, error) {
	sum := &models.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Status:    models.RunStatusSuccess,
	}
	err := p.timedTransform(ctx, fullRebuild, sum)
	sum.FinishedAt = time.Now().UTC()
	if err != nil {
		sum.Status = models.RunStatusFailed
		sum.Error = err.Error()
	} else if sum.QualityViolations > 0 {
		sum.Status = models.RunStatusDegraded
	}
	return sum, err
}

// Views rebuilds the gold views only.
func (p *Pipeline) Views(ctx context.Context) (*models.RunSummary, error) {
	sum := &models.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Status:    models.RunStatusSuccess,
	}
	err := p.timedViews(ctx, sum)
	sum.FinishedAt = time.Now().UTC()
	if err != nil {
		sum.Status = models.RunStatusFailed
		sum.Error = err.Error()
	}
	return sum, err
}

func (p *Pipeline) timedExtract(ctx context.Context, sum *models.RunSummary) (*ExtractResult, error) {
	start := time.Now()
	ext, err := p.extractor.Run(ctx)
	p.metrics.RecordStageDuration("extract", time.Since(start).Seconds())
	if ext != nil {
		sum.ExtractedRows = len(ext.Records)
		sum.FailedLeagues = ext.FailedLeagues
		sum.QuotaRemaining = ext.QuotaRemaining
	}
	return ext, err
}

func (p *Pipeline) timedLoad(ctx context.Context, records []models.QuoteRecord, sum *models.RunSummary) error {
	start := time.Now()
	stats, err := p.loader.Run(ctx, records)
	p.metrics.RecordStageDuration("load", time.Since(start).Seconds())
	if stats != nil {
		sum.LoadedRows = stats.RowsLoaded
		sum.BronzeStats = stats
	}
	return err
}

func (p *Pipeline) timedTransform(ctx context.Context, fullRebuild bool, sum *models.RunSummary) error {
	start := time.Now()
	var res *TransformResult
	var err error
	if fullRebuild {
		res, err = p.transform.Rebuild(ctx)
	} else {
		res, err = p.transform.Run(ctx)
	}
	p.metrics.RecordStageDuration("transform", time.Since(start).Seconds())
	if res != nil {
		sum.MetricsRows = res.RowsOut
		sum.OldWatermark = res.OldWatermark
		sum.NewWatermark = res.NewWatermark
		if res.Report != nil {
			sum.QualityViolations = len(res.Report.Violations)
		}
	}
	return err
}

func (p *Pipeline) timedViews(ctx context.Context, sum *models.RunSummary) error {
	start := time.Now()
	_, _, err := p.views.Run(ctx)
	p.metrics.RecordStageDuration("views", time.Since(start).Seconds())
	return err
}
