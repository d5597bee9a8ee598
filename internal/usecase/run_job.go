package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"OddsFlow/internal/domain/models"
	applogger "OddsFlow/pkg/logger"
)

// RunJobType is the queue message type carrying run requests.
const RunJobType = "pipeline_run"

// RunJob executes queued pipeline run requests.
type RunJob struct {
	pipe *Pipeline
	l    *applogger.Logger
}

// NewRunJob creates a new RunJob instance.
func NewRunJob(pipe *Pipeline, l *applogger.Logger) *RunJob {
	return &RunJob{pipe: pipe, l: l}
}

func (j *RunJob) Name() string { return RunJobType }

func (j *RunJob) Handle(ctx context.Context, payload []byte) error {
	var req models.RunRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("decode run request: %w", err)
	}

	var err error
	switch req.Stage {
	case "", "all":
		_, err = j.pipe.Run(ctx, req.FullRebuild)
	case "ingest":
		_, err = j.pipe.Ingest(ctx)
	case "transform":
		_, err = j.pipe.Transform(ctx, req.FullRebuild)
	case "views":
		_, err = j.pipe.Views(ctx)
	default:
		return fmt.Errorf("unknown stage %q", req.Stage)
	}
	if err != nil {
		j.l.Error("queued run failed", applogger.String("stage", req.Stage), applogger.Error(err))
	}
	return err
}
