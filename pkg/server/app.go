package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"OddsFlow/internal/domain/repository"
	"OddsFlow/internal/handler/api"
	"OddsFlow/internal/usecase"
	pkgch "OddsFlow/pkg/clickhouse"
	"OddsFlow/pkg/config"
	xhttp "OddsFlow/pkg/http"
	applogger "OddsFlow/pkg/logger"
	"OddsFlow/pkg/queue"
)

// App owns the application lifecycle: schema init, one-shot stage
// runs, and the long-lived serving mode.
type App struct {
	cfg      *config.Config
	l        *applogger.Logger
	pipe     *usecase.Pipeline
	raw      repository.RawStore
	store    repository.MetricsStore
	handler  *api.OpsHandler
	runs     *queue.RedisQueue
	chClient *pkgch.Client
	rdb      *redis.Client
	notifier repository.Notifier

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, pipe *usecase.Pipeline,
	raw repository.RawStore, store repository.MetricsStore,
	handler *api.OpsHandler, runs *queue.RedisQueue,
	chClient *pkgch.Client, rdb *redis.Client, notifier repository.Notifier) *App {
	return &App{
		cfg: cfg, l: l, pipe: pipe,
		raw: raw, store: store,
		handler: handler, runs: runs,
		chClient: chClient, rdb: rdb, notifier: notifier,
	}
}

// InitSchema creates all warehouse tables.
func (a *App) InitSchema(ctx context.Context) error {
	if err := a.raw.Init(ctx); err != nil {
		return err
	}
	return a.store.Init(ctx)
}

// RunStage executes one pipeline stage and exits. Used by schedulers
// that invoke the binary per stage.
func (a *App) RunStage(ctx context.Context, stage string, fullRebuild bool) error {
	if a.cfg.Pipeline.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Pipeline.StageTimeout)
		defer cancel()
	}
	if err := a.InitSchema(ctx); err != nil {
		return err
	}
	defer a.closeClients()

	var err error
	switch stage {
	case "ingest":
		_, err = a.pipe.Ingest(ctx)
	case "transform":
		_, err = a.pipe.Transform(ctx, fullRebuild)
	case "views":
		_, err = a.pipe.Views(ctx)
	default:
		_, err = a.pipe.Run(ctx, fullRebuild)
	}
	return err
}

// Serve starts the ops HTTP server and the run-request consumer, then
// blocks until interrupted.
func (a *App) Serve() error {
	ctx := context.Background()
	if err := a.InitSchema(ctx); err != nil {
		return err
	}

	a.runs.Start()

	a.httpServer = xhttp.NewServer(a.l, a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("serving", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) shutdown(ctx context.Context) error {
	a.runs.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	a.closeClients()
	a.l.Info("shutdown complete")
	return nil
}

func (a *App) closeClients() {
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			a.l.Warn("notifier close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.l.Warn("redis close error", applogger.Error(err))
		}
	}
}
