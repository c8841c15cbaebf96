package server

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	domrepo "CardPull/internal/domain/repository"
	"CardPull/internal/usecase"
	pkgch "CardPull/pkg/clickhouse"
	"CardPull/pkg/config"
	applogger "CardPull/pkg/logger"
	"CardPull/pkg/metrics"
)

// App encapsulates one batch pipeline invocation. Unlike a long-lived
// service it runs a single mode to completion, reports the outcome,
// pushes metrics, and tears everything down.
type App struct {
	cfg       *config.Config
	trainer   *usecase.Trainer
	predictor *usecase.Predictor
	collector *usecase.Collector
	notifier  domrepo.RunNotifier
	recorder  *metrics.Recorder
	chClient  *pkgch.Client
	l         *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	trainer *usecase.Trainer,
	predictor *usecase.Predictor,
	collector *usecase.Collector,
	notifier domrepo.RunNotifier,
	recorder *metrics.Recorder,
	chClient *pkgch.Client,
	l *applogger.Logger,
) *App {
	return &App{
		cfg:       cfg,
		trainer:   trainer,
		predictor: predictor,
		collector: collector,
		notifier:  notifier,
		recorder:  recorder,
		chClient:  chClient,
		l:         l,
	}
}

// Run executes the requested pipeline mode and blocks until it finishes
// or the process is interrupted.
func (a *App) Run(mode string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.close()

	start := time.Now()
	a.l.Info("pipeline starting",
		applogger.String("mode", mode),
		applogger.String("env", a.cfg.Environment),
	)

	var (
		items  int
		runErr error
	)
	switch mode {
	case "train":
		items, runErr = a.trainer.Run(ctx)
	case "predict":
		items, runErr = a.predictor.Run(ctx)
	case "collect":
		items, runErr = a.collector.Run(ctx)
	default:
		runErr = fmt.Errorf("unknown mode %q (want train, predict, or collect)", mode)
	}

	a.report(mode, start, items, runErr)
	a.pushMetrics(mode)

	if runErr != nil {
		a.l.Error("pipeline failed",
			applogger.String("mode", mode),
			applogger.Error(runErr),
			applogger.Duration("duration_ms", time.Since(start)),
		)
		return runErr
	}

	a.l.Info("pipeline complete",
		applogger.String("mode", mode),
		applogger.Int("items", items),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// report publishes the run outcome. Uses a fresh context so a failure
// report still goes out after the run context is cancelled.
func (a *App) report(mode string, start time.Time, items int, runErr error) {
	if a.notifier == nil {
		return
	}

	finished := time.Now()
	rep := domrepo.RunReport{
		Mode:       mode,
		StartedAt:  start.UTC(),
		FinishedAt: finished.UTC(),
		DurationMS: finished.Sub(start).Milliseconds(),
		Items:      items,
		Succeeded:  runErr == nil,
	}
	if runErr != nil {
		rep.Error = runErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.notifier.NotifyRun(ctx, rep); err != nil {
		a.l.Warn("run report publish failed", applogger.Error(err))
	}
}

func (a *App) pushMetrics(mode string) {
	if !a.cfg.Metrics.Enabled || a.recorder == nil {
		return
	}
	if err := a.recorder.Push(a.cfg.Metrics.PushGateway, a.cfg.Metrics.JobName, mode); err != nil {
		a.l.Warn("metrics push failed", applogger.Error(err))
	}
}

// close releases infrastructure clients.
func (a *App) close() {
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
	a.l.RemoveCollector()
}
