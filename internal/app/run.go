package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/flightgrid/internal/ctxlog"
	"github.com/specialistvlad/flightgrid/internal/handlers"
	"github.com/specialistvlad/flightgrid/internal/localsession"
	"github.com/specialistvlad/flightgrid/internal/session"
)

// Run executes the pipeline once. Every log line of the run carries a fresh
// run_id. A run in which any task did not succeed returns an error wrapping
// *executor.RunError.
func (a *App) Run(ctx context.Context) error {
	runID := uuid.New().String()
	logger := a.logger.With("run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("App.Run method started.")

	a.startHealthCheckServer()

	logger.Info("Pipeline loaded.",
		"pipeline", a.pipeline.Name,
		"tasks", len(a.pipeline.Tasks),
		"storage", a.store.Backend(),
		"workers", a.config.Workers,
	)

	var factory session.SessionFactory = &localsession.SessionFactory{}
	sess, err := factory.NewSession(ctx, &session.Config{
		Pipeline:  a.pipeline,
		Handlers:  a.handlers,
		Converter: a.converter,
		Deps:      &handlers.Deps{Store: a.store, Out: a.outW},
		Workers:   a.config.Workers,
		FailFast:  a.config.FailFast,
		Clock:     a.clock,
	})
	if err != nil {
		return fmt.Errorf("failed to prepare pipeline: %w", err)
	}
	defer func() {
		if err := sess.Close(ctx); err != nil {
			logger.Warn("Session close failed", "error", err)
		}
	}()

	exec, err := sess.GetExecutor()
	if err != nil {
		return fmt.Errorf("failed to get executor: %w", err)
	}

	// The executor logs the failure summary; only the error is passed up.
	if err := exec.Execute(ctx); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	logger.Info("Pipeline run succeeded.", "pipeline", a.pipeline.Name)
	logger.Debug("App.Run method finished.")
	return nil
}
