package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/specialistvlad/flightgrid/internal/config"
	"github.com/specialistvlad/flightgrid/internal/ctxlog"
	"github.com/specialistvlad/flightgrid/internal/flights"
	"github.com/specialistvlad/flightgrid/internal/hcl_adapter"
	"github.com/specialistvlad/flightgrid/internal/handlers"
	"github.com/specialistvlad/flightgrid/internal/storage"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	handlers   *handlers.Handlers
	pipeline   *config.Pipeline
	converter  config.Converter
	store      *storage.Instrumented
	clock      clockwork.Clock
	httpServer *http.Server
}

// Option customises NewApp, mostly for tests.
type Option func(*options)

type options struct {
	modules []handlers.Module
	store   storage.Store
	clock   clockwork.Clock
}

// WithModules replaces the compiled-in task kinds.
func WithModules(modules ...handlers.Module) Option {
	return func(o *options) { o.modules = modules }
}

// WithStore bypasses storage selection and uses s instead.
func WithStore(s storage.Store) Option {
	return func(o *options) { o.store = s }
}

// WithClock sets the clock used for task and storage timings.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// NewApp is the constructor for the main application. It loads the
// pipeline, registers the task handlers and opens storage. The returned App
// owns its own logger; nothing global is modified.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	o := &options{
		modules: coreModules,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(o)
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var (
		pipeline  *config.Pipeline
		converter config.Converter
		stCfg     = cfg.Storage
	)
	if cfg.PipelinePath != "" {
		model, conv, err := hcl_adapter.NewLoader().Load(ctx, cfg.PipelinePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load pipeline: %w", err)
		}
		pipeline, converter = model.Pipeline, conv
		if stCfg == nil {
			stCfg = model.Storage
		}
		logger.Debug("Pipeline loaded from files.", "path", cfg.PipelinePath)
	} else {
		pipeline, converter = flights.DefaultPipeline(), hcl_adapter.NewConverter()
		logger.Debug("Using the built-in pipeline.")
	}
	if stCfg == nil {
		stCfg = DefaultStorage()
	}

	reg := handlers.New()
	for _, mod := range o.modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(o.modules), "kinds", reg.Kinds())

	var store *storage.Instrumented
	if o.store != nil {
		store = storage.Instrument(o.store, "custom", o.clock)
	} else {
		var err error
		store, err = storage.Open(ctx, stCfg, o.clock)
		if err != nil {
			return nil, err
		}
	}
	logger.Debug("Storage ready.", "backend", store.Backend())

	return &App{
		outW:      outW,
		logger:    logger,
		config:    cfg,
		handlers:  reg,
		pipeline:  pipeline,
		converter: converter,
		store:     store,
		clock:     o.clock,
	}, nil
}

// Pipeline returns the pipeline the app will run.
func (a *App) Pipeline() *config.Pipeline {
	return a.pipeline
}

// Handlers returns the application's handler registry. This is primarily for testing.
func (a *App) Handlers() *handlers.Handlers {
	return a.handlers
}

// Close releases the storage connection and stops the health check server.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.closeHealthCheckServer(ctx), a.store.Close())
}
