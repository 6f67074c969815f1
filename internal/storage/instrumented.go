package storage

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/specialistvlad/flightgrid/internal/ctxlog"
	"github.com/specialistvlad/flightgrid/internal/metrics"
	"github.com/specialistvlad/flightgrid/internal/table"
)

// Instrumented wraps a Store with name validation, metrics and debug logs.
type Instrumented struct {
	inner   Store
	backend string
	clock   clockwork.Clock
}

// Instrument wraps inner. backend is used as the metrics label.
func Instrument(inner Store, backend string, clock clockwork.Clock) *Instrumented {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Instrumented{inner: inner, backend: backend, clock: clock}
}

// Backend returns the backend label.
func (s *Instrumented) Backend() string { return s.backend }

// Unwrap returns the wrapped store.
func (s *Instrumented) Unwrap() Store { return s.inner }

func (s *Instrumented) Read(ctx context.Context, name string) (*table.Table, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	start := s.clock.Now()
	t, err := s.inner.Read(ctx, name)
	s.observe(ctx, "read", name, start, err, t)
	return t, err
}

func (s *Instrumented) Write(ctx context.Context, name string, t *table.Table) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	start := s.clock.Now()
	err := s.inner.Write(ctx, name, t)
	s.observe(ctx, "write", name, start, err, t)
	return err
}

func (s *Instrumented) Close() error {
	return s.inner.Close()
}

func (s *Instrumented) observe(ctx context.Context, op, name string, start time.Time, err error, t *table.Table) {
	elapsed := s.clock.Since(start)
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	metrics.StorageOperations.WithLabelValues(s.backend, op, status).Inc()
	metrics.StorageOperationDuration.WithLabelValues(s.backend, op).Observe(elapsed.Seconds())

	logger := ctxlog.FromContext(ctx).With("backend", s.backend, "op", op, "table", name, "duration", elapsed)
	if err != nil {
		logger.Debug("Storage operation failed.", "error", err)
		return
	}
	logger.Debug("Storage operation finished.", "rows", t.Len())
}
