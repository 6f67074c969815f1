package storage

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/specialistvlad/flightgrid/internal/config"
	"github.com/specialistvlad/flightgrid/internal/ctxlog"
	"github.com/specialistvlad/flightgrid/internal/storage/clickhousestore"
	"github.com/specialistvlad/flightgrid/internal/storage/s3store"
	"github.com/specialistvlad/flightgrid/internal/storage/sqlitestore"
)

// Open connects to the backend selected by cfg and wraps it with
// Instrument.
func Open(ctx context.Context, cfg *config.Storage, clock clockwork.Clock) (*Instrumented, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx)

	var (
		inner Store
		err   error
	)
	switch cfg.Type {
	case config.StorageMemory:
		inner = NewMemory()
	case config.StorageLocal:
		inner = NewLocal(cfg.Path)
	case config.StorageS3:
		inner, err = s3store.New(ctx, s3store.Config{
			Bucket:   cfg.Bucket,
			Prefix:   cfg.Prefix,
			Region:   cfg.Region,
			Endpoint: cfg.Endpoint,
		})
	case config.StorageSQLite:
		inner, err = sqlitestore.Open(ctx, cfg.Path)
	case config.StorageClickHouse:
		inner, err = clickhousestore.Open(ctx, clickhousestore.Config{
			Addr:     cfg.Addr,
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
			Secure:   cfg.Secure,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Type, err)
	}

	logger.Debug("Storage opened.", "type", cfg.Type)
	return Instrument(inner, cfg.Type, clock), nil
}
