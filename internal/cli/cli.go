package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"github.com/specialistvlad/flightgrid/internal/app"
	"github.com/specialistvlad/flightgrid/internal/config"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// Parse processes command-line arguments against the process environment.
// It returns a populated app.Config, a boolean indicating if the program
// should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	return ParseEnv(args, output, os.LookupEnv)
}

// ParseEnv is Parse with an explicit environment. Values from the dotenv
// file fill in variables the environment does not set.
func ParseEnv(args []string, output io.Writer, lookup LookupFunc) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("flightgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.SortFlags = false

	flagSet.Usage = func() {
		fmt.Fprint(output, `
flightgrid - runs the flight data ETL pipeline as a concurrent task graph.

Usage:
  flightgrid [options] [PIPELINE_PATH]

Arguments:
  PIPELINE_PATH
    Path to a single .hcl file or a directory containing .hcl files.
    Without it the built-in flight data pipeline runs.

Options:
`)
		flagSet.PrintDefaults()
	}

	pipeline := flagSet.StringP("pipeline", "p", "", "Pipeline .hcl file or directory.")
	storageType := flagSet.String("storage", config.StorageLocal, "Storage backend: local, s3, sqlite, clickhouse or memory.")
	dataDir := flagSet.String("data-dir", "data", "Root directory of the local storage backend.")
	s3Bucket := flagSet.String("s3-bucket", "", "S3 bucket holding the tables.")
	s3Prefix := flagSet.String("s3-prefix", "", "Key prefix for tables in the S3 bucket.")
	s3Region := flagSet.String("s3-region", "", "AWS region of the S3 bucket.")
	s3Endpoint := flagSet.String("s3-endpoint", "", "Custom S3 endpoint, e.g. a local MinIO.")
	sqlitePath := flagSet.String("sqlite-path", "", "SQLite database file (default <data-dir>/flightgrid.db).")
	chAddr := flagSet.String("clickhouse-addr", "", "ClickHouse native protocol address, host:port.")
	chDatabase := flagSet.String("clickhouse-database", "default", "ClickHouse database.")
	chUsername := flagSet.String("clickhouse-username", "default", "ClickHouse username.")
	chPassword := flagSet.String("clickhouse-password", "", "ClickHouse password.")
	chSecure := flagSet.Bool("clickhouse-secure", false, "Use TLS for the ClickHouse connection.")
	workers := flagSet.IntP("workers", "w", 4, "Number of concurrent workers for the executor.")
	failFast := flagSet.Bool("fail-fast", false, "Stop launching tasks after the first failure.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text', 'json' or 'pretty'.")
	healthPort := flagSet.Int("healthcheck-port", 0, "Port for the /health and /metrics server. 0 is disabled.")
	envFile := flagSet.String("env-file", ".env", "Optional dotenv file read before environment overrides.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	slog.Debug("Arguments parsed successfully.")

	env, err := loadEnv(*envFile, flagSet.Changed("env-file"), lookup)
	if err != nil {
		return nil, false, err
	}

	path := *pipeline
	if path == "" && flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if flagSet.NArg() > 1 || (*pipeline != "" && flagSet.NArg() > 0) {
		return nil, false, usageError("expected at most one pipeline path, got %v", append([]string{*pipeline}, flagSet.Args()...))
	}
	slog.Debug("Pipeline path determined.", "path", path)

	logFormat := strings.ToLower(*logFormatFlag)
	switch logFormat {
	case "text", "json", "pretty":
	default:
		return nil, false, usageError("invalid log-format: must be 'text', 'json' or 'pretty'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	if *workers < 1 {
		return nil, false, usageError("invalid workers: must be at least 1")
	}
	if *healthPort < 0 || *healthPort > 65535 {
		return nil, false, usageError("invalid healthcheck-port: %d", *healthPort)
	}

	// Flags win over the environment.
	str := func(name string, val *string, key string) bool {
		if flagSet.Changed(name) {
			return true
		}
		if v, ok := env(key); ok && v != "" {
			*val = v
			return true
		}
		return false
	}
	overridden := false
	for _, o := range []struct {
		flag string
		val  *string
		key  string
	}{
		{"storage", storageType, "FLIGHTGRID_STORAGE"},
		{"data-dir", dataDir, "FLIGHTGRID_DATA_DIR"},
		{"s3-bucket", s3Bucket, "FLIGHTGRID_S3_BUCKET"},
		{"s3-prefix", s3Prefix, "FLIGHTGRID_S3_PREFIX"},
		{"s3-region", s3Region, "AWS_REGION"},
		{"s3-endpoint", s3Endpoint, "FLIGHTGRID_S3_ENDPOINT"},
		{"sqlite-path", sqlitePath, "FLIGHTGRID_SQLITE_PATH"},
		{"clickhouse-addr", chAddr, "CLICKHOUSE_ADDR_TCP"},
		{"clickhouse-database", chDatabase, "CLICKHOUSE_DATABASE"},
		{"clickhouse-username", chUsername, "CLICKHOUSE_USERNAME"},
		{"clickhouse-password", chPassword, "CLICKHOUSE_PASSWORD"},
	} {
		if str(o.flag, o.val, o.key) {
			overridden = true
		}
	}
	if flagSet.Changed("clickhouse-secure") {
		overridden = true
	} else if v, ok := env("CLICKHOUSE_SECURE"); ok && v != "" {
		*chSecure = v == "true"
		overridden = true
	}

	cfg := &app.Config{
		PipelinePath:    path,
		Workers:         *workers,
		FailFast:        *failFast,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPort,
	}

	// Without any storage flag or variable the pipeline file may pick the
	// backend, and the app falls back to local storage under data/.
	if overridden {
		st := &config.Storage{
			Type:     strings.ToLower(*storageType),
			Bucket:   *s3Bucket,
			Prefix:   *s3Prefix,
			Region:   *s3Region,
			Endpoint: *s3Endpoint,
			Addr:     *chAddr,
			Database: *chDatabase,
			Username: *chUsername,
			Password: *chPassword,
			Secure:   *chSecure,
		}
		switch st.Type {
		case config.StorageSQLite:
			st.Path = *sqlitePath
			if st.Path == "" {
				st.Path = filepath.Join(*dataDir, "flightgrid.db")
			}
		default:
			st.Path = *dataDir
		}
		if err := st.Validate(); err != nil {
			return nil, false, usageError("invalid storage: %s", err)
		}
		cfg.Storage = st
	}

	if err := cfg.Validate(); err != nil {
		return nil, false, usageError("%s", err)
	}

	slog.Debug("CLI parser finished successfully.", "pipeline", cfg.PipelinePath, "storage_override", cfg.Storage != nil)
	return cfg, false, nil
}

// loadEnv layers the dotenv file under the environment. A missing file is
// only an error when it was named explicitly.
func loadEnv(path string, explicit bool, lookup LookupFunc) (LookupFunc, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return lookup, nil
		}
		return nil, usageError("failed to read env file %s: %s", path, err)
	}
	slog.Debug("Env file loaded.", "path", path, "vars", len(vars))
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}, nil
}
