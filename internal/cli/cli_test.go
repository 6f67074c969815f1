package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/flightgrid/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

// noEnvFile points --env-file at an empty dotenv file so tests never pick
// up a developer's .env.
func noEnvFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empty.env")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return "--env-file=" + path
}

func TestParse_Defaults(t *testing.T) {
	cfg, exit, err := ParseEnv([]string{noEnvFile(t)}, &bytes.Buffer{}, envOf(nil))
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "", cfg.PipelinePath)
	assert.Nil(t, cfg.Storage, "no storage flag means the pipeline or default decides")
	assert.Equal(t, 4, cfg.Workers)
	assert.False(t, cfg.FailFast)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 0, cfg.HealthcheckPort)
}

func TestParse_Flags(t *testing.T) {
	args := []string{
		noEnvFile(t),
		"-p", "pipelines/flight_data.hcl",
		"-w", "8",
		"--fail-fast",
		"--log-level", "DEBUG",
		"--log-format", "pretty",
		"--healthcheck-port", "8080",
		"--storage", "sqlite",
		"--data-dir", "/tmp/flights",
	}
	cfg, exit, err := ParseEnv(args, &bytes.Buffer{}, envOf(nil))
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "pipelines/flight_data.hcl", cfg.PipelinePath)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.FailFast)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.Equal(t, 8080, cfg.HealthcheckPort)
	require.NotNil(t, cfg.Storage)
	assert.Equal(t, config.StorageSQLite, cfg.Storage.Type)
	assert.Equal(t, filepath.Join("/tmp/flights", "flightgrid.db"), cfg.Storage.Path)
}

func TestParse_PositionalPath(t *testing.T) {
	cfg, _, err := ParseEnv([]string{noEnvFile(t), "pipelines"}, &bytes.Buffer{}, envOf(nil))
	require.NoError(t, err)
	assert.Equal(t, "pipelines", cfg.PipelinePath)
}

func TestParse_TwoPaths(t *testing.T) {
	_, _, err := ParseEnv([]string{noEnvFile(t), "-p", "a.hcl", "b.hcl"}, &bytes.Buffer{}, envOf(nil))
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParse_Help(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := ParseEnv([]string{"-h"}, out, envOf(nil))
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "--fail-fast")
}

func TestParse_UsageErrors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		msg  string
	}{
		{name: "unknown flag", args: []string{"--bogus"}, msg: "unknown flag: --bogus"},
		{name: "log format", args: []string{"--log-format", "xml"}, msg: "invalid log-format"},
		{name: "log level", args: []string{"--log-level", "trace"}, msg: "invalid log-level"},
		{name: "workers", args: []string{"-w", "0"}, msg: "invalid workers"},
		{name: "port", args: []string{"--healthcheck-port", "70000"}, msg: "invalid healthcheck-port"},
		{name: "storage type", args: []string{"--storage", "gcs"}, msg: "unknown storage type"},
		{name: "s3 without bucket", args: []string{"--storage", "s3"}, msg: "requires a bucket"},
		{name: "explicit env file missing", args: []string{"--env-file", "/definitely/not/here.env"}, msg: "failed to read env file"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// A later --env-file overrides the helper's.
			args := append([]string{noEnvFile(t)}, tc.args...)
			_, exit, err := ParseEnv(args, &bytes.Buffer{}, envOf(nil))
			require.Error(t, err)
			assert.False(t, exit)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.msg)
		})
	}
}

func TestParse_EmptyEnvFile(t *testing.T) {
	cfg, _, err := ParseEnv([]string{noEnvFile(t), "--storage", "memory"}, &bytes.Buffer{}, envOf(nil))
	require.NoError(t, err)
	require.NotNil(t, cfg.Storage)
	assert.Equal(t, config.StorageMemory, cfg.Storage.Type)
}

func TestParse_EnvironmentOverrides(t *testing.T) {
	env := envOf(map[string]string{
		"FLIGHTGRID_STORAGE":     "s3",
		"FLIGHTGRID_S3_BUCKET":   "lake",
		"FLIGHTGRID_S3_PREFIX":   "flights",
		"AWS_REGION":             "eu-west-1",
		"FLIGHTGRID_S3_ENDPOINT": "http://localhost:9000",
	})

	cfg, _, err := ParseEnv([]string{noEnvFile(t)}, &bytes.Buffer{}, env)
	require.NoError(t, err)
	require.NotNil(t, cfg.Storage)
	assert.Equal(t, config.StorageS3, cfg.Storage.Type)
	assert.Equal(t, "lake", cfg.Storage.Bucket)
	assert.Equal(t, "flights", cfg.Storage.Prefix)
	assert.Equal(t, "eu-west-1", cfg.Storage.Region)
	assert.Equal(t, "http://localhost:9000", cfg.Storage.Endpoint)

	t.Run("flags win", func(t *testing.T) {
		cfg, _, err := ParseEnv([]string{noEnvFile(t), "--s3-bucket", "other"}, &bytes.Buffer{}, env)
		require.NoError(t, err)
		assert.Equal(t, "other", cfg.Storage.Bucket)
		assert.Equal(t, "flights", cfg.Storage.Prefix)
	})
}

func TestParse_ClickHouseEnvironment(t *testing.T) {
	env := envOf(map[string]string{
		"FLIGHTGRID_STORAGE":  "clickhouse",
		"CLICKHOUSE_ADDR_TCP": "localhost:9000",
		"CLICKHOUSE_DATABASE": "flights",
		"CLICKHOUSE_USERNAME": "etl",
		"CLICKHOUSE_PASSWORD": "secret",
		"CLICKHOUSE_SECURE":   "true",
	})

	cfg, _, err := ParseEnv([]string{noEnvFile(t)}, &bytes.Buffer{}, env)
	require.NoError(t, err)
	assert.Equal(t, &config.Storage{
		Type:     config.StorageClickHouse,
		Path:     "data",
		Addr:     "localhost:9000",
		Database: "flights",
		Username: "etl",
		Password: "secret",
		Secure:   true,
	}, cfg.Storage)
}

func TestParse_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flightgrid.env")
	require.NoError(t, os.WriteFile(path, []byte("FLIGHTGRID_STORAGE=local\nFLIGHTGRID_DATA_DIR=/srv/lake\n"), 0o600))

	t.Run("file fills unset variables", func(t *testing.T) {
		cfg, _, err := ParseEnv([]string{"--env-file", path}, &bytes.Buffer{}, envOf(nil))
		require.NoError(t, err)
		require.NotNil(t, cfg.Storage)
		assert.Equal(t, "/srv/lake", cfg.Storage.Path)
	})

	t.Run("environment wins over file", func(t *testing.T) {
		env := envOf(map[string]string{"FLIGHTGRID_DATA_DIR": "/mnt/data"})
		cfg, _, err := ParseEnv([]string{"--env-file", path}, &bytes.Buffer{}, env)
		require.NoError(t, err)
		assert.Equal(t, "/mnt/data", cfg.Storage.Path)
	})
}
