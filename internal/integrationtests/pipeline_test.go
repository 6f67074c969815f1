package integrationtests

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/flightgrid/internal/app"
	"github.com/specialistvlad/flightgrid/internal/config"
	"github.com/specialistvlad/flightgrid/internal/etlerr"
	"github.com/specialistvlad/flightgrid/internal/executor"
	"github.com/specialistvlad/flightgrid/internal/flights"
	"github.com/specialistvlad/flightgrid/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig(dir, pipeline string) *app.Config {
	return &app.Config{
		PipelinePath: pipeline,
		Storage:      &config.Storage{Type: config.StorageLocal, Path: dir},
		Workers:      4,
	}
}

func readTable(t *testing.T, dir, name string) [][]string {
	t.Helper()
	tbl, err := storage.NewLocal(dir).Read(context.Background(), name)
	require.NoError(t, err, "reading %s", name)
	return tbl.Records()
}

func TestPipeline_EndToEnd(t *testing.T) {
	for _, pipeline := range []string{"", pipelineFile} {
		name := "built-in"
		if pipeline != "" {
			name = "hcl"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeBronze(t, dir)

			a, logs := app.SetupAppTest(t, localConfig(dir, pipeline))
			require.NoError(t, a.Run(context.Background()))

			assert.Equal(t, [][]string{
				{"name", "iso_code", "dafif_code"},
				{"Aruba", "AW", "AA"},
				{"France", "FR", "FR"},
				{"Spain", "ES", "SP"},
			}, readTable(t, dir, "countries_silver"))

			assert.Equal(t, [][]string{
				{"country", "num_of_airlines"},
				{"Aruba", "1"},
				{"France", "1"},
				{"Spain", "2"},
			}, readTable(t, dir, "airlines_per_country_gold"))

			assert.Equal(t, [][]string{
				{"airline", "num_of_routes"},
				{"Air Aruba", "1"},
				{"Air France", "2"},
				{"Iberia", "1"},
			}, readTable(t, dir, "routes_per_airline_gold"))

			out := logs.String()
			start := strings.Index(out, flights.StartMessage)
			join := strings.Index(out, flights.JoinMessage)
			end := strings.Index(out, flights.EndMessage)
			require.True(t, start >= 0 && join >= 0 && end >= 0, "all markers announced")
			assert.Less(t, start, join)
			assert.Less(t, join, end)
		})
	}
}

func TestPipeline_SilverHasNoSentinelOrMissingValues(t *testing.T) {
	dir := t.TempDir()
	writeBronze(t, dir)
	a, _ := app.SetupAppTest(t, localConfig(dir, ""))
	require.NoError(t, a.Run(context.Background()))

	checked := map[string][]string{
		"countries_silver": {"iso_code", "dafif_code"},
		"airlines_silver":  {"icao_code", "call_sign", "iata_code"},
		"routes_silver":    {"destination_airport_id", "source_airport_id", "airline_id"},
	}
	for name, cols := range checked {
		records := readTable(t, dir, name)
		header := records[0]
		for _, col := range cols {
			i := indexOf(header, col)
			require.GreaterOrEqual(t, i, 0, "%s.%s present", name, col)
			for _, rec := range records[1:] {
				assert.NotEqual(t, flights.Sentinel, rec[i], "%s.%s", name, col)
				assert.NotEmpty(t, rec[i], "%s.%s", name, col)
			}
		}
	}
	assert.NotContains(t, readTable(t, dir, "airlines_silver")[0], "alias")
	assert.NotContains(t, readTable(t, dir, "routes_silver")[0], "no_of_stops")
}

func TestPipeline_CleanersAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeBronze(t, dir)

	snapshot := func() map[string][]byte {
		out := make(map[string][]byte)
		for _, name := range []string{"countries_silver", "airlines_silver", "routes_silver", "airlines_per_country_gold", "routes_per_airline_gold"} {
			b, err := os.ReadFile(filepath.Join(dir, name+".csv"))
			require.NoError(t, err)
			out[name] = b
		}
		return out
	}

	a, _ := app.SetupAppTest(t, localConfig(dir, ""))
	require.NoError(t, a.Run(context.Background()))
	first := snapshot()

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, first, snapshot())
}

func TestPipeline_JoinersWaitForEveryCleaner(t *testing.T) {
	for i := 0; i < 20; i++ {
		mem := storage.NewMemory()
		seedBronze(t, mem)
		rec := &recordingStore{Store: mem}

		a, _ := app.SetupAppTest(t, &app.Config{Workers: 8}, app.WithStore(rec))
		require.NoError(t, a.Run(context.Background()))

		ops := rec.snapshot()
		lastSilverWrite, firstSilverRead := -1, len(ops)
		for j, o := range ops {
			if !strings.HasSuffix(o.table, "_silver") {
				continue
			}
			if o.kind == "write" {
				lastSilverWrite = j
			} else if j < firstSilverRead {
				firstSilverRead = j
			}
		}
		require.GreaterOrEqual(t, lastSilverWrite, 0)
		require.Less(t, lastSilverWrite, firstSilverRead, "a joiner read silver data before every cleaner finished")
	}
}

func TestPipeline_FailurePropagation(t *testing.T) {
	dir := t.TempDir()
	writeBronze(t, dir, "routes_bronze")

	a, logs := app.SetupAppTest(t, localConfig(dir, ""))
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, etlerr.ErrNotFound), "root cause is the missing bronze table")

	var runErr *executor.RunError
	require.ErrorAs(t, err, &runErr)
	require.Len(t, runErr.Failed, 1)
	assert.Equal(t, "clean.routes", runErr.Failed[0].Task)
	assert.ElementsMatch(t, []string{
		"marker.join",
		"join.countries_and_airlines",
		"join.airlines_and_routes",
		"marker.end",
	}, runErr.DependencyFailed)
	assert.Empty(t, runErr.NotStarted)
	assert.ElementsMatch(t, []string{
		"routes_silver",
		"airlines_per_country_gold",
		"routes_per_airline_gold",
	}, runErr.MissingTables)

	// Sibling cleaners still ran and their output stays in storage.
	assert.Len(t, readTable(t, dir, "countries_silver"), 4)
	assert.Len(t, readTable(t, dir, "airlines_silver"), 5)
	_, statErr := os.Stat(filepath.Join(dir, "airlines_per_country_gold.csv"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "no gold table after a failed cleaner")

	assert.NotContains(t, logs.String(), flights.JoinMessage, "the join barrier never ran")
}

func TestPipeline_UnknownEntityRejectedBeforeRun(t *testing.T) {
	dir := t.TempDir()
	writeBronze(t, dir)
	path := filepath.Join(t.TempDir(), "bad.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
task "clean" "planes" {
  arguments {
    entity = "plane"
  }
}
`), 0o644))

	a, _ := app.SetupAppTest(t, localConfig(dir, path))
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown entity")

	_, statErr := os.Stat(filepath.Join(dir, "countries_silver.csv"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "nothing ran")
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
