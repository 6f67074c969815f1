package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/flightgrid/internal/config"
	"github.com/specialistvlad/flightgrid/internal/etlerr"
	"github.com/specialistvlad/flightgrid/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var countries = table.MustNew(
	table.Schema{{Name: "name"}, {Name: "iso_code"}, {Name: "dafif_code"}},
	[][]table.Value{
		{table.Str("Aruba"), table.Str("AW"), table.Str("AA")},
		{table.Str("Korea, South"), table.Str("KR"), table.Null()},
	},
)

func testStores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemory(),
		"local":  NewLocal(filepath.Join(t.TempDir(), "data")),
	}
}

func TestStores_RoundTrip(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Write(ctx, "countries_silver", countries))

			out, err := s.Read(ctx, "countries_silver")
			require.NoError(t, err)
			assert.True(t, countries.Equal(out), "got %v", out.Records())
		})
	}
}

func TestStores_ReadMissing(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Read(context.Background(), "countries_bronze")
			require.ErrorIs(t, err, etlerr.ErrNotFound)
		})
	}
}

func TestStores_WriteOverwrites(t *testing.T) {
	smaller := countries.Filter(func(row []table.Value) bool { return !row[2].IsNull() })
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Write(ctx, "t", countries))
			require.NoError(t, s.Write(ctx, "t", smaller))

			out, err := s.Read(ctx, "t")
			require.NoError(t, err)
			assert.Equal(t, 1, out.Len())
		})
	}
}

func TestLocal_FileLayoutAndNoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	s := NewLocal(dir)
	require.NoError(t, s.Write(context.Background(), "countries_silver", countries))

	b, err := os.ReadFile(filepath.Join(dir, "countries_silver.csv"))
	require.NoError(t, err)
	assert.Equal(t, "name,iso_code,dafif_code\nAruba,AW,AA\n\"Korea, South\",KR,\n", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocal_ReadMalformedNamesTable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "routes_bronze.csv"), []byte("a,a\n1,2\n"), 0o644))

	_, err := NewLocal(dir).Read(context.Background(), "routes_bronze")
	require.ErrorIs(t, err, etlerr.ErrMalformedInput)

	var e *etlerr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "routes_bronze", e.Table)
}

func TestLocal_WriteFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	err := NewLocal(file).Write(context.Background(), "x", countries)
	assert.ErrorIs(t, err, etlerr.ErrWriteFailure)
}

func TestInstrumented_ValidatesNames(t *testing.T) {
	s := Instrument(NewMemory(), "memory", nil)
	ctx := context.Background()

	assert.Error(t, s.Write(ctx, "../etc/passwd", countries))
	_, err := s.Read(ctx, "a b")
	assert.Error(t, err)

	require.NoError(t, s.Write(ctx, "countries_silver", countries))
	out, err := s.Read(ctx, "countries_silver")
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
	assert.Equal(t, []string{"countries_silver"}, s.Unwrap().(*Memory).Names())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, &config.Storage{Type: config.StorageLocal, Path: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.Equal(t, "local", s.Backend())
	assert.IsType(t, &Local{}, s.Unwrap())

	s, err = Open(ctx, &config.Storage{Type: config.StorageSQLite, Path: filepath.Join(t.TempDir(), "f.db")}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, "countries_silver", countries))
	out, err := s.Read(ctx, "countries_silver")
	require.NoError(t, err)
	assert.True(t, countries.Equal(out))
	require.NoError(t, s.Close())

	_, err = Open(ctx, &config.Storage{Type: "ftp"}, nil)
	assert.Error(t, err)
}
