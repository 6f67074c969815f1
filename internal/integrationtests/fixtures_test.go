package integrationtests

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/specialistvlad/flightgrid/internal/storage"
	"github.com/specialistvlad/flightgrid/internal/table"
	"github.com/stretchr/testify/require"
)

const pipelineFile = "../../pipelines/flight_data.hcl"

var bronze = map[string][]string{
	"countries_bronze": {
		"name,iso_code,dafif_code",
		"Aruba,AW,AA",
		`X,\N,BB`,
		"France,FR,FR",
		"Spain,ES,SP",
		"Nowhere,NW,",
	},
	"airlines_bronze": {
		"id,name,alias,iata_code,icao_code,call_sign,country,active",
		`1,Air France,\N,AF,AFR,AIRFRANS,France,Y`,
		`2,Iberia,\N,IB,IBE,IBERIA,Spain,Y`,
		`3,Vueling,\N,VY,VLG,VUELING,Spain,Y`,
		`4,Air Aruba,\N,FQ,ARU,ARUBA,Aruba,N`,
		`5,Private Wings,\N,PW,\N,PRIVATE,France,N`,
		`6,No Sign,\N,NS,NSG,,Spain,Y`,
	},
	"routes_bronze": {
		"airline,airline_id,source_airport,source_airport_id,destination_airport,destination_airport_id,no_of_stops",
		"AF,1,CDG,1382,JFK,3797,0",
		"AF,1,CDG,1382,MAD,1229,0",
		"IB,2,MAD,1229,CDG,1382,0",
		`VY,3,BCN,1218,\N,\N,0`,
		"FQ,4,AUA,2895,MIA,3576,0",
		"ZZ,99,AAA,1,BBB,2,0",
	},
}

// writeBronze lays the raw datasets out as local CSV files under dir,
// skipping the named tables.
func writeBronze(t *testing.T, dir string, skip ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, lines := range bronze {
		if slices.Contains(skip, name) {
			continue
		}
		path := filepath.Join(dir, name+".csv")
		require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	}
}

// seedBronze writes the raw datasets into s.
func seedBronze(t *testing.T, s storage.Store) {
	t.Helper()
	for name, lines := range bronze {
		tbl, err := table.DecodeCSV(strings.NewReader(strings.Join(lines, "\n")))
		require.NoError(t, err)
		require.NoError(t, s.Write(context.Background(), name, tbl))
	}
}

// op is one storage call as seen by recordingStore.
type op struct {
	kind  string
	table string
}

// recordingStore logs the order of storage calls across all workers.
type recordingStore struct {
	storage.Store
	mu  sync.Mutex
	ops []op
}

func (r *recordingStore) Read(ctx context.Context, name string) (*table.Table, error) {
	r.record("read", name)
	return r.Store.Read(ctx, name)
}

func (r *recordingStore) Write(ctx context.Context, name string, t *table.Table) error {
	err := r.Store.Write(ctx, name, t)
	r.record("write", name)
	return err
}

func (r *recordingStore) record(kind, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op{kind: kind, table: name})
}

func (r *recordingStore) snapshot() []op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]op(nil), r.ops...)
}
