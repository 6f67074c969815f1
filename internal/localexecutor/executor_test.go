package localexecutor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/specialistvlad/flightgrid/internal/config"
	"github.com/specialistvlad/flightgrid/internal/etlerr"
	"github.com/specialistvlad/flightgrid/internal/executor"
	"github.com/specialistvlad/flightgrid/internal/graph"
	"github.com/specialistvlad/flightgrid/internal/handlers"
	"github.com/specialistvlad/flightgrid/internal/hcl_adapter"
	"github.com/specialistvlad/flightgrid/internal/inmemorystore"
	"github.com/specialistvlad/flightgrid/internal/inmemorytopology"
	"github.com/specialistvlad/flightgrid/internal/node"
	"github.com/specialistvlad/flightgrid/internal/nodeid"
	"github.com/specialistvlad/flightgrid/internal/scheduler"
	"github.com/specialistvlad/flightgrid/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type probeInput struct {
	Fail  bool   `cty:"fail"`
	Panic bool   `cty:"panic"`
	Table string `cty:"table"`
}

type probeOutput struct {
	Task string `cty:"task"`
}

// probe records invocations and, for every call, the statuses of all nodes
// at that moment.
type probe struct {
	mu       sync.Mutex
	g        graph.Graph
	calls    []string
	observed map[string]map[string]node.Status
}

func newProbeHandler(p *probe) *handlers.RegisteredHandler {
	return &handlers.RegisteredHandler{
		NewInput: func() any { return new(probeInput) },
		Fn: func(ctx context.Context, deps *handlers.Deps, in *probeInput) (*probeOutput, error) {
			if in.Panic {
				panic("kaboom")
			}
			p.record(ctx, in.Table)
			if in.Fail {
				return nil, etlerr.NotFound(in.Table, nil)
			}
			return &probeOutput{Task: in.Table}, nil
		},
		Produces: func(input any) []string {
			if t := input.(*probeInput).Table; t != "" {
				return []string{t}
			}
			return nil
		},
	}
}

func (p *probe) record(ctx context.Context, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, name)
	seen := make(map[string]node.Status)
	for _, st := range p.g.Snapshot(ctx) {
		seen[st.ID.String()] = st.Status
	}
	if p.observed == nil {
		p.observed = make(map[string]map[string]node.Status)
	}
	p.observed[name] = seen
}

func args(table string, extra ...string) cty.Value {
	attrs := map[string]cty.Value{"table": cty.StringVal(table)}
	for _, flag := range extra {
		attrs[flag] = cty.True
	}
	return cty.ObjectVal(attrs)
}

// flightShape mirrors the production DAG: a start barrier, three parallel
// tasks, a fan-in barrier, two parallel tasks and a final barrier.
func flightShape(overrides map[string]cty.Value) *config.Pipeline {
	t := func(kind, name string, deps ...string) *config.Task {
		id := kind + "." + name
		a := args(name)
		if v, ok := overrides[id]; ok {
			a = v
		}
		return &config.Task{Kind: kind, Name: name, Arguments: a, DependsOn: deps}
	}
	return &config.Pipeline{Name: "shape", Tasks: []*config.Task{
		t("probe", "start"),
		t("probe", "countries", "probe.start"),
		t("probe", "airlines", "probe.start"),
		t("probe", "routes", "probe.start"),
		t("probe", "join", "probe.countries", "probe.airlines", "probe.routes"),
		t("probe", "apc", "probe.join"),
		t("probe", "rpa", "probe.join"),
		t("probe", "end", "probe.apc", "probe.rpa"),
	}}
}

type harness struct {
	g     *graph.Manager
	probe *probe
	exec  *Executor
}

func newHarness(t *testing.T, p *config.Pipeline, opts scheduler.Options, extra map[string]*handlers.RegisteredHandler) *harness {
	t.Helper()
	g, err := graph.Build(context.Background(), p, inmemorytopology.New(), inmemorystore.New())
	require.NoError(t, err)

	pr := &probe{g: g}
	reg := handlers.New()
	reg.RegisterHandler("probe", newProbeHandler(pr))
	for kind, h := range extra {
		reg.RegisterHandler(kind, h)
	}

	deps := &handlers.Deps{Store: storage.NewMemory()}
	exec := New(scheduler.New(g, opts), g, reg, hcl_adapter.NewConverter(), deps, Options{
		Workers: 3,
		Clock:   clockwork.NewFakeClock(),
	})
	return &harness{g: g, probe: pr, exec: exec}
}

func (h *harness) status(id string) node.Status {
	return h.g.NodeStatus(context.Background(), nodeid.MustParse(id))
}

func TestExecute_AllSucceed(t *testing.T) {
	h := newHarness(t, flightShape(nil), scheduler.Options{}, nil)

	require.NoError(t, h.exec.Execute(context.Background()))

	assert.Len(t, h.probe.calls, 8)
	for _, st := range h.g.Snapshot(context.Background()) {
		assert.Equal(t, node.StatusSucceeded, st.Status, st.ID.String())
	}

	// Fan-in barrier: when join ran, every predecessor had succeeded.
	atJoin := h.probe.observed["join"]
	for _, dep := range []string{"probe.countries", "probe.airlines", "probe.routes"} {
		assert.Equal(t, node.StatusSucceeded, atJoin[dep], dep)
	}
	atEnd := h.probe.observed["end"]
	assert.Equal(t, node.StatusSucceeded, atEnd["probe.apc"])
	assert.Equal(t, node.StatusSucceeded, atEnd["probe.rpa"])

	out := h.g.Output(context.Background(), nodeid.MustParse("probe.routes")).(cty.Value)
	assert.Equal(t, "routes", out.GetAttr("task").AsString())
}

func TestExecute_FailureIsPropagated(t *testing.T) {
	h := newHarness(t, flightShape(map[string]cty.Value{
		"probe.routes": args("routes", "fail"),
	}), scheduler.Options{}, nil)

	err := h.exec.Execute(context.Background())
	var runErr *executor.RunError
	require.ErrorAs(t, err, &runErr)

	require.Len(t, runErr.Failed, 1)
	assert.Equal(t, "probe.routes", runErr.Failed[0].Task)
	assert.ErrorIs(t, err, etlerr.ErrNotFound)
	assert.Equal(t, []string{"probe.join", "probe.apc", "probe.rpa", "probe.end"}, runErr.DependencyFailed)
	assert.Empty(t, runErr.NotStarted)
	assert.ElementsMatch(t, []string{"routes", "join", "apc", "rpa", "end"}, runErr.MissingTables)

	// Siblings of the failed task still ran.
	assert.Equal(t, node.StatusSucceeded, h.status("probe.countries"))
	assert.Equal(t, node.StatusSucceeded, h.status("probe.airlines"))
	assert.NotContains(t, h.probe.calls, "join")

	joinErr := h.g.Err(context.Background(), nodeid.MustParse("probe.join"))
	assert.ErrorIs(t, joinErr, etlerr.ErrDependencyFailed)
}

func TestExecute_PanicBecomesFailure(t *testing.T) {
	h := newHarness(t, flightShape(map[string]cty.Value{
		"probe.airlines": args("airlines", "panic"),
	}), scheduler.Options{}, nil)

	err := h.exec.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "panicked: kaboom")
	assert.Equal(t, node.StatusFailed, h.status("probe.airlines"))
	assert.Equal(t, node.StatusFailed, h.status("probe.end"))
}

func TestExecute_BadArgumentsFailTheTask(t *testing.T) {
	h := newHarness(t, flightShape(map[string]cty.Value{
		"probe.start": cty.ObjectVal(map[string]cty.Value{"bogus": cty.True}),
	}), scheduler.Options{}, nil)

	err := h.exec.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to decode arguments for task probe.start")
	assert.Empty(t, h.probe.calls)
}

func TestExecute_CancellationLetsRunningTasksFinish(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var handlerCtxErr error

	blocking := &handlers.RegisteredHandler{
		NewInput: func() any { return new(probeInput) },
		Fn: func(ctx context.Context, deps *handlers.Deps, in *probeInput) (*probeOutput, error) {
			close(started)
			<-release
			handlerCtxErr = ctx.Err()
			return &probeOutput{Task: "slow"}, nil
		},
	}
	p := &config.Pipeline{Tasks: []*config.Task{
		{Kind: "slow", Name: "first", Arguments: args("first")},
		{Kind: "probe", Name: "second", Arguments: args("second"), DependsOn: []string{"slow.first"}},
	}}
	h := newHarness(t, p, scheduler.Options{}, map[string]*handlers.RegisteredHandler{"slow": blocking})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- h.exec.Execute(ctx) }()

	<-started
	cancel()
	close(release)
	err := <-done

	require.NoError(t, handlerCtxErr, "running handlers are detached from cancellation")
	assert.Equal(t, node.StatusSucceeded, h.status("slow.first"))
	assert.Equal(t, node.StatusPending, h.status("probe.second"))

	var runErr *executor.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, []string{"probe.second"}, runErr.NotStarted)
	assert.Equal(t, []string{"second"}, runErr.MissingTables)
}

func TestExecute_FailFast(t *testing.T) {
	p := &config.Pipeline{Tasks: []*config.Task{
		{Kind: "probe", Name: "a", Arguments: args("a", "fail")},
		{Kind: "probe", Name: "b", Arguments: args("b"), DependsOn: []string{"probe.a"}},
	}}
	h := newHarness(t, p, scheduler.Options{FailFast: true}, nil)

	err := h.exec.Execute(context.Background())
	var runErr *executor.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, []string{"probe.b"}, runErr.DependencyFailed)
}

func TestExecute_UnknownKind(t *testing.T) {
	p := &config.Pipeline{Tasks: []*config.Task{{Kind: "ghost", Name: "x"}}}
	h := newHarness(t, p, scheduler.Options{}, nil)

	err := h.exec.Execute(context.Background())
	assert.ErrorContains(t, err, `no handler registered for task kind "ghost"`)
	assert.False(t, errors.Is(err, etlerr.ErrDependencyFailed))
}
