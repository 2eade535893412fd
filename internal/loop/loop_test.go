package loop

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/me/agentpool/internal/scaler"
	"github.com/me/agentpool/internal/store"
	"github.com/me/agentpool/pkg/model"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type fakeQueue struct {
	backlog int
	agents  int
	err     error
}

func (q *fakeQueue) Backlog(ctx context.Context) (int, error) { return q.backlog, q.err }
func (q *fakeQueue) Agents(ctx context.Context) (int, error)  { return q.agents, q.err }

type fakeFleet struct {
	now     time.Time
	managed []model.Node
	alive   map[model.Node]time.Time
	started []model.Node
	stopped []model.Node
}

func (f *fakeFleet) Now(ctx context.Context) (time.Time, error)            { return f.now, nil }
func (f *fakeFleet) Managed(ctx context.Context) ([]model.Node, error)     { return f.managed, nil }
func (f *fakeFleet) Alive(ctx context.Context) (map[model.Node]time.Time, error) {
	return f.alive, nil
}
func (f *fakeFleet) Start(ctx context.Context, node model.Node) error {
	f.started = append(f.started, node)
	return nil
}
func (f *fakeFleet) Stop(ctx context.Context, node model.Node) error {
	f.stopped = append(f.stopped, node)
	return nil
}

func testLoop(t *testing.T, q scaler.Queue, f scaler.Fleet) (*Loop, store.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	rec := scaler.New(q, f, scaler.DefaultConfig(), logger)
	return NewLoop(rec, st, DefaultConfig(), logger), st
}

func TestTickStartsNodeAndRecords(t *testing.T) {
	queue := &fakeQueue{backlog: 4}
	fleet := &fakeFleet{now: t0, managed: []model.Node{"n1"}}
	l, st := testLoop(t, queue, fleet)
	ctx := context.Background()

	if err := l.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if len(fleet.started) != 1 || fleet.started[0] != "n1" {
		t.Fatalf("started = %v, want [n1]", fleet.started)
	}

	view := l.View()
	if _, ok := view.Pending["n1"]; !ok {
		t.Errorf("pending = %v, want n1", view.Pending)
	}

	ticks, err := st.ListTicks(ctx, 10)
	if err != nil {
		t.Fatalf("ListTicks: %v", err)
	}
	if len(ticks) != 1 || ticks[0].Decision != model.DecisionNeedsAgent {
		t.Fatalf("ticks = %+v, want one needs_agent record", ticks)
	}

	cmds, err := st.ListCommands(ctx, 10)
	if err != nil {
		t.Fatalf("ListCommands: %v", err)
	}
	if len(cmds) != 1 || cmds[0].Node != "n1" || cmds[0].Action != model.ActionStart {
		t.Fatalf("cmds = %+v, want one start of n1", cmds)
	}
}

func TestTickRetainsViewOnObservationFailure(t *testing.T) {
	queue := &fakeQueue{backlog: 4}
	fleet := &fakeFleet{now: t0, managed: []model.Node{"n1"}}
	l, st := testLoop(t, queue, fleet)
	ctx := context.Background()

	if err := l.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	before := l.View()

	queue.err = &model.ObservationError{Source: "drone", Op: "backlog", Err: errors.New("down")}
	if err := l.Tick(ctx); err == nil {
		t.Fatal("expected tick error")
	}

	after := l.View()
	if len(after.Pending) != len(before.Pending) || after.Backlog != before.Backlog {
		t.Errorf("view changed on failed tick: before=%+v after=%+v", before, after)
	}

	ticks, err := st.ListTicks(ctx, 10)
	if err != nil {
		t.Fatalf("ListTicks: %v", err)
	}
	if len(ticks) != 2 {
		t.Fatalf("got %d ticks, want 2", len(ticks))
	}
	if ticks[0].Decision != model.DecisionError || ticks[0].Error == "" {
		t.Errorf("latest tick = %+v, want error record", ticks[0])
	}
}

func TestTickHandsViewBetweenTicks(t *testing.T) {
	queue := &fakeQueue{backlog: 4}
	fleet := &fakeFleet{now: t0, managed: []model.Node{"n1"}}
	l, _ := testLoop(t, queue, fleet)
	ctx := context.Background()

	// Tick 1 starts n1 and leaves it pending.
	if err := l.Tick(ctx); err != nil {
		t.Fatalf("Tick 1: %v", err)
	}

	// Tick 2: still backlogged, nothing alive yet. The pending entry must
	// suppress a duplicate start.
	fleet.now = t0.Add(time.Minute)
	if err := l.Tick(ctx); err != nil {
		t.Fatalf("Tick 2: %v", err)
	}
	if len(fleet.started) != 1 {
		t.Fatalf("started = %v, want exactly one start across ticks", fleet.started)
	}

	// Tick 3: the machine is up; pending clears.
	fleet.now = t0.Add(2 * time.Minute)
	fleet.alive = map[model.Node]time.Time{"n1": t0.Add(time.Minute)}
	queue.backlog = 0
	queue.agents = 1
	if err := l.Tick(ctx); err != nil {
		t.Fatalf("Tick 3: %v", err)
	}
	view := l.View()
	if len(view.Pending) != 0 {
		t.Errorf("pending = %v, want cleared", view.Pending)
	}
	if len(view.Alive) != 1 {
		t.Errorf("alive = %v, want n1", view.Alive)
	}
}

func TestPauseSkipsDecisions(t *testing.T) {
	queue := &fakeQueue{backlog: 4}
	fleet := &fakeFleet{now: t0, managed: []model.Node{"n1"}}
	l, st := testLoop(t, queue, fleet)
	ctx := context.Background()

	l.Pause()
	if err := l.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(fleet.started) != 0 {
		t.Fatalf("started = %v, want none while paused", fleet.started)
	}

	// Observation still happened.
	if got := l.View().Backlog; got != 4 {
		t.Errorf("backlog = %d, want 4", got)
	}

	ticks, err := st.ListTicks(ctx, 10)
	if err != nil {
		t.Fatalf("ListTicks: %v", err)
	}
	if len(ticks) != 1 || ticks[0].Decision != model.DecisionPaused {
		t.Fatalf("ticks = %+v, want one paused record", ticks)
	}

	l.Resume()
	fleet.now = t0.Add(time.Minute)
	if err := l.Tick(ctx); err != nil {
		t.Fatalf("Tick after resume: %v", err)
	}
	if len(fleet.started) != 1 {
		t.Fatalf("started = %v, want start after resume", fleet.started)
	}
}

func TestStartStop(t *testing.T) {
	queue := &fakeQueue{}
	fleet := &fakeFleet{now: t0, managed: []model.Node{"n1"}}
	l, _ := testLoop(t, queue, fleet)

	errCh := make(chan error, 1)
	go func() { errCh <- l.Start(context.Background()) }()

	// Give the loop a moment to enter its select.
	time.Sleep(10 * time.Millisecond)

	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Start returned %v, want nil on Stop", err)
	}
}
