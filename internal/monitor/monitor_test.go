package monitor

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"nathanbeddoewebdev/oshost/internal/domain"
	"nathanbeddoewebdev/oshost/internal/retry"
)

// scriptedLister returns one response per call, repeating the last.
type scriptedLister struct {
	mu        sync.Mutex
	responses [][]domain.Server
	errs      []error
	calls     int
}

func (l *scriptedLister) ListServers(context.Context) ([]domain.Server, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.calls
	l.calls++
	if i < len(l.errs) && l.errs[i] != nil {
		return nil, l.errs[i]
	}
	if i >= len(l.responses) {
		i = len(l.responses) - 1
	}
	return l.responses[i], nil
}

// collectSink records reported events.
type collectSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *collectSink) Report(_ context.Context, e domain.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *collectSink) snapshot() []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Event(nil), c.events...)
}

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func tagged(id, name, status, corr string) domain.Server {
	return domain.Server{ID: id, Name: name, Status: status, Metadata: map[string]string{domain.CorrelationMetaKey: corr}}
}

func TestPoll_ReportsChangesOnly(t *testing.T) {
	t.Parallel()

	lister := &scriptedLister{responses: [][]domain.Server{
		{tagged("s-1", "vm1", "BUILD", "c1")},
		{tagged("s-1", "vm1", "BUILD(spawning)", "c1")},
		{tagged("s-1", "vm1", "ACTIVE", "c1")},
		{},
	}}
	sink := &collectSink{}
	m := &Monitor{Servers: lister, Sink: sink, Region: "r1", Now: func() time.Time { return fixedNow }}

	for i := 0; i < 4; i++ {
		if err := m.Poll(context.Background()); err != nil {
			t.Fatalf("Poll() #%d error = %v", i, err)
		}
	}

	var states []string
	for _, e := range sink.snapshot() {
		states = append(states, e.State)
	}
	want := []string{domain.StatePending, domain.StateRunning, domain.StateTerminated}
	if diff := cmp.Diff(want, states); diff != "" {
		t.Errorf("states mismatch (-want +got):\n%s", diff)
	}

	running := sink.snapshot()[1]
	wantEvent := domain.Event{
		Host:          "vm1",
		ServerID:      "s-1",
		Region:        "r1",
		State:         domain.StateRunning,
		Status:        "ACTIVE",
		CorrelationID: "c1",
		Tags:          []string{"name=c1"},
		ObservedAt:    fixedNow,
	}
	if diff := cmp.Diff(wantEvent, running); diff != "" {
		t.Errorf("running event mismatch (-want +got):\n%s", diff)
	}
}

func TestPoll_ReportUnchanged(t *testing.T) {
	t.Parallel()

	lister := &scriptedLister{responses: [][]domain.Server{
		{{ID: "s-1", Name: "vm1", Status: "ACTIVE"}, {ID: "s-2", Name: "vm2", Status: "SHUTOFF"}},
	}}
	sink := &collectSink{}
	m := &Monitor{Servers: lister, Sink: sink, ReportUnchanged: true}

	for i := 0; i < 3; i++ {
		if err := m.Poll(context.Background()); err != nil {
			t.Fatalf("Poll() error = %v", err)
		}
	}
	if got := len(sink.snapshot()); got != 6 {
		t.Errorf("events = %d, want 6", got)
	}
	for _, e := range sink.snapshot() {
		if e.Tags != nil {
			t.Errorf("untagged server produced tags %v", e.Tags)
		}
	}
}

func TestPoll_RetriesTransientListErrors(t *testing.T) {
	t.Parallel()

	lister := &scriptedLister{
		errs:      []error{domain.ErrRateLimited},
		responses: [][]domain.Server{nil, {{ID: "s-1", Name: "vm1", Status: "ACTIVE"}}},
	}
	sink := &collectSink{}
	m := &Monitor{Servers: lister, Sink: sink, Retry: retry.Config{MaxAttempts: 3}}

	if err := m.Poll(context.Background()); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if lister.calls != 2 {
		t.Errorf("list calls = %d, want 2", lister.calls)
	}
	if len(sink.snapshot()) != 1 {
		t.Errorf("events = %d, want 1", len(sink.snapshot()))
	}
}

func TestPoll_PermanentErrorSurfaces(t *testing.T) {
	t.Parallel()

	lister := &scriptedLister{errs: []error{domain.ErrUnauthorized}, responses: [][]domain.Server{nil}}
	m := &Monitor{Servers: lister, Sink: &collectSink{}, Retry: retry.Config{MaxAttempts: 3}}

	if err := m.Poll(context.Background()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("Poll() error = %v, want ErrUnauthorized", err)
	}
	if lister.calls != 1 {
		t.Errorf("list calls = %d, want 1", lister.calls)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	lister := &scriptedLister{responses: [][]domain.Server{{{ID: "s-1", Name: "vm1", Status: "ACTIVE"}}}}
	sink := &collectSink{}
	m := &Monitor{Servers: lister, Sink: sink, Interval: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(sink.snapshot()) == 0 {
		select {
		case <-deadline:
			t.Fatal("no event reported")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestMultiSink_JoinsErrors(t *testing.T) {
	t.Parallel()

	first := &collectSink{}
	boom := errors.New("boom")
	sink := MultiSink{first, SinkFunc(func(context.Context, domain.Event) error { return boom })}

	err := sink.Report(context.Background(), domain.Event{ServerID: "s-1"})
	if !errors.Is(err, boom) {
		t.Fatalf("Report() error = %v, want boom", err)
	}
	if len(first.snapshot()) != 1 {
		t.Error("first sink should still receive the event")
	}
}

func TestSupervisor_OnePerRegion(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	built := map[string]int{}
	factory := func(_ context.Context, region string) (*Monitor, error) {
		mu.Lock()
		built[region]++
		mu.Unlock()
		return &Monitor{
			Servers:  &scriptedLister{responses: [][]domain.Server{nil}},
			Sink:     &collectSink{},
			Region:   region,
			Interval: time.Millisecond,
		}, nil
	}

	sup := NewSupervisor(context.Background(), factory, nil)
	ctx := context.Background()
	for _, r := range []string{"r1", "r1", "r2"} {
		if err := sup.Launch(ctx, r); err != nil {
			t.Fatalf("Launch(%q) error = %v", r, err)
		}
	}

	regions := sup.Regions()
	sort.Strings(regions)
	if diff := cmp.Diff([]string{"r1", "r2"}, regions); diff != "" {
		t.Errorf("Regions() mismatch (-want +got):\n%s", diff)
	}

	if err := sup.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(map[string]int{"r1": 1, "r2": 1}, built); diff != "" {
		t.Errorf("factory calls mismatch (-want +got):\n%s", diff)
	}
	if err := sup.Launch(ctx, "r3"); err == nil {
		t.Error("Launch() after Stop() should fail")
	}
}

func TestSupervisor_FactoryError(t *testing.T) {
	t.Parallel()

	sup := NewSupervisor(context.Background(), func(context.Context, string) (*Monitor, error) {
		return nil, domain.ErrUnauthorized
	}, nil)
	t.Cleanup(func() { sup.Stop() })

	if err := sup.Launch(context.Background(), "r1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("Launch() error = %v, want ErrUnauthorized", err)
	}
	if len(sup.Regions()) != 0 {
		t.Error("failed launch must not be retained")
	}
}
