package experiment

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestCandidates(t *testing.T) {
	keys := []string{"zeta", "inmemory", "alpha", "redis"}

	tests := []struct {
		name     string
		policy   ErrorPolicy
		selected string
		def      string
		want     []string
	}{
		{
			name:     "throw has only the selected",
			policy:   PolicyThrow,
			selected: "redis",
			def:      "inmemory",
			want:     []string{"redis"},
		},
		{
			name:     "replay default appends default",
			policy:   PolicyReplayDefault,
			selected: "redis",
			def:      "inmemory",
			want:     []string{"redis", "inmemory"},
		},
		{
			name:     "replay default dedupes selected default",
			policy:   PolicyReplayDefault,
			selected: "inmemory",
			def:      "inmemory",
			want:     []string{"inmemory"},
		},
		{
			name:     "replay any orders others lexicographically",
			policy:   PolicyReplayAny,
			selected: "redis",
			def:      "inmemory",
			want:     []string{"redis", "alpha", "zeta", "inmemory"},
		},
		{
			name:     "replay any with selected equal to default",
			policy:   PolicyReplayAny,
			selected: "inmemory",
			def:      "inmemory",
			want:     []string{"inmemory", "alpha", "redis", "zeta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := candidates(tt.policy, tt.selected, tt.def, keys)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("candidates() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExecutorThrowPropagatesVerbatim(t *testing.T) {
	errSelected := errors.New("selected exploded")
	def, err := NewBuilder("search").Mode(ConfigValue("k")).
		Default("ok", constFactory("ok")).
		Trial("broken", constFactory("broken")).
		OnError(PolicyThrow).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	inv := &Invocation{SelectedKey: "broken", Do: func(ctx context.Context, impl any) (any, error) {
		return nil, errSelected
	}}
	ex := executor{def: def}
	_, got := ex.run(context.Background(), inv)
	if got != errSelected {
		t.Fatalf("run() error = %v, want the selected trial's error verbatim", got)
	}
	if len(inv.Attempts) != 1 {
		t.Errorf("attempts = %d, want 1 (no fallback under throw)", len(inv.Attempts))
	}
}

func TestExecutorReplayDefaultFallsBack(t *testing.T) {
	defaultCalls := 0
	def, err := NewBuilder("search").Mode(ConfigValue("k")).
		Default("inmemory", func(ctx context.Context) (any, error) {
			defaultCalls++
			return "inmemory", nil
		}).
		Trial("redis", constFactory("redis")).
		OnError(PolicyReplayDefault).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	inv := &Invocation{SelectedKey: "redis", Do: func(ctx context.Context, impl any) (any, error) {
		if impl == "redis" {
			return nil, errBoom
		}
		return impl, nil
	}}
	ex := executor{def: def}
	out, err := ex.run(context.Background(), inv)
	if err != nil {
		t.Fatalf("run() error = %v, want transparent fallback", err)
	}
	if out != "inmemory" {
		t.Errorf("run() = %v, want default result", out)
	}
	if defaultCalls != 1 {
		t.Errorf("default constructed %d times, want exactly 1", defaultCalls)
	}
	if inv.FinalKey != "inmemory" {
		t.Errorf("FinalKey = %q, want %q", inv.FinalKey, "inmemory")
	}
	if len(inv.Attempts) != 2 || inv.Attempts[0].Err == nil || inv.Attempts[1].Err != nil {
		t.Errorf("attempt trail = %+v, want failed redis then successful inmemory", inv.Attempts)
	}
}

func TestExecutorReplayDefaultPropagatesLastError(t *testing.T) {
	errFirst := errors.New("E1")
	errLast := errors.New("E2")
	def, err := NewBuilder("search").Mode(ConfigValue("k")).
		Default("inmemory", constFactory("inmemory")).
		Trial("redis", constFactory("redis")).
		OnError(PolicyReplayDefault).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	inv := &Invocation{SelectedKey: "redis", Do: func(ctx context.Context, impl any) (any, error) {
		if impl == "redis" {
			return nil, errFirst
		}
		return nil, errLast
	}}
	ex := executor{def: def}
	_, got := ex.run(context.Background(), inv)
	if got != errLast {
		t.Fatalf("run() error = %v, want error from the last attempt", got)
	}
}

func TestExecutorReplayAnyExhaustion(t *testing.T) {
	e1 := errors.New("E1")
	e2 := errors.New("E2")
	e3 := errors.New("E3")
	errs := map[string]error{"selected": e1, "other": e2, "fallback": e3}

	def, err := NewBuilder("search").Mode(ConfigValue("k")).
		Default("fallback", constFactory("fallback")).
		Trial("selected", constFactory("selected")).
		Trial("other", constFactory("other")).
		OnError(PolicyReplayAny).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	inv := &Invocation{SelectedKey: "selected", Do: func(ctx context.Context, impl any) (any, error) {
		return nil, errs[impl.(string)]
	}}
	ex := executor{def: def}
	_, got := ex.run(context.Background(), inv)
	if got != e3 {
		t.Fatalf("run() error = %v, want the last candidate's error E3", got)
	}

	order := make([]string, 0, len(inv.Attempts))
	for _, at := range inv.Attempts {
		order = append(order, at.Key)
	}
	want := []string{"selected", "other", "fallback"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("attempt order = %v, want %v", order, want)
	}
}

func TestExecutorConstructionFailureCountsAsAttempt(t *testing.T) {
	def, err := NewBuilder("search").Mode(ConfigValue("k")).
		Default("inmemory", constFactory("inmemory")).
		Trial("redis", failingFactory(errBoom)).
		OnError(PolicyReplayDefault).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	invoked := 0
	inv := &Invocation{SelectedKey: "redis", Do: func(ctx context.Context, impl any) (any, error) {
		invoked++
		return impl, nil
	}}
	ex := executor{def: def}
	out, err := ex.run(context.Background(), inv)
	if err != nil {
		t.Fatalf("run() error = %v, want fallback to default", err)
	}
	if out != "inmemory" {
		t.Errorf("run() = %v", out)
	}
	if invoked != 1 {
		t.Errorf("invoker called %d times, want 1 (construction failure skips invocation)", invoked)
	}
	if len(inv.Attempts) != 2 || inv.Attempts[0].Err == nil {
		t.Errorf("attempt trail = %+v, want failed construction recorded", inv.Attempts)
	}
}

func TestExecutorUnknownSelectedKeyUsesDefault(t *testing.T) {
	def, err := NewBuilder("search").Mode(ConfigValue("k")).
		Default("inmemory", constFactory("inmemory")).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	inv := &Invocation{SelectedKey: "ghost", Do: echoInvoker}
	ex := executor{def: def}
	out, err := ex.run(context.Background(), inv)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if out != "inmemory" {
		t.Errorf("run() = %v, want default implementation", out)
	}
}

func TestExecutorCancellationDoesNotFallBack(t *testing.T) {
	defaultCalls := 0
	def, err := NewBuilder("search").Mode(ConfigValue("k")).
		Default("inmemory", func(ctx context.Context) (any, error) {
			defaultCalls++
			return "inmemory", nil
		}).
		Trial("redis", constFactory("redis")).
		OnError(PolicyReplayAny).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	inv := &Invocation{SelectedKey: "redis", Do: func(c context.Context, impl any) (any, error) {
		cancel()
		return nil, c.Err()
	}}
	ex := executor{def: def}
	_, got := ex.run(ctx, inv)
	if !errors.Is(got, context.Canceled) {
		t.Fatalf("run() error = %v, want context.Canceled", got)
	}
	if defaultCalls != 0 {
		t.Errorf("default attempted after cancellation; fallback is for failures only")
	}
}

func TestExecutorExpiredContextDoesNotFallBack(t *testing.T) {
	defaultCalls := 0
	def, err := NewBuilder("search").Mode(ConfigValue("k")).
		Default("inmemory", func(ctx context.Context) (any, error) {
			defaultCalls++
			return "inmemory", nil
		}).
		Trial("redis", constFactory("redis")).
		OnError(PolicyReplayDefault).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	inv := &Invocation{SelectedKey: "redis", Do: func(c context.Context, impl any) (any, error) {
		return nil, c.Err()
	}}
	ex := executor{def: def}
	_, got := ex.run(ctx, inv)
	if !errors.Is(got, context.DeadlineExceeded) {
		t.Fatalf("run() error = %v, want deadline propagated", got)
	}
	if defaultCalls != 0 {
		t.Errorf("default attempted after invocation deadline expiry")
	}
}

func TestExecutorTrialDeadlineErrorFallsBack(t *testing.T) {
	// A trial's own internal timeout surfaces as DeadlineExceeded while the
	// invocation context is still live; that is a trial failure, and the
	// default must get its turn.
	def, err := NewBuilder("search").Mode(ConfigValue("k")).
		Default("inmemory", constFactory("inmemory")).
		Trial("redis", constFactory("redis")).
		OnError(PolicyReplayDefault).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	inv := &Invocation{SelectedKey: "redis", Do: func(ctx context.Context, impl any) (any, error) {
		if impl.(string) == "redis" {
			return nil, context.DeadlineExceeded
		}
		return impl, nil
	}}
	ex := executor{def: def}
	out, got := ex.run(context.Background(), inv)
	if got != nil {
		t.Fatalf("run() error = %v, want default rescue", got)
	}
	if out != "inmemory" || inv.FinalKey != "inmemory" {
		t.Errorf("rescued by %v (final %q), want inmemory", out, inv.FinalKey)
	}
	if len(inv.Attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(inv.Attempts))
	}
}
