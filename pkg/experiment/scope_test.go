package experiment

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestScopeCacheMemoizesPerScope(t *testing.T) {
	cache := NewScopeCache()
	calls := 0
	resolve := func(ctx context.Context) (string, error) {
		calls++
		return fmt.Sprintf("key-%d", calls), nil
	}

	first, err := cache.GetOrResolve(context.Background(), "req-1", "search", resolve)
	if err != nil {
		t.Fatalf("GetOrResolve() error = %v", err)
	}
	second, err := cache.GetOrResolve(context.Background(), "req-1", "search", resolve)
	if err != nil {
		t.Fatalf("GetOrResolve() error = %v", err)
	}
	if first != second {
		t.Errorf("same scope observed %q then %q", first, second)
	}
	if calls != 1 {
		t.Errorf("resolve invoked %d times within one scope, want 1", calls)
	}

	other, err := cache.GetOrResolve(context.Background(), "req-2", "search", resolve)
	if err != nil {
		t.Fatalf("GetOrResolve() error = %v", err)
	}
	if other == first {
		t.Errorf("different scope reused the cached selection %q", first)
	}
}

func TestScopeCacheSeparatesExperiments(t *testing.T) {
	cache := NewScopeCache()
	for _, exp := range []string{"search", "billing"} {
		exp := exp
		got, err := cache.GetOrResolve(context.Background(), "req-1", exp, func(ctx context.Context) (string, error) {
			return exp + "-trial", nil
		})
		if err != nil {
			t.Fatalf("GetOrResolve(%q) error = %v", exp, err)
		}
		if got != exp+"-trial" {
			t.Errorf("GetOrResolve(%q) = %q", exp, got)
		}
	}
}

func TestScopeCacheEmptyScopeBypasses(t *testing.T) {
	cache := NewScopeCache()
	calls := 0
	resolve := func(ctx context.Context) (string, error) {
		calls++
		return "k", nil
	}
	for i := 0; i < 3; i++ {
		if _, err := cache.GetOrResolve(context.Background(), "", "search", resolve); err != nil {
			t.Fatalf("GetOrResolve() error = %v", err)
		}
	}
	if calls != 3 {
		t.Errorf("resolve invoked %d times with empty scope, want 3 (no caching)", calls)
	}
}

func TestScopeCacheEndScopeDiscards(t *testing.T) {
	cache := NewScopeCache()
	values := []string{"old", "new"}
	calls := 0
	resolve := func(ctx context.Context) (string, error) {
		v := values[calls]
		calls++
		return v, nil
	}

	got, _ := cache.GetOrResolve(context.Background(), "req-1", "search", resolve)
	if got != "old" {
		t.Fatalf("first resolution = %q", got)
	}
	cache.EndScope("req-1")
	got, _ = cache.GetOrResolve(context.Background(), "req-1", "search", resolve)
	if got != "new" {
		t.Errorf("resolution after EndScope = %q, want fresh value", got)
	}
}

func TestScopeCacheConcurrentSingleResolve(t *testing.T) {
	cache := NewScopeCache()
	var calls atomic.Int32
	gate := make(chan struct{})
	resolve := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-gate
		return "winner", nil
	}

	const workers = 32
	results := make([]string, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			got, err := cache.GetOrResolve(context.Background(), "req-1", "search", resolve)
			if err != nil {
				t.Errorf("GetOrResolve() error = %v", err)
			}
			results[i] = got
		}(i)
	}
	close(gate)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("resolve invoked %d times under concurrency, want 1", n)
	}
	for i, got := range results {
		if got != "winner" {
			t.Errorf("worker %d observed %q, want %q", i, got, "winner")
		}
	}
}

func TestScopeCacheConcurrentScopesIndependent(t *testing.T) {
	cache := NewScopeCache()
	const scopes = 16
	var wg sync.WaitGroup
	wg.Add(scopes)
	for i := 0; i < scopes; i++ {
		go func(i int) {
			defer wg.Done()
			scope := fmt.Sprintf("scope-%d", i)
			want := fmt.Sprintf("trial-%d", i)
			for j := 0; j < 50; j++ {
				got, err := cache.GetOrResolve(context.Background(), scope, "search", func(ctx context.Context) (string, error) {
					return want, nil
				})
				if err != nil || got != want {
					t.Errorf("scope %q observed (%q, %v), want %q", scope, got, err, want)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
