package experiment

import (
	"context"
	"errors"
	"sync"
)

// Test doubles for the provider interfaces.

type stubFlags struct {
	enabled  map[string]bool
	variants map[string]string
	err      error
	calls    int
}

func (s *stubFlags) IsEnabled(ctx context.Context, name string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.enabled[name], nil
}

func (s *stubFlags) Variant(ctx context.Context, name string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.variants[name], nil
}

type stubConfig struct {
	mu     sync.Mutex
	values map[string]string
	err    error
	calls  int
}

func (s *stubConfig) Value(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.values[key], nil
}

func (s *stubConfig) set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
}

type stubIdentity struct {
	id    string
	found bool
}

func (s *stubIdentity) Identity(ctx context.Context) (string, bool) { return s.id, s.found }

// constFactory returns impl from every construction.
func constFactory(impl any) Factory {
	return func(ctx context.Context) (any, error) { return impl, nil }
}

// failingFactory fails every construction with err.
func failingFactory(err error) Factory {
	return func(ctx context.Context) (any, error) { return nil, err }
}

var errBoom = errors.New("boom")

// echoInvoker returns the resolved implementation as the call result.
func echoInvoker(ctx context.Context, impl any) (any, error) { return impl, nil }
