package providers

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// fileDocument is the on-disk shape served by FileProvider.
type fileDocument struct {
	Flags    map[string]bool   `yaml:"flags"`
	Variants map[string]string `yaml:"variants"`
	Values   map[string]string `yaml:"values"`
}

// FileProvider serves flags, variants, and configuration values from a YAML
// file and hot-reloads it on change. One provider can back all three
// provider interfaces of the engine.
//
// The file looks like:
//
//	flags:
//	  search.v2: true
//	variants:
//	  search.variant: redis
//	values:
//	  search.engine: redis
type FileProvider struct {
	path    string
	mu      sync.RWMutex
	doc     fileDocument
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileProvider loads the file and starts watching it for rewrites.
func NewFileProvider(path string) (*FileProvider, error) {
	p := &FileProvider{path: path, done: make(chan struct{})}
	if err := p.reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	p.watcher = watcher
	go p.watch()
	return p, nil
}

func (p *FileProvider) watch() {
	for {
		select {
		case <-p.done:
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				// Stale content is preferable to dropping the document on a
				// half-written file; reload errors keep the previous state.
				_ = p.reload()
			}
		case _, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Reload re-reads the file immediately. Useful when the caller knows the
// file changed and cannot wait for the watcher.
func (p *FileProvider) Reload() error { return p.reload() }

func (p *FileProvider) reload() error {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", p.path, err)
	}
	var doc fileDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", p.path, err)
	}
	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()
	return nil
}

// IsEnabled implements experiment.FlagProvider.
func (p *FileProvider) IsEnabled(ctx context.Context, name string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.doc.Flags[name], nil
}

// Variant implements experiment.FlagProvider.
func (p *FileProvider) Variant(ctx context.Context, name string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.doc.Variants[name], nil
}

// Value implements experiment.ConfigProvider.
func (p *FileProvider) Value(ctx context.Context, key string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.doc.Values[key], nil
}

// Close stops the watcher.
func (p *FileProvider) Close() error {
	close(p.done)
	if p.watcher != nil {
		return p.watcher.Close()
	}
	return nil
}
