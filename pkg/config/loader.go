// Package config loads routing definitions from YAML. The file names
// contracts, trials, modes, policies, and decorators; the Catalog supplies
// the code those names refer to. Unknown references fail the load.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/odvcencio/crossover/pkg/experiment"
)

// File is the root of a routing config document.
type File struct {
	Experiments []Experiment `yaml:"experiments"`
}

// Experiment declares one routed contract.
type Experiment struct {
	Contract   string   `yaml:"contract"`
	Mode       Mode     `yaml:"mode"`
	Default    string   `yaml:"default"`
	Trials     []string `yaml:"trials"`
	OnError    string   `yaml:"on_error"`
	Window     Window   `yaml:"window"`
	Decorators []string `yaml:"decorators"`
}

// Mode declares the selection strategy. Exactly one parameter field applies,
// matching Kind; flag and key may stay empty to derive from the contract id.
type Mode struct {
	Kind     string `yaml:"kind"`
	Flag     string `yaml:"flag"`
	Key      string `yaml:"key"`
	Selector string `yaml:"selector"`
	Resolver string `yaml:"resolver"`
}

// Window declares an optional half-open activation window.
type Window struct {
	From  time.Time `yaml:"from"`
	Until time.Time `yaml:"until"`
}

// Load reads and validates a config file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate checks the document shape before any catalog lookups.
func (f *File) Validate() error {
	seen := make(map[string]bool, len(f.Experiments))
	for i := range f.Experiments {
		exp := &f.Experiments[i]
		if strings.TrimSpace(exp.Contract) == "" {
			return fmt.Errorf("experiment %d: contract is required", i)
		}
		if seen[exp.Contract] {
			return fmt.Errorf("experiment %q declared twice", exp.Contract)
		}
		seen[exp.Contract] = true

		switch experiment.ModeKind(exp.Mode.Kind) {
		case experiment.ModeBooleanFlag, experiment.ModeConfigValue,
			experiment.ModeVariantFlag, experiment.ModeSticky:
		case experiment.ModeCustom:
			if strings.TrimSpace(exp.Mode.Resolver) == "" {
				return fmt.Errorf("experiment %q: custom mode requires a resolver id", exp.Contract)
			}
		default:
			return fmt.Errorf("experiment %q: unknown mode kind %q", exp.Contract, exp.Mode.Kind)
		}

		if strings.TrimSpace(exp.Default) == "" {
			return fmt.Errorf("experiment %q: default trial is required", exp.Contract)
		}
		switch experiment.ErrorPolicy(exp.OnError) {
		case "", experiment.PolicyThrow, experiment.PolicyReplayDefault, experiment.PolicyReplayAny:
		default:
			return fmt.Errorf("experiment %q: unknown error policy %q", exp.Contract, exp.OnError)
		}
	}
	return nil
}

// Build turns every declared experiment into a Definition using the catalog.
// A trial list left empty in the file uses every factory registered for the
// contract.
func (f *File) Build(catalog *Catalog) (map[string]*experiment.Definition, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}

	definitions := make(map[string]*experiment.Definition, len(f.Experiments))
	for i := range f.Experiments {
		exp := &f.Experiments[i]
		def, err := exp.build(catalog)
		if err != nil {
			return nil, err
		}
		definitions[exp.Contract] = def
	}
	return definitions, nil
}

func (e *Experiment) build(catalog *Catalog) (*experiment.Definition, error) {
	builder := experiment.NewBuilder(e.Contract).
		Mode(e.selectionMode()).
		OnError(experiment.ErrorPolicy(e.OnError)).
		Window(e.Window.From, e.Window.Until)

	keys := e.Trials
	if len(keys) == 0 {
		keys = catalog.trialKeys(e.Contract)
	}
	for _, key := range keys {
		factory, ok := catalog.factory(e.Contract, key)
		if !ok {
			return nil, fmt.Errorf("experiment %q: no factory registered for trial %q", e.Contract, key)
		}
		if key == e.Default {
			builder.Default(key, factory)
		} else {
			builder.Trial(key, factory)
		}
	}

	for _, name := range e.Decorators {
		d, ok := catalog.decorator(name)
		if !ok {
			return nil, fmt.Errorf("experiment %q: no decorator registered as %q", e.Contract, name)
		}
		builder.Decorate(d)
	}

	return builder.Build()
}

func (e *Experiment) selectionMode() experiment.SelectionMode {
	switch experiment.ModeKind(e.Mode.Kind) {
	case experiment.ModeBooleanFlag:
		return experiment.BooleanFlag(e.Mode.Flag)
	case experiment.ModeConfigValue:
		return experiment.ConfigValue(e.Mode.Key)
	case experiment.ModeVariantFlag:
		return experiment.VariantFlag(e.Mode.Flag)
	case experiment.ModeSticky:
		return experiment.StickyRouting(e.Mode.Selector)
	case experiment.ModeCustom:
		return experiment.CustomMode(e.Mode.Resolver)
	default:
		return experiment.SelectionMode{Kind: experiment.ModeKind(e.Mode.Kind)}
	}
}
