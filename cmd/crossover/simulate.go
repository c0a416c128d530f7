package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/odvcencio/crossover/pkg/experiment"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

// runSimulateCommand previews how sticky routing would split a population of
// identities across a trial set, before any rollout touches production.
func runSimulateCommand(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	selector := fs.String("selector", "", "Sticky routing selector name")
	identities := fs.Int("identities", 10000, "Number of synthetic identities to route")
	var trials stringSliceFlag
	fs.Var(&trials, "trials", "Trial keys (comma separated or repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *selector == "" {
		return fmt.Errorf("usage: crossover simulate -selector <name> -trials <a,b,...> [-identities N]")
	}
	if len(trials) < 2 {
		return fmt.Errorf("at least two trial keys are required")
	}
	if *identities <= 0 {
		return fmt.Errorf("identities must be positive")
	}

	counts := make(map[string]int, len(trials))
	for i := 0; i < *identities; i++ {
		identity := fmt.Sprintf("identity-%d", i)
		key := experiment.Route(identity, *selector, trials)
		counts[key]++
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Printf("Sticky distribution for selector %q over %d identities:\n\n", *selector, *identities)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tIDENTITIES\tSHARE")
	for _, key := range keys {
		share := float64(counts[key]) / float64(*identities) * 100
		fmt.Fprintf(w, "%s\t%d\t%.2f%%\n", key, counts[key], share)
	}
	return w.Flush()
}
