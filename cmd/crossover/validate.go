package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/odvcencio/crossover/pkg/config"
)

func runValidateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	configPath := fs.String("config", "crossover.yaml", "Path to the routing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	file, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d experiment(s) valid\n\n", *configPath, len(file.Experiments))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONTRACT\tMODE\tDEFAULT\tTRIALS\tPOLICY\tDECORATORS")
	for _, exp := range file.Experiments {
		policy := exp.OnError
		if policy == "" {
			policy = "throw"
		}
		trials := strings.Join(exp.Trials, ",")
		if trials == "" {
			trials = "(all registered)"
		}
		decorators := strings.Join(exp.Decorators, ",")
		if decorators == "" {
			decorators = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			exp.Contract, describeMode(exp.Mode), exp.Default, trials, policy, decorators)
	}
	return w.Flush()
}

func describeMode(mode config.Mode) string {
	switch mode.Kind {
	case "boolean_flag", "variant_flag":
		if mode.Flag != "" {
			return fmt.Sprintf("%s(%s)", mode.Kind, mode.Flag)
		}
	case "config_value":
		if mode.Key != "" {
			return fmt.Sprintf("%s(%s)", mode.Kind, mode.Key)
		}
	case "sticky":
		if mode.Selector != "" {
			return fmt.Sprintf("%s(%s)", mode.Kind, mode.Selector)
		}
	case "custom":
		return fmt.Sprintf("%s(%s)", mode.Kind, mode.Resolver)
	}
	return mode.Kind
}
