package main

import (
	"flag"
	"fmt"

	"github.com/odvcencio/crossover/pkg/audit"
	"github.com/odvcencio/crossover/pkg/report"
)

func runReportCommand(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	dbPath := fs.String("db", "crossover.db", "Path to the audit database")
	contract := fs.String("contract", "", "Contract to report on (empty lists contracts)")
	limit := fs.Int("limit", 0, "Analyze only the most recent N records (0 = all)")
	compact := fs.Bool("compact", false, "One-line summary per trial")
	noColor := fs.Bool("no-color", false, "Disable color output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := audit.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if *contract == "" {
		contracts, err := store.Contracts()
		if err != nil {
			return err
		}
		if len(contracts) == 0 {
			fmt.Println("no invocation records on file")
			return nil
		}
		fmt.Println("Contracts with records:")
		for _, c := range contracts {
			fmt.Printf("  %s\n", c)
		}
		return nil
	}

	reporter := report.NewTerminalReporter(report.NewComparator(store))
	reporter.SetNoColor(*noColor)
	if *compact {
		return reporter.RenderCompact(*contract, *limit)
	}
	return reporter.RenderReport(*contract, *limit)
}
