package main

import (
	"fmt"
	"os"
	"strings"
)

// Version information - set via ldflags during build
var (
	version   = "1.0.0-dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		err = runValidateCommand(os.Args[2:])
	case "simulate":
		err = runSimulateCommand(os.Args[2:])
	case "report":
		err = runReportCommand(os.Args[2:])
	case "serve":
		err = runServeCommand(os.Args[2:])
	case "version":
		fmt.Printf("crossover %s (%s, built %s)\n", version, commit, buildDate)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	usage := `crossover - invocation routing engine tooling

Usage:
  crossover validate -config <file>        Validate a routing config file
  crossover simulate -selector <name> ...  Preview sticky routing distribution
  crossover report -db <file> -contract <id>  Compare trial outcomes
  crossover serve -db <file> [-addr :8080] Serve reports and metrics over HTTP
  crossover version                        Print version information
`
	fmt.Fprint(os.Stderr, strings.TrimLeft(usage, "\n"))
}
