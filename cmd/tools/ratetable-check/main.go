// cmd/tools/ratetable-check/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"cpq-workers/internal/pricing/rates"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	dumpCmd := flag.NewFlagSet("dump", flag.ExitOnError)

	// Validate command flags
	validatePath := validateCmd.String("path", "configs/rates.json", "Path to rate table file")

	// Dump command flags
	dumpOut := dumpCmd.String("out", "", "Write the built-in table to this file instead of stdout")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateTable(*validatePath); err != nil {
			fmt.Printf("Rate table validation failed: %v\n", err)
			os.Exit(1)
		}

	case "dump":
		dumpCmd.Parse(os.Args[2:])
		if err := dumpDefaults(*dumpOut); err != nil {
			fmt.Printf("Error dumping rate table: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func validateTable(path string) error {
	table, err := rates.LoadFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("Rate table validation passed: %s\n", path)
	fmt.Printf("  Disciplines:    %d\n", len(table.VendorRates))
	fmt.Printf("  Risk flags:     %d\n", len(table.RiskPercents))
	fmt.Printf("  Payment terms:  %d\n", len(table.PaymentPercents))
	fmt.Printf("  Tier-A bands:   %d\n", len(table.TierA.ScanCosts))
	fmt.Printf("  Margin band:    [%.2f, %.2f], floor %.2f\n",
		table.MarginBand.Min, table.MarginBand.Max, table.MarginFloor)
	return nil
}

// dumpDefaults writes the built-in table as JSON, as a starting point for an
// override file.
func dumpDefaults(out string) error {
	data, err := json.MarshalIndent(rates.Default(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rate table: %w", err)
	}
	data = append(data, '\n')

	if out == "" {
		os.Stdout.Write(data)
		return nil
	}

	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to write rate table file: %w", err)
	}
	fmt.Printf("Wrote built-in rate table to %s\n", out)
	return nil
}

func help() {
	fmt.Print(`
Usage: ratetable-check <command> [flags]

Commands:
  validate  Load and validate a rate table file
  dump      Print the built-in rate table as JSON
  help      Show this help message

Examples:
  ratetable-check validate -path configs/rates.json
  ratetable-check dump -out /tmp/rates.json

Use 'ratetable-check <command> -h' for more information about a command.
`)
}
