package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scanJSON bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the pipeline for every vehicle of the demo fleet concurrently",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print results and failures as JSON")
}

func runScan(cmd *cobra.Command, _ []string) error {
	k, err := newKernel()
	if err != nil {
		return err
	}
	defer k.Close()

	result, err := k.Orchestrator().ScanFleet(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if scanJSON {
		return writeJSON(out, result)
	}
	for _, r := range result.Results {
		printScanRow(out, r)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "%-5s failed: %v\n", e.Item.VehicleID, e.Err)
	}
	return nil
}
