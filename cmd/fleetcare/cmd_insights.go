package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Summarise the maintenance corpus by component",
	RunE: func(cmd *cobra.Command, _ []string) error {
		k, err := newKernel()
		if err != nil {
			return err
		}
		defer k.Close()

		insights := k.Orchestrator().Insights(cmd.Context())
		out := cmd.OutOrStdout()
		for _, b := range insights.Bullets {
			fmt.Fprintf(out, "- %s\n", b)
		}
		fmt.Fprintf(out, "\n%s\n", insights.Summary)
		return nil
	},
}
