package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the dependency graph visualization",
	Long: `Evaluates every node of the model and outputs a Mermaid diagram of the dependencies
discovered, styled by the state of each node inside the given scenarios.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		scenarios, _ := cmd.Flags().GetStringArray("scenario")

		eng, closeStore, err := openEngine(cmd.Context(), cfg, logger)
		if err != nil {
			fmt.Printf("Error initializing strata: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		output, err := eng.Mermaid(scenarios)
		if err != nil {
			fmt.Printf("Error inspecting graph: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprint(cmd.OutOrStdout(), output)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringArrayP("scenario", "s", nil, "Scenario to enter (repeatable, nested in order)")
}
