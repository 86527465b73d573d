package main

import (
	"fmt"
	"os"

	"github.com/aretw0/strata"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [model]",
	Short: "Check a model file",
	Long:  `Parses the model, checks names, flags and scenario what-ifs, and compiles every formula.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Model is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("model")
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		path = os.Getenv("STRATA_MODEL")
	}
	if path == "" {
		return fmt.Errorf("no model given")
	}
	_, err := strata.Open(path)
	return err
}
