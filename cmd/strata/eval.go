package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/strata/internal/presentation/tui"
	"github.com/aretw0/strata/pkg/model"
	"github.com/spf13/cobra"
)

// cliScenario holds the what-ifs given with --whatif.
const cliScenario = "cli"

var evalCmd = &cobra.Command{
	Use:   "eval [nodes...]",
	Short: "Evaluate model nodes",
	Long: `Evaluates the given nodes (all nodes by default) inside the scenarios given with
--scenario, entered in order. --set fixes values in the base store and persists
stored nodes; --whatif applies values only for this evaluation.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runEval(cmd, args); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringArrayP("scenario", "s", nil, "Scenario to enter (repeatable, nested in order)")
	evalCmd.Flags().StringArray("set", nil, "Fix a value in the base store, as Node=value (repeatable)")
	evalCmd.Flags().StringArray("whatif", nil, "Apply a what-if for this run, as Node=value (repeatable)")
	evalCmd.Flags().StringP("format", "f", tui.FormatText, "Output format: text, json or markdown")
	evalCmd.Flags().Bool("banner", false, "Print the banner first")
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	scenarios, _ := cmd.Flags().GetStringArray("scenario")
	sets, _ := cmd.Flags().GetStringArray("set")
	whatifs, _ := cmd.Flags().GetStringArray("whatif")
	format, _ := cmd.Flags().GetString("format")
	banner, _ := cmd.Flags().GetBool("banner")

	setValues, err := parseAssignments(sets)
	if err != nil {
		return err
	}
	whatifValues, err := parseAssignments(whatifs)
	if err != nil {
		return err
	}

	eng, closeStore, err := openEngine(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	for _, a := range setValues {
		if err := eng.Set(a.node, a.value); err != nil {
			return err
		}
	}
	if len(whatifValues) > 0 {
		if err := eng.AddScenario(cliScenario); err != nil {
			return err
		}
		for _, a := range whatifValues {
			if err := eng.SetWhatIf(cliScenario, a.node, a.value); err != nil {
				return err
			}
		}
		scenarios = append(scenarios, cliScenario)
	}

	entries, err := eng.Eval(scenarios, args...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if banner {
		tui.PrintBanner(out)
	}
	return tui.NewRenderer(out).Render(format, entries)
}

type assignment struct {
	node  string
	value any
}

// parseAssignments splits Node=value pairs, decoding values as YAML scalars.
func parseAssignments(raw []string) ([]assignment, error) {
	out := make([]assignment, 0, len(raw))
	for _, r := range raw {
		node, value, ok := strings.Cut(r, "=")
		if !ok || strings.TrimSpace(node) == "" {
			return nil, fmt.Errorf("invalid assignment %q (want Node=value)", r)
		}
		v, err := model.ParseValue(value)
		if err != nil {
			return nil, err
		}
		out = append(out, assignment{node: strings.TrimSpace(node), value: v})
	}
	return out, nil
}
