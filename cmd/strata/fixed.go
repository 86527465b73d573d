package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/strata/pkg/ports"
	"github.com/spf13/cobra"
)

var fixedCmd = &cobra.Command{
	Use:   "fixed",
	Short: "Manage persisted fixed values",
	Long:  `Lists, inspects and removes the fixed values held by the configured store.`,
}

var fixedListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List persisted keys",
	Run: func(cmd *cobra.Command, args []string) {
		if err := withStore(cmd, func(store ports.FixedStore) error {
			keys, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No fixed values.")
				return nil
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		}); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var fixedInspectCmd = &cobra.Command{
	Use:   "inspect <key>",
	Short: "Print a persisted record as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := withStore(cmd, func(store ports.FixedStore) error {
			rec, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var fixedRemoveCmd = &cobra.Command{
	Use:   "rm <key>...",
	Short: "Delete persisted records",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := withStore(cmd, func(store ports.FixedStore) error {
			for _, key := range args {
				if err := store.Delete(cmd.Context(), key); err != nil {
					return fmt.Errorf("failed to delete %s: %w", key, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", key)
			}
			return nil
		}); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(fixedCmd)
	fixedCmd.AddCommand(fixedListCmd, fixedInspectCmd, fixedRemoveCmd)
}

func withStore(cmd *cobra.Command, fn func(ports.FixedStore) error) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	backend, err := cfg.OpenStore(cmd.Context())
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(backend.Store)
}
