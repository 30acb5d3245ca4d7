// Command tenexctl is operator/debug tooling over the conversation store
// library: inspecting an on-disk conversation, replaying the view an agent
// runtime would see, and listing known conversation ids. It is not the
// product CLI (out of scope per §1 of the specification this library
// implements) — the same relationship the teacher's cmd/doctor.go and
// cmd/migrate.go have to its real gateway surface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tenex-chat/tenex-sub007/internal/config"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var basePath string

	cmd := &cobra.Command{
		Use:   "tenexctl",
		Short: "Inspect conversation-store state on disk",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if !cmd.Flags().Changed("base") {
				basePath = config.ExpandHome(cfg.StorageBasePath)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "tenexctl.json", "path to config file (optional, missing file is fine)")
	cmd.PersistentFlags().StringVar(&basePath, "base", ".", "base directory containing projects/<id>/conversations/ (overrides config's storage_base_path)")

	cmd.AddCommand(newShowCmd(&basePath))
	cmd.AddCommand(newListCmd(&basePath))
	return cmd
}
