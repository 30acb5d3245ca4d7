package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tenex-chat/tenex-sub007/internal/registry"
)

func newListCmd(basePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list <project>",
		Short: "List conversation ids present on disk for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.New(*basePath)
			reg.Initialize(args[0], nil)

			ids, err := reg.ListConversationIdsFromDisk()
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
