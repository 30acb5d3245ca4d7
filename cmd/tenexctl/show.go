package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tenex-chat/tenex-sub007/internal/convo"
	"github.com/tenex-chat/tenex-sub007/internal/identity"
	"github.com/tenex-chat/tenex-sub007/internal/naming"
)

func newShowCmd(basePath *string) *cobra.Command {
	var agent string
	var ral int

	cmd := &cobra.Command{
		Use:   "show <project> <conversation>",
		Short: "Build and print the message view an agent would see for one RAL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, conversation := args[0], args[1]
			if agent == "" {
				return fmt.Errorf("--agent is required")
			}

			st := convo.New(*basePath, project, conversation)
			if err := st.Load(); err != nil {
				return fmt.Errorf("loading conversation: %w", err)
			}

			namer := naming.NewStatic(nil)
			agents := identity.NewSet([]string{agent})

			msgs, err := st.BuildMessagesForRal(context.Background(), agent, ral, namer, agents)
			if err != nil {
				return fmt.Errorf("building view: %w", err)
			}

			for i, m := range msgs {
				printMessage(cmd, i, m)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "viewing agent pubkey")
	cmd.Flags().IntVar(&ral, "ral", 1, "viewing RAL number")
	return cmd
}

func printMessage(cmd *cobra.Command, index int, m convo.Message) {
	switch {
	case m.ToolCalls != nil:
		fmt.Fprintf(cmd.OutOrStdout(), "%d %s tool-calls=%d\n", index, m.Role, len(m.ToolCalls))
	case m.ToolResults != nil:
		fmt.Fprintf(cmd.OutOrStdout(), "%d %s tool-results=%d\n", index, m.Role, len(m.ToolResults))
	case m.Parts != nil:
		fmt.Fprintf(cmd.OutOrStdout(), "%d %s parts=%d\n", index, m.Role, len(m.Parts))
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%d %s %q\n", index, m.Role, m.Text)
	}
}
