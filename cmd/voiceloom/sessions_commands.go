package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"voiceloom/internal/review"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored review sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, false, func(runCtx context.Context, mgr *review.Manager) error {
				summaries, err := mgr.ListSessions(runCtx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, summaries)
				}
				out := cmd.OutOrStdout()
				if len(summaries) == 0 {
					fmt.Fprintln(out, "No sessions imported yet")
					return nil
				}
				fmt.Fprintln(out, renderSessionList(summaries))
				return nil
			})
		},
	}

	sessionsCmd.Flags().BoolVar(&asJSON, "json", false, "Emit session list as JSON")
	sessionsCmd.AddCommand(newSessionsDeleteCommand(ctx))
	return sessionsCmd
}

func newSessionsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete SESSION",
		Short: "Delete a stored session and its commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, false, func(runCtx context.Context, mgr *review.Manager) error {
				deleted, err := mgr.DeleteSession(runCtx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !deleted {
					fmt.Fprintf(out, "Session %s not found\n", args[0])
					return nil
				}
				fmt.Fprintf(out, "Session %s deleted\n", args[0])
				return nil
			})
		},
	}
}
