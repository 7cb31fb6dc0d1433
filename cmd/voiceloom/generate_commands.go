package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"voiceloom/internal/review"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var regenerate bool

	cmd := &cobra.Command{
		Use:   "generate COMMAND",
		Short: "Request a voice response for a command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, true, func(runCtx context.Context, mgr *review.Manager) error {
				resp, err := mgr.Generate(runCtx, args[0], regenerate)
				if err != nil {
					view, viewErr := mgr.Command(args[0])
					if viewErr == nil && view.FailureMessage != "" {
						fmt.Fprintln(cmd.OutOrStdout(), view.FailureMessage)
					}
					return err
				}

				out := cmd.OutOrStdout()
				if regenerate {
					view, viewErr := mgr.Command(args[0])
					remaining := "?"
					if viewErr == nil {
						remaining = fmt.Sprintf("%d", view.RemainingRegenerations)
					}
					fmt.Fprintf(out, "Regenerated %s (take %d, %s left)\n", args[0], resp.RegenerateCount+1, remaining)
				} else {
					fmt.Fprintf(out, "Generated %s\n", args[0])
				}
				fmt.Fprintln(out, resp.Text)
				if resp.AudioURL != "" {
					fmt.Fprintf(out, "Audio: %s\n", resp.AudioURL)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&regenerate, "regenerate", "r", false, "Replace the existing response (counts against the quota)")
	return cmd
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear COMMAND",
		Short: "Discard a command's response and return it to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, true, func(runCtx context.Context, mgr *review.Manager) error {
				if err := mgr.ClearResponse(runCtx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", args[0])
				return nil
			})
		},
	}
}
