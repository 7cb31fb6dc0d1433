package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"voiceloom/internal/review"
)

func newBoundaryCommand(ctx *commandContext) *cobra.Command {
	boundaryCmd := &cobra.Command{
		Use:   "boundary",
		Short: "Adjust where a command's selection ends",
	}

	boundaryCmd.AddCommand(newBoundaryClickCommand(ctx))
	boundaryCmd.AddCommand(newBoundaryDragCommand(ctx))
	boundaryCmd.AddCommand(newBoundaryCutCommand(ctx))
	return boundaryCmd
}

func newBoundaryClickCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "click COMMAND WORD",
		Short: "Snap the end boundary to a transcript word (1-based index)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			word, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil || word < 1 {
				return fmt.Errorf("invalid word index %q: expected a positive number", args[1])
			}
			return ctx.withManager(cmd, true, func(runCtx context.Context, mgr *review.Manager) error {
				if _, err := mgr.ClickWord(runCtx, args[0], word-1); err != nil {
					return err
				}
				return printBoundary(cmd, mgr, args[0])
			})
		},
	}
}

func newBoundaryDragCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "drag COMMAND START END",
		Short: "Drag both boundary handles (snippet-relative seconds)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseSeconds(args[1], "start")
			if err != nil {
				return err
			}
			end, err := parseSeconds(args[2], "end")
			if err != nil {
				return err
			}
			return ctx.withManager(cmd, true, func(runCtx context.Context, mgr *review.Manager) error {
				if _, err := mgr.DragMarker(runCtx, args[0], start, end); err != nil {
					return err
				}
				return printBoundary(cmd, mgr, args[0])
			})
		},
	}
}

func newBoundaryCutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cut COMMAND PLAYHEAD",
		Short: "Cut the end boundary at the playhead (snippet-relative seconds)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			playhead, err := parseSeconds(args[1], "playhead")
			if err != nil {
				return err
			}
			return ctx.withManager(cmd, true, func(runCtx context.Context, mgr *review.Manager) error {
				if _, err := mgr.Cut(runCtx, args[0], playhead); err != nil {
					return err
				}
				return printBoundary(cmd, mgr, args[0])
			})
		},
	}
}

func printBoundary(cmd *cobra.Command, mgr *review.Manager, commandID string) error {
	view, err := mgr.Command(commandID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s selection: %.2fs-%.2fs (ends at %s)\n",
		view.CommandID, view.Boundary.StartRelative, view.Boundary.EndRelative, formatClock(view.EndAbs))
	fmt.Fprintf(out, "Prompt: %s\n", view.PromptText)
	return nil
}
