package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"voiceloom/internal/review"
	"voiceloom/internal/timeline"
)

func newTimelineCommand(ctx *commandContext) *cobra.Command {
	timelineCmd := &cobra.Command{
		Use:   "timeline",
		Short: "Inspect and edit the session's segment layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, true, func(runCtx context.Context, mgr *review.Manager) error {
				tl, err := mgr.Timeline()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTimelineTable(tl))
				return nil
			})
		},
	}

	timelineCmd.AddCommand(newTimelineSplitCommand(ctx))
	timelineCmd.AddCommand(newTimelineAdBreakCommand(ctx))
	timelineCmd.AddCommand(newTimelineRemoveCommand(ctx))
	return timelineCmd
}

func newTimelineSplitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "split SEGMENT",
		Short: "Split a segment into two halves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, true, func(runCtx context.Context, mgr *review.Manager) error {
				tl, err := mgr.SplitSegment(runCtx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Segment %s split\n\n", args[0])
				fmt.Fprintln(out, renderTimelineTable(tl))
				return nil
			})
		},
	}
}

func newTimelineAdBreakCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ad-break",
		Short: "Insert an ad break into the longest main segment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, true, func(runCtx context.Context, mgr *review.Manager) error {
				tl, err := mgr.InsertAdBreak(runCtx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, seg := range tl.Segments {
					if seg.Type == timeline.SegmentAd {
						fmt.Fprintf(out, "Ad break %s placed at %s-%s\n", seg.ID, formatClock(seg.Start), formatClock(seg.End))
					}
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTimelineTable(tl))
				return nil
			})
		},
	}
}

func newTimelineRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove SEGMENT",
		Short: "Remove an ad or custom segment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, true, func(runCtx context.Context, mgr *review.Manager) error {
				tl, err := mgr.RemoveSegment(runCtx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Segment %s removed\n\n", args[0])
				fmt.Fprintln(out, renderTimelineTable(tl))
				return nil
			})
		},
	}
}
