package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"voiceloom/internal/review"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the session timeline and command states",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, true, func(runCtx context.Context, mgr *review.Manager) error {
				session, _ := mgr.Session()
				views, err := mgr.Commands()
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, sessionDetailJSON(session, views))
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session %s: %q\n", session.ID, session.Title)
				fmt.Fprintf(out, "Duration %s, imported %s\n", formatClock(session.Duration), formatDisplayTime(session.CreatedAt))
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTimelineTable(session.Timeline))
				if len(views) == 0 {
					fmt.Fprintln(out, "No voice commands detected")
					return nil
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderCommandTable(views))
				for _, view := range views {
					if view.FailureMessage != "" {
						fmt.Fprintf(out, "%s: %s\n", view.CommandID, view.FailureMessage)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit session details as JSON")
	return cmd
}

func sessionDetailJSON(session *review.Session, views []review.CommandView) any {
	type jsonSegment struct {
		ID    string  `json:"id"`
		Label string  `json:"label"`
		Type  string  `json:"type"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	}
	segments := make([]jsonSegment, 0, len(session.Timeline.Segments))
	for _, seg := range session.Timeline.Segments {
		segments = append(segments, jsonSegment{
			ID:    seg.ID,
			Label: seg.Label,
			Type:  string(seg.Type),
			Start: seg.Start,
			End:   seg.End,
		})
	}
	return map[string]any{
		"session": map[string]any{
			"id":         session.ID,
			"title":      session.Title,
			"duration_s": session.Duration,
			"created_at": session.CreatedAt,
			"updated_at": session.UpdatedAt,
		},
		"segments": segments,
		"commands": views,
	}
}
