package main

import (
	"fmt"

	"voiceloom/internal/review"
	"voiceloom/internal/timeline"
)

func renderTimelineTable(tl timeline.Timeline) string {
	rows := make([][]string, 0, len(tl.Segments))
	for _, seg := range tl.Segments {
		rows = append(rows, []string{
			seg.ID,
			seg.Label,
			string(seg.Type),
			formatClock(seg.Start),
			formatClock(seg.End),
			formatClock(seg.Duration()),
		})
	}
	return renderTable(
		[]string{"Segment", "Label", "Type", "Start", "End", "Length"},
		rows,
		4, 5, 6,
	)
}

func renderCommandTable(views []review.CommandView) string {
	rows := make([][]string, 0, len(views))
	for _, view := range views {
		rows = append(rows, []string{
			fmt.Sprintf("%d", view.Position+1),
			view.CommandID,
			formatClock(view.StartAbs),
			formatClock(view.EndAbs),
			formatStatusLabel(string(view.Status)),
			fmt.Sprintf("%d", view.RemainingRegenerations),
			truncateText(view.PromptText, 40),
		})
	}
	return renderTable(
		[]string{"#", "Command", "Start", "End", "Status", "Regens Left", "Prompt"},
		rows,
		1, 3, 4, 6,
	)
}

func renderSessionList(summaries []review.SessionSummary) string {
	rows := make([][]string, 0, len(summaries))
	for _, summary := range summaries {
		rows = append(rows, []string{
			summary.ID,
			summary.Title,
			formatClock(summary.Duration),
			fmt.Sprintf("%d/%d", summary.Ready, summary.Commands),
			formatDisplayTime(summary.CreatedAt),
		})
	}
	return renderTable(
		[]string{"Session", "Title", "Duration", "Ready", "Created"},
		rows,
		3, 4,
	)
}
