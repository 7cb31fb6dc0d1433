package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"voiceloom/internal/assembly"
	"voiceloom/internal/config"
	"voiceloom/internal/review"
)

func newAssembleCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var outputPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Produce the final insertion list for the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, true, func(runCtx context.Context, mgr *review.Manager) error {
				rows, complete, err := mgr.Assemble(runCtx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				missing := mgr.MissingResponses()
				exporting := asJSON || outputPath != ""
				if exporting && !complete && !force {
					return fmt.Errorf("session incomplete: no response for %s (use --force to export anyway)",
						strings.Join(missing, ", "))
				}

				if exporting {
					encoded, err := assembly.Encode(rows)
					if err != nil {
						return err
					}
					if outputPath != "" {
						target, err := config.ExpandPath(outputPath)
						if err != nil {
							return fmt.Errorf("resolve output path: %w", err)
						}
						if err := os.WriteFile(target, []byte(encoded), 0o644); err != nil {
							return fmt.Errorf("write output: %w", err)
						}
						fmt.Fprintf(out, "Wrote %d resolved commands to %s\n", len(rows), target)
						return nil
					}
					fmt.Fprint(out, encoded)
					return nil
				}

				if len(rows) == 0 {
					fmt.Fprintln(out, "No voice commands to assemble")
					return nil
				}
				fmt.Fprintln(out, renderAssemblyTable(rows))
				if complete {
					fmt.Fprintln(out, "Session complete: every command has a response")
				} else {
					fmt.Fprintf(out, "Missing responses: %s\n", strings.Join(missing, ", "))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the resolved command list as JSON")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the resolved command list to a file")
	cmd.Flags().BoolVar(&force, "force", false, "Export even when responses are missing")
	return cmd
}

func renderAssemblyTable(rows []assembly.ResolvedCommand) string {
	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{
			row.CommandID,
			formatClock(row.StartAbs),
			formatClock(row.EndAbs),
			row.VoiceID,
			truncateText(row.ResponseText, 48),
		})
	}
	return renderTable(
		[]string{"Command", "Start", "End", "Voice", "Response"},
		tableRows,
		2, 3,
	)
}
