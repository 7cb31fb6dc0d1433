package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"voiceloom/internal/config"
	"voiceloom/internal/review"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a detector document and start a review session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve document path: %w", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			fallback := strings.TrimSpace(title)
			if fallback == "" {
				base := filepath.Base(path)
				fallback = strings.TrimSuffix(base, filepath.Ext(base))
			}

			return ctx.withManager(cmd, false, func(runCtx context.Context, mgr *review.Manager) error {
				session, err := mgr.ImportDocument(runCtx, data, fallback)
				if err != nil {
					return err
				}
				views, err := mgr.Commands()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Imported %q as session %s\n", session.Title, session.ID)
				fmt.Fprintf(out, "Duration %s, %d segments, %d voice commands\n",
					formatClock(session.Duration), len(session.Timeline.Segments), len(views))
				if len(views) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, renderCommandTable(views))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Session title (defaults to the document title or file name)")
	return cmd
}
