package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"voiceloom/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check the workspace and voice service before importing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failed := 0
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed++
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			if usage, ok := preflight.ProbeWorkspace(cfg.Paths.WorkspaceDir); ok {
				fmt.Fprintln(out, renderStatusLine("Workspace usage", statusOK, usage.Detail(), colorize))
			}

			if failed > 0 {
				return errors.New("preflight found problems; fix them before importing")
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}
