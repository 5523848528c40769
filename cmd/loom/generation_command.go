package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom/internal/runs"
)

func newGenerationCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "generation <id>",
		Short: "Show one generation record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := ctx.apiClient()
			if err != nil {
				return err
			}
			generation, err := api.GetGeneration(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, generation)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range generationLines(generation, colorize) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of status lines")
	return cmd
}

func generationLines(generation *runs.Generation, colorize bool) []string {
	lines := []string{
		renderStatusLine("Generation", statusInfo, generation.Name, colorize),
		renderStatusLine("Status", runStatusKind(generation.Status), humanizeLabel(string(generation.Status)), colorize),
		renderStatusLine("Runs", statusInfo, fmt.Sprintf("%d", generation.RunCount), colorize),
		renderStatusLine("Created", statusInfo, generation.CreatedAt.Format("2006-01-02 15:04:05"), colorize),
	}
	if generation.CreatedBy != "" {
		lines = append(lines, renderStatusLine("Created by", statusInfo, generation.CreatedBy, colorize))
	}
	if generation.Description != "" {
		lines = append(lines, renderStatusLine("Description", statusInfo, generation.Description, colorize))
	}
	return lines
}
