package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"loom/internal/client"
	"loom/internal/runs"
	"loom/internal/stage"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var (
		generationFlag string
		pageFlag       int
		pageSizeFlag   int
		statusFlags    []string
		progressSort   bool
		descending     bool
		jsonOut        bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs for a generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(generationFlag) == "" {
				return fmt.Errorf("--generation is required")
			}
			states, err := normalizeStatusFlags(statusFlags)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			api, err := ctx.apiClient()
			if err != nil {
				return err
			}

			pageSize := pageSizeFlag
			if pageSize <= 0 {
				pageSize = cfg.Runs.PageSize
			}
			page, err := api.ListRuns(cmd.Context(), client.RunListQuery{
				GenerationID: generationFlag,
				Page:         pageFlag,
				PageSize:     pageSize,
				States:       states,
			})
			if err != nil {
				return err
			}

			projected := runs.ProjectPage(page.Data, progressSort, descending)
			if jsonOut {
				return writeJSON(cmd, client.RunPage{Data: projected, Paging: page.Paging})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderRunTable(projected))
			fmt.Fprintln(out, renderPagingLine(page.Paging))
			return nil
		},
	}

	cmd.Flags().StringVarP(&generationFlag, "generation", "g", "", "Generation ID to list runs for")
	cmd.Flags().IntVar(&pageFlag, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSizeFlag, "page-size", 0, "Runs per page (defaults from config)")
	cmd.Flags().StringArrayVarP(&statusFlags, "status", "s", nil, "Filter by run status (repeatable)")
	cmd.Flags().BoolVar(&progressSort, "progress-sort", false, "Order the page by pipeline progress")
	cmd.Flags().BoolVar(&descending, "desc", false, "Reverse the progress ordering")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")

	return cmd
}

// normalizeStatusFlags validates the repeatable --status values. The
// filter state machine treats an empty selection as unfiltered, so no
// flags means no state parameters.
func normalizeStatusFlags(values []string) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	filter := runs.NewStatusFilter()
	for _, value := range values {
		status := runs.Status(strings.ToUpper(strings.TrimSpace(value)))
		if !runs.KnownStatus(status) {
			return nil, fmt.Errorf("unknown status %q (known: %s)", value, knownStatusList())
		}
		filter.Toggle(status)
	}
	return filter.Params(), nil
}

func knownStatusList() string {
	statuses := runs.Statuses()
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}

func renderRunTable(records []runs.Record) string {
	headers := []string{"Run", "Model", "Prompt", "Status", "Completed Stage", "Active Stage"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			record.ID,
			record.ModelName,
			record.PromptName,
			humanizeLabel(string(record.Status)),
			stageLabel(record.LatestCompletedStage),
			stageLabel(record.EarliestInProgressStage),
		})
	}
	return renderTable(headers, rows, nil)
}

func stageLabel(id *stage.ID) string {
	if id == nil {
		return "-"
	}
	return humanizeLabel(string(*id))
}

func renderPagingLine(paging client.Paging) string {
	return fmt.Sprintf("Page %d of %d (%d runs)", paging.Page, paging.TotalPages, paging.TotalItems)
}
