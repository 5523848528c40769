package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"loom/internal/audit"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var (
		limitFlag int
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the local journal of dispatched fleet commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, err := ctx.openJournal()
			if err != nil {
				return err
			}
			if journal == nil {
				return errors.New("auditing is disabled in the configuration")
			}
			defer journal.Close()

			entries, err := journal.Recent(cmd.Context(), limitFlag)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No commands journaled yet.")
				return nil
			}
			fmt.Fprintln(out, renderAuditTable(entries))
			return nil
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum entries to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")

	return cmd
}

func renderAuditTable(entries []audit.Entry) string {
	headers := []string{"When", "Worker", "Action", "Queue", "Option", "Outcome", "Detail"}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		when := "-"
		if !entry.CreatedAt.IsZero() {
			when = entry.CreatedAt.Local().Format("2006-01-02 15:04:05")
		}
		option := ""
		if entry.Option != 0 {
			option = strconv.Itoa(entry.Option)
		}
		rows = append(rows, []string{
			when,
			entry.WorkerID,
			string(entry.Action),
			entry.Queue,
			option,
			entry.Outcome,
			entry.Detail,
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}
	return renderTable(headers, rows, aligns)
}
