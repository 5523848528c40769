package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"loom/internal/fleet"
)

func newFleetCommand(ctx *commandContext) *cobra.Command {
	fleetCmd := &cobra.Command{
		Use:   "fleet",
		Short: "Inspect and manage the worker fleet",
	}

	fleetCmd.AddCommand(newFleetStatusCommand(ctx))
	fleetCmd.AddCommand(newFleetShutdownCommand(ctx))
	fleetCmd.AddCommand(newFleetCancelConsumerCommand(ctx))
	fleetCmd.AddCommand(newFleetConcurrencyCommand(ctx))

	return fleetCmd
}

func newFleetStatusCommand(ctx *commandContext) *cobra.Command {
	var (
		searchFlag string
		sortFlag   string
		descending bool
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show worker fleet status",
		RunE: func(cmd *cobra.Command, args []string) error {
			sortField := fleet.SortField(strings.ToLower(strings.TrimSpace(sortFlag)))
			if sortFlag != "" && !fleet.KnownSortField(sortField) {
				return fmt.Errorf("unknown sort field %q (known: %s)", sortFlag, knownSortFieldList())
			}
			if sortFlag == "" {
				sortField = fleet.SortByHostname
			}

			api, err := ctx.apiClient()
			if err != nil {
				return err
			}
			snapshot, err := api.FleetStatus(cmd.Context())
			if err != nil {
				return err
			}

			query := fleet.Query{Search: searchFlag, SortBy: sortField, Descending: descending}
			workers := query.Apply(snapshot)

			if jsonOut {
				return writeJSON(cmd, struct {
					Workers  []fleet.Worker `json:"workers"`
					Summary  fleet.Summary  `json:"summary"`
					Warnings []string       `json:"warnings,omitempty"`
				}{Workers: workers, Summary: snapshot.Summarize(), Warnings: snapshot.Warnings})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, warning := range snapshot.Warnings {
				fmt.Fprintln(out, renderStatusLine("Fleet", statusWarn, warning, colorize))
			}
			if len(workers) == 0 {
				if snapshot.Empty() {
					fmt.Fprintln(out, "No workers registered.")
				} else {
					fmt.Fprintln(out, "No workers match the current filter.")
				}
				return nil
			}
			fmt.Fprintln(out, renderWorkerTable(workers))
			fmt.Fprintln(out, renderFleetSummary(snapshot.Summarize()))
			return nil
		},
	}

	cmd.Flags().StringVar(&searchFlag, "search", "", "Filter workers by free-text match")
	cmd.Flags().StringVar(&sortFlag, "sort", "", "Sort column (defaults to hostname)")
	cmd.Flags().BoolVar(&descending, "desc", false, "Reverse the sort order")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")

	return cmd
}

func newFleetShutdownCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "shutdown <worker-id>",
		Short: "Shut a worker down",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFleetMutation(ctx, cmd, yes, func(dispatcher *fleet.Dispatcher) (fleet.Command, error) {
				return dispatcher.StageShutdown(args[0])
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newFleetCancelConsumerCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "cancel-consumer <worker-id> <queue>",
		Short: "Stop a worker consuming one queue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFleetMutation(ctx, cmd, yes, func(dispatcher *fleet.Dispatcher) (fleet.Command, error) {
				return dispatcher.StageCancelConsumer(args[0], args[1])
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newFleetConcurrencyCommand(ctx *commandContext) *cobra.Command {
	var (
		yes   bool
		delta int
	)

	cmd := &cobra.Command{
		Use:   "concurrency <worker-id> --delta <n>",
		Short: "Grow or shrink a worker's pool",
		Long:  "Adjust a worker's pool size by a signed delta, e.g. --delta 2 or --delta=-1. The pool can never be driven to zero.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := ctx.apiClient()
			if err != nil {
				return err
			}
			snapshot, err := api.FleetStatus(cmd.Context())
			if err != nil {
				return err
			}
			worker, ok := findWorker(snapshot, args[0])
			if !ok {
				return fmt.Errorf("worker %q not found in the fleet", args[0])
			}

			return runFleetMutation(ctx, cmd, yes, func(dispatcher *fleet.Dispatcher) (fleet.Command, error) {
				return dispatcher.StageConcurrency(worker, delta)
			})
		},
	}

	cmd.Flags().IntVar(&delta, "delta", 0, "Signed pool size change")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("delta")
	return cmd
}

// runFleetMutation stages one command, asks for confirmation unless
// --yes was given, and dispatches it. Pool-floor and argument problems
// surface from staging before anything reaches the network.
func runFleetMutation(ctx *commandContext, cmd *cobra.Command, yes bool, stage func(*fleet.Dispatcher) (fleet.Command, error)) error {
	api, err := ctx.apiClient()
	if err != nil {
		return err
	}
	journal, err := ctx.openJournal()
	if err != nil {
		return err
	}

	opts := []fleet.DispatcherOption{}
	if journal != nil {
		defer journal.Close()
		opts = append(opts, fleet.WithJournal(journal))
	}
	dispatcher := fleet.NewDispatcher(api, opts...)

	command, err := stage(dispatcher)
	if err != nil {
		return err
	}

	if !yes {
		approved, err := confirmPrompt(cmd, "About to "+command.Describe()+". Proceed?")
		if err != nil {
			return err
		}
		if !approved {
			dispatcher.Dismiss()
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	if err := dispatcher.Confirm(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderStatusLine("Fleet", statusOK, "dispatched "+command.Describe(), shouldColorize(out)))
	return nil
}

func findWorker(snapshot *fleet.Snapshot, workerID string) (fleet.Worker, bool) {
	for _, worker := range snapshot.Workers {
		if worker.ID == workerID || worker.Hostname == workerID {
			return worker, true
		}
	}
	return fleet.Worker{}, false
}

func knownSortFieldList() string {
	fields := fleet.SortFields()
	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, string(field))
	}
	return strings.Join(names, ", ")
}

func renderWorkerTable(workers []fleet.Worker) string {
	headers := []string{"Worker", "Hostname", "Status", "Queues", "Concurrency", "Pool", "Tasks"}
	rows := make([][]string, 0, len(workers))
	for _, worker := range workers {
		rows = append(rows, []string{
			worker.ID,
			worker.Hostname,
			humanizeLabel(string(worker.Status)),
			strings.Join(worker.Queues, ", "),
			strconv.Itoa(worker.Concurrency),
			strconv.Itoa(worker.PoolSize),
			strconv.Itoa(worker.TaskCount()),
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight}
	return renderTable(headers, rows, aligns)
}

func renderFleetSummary(summary fleet.Summary) string {
	return fmt.Sprintf("%d workers (%d online, %d offline), %d active tasks, %d queued",
		summary.Workers, summary.Online, summary.Offline, summary.ActiveTasks, summary.QueuedTasks)
}
