package main

import (
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"loom/internal/fleet"
	"loom/internal/logging"
	"loom/internal/monitor"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var (
		searchFlag string
		sortFlag   string
	)

	cmd := &cobra.Command{
		Use:   "watch <generation-id>",
		Short: "Continuously watch a generation and the worker fleet",
		Long:  "Polls the generation record and fleet status on their configured cadences and prints a line whenever either changes. Stop with Ctrl-C.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			api, err := ctx.apiClient()
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "loom.log")},
			})
			if err != nil {
				return err
			}

			watchCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			updates := make(chan struct{}, 1)
			notify := func() {
				select {
				case updates <- struct{}{}:
				default:
				}
			}

			generationView := monitor.NewGenerationView(api, logger, args[0],
				cfg.GenerationRefreshInterval(), cfg.Runs.PageSize,
				monitor.WithGenerationUpdateHook(notify))
			fleetView := monitor.NewFleetView(api, api, logger,
				cfg.FleetRefreshInterval(),
				monitor.WithFleetUpdateHook(notify))
			if searchFlag != "" {
				fleetView.SetSearch(searchFlag)
			}
			if sortFlag != "" {
				sortField := fleet.SortField(sortFlag)
				if !fleet.KnownSortField(sortField) {
					return fmt.Errorf("unknown sort field %q (known: %s)", sortFlag, knownSortFieldList())
				}
				fleetView.SetSort(sortField, false)
			}

			go generationView.Run(watchCtx)
			go fleetView.Run(watchCtx)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Watching generation %s (Ctrl-C to stop)\n", args[0])

			for {
				select {
				case <-watchCtx.Done():
					fmt.Fprintln(out, "Stopped.")
					return nil
				case <-updates:
					printWatchLine(out, generationView.State(), fleetView.State(), colorize)
				}
			}
		},
	}

	cmd.Flags().StringVar(&searchFlag, "search", "", "Filter fleet workers by free-text match")
	cmd.Flags().StringVar(&sortFlag, "sort", "", "Fleet sort column (defaults to hostname)")

	return cmd
}

func printWatchLine(out io.Writer, generation monitor.GenerationState, fleetState monitor.FleetState, colorize bool) {
	stamp := time.Now().Format("15:04:05")

	if generation.Err != nil {
		fmt.Fprintf(out, "%s %s\n", stamp, renderStatusLine("Generation", statusWarn, generation.Err.Error(), colorize))
	} else if generation.Generation != nil {
		record := generation.Generation
		message := fmt.Sprintf("%s %s, %d runs", record.Name, humanizeLabel(string(record.Status)), record.RunCount)
		fmt.Fprintf(out, "%s %s\n", stamp, renderStatusLine("Generation", runStatusKind(record.Status), message, colorize))
	}

	if fleetState.Err != nil {
		fmt.Fprintf(out, "%s %s\n", stamp, renderStatusLine("Fleet", statusWarn, fleetState.Err.Error(), colorize))
	} else if fleetState.Snapshot != nil {
		fmt.Fprintf(out, "%s %s\n", stamp, renderStatusLine("Fleet", statusInfo, renderFleetSummary(fleetState.Summary), colorize))
		for _, warning := range fleetState.Warnings {
			fmt.Fprintf(out, "%s %s\n", stamp, renderStatusLine("Fleet", statusWarn, warning, colorize))
		}
	}
}
