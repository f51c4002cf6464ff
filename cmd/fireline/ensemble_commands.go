package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fireline/internal/ensemble"
	"fireline/internal/scheduler"
)

func addGenerateFlags(cmd *cobra.Command, gen *generateOptions) {
	cmd.Flags().IntVar(&gen.Rows, "rows", gen.Rows, "Landscape rows (north-south cells)")
	cmd.Flags().IntVar(&gen.Cols, "cols", gen.Cols, "Landscape columns (east-west cells)")
	cmd.Flags().Float64Var(&gen.CellSize, "cell-size", gen.CellSize, "Cell size in meters")
	cmd.Flags().Uint64Var(&gen.Seed, "seed", gen.Seed, "Base seed for input synthesis")
	cmd.Flags().IntVar(&gen.SimHours, "sim-hours", gen.SimHours, "Simulated duration in hours")
	cmd.Flags().Float64Var(&gen.IgnitionRadius, "ignition-radius", gen.IgnitionRadius, "Ignition polygon radius in meters")
	cmd.Flags().Float64Var(&gen.FuelFraction, "fuel-fraction", gen.FuelFraction, "Burnable fraction of the fuel layer")
}

// parseIndices expands a comma-separated selection like "0,2,5-8" into sorted
// unique indices. An empty selection means all cases.
func parseIndices(selection string) ([]int, error) {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return nil, nil
	}
	seen := make(map[int]struct{})
	for _, part := range strings.Split(selection, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				return nil, fmt.Errorf("malformed case range %q", part)
			}
			end, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("malformed case range %q", part)
			}
			if end < start {
				return nil, fmt.Errorf("descending case range %q", part)
			}
			for i := start; i <= end; i++ {
				seen[i] = struct{}{}
			}
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("malformed case index %q", part)
		}
		seen[i] = struct{}{}
	}
	indices := make([]int, 0, len(seen))
	for i := range seen {
		if i < 0 {
			return nil, fmt.Errorf("negative case index %d", i)
		}
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices, nil
}

func newWriteCommand(ctx *commandContext) *cobra.Command {
	gen := defaultGenerateOptions()
	var caseSelection string

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Generate case inputs on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			indices, err := parseIndices(caseSelection)
			if err != nil {
				return err
			}
			e, s, err := ctx.buildEnsemble(cmd.Context(), gen)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := e.Write(cmd.Context(), indices); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d case(s) under %s\n", countOrAll(indices, e.Size()), e.RootDir)
			return nil
		},
	}

	addGenerateFlags(cmd, &gen)
	cmd.Flags().StringVar(&caseSelection, "cases", "", "Case indices to write, e.g. 0,2,5-8 (default all)")
	return cmd
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	gen := defaultGenerateOptions()
	var caseSelection string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit written cases to the batch scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			indices, err := parseIndices(caseSelection)
			if err != nil {
				return err
			}
			e, s, err := ctx.buildEnsemble(cmd.Context(), gen)
			if err != nil {
				return err
			}
			defer s.Close()

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			client := scheduler.NewClient(logger)
			if err := e.Run(cmd.Context(), client, indices); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted %d case(s)\n", countOrAll(indices, e.Size()))
			return nil
		},
	}

	addGenerateFlags(cmd, &gen)
	cmd.Flags().StringVar(&caseSelection, "cases", "", "Case indices to submit, e.g. 0,2,5-8 (default all)")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	gen := defaultGenerateOptions()
	var caseSelection string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Write case inputs and submit them in one pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			indices, err := parseIndices(caseSelection)
			if err != nil {
				return err
			}
			e, s, err := ctx.buildEnsemble(cmd.Context(), gen)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := e.Write(cmd.Context(), indices); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			client := scheduler.NewClient(logger)
			if err := e.Run(cmd.Context(), client, indices); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote and submitted %d case(s) under %s\n", countOrAll(indices, e.Size()), e.RootDir)
			return nil
		},
	}

	addGenerateFlags(cmd, &gen)
	cmd.Flags().StringVar(&caseSelection, "cases", "", "Case indices to run, e.g. 0,2,5-8 (default all)")
	return cmd
}

func newPostProcessCommand(ctx *commandContext) *cobra.Command {
	gen := defaultGenerateOptions()
	var caseSelection string
	var attempts int

	cmd := &cobra.Command{
		Use:   "post-process",
		Short: "Poll finished cases and export their burn maps",
		RunE: func(cmd *cobra.Command, args []string) error {
			indices, err := parseIndices(caseSelection)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			e, s, err := ctx.buildEnsemble(cmd.Context(), gen)
			if err != nil {
				return err
			}
			defer s.Close()

			if attempts <= 0 {
				attempts = cfg.Ensemble.Attempts
			}
			unresolved, err := e.PostProcess(cmd.Context(), ensemble.PostProcessOptions{
				Indices:     indices,
				Attempts:    attempts,
				Pause:       cfg.PostProcessPause(),
				Concurrency: cfg.Ensemble.Concurrency,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(unresolved) == 0 {
				fmt.Fprintln(out, "All selected cases resolved")
				return nil
			}
			fmt.Fprintf(out, "Unresolved cases: %s\n", strings.Join(unresolved, ", "))
			return nil
		},
	}

	addGenerateFlags(cmd, &gen)
	cmd.Flags().StringVar(&caseSelection, "cases", "", "Case indices to post-process, e.g. 0,2,5-8 (default all)")
	cmd.Flags().IntVar(&attempts, "attempts", 0, "Polling attempts before giving up (default from config)")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	gen := defaultGenerateOptions()

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate ensemble statistics into CSV exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, s, err := ctx.buildEnsemble(cmd.Context(), gen)
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := e.WriteStatistics()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote statistics for %d case(s) to %s\n", e.Size(), e.ExportDir())
			for _, series := range []*ensemble.Series{stats.BurnFraction, stats.BurnRadius, stats.FrontSpeed} {
				if series == nil || series.Steps() == 0 {
					continue
				}
				last := series.Steps() - 1
				fmt.Fprintf(out, "  %s: final mean %.4g, sigma %.4g\n", series.Name, series.Mean[last], series.Sigma[last])
			}
			return nil
		},
	}

	addGenerateFlags(cmd, &gen)
	return cmd
}

func countOrAll(indices []int, size int) int {
	if indices == nil {
		return size
	}
	return len(indices)
}
