package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ebmcore/boosting/internal/boostbench"
	"github.com/ebmcore/boosting/internal/boosting"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time boosting rounds over a binned JSON dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			trainDF, err := loadDatasetFile(cfg.Paths.TrainPath)
			if err != nil {
				return err
			}
			valDF, err := loadDatasetFile(cfg.Paths.ValPath)
			if err != nil {
				return err
			}
			groups, err := buildGroups(trainDF)
			if err != nil {
				return fmt.Errorf("build groups: %w", err)
			}

			b, err := newBoosterFromConfig(cfg, groups, buildRaw(trainDF), buildRaw(valDF))
			if err != nil {
				return fmt.Errorf("create booster: %w", err)
			}
			ts, err := boosting.NewThreadState(b)
			if err != nil {
				return fmt.Errorf("create thread state: %w", err)
			}

			opts := boosting.Default
			if cfg.Boosting.RandomSplits {
				opts |= boosting.RandomSplits
			}
			leavesMaxPerDim := []int{cfg.Boosting.LeavesMax}

			for i := 0; i < cfg.Bench.Warmup; i++ {
				if _, err := ts.GenerateUpdate(0, opts, cfg.Boosting.LearningRate, cfg.Boosting.MinSamplesPerLeaf, leavesMaxPerDim); err != nil {
					return fmt.Errorf("warmup round %d: %w", i, err)
				}
				if _, err := ts.ApplyUpdate(); err != nil {
					return fmt.Errorf("warmup round %d: %w", i, err)
				}
			}

			results := make([]boostbench.RunResult, 0, cfg.Bench.Rounds)
			for i := 0; i < cfg.Bench.Rounds; i++ {
				start := time.Now()
				gain, err := ts.GenerateUpdate(0, opts, cfg.Boosting.LearningRate, cfg.Boosting.MinSamplesPerLeaf, leavesMaxPerDim)
				if err != nil {
					return fmt.Errorf("round %d: generate update: %w", i, err)
				}
				metric, err := ts.ApplyUpdate()
				if err != nil {
					return fmt.Errorf("round %d: apply update: %w", i, err)
				}
				results = append(results, boostbench.RunResult{
					Round:    i,
					Cold:     i == 0,
					Duration: time.Since(start),
					Gain:     gain,
					Metric:   metric,
				})
			}

			durations := make([]time.Duration, len(results))
			for i, r := range results {
				durations[i] = r.Duration
			}
			stats := boostbench.ComputeStats(durations)

			switch format {
			case "json":
				boostbench.FormatJSON(results, stats, os.Stdout)
			default:
				boostbench.FormatTable(results, stats, os.Stdout)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	return cmd
}
