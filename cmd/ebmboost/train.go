package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/ebmcore/boosting/internal/boosting"
	"github.com/ebmcore/boosting/internal/ebmconfig"
	"github.com/ebmcore/boosting/internal/feature"
	"github.com/spf13/cobra"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a booster over a binned JSON dataset and report the final model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			return runTrain(cfg)
		},
	}
	return cmd
}

func runTrain(cfg ebmconfig.Config) error {
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
	if cfg.Boosting.GradientSums {
		opts |= boosting.GradientSums
	}

	leavesMaxPerDim := []int{cfg.Boosting.LeavesMax}

	var metric float64
	for round := 0; round < cfg.Boosting.Rounds; round++ {
		for g := range groups {
			if _, err := ts.GenerateUpdate(g, opts, cfg.Boosting.LearningRate, cfg.Boosting.MinSamplesPerLeaf, leavesMaxPerDim); err != nil {
				return fmt.Errorf("round %d group %d: generate update: %w", round, g, err)
			}
			metric, err = ts.ApplyUpdate()
			if err != nil {
				return fmt.Errorf("round %d group %d: apply update: %w", round, g, err)
			}
		}
		slog.Info("round complete", "round", round, "metric", metric)
	}

	return dumpModel(b, groups, cfg.Paths.ModelOut)
}

type modelDump struct {
	Groups []groupDump `json:"groups"`
}

type groupDump struct {
	Current []float64 `json:"current"`
	Best    []float64 `json:"best"`
}

func dumpModel(b *boosting.Booster, groups []*feature.Group, path string) error {
	dump := modelDump{Groups: make([]groupDump, len(groups))}
	for g := range groups {
		current, err := b.CurrentModelFeatureGroup(g)
		if err != nil {
			return fmt.Errorf("group %d: %w", g, err)
		}
		best, err := b.BestModelFeatureGroup(g)
		if err != nil {
			return fmt.Errorf("group %d: %w", g, err)
		}
		dump.Groups[g] = groupDump{Current: current, Best: best}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model output %q: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(dump)
}
