package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ebmcore/boosting/internal/dataset"
	"github.com/ebmcore/boosting/internal/feature"
)

// datasetFile is the on-disk JSON shape train and bench read: one group
// per additive component, each with its per-dimension bin counts, followed
// by one row per sample giving its raw per-group bin indices and target.
type datasetFile struct {
	Groups []groupSpec `json:"groups"`
	Rows   []rowSpec   `json:"rows"`
}

type groupSpec struct {
	BinCounts []uint64 `json:"bin_counts"`
}

type rowSpec struct {
	Bins   [][]uint64 `json:"bins"`
	Target float64    `json:"target"`
}

func loadDatasetFile(path string) (*datasetFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %q: %w", path, err)
	}
	defer f.Close()

	var df datasetFile
	if err := json.NewDecoder(f).Decode(&df); err != nil {
		return nil, fmt.Errorf("decode dataset %q: %w", path, err)
	}
	return &df, nil
}

func buildGroups(df *datasetFile) ([]*feature.Group, error) {
	groups := make([]*feature.Group, len(df.Groups))
	idx := uint64(0)
	for g, spec := range df.Groups {
		features := make([]feature.Feature, len(spec.BinCounts))
		for d, bc := range spec.BinCounts {
			features[d] = feature.New(bc, false, idx)
			idx++
		}
		group, err := feature.NewGroup(features)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", g, err)
		}
		groups[g] = group
	}
	return groups, nil
}

func buildRaw(df *datasetFile) dataset.Raw {
	binIndices := make([][][]uint64, len(df.Groups))
	for g := range df.Groups {
		binIndices[g] = make([][]uint64, len(df.Rows))
	}
	targets := make([]float64, len(df.Rows))
	for i, row := range df.Rows {
		for g := range df.Groups {
			if g < len(row.Bins) {
				binIndices[g][i] = row.Bins[g]
			} else {
				binIndices[g][i] = nil
			}
		}
		targets[i] = row.Target
	}
	return dataset.Raw{BinIndices: binIndices, Targets: targets}
}
