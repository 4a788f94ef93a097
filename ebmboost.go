// Package ebmboost re-exports internal/boosting's public surface so
// external callers can depend on a stable import path without reaching
// into this module's internal packages.
package ebmboost

import (
	"github.com/ebmcore/boosting/internal/boosting"
	"github.com/ebmcore/boosting/internal/dataset"
	"github.com/ebmcore/boosting/internal/feature"
)

type (
	// Booster owns the feature-group metadata, datasets, sampling sets, and
	// current/best models of one boosting run.
	Booster = boosting.Booster
	// ThreadState is one thread's scratch for the generate/apply update
	// cycle over a Booster.
	ThreadState = boosting.ThreadState
	// ClassificationConfig configures a classification Booster.
	ClassificationConfig = boosting.ClassificationConfig
	// RegressionConfig configures a regression Booster.
	RegressionConfig = boosting.RegressionConfig
	// UpdateOptions are OR-combinable bits controlling GenerateUpdate.
	UpdateOptions = boosting.UpdateOptions
	// GenerateUpdateJob is one thread-state's share of a parallel round.
	GenerateUpdateJob = boosting.GenerateUpdateJob
	// Raw is the caller-supplied bin-indexed sample matrix plus targets.
	Raw = dataset.Raw
	// Feature describes one column of the binned input matrix.
	Feature = feature.Feature
	// Group is an ordered tuple of features over which one additive model
	// component is defined.
	Group = feature.Group
)

const (
	Default      = boosting.Default
	RandomSplits = boosting.RandomSplits
	GradientSums = boosting.GradientSums
)

var (
	NewClassificationBooster = boosting.NewClassificationBooster
	NewRegressionBooster     = boosting.NewRegressionBooster
	NewThreadState           = boosting.NewThreadState
	RunGenerateUpdates       = boosting.RunGenerateUpdates
	NewFeature               = feature.New
	NewGroup                 = feature.NewGroup
)
