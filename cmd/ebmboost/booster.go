package main

import (
	"github.com/ebmcore/boosting/internal/boosting"
	"github.com/ebmcore/boosting/internal/dataset"
	"github.com/ebmcore/boosting/internal/ebmconfig"
	"github.com/ebmcore/boosting/internal/feature"
)

// newBoosterFromConfig builds a classification or regression Booster
// according to cfg.Boosting.NumClasses: 1 is regression, 2 is binary, and
// anything greater is multiclass.
func newBoosterFromConfig(cfg ebmconfig.Config, groups []*feature.Group, train, val dataset.Raw) (*boosting.Booster, error) {
	if cfg.Boosting.NumClasses == 1 {
		return boosting.NewRegressionBooster(boosting.RegressionConfig{
			Seed:         cfg.Boosting.Seed,
			Groups:       groups,
			Train:        train,
			Val:          val,
			NumInnerBags: cfg.Boosting.NumInnerBags,
		})
	}
	return boosting.NewClassificationBooster(boosting.ClassificationConfig{
		Seed:         cfg.Boosting.Seed,
		NumClasses:   cfg.Boosting.NumClasses,
		Groups:       groups,
		Train:        train,
		Val:          val,
		NumInnerBags: cfg.Boosting.NumInnerBags,
	})
}
