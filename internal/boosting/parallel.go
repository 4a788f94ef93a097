package boosting

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// GenerateUpdateJob is one thread-state's independent piece of a
// parallel-generate round: a group index plus the parameters GenerateUpdate
// needs.
type GenerateUpdateJob struct {
	ThreadState       *ThreadState
	GroupIdx          int
	Options           UpdateOptions
	LearningRate      float64
	MinSamplesPerLeaf int
	LeavesMaxPerDim   []int
}

// RunGenerateUpdates runs GenerateUpdate for each job concurrently, one
// goroutine per job, bounded by maxConcurrency (<= 0 means unbounded). Each
// job must use a distinct ThreadState (GenerateUpdate itself is not safe
// for concurrent use on one ThreadState) -- this is purely a convenience
// helper demonstrating the caller-side parallelism §5 describes; it is
// never required, and a caller is free to drive ThreadStates directly.
//
// ApplyUpdate is NOT part of this helper: applies must still be serialized
// by the caller, one at a time, after every job's GenerateUpdate has
// returned.
func RunGenerateUpdates(ctx context.Context, jobs []GenerateUpdateJob, maxConcurrency int) ([]float64, error) {
	gains := make([]float64, len(jobs))
	g, _ := errgroup.WithContext(ctx)
	if maxConcurrency > 0 {
		g.SetLimit(maxConcurrency)
	}
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			gain, err := job.ThreadState.GenerateUpdate(job.GroupIdx, job.Options, job.LearningRate, job.MinSamplesPerLeaf, job.LeavesMaxPerDim)
			if err != nil {
				return err
			}
			gains[i] = gain
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return gains, nil
}
