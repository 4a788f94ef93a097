// Package boostbench provides benchmarking primitives for the ebmboost
// bench command: per-round timing, aggregate stats, and table/JSON
// formatters, generalized from the teacher's synthesis-latency bench to
// boosting-round timing.
package boostbench

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// RunResult holds the timing and outcome of a single boosting round.
type RunResult struct {
	Round    int
	Cold     bool // true for the first round (JIT/cache warmup still settling)
	Duration time.Duration
	Gain     float64
	Metric   float64
}

// Stats holds aggregate timing statistics across all rounds.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max, and mean over a slice of durations. An
// empty slice yields the zero Stats.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		if d < mn {
			mn = d
		}
		if d > mx {
			mx = d
		}
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// CheckMeanRoundThreshold returns an error if the mean round duration
// exceeds threshold (threshold <= 0 disables the check).
func CheckMeanRoundThreshold(mean time.Duration, threshold time.Duration) error {
	if threshold <= 0 {
		return nil
	}
	if mean > threshold {
		return fmt.Errorf("mean round duration %s exceeds threshold %s", mean, threshold)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-6s  %-5s  %10s  %14s  %12s\n", "Round", "Cold", "US", "Gain", "Metric")
	fmt.Fprintln(sb, strings.Repeat("-", 54))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-6d  %-5s  %10.1f  %14.6f  %12.6f\n",
			r.Round+1,
			cold,
			float64(r.Duration.Microseconds()),
			r.Gain,
			r.Metric,
		)
	}
	fmt.Fprintln(sb, strings.Repeat("-", 54))
	fmt.Fprintf(sb, "min=%s max=%s mean=%s\n", stats.Min, stats.Max, stats.Mean)

	_, _ = io.WriteString(w, sb.String())
}

type jsonRun struct {
	Round      int     `json:"round"`
	Cold       bool    `json:"cold"`
	DurationUS float64 `json:"duration_us"`
	Gain       float64 `json:"gain"`
	Metric     float64 `json:"metric"`
}

type jsonStats struct {
	MinUS  float64 `json:"min_us"`
	MeanUS float64 `json:"mean_us"`
	MaxUS  float64 `json:"max_us"`
}

type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

// FormatJSON writes a machine-readable JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinUS:  float64(stats.Min.Microseconds()),
			MeanUS: float64(stats.Mean.Microseconds()),
			MaxUS:  float64(stats.Max.Microseconds()),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Round:      r.Round,
			Cold:       r.Cold,
			DurationUS: float64(r.Duration.Microseconds()),
			Gain:       r.Gain,
			Metric:     r.Metric,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jr)
}
