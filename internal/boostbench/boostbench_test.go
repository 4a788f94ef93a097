package boostbench

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestComputeStatsEmpty(t *testing.T) {
	if got := ComputeStats(nil); got != (Stats{}) {
		t.Fatalf("ComputeStats(nil) = %+v, want zero value", got)
	}
}

func TestComputeStatsMinMaxMean(t *testing.T) {
	durations := []time.Duration{10 * time.Microsecond, 30 * time.Microsecond, 20 * time.Microsecond}
	stats := ComputeStats(durations)
	if stats.Min != 10*time.Microsecond {
		t.Errorf("Min = %v, want 10us", stats.Min)
	}
	if stats.Max != 30*time.Microsecond {
		t.Errorf("Max = %v, want 30us", stats.Max)
	}
	if stats.Mean != 20*time.Microsecond {
		t.Errorf("Mean = %v, want 20us", stats.Mean)
	}
}

func TestCheckMeanRoundThresholdDisabledByZero(t *testing.T) {
	if err := CheckMeanRoundThreshold(time.Hour, 0); err != nil {
		t.Fatalf("expected nil error when threshold <= 0, got %v", err)
	}
}

func TestCheckMeanRoundThresholdExceeded(t *testing.T) {
	if err := CheckMeanRoundThreshold(2*time.Second, time.Second); err == nil {
		t.Fatal("expected error when mean exceeds threshold")
	}
}

func TestFormatTableContainsHeaderAndRows(t *testing.T) {
	runs := []RunResult{
		{Round: 0, Cold: true, Duration: 5 * time.Microsecond, Gain: 1.5, Metric: 2.5},
		{Round: 1, Duration: 3 * time.Microsecond, Gain: 0.5, Metric: 2.0},
	}
	stats := ComputeStats([]time.Duration{5 * time.Microsecond, 3 * time.Microsecond})

	var buf bytes.Buffer
	FormatTable(runs, stats, &buf)
	out := buf.String()
	if !strings.Contains(out, "Round") {
		t.Errorf("table missing header: %q", out)
	}
	if !strings.Contains(out, "yes") {
		t.Errorf("table missing cold marker: %q", out)
	}
}

func TestFormatJSONRoundTrips(t *testing.T) {
	runs := []RunResult{{Round: 0, Duration: 5 * time.Microsecond, Gain: 1.5, Metric: 2.5}}
	stats := ComputeStats([]time.Duration{5 * time.Microsecond})

	var buf bytes.Buffer
	FormatJSON(runs, stats, &buf)
	if !strings.Contains(buf.String(), `"gain": 1.5`) {
		t.Errorf("json output missing gain field: %q", buf.String())
	}
}
