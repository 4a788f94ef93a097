// Package boosttestutil provides shared skip helpers for integration tests
// that depend on on-disk dataset fixtures, mirroring the teacher's
// testutil package's t.Skip-based prerequisite gating.
package boosttestutil

import (
	"os"
	"path/filepath"
	"testing"
)

// RequireDatasetFixture skips the test if the named fixture file does not
// exist under testdata relative to the test's working directory.
func RequireDatasetFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("testdata", name)
	if _, err := os.Stat(path); err != nil {
		t.Skipf("dataset fixture %q not available: %v", path, err)
	}
	return path
}

// ScenarioFixturePath returns the path, relative to the repository root,
// at which a §8-style golden scenario fixture of the given name is looked
// up (cmd/ebmboost/testdata). No fixture files are committed there.
func ScenarioFixturePath(name string) string {
	return filepath.Join("cmd", "ebmboost", "testdata", name)
}
