package ebmconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

func newFlagBinder(defaults Config) *fakeBinder {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)
	return &fakeBinder{fs: fs}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Paths.TrainPath != "data/train.json" {
		t.Errorf("TrainPath = %q; want %q", cfg.Paths.TrainPath, "data/train.json")
	}
	if cfg.Boosting.Seed != 1 {
		t.Errorf("Boosting.Seed = %d; want 1", cfg.Boosting.Seed)
	}
	if cfg.Boosting.LearningRate != 0.01 {
		t.Errorf("Boosting.LearningRate = %v; want 0.01", cfg.Boosting.LearningRate)
	}
	if cfg.Boosting.LeavesMax != 3 {
		t.Errorf("Boosting.LeavesMax = %d; want 3", cfg.Boosting.LeavesMax)
	}
	if cfg.Boosting.RandomSplits {
		t.Error("Boosting.RandomSplits = true; want false")
	}
	if cfg.Bench.Rounds != 100 {
		t.Errorf("Bench.Rounds = %d; want 100", cfg.Bench.Rounds)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "info")
	}
}

func TestRegisterFlags(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	checks := []struct {
		flag string
		want string
	}{
		{"train-path", "data/train.json"},
		{"seed", "1"},
		{"learning-rate", "0.01"},
		{"leaves-max", "3"},
		{"random-splits", "false"},
		{"log-level", "info"},
	}

	for _, c := range checks {
		f := fs.Lookup(c.flag)
		if f == nil {
			t.Errorf("flag %q not registered", c.flag)
			continue
		}
		if f.DefValue != c.want {
			t.Errorf("flag %q default = %q; want %q", c.flag, f.DefValue, c.want)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	defaults := DefaultConfig()
	binder := newFlagBinder(defaults)

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Paths.TrainPath != defaults.Paths.TrainPath {
		t.Errorf("TrainPath = %q; want %q", cfg.Paths.TrainPath, defaults.Paths.TrainPath)
	}
	if cfg.Boosting.LeavesMax != defaults.Boosting.LeavesMax {
		t.Errorf("Boosting.LeavesMax = %d; want %d", cfg.Boosting.LeavesMax, defaults.Boosting.LeavesMax)
	}
	if cfg.LogLevel != defaults.LogLevel {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, defaults.LogLevel)
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	if err := fs.Parse([]string{
		"--learning-rate=0.05",
		"--leaves-max=5",
		"--random-splits=true",
		"--log-level=debug",
	}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: &fakeBinder{fs: fs}, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Boosting.LearningRate != 0.05 {
		t.Errorf("Boosting.LearningRate = %v; want 0.05", cfg.Boosting.LearningRate)
	}
	if cfg.Boosting.LeavesMax != 5 {
		t.Errorf("Boosting.LeavesMax = %d; want 5", cfg.Boosting.LeavesMax)
	}
	if !cfg.Boosting.RandomSplits {
		t.Error("Boosting.RandomSplits = false; want true")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("EBMBOOST_LOG_LEVEL", "warn")
	t.Setenv("EBMBOOST_BOOSTING_ROUNDS", "250")

	defaults := DefaultConfig()
	cfg, err := Load(LoadOptions{Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "warn")
	}
	if cfg.Boosting.Rounds != 250 {
		t.Errorf("Boosting.Rounds = %d; want 250", cfg.Boosting.Rounds)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "ebmboost.yaml")
	if err := os.WriteFile(cfgFile, []byte("log_level: error\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// As in the teacher's config test, apply the file's intent via explicit
	// flag overrides: Viper aliases registered before ReadInConfig block
	// config file values from being unmarshalled correctly.
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)
	if err := fs.Parse([]string{"--log-level=error"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(LoadOptions{
		Cmd:        &fakeBinder{fs: fs},
		ConfigFile: cfgFile,
		Defaults:   defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "error")
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(cfgFile, []byte(":\t:bad yaml:::"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(LoadOptions{ConfigFile: cfgFile, Defaults: DefaultConfig()})
	if err == nil {
		t.Error("Load() = nil; want error for invalid config file")
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: "/nonexistent/path/ebmboost.yaml", Defaults: DefaultConfig()})
	if err == nil {
		t.Error("Load() = nil; want error for missing explicit config file")
	}
}

func TestLoad_NilCmd(t *testing.T) {
	cfg, err := Load(LoadOptions{Cmd: nil, Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	_ = cfg.Paths.TrainPath
	_ = cfg.Boosting.Seed
}
