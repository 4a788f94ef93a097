// Package ebmconfig is the layered configuration for cmd/ebmboost: flags,
// environment, and an optional YAML/JSON/TOML file, merged by Viper with
// flags taking precedence, same as the teacher's internal/config.
package ebmconfig

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the fully resolved configuration for one training run.
type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	Boosting BoostingConfig `mapstructure:"boosting"`
	Bench    BenchConfig    `mapstructure:"bench"`
	LogLevel string         `mapstructure:"log_level"`
}

// PathsConfig locates the binned training/validation datasets and where a
// trained model's dumped tensors are written.
type PathsConfig struct {
	TrainPath string `mapstructure:"train_path"`
	ValPath   string `mapstructure:"val_path"`
	ModelOut  string `mapstructure:"model_out"`
}

// BoostingConfig controls one cyclic boosting run: the PRNG seed, the
// per-round learning rate, tree-growth constraints, and how many rounds to
// run over how many feature groups' worth of bagging.
type BoostingConfig struct {
	Seed              int64   `mapstructure:"seed"`
	NumClasses        int     `mapstructure:"num_classes"`
	LearningRate      float64 `mapstructure:"learning_rate"`
	MinSamplesPerLeaf int     `mapstructure:"min_samples_per_leaf"`
	LeavesMax         int     `mapstructure:"leaves_max"`
	NumInnerBags      int     `mapstructure:"num_inner_bags"`
	Rounds            int     `mapstructure:"rounds"`
	RandomSplits      bool    `mapstructure:"random_splits"`
	GradientSums      bool    `mapstructure:"gradient_sums"`
}

// BenchConfig controls cmd/ebmboost bench's timing harness.
type BenchConfig struct {
	Rounds int `mapstructure:"rounds"`
	Warmup int `mapstructure:"warmup"`
}

// LoadOptions bundles Load's inputs: a bound flag set, an optional explicit
// config file path, and the defaults to seed Viper with.
type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

// DefaultConfig returns the configuration cmd/ebmboost runs with when no
// flags, environment variables, or config file override it.
func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			TrainPath: "data/train.json",
			ValPath:   "data/val.json",
			ModelOut:  "model.json",
		},
		Boosting: BoostingConfig{
			Seed:              1,
			NumClasses:        1,
			LearningRate:      0.01,
			MinSamplesPerLeaf: 1,
			LeavesMax:         3,
			NumInnerBags:      1,
			Rounds:            100,
			RandomSplits:      false,
			GradientSums:      false,
		},
		Bench: BenchConfig{
			Rounds: 100,
			Warmup: 10,
		},
		LogLevel: "info",
	}
}

// RegisterFlags binds every Config field to a pflag, defaulted from
// defaults, for use by a cobra command's Flags().
func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("train-path", defaults.Paths.TrainPath, "Path to the binned training dataset")
	fs.String("val-path", defaults.Paths.ValPath, "Path to the binned validation dataset")
	fs.String("model-out", defaults.Paths.ModelOut, "Path to write the trained model's dumped tensors")

	fs.Int64("seed", defaults.Boosting.Seed, "PRNG seed driving bagging and tie-breaking")
	fs.Int("num-classes", defaults.Boosting.NumClasses, "Number of classes (1 = regression, 2 = binary, >2 = multiclass)")
	fs.Float64("learning-rate", defaults.Boosting.LearningRate, "Per-round learning rate (may be negative)")
	fs.Int("min-samples-per-leaf", defaults.Boosting.MinSamplesPerLeaf, "Minimum training samples required on each side of a split")
	fs.Int("leaves-max", defaults.Boosting.LeavesMax, "Maximum leaves per feature-group tree")
	fs.Int("inner-bags", defaults.Boosting.NumInnerBags, "Number of bootstrap inner bags per round (0 = single all-ones pseudo-bag)")
	fs.Int("rounds", defaults.Boosting.Rounds, "Number of boosting rounds to run")
	fs.Bool("random-splits", defaults.Boosting.RandomSplits, "Use uniformly random cut positions instead of the greedy splitter")
	fs.Bool("gradient-sums", defaults.Boosting.GradientSums, "Score leaves from summed residuals alone, skipping hessian division")

	fs.Int("bench-rounds", defaults.Bench.Rounds, "Timed rounds to run for the bench subcommand")
	fs.Int("bench-warmup", defaults.Bench.Warmup, "Untimed warmup rounds to run before measuring")

	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

// Load merges defaults, an optional config file, environment variables
// (EBMBOOST_ prefixed), and bound flags, in ascending precedence, into a
// Config.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := v.BindPFlags(opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	registerAliases(v)

	v.SetEnvPrefix("EBMBOOST")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("ebmboost")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.train_path", c.Paths.TrainPath)
	v.SetDefault("paths.val_path", c.Paths.ValPath)
	v.SetDefault("paths.model_out", c.Paths.ModelOut)

	v.SetDefault("boosting.seed", c.Boosting.Seed)
	v.SetDefault("boosting.num_classes", c.Boosting.NumClasses)
	v.SetDefault("boosting.learning_rate", c.Boosting.LearningRate)
	v.SetDefault("boosting.min_samples_per_leaf", c.Boosting.MinSamplesPerLeaf)
	v.SetDefault("boosting.leaves_max", c.Boosting.LeavesMax)
	v.SetDefault("boosting.num_inner_bags", c.Boosting.NumInnerBags)
	v.SetDefault("boosting.rounds", c.Boosting.Rounds)
	v.SetDefault("boosting.random_splits", c.Boosting.RandomSplits)
	v.SetDefault("boosting.gradient_sums", c.Boosting.GradientSums)

	v.SetDefault("bench.rounds", c.Bench.Rounds)
	v.SetDefault("bench.warmup", c.Bench.Warmup)

	v.SetDefault("log_level", c.LogLevel)
}

func registerAliases(v *viper.Viper) {
	v.RegisterAlias("paths.train_path", "train-path")
	v.RegisterAlias("paths.val_path", "val-path")
	v.RegisterAlias("paths.model_out", "model-out")

	v.RegisterAlias("boosting.seed", "seed")
	v.RegisterAlias("boosting.num_classes", "num-classes")
	v.RegisterAlias("boosting.learning_rate", "learning-rate")
	v.RegisterAlias("boosting.min_samples_per_leaf", "min-samples-per-leaf")
	v.RegisterAlias("boosting.leaves_max", "leaves-max")
	v.RegisterAlias("boosting.num_inner_bags", "inner-bags")
	v.RegisterAlias("boosting.rounds", "rounds")
	v.RegisterAlias("boosting.random_splits", "random-splits")
	v.RegisterAlias("boosting.gradient_sums", "gradient-sums")

	v.RegisterAlias("bench.rounds", "bench-rounds")
	v.RegisterAlias("bench.warmup", "bench-warmup")

	v.RegisterAlias("log_level", "log-level")
}
