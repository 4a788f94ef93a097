package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ebmcore/boosting/internal/cli"
	"github.com/ebmcore/boosting/internal/ebmconfig"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	activeCfg ebmconfig.Config
)

func NewRootCmd() *cobra.Command {
	defaults := ebmconfig.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "ebmboost",
		Short: "Explainable boosting machine command line",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := ebmconfig.Load(ebmconfig.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	ebmconfig.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newTrainCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newModelCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := cli.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (ebmconfig.Config, error) {
	if activeCfg.Paths.TrainPath == "" {
		return ebmconfig.Config{}, fmt.Errorf("configuration not loaded")
	}
	return activeCfg, nil
}
