package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Model inspection commands",
	}
	cmd.AddCommand(newModelDumpCmd())
	return cmd
}

func newModelDumpCmd() *cobra.Command {
	var groupIdx int
	var best bool

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print one feature-group's current or best tensor values from a dumped model file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			f, err := os.Open(cfg.Paths.ModelOut)
			if err != nil {
				return fmt.Errorf("open model %q: %w", cfg.Paths.ModelOut, err)
			}
			defer f.Close()

			var dump modelDump
			if err := json.NewDecoder(f).Decode(&dump); err != nil {
				return fmt.Errorf("decode model %q: %w", cfg.Paths.ModelOut, err)
			}
			if groupIdx < 0 || groupIdx >= len(dump.Groups) {
				return fmt.Errorf("group %d out of range [0,%d)", groupIdx, len(dump.Groups))
			}

			values := dump.Groups[groupIdx].Current
			if best {
				values = dump.Groups[groupIdx].Best
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(values)
		},
	}

	cmd.Flags().IntVar(&groupIdx, "group", 0, "Feature-group index to print")
	cmd.Flags().BoolVar(&best, "best", false, "Print the best-so-far model instead of the current one")
	return cmd
}
