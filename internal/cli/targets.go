package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/page-harvest/harvest/internal/config"
	"github.com/page-harvest/harvest/internal/ui"
)

// targetsCmd lists the targets declared in the targets file
var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List extraction targets from the targets file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		targets, err := config.LoadTargets(cfg.TargetsFile)
		if err != nil {
			return err
		}

		for _, t := range targets {
			format := t.Format
			if format == "" {
				format = "csv"
			}
			fmt.Printf("%s  %s, %d page(s), %d field(s), %s output\n",
				ui.Bold(t.Name), t.Mode, t.Pages, len(t.Fields), format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
