package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Log and report in JSON format")
	cmd.PersistentFlags().String("timeout", "", "Per-page fetch timeout (e.g. 30s)")
	cmd.PersistentFlags().String("nav-timeout", "", "Readiness and navigation wait timeout (e.g. 20s)")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().StringP("targets", "t", "", "Path to the targets file (default targets.yaml)")
	cmd.PersistentFlags().String("archive-dir", "", "Directory to save failed pages as Markdown (disabled when empty)")
}
