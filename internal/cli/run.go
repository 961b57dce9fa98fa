package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/page-harvest/harvest/internal/archive"
	"github.com/page-harvest/harvest/internal/config"
	"github.com/page-harvest/harvest/internal/pagesource"
	"github.com/page-harvest/harvest/internal/ratelimit"
	"github.com/page-harvest/harvest/internal/runner"
	"github.com/page-harvest/harvest/internal/sink"
	"github.com/page-harvest/harvest/internal/ui"
	"github.com/page-harvest/harvest/pkg/models"
)

var (
	runOutput string
	runFormat string
	runPages  int
)

// runCmd executes one extraction target
var runCmd = &cobra.Command{
	Use:   "run <target>",
	Short: "Run an extraction target from the targets file",
	Long: `Runs the named target: iterates its pages, extracts the declared
fields from each row-element, and writes the records to the output file.

Static targets fetch each page by URL template; interactive targets drive a
headless browser session and click through pagination.`,
	Example: `  # Run the books target from targets.yaml
  harvest run books

  # Override the output path and format
  harvest run quotes --output=quotes.db --format=sqlite

  # Limit the page count and archive failed pages
  harvest run books --pages=3 --archive-dir=failed/`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Output path (overrides the target's output)")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "", "Output format: csv, jsonl, or sqlite")
	runCmd.Flags().IntVarP(&runPages, "pages", "p", 0, "Page count (overrides the target's pages)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	targets, err := config.LoadTargets(cfg.TargetsFile)
	if err != nil {
		return err
	}
	target, err := config.FindTarget(targets, args[0])
	if err != nil {
		return err
	}

	if runOutput != "" {
		target.Output = runOutput
	}
	if runFormat != "" {
		target.Format = runFormat
	}
	if runPages > 0 {
		target.Pages = runPages
	}
	if target.Output == "" {
		target.Output = target.Name + ".csv"
	}

	pageSpec, err := target.PageSpec()
	if err != nil {
		return err
	}
	fieldSpec, err := target.FieldSpec()
	if err != nil {
		return err
	}

	var src pagesource.Source
	switch pageSpec.Kind {
	case models.KindStatic:
		limiter := ratelimit.NewHostLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		src = pagesource.NewStatic(pageSpec, nil, limiter, cfg.FetchTimeout, cfg.UserAgent)
	case models.KindInteractive:
		src = pagesource.NewInteractive(pageSpec, fieldSpec.RowSelector, cfg.NavTimeout, cfg.Headless, cfg.UserAgent, cfg.ChromePath)
	}
	log.Debug().Str("source", src.Name()).Str("target", target.Name).Msg("Source selected")

	snk, err := sink.New(sink.Format(target.Format))
	if err != nil {
		return err
	}

	r := runner.New(pageSpec, fieldSpec, src, snk, target.Output)
	if cfg.ArchiveDir != "" {
		archiver, aerr := archive.New(cfg.ArchiveDir)
		if aerr != nil {
			return aerr
		}
		r.Archiver = archiver
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	quiet, _ := cmd.Flags().GetBool("quiet")
	if !jsonOut && !quiet {
		bar := progressbar.NewOptions(pageSpec.Pages,
			progressbar.OptionSetDescription(fmt.Sprintf("harvesting %s", target.Name)),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		r.OnPage = func(res models.PageResult) {
			_ = bar.Add(1)
		}
	}

	// Cancellation is honored between pages; the in-flight page may finish
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, runErr := r.Run(ctx)
	printSummary(summary, target.Output, jsonOut)

	if runErr != nil {
		return fmt.Errorf("run aborted: %w", runErr)
	}
	return nil
}

func printSummary(summary *models.RunSummary, output string, jsonOut bool) {
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(summary)
		return
	}

	fmt.Printf("\n%s\n", ui.Bold("Run summary"))
	fmt.Printf("  Pages attempted:  %d\n", summary.PagesAttempted)
	fmt.Printf("  Pages succeeded:  %d\n", summary.PagesSucceeded)
	fmt.Printf("  Records written:  %d\n", summary.RecordsWritten)
	fmt.Printf("  Output:           %s\n", output)
	if len(summary.Failures) == 0 {
		fmt.Printf("  %s\n", ui.Success("No failures"))
		return
	}
	fmt.Printf("  %s\n", ui.Warn(fmt.Sprintf("%d failed page(s):", len(summary.Failures))))
	for _, f := range summary.Failures {
		fmt.Printf("    page %d: %s\n", f.Page, f.Reason)
	}
}
