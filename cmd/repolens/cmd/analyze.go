package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alimgiray/repolens/internal/progress"
	"github.com/alimgiray/repolens/internal/services"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var analyzeFormat string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <repository-url>",
	Short: "Fetch, score and store one repository",
	Long: `Analyze runs the full pipeline for a GitHub repository: commits, pull
requests, issues and their comments are fetched and stored, texts are scored
and a shallow clone is measured for languages and code quality.

Running it again refreshes the stored data without creating duplicates.

Examples:
  repolens analyze https://github.com/octo/lens
  repolens analyze https://github.com/octo/lens --skip-content --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	flags := analyzeCmd.Flags()
	flags.Bool("skip-content", false, "skip the clone and code quality stage")
	flags.Bool("score-commits", false, "score commit messages with the LLM")
	flags.Duration("item-timeout", 0, "timeout per analyzed item (default from config)")
	flags.StringVarP(&analyzeFormat, "format", "f", "text", "output format (text|json)")

	viper.BindPFlag("analysis.skip_content", flags.Lookup("skip-content"))
	viper.BindPFlag("analysis.score_commits", flags.Lookup("score-commits"))
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if timeout, _ := cmd.Flags().GetDuration("item-timeout"); timeout > 0 {
		cfg.Analysis.ItemTimeout = timeout
	}

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	pipeline, _, err := a.pipeline(cfg, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.Run(ctx, args[0], services.PipelineOptions{
		RunID:        uuid.New().String(),
		MaxWorkers:   cfg.Analysis.MaxWorkers,
		ItemTimeout:  cfg.Analysis.ItemTimeout,
		ScoreCommits: cfg.Analysis.ScoreCommits,
		SkipContent:  cfg.Analysis.SkipContent,
		Observer:     progressPrinter(cmd.ErrOrStderr()),
	})
	if err != nil {
		return err
	}

	if analyzeFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printAnalysis(cmd.OutOrStdout(), result)
	return nil
}

// progressPrinter writes a line when a stage finishes and every 25 items in between
func progressPrinter(w io.Writer) func(progress.Event) {
	return func(ev progress.Event) {
		switch {
		case ev.Total == progress.Unknown:
			if ev.Completed%25 == 0 {
				fmt.Fprintf(w, "  %-16s %s\n", ev.Stage, humanize.Comma(int64(ev.Completed)))
			}
		case ev.Completed == ev.Total || ev.Completed%25 == 0:
			fmt.Fprintf(w, "  %-16s %s/%s %s\n", ev.Stage,
				humanize.Comma(int64(ev.Completed)), humanize.Comma(int64(ev.Total)), ev.Label)
		}
	}
}

func printAnalysis(w io.Writer, r *services.PipelineResult) {
	fmt.Fprintf(w, "\nAnalyzed %s in %s\n", r.Repository.FullName(), r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Commits:        %s saved, %d failed\n", humanize.Comma(int64(r.Commits.Succeeded)), r.Commits.Failed)
	fmt.Fprintf(w, "  Pull requests:  %s saved, %d failed\n", humanize.Comma(int64(r.PullRequests.Succeeded)), r.PullRequests.Failed)
	fmt.Fprintf(w, "  Issues:         %s saved, %d failed\n", humanize.Comma(int64(r.Issues.Succeeded)), r.Issues.Failed)
	fmt.Fprintf(w, "  Comments:       %s on PRs, %s on issues\n",
		humanize.Comma(int64(r.PRCommentsSaved)), humanize.Comma(int64(r.IssueCommentsSaved)))

	switch {
	case r.Content == nil:
		fmt.Fprintln(w, "  Content:        skipped")
	case r.Content.Error != "":
		fmt.Fprintf(w, "  Content:        failed (%s): %s\n", r.Content.ErrorKind, r.Content.Error)
	case r.Content.Content != nil:
		fmt.Fprintf(w, "  Content:        %s files, %s lines\n",
			humanize.Comma(int64(r.Content.Content.TotalFiles)), humanize.Comma(r.Content.Content.TotalLines))
		if q := r.Content.Quality; q != nil {
			fmt.Fprintf(w, "  Quality:        complexity %s, maintainability %s\n", q.ComplexityGrade, q.MaintainabilityGrade)
		}
	}

	for _, msg := range r.FetchErrors {
		fmt.Fprintf(w, "  Warning: %s\n", msg)
	}
}
