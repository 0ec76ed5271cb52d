package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/alimgiray/repolens/internal/services"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsFormat string

var statsCmd = &cobra.Command{
	Use:   "stats <repository>",
	Short: "Show stored statistics of an analyzed repository",
	Long: `Stats prints the aggregates stored for a repository: totals, pull request
and issue quality, contributors, languages and code quality.

The repository is given as a stored id, owner/name or GitHub URL.

Examples:
  repolens stats octo/lens
  repolens stats https://github.com/octo/lens --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVarP(&statsFormat, "format", "f", "text", "output format (text|json|yaml)")
}

func runStats(cmd *cobra.Command, args []string) error {
	export, report, err := loadReport(cmd, args[0])
	if err != nil {
		return err
	}

	switch statsFormat {
	case "text":
		printReport(cmd.OutOrStdout(), report)
		return nil
	case services.FormatJSON, services.FormatYAML:
		return export.Write(cmd.OutOrStdout(), report, statsFormat)
	default:
		return fmt.Errorf("unsupported format %q", statsFormat)
	}
}

// loadReport opens the store and builds the report of the referenced repository
func loadReport(cmd *cobra.Command, ref string) (*services.ExportService, *services.Report, error) {
	a, err := openApp(cfg)
	if err != nil {
		return nil, nil, err
	}
	defer a.Close()

	ctx := cmd.Context()
	repo, err := a.resolveRepository(ctx, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, notAnalyzed(ref)
	}
	if err != nil {
		return nil, nil, err
	}

	export := services.NewExportService(a.stats, a.content, a.quality)
	report, err := export.BuildReport(ctx, repo.ID)
	return export, report, err
}

func printReport(w io.Writer, r *services.Report) {
	o := r.Overview
	fmt.Fprintf(w, "%s (%s)\n", o.Name, o.URL)
	if o.LastAnalyzed != nil {
		fmt.Fprintf(w, "Last analyzed %s\n", humanize.Time(*o.LastAnalyzed))
	}

	fmt.Fprintf(w, "\nCommits:       %s (+%s / -%s, %.1f changes per commit)\n",
		humanize.Comma(int64(r.Commits.TotalCommits)),
		humanize.Comma(r.Commits.TotalAdditions), humanize.Comma(r.Commits.TotalDeletions),
		r.Commits.AvgChangesPerCommit)
	fmt.Fprintf(w, "Pull requests: %s (%.1f%% linked to issues, quality %s)\n",
		humanize.Comma(int64(r.PullRequests.TotalPRs)), r.PullRequests.PercentageLinked,
		formatScore(r.PullRequests.AvgQualityScore))
	fmt.Fprintf(w, "Issues:        %s (%d open, %d closed, quality %s)\n",
		humanize.Comma(int64(r.Issues.TotalIssues)), r.Issues.OpenIssues, r.Issues.ClosedIssues,
		formatScore(r.Issues.AvgQualityScore))
	fmt.Fprintf(w, "Contributors:  %s\n", humanize.Comma(int64(o.TotalContributors)))

	if len(r.Contributors) > 0 {
		fmt.Fprintf(w, "\n%-24s %8s %8s %8s %8s\n", "CONTRIBUTOR", "COMMITS", "PRS", "ISSUES", "COMMENTS")
		for _, c := range r.Contributors {
			fmt.Fprintf(w, "%-24s %8d %8d %8d %8d\n",
				c.Username, c.CommitCount, c.PRCount, c.IssueCount, c.PRCommentCount+c.IssueCommentCount)
		}
	}

	if len(r.Languages) > 0 {
		fmt.Fprintln(w, "\nLanguages:")
		for _, l := range r.Languages {
			fmt.Fprintf(w, "  %-16s %5.1f%% %s lines\n", l.Language, l.Percentage, humanize.Comma(l.Lines))
		}
	}

	if q := r.Quality; q != nil {
		fmt.Fprintf(w, "\nCode quality:  complexity %.2f (%s), maintainability %.2f (%s)\n",
			q.AvgComplexity, q.ComplexityGrade, q.MaintainabilityIndex, q.MaintainabilityGrade)
		if q.Summary != "" {
			fmt.Fprintf(w, "  %s\n", q.Summary)
		}
		for _, s := range q.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
}

func formatScore(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f/10", *score)
}
