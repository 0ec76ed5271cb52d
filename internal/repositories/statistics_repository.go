package repositories

import (
	"context"
	"database/sql"
	"math"
	"sort"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/pkg/database"
)

// StatisticsRepository runs the read-side aggregation queries. Every query
// tolerates an empty repository and returns zeroed values instead of NULLs.
type StatisticsRepository struct {
	db *database.DB
}

func NewStatisticsRepository(db *database.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

func (r *StatisticsRepository) CommitStatistics(ctx context.Context, repoID int64) (*models.CommitStatistics, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(additions), 0),
		       COALESCE(SUM(deletions), 0),
		       CAST(AVG(additions + deletions) AS DOUBLE PRECISION)
		FROM commits
		WHERE repo_id = ?
	`

	var (
		stats   models.CommitStatistics
		avgSize sql.NullFloat64
	)
	if err := r.db.QueryRowContext(ctx, query, repoID).Scan(
		&stats.TotalCommits, &stats.TotalAdditions, &stats.TotalDeletions, &avgSize,
	); err != nil {
		return nil, err
	}
	stats.AvgChangesPerCommit = round(avgSize.Float64, 2)
	return &stats, nil
}

func (r *StatisticsRepository) PRStatistics(ctx context.Context, repoID int64) (*models.PRStatistics, error) {
	query := `
		SELECT COUNT(pr.id),
		       COALESCE(SUM(pr.additions), 0),
		       COALESCE(SUM(pr.deletions), 0),
		       CAST(AVG(pr.comments_count) AS DOUBLE PRECISION),
		       CAST(AVG(m.quality_score) AS DOUBLE PRECISION),
		       COALESCE(SUM(CASE WHEN m.linked_to_issue THEN 1 ELSE 0 END), 0)
		FROM pull_requests pr
		LEFT JOIN pr_metrics m ON m.pr_id = pr.id
		WHERE pr.repo_id = ?
	`

	var (
		stats       models.PRStatistics
		avgComments sql.NullFloat64
		avgQuality  sql.NullFloat64
	)
	if err := r.db.QueryRowContext(ctx, query, repoID).Scan(
		&stats.TotalPRs, &stats.TotalAdditions, &stats.TotalDeletions,
		&avgComments, &avgQuality, &stats.PRsWithIssues,
	); err != nil {
		return nil, err
	}

	stats.AvgComments = round(avgComments.Float64, 2)
	stats.AvgQualityScore = roundedPtr(avgQuality)
	if stats.TotalPRs > 0 {
		stats.PercentageLinked = round(float64(stats.PRsWithIssues)/float64(stats.TotalPRs)*100, 1)
	}
	return &stats, nil
}

func (r *StatisticsRepository) IssueStatistics(ctx context.Context, repoID int64) (*models.IssueStatistics, error) {
	query := `
		SELECT COUNT(i.id),
		       COALESCE(SUM(CASE WHEN i.state = 'open' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN i.state = 'closed' THEN 1 ELSE 0 END), 0),
		       CAST(AVG(i.comments_count) AS DOUBLE PRECISION),
		       CAST(AVG(m.quality_score) AS DOUBLE PRECISION)
		FROM issues i
		LEFT JOIN issue_metrics m ON m.issue_id = i.id
		WHERE i.repo_id = ?
	`

	var (
		stats       models.IssueStatistics
		avgComments sql.NullFloat64
		avgQuality  sql.NullFloat64
	)
	if err := r.db.QueryRowContext(ctx, query, repoID).Scan(
		&stats.TotalIssues, &stats.OpenIssues, &stats.ClosedIssues, &avgComments, &avgQuality,
	); err != nil {
		return nil, err
	}

	stats.AvgComments = round(avgComments.Float64, 2)
	stats.AvgQualityScore = roundedPtr(avgQuality)
	return &stats, nil
}

// ContributorStats returns one row per contributor with at least one commit in
// the repository, enriched with their pull request, issue and comment activity.
func (r *StatisticsRepository) ContributorStats(ctx context.Context, repoID int64) ([]*models.ContributorStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.username, c.avatar_url, COUNT(cm.id),
		       COALESCE(SUM(cm.additions), 0), COALESCE(SUM(cm.deletions), 0)
		FROM contributors c
		JOIN commits cm ON cm.contributor_id = c.id
		WHERE cm.repo_id = ?
		GROUP BY c.username, c.avatar_url
	`, repoID)
	if err != nil {
		return nil, err
	}

	byUsername := make(map[string]*models.ContributorStats)
	for rows.Next() {
		s := &models.ContributorStats{}
		if err := rows.Scan(&s.Username, &s.AvatarURL, &s.CommitCount, &s.TotalAdditions, &s.TotalDeletions); err != nil {
			rows.Close()
			return nil, err
		}
		byUsername[s.Username] = s
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.mergeActivity(ctx, byUsername, `
		SELECT c.username, COUNT(pr.id), CAST(AVG(m.quality_score) AS DOUBLE PRECISION)
		FROM contributors c
		JOIN pull_requests pr ON pr.contributor_id = c.id
		LEFT JOIN pr_metrics m ON m.pr_id = pr.id
		WHERE pr.repo_id = ?
		GROUP BY c.username
	`, repoID, func(s *models.ContributorStats, count int, avg sql.NullFloat64) {
		s.PRCount = count
		s.AvgPRQuality = roundedPtr(avg)
	})
	if err != nil {
		return nil, err
	}

	err = r.mergeActivity(ctx, byUsername, `
		SELECT c.username, COUNT(i.id), CAST(AVG(m.quality_score) AS DOUBLE PRECISION)
		FROM contributors c
		JOIN issues i ON i.contributor_id = c.id
		LEFT JOIN issue_metrics m ON m.issue_id = i.id
		WHERE i.repo_id = ?
		GROUP BY c.username
	`, repoID, func(s *models.ContributorStats, count int, avg sql.NullFloat64) {
		s.IssueCount = count
		s.AvgIssueQuality = roundedPtr(avg)
	})
	if err != nil {
		return nil, err
	}

	err = r.mergeActivity(ctx, byUsername, `
		SELECT c.username, COUNT(pc.id), CAST(NULL AS DOUBLE PRECISION)
		FROM contributors c
		JOIN pr_comments pc ON pc.contributor_id = c.id
		JOIN pull_requests pr ON pr.id = pc.pr_id
		WHERE pr.repo_id = ?
		GROUP BY c.username
	`, repoID, func(s *models.ContributorStats, count int, _ sql.NullFloat64) {
		s.PRCommentCount = count
	})
	if err != nil {
		return nil, err
	}

	err = r.mergeActivity(ctx, byUsername, `
		SELECT c.username, COUNT(ic.id), CAST(NULL AS DOUBLE PRECISION)
		FROM contributors c
		JOIN issue_comments ic ON ic.contributor_id = c.id
		JOIN issues i ON i.id = ic.issue_id
		WHERE i.repo_id = ?
		GROUP BY c.username
	`, repoID, func(s *models.ContributorStats, count int, _ sql.NullFloat64) {
		s.IssueCommentCount = count
	})
	if err != nil {
		return nil, err
	}

	stats := make([]*models.ContributorStats, 0, len(byUsername))
	for _, s := range byUsername {
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].CommitCount != stats[j].CommitCount {
			return stats[i].CommitCount > stats[j].CommitCount
		}
		return stats[i].Username < stats[j].Username
	})
	return stats, nil
}

// mergeActivity applies (username, count, average) rows onto contributors already known from commits
func (r *StatisticsRepository) mergeActivity(
	ctx context.Context,
	byUsername map[string]*models.ContributorStats,
	query string,
	repoID int64,
	apply func(s *models.ContributorStats, count int, avg sql.NullFloat64),
) error {
	rows, err := r.db.QueryContext(ctx, query, repoID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			username string
			count    int
			avg      sql.NullFloat64
		)
		if err := rows.Scan(&username, &count, &avg); err != nil {
			return err
		}
		if s, ok := byUsername[username]; ok {
			apply(s, count, avg)
		}
	}
	return rows.Err()
}

// RepositoryOverview returns sql.ErrNoRows for an unknown repository
func (r *StatisticsRepository) RepositoryOverview(ctx context.Context, repoID int64) (*models.RepositoryOverview, error) {
	var (
		overview models.RepositoryOverview
		owner    string
		name     string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT owner, name, url, last_analyzed FROM github_repositories WHERE id = ?`, repoID,
	).Scan(&owner, &name, &overview.URL, &overview.LastAnalyzed)
	if err != nil {
		return nil, err
	}
	overview.Name = owner + "/" + name

	query := `
		SELECT
			(SELECT COUNT(*) FROM commits WHERE repo_id = ?),
			(SELECT COUNT(*) FROM pull_requests WHERE repo_id = ?),
			(SELECT COUNT(*) FROM issues WHERE repo_id = ?),
			(SELECT COUNT(DISTINCT contributor_id) FROM commits WHERE repo_id = ?)
	`
	if err := r.db.QueryRowContext(ctx, query, repoID, repoID, repoID, repoID).Scan(
		&overview.TotalCommits, &overview.TotalPRs, &overview.TotalIssues, &overview.TotalContributors,
	); err != nil {
		return nil, err
	}
	return &overview, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func roundedPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	r := round(v.Float64, 2)
	return &r
}
