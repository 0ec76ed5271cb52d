package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/pkg/database"
)

// MetricRepository keeps at most one metric row per commit, pull request and issue
type MetricRepository struct {
	db *database.DB
}

func NewMetricRepository(db *database.DB) *MetricRepository {
	return &MetricRepository{db: db}
}

// SaveCommitMetric upserts by commit_id and refreshes calculated_at
func (r *MetricRepository) SaveCommitMetric(ctx context.Context, m *models.CommitMetric) error {
	m.CalculatedAt = time.Now().UTC()
	query := `
		INSERT INTO commit_metrics (commit_id, quality_score, feedback, calculated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(commit_id) DO UPDATE SET
			quality_score = excluded.quality_score,
			feedback = excluded.feedback,
			calculated_at = excluded.calculated_at
	`
	_, err := r.db.ExecContext(ctx, query, m.CommitID, m.QualityScore, m.Feedback, m.CalculatedAt)
	return err
}

// SavePRMetric upserts by pr_id and refreshes calculated_at. An existing
// avg_comment_length is kept; UpdatePRCommentLength owns it.
func (r *MetricRepository) SavePRMetric(ctx context.Context, m *models.PRMetric) error {
	m.CalculatedAt = time.Now().UTC()
	query := `
		INSERT INTO pr_metrics (pr_id, quality_score, feedback, linked_to_issue, avg_comment_length, calculated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(pr_id) DO UPDATE SET
			quality_score = excluded.quality_score,
			feedback = excluded.feedback,
			linked_to_issue = excluded.linked_to_issue,
			calculated_at = excluded.calculated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		m.PRID, m.QualityScore, m.Feedback, m.LinkedToIssue, m.AvgCommentLength, m.CalculatedAt,
	)
	return err
}

// UpdatePRCommentLength sets avg_comment_length on the existing metric of prID.
// A pull request without a metric row is left alone.
func (r *MetricRepository) UpdatePRCommentLength(ctx context.Context, prID int64, avg float64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pr_metrics SET avg_comment_length = ? WHERE pr_id = ?`, avg, prID)
	return err
}

// SaveIssueMetric upserts by issue_id and refreshes calculated_at
func (r *MetricRepository) SaveIssueMetric(ctx context.Context, m *models.IssueMetric) error {
	m.CalculatedAt = time.Now().UTC()
	query := `
		INSERT INTO issue_metrics (issue_id, quality_score, feedback, calculated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(issue_id) DO UPDATE SET
			quality_score = excluded.quality_score,
			feedback = excluded.feedback,
			calculated_at = excluded.calculated_at
	`
	_, err := r.db.ExecContext(ctx, query, m.IssueID, m.QualityScore, m.Feedback, m.CalculatedAt)
	return err
}

func (r *MetricRepository) GetCommitMetric(ctx context.Context, commitID int64) (*models.CommitMetric, error) {
	var (
		m        models.CommitMetric
		score    sql.NullFloat64
		feedback sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, commit_id, quality_score, feedback, calculated_at FROM commit_metrics WHERE commit_id = ?`,
		commitID,
	).Scan(&m.ID, &m.CommitID, &score, &feedback, &m.CalculatedAt)
	if err != nil {
		return nil, err
	}
	m.QualityScore, m.Feedback = score.Float64, feedback.String
	return &m, nil
}

func (r *MetricRepository) GetPRMetric(ctx context.Context, prID int64) (*models.PRMetric, error) {
	var (
		m        models.PRMetric
		score    sql.NullFloat64
		feedback sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, pr_id, quality_score, feedback, linked_to_issue, avg_comment_length, calculated_at
		FROM pr_metrics WHERE pr_id = ?`,
		prID,
	).Scan(&m.ID, &m.PRID, &score, &feedback, &m.LinkedToIssue, &m.AvgCommentLength, &m.CalculatedAt)
	if err != nil {
		return nil, err
	}
	m.QualityScore, m.Feedback = score.Float64, feedback.String
	return &m, nil
}

func (r *MetricRepository) GetIssueMetric(ctx context.Context, issueID int64) (*models.IssueMetric, error) {
	var (
		m        models.IssueMetric
		score    sql.NullFloat64
		feedback sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, issue_id, quality_score, feedback, calculated_at FROM issue_metrics WHERE issue_id = ?`,
		issueID,
	).Scan(&m.ID, &m.IssueID, &score, &feedback, &m.CalculatedAt)
	if err != nil {
		return nil, err
	}
	m.QualityScore, m.Feedback = score.Float64, feedback.String
	return &m, nil
}
