package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/pkg/database"
)

type IssueRepository struct {
	db *database.DB
}

func NewIssueRepository(db *database.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

const issueColumns = `id, repo_id, contributor_id, issue_number, title, body, state,
	assignees, labels, comments_count, created_at, closed_at`

func scanIssue(row interface{ Scan(...any) error }) (*models.Issue, error) {
	var (
		issue     models.Issue
		body      sql.NullString
		assignees sql.NullString
		labels    sql.NullString
	)
	if err := row.Scan(
		&issue.ID, &issue.RepoID, &issue.ContributorID, &issue.Number, &issue.Title, &body, &issue.State,
		&assignees, &labels, &issue.CommentsCount, &issue.CreatedAt, &issue.ClosedAt,
	); err != nil {
		return nil, err
	}
	issue.Body = body.String
	issue.Assignees = decodeList(assignees)
	issue.Labels = decodeList(labels)
	return &issue, nil
}

// Upsert inserts the issue or overwrites every mutable field of the row
// stored for (repo_id, issue_number). It returns the row id.
func (r *IssueRepository) Upsert(ctx context.Context, issue *models.Issue) (int64, error) {
	assignees, err := encodeList(issue.Assignees)
	if err != nil {
		return 0, err
	}
	labels, err := encodeList(issue.Labels)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO issues (
			repo_id, contributor_id, issue_number, title, body, state,
			assignees, labels, comments_count, created_at, closed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, issue_number) DO UPDATE SET
			contributor_id = excluded.contributor_id,
			title = excluded.title,
			body = excluded.body,
			state = excluded.state,
			assignees = excluded.assignees,
			labels = excluded.labels,
			comments_count = excluded.comments_count,
			created_at = excluded.created_at,
			closed_at = excluded.closed_at
		RETURNING id
	`

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		issue.RepoID, issue.ContributorID, issue.Number, issue.Title, issue.Body, issue.State,
		assignees, labels, issue.CommentsCount, issue.CreatedAt.UTC(), utcPtr(issue.ClosedAt),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	issue.ID = id
	return id, nil
}

func (r *IssueRepository) GetByNumber(ctx context.Context, repoID int64, number int) (*models.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE repo_id = ? AND issue_number = ?`
	return scanIssue(r.db.QueryRowContext(ctx, query, repoID, number))
}

func (r *IssueRepository) ListByRepository(ctx context.Context, repoID int64) ([]*models.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE repo_id = ? ORDER BY issue_number DESC`

	rows, err := r.db.QueryContext(ctx, query, repoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	issues := []*models.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// IDsByNumber maps issue_number to row id for a repository
func (r *IssueRepository) IDsByNumber(ctx context.Context, repoID int64) (map[int]int64, error) {
	return idsByNumber(ctx, r.db, `SELECT issue_number, id FROM issues WHERE repo_id = ?`, repoID)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
