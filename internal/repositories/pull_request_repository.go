package repositories

import (
	"context"
	"database/sql"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/pkg/database"
)

type PullRequestRepository struct {
	db *database.DB
}

func NewPullRequestRepository(db *database.DB) *PullRequestRepository {
	return &PullRequestRepository{db: db}
}

const pullRequestColumns = `id, repo_id, contributor_id, merged_by_id, pr_number, title, body, state,
	comments_count, additions, deletions, created_at, merged_at, closed_at, approvers`

func scanPullRequest(row interface{ Scan(...any) error }) (*models.PullRequest, error) {
	var (
		pr        models.PullRequest
		body      sql.NullString
		approvers sql.NullString
	)
	if err := row.Scan(
		&pr.ID, &pr.RepoID, &pr.ContributorID, &pr.MergedByID, &pr.Number, &pr.Title, &body, &pr.State,
		&pr.CommentsCount, &pr.Additions, &pr.Deletions, &pr.CreatedAt, &pr.MergedAt, &pr.ClosedAt, &approvers,
	); err != nil {
		return nil, err
	}
	pr.Body = body.String
	pr.Approvers = decodeList(approvers)
	return &pr, nil
}

// Upsert inserts the pull request or overwrites every mutable field of the
// row stored for (repo_id, pr_number). It returns the row id.
func (r *PullRequestRepository) Upsert(ctx context.Context, pr *models.PullRequest) (int64, error) {
	approvers, err := encodeList(pr.Approvers)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO pull_requests (
			repo_id, contributor_id, merged_by_id, pr_number, title, body, state,
			comments_count, additions, deletions, created_at, merged_at, closed_at, approvers
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, pr_number) DO UPDATE SET
			contributor_id = excluded.contributor_id,
			merged_by_id = excluded.merged_by_id,
			title = excluded.title,
			body = excluded.body,
			state = excluded.state,
			comments_count = excluded.comments_count,
			additions = excluded.additions,
			deletions = excluded.deletions,
			created_at = excluded.created_at,
			merged_at = excluded.merged_at,
			closed_at = excluded.closed_at,
			approvers = excluded.approvers
		RETURNING id
	`

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		pr.RepoID, pr.ContributorID, pr.MergedByID, pr.Number, pr.Title, pr.Body, pr.State,
		pr.CommentsCount, pr.Additions, pr.Deletions, pr.CreatedAt.UTC(), utcPtr(pr.MergedAt), utcPtr(pr.ClosedAt), approvers,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	pr.ID = id
	return id, nil
}

func (r *PullRequestRepository) GetByNumber(ctx context.Context, repoID int64, number int) (*models.PullRequest, error) {
	query := `SELECT ` + pullRequestColumns + ` FROM pull_requests WHERE repo_id = ? AND pr_number = ?`
	return scanPullRequest(r.db.QueryRowContext(ctx, query, repoID, number))
}

func (r *PullRequestRepository) ListByRepository(ctx context.Context, repoID int64) ([]*models.PullRequest, error) {
	query := `SELECT ` + pullRequestColumns + ` FROM pull_requests WHERE repo_id = ? ORDER BY pr_number DESC`

	rows, err := r.db.QueryContext(ctx, query, repoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pullRequests := []*models.PullRequest{}
	for rows.Next() {
		pr, err := scanPullRequest(rows)
		if err != nil {
			return nil, err
		}
		pullRequests = append(pullRequests, pr)
	}
	return pullRequests, rows.Err()
}

// IDsByNumber maps pr_number to row id for a repository
func (r *PullRequestRepository) IDsByNumber(ctx context.Context, repoID int64) (map[int]int64, error) {
	return idsByNumber(ctx, r.db, `SELECT pr_number, id FROM pull_requests WHERE repo_id = ?`, repoID)
}

func idsByNumber(ctx context.Context, db *database.DB, query string, repoID int64) (map[int]int64, error) {
	rows, err := db.QueryContext(ctx, query, repoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[int]int64)
	for rows.Next() {
		var (
			number int
			id     int64
		)
		if err := rows.Scan(&number, &id); err != nil {
			return nil, err
		}
		ids[number] = id
	}
	return ids, rows.Err()
}
