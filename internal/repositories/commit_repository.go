package repositories

import (
	"context"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/pkg/database"
)

type CommitRepository struct {
	db *database.DB
}

func NewCommitRepository(db *database.DB) *CommitRepository {
	return &CommitRepository{db: db}
}

const commitColumns = `id, repo_id, contributor_id, sha, message, additions, deletions, files_changed, committed_at, created_at`

func scanCommit(row interface{ Scan(...any) error }) (*models.Commit, error) {
	var c models.Commit
	if err := row.Scan(
		&c.ID, &c.RepoID, &c.ContributorID, &c.SHA, &c.Message,
		&c.Additions, &c.Deletions, &c.FilesChanged, &c.CommittedAt, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save inserts the commit unless its sha is already stored and returns the stored row.
// Commits are immutable, an existing row is returned unchanged.
func (r *CommitRepository) Save(ctx context.Context, commit *models.Commit) (*models.Commit, error) {
	query := `
		INSERT INTO commits (
			repo_id, contributor_id, sha, message, additions, deletions, files_changed, committed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sha) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		commit.RepoID, commit.ContributorID, commit.SHA, commit.Message,
		commit.Additions, commit.Deletions, commit.FilesChanged, commit.CommittedAt.UTC(),
	)
	if err != nil {
		return nil, err
	}

	return r.GetBySHA(ctx, commit.SHA)
}

func (r *CommitRepository) GetBySHA(ctx context.Context, sha string) (*models.Commit, error) {
	query := `SELECT ` + commitColumns + ` FROM commits WHERE sha = ?`
	return scanCommit(r.db.QueryRowContext(ctx, query, sha))
}

// ListByRepository returns the newest commits first; limit <= 0 returns all
func (r *CommitRepository) ListByRepository(ctx context.Context, repoID int64, limit int) ([]*models.Commit, error) {
	query := `SELECT ` + commitColumns + ` FROM commits WHERE repo_id = ? ORDER BY committed_at DESC, id DESC`
	args := []any{repoID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	commits := []*models.Commit{}
	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}
	return commits, rows.Err()
}

// CountByRepository returns the number of stored commits of a repository
func (r *CommitRepository) CountByRepository(ctx context.Context, repoID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commits WHERE repo_id = ?`, repoID).Scan(&n)
	return n, err
}
