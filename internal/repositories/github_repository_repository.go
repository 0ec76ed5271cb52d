package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/pkg/database"
)

type GitHubRepositoryRepository struct {
	db *database.DB
}

func NewGitHubRepositoryRepository(db *database.DB) *GitHubRepositoryRepository {
	return &GitHubRepositoryRepository{db: db}
}

const githubRepositoryColumns = `id, github_id, owner, name, url, description, last_analyzed, created_at`

func scanGitHubRepository(row interface{ Scan(...any) error }) (*models.GitHubRepository, error) {
	var repo models.GitHubRepository
	if err := row.Scan(
		&repo.ID, &repo.GithubID, &repo.Owner, &repo.Name, &repo.URL,
		&repo.Description, &repo.LastAnalyzed, &repo.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &repo, nil
}

// GetOrCreate returns the stored repository for info.GithubID, refreshing its metadata,
// or inserts it. A concurrent insert of the same repository is resolved by re-reading.
func (r *GitHubRepositoryRepository) GetOrCreate(ctx context.Context, info models.RepositoryInfo) (*models.GitHubRepository, error) {
	var description *string
	if info.Description != "" {
		description = &info.Description
	}

	existing, err := r.GetByGithubID(ctx, info.GithubID)
	if err == nil {
		_, err = r.db.ExecContext(ctx,
			`UPDATE github_repositories SET owner = ?, name = ?, url = ?, description = ? WHERE id = ?`,
			info.Owner, info.Name, info.URL, description, existing.ID,
		)
		if err != nil {
			return nil, err
		}
		existing.Owner, existing.Name, existing.URL, existing.Description = info.Owner, info.Name, info.URL, description
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	query := `
		INSERT INTO github_repositories (github_id, owner, name, url, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING ` + githubRepositoryColumns

	repo, err := scanGitHubRepository(r.db.QueryRowContext(ctx, query,
		info.GithubID, info.Owner, info.Name, info.URL, description, time.Now().UTC(),
	))
	if err == nil {
		return repo, nil
	}
	if !database.IsUniqueViolation(err) {
		return nil, err
	}

	repo, err = r.GetByGithubID(ctx, info.GithubID)
	if err != nil {
		return nil, &models.PersistenceError{Op: "get_or_create_repository", Err: err}
	}
	return repo, nil
}

func (r *GitHubRepositoryRepository) GetByID(ctx context.Context, id int64) (*models.GitHubRepository, error) {
	query := `SELECT ` + githubRepositoryColumns + ` FROM github_repositories WHERE id = ?`
	return scanGitHubRepository(r.db.QueryRowContext(ctx, query, id))
}

func (r *GitHubRepositoryRepository) GetByGithubID(ctx context.Context, githubID int64) (*models.GitHubRepository, error) {
	query := `SELECT ` + githubRepositoryColumns + ` FROM github_repositories WHERE github_id = ?`
	return scanGitHubRepository(r.db.QueryRowContext(ctx, query, githubID))
}

// GetByOwnerName looks a repository up by its owner/name pair, case-insensitively
func (r *GitHubRepositoryRepository) GetByOwnerName(ctx context.Context, owner, name string) (*models.GitHubRepository, error) {
	query := `
		SELECT ` + githubRepositoryColumns + `
		FROM github_repositories
		WHERE LOWER(owner) = LOWER(?) AND LOWER(name) = LOWER(?)
		ORDER BY id LIMIT 1
	`
	return scanGitHubRepository(r.db.QueryRowContext(ctx, query, owner, name))
}

// List returns every analyzed repository, most recently analyzed first
func (r *GitHubRepositoryRepository) List(ctx context.Context) ([]*models.GitHubRepository, error) {
	query := `
		SELECT ` + githubRepositoryColumns + `
		FROM github_repositories
		ORDER BY CASE WHEN last_analyzed IS NULL THEN 1 ELSE 0 END, last_analyzed DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	repos := []*models.GitHubRepository{}
	for rows.Next() {
		repo, err := scanGitHubRepository(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}

	return repos, rows.Err()
}

// UpdateLastAnalyzed stamps the repository with the end of a pipeline run
func (r *GitHubRepositoryRepository) UpdateLastAnalyzed(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE github_repositories SET last_analyzed = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
