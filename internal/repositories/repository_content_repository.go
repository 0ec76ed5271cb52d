package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/pkg/database"
)

type RepositoryContentRepository struct {
	db *database.DB
}

func NewRepositoryContentRepository(db *database.DB) *RepositoryContentRepository {
	return &RepositoryContentRepository{db: db}
}

// Upsert replaces the stored content analysis of content.RepoID
func (r *RepositoryContentRepository) Upsert(ctx context.Context, content *models.RepositoryContent) error {
	languages, err := encodeJSON(content.LanguageBreakdown)
	if err != nil {
		return fmt.Errorf("failed to encode language breakdown: %w", err)
	}
	fileTypes, err := encodeJSON(content.FileTypes)
	if err != nil {
		return fmt.Errorf("failed to encode file types: %w", err)
	}
	largest, err := encodeJSON(content.LargestFiles)
	if err != nil {
		return fmt.Errorf("failed to encode largest files: %w", err)
	}
	if content.AnalyzedAt.IsZero() {
		content.AnalyzedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO repository_contents (
			repo_id, total_files, total_lines, language_breakdown, file_types, largest_files, analyzed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id) DO UPDATE SET
			total_files = excluded.total_files,
			total_lines = excluded.total_lines,
			language_breakdown = excluded.language_breakdown,
			file_types = excluded.file_types,
			largest_files = excluded.largest_files,
			analyzed_at = excluded.analyzed_at
	`
	_, err = r.db.ExecContext(ctx, query,
		content.RepoID, content.TotalFiles, content.TotalLines, languages, fileTypes, largest, content.AnalyzedAt.UTC(),
	)
	return err
}

// GetByRepositoryID returns sql.ErrNoRows when the repository has not been analyzed
func (r *RepositoryContentRepository) GetByRepositoryID(ctx context.Context, repoID int64) (*models.RepositoryContent, error) {
	var (
		content   models.RepositoryContent
		languages sql.NullString
		fileTypes sql.NullString
		largest   sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, repo_id, total_files, total_lines, language_breakdown, file_types, largest_files, analyzed_at
		FROM repository_contents WHERE repo_id = ?`, repoID,
	).Scan(&content.ID, &content.RepoID, &content.TotalFiles, &content.TotalLines,
		&languages, &fileTypes, &largest, &content.AnalyzedAt)
	if err != nil {
		return nil, err
	}

	content.LanguageBreakdown = map[string]models.LanguageStats{}
	content.FileTypes = map[string]int{}
	content.LargestFiles = []models.FileInfo{}
	if err := decodeJSON(languages, &content.LanguageBreakdown); err != nil {
		return nil, fmt.Errorf("failed to decode language breakdown: %w", err)
	}
	if err := decodeJSON(fileTypes, &content.FileTypes); err != nil {
		return nil, fmt.Errorf("failed to decode file types: %w", err)
	}
	if err := decodeJSON(largest, &content.LargestFiles); err != nil {
		return nil, fmt.Errorf("failed to decode largest files: %w", err)
	}
	return &content, nil
}
