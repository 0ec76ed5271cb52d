package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/pkg/database"
)

// ContributorRepository has no lock: concurrent creators of the same username
// are reconciled by the UNIQUE constraint.
type ContributorRepository struct {
	db *database.DB
}

func NewContributorRepository(db *database.DB) *ContributorRepository {
	return &ContributorRepository{db: db}
}

const contributorColumns = `id, username, email, avatar_url, first_seen`

func scanContributor(row interface{ Scan(...any) error }) (*models.Contributor, error) {
	var c models.Contributor
	if err := row.Scan(&c.ID, &c.Username, &c.Email, &c.AvatarURL, &c.FirstSeen); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContributorRepository) GetByUsername(ctx context.Context, username string) (*models.Contributor, error) {
	query := `SELECT ` + contributorColumns + ` FROM contributors WHERE username = ?`
	return scanContributor(r.db.QueryRowContext(ctx, query, username))
}

func (r *ContributorRepository) GetByID(ctx context.Context, id int64) (*models.Contributor, error) {
	query := `SELECT ` + contributorColumns + ` FROM contributors WHERE id = ?`
	return scanContributor(r.db.QueryRowContext(ctx, query, id))
}

// GetOrCreate looks the contributor up by username and inserts it on a miss.
// If the insert loses a race against another writer the row is re-read;
// a row that is still missing after that yields a PersistenceError.
func (r *ContributorRepository) GetOrCreate(ctx context.Context, input models.ContributorInput) (*models.Contributor, error) {
	username := input.Username
	if username == "" {
		username = models.UnknownContributor
	}

	existing, err := r.GetByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	query := `
		INSERT INTO contributors (username, email, avatar_url, first_seen)
		VALUES (?, ?, ?, ?)
		RETURNING ` + contributorColumns

	created, err := scanContributor(r.db.QueryRowContext(ctx, query,
		username, nullString(input.Email), nullString(input.AvatarURL), time.Now().UTC(),
	))
	if err == nil {
		return created, nil
	}
	if !database.IsUniqueViolation(err) {
		return nil, err
	}

	existing, err = r.GetByUsername(ctx, username)
	if err != nil {
		return nil, &models.PersistenceError{Op: "get_or_create_contributor", Err: err}
	}
	return existing, nil
}

// Count returns the number of stored contributors
func (r *ContributorRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contributors`).Scan(&n)
	return n, err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
