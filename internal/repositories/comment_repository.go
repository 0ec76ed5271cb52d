package repositories

import (
	"context"
	"database/sql"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/pkg/database"
)

type CommentRepository struct {
	db *database.DB
}

func NewCommentRepository(db *database.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// SavePRComment inserts the comment unless its remote id is already stored.
// It reports whether a row was written; a duplicate is not an error.
func (r *CommentRepository) SavePRComment(ctx context.Context, c *models.PRComment) (bool, error) {
	commentType := c.CommentType
	if commentType == "" {
		commentType = models.CommentTypeIssue
	}

	query := `
		INSERT INTO pr_comments (pr_id, contributor_id, comment_id, comment_type, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(comment_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		c.PRID, c.ContributorID, c.CommentID, commentType, c.Body, c.CreatedAt.UTC(),
	)
	return inserted(res, err)
}

// SaveIssueComment inserts the comment unless its remote id is already stored
func (r *CommentRepository) SaveIssueComment(ctx context.Context, c *models.IssueComment) (bool, error) {
	query := `
		INSERT INTO issue_comments (issue_id, contributor_id, comment_id, body, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(comment_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		c.IssueID, c.ContributorID, c.CommentID, c.Body, c.CreatedAt.UTC(),
	)
	return inserted(res, err)
}

func (r *CommentRepository) ListPRComments(ctx context.Context, prID int64) ([]*models.PRComment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pr_id, contributor_id, comment_id, comment_type, body, created_at
		FROM pr_comments WHERE pr_id = ? ORDER BY created_at, id`, prID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []*models.PRComment{}
	for rows.Next() {
		var (
			c    models.PRComment
			body sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.PRID, &c.ContributorID, &c.CommentID, &c.CommentType, &body, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Body = body.String
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func (r *CommentRepository) ListIssueComments(ctx context.Context, issueID int64) ([]*models.IssueComment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, issue_id, contributor_id, comment_id, body, created_at
		FROM issue_comments WHERE issue_id = ? ORDER BY created_at, id`, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []*models.IssueComment{}
	for rows.Next() {
		var (
			c    models.IssueComment
			body sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.IssueID, &c.ContributorID, &c.CommentID, &body, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Body = body.String
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func inserted(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
