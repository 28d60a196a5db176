package store

import (
	"context"
	"time"
)

const commentColumns = `id, text, author_id, post_id, is_published, created_at`

func scanComment(row interface{ Scan(...any) error }) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.Text, &c.AuthorID, &c.PostID, &c.IsPublished, &c.CreatedAt)
	return c, err
}

// CreateCommentParams holds the fields for creating a comment.
type CreateCommentParams struct {
	Text      string
	AuthorID  int64
	PostID    int64
	CreatedAt time.Time
}

// CreateComment inserts a new published comment and returns it.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (Comment, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO comments (text, author_id, post_id, is_published, created_at)
		VALUES (?, ?, ?, 1, ?)
		RETURNING `+commentColumns,
		arg.Text, arg.AuthorID, arg.PostID, arg.CreatedAt)
	return scanComment(row)
}

// GetCommentByID fetches a comment by primary key.
func (q *Queries) GetCommentByID(ctx context.Context, id int64) (Comment, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	return scanComment(row)
}

// ListPublishedComments returns a post's published comments with author
// display fields, oldest first.
func (q *Queries) ListPublishedComments(ctx context.Context, postID int64) ([]CommentWithAuthor, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.text, c.author_id, c.post_id, c.is_published, c.created_at,
		       u.username, u.first_name, u.last_name
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ? AND c.is_published = 1
		ORDER BY c.created_at, c.id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []CommentWithAuthor
	for rows.Next() {
		var c CommentWithAuthor
		if err := rows.Scan(&c.ID, &c.Text, &c.AuthorID, &c.PostID, &c.IsPublished, &c.CreatedAt,
			&c.AuthorUsername, &c.AuthorFirstName, &c.AuthorLastName); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpdateCommentText updates a comment's text.
func (q *Queries) UpdateCommentText(ctx context.Context, id int64, text string) error {
	_, err := q.db.ExecContext(ctx, `UPDATE comments SET text = ? WHERE id = ?`, text, id)
	return err
}

// DeleteComment removes a comment.
func (q *Queries) DeleteComment(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	return err
}
