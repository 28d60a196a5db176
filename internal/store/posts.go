package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"quill/internal/visibility"
)

// postMetaSelect joins a post with its author, category, optional
// location, and the published-comment count. The count comes from a
// single grouped subquery so listings never fan out into per-row
// comment queries.
const postMetaSelect = `
	SELECT p.id, p.title, p.body, p.image_path, p.pub_date, p.is_published,
	       p.author_id, p.category_id, p.location_id, p.created_at,
	       u.username, u.first_name, u.last_name,
	       c.title, c.slug,
	       l.name,
	       COALESCE(cc.comment_count, 0)
	FROM posts p
	JOIN users u ON u.id = p.author_id
	JOIN categories c ON c.id = p.category_id
	LEFT JOIN locations l ON l.id = p.location_id
	LEFT JOIN (
		SELECT post_id, COUNT(*) AS comment_count
		FROM comments
		WHERE is_published = 1
		GROUP BY post_id
	) cc ON cc.post_id = p.id`

// visiblePredicate is the full visibility invariant: post, category and
// location (when set) published, pub date not in the future.
const visiblePredicate = `p.is_published = 1
	AND c.is_published = 1
	AND (p.location_id IS NULL OR l.is_published = 1)
	AND p.pub_date <= ?`

func scanPostWithMeta(row interface{ Scan(...any) error }) (PostWithMeta, error) {
	var p PostWithMeta
	err := row.Scan(&p.ID, &p.Title, &p.Body, &p.ImagePath, &p.PubDate, &p.IsPublished,
		&p.AuthorID, &p.CategoryID, &p.LocationID, &p.CreatedAt,
		&p.AuthorUsername, &p.AuthorFirstName, &p.AuthorLastName,
		&p.CategoryTitle, &p.CategorySlug,
		&p.LocationName,
		&p.CommentCount)
	return p, err
}

// filterToSQL translates a visibility filter descriptor into a WHERE
// clause fragment over the postMetaSelect aliases.
func filterToSQL(f visibility.Filter) (string, []any) {
	var conds []string
	var args []any

	for _, pred := range f.Predicates {
		switch pred.Kind {
		case visibility.PredCategoryID:
			conds = append(conds, "p.category_id = ?")
			args = append(args, pred.ID)
		case visibility.PredAuthorID:
			conds = append(conds, "p.author_id = ?")
			args = append(args, pred.ID)
		case visibility.PredPublished:
			conds = append(conds, "p.is_published = 1",
				"c.is_published = 1",
				"(p.location_id IS NULL OR l.is_published = 1)")
		case visibility.PredPubDateBefore:
			conds = append(conds, "p.pub_date <= ?")
			args = append(args, pred.Time)
		}
	}

	if len(conds) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(conds, " AND "), args
}

// ListPostsParams selects a page of a filtered post listing.
type ListPostsParams struct {
	Filter visibility.Filter
	Limit  int64
	Offset int64
}

// ListPosts returns one page of the posts matching the filter, newest
// pub date first, each annotated with its published-comment count.
func (q *Queries) ListPosts(ctx context.Context, arg ListPostsParams) ([]PostWithMeta, error) {
	where, args := filterToSQL(arg.Filter)
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx, postMetaSelect+`
		WHERE `+where+`
		ORDER BY p.pub_date DESC, p.id DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []PostWithMeta
	for rows.Next() {
		p, err := scanPostWithMeta(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CountPosts returns the total number of posts matching the filter.
func (q *Queries) CountPosts(ctx context.Context, filter visibility.Filter) (int64, error) {
	where, args := filterToSQL(filter)

	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM posts p
		JOIN categories c ON c.id = p.category_id
		LEFT JOIN locations l ON l.id = p.location_id
		WHERE `+where, args...).Scan(&count)
	return count, err
}

// GetVisiblePost fetches a single post as seen by the given viewer.
// A post that exists but fails the visibility invariant for a non-author
// is reported as sql.ErrNoRows, indistinguishable from a missing row.
func (q *Queries) GetVisiblePost(ctx context.Context, id int64, viewer visibility.Viewer) (PostWithMeta, error) {
	var viewerID int64
	if viewer.Authenticated {
		viewerID = viewer.ID
	}

	row := q.db.QueryRowContext(ctx, postMetaSelect+`
		WHERE p.id = ?
		  AND (p.author_id = ? OR (`+visiblePredicate+`))`,
		id, viewerID, time.Now())
	return scanPostWithMeta(row)
}

// GetPostByID fetches a post by primary key with no visibility check.
// Mutation paths use this together with the ownership guard.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (Post, error) {
	var p Post
	err := q.db.QueryRowContext(ctx, `
		SELECT id, title, body, image_path, pub_date, is_published,
		       author_id, category_id, location_id, created_at
		FROM posts WHERE id = ?`, id).
		Scan(&p.ID, &p.Title, &p.Body, &p.ImagePath, &p.PubDate, &p.IsPublished,
			&p.AuthorID, &p.CategoryID, &p.LocationID, &p.CreatedAt)
	return p, err
}

// CreatePostParams holds the fields for creating a post.
type CreatePostParams struct {
	Title       string
	Body        string
	ImagePath   sql.NullString
	PubDate     time.Time
	IsPublished bool
	AuthorID    int64
	CategoryID  int64
	LocationID  sql.NullInt64
	CreatedAt   time.Time
}

// CreatePost inserts a new post and returns it.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	var p Post
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO posts (title, body, image_path, pub_date, is_published,
		                   author_id, category_id, location_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, title, body, image_path, pub_date, is_published,
		          author_id, category_id, location_id, created_at`,
		arg.Title, arg.Body, arg.ImagePath, arg.PubDate, arg.IsPublished,
		arg.AuthorID, arg.CategoryID, arg.LocationID, arg.CreatedAt).
		Scan(&p.ID, &p.Title, &p.Body, &p.ImagePath, &p.PubDate, &p.IsPublished,
			&p.AuthorID, &p.CategoryID, &p.LocationID, &p.CreatedAt)
	return p, err
}

// UpdatePostParams holds the editable post fields. The author is fixed
// at creation and never updated.
type UpdatePostParams struct {
	ID          int64
	Title       string
	Body        string
	ImagePath   sql.NullString
	PubDate     time.Time
	IsPublished bool
	CategoryID  int64
	LocationID  sql.NullInt64
}

// UpdatePost updates a post's editable fields.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE posts
		SET title = ?, body = ?, image_path = ?, pub_date = ?, is_published = ?,
		    category_id = ?, location_id = ?
		WHERE id = ?`,
		arg.Title, arg.Body, arg.ImagePath, arg.PubDate, arg.IsPublished,
		arg.CategoryID, arg.LocationID, arg.ID)
	return err
}

// DeletePost removes a post. Its comments go with it via the foreign key
// cascade.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	return err
}
