package store

import (
	"context"
	"time"
)

const categoryColumns = `id, title, description, slug, is_published, created_at`

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Slug, &c.IsPublished, &c.CreatedAt)
	return c, err
}

// CreateCategoryParams holds the fields for creating a category.
type CreateCategoryParams struct {
	Title       string
	Description string
	Slug        string
	IsPublished bool
	CreatedAt   time.Time
}

// CreateCategory inserts a new category and returns it.
func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO categories (title, description, slug, is_published, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+categoryColumns,
		arg.Title, arg.Description, arg.Slug, arg.IsPublished, arg.CreatedAt)
	return scanCategory(row)
}

// GetCategoryBySlug fetches a category by its unique slug.
func (q *Queries) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = ?`, slug)
	return scanCategory(row)
}

// ListPublishedCategories returns all published categories ordered by
// title, for the post form's category selector.
func (q *Queries) ListPublishedCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE is_published = 1
		ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
