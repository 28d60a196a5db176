package store

import (
	"context"
	"time"
)

const locationColumns = `id, name, is_published, created_at`

func scanLocation(row interface{ Scan(...any) error }) (Location, error) {
	var l Location
	err := row.Scan(&l.ID, &l.Name, &l.IsPublished, &l.CreatedAt)
	return l, err
}

// CreateLocationParams holds the fields for creating a location.
type CreateLocationParams struct {
	Name        string
	IsPublished bool
	CreatedAt   time.Time
}

// CreateLocation inserts a new location and returns it.
func (q *Queries) CreateLocation(ctx context.Context, arg CreateLocationParams) (Location, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO locations (name, is_published, created_at)
		VALUES (?, ?, ?)
		RETURNING `+locationColumns,
		arg.Name, arg.IsPublished, arg.CreatedAt)
	return scanLocation(row)
}

// GetLocationByID fetches a location by primary key.
func (q *Queries) GetLocationByID(ctx context.Context, id int64) (Location, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = ?`, id)
	return scanLocation(row)
}

// ListPublishedLocations returns all published locations ordered by name,
// for the post form's location selector.
func (q *Queries) ListPublishedLocations(ctx context.Context) ([]Location, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+locationColumns+` FROM locations
		WHERE is_published = 1
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}
