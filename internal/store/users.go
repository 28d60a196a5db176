package store

import (
	"context"
	"time"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, role, created_at, last_login_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.Role, &u.CreatedAt, &u.LastLoginAt)
	return u, err
}

// CreateUserParams holds the fields for creating a user.
type CreateUserParams struct {
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// CreateUser inserts a new user and returns it.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, first_name, last_name, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING `+userColumns,
		arg.Username, arg.Email, arg.FirstName, arg.LastName,
		arg.PasswordHash, arg.Role, arg.CreatedAt)
	return scanUser(row)
}

// GetUserByID fetches a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername fetches a user by their unique username.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// UpdateUserProfileParams holds the editable profile fields.
type UpdateUserProfileParams struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
}

// UpdateUserProfile updates a user's editable profile fields.
func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE users SET email = ?, first_name = ?, last_name = ?
		WHERE id = ?
		RETURNING `+userColumns,
		arg.Email, arg.FirstName, arg.LastName, arg.ID)
	return scanUser(row)
}

// UpdateUserPassword replaces a user's password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	return err
}

// UpdateUserLastLogin records a successful login time.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, at, id)
	return err
}
