package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"quill/internal/auth"
	"quill/internal/util"
)

// Default admin credentials. The password must be changed after first
// login on any real deployment.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
)

// Seed creates the default admin user if no account with the admin
// username exists yet.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	_, err := queries.GetUserByUsername(ctx, DefaultAdminUsername)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		Username:     DefaultAdminUsername,
		Email:        DefaultAdminEmail,
		PasswordHash: passwordHash,
		Role:         RoleAdmin,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user",
		"id", user.ID,
		"username", user.Username,
		"password", DefaultAdminPassword,
	)

	return nil
}

// SeedDemo creates demo categories, locations and posts so a fresh
// install has something to browse. Idempotent: skipped when any
// category already exists.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	if _, err := queries.GetCategoryBySlug(ctx, "travel"); err == nil {
		slog.Info("demo content already exists, skipping demo seed")
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for demo content: %w", err)
	}

	admin, err := queries.GetUserByUsername(ctx, DefaultAdminUsername)
	if err != nil {
		return fmt.Errorf("loading admin user for demo seed: %w", err)
	}

	now := time.Now()

	// All-or-nothing: a failure partway through must not leave a
	// half-seeded database behind.
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning demo seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	qtx := queries.WithTx(tx)

	categories := []CreateCategoryParams{
		{Title: "Travel", Description: "Trips and places", IsPublished: true, CreatedAt: now},
		{Title: "Food", Description: "Recipes and restaurants", IsPublished: true, CreatedAt: now},
	}
	categoryIDs := make(map[string]int64, len(categories))
	for _, c := range categories {
		c.Slug = util.Slugify(c.Title)
		created, err := qtx.CreateCategory(ctx, c)
		if err != nil {
			return fmt.Errorf("creating demo category %q: %w", c.Slug, err)
		}
		categoryIDs[c.Slug] = created.ID
	}

	location, err := qtx.CreateLocation(ctx, CreateLocationParams{
		Name: "Lisbon", IsPublished: true, CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("creating demo location: %w", err)
	}

	posts := []CreatePostParams{
		{
			Title:       "Welcome",
			Body:        "This is a demo post. Log in as admin to write your own.",
			PubDate:     now.Add(-48 * time.Hour),
			IsPublished: true,
			AuthorID:    admin.ID,
			CategoryID:  categoryIDs["travel"],
			LocationID:  sql.NullInt64{Int64: location.ID, Valid: true},
			CreatedAt:   now,
		},
		{
			Title:       "A weekend in Lisbon",
			Body:        "Pasteis de nata, trams, and a lot of hills.",
			PubDate:     now.Add(-24 * time.Hour),
			IsPublished: true,
			AuthorID:    admin.ID,
			CategoryID:  categoryIDs["travel"],
			LocationID:  sql.NullInt64{Int64: location.ID, Valid: true},
			CreatedAt:   now,
		},
	}
	for _, p := range posts {
		if _, err := qtx.CreatePost(ctx, p); err != nil {
			return fmt.Errorf("creating demo post %q: %w", p.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing demo seed: %w", err)
	}

	slog.Info("created demo content", "categories", len(categories), "posts", len(posts))
	return nil
}
