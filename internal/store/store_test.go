package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "quill-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}

	return db, cleanup
}

func createTestUser(t *testing.T, q *Queries, username string) User {
	t.Helper()

	user, err := q.CreateUser(context.Background(), CreateUserParams{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashed-password",
		Role:         RoleUser,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func createTestCategory(t *testing.T, q *Queries, slug string, published bool) Category {
	t.Helper()

	category, err := q.CreateCategory(context.Background(), CreateCategoryParams{
		Title:       "Category " + slug,
		Slug:        slug,
		IsPublished: published,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return category
}

func TestCreateUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	user, err := q.CreateUser(ctx, CreateUserParams{
		Username:     "alice",
		Email:        "alice@example.com",
		FirstName:    "Alice",
		LastName:     "Able",
		PasswordHash: "hashed-password",
		Role:         RoleUser,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if user.ID == 0 {
		t.Error("expected non-zero user ID")
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want %q", user.Username, "alice")
	}
	if user.IsAdmin() {
		t.Error("regular user should not be admin")
	}
	if got := user.FullName(); got != "Alice Able" {
		t.Errorf("FullName = %q, want %q", got, "Alice Able")
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	createTestUser(t, q, "bob")

	_, err := q.CreateUser(context.Background(), CreateUserParams{
		Username:     "bob",
		Email:        "other@example.com",
		PasswordHash: "hashed-password",
		Role:         RoleUser,
		CreatedAt:    time.Now(),
	})
	if err == nil {
		t.Error("expected error for duplicate username")
	}
}

func TestGetUserByUsername(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	created := createTestUser(t, q, "carol")

	user, err := q.GetUserByUsername(ctx, "carol")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user.ID != created.ID {
		t.Errorf("ID = %d, want %d", user.ID, created.ID)
	}

	_, err = q.GetUserByUsername(ctx, "nobody")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpdateUserProfile(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "dave")

	updated, err := q.UpdateUserProfile(ctx, UpdateUserProfileParams{
		ID:        user.ID,
		Email:     "new@example.com",
		FirstName: "Dave",
		LastName:  "Doe",
	})
	if err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}

	if updated.Email != "new@example.com" {
		t.Errorf("Email = %q, want %q", updated.Email, "new@example.com")
	}
	if updated.Username != "dave" {
		t.Errorf("Username changed to %q", updated.Username)
	}
}

func TestGetCategoryBySlug(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	created := createTestCategory(t, q, "travel", true)

	category, err := q.GetCategoryBySlug(ctx, "travel")
	if err != nil {
		t.Fatalf("GetCategoryBySlug: %v", err)
	}
	if category.ID != created.ID {
		t.Errorf("ID = %d, want %d", category.ID, created.ID)
	}

	_, err = q.GetCategoryBySlug(ctx, "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestListPublishedCategories(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	createTestCategory(t, q, "visible", true)
	createTestCategory(t, q, "hidden", false)

	categories, err := q.ListPublishedCategories(context.Background())
	if err != nil {
		t.Fatalf("ListPublishedCategories: %v", err)
	}
	if len(categories) != 1 {
		t.Fatalf("got %d categories, want 1", len(categories))
	}
	if categories[0].Slug != "visible" {
		t.Errorf("Slug = %q, want %q", categories[0].Slug, "visible")
	}
}

func TestSeedCreatesAdmin(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	q := New(db)
	admin, err := q.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("admin account missing after seed: %v", err)
	}
	if !admin.IsAdmin() {
		t.Error("seeded admin should have the admin role")
	}

	// Seeding twice must not duplicate the account
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
}

func TestSeedDemoCreatesContent(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := SeedDemo(ctx, db); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}

	q := New(db)
	cats, err := q.ListPublishedCategories(ctx)
	if err != nil {
		t.Fatalf("ListPublishedCategories: %v", err)
	}
	if len(cats) != 2 {
		t.Errorf("got %d categories, want 2", len(cats))
	}

	// Seeding twice must not duplicate the content
	if err := SeedDemo(ctx, db); err != nil {
		t.Fatalf("second SeedDemo: %v", err)
	}
	cats, err = q.ListPublishedCategories(ctx)
	if err != nil {
		t.Fatalf("ListPublishedCategories: %v", err)
	}
	if len(cats) != 2 {
		t.Errorf("got %d categories after reseed, want 2", len(cats))
	}
}

func TestWithTxRollback(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	qtx := q.WithTx(tx)

	_, err = qtx.CreateCategory(ctx, CreateCategoryParams{
		Title:       "Travel",
		Slug:        "travel",
		IsPublished: true,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	// The rolled-back category is gone.
	if _, err := q.GetCategoryBySlug(ctx, "travel"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestDeleteEventsBefore(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	old := time.Now().AddDate(0, 0, -120)
	recent := time.Now()

	for _, at := range []time.Time{old, recent} {
		_, err := q.CreateEvent(ctx, CreateEventParams{
			Level:     EventLevelWarning,
			Category:  "general",
			Message:   "test event",
			Metadata:  "{}",
			CreatedAt: at,
		})
		if err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	deleted, err := q.DeleteEventsBefore(ctx, time.Now().AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("DeleteEventsBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	events, err := q.ListRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events, want 1", len(events))
	}
}
