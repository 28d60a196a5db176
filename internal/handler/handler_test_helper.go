package handler

import (
	"context"
	"database/sql"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"quill/internal/auth"
	"quill/internal/imaging"
	"quill/internal/middleware"
	"quill/internal/render"
	"quill/internal/store"
	"quill/web"
)

// testDB creates an in-memory SQLite database with the required schema
// for testing.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A single connection keeps the in-memory database alive across
	// the pool and makes the pragma stick.
	db.SetMaxOpenConns(1)

	schema := `
		PRAGMA foreign_keys = ON;

		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			created_at TIMESTAMP NOT NULL,
			last_login_at TIMESTAMP
		);

		CREATE TABLE categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			slug TEXT NOT NULL UNIQUE,
			is_published INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL
		);

		CREATE TABLE locations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			is_published INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL
		);

		CREATE TABLE posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			image_path TEXT,
			pub_date TIMESTAMP NOT NULL,
			is_published INTEGER NOT NULL DEFAULT 1,
			author_id INTEGER NOT NULL REFERENCES users(id),
			category_id INTEGER NOT NULL REFERENCES categories(id),
			location_id INTEGER REFERENCES locations(id),
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX idx_posts_pub_date ON posts(pub_date DESC);

		CREATE TABLE comments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			author_id INTEGER NOT NULL REFERENCES users(id),
			post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			is_published INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX idx_comments_post ON comments(post_id, is_published);

		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'general',
			message TEXT NOT NULL,
			user_id INTEGER REFERENCES users(id),
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL
		);
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// testSessionManager creates a memory-backed session manager for testing.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

// testApp bundles everything the handler tests need: the database, a
// session manager and a router wired the same way as the server,
// minus the logging and CSRF layers.
type testApp struct {
	db      *sql.DB
	queries *store.Queries
	sm      *scs.SessionManager
	router  http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testDB(t)
	sm := testSessionManager(t)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("failed to get templates fs: %v", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sm,
		IsDev:          true,
	})
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}

	processor := imaging.NewProcessor(t.TempDir())
	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	blogHandler := NewBlogHandler(db, renderer)
	postHandler := NewPostHandler(db, renderer, processor)
	commentHandler := NewCommentHandler(db, renderer)
	authHandler := NewAuthHandler(db, renderer, sm, loginProtection)
	profileHandler := NewProfileHandler(db, renderer)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalLoadUser(sm, db))

		r.Get(RouteLogin, authHandler.LoginForm)
		r.Post(RouteLogin, authHandler.Login)
		r.Post(RouteLogout, authHandler.Logout)
		r.Get(RouteRegister, authHandler.RegisterForm)
		r.Post(RouteRegister, authHandler.Register)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(sm))
		r.Use(middleware.LoadUser(sm, db))

		r.Get(RoutePostCreate, postHandler.NewForm)
		r.Post(RoutePostCreate, postHandler.Create)
		r.Get(RoutePostEdit, postHandler.EditForm)
		r.Post(RoutePostEdit, postHandler.Update)
		r.Get(RoutePostDelete, postHandler.DeleteConfirm)
		r.Post(RoutePostDelete, postHandler.Delete)

		r.Post(RouteCommentCreate, commentHandler.Create)
		r.Get(RouteCommentEdit, commentHandler.EditForm)
		r.Post(RouteCommentEdit, commentHandler.Update)
		r.Get(RouteCommentDelete, commentHandler.DeleteConfirm)
		r.Post(RouteCommentDelete, commentHandler.Delete)

		r.Get(RouteProfileEdit, profileHandler.EditForm)
		r.Post(RouteProfileEdit, profileHandler.Update)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalLoadUser(sm, db))

		r.Get(RouteRoot, blogHandler.Index)
		r.Get(RoutePostDetail, blogHandler.PostDetail)
		r.Get(RouteProfile, blogHandler.Profile)
		r.Get(RouteCategorySlug, blogHandler.Category)
	})

	return &testApp{
		db:      db,
		queries: store.New(db),
		sm:      sm,
		router:  r,
	}
}

// createTestUser creates a user with the password "password123".
func createTestUser(t *testing.T, q *store.Queries, username, role string) store.User {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// createTestCategory creates a category.
func createTestCategory(t *testing.T, q *store.Queries, title, slug string, published bool) store.Category {
	t.Helper()

	cat, err := q.CreateCategory(context.Background(), store.CreateCategoryParams{
		Title:       title,
		Slug:        slug,
		IsPublished: published,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return cat
}

// createTestPost creates a post with the given publication state.
func createTestPost(t *testing.T, q *store.Queries, authorID, categoryID int64, title string, published bool, pubDate time.Time) store.Post {
	t.Helper()

	post, err := q.CreatePost(context.Background(), store.CreatePostParams{
		Title:       title,
		Body:        "Body of " + title,
		PubDate:     pubDate,
		IsPublished: published,
		AuthorID:    authorID,
		CategoryID:  categoryID,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	return post
}

// loginAs commits a session holding the user's ID and returns the
// session cookie to attach to requests.
func loginAs(t *testing.T, sm *scs.SessionManager, userID int64) *http.Cookie {
	t.Helper()

	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	sm.Put(ctx, middleware.SessionKeyUserID, userID)
	token, _, err := sm.Commit(ctx)
	if err != nil {
		t.Fatalf("failed to commit session: %v", err)
	}
	return &http.Cookie{Name: sm.Cookie.Name, Value: token}
}

// doGet performs a GET request against the test router.
func doGet(t *testing.T, app *testApp, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

// doPostForm performs a urlencoded POST against the test router.
func doPostForm(t *testing.T, app *testApp, path string, cookie *http.Cookie, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

// doPostMultipart performs a multipart POST, as the post forms submit.
func doPostMultipart(t *testing.T, app *testApp, path string, cookie *http.Cookie, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body strings.Builder
	mw := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body.String()))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

// assertRedirect checks for a redirect to the given location.
func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusSeeOther)
	}
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Location = %q; want %q", got, location)
	}
}

// readBody returns the response body as a string.
func readBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	b, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return string(b)
}
