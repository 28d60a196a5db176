package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"quill/internal/visibility"
)

func TestPostCreateRequiresAuth(t *testing.T) {
	app := newTestApp(t)

	w := doGet(t, app, RoutePostCreate, nil)
	assertRedirect(t, w, RouteLogin)
}

func TestPostCreate(t *testing.T) {
	app := newTestApp(t)
	author := createTestUser(t, app.queries, "alice", "user")
	cat := createTestCategory(t, app.queries, "Travel", "travel", true)
	cookie := loginAs(t, app.sm, author.ID)

	w := doPostMultipart(t, app, RoutePostCreate, cookie, map[string]string{
		"title":        "My First Post",
		"body":         "Hello from the road.",
		"category_id":  itoa(cat.ID),
		"is_published": "on",
	})
	assertStatus(t, w.Code, http.StatusSeeOther)

	location := w.Header().Get("Location")
	if !strings.HasPrefix(location, "/posts/") {
		t.Fatalf("Location = %q; want a post detail URL", location)
	}

	// The post exists and belongs to the session user.
	total, err := app.queries.CountPosts(context.Background(), publicTestFilter())
	if err != nil {
		t.Fatalf("CountPosts failed: %v", err)
	}
	if total != 1 {
		t.Errorf("post count = %d; want 1", total)
	}

	w = doGet(t, app, location, nil)
	assertStatus(t, w.Code, http.StatusOK)
	if !strings.Contains(readBody(t, w), "My First Post") {
		t.Error("detail page should contain the new post")
	}
}

func TestPostCreateValidation(t *testing.T) {
	app := newTestApp(t)
	author := createTestUser(t, app.queries, "alice", "user")
	cookie := loginAs(t, app.sm, author.ID)

	// Missing title and category: the form comes back annotated with
	// the submitted values intact.
	w := doPostMultipart(t, app, RoutePostCreate, cookie, map[string]string{
		"body": "No title here.",
	})
	assertStatus(t, w.Code, http.StatusUnprocessableEntity)
	body := readBody(t, w)
	if !strings.Contains(body, "Title is required") {
		t.Error("form should report the missing title")
	}
	if !strings.Contains(body, "No title here.") {
		t.Error("form should keep the submitted text")
	}

	total, err := app.queries.CountPosts(context.Background(), publicTestFilter())
	if err != nil {
		t.Fatalf("CountPosts failed: %v", err)
	}
	if total != 0 {
		t.Errorf("post count = %d; want 0", total)
	}
}

func TestPostEditNonOwnerRedirects(t *testing.T) {
	app := newTestApp(t)
	author := createTestUser(t, app.queries, "alice", "user")
	other := createTestUser(t, app.queries, "bob", "user")
	cat := createTestCategory(t, app.queries, "Travel", "travel", true)
	post := createTestPost(t, app.queries, author.ID, cat.ID, "Original Title", true, time.Now().Add(-time.Hour))

	// Someone else's edit attempt lands on the detail page instead.
	w := doGet(t, app, postDetailURL(post.ID)+"/edit", loginAs(t, app.sm, other.ID))
	assertRedirect(t, w, postDetailURL(post.ID))

	w = doPostMultipart(t, app, postDetailURL(post.ID)+"/edit", loginAs(t, app.sm, other.ID), map[string]string{
		"title":       "Hijacked",
		"body":        "x",
		"category_id": itoa(cat.ID),
	})
	assertRedirect(t, w, postDetailURL(post.ID))

	got, err := app.queries.GetPostByID(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetPostByID failed: %v", err)
	}
	if got.Title != "Original Title" {
		t.Errorf("title = %q; want unchanged", got.Title)
	}
}

func TestPostEditMissing(t *testing.T) {
	app := newTestApp(t)
	user := createTestUser(t, app.queries, "alice", "user")

	w := doGet(t, app, "/posts/9999/edit", loginAs(t, app.sm, user.ID))
	assertStatus(t, w.Code, http.StatusNotFound)
}

func TestPostUpdateKeepsAuthor(t *testing.T) {
	app := newTestApp(t)
	author := createTestUser(t, app.queries, "alice", "user")
	cat := createTestCategory(t, app.queries, "Travel", "travel", true)
	post := createTestPost(t, app.queries, author.ID, cat.ID, "Original Title", true, time.Now().Add(-time.Hour))

	w := doPostMultipart(t, app, postDetailURL(post.ID)+"/edit", loginAs(t, app.sm, author.ID), map[string]string{
		"title":        "Updated Title",
		"body":         "Updated body.",
		"category_id":  itoa(cat.ID),
		"is_published": "on",
	})
	assertRedirect(t, w, postDetailURL(post.ID))

	got, err := app.queries.GetPostByID(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetPostByID failed: %v", err)
	}
	if got.Title != "Updated Title" {
		t.Errorf("title = %q; want %q", got.Title, "Updated Title")
	}
	if got.AuthorID != author.ID {
		t.Errorf("author_id = %d; want %d", got.AuthorID, author.ID)
	}
}

func TestPostDeleteByOwner(t *testing.T) {
	app := newTestApp(t)
	author := createTestUser(t, app.queries, "alice", "user")
	cat := createTestCategory(t, app.queries, "Travel", "travel", true)
	post := createTestPost(t, app.queries, author.ID, cat.ID, "Doomed Post", true, time.Now().Add(-time.Hour))

	cookie := loginAs(t, app.sm, author.ID)

	w := doGet(t, app, postDetailURL(post.ID)+"/delete", cookie)
	assertStatus(t, w.Code, http.StatusOK)

	w = doPostForm(t, app, postDetailURL(post.ID)+"/delete", cookie, nil)
	assertRedirect(t, w, RouteRoot)

	w = doGet(t, app, postDetailURL(post.ID), cookie)
	assertStatus(t, w.Code, http.StatusNotFound)
}

func TestPostDeleteByAdmin(t *testing.T) {
	app := newTestApp(t)
	author := createTestUser(t, app.queries, "alice", "user")
	admin := createTestUser(t, app.queries, "root", "admin")
	cat := createTestCategory(t, app.queries, "Travel", "travel", true)
	post := createTestPost(t, app.queries, author.ID, cat.ID, "Moderated Post", true, time.Now().Add(-time.Hour))

	// Admins may delete any post but not edit it.
	w := doGet(t, app, postDetailURL(post.ID)+"/edit", loginAs(t, app.sm, admin.ID))
	assertRedirect(t, w, postDetailURL(post.ID))

	w = doPostForm(t, app, postDetailURL(post.ID)+"/delete", loginAs(t, app.sm, admin.ID), nil)
	assertRedirect(t, w, RouteRoot)

	w = doGet(t, app, postDetailURL(post.ID), nil)
	assertStatus(t, w.Code, http.StatusNotFound)
}

// publicTestFilter is the anonymous homepage filter.
func publicTestFilter() visibility.Filter {
	return visibility.ListFilter(visibility.ScopeAll(), visibility.Anonymous, time.Now())
}
