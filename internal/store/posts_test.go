package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"quill/internal/visibility"
)

func createTestPost(t *testing.T, q *Queries, authorID, categoryID int64, title string, published bool, pubDate time.Time) Post {
	t.Helper()

	post, err := q.CreatePost(context.Background(), CreatePostParams{
		Title:       title,
		Body:        "Body of " + title,
		PubDate:     pubDate,
		IsPublished: published,
		AuthorID:    authorID,
		CategoryID:  categoryID,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return post
}

func publicFilter() visibility.Filter {
	return visibility.ListFilter(visibility.ScopeAll(), visibility.Anonymous, time.Now())
}

func TestListPostsHidesUnpublished(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author")
	category := createTestCategory(t, q, "news", true)

	past := time.Now().Add(-time.Hour)
	visible := createTestPost(t, q, author.ID, category.ID, "visible", true, past)
	createTestPost(t, q, author.ID, category.ID, "draft", false, past)
	createTestPost(t, q, author.ID, category.ID, "scheduled", true, time.Now().Add(time.Hour))

	posts, err := q.ListPosts(ctx, ListPostsParams{Filter: publicFilter(), Limit: 10})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	if posts[0].ID != visible.ID {
		t.Errorf("got post %d, want %d", posts[0].ID, visible.ID)
	}
}

func TestListPostsHidesUnpublishedCategory(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author")
	hiddenCat := createTestCategory(t, q, "hidden-cat", false)

	createTestPost(t, q, author.ID, hiddenCat.ID, "in hidden category", true, time.Now().Add(-time.Hour))

	posts, err := q.ListPosts(ctx, ListPostsParams{Filter: publicFilter(), Limit: 10})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("got %d posts, want 0", len(posts))
	}
}

func TestListPostsUnpublishedLocation(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author")
	category := createTestCategory(t, q, "news", true)

	hiddenLoc, err := q.CreateLocation(ctx, CreateLocationParams{
		Name:      "Secret Base",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}

	_, err = q.CreatePost(ctx, CreatePostParams{
		Title:       "located",
		Body:        "text",
		PubDate:     time.Now().Add(-time.Hour),
		IsPublished: true,
		AuthorID:    author.ID,
		CategoryID:  category.ID,
		LocationID:  sql.NullInt64{Int64: hiddenLoc.ID, Valid: true},
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	// Unpublished location hides the post
	posts, err := q.ListPosts(ctx, ListPostsParams{Filter: publicFilter(), Limit: 10})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("got %d posts, want 0", len(posts))
	}

	// A post without a location is fine
	noLoc := createTestPost(t, q, author.ID, category.ID, "no location", true, time.Now().Add(-time.Hour))
	posts, err = q.ListPosts(ctx, ListPostsParams{Filter: publicFilter(), Limit: 10})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != noLoc.ID {
		t.Fatalf("expected only the location-free post, got %d rows", len(posts))
	}
}

func TestListPostsAuthorSeesOwnHidden(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author")
	other := createTestUser(t, q, "other")
	category := createTestCategory(t, q, "news", true)

	past := time.Now().Add(-time.Hour)
	createTestPost(t, q, author.ID, category.ID, "published", true, past)
	createTestPost(t, q, author.ID, category.ID, "draft", false, past)
	createTestPost(t, q, author.ID, category.ID, "scheduled", true, time.Now().Add(time.Hour))

	// The author browsing their own profile sees everything
	ownFilter := visibility.ListFilter(visibility.ScopeAuthor(author.ID),
		visibility.Viewer{ID: author.ID, Authenticated: true}, time.Now())
	posts, err := q.ListPosts(ctx, ListPostsParams{Filter: ownFilter, Limit: 10})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 3 {
		t.Errorf("author sees %d posts, want 3", len(posts))
	}

	// Another user browsing the same profile sees only the visible one
	otherFilter := visibility.ListFilter(visibility.ScopeAuthor(author.ID),
		visibility.Viewer{ID: other.ID, Authenticated: true}, time.Now())
	posts, err = q.ListPosts(ctx, ListPostsParams{Filter: otherFilter, Limit: 10})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("other viewer sees %d posts, want 1", len(posts))
	}
}

func TestListPostsOrderAndCount(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author")
	category := createTestCategory(t, q, "news", true)

	base := time.Now().Add(-24 * time.Hour)
	older := createTestPost(t, q, author.ID, category.ID, "older", true, base)
	newer := createTestPost(t, q, author.ID, category.ID, "newer", true, base.Add(time.Hour))
	// Same pub date as "newer": the higher id wins the tie
	tied := createTestPost(t, q, author.ID, category.ID, "tied", true, base.Add(time.Hour))

	posts, err := q.ListPosts(ctx, ListPostsParams{Filter: publicFilter(), Limit: 10})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("got %d posts, want 3", len(posts))
	}
	if posts[0].ID != tied.ID || posts[1].ID != newer.ID || posts[2].ID != older.ID {
		t.Errorf("order = [%d %d %d], want [%d %d %d]",
			posts[0].ID, posts[1].ID, posts[2].ID, tied.ID, newer.ID, older.ID)
	}

	count, err := q.CountPosts(ctx, publicFilter())
	if err != nil {
		t.Fatalf("CountPosts: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestListPostsCommentCount(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author")
	reader := createTestUser(t, q, "reader")
	category := createTestCategory(t, q, "news", true)

	post := createTestPost(t, q, author.ID, category.ID, "commented", true, time.Now().Add(-time.Hour))

	for i := 0; i < 2; i++ {
		_, err := q.CreateComment(ctx, CreateCommentParams{
			Text:      "nice",
			AuthorID:  reader.ID,
			PostID:    post.ID,
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
	}

	// An unpublished comment must not count
	comment, err := q.CreateComment(ctx, CreateCommentParams{
		Text:      "spam",
		AuthorID:  reader.ID,
		PostID:    post.ID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if _, err := db.Exec(`UPDATE comments SET is_published = 0 WHERE id = ?`, comment.ID); err != nil {
		t.Fatalf("hiding comment: %v", err)
	}

	posts, err := q.ListPosts(ctx, ListPostsParams{Filter: publicFilter(), Limit: 10})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	if posts[0].CommentCount != 2 {
		t.Errorf("CommentCount = %d, want 2", posts[0].CommentCount)
	}
}

func TestGetVisiblePost(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author")
	other := createTestUser(t, q, "other")
	category := createTestCategory(t, q, "news", true)

	draft := createTestPost(t, q, author.ID, category.ID, "draft", false, time.Now().Add(-time.Hour))

	// Anonymous viewers and other users get the missing-row error
	if _, err := q.GetVisiblePost(ctx, draft.ID, visibility.Anonymous); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("anonymous: expected sql.ErrNoRows, got %v", err)
	}
	otherViewer := visibility.Viewer{ID: other.ID, Authenticated: true}
	if _, err := q.GetVisiblePost(ctx, draft.ID, otherViewer); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("other user: expected sql.ErrNoRows, got %v", err)
	}

	// The author sees their own draft
	authorViewer := visibility.Viewer{ID: author.ID, Authenticated: true}
	got, err := q.GetVisiblePost(ctx, draft.ID, authorViewer)
	if err != nil {
		t.Fatalf("author: %v", err)
	}
	if got.ID != draft.ID {
		t.Errorf("got post %d, want %d", got.ID, draft.ID)
	}

	// Truly missing posts look the same
	if _, err := q.GetVisiblePost(ctx, 99999, authorViewer); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing: expected sql.ErrNoRows, got %v", err)
	}
}

func TestDeletePostCascadesComments(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author")
	category := createTestCategory(t, q, "news", true)
	post := createTestPost(t, q, author.ID, category.ID, "doomed", true, time.Now().Add(-time.Hour))

	if _, err := q.CreateComment(ctx, CreateCommentParams{
		Text:      "soon gone",
		AuthorID:  author.ID,
		PostID:    post.ID,
		CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	if err := q.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}

	comments, err := q.ListPublishedComments(ctx, post.ID)
	if err != nil {
		t.Fatalf("ListPublishedComments: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("got %d comments after post delete, want 0", len(comments))
	}
}

func TestUpdatePostKeepsAuthor(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author")
	category := createTestCategory(t, q, "news", true)
	post := createTestPost(t, q, author.ID, category.ID, "original", true, time.Now().Add(-time.Hour))

	err := q.UpdatePost(ctx, UpdatePostParams{
		ID:          post.ID,
		Title:       "updated",
		Body:        "new body",
		PubDate:     post.PubDate,
		IsPublished: false,
		CategoryID:  category.ID,
	})
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}

	got, err := q.GetPostByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPostByID: %v", err)
	}
	if got.Title != "updated" {
		t.Errorf("Title = %q, want %q", got.Title, "updated")
	}
	if got.AuthorID != author.ID {
		t.Errorf("AuthorID = %d, want %d", got.AuthorID, author.ID)
	}
	if got.IsPublished {
		t.Error("post should be unpublished after update")
	}
}
