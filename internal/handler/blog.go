package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"quill/internal/render"
	"quill/internal/store"
	"quill/internal/util"
	"quill/internal/visibility"
)

// BlogHandler serves the public post listings and the post detail page.
type BlogHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(db *sql.DB, renderer *render.Renderer) *BlogHandler {
	return &BlogHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// IndexPageData holds data for the homepage listing.
type IndexPageData struct {
	Posts      []PostView
	Pagination Pagination
}

// CategoryPageData holds data for the category archive.
type CategoryPageData struct {
	Category   store.Category
	Posts      []PostView
	Pagination Pagination
}

// ProfilePageData holds data for a user's profile page.
type ProfilePageData struct {
	ProfileUser store.User
	IsOwner     bool
	Posts       []PostView
	Pagination  Pagination
}

// DetailPageData holds data for the post detail page.
type DetailPageData struct {
	Post       PostView
	Comments   []CommentView
	CanEdit    bool
	CanDelete  bool
	CanComment bool
	CommentURL string
}

// listPage runs the count-clamp-list sequence shared by every listing.
func (h *BlogHandler) listPage(r *http.Request, scope visibility.Scope) ([]PostView, Pagination, string, error) {
	ctx := r.Context()
	filter := visibility.ListFilter(scope, viewerFrom(r), time.Now())

	total, err := h.queries.CountPosts(ctx, filter)
	if err != nil {
		return nil, Pagination{}, "counting posts", err
	}

	page := clampPage(getPageNum(r), total, postsPerPage)
	offset := (page - 1) * postsPerPage

	posts, err := h.queries.ListPosts(ctx, store.ListPostsParams{
		Filter: filter,
		Limit:  postsPerPage,
		Offset: int64(offset),
	})
	if err != nil {
		return nil, Pagination{}, "listing posts", err
	}

	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, newPostView(p))
	}

	return views, buildPagination(page, total, postsPerPage, r.URL.Path), "", nil
}

// Index handles the homepage listing of visible posts.
func (h *BlogHandler) Index(w http.ResponseWriter, r *http.Request) {
	views, pagination, action, err := h.listPage(r, visibility.ScopeAll())
	if err != nil {
		logAndInternalError(w, "failed "+action, "error", err)
		return
	}

	err = h.renderer.Render(w, r, "blog/index", baseTemplateData(r, "Latest Posts", IndexPageData{
		Posts:      views,
		Pagination: pagination,
	}))
	if err != nil {
		logAndInternalError(w, "failed to render index", "error", err)
	}
}

// Category handles the category archive. An unknown or unpublished
// category slug is a 404.
func (h *BlogHandler) Category(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !util.IsValidSlug(slug) {
		renderNotFound(w, r, h.renderer)
		return
	}

	category, err := h.queries.GetCategoryBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			renderNotFound(w, r, h.renderer)
			return
		}
		logAndInternalError(w, "failed to get category", "slug", slug, "error", err)
		return
	}
	if !category.IsPublished {
		renderNotFound(w, r, h.renderer)
		return
	}

	views, pagination, action, err := h.listPage(r, visibility.ScopeCategory(category.ID))
	if err != nil {
		logAndInternalError(w, "failed "+action, "slug", slug, "error", err)
		return
	}

	err = h.renderer.Render(w, r, "blog/category", baseTemplateData(r, category.Title, CategoryPageData{
		Category:   category,
		Posts:      views,
		Pagination: pagination,
	}))
	if err != nil {
		logAndInternalError(w, "failed to render category", "error", err)
	}
}

// Profile handles a user's public profile page. The profile owner sees
// all of their posts, including hidden and scheduled ones.
func (h *BlogHandler) Profile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	profileUser, err := h.queries.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			renderNotFound(w, r, h.renderer)
			return
		}
		logAndInternalError(w, "failed to get user", "username", username, "error", err)
		return
	}

	views, pagination, action, err := h.listPage(r, visibility.ScopeAuthor(profileUser.ID))
	if err != nil {
		logAndInternalError(w, "failed "+action, "username", username, "error", err)
		return
	}

	err = h.renderer.Render(w, r, "blog/profile", baseTemplateData(r, profileUser.FullName(), ProfilePageData{
		ProfileUser: profileUser,
		IsOwner:     isOwnProfile(r, profileUser),
		Posts:       views,
		Pagination:  pagination,
	}))
	if err != nil {
		logAndInternalError(w, "failed to render profile", "error", err)
	}
}

// PostDetail handles the post detail page with its published comments.
// A post hidden from the viewer renders the same 404 as a missing one.
func (h *BlogHandler) PostDetail(w http.ResponseWriter, r *http.Request) {
	id := urlParamID(r, "postID")
	if id == 0 {
		renderNotFound(w, r, h.renderer)
		return
	}

	post, err := h.queries.GetVisiblePost(r.Context(), id, viewerFrom(r))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			renderNotFound(w, r, h.renderer)
			return
		}
		logAndInternalError(w, "failed to get post", "post_id", id, "error", err)
		return
	}

	comments, err := h.queries.ListPublishedComments(r.Context(), post.ID)
	if err != nil {
		logAndInternalError(w, "failed to list comments", "post_id", id, "error", err)
		return
	}

	commentViews := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		commentViews = append(commentViews, newCommentView(c))
	}

	data := DetailPageData{
		Post:       newPostView(post),
		Comments:   commentViews,
		CommentURL: postDetailURL(post.ID) + "/comment",
	}
	if actor, ok := actorFrom(r); ok {
		data.CanComment = true
		data.CanEdit = visibility.CanEditPost(&post.Post, actor)
		data.CanDelete = visibility.CanDeletePost(&post.Post, actor)
	}

	err = h.renderer.Render(w, r, "blog/detail", baseTemplateData(r, post.Title, data))
	if err != nil {
		logAndInternalError(w, "failed to render post", "error", err)
	}
}

