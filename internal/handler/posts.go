package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"quill/internal/imaging"
	"quill/internal/render"
	"quill/internal/store"
	"quill/internal/visibility"
)

// PostHandler handles post creation, editing and deletion.
type PostHandler struct {
	queries   *store.Queries
	renderer  *render.Renderer
	processor *imaging.Processor
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(db *sql.DB, renderer *render.Renderer, processor *imaging.Processor) *PostHandler {
	return &PostHandler{
		queries:   store.New(db),
		renderer:  renderer,
		processor: processor,
	}
}

// PostFormData holds data for the post create/edit form template.
type PostFormData struct {
	IsEdit     bool
	ActionURL  string
	Form       PostForm
	Categories []store.Category
	Locations  []store.Location
	ImageURL   string
}

// formChoices loads the published categories and locations offered by
// the post form selectors.
func (h *PostHandler) formChoices(r *http.Request) ([]store.Category, []store.Location, error) {
	categories, err := h.queries.ListPublishedCategories(r.Context())
	if err != nil {
		return nil, nil, err
	}
	locations, err := h.queries.ListPublishedLocations(r.Context())
	if err != nil {
		return nil, nil, err
	}
	return categories, locations, nil
}

// NewForm renders the post creation form.
func (h *PostHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	categories, locations, err := h.formChoices(r)
	if err != nil {
		logAndInternalError(w, "failed to load form choices", "error", err)
		return
	}

	data := PostFormData{
		ActionURL:  RoutePostCreate,
		Form:       PostForm{PubDate: time.Now()},
		Categories: categories,
		Locations:  locations,
	}
	if err := h.renderer.Render(w, r, "blog/post_form", baseTemplateData(r, "New Post", data)); err != nil {
		logAndInternalError(w, "failed to render post form", "error", err)
	}
}

// Create handles the post creation form submission. The session user
// becomes the post's author.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
		return
	}

	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		form := PostForm{PubDate: time.Now(), Errors: []string{"Invalid form data"}}
		h.renderPostForm(w, r, "New Post", PostFormData{ActionURL: RoutePostCreate, Form: form})
		return
	}

	form := parsePostForm(r)
	if !form.Valid() {
		h.renderPostForm(w, r, "New Post", PostFormData{ActionURL: RoutePostCreate, Form: form})
		return
	}

	imagePath, err := h.saveUploadedImage(r)
	if err != nil {
		slog.Warn("image upload rejected", "error", err)
		form.Errors = append(form.Errors, "Image could not be processed")
		h.renderPostForm(w, r, "New Post", PostFormData{ActionURL: RoutePostCreate, Form: form})
		return
	}

	post, err := h.queries.CreatePost(r.Context(), store.CreatePostParams{
		Title:       form.Title,
		Body:        form.Body,
		ImagePath:   imagePath,
		PubDate:     form.PubDate,
		IsPublished: form.IsPublished,
		AuthorID:    actor.ID,
		CategoryID:  form.CategoryID,
		LocationID:  form.LocationID,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to create post", "error", err)
		return
	}

	slog.Info("post created", "post_id", post.ID, "author_id", actor.ID)
	flashSuccess(w, r, h.renderer, postDetailURL(post.ID), "Post created")
}

// EditForm renders the post edit form. Anyone who is not allowed to
// edit the post is sent to its detail page instead.
func (h *PostHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requireEditablePost(w, r, visibility.CanEditPost)
	if !ok {
		return
	}

	categories, locations, err := h.formChoices(r)
	if err != nil {
		logAndInternalError(w, "failed to load form choices", "error", err)
		return
	}

	data := PostFormData{
		IsEdit:     true,
		ActionURL:  postDetailURL(post.ID) + "/edit",
		Form:       postFormFrom(post),
		Categories: categories,
		Locations:  locations,
	}
	if post.ImagePath.Valid {
		data.ImageURL = "/uploads/" + post.ImagePath.String
	}

	if err := h.renderer.Render(w, r, "blog/post_form", baseTemplateData(r, "Edit Post", data)); err != nil {
		logAndInternalError(w, "failed to render post form", "error", err)
	}
}

// Update handles the post edit form submission. The author never
// changes, whoever submits the edit.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requireEditablePost(w, r, visibility.CanEditPost)
	if !ok {
		return
	}

	data := PostFormData{IsEdit: true, ActionURL: postDetailURL(post.ID) + "/edit"}
	if post.ImagePath.Valid {
		data.ImageURL = "/uploads/" + post.ImagePath.String
	}

	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		data.Form = postFormFrom(post)
		data.Form.Errors = []string{"Invalid form data"}
		h.renderPostForm(w, r, "Edit Post", data)
		return
	}

	form := parsePostForm(r)
	if !form.Valid() {
		data.Form = form
		h.renderPostForm(w, r, "Edit Post", data)
		return
	}

	imagePath := post.ImagePath
	if newPath, err := h.saveUploadedImage(r); err != nil {
		slog.Warn("image upload rejected", "post_id", post.ID, "error", err)
		form.Errors = append(form.Errors, "Image could not be processed")
		data.Form = form
		h.renderPostForm(w, r, "Edit Post", data)
		return
	} else if newPath.Valid {
		imagePath = newPath
	}

	err := h.queries.UpdatePost(r.Context(), store.UpdatePostParams{
		ID:          post.ID,
		Title:       form.Title,
		Body:        form.Body,
		ImagePath:   imagePath,
		PubDate:     form.PubDate,
		IsPublished: form.IsPublished,
		CategoryID:  form.CategoryID,
		LocationID:  form.LocationID,
	})
	if err != nil {
		logAndInternalError(w, "failed to update post", "post_id", post.ID, "error", err)
		return
	}

	slog.Info("post updated", "post_id", post.ID)
	flashSuccess(w, r, h.renderer, postDetailURL(post.ID), "Post updated")
}

// DeleteConfirm renders the post delete confirmation page.
func (h *PostHandler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requireEditablePost(w, r, visibility.CanDeletePost)
	if !ok {
		return
	}

	data := PostFormData{
		ActionURL: postDetailURL(post.ID) + "/delete",
		Form: PostForm{
			Title: post.Title,
			Body:  post.Body,
		},
	}
	if err := h.renderer.Render(w, r, "blog/post_delete", baseTemplateData(r, "Delete Post", data)); err != nil {
		logAndInternalError(w, "failed to render delete confirmation", "error", err)
	}
}

// Delete removes a post and its comments.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requireEditablePost(w, r, visibility.CanDeletePost)
	if !ok {
		return
	}

	if err := h.queries.DeletePost(r.Context(), post.ID); err != nil {
		logAndInternalError(w, "failed to delete post", "post_id", post.ID, "error", err)
		return
	}

	slog.Info("post deleted", "post_id", post.ID)
	flashSuccess(w, r, h.renderer, RouteRoot, "Post deleted")
}

// postFormFrom seeds the form with a post's stored fields.
func postFormFrom(post store.Post) PostForm {
	return PostForm{
		Title:       post.Title,
		Body:        post.Body,
		PubDate:     post.PubDate,
		CategoryID:  post.CategoryID,
		LocationID:  post.LocationID,
		IsPublished: post.IsPublished,
	}
}

// renderPostForm renders the post form with the given values and any
// validation errors, reloading the category and location choices.
func (h *PostHandler) renderPostForm(w http.ResponseWriter, r *http.Request, title string, data PostFormData) {
	categories, locations, err := h.formChoices(r)
	if err != nil {
		logAndInternalError(w, "failed to load form choices", "error", err)
		return
	}
	data.Categories = categories
	data.Locations = locations

	err = h.renderer.RenderStatus(w, r, "blog/post_form", http.StatusUnprocessableEntity,
		baseTemplateData(r, title, data))
	if err != nil {
		logAndInternalError(w, "failed to render post form", "error", err)
	}
}

// requireEditablePost loads the routed post and checks the actor
// against the given permission. A missing post is a 404; an existing
// post the actor may not touch redirects silently to its detail page.
func (h *PostHandler) requireEditablePost(w http.ResponseWriter, r *http.Request, allowed func(visibility.Entity, visibility.Actor) bool) (store.Post, bool) {
	id := urlParamID(r, "postID")
	if id == 0 {
		renderNotFound(w, r, h.renderer)
		return store.Post{}, false
	}

	post, err := h.queries.GetPostByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			renderNotFound(w, r, h.renderer)
			return store.Post{}, false
		}
		logAndInternalError(w, "failed to get post", "post_id", id, "error", err)
		return store.Post{}, false
	}

	actor, ok := actorFrom(r)
	if !ok || !allowed(&post, actor) {
		http.Redirect(w, r, postDetailURL(post.ID), http.StatusSeeOther)
		return store.Post{}, false
	}

	return post, true
}

// saveUploadedImage processes an optional "image" form file and returns
// the stored path. A missing file yields an invalid NullString.
func (h *PostHandler) saveUploadedImage(r *http.Request) (sql.NullString, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return sql.NullString{}, nil
		}
		return sql.NullString{}, err
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	id := uuid.New().String()
	filename := sanitizeFilename(header.Filename)

	result, err := h.processor.ProcessImage(file, id, filename)
	if err != nil {
		return sql.NullString{}, err
	}

	// Variant failures are non-fatal, the original is already stored.
	if _, err := h.processor.CreateAllVariants(h.processor.AbsPath(result.FilePath), id, filename); err != nil {
		slog.Warn("failed to create image variants", "uuid", id, "error", err)
	}

	return sql.NullString{String: result.FilePath, Valid: true}, nil
}

// sanitizeFilename keeps the base name and a safe character set.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
	if name == "" || name == "." {
		name = "upload.jpg"
	}
	return name
}
