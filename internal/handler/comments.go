package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"quill/internal/render"
	"quill/internal/store"
	"quill/internal/visibility"
)

// CommentHandler handles comment creation, editing and deletion.
type CommentHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(db *sql.DB, renderer *render.Renderer) *CommentHandler {
	return &CommentHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// CommentFormData holds data for the comment edit and delete templates.
type CommentFormData struct {
	PostID    int64
	ActionURL string
	Form      CommentForm
	IsDelete  bool
}

// Create handles the comment form submission on a post's detail page.
// The post must be visible to the commenter.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
		return
	}

	postID := urlParamID(r, "postID")
	if postID == 0 {
		renderNotFound(w, r, h.renderer)
		return
	}

	post, err := h.queries.GetVisiblePost(r.Context(), postID, viewerFrom(r))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			renderNotFound(w, r, h.renderer)
			return
		}
		logAndInternalError(w, "failed to get post", "post_id", postID, "error", err)
		return
	}

	detailURL := postDetailURL(post.ID)

	if !parseFormOrRedirect(w, r, h.renderer, detailURL) {
		return
	}

	form := parseCommentForm(r)
	if !form.Valid() {
		h.renderCommentForm(w, r, "Add Comment", CommentFormData{
			PostID:    post.ID,
			ActionURL: detailURL + "/comment",
			Form:      form,
		})
		return
	}

	comment, err := h.queries.CreateComment(r.Context(), store.CreateCommentParams{
		Text:      form.Text,
		AuthorID:  actor.ID,
		PostID:    post.ID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to create comment", "post_id", post.ID, "error", err)
		return
	}

	slog.Info("comment created", "comment_id", comment.ID, "post_id", post.ID)
	flashSuccess(w, r, h.renderer, detailURL, "Comment added")
}

// EditForm renders the comment edit form.
func (h *CommentHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.requireOwnComment(w, r, visibility.CanEditComment)
	if !ok {
		return
	}

	data := CommentFormData{
		PostID:    comment.PostID,
		ActionURL: commentRouteURL(comment, "edit_comment"),
		Form:      CommentForm{Text: comment.Text},
	}
	if err := h.renderer.Render(w, r, "blog/comment_form", baseTemplateData(r, "Edit Comment", data)); err != nil {
		logAndInternalError(w, "failed to render comment form", "error", err)
	}
}

// Update handles the comment edit form submission.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.requireOwnComment(w, r, visibility.CanEditComment)
	if !ok {
		return
	}

	detailURL := postDetailURL(comment.PostID)

	if !parseFormOrRedirect(w, r, h.renderer, commentRouteURL(comment, "edit_comment")) {
		return
	}

	form := parseCommentForm(r)
	if !form.Valid() {
		h.renderCommentForm(w, r, "Edit Comment", CommentFormData{
			PostID:    comment.PostID,
			ActionURL: commentRouteURL(comment, "edit_comment"),
			Form:      form,
		})
		return
	}

	if err := h.queries.UpdateCommentText(r.Context(), comment.ID, form.Text); err != nil {
		logAndInternalError(w, "failed to update comment", "comment_id", comment.ID, "error", err)
		return
	}

	slog.Info("comment updated", "comment_id", comment.ID)
	flashSuccess(w, r, h.renderer, detailURL, "Comment updated")
}

// DeleteConfirm renders the comment delete confirmation page.
func (h *CommentHandler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.requireOwnComment(w, r, visibility.CanDeleteComment)
	if !ok {
		return
	}

	data := CommentFormData{
		PostID:    comment.PostID,
		ActionURL: commentRouteURL(comment, "delete_comment"),
		Form:      CommentForm{Text: comment.Text},
		IsDelete:  true,
	}
	if err := h.renderer.Render(w, r, "blog/comment_form", baseTemplateData(r, "Delete Comment", data)); err != nil {
		logAndInternalError(w, "failed to render comment form", "error", err)
	}
}

// Delete removes a comment.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.requireOwnComment(w, r, visibility.CanDeleteComment)
	if !ok {
		return
	}

	if err := h.queries.DeleteComment(r.Context(), comment.ID); err != nil {
		logAndInternalError(w, "failed to delete comment", "comment_id", comment.ID, "error", err)
		return
	}

	slog.Info("comment deleted", "comment_id", comment.ID)
	flashSuccess(w, r, h.renderer, postDetailURL(comment.PostID), "Comment deleted")
}

// renderCommentForm renders the comment form with the given values and
// any validation errors.
func (h *CommentHandler) renderCommentForm(w http.ResponseWriter, r *http.Request, title string, data CommentFormData) {
	err := h.renderer.RenderStatus(w, r, "blog/comment_form", http.StatusUnprocessableEntity,
		baseTemplateData(r, title, data))
	if err != nil {
		logAndInternalError(w, "failed to render comment form", "error", err)
	}
}

// requireOwnComment loads the routed comment and checks the actor
// against the given permission. A missing comment, or one that does not
// belong to the routed post, is a 404. An existing comment the actor
// may not touch redirects silently to the post's detail page.
func (h *CommentHandler) requireOwnComment(w http.ResponseWriter, r *http.Request, allowed func(visibility.Entity, visibility.Actor) bool) (store.Comment, bool) {
	postID := urlParamID(r, "postID")
	commentID := urlParamID(r, "commentID")
	if postID == 0 || commentID == 0 {
		renderNotFound(w, r, h.renderer)
		return store.Comment{}, false
	}

	comment, err := h.queries.GetCommentByID(r.Context(), commentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			renderNotFound(w, r, h.renderer)
			return store.Comment{}, false
		}
		logAndInternalError(w, "failed to get comment", "comment_id", commentID, "error", err)
		return store.Comment{}, false
	}
	if comment.PostID != postID {
		renderNotFound(w, r, h.renderer)
		return store.Comment{}, false
	}

	actor, ok := actorFrom(r)
	if !ok || !allowed(&comment, actor) {
		http.Redirect(w, r, postDetailURL(comment.PostID), http.StatusSeeOther)
		return store.Comment{}, false
	}

	return comment, true
}

// commentRouteURL builds a comment mutation URL for the given action.
func commentRouteURL(c store.Comment, action string) string {
	return "/posts/" + itoa(c.PostID) + "/" + action + "/" + itoa(c.ID)
}
