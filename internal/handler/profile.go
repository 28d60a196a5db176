package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"quill/internal/middleware"
	"quill/internal/render"
	"quill/internal/store"
)

// ProfileHandler handles a user's own profile editing.
type ProfileHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(db *sql.DB, renderer *render.Renderer) *ProfileHandler {
	return &ProfileHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// ProfileFormData holds data for the profile edit template.
type ProfileFormData struct {
	Username string
	Form     ProfileForm
}

// EditForm renders the profile edit form for the session user.
func (h *ProfileHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
		return
	}

	data := ProfileFormData{
		Username: user.Username,
		Form: ProfileForm{
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		},
	}
	if err := h.renderer.Render(w, r, "blog/profile_form", baseTemplateData(r, "Edit Profile", data)); err != nil {
		logAndInternalError(w, "failed to render profile form", "error", err)
	}
}

// Update handles the profile edit form submission. Users can only ever
// edit their own profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, RouteProfileEdit) {
		return
	}

	form := parseProfileForm(r)
	if !form.Valid() {
		data := ProfileFormData{Username: user.Username, Form: form}
		err := h.renderer.RenderStatus(w, r, "blog/profile_form", http.StatusUnprocessableEntity,
			baseTemplateData(r, "Edit Profile", data))
		if err != nil {
			logAndInternalError(w, "failed to render profile form", "error", err)
		}
		return
	}

	updated, err := h.queries.UpdateUserProfile(r.Context(), store.UpdateUserProfileParams{
		ID:        user.ID,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
	})
	if err != nil {
		logAndInternalError(w, "failed to update profile", "user_id", user.ID, "error", err)
		return
	}

	slog.Info("profile updated", "user_id", updated.ID)
	flashSuccess(w, r, h.renderer, "/profile/"+updated.Username, "Profile updated")
}
