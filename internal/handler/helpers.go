package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quill/internal/middleware"
	"quill/internal/render"
	"quill/internal/store"
	"quill/internal/visibility"
)

// baseTemplateData builds the common template envelope with the session
// user's auth state filled in.
func baseTemplateData(r *http.Request, title string, data any) render.TemplateData {
	td := render.TemplateData{
		Title: title,
		Data:  data,
	}
	if user := middleware.GetUser(r); user != nil {
		td.IsAuthed = true
		td.Username = user.Username
	}
	return td
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// urlParamID extracts a positive integer route parameter. Returns 0
// when the parameter is missing or malformed.
func urlParamID(r *http.Request, name string) int64 {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0
	}
	return id
}

// viewerFrom derives the visibility viewer from the request's session
// user, if any.
func viewerFrom(r *http.Request) visibility.Viewer {
	user := middleware.GetUser(r)
	if user == nil {
		return visibility.Anonymous
	}
	return visibility.Viewer{ID: user.ID, Authenticated: true}
}

// actorFrom derives the ownership guard actor from the request's
// session user. The boolean is false for anonymous requests.
func actorFrom(r *http.Request) (visibility.Actor, bool) {
	user := middleware.GetUser(r)
	if user == nil {
		return visibility.Actor{}, false
	}
	return visibility.Actor{ID: user.ID, Elevated: user.IsAdmin()}, true
}

// postDetailURL builds the canonical URL of a post's detail page.
func postDetailURL(postID int64) string {
	return "/posts/" + itoa(postID)
}

// isOwnProfile reports whether the session user is viewing their own
// profile.
func isOwnProfile(r *http.Request, profile store.User) bool {
	user := middleware.GetUser(r)
	return user != nil && user.ID == profile.ID
}
