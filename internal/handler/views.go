// Package handler provides HTTP handlers for the application.
package handler

import (
	"bytes"
	"html/template"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"quill/internal/store"
)

// htmlSanitizer strips dangerous markup from rendered post and comment
// bodies. UGCPolicy keeps the safe subset suitable for user content.
var htmlSanitizer = bluemonday.UGCPolicy()

// renderMarkdown converts markdown to sanitized HTML. If conversion
// fails the raw text is returned escaped.
func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src)) //nolint:gosec // escaped above
	}
	return template.HTML(htmlSanitizer.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized above
}

// PostView represents a post with computed fields for template rendering.
type PostView struct {
	ID             int64
	Title          string
	Body           template.HTML
	ImageURL       string
	PubDate        time.Time
	IsPublished    bool
	IsScheduled    bool
	URL            string
	AuthorID       int64
	AuthorName     string
	AuthorUsername string
	CategoryTitle  string
	CategoryURL    string
	LocationName   string
	CommentCount   int64
}

// newPostView converts a stored post row into its template view.
func newPostView(p store.PostWithMeta) PostView {
	v := PostView{
		ID:             p.ID,
		Title:          p.Title,
		Body:           renderMarkdown(p.Body),
		PubDate:        p.PubDate,
		IsPublished:    p.IsPublished,
		IsScheduled:    p.PubDate.After(time.Now()),
		URL:            "/posts/" + itoa(p.ID),
		AuthorID:       p.AuthorID,
		AuthorName:     displayName(p.AuthorUsername, p.AuthorFirstName, p.AuthorLastName),
		AuthorUsername: p.AuthorUsername,
		CategoryTitle:  p.CategoryTitle,
		CategoryURL:    "/" + p.CategorySlug,
	}
	if p.ImagePath.Valid {
		v.ImageURL = "/uploads/" + p.ImagePath.String
	}
	if p.LocationName.Valid {
		v.LocationName = p.LocationName.String
	}
	v.CommentCount = p.CommentCount
	return v
}

// CommentView represents a comment for template rendering.
type CommentView struct {
	ID         int64
	Text       template.HTML
	CreatedAt  time.Time
	AuthorID   int64
	AuthorName string
	EditURL    string
	DeleteURL  string
}

// newCommentView converts a stored comment row into its template view.
func newCommentView(c store.CommentWithAuthor) CommentView {
	postID := itoa(c.PostID)
	commentID := itoa(c.ID)
	return CommentView{
		ID:         c.ID,
		Text:       renderMarkdown(c.Text),
		CreatedAt:  c.CreatedAt,
		AuthorID:   c.AuthorID,
		AuthorName: displayName(c.AuthorUsername, c.AuthorFirstName, c.AuthorLastName),
		EditURL:    "/posts/" + postID + "/edit_comment/" + commentID,
		DeleteURL:  "/posts/" + postID + "/delete_comment/" + commentID,
	}
}

// displayName prefers "First Last" and falls back to the username.
func displayName(username, firstName, lastName string) string {
	switch {
	case firstName != "" && lastName != "":
		return firstName + " " + lastName
	case firstName != "":
		return firstName
	case lastName != "":
		return lastName
	default:
		return username
	}
}
