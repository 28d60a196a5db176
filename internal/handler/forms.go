package handler

import (
	"database/sql"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// pubDateLayout matches the browser datetime-local input format.
const pubDateLayout = "2006-01-02T15:04"

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,30}$`)

// PostForm holds the parsed and validated fields of the post form.
type PostForm struct {
	Title       string
	Body        string
	PubDate     time.Time
	CategoryID  int64
	LocationID  sql.NullInt64
	IsPublished bool

	Errors []string
}

// parsePostForm reads the post form from the request. The caller must
// have parsed the form already.
func parsePostForm(r *http.Request) PostForm {
	f := PostForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Body:        strings.TrimSpace(r.FormValue("body")),
		IsPublished: r.FormValue("is_published") == "on",
	}

	if f.Title == "" {
		f.Errors = append(f.Errors, "Title is required")
	} else if len(f.Title) > 256 {
		f.Errors = append(f.Errors, "Title must be at most 256 characters")
	}
	if f.Body == "" {
		f.Errors = append(f.Errors, "Text is required")
	}

	if raw := r.FormValue("pub_date"); raw != "" {
		t, err := time.ParseInLocation(pubDateLayout, raw, time.Local)
		if err != nil {
			f.Errors = append(f.Errors, "Publication date is invalid")
		} else {
			f.PubDate = t
		}
	} else {
		f.PubDate = time.Now()
	}

	categoryID, err := strconv.ParseInt(r.FormValue("category_id"), 10, 64)
	if err != nil || categoryID < 1 {
		f.Errors = append(f.Errors, "Category is required")
	} else {
		f.CategoryID = categoryID
	}

	if raw := r.FormValue("location_id"); raw != "" && raw != "0" {
		locationID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			f.Errors = append(f.Errors, "Location is invalid")
		} else {
			f.LocationID = sql.NullInt64{Int64: locationID, Valid: true}
		}
	}

	return f
}

// Valid reports whether the form passed validation.
func (f *PostForm) Valid() bool {
	return len(f.Errors) == 0
}

// CommentForm holds the parsed comment form.
type CommentForm struct {
	Text string

	Errors []string
}

func parseCommentForm(r *http.Request) CommentForm {
	f := CommentForm{
		Text: strings.TrimSpace(r.FormValue("text")),
	}

	if f.Text == "" {
		f.Errors = append(f.Errors, "Comment text is required")
	} else if len(f.Text) > 4000 {
		f.Errors = append(f.Errors, "Comment must be at most 4000 characters")
	}

	return f
}

// Valid reports whether the form passed validation.
func (f *CommentForm) Valid() bool {
	return len(f.Errors) == 0
}

// ProfileForm holds the parsed profile edit form.
type ProfileForm struct {
	Email     string
	FirstName string
	LastName  string

	Errors []string
}

func parseProfileForm(r *http.Request) ProfileForm {
	f := ProfileForm{
		Email:     strings.TrimSpace(r.FormValue("email")),
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
	}

	if f.Email == "" {
		f.Errors = append(f.Errors, "Email is required")
	} else if !strings.Contains(f.Email, "@") {
		f.Errors = append(f.Errors, "Email is invalid")
	}
	if len(f.FirstName) > 150 {
		f.Errors = append(f.Errors, "First name must be at most 150 characters")
	}
	if len(f.LastName) > 150 {
		f.Errors = append(f.Errors, "Last name must be at most 150 characters")
	}

	return f
}

// Valid reports whether the form passed validation.
func (f *ProfileForm) Valid() bool {
	return len(f.Errors) == 0
}

// RegisterForm holds the parsed registration form.
type RegisterForm struct {
	Username        string
	Email           string
	FirstName       string
	LastName        string
	Password        string
	PasswordConfirm string

	Errors []string
}

func parseRegisterForm(r *http.Request) RegisterForm {
	f := RegisterForm{
		Username:        strings.TrimSpace(r.FormValue("username")),
		Email:           strings.TrimSpace(r.FormValue("email")),
		FirstName:       strings.TrimSpace(r.FormValue("first_name")),
		LastName:        strings.TrimSpace(r.FormValue("last_name")),
		Password:        r.FormValue("password"),
		PasswordConfirm: r.FormValue("password_confirm"),
	}

	if !usernameRe.MatchString(f.Username) {
		f.Errors = append(f.Errors, "Username must be 3-30 characters of letters, digits, dot, dash or underscore")
	}
	if f.Email == "" || !strings.Contains(f.Email, "@") {
		f.Errors = append(f.Errors, "A valid email is required")
	}
	if len(f.Password) < 8 {
		f.Errors = append(f.Errors, "Password must be at least 8 characters")
	}
	if f.Password != f.PasswordConfirm {
		f.Errors = append(f.Errors, "Passwords do not match")
	}

	return f
}

// Valid reports whether the form passed validation.
func (f *RegisterForm) Valid() bool {
	return len(f.Errors) == 0
}
