package store

import (
	"database/sql"
	"time"
)

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. Posts and comments each belong to
// exactly one user, set at creation.
type User struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	LastLoginAt  sql.NullTime
}

// IsAdmin returns true if the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullName returns "First Last", falling back to the username when both
// name fields are empty.
func (u User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Username
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Category is administrator-owned reference data grouping posts.
type Category struct {
	ID          int64
	Title       string
	Description string
	Slug        string
	IsPublished bool
	CreatedAt   time.Time
}

// Location is administrator-owned reference data tagging posts with a
// place.
type Location struct {
	ID          int64
	Name        string
	IsPublished bool
	CreatedAt   time.Time
}

// Post is a blog entry. pub_date may be in the future, in which case the
// post is visible only to its author until the date passes.
type Post struct {
	ID          int64
	Title       string
	Body        string
	ImagePath   sql.NullString
	PubDate     time.Time
	IsPublished bool
	AuthorID    int64
	CategoryID  int64
	LocationID  sql.NullInt64
	CreatedAt   time.Time
}

// OwnerID implements the visibility guard's Entity interface.
func (p *Post) OwnerID() int64 {
	return p.AuthorID
}

// PostWithMeta is a Post joined with its author, category and optional
// location, plus the published-comment count computed in the same query.
type PostWithMeta struct {
	Post
	AuthorUsername  string
	AuthorFirstName string
	AuthorLastName  string
	CategoryTitle   string
	CategorySlug    string
	LocationName    sql.NullString
	CommentCount    int64
}

// Comment is a reader response to a post. Only published comments count
// toward a post's displayed comment total.
type Comment struct {
	ID          int64
	Text        string
	AuthorID    int64
	PostID      int64
	IsPublished bool
	CreatedAt   time.Time
}

// OwnerID implements the visibility guard's Entity interface.
func (c *Comment) OwnerID() int64 {
	return c.AuthorID
}

// CommentWithAuthor is a Comment joined with its author's display fields.
type CommentWithAuthor struct {
	Comment
	AuthorUsername  string
	AuthorFirstName string
	AuthorLastName  string
}

// Event severity levels for the audit log.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event is an audit log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}
