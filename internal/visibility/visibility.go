// Package visibility holds the post visibility rules: which posts a given
// viewer may see in a given listing scope, and which entities a given actor
// may mutate. It is pure predicate composition with no storage or HTTP
// dependencies; internal/store translates Filter descriptors into SQL.
package visibility

import "time"

// ScopeKind identifies the dimension a post listing is restricted along.
type ScopeKind int

const (
	// ScopeKindAll is the global listing of all posts.
	ScopeKindAll ScopeKind = iota
	// ScopeKindCategory restricts the listing to a single category.
	ScopeKindCategory
	// ScopeKindAuthor restricts the listing to a single author's posts.
	ScopeKindAuthor
)

// Scope describes a post listing restriction.
type Scope struct {
	Kind       ScopeKind
	CategoryID int64
	AuthorID   int64
}

// ScopeAll returns the global listing scope.
func ScopeAll() Scope {
	return Scope{Kind: ScopeKindAll}
}

// ScopeCategory returns a scope restricted to one category.
func ScopeCategory(categoryID int64) Scope {
	return Scope{Kind: ScopeKindCategory, CategoryID: categoryID}
}

// ScopeAuthor returns a scope restricted to one author's posts.
func ScopeAuthor(authorID int64) Scope {
	return Scope{Kind: ScopeKindAuthor, AuthorID: authorID}
}

// Viewer identifies who is looking at a listing or post.
// The zero value is the anonymous viewer.
type Viewer struct {
	ID            int64
	Authenticated bool
}

// Anonymous is the unauthenticated viewer.
var Anonymous = Viewer{}

// PredicateKind enumerates the conditions a Filter can carry.
type PredicateKind int

const (
	// PredCategoryID restricts posts to a category.
	PredCategoryID PredicateKind = iota
	// PredAuthorID restricts posts to an author.
	PredAuthorID
	// PredPublished requires post, category and location to be published.
	PredPublished
	// PredPubDateBefore requires pub_date <= the given time.
	PredPubDateBefore
)

// Predicate is one condition of a Filter. Exactly one of the value fields
// is meaningful, selected by Kind.
type Predicate struct {
	Kind PredicateKind
	ID   int64
	Time time.Time
}

// Filter is a structured query descriptor: the predicates all returned
// posts must satisfy, plus the fixed listing order (pub_date descending,
// newest row first on ties).
type Filter struct {
	Predicates []Predicate
}

// ListFilter builds the filter for a listing in the given scope as seen by
// the given viewer at time now.
//
// When the viewer owns the scoped content (an author browsing their own
// profile) the publication restrictions are skipped entirely: owners always
// see their own posts regardless of published flags or future pub dates.
// Every other combination gets the full visibility invariant.
func ListFilter(scope Scope, viewer Viewer, now time.Time) Filter {
	var f Filter

	switch scope.Kind {
	case ScopeKindCategory:
		f.Predicates = append(f.Predicates, Predicate{Kind: PredCategoryID, ID: scope.CategoryID})
	case ScopeKindAuthor:
		f.Predicates = append(f.Predicates, Predicate{Kind: PredAuthorID, ID: scope.AuthorID})
	}

	if scope.Kind == ScopeKindAuthor && viewer.Authenticated && viewer.ID == scope.AuthorID {
		return f
	}

	f.Predicates = append(f.Predicates,
		Predicate{Kind: PredPublished},
		Predicate{Kind: PredPubDateBefore, Time: now},
	)
	return f
}

// HasPredicate reports whether the filter carries a predicate of the
// given kind.
func (f Filter) HasPredicate(kind PredicateKind) bool {
	for _, p := range f.Predicates {
		if p.Kind == kind {
			return true
		}
	}
	return false
}
