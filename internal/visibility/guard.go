package visibility

// Entity is the minimal shape the ownership guard needs: anything with a
// single owning author.
type Entity interface {
	OwnerID() int64
}

// Actor is the identity attempting a mutation.
type Actor struct {
	ID       int64
	Elevated bool // staff/superuser privilege
}

// CanEditPost reports whether the actor may edit a post. Only the author
// may edit; elevated privilege does not override.
func CanEditPost(post Entity, actor Actor) bool {
	return actor.ID == post.OwnerID()
}

// CanDeletePost reports whether the actor may delete a post. The author
// or any elevated identity may delete.
func CanDeletePost(post Entity, actor Actor) bool {
	return actor.ID == post.OwnerID() || actor.Elevated
}

// CanEditComment reports whether the actor may edit a comment.
func CanEditComment(comment Entity, actor Actor) bool {
	return actor.ID == comment.OwnerID()
}

// CanDeleteComment reports whether the actor may delete a comment. Unlike
// post deletion there is no elevated-privilege override.
func CanDeleteComment(comment Entity, actor Actor) bool {
	return actor.ID == comment.OwnerID()
}
