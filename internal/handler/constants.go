package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RoutePosts is the posts route prefix.
	RoutePosts = "/posts"
	// RoutePostDetail is the post detail route pattern.
	RoutePostDetail = "/posts/{postID}"
	// RoutePostCreate is the post creation route.
	RoutePostCreate = "/posts/create"
	// RoutePostEdit is the post edit route pattern.
	RoutePostEdit = "/posts/{postID}/edit"
	// RoutePostDelete is the post delete route pattern.
	RoutePostDelete = "/posts/{postID}/delete"
	// RouteCommentCreate is the comment creation route pattern.
	RouteCommentCreate = "/posts/{postID}/comment"
	// RouteCommentEdit is the comment edit route pattern.
	RouteCommentEdit = "/posts/{postID}/edit_comment/{commentID}"
	// RouteCommentDelete is the comment delete route pattern.
	RouteCommentDelete = "/posts/{postID}/delete_comment/{commentID}"
	// RouteProfile is the profile route pattern.
	RouteProfile = "/profile/{username}"
	// RouteProfileEdit is the profile edit route.
	RouteProfileEdit = "/profile/edit"
	// RouteCategorySlug is the category archive route pattern. It is a
	// catch-all and must be registered after every other route.
	RouteCategorySlug = "/{slug}"

	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteRegister is the registration route.
	RouteRegister = "/register"
	// RouteHealth is the health check route.
	RouteHealth = "/health"
)

// postsPerPage is the page size for every post listing.
const postsPerPage = 10
