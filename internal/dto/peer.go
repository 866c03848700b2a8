package dto

// CreatePostRequest publishes a post in a forum.
type CreatePostRequest struct {
	ForumID     string `json:"forum_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Content     string `json:"content" validate:"required,max=5000"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// CreateReplyRequest answers a post.
type CreateReplyRequest struct {
	Content     string `json:"content" validate:"max=5000"`
	IsAnonymous bool   `json:"is_anonymous"`
}
