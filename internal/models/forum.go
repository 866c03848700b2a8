package models

import "time"

// AnonymousAuthor is displayed for anonymous posts and replies or when the author is unknown.
const AnonymousAuthor = "Anonymous"

// Forum groups posts for one institute.
type Forum struct {
	ID          string    `db:"id" json:"id"`
	InstituteID string    `db:"institute_id" json:"institute_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ForumPost carries the raw author name; DisplayName resolves anonymity.
type ForumPost struct {
	ID          string    `db:"id" json:"id"`
	ForumID     string    `db:"forum_id" json:"forum_id"`
	StudentID   string    `db:"student_id" json:"-"`
	Title       string    `db:"title" json:"title"`
	Content     string    `db:"content" json:"content"`
	IsAnonymous bool      `db:"is_anonymous" json:"is_anonymous"`
	AuthorName  *string   `db:"author_name" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type ForumReply struct {
	ID          string    `db:"id" json:"id"`
	PostID      string    `db:"post_id" json:"post_id"`
	StudentID   string    `db:"student_id" json:"-"`
	Content     string    `db:"content" json:"content"`
	IsAnonymous bool      `db:"is_anonymous" json:"is_anonymous"`
	AuthorName  *string   `db:"author_name" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DisplayName resolves the visible author through the anonymity flag.
func DisplayName(anonymous bool, name *string) string {
	if anonymous || name == nil || *name == "" {
		return AnonymousAuthor
	}
	return *name
}

// ReplyView is a reply with its resolved author.
type ReplyView struct {
	ForumReply
	Author string `json:"author"`
}

// PostView is a post annotated for display.
type PostView struct {
	ForumPost
	Author     string      `json:"author"`
	LikeCount  int         `json:"like_count"`
	LikedByMe  bool        `json:"liked_by_me"`
	ReplyCount int         `json:"reply_count"`
	Replies    []ReplyView `json:"replies"`
}

// ReactionState is the like state of a post after a toggle.
type ReactionState struct {
	PostID    string `json:"post_id"`
	Liked     bool   `json:"liked"`
	LikeCount int    `json:"like_count"`
}

// PostStats are per-post aggregates loaded in bulk.
type PostStats struct {
	PostID    string `db:"post_id"`
	LikeCount int    `db:"like_count"`
	LikedByMe bool   `db:"liked_by_me"`
}
