package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/mannsetu-api/internal/models"
)

const (
	postColumns  = `p.id, p.forum_id, p.student_id, p.title, p.content, p.is_anonymous, s.full_name AS author_name, p.created_at`
	replyColumns = `r.id, r.post_id, r.student_id, r.content, r.is_anonymous, s.full_name AS author_name, r.created_at`
)

// ForumRepository backs the peer-support feed.
type ForumRepository struct {
	db *sqlx.DB
}

// NewForumRepository constructs a ForumRepository.
func NewForumRepository(db *sqlx.DB) *ForumRepository {
	return &ForumRepository{db: db}
}

// ListForums returns an institute's forums.
func (r *ForumRepository) ListForums(ctx context.Context, instituteID string) ([]models.Forum, error) {
	const query = `SELECT id, institute_id, title, description, created_at FROM forums WHERE institute_id = $1 ORDER BY title ASC`
	var forums []models.Forum
	if err := r.db.SelectContext(ctx, &forums, query, instituteID); err != nil {
		return nil, fmt.Errorf("list forums: %w", err)
	}
	return forums, nil
}

// FindForum returns a forum by identifier.
func (r *ForumRepository) FindForum(ctx context.Context, id string) (*models.Forum, error) {
	const query = `SELECT id, institute_id, title, description, created_at FROM forums WHERE id = $1`
	var forum models.Forum
	if err := r.db.GetContext(ctx, &forum, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find forum: %w", err)
	}
	return &forum, nil
}

// ListPosts returns the posts of an institute's forums, newest first.
func (r *ForumRepository) ListPosts(ctx context.Context, instituteID string) ([]models.ForumPost, error) {
	const query = `SELECT ` + postColumns + `
FROM forum_posts p
JOIN forums f ON f.id = p.forum_id
LEFT JOIN students s ON s.id = p.student_id
WHERE f.institute_id = $1 ORDER BY p.created_at DESC`
	var posts []models.ForumPost
	if err := r.db.SelectContext(ctx, &posts, query, instituteID); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// FindPost returns a post together with the institute owning its forum.
func (r *ForumRepository) FindPost(ctx context.Context, id string) (*models.ForumPost, string, error) {
	const query = `SELECT ` + postColumns + `, f.institute_id
FROM forum_posts p
JOIN forums f ON f.id = p.forum_id
LEFT JOIN students s ON s.id = p.student_id
WHERE p.id = $1`
	var row struct {
		models.ForumPost
		InstituteID string `db:"institute_id"`
	}
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("find post: %w", err)
	}
	return &row.ForumPost, row.InstituteID, nil
}

// ListPostStats returns like counts and the caller's like state for posts.
func (r *ForumRepository) ListPostStats(ctx context.Context, postIDs []string, userID string) ([]models.PostStats, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT post_id, COUNT(*) AS like_count, BOOL_OR(user_id::text = $2) AS liked_by_me
FROM forum_post_reactions WHERE post_id = ANY($1) GROUP BY post_id`
	var stats []models.PostStats
	if err := r.db.SelectContext(ctx, &stats, query, pq.Array(postIDs), userID); err != nil {
		return nil, fmt.Errorf("list post stats: %w", err)
	}
	return stats, nil
}

// ListReplies returns the replies of the given posts, oldest first.
func (r *ForumRepository) ListReplies(ctx context.Context, postIDs []string) ([]models.ForumReply, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + replyColumns + `
FROM forum_replies r LEFT JOIN students s ON s.id = r.student_id
WHERE r.post_id = ANY($1) ORDER BY r.created_at ASC`
	var replies []models.ForumReply
	if err := r.db.SelectContext(ctx, &replies, query, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return replies, nil
}

// CreatePost inserts a post and loads its author name.
func (r *ForumRepository) CreatePost(ctx context.Context, post *models.ForumPost) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	const query = `WITH inserted AS (
INSERT INTO forum_posts (id, forum_id, student_id, title, content, is_anonymous, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING student_id
) SELECT s.full_name FROM inserted i LEFT JOIN students s ON s.id = i.student_id`
	if err := r.db.GetContext(ctx, &post.AuthorName, query, post.ID, post.ForumID, post.StudentID, post.Title, post.Content, post.IsAnonymous, post.CreatedAt); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// CreateReply inserts a reply and loads its author name.
func (r *ForumRepository) CreateReply(ctx context.Context, reply *models.ForumReply) error {
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now().UTC()
	}
	const query = `WITH inserted AS (
INSERT INTO forum_replies (id, post_id, student_id, content, is_anonymous, created_at)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING student_id
) SELECT s.full_name FROM inserted i LEFT JOIN students s ON s.id = i.student_id`
	if err := r.db.GetContext(ctx, &reply.AuthorName, query, reply.ID, reply.PostID, reply.StudentID, reply.Content, reply.IsAnonymous, reply.CreatedAt); err != nil {
		return fmt.Errorf("create reply: %w", err)
	}
	return nil
}

// ToggleReaction removes the user's like when present, adds it otherwise,
// and returns the resulting state.
func (r *ForumRepository) ToggleReaction(ctx context.Context, postID, userID string) (state *models.ReactionState, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin toggle reaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existing string
	err = tx.GetContext(ctx, &existing, `SELECT id FROM forum_post_reactions WHERE post_id = $1 AND user_id = $2 FOR UPDATE`, postID, userID)
	liked := false
	switch {
	case err == sql.ErrNoRows:
		if _, err = tx.ExecContext(ctx, `INSERT INTO forum_post_reactions (id, post_id, user_id, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (post_id, user_id) DO NOTHING`,
			uuid.NewString(), postID, userID, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("insert reaction: %w", err)
		}
		liked = true
	case err != nil:
		return nil, fmt.Errorf("find reaction: %w", err)
	default:
		if _, err = tx.ExecContext(ctx, `DELETE FROM forum_post_reactions WHERE id = $1`, existing); err != nil {
			return nil, fmt.Errorf("delete reaction: %w", err)
		}
	}

	var count int
	if err = tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM forum_post_reactions WHERE post_id = $1`, postID); err != nil {
		return nil, fmt.Errorf("count reactions: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit toggle reaction: %w", err)
	}
	return &models.ReactionState{PostID: postID, Liked: liked, LikeCount: count}, nil
}
