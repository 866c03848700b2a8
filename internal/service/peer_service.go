package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/models"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
)

type forumRepository interface {
	ListForums(ctx context.Context, instituteID string) ([]models.Forum, error)
	FindForum(ctx context.Context, id string) (*models.Forum, error)
	ListPosts(ctx context.Context, instituteID string) ([]models.ForumPost, error)
	FindPost(ctx context.Context, id string) (*models.ForumPost, string, error)
	ListPostStats(ctx context.Context, postIDs []string, userID string) ([]models.PostStats, error)
	ListReplies(ctx context.Context, postIDs []string) ([]models.ForumReply, error)
	CreatePost(ctx context.Context, post *models.ForumPost) error
	CreateReply(ctx context.Context, reply *models.ForumReply) error
	ToggleReaction(ctx context.Context, postID, userID string) (*models.ReactionState, error)
}

// PeerSupportService serves the institute-scoped peer forum.
type PeerSupportService struct {
	identity  studentResolver
	forums    forumRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeerSupportService constructs a PeerSupportService.
func NewPeerSupportService(identity studentResolver, forums forumRepository, validate *validator.Validate, logger *zap.Logger) *PeerSupportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeerSupportService{identity: identity, forums: forums, validator: validate, logger: logger}
}

// ListForums returns the forums of the caller's institute.
func (s *PeerSupportService) ListForums(ctx context.Context, claims *models.JWTClaims) ([]models.Forum, error) {
	student, err := s.identity.Student(ctx, claims)
	if err != nil {
		return nil, err
	}
	forums, err := s.forums.ListForums(ctx, student.InstituteID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list forums")
	}
	if forums == nil {
		forums = []models.Forum{}
	}
	return forums, nil
}

// ListPosts returns the institute's posts newest first, each annotated with
// reactions, replies and the resolved author.
func (s *PeerSupportService) ListPosts(ctx context.Context, claims *models.JWTClaims) ([]models.PostView, error) {
	student, err := s.identity.Student(ctx, claims)
	if err != nil {
		return nil, err
	}
	posts, err := s.forums.ListPosts(ctx, student.InstituteID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}
	if len(posts) == 0 {
		return []models.PostView{}, nil
	}

	ids := make([]string, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}
	stats, err := s.forums.ListPostStats(ctx, ids, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reactions")
	}
	replies, err := s.forums.ListReplies(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load replies")
	}

	statsByPost := make(map[string]models.PostStats, len(stats))
	for _, st := range stats {
		statsByPost[st.PostID] = st
	}
	repliesByPost := make(map[string][]models.ReplyView, len(posts))
	for _, reply := range replies {
		repliesByPost[reply.PostID] = append(repliesByPost[reply.PostID], replyView(reply))
	}

	views := make([]models.PostView, 0, len(posts))
	for _, post := range posts {
		st := statsByPost[post.ID]
		postReplies := repliesByPost[post.ID]
		if postReplies == nil {
			postReplies = []models.ReplyView{}
		}
		views = append(views, models.PostView{
			ForumPost:  post,
			Author:     models.DisplayName(post.IsAnonymous, post.AuthorName),
			LikeCount:  st.LikeCount,
			LikedByMe:  st.LikedByMe,
			ReplyCount: len(postReplies),
			Replies:    postReplies,
		})
	}
	return views, nil
}

// ListReplies returns a post's replies oldest first.
func (s *PeerSupportService) ListReplies(ctx context.Context, claims *models.JWTClaims, postID string) ([]models.ReplyView, error) {
	if _, err := s.visiblePost(ctx, claims, postID); err != nil {
		return nil, err
	}
	replies, err := s.forums.ListReplies(ctx, []string{postID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load replies")
	}
	views := make([]models.ReplyView, 0, len(replies))
	for _, reply := range replies {
		views = append(views, replyView(reply))
	}
	return views, nil
}

// CreatePost publishes a post in one of the institute's forums.
func (s *PeerSupportService) CreatePost(ctx context.Context, claims *models.JWTClaims, req dto.CreatePostRequest) (*models.PostView, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid post payload")
	}
	student, err := s.identity.Student(ctx, claims)
	if err != nil {
		return nil, err
	}
	forum, err := s.forums.FindForum(ctx, req.ForumID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "forum not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load forum")
	}
	if forum.InstituteID != student.InstituteID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "forum not found")
	}

	post := &models.ForumPost{
		ForumID:     forum.ID,
		StudentID:   student.ID,
		Title:       req.Title,
		Content:     req.Content,
		IsAnonymous: req.IsAnonymous,
	}
	if err := s.forums.CreatePost(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create post")
	}
	return &models.PostView{
		ForumPost: *post,
		Author:    models.DisplayName(post.IsAnonymous, post.AuthorName),
		Replies:   []models.ReplyView{},
	}, nil
}

// CreateReply answers a post. Blank content is rejected before any lookup.
func (s *PeerSupportService) CreateReply(ctx context.Context, claims *models.JWTClaims, postID string, req dto.CreateReplyRequest) (*models.ReplyView, error) {
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reply content is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reply payload")
	}
	student, err := s.identity.Student(ctx, claims)
	if err != nil {
		return nil, err
	}
	if _, err := s.postInInstitute(ctx, student.InstituteID, postID); err != nil {
		return nil, err
	}

	reply := &models.ForumReply{
		PostID:      postID,
		StudentID:   student.ID,
		Content:     req.Content,
		IsAnonymous: req.IsAnonymous,
	}
	if err := s.forums.CreateReply(ctx, reply); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reply")
	}
	view := replyView(*reply)
	return &view, nil
}

// ToggleReaction likes or unlikes a post for the caller.
func (s *PeerSupportService) ToggleReaction(ctx context.Context, claims *models.JWTClaims, postID string) (*models.ReactionState, error) {
	if _, err := s.visiblePost(ctx, claims, postID); err != nil {
		return nil, err
	}
	state, err := s.forums.ToggleReaction(ctx, postID, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle reaction")
	}
	return state, nil
}

func (s *PeerSupportService) visiblePost(ctx context.Context, claims *models.JWTClaims, postID string) (*models.ForumPost, error) {
	student, err := s.identity.Student(ctx, claims)
	if err != nil {
		return nil, err
	}
	return s.postInInstitute(ctx, student.InstituteID, postID)
}

func (s *PeerSupportService) postInInstitute(ctx context.Context, instituteID, postID string) (*models.ForumPost, error) {
	post, owner, err := s.forums.FindPost(ctx, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}
	if owner != instituteID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
	}
	return post, nil
}

func replyView(reply models.ForumReply) models.ReplyView {
	return models.ReplyView{ForumReply: reply, Author: models.DisplayName(reply.IsAnonymous, reply.AuthorName)}
}
