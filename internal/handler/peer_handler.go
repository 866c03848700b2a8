package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/models"
	"github.com/noah-isme/mannsetu-api/pkg/response"
)

type peerService interface {
	ListForums(ctx context.Context, claims *models.JWTClaims) ([]models.Forum, error)
	ListPosts(ctx context.Context, claims *models.JWTClaims) ([]models.PostView, error)
	ListReplies(ctx context.Context, claims *models.JWTClaims, postID string) ([]models.ReplyView, error)
	CreatePost(ctx context.Context, claims *models.JWTClaims, req dto.CreatePostRequest) (*models.PostView, error)
	CreateReply(ctx context.Context, claims *models.JWTClaims, postID string, req dto.CreateReplyRequest) (*models.ReplyView, error)
	ToggleReaction(ctx context.Context, claims *models.JWTClaims, postID string) (*models.ReactionState, error)
}

// PeerHandler serves the institute-scoped peer support forum.
type PeerHandler struct {
	peer peerService
}

// NewPeerHandler constructs PeerHandler.
func NewPeerHandler(peer peerService) *PeerHandler {
	return &PeerHandler{peer: peer}
}

// Forums godoc
// @Summary Forums of the student's institute
// @Tags Peer
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /peer/forums [get]
func (h *PeerHandler) Forums(c *gin.Context) {
	forums, err := h.peer.ListForums(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, forums, nil)
}

// Posts godoc
// @Summary Posts with reactions and replies
// @Tags Peer
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /peer/posts [get]
func (h *PeerHandler) Posts(c *gin.Context) {
	posts, err := h.peer.ListPosts(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, nil)
}

// Replies godoc
// @Summary Replies of a post, oldest first
// @Tags Peer
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /peer/posts/{id}/replies [get]
func (h *PeerHandler) Replies(c *gin.Context) {
	replies, err := h.peer.ListReplies(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, replies, nil)
}

// CreatePost godoc
// @Summary Publish a post
// @Tags Peer
// @Accept json
// @Produce json
// @Param payload body dto.CreatePostRequest true "Post"
// @Success 201 {object} response.Envelope
// @Router /peer/posts [post]
func (h *PeerHandler) CreatePost(c *gin.Context) {
	var req dto.CreatePostRequest
	if !bindJSON(c, &req, "invalid post payload") {
		return
	}
	post, err := h.peer.CreatePost(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// CreateReply godoc
// @Summary Reply to a post
// @Tags Peer
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param payload body dto.CreateReplyRequest true "Reply"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /peer/posts/{id}/replies [post]
func (h *PeerHandler) CreateReply(c *gin.Context) {
	var req dto.CreateReplyRequest
	if !bindJSON(c, &req, "invalid reply payload") {
		return
	}
	reply, err := h.peer.CreateReply(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reply)
}

// ToggleReaction godoc
// @Summary Like or unlike a post
// @Tags Peer
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Router /peer/posts/{id}/reactions/toggle [post]
func (h *PeerHandler) ToggleReaction(c *gin.Context) {
	state, err := h.peer.ToggleReaction(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}
