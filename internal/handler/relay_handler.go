package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/models"
	"github.com/noah-isme/mannsetu-api/pkg/ai"
	corsmiddleware "github.com/noah-isme/mannsetu-api/pkg/middleware/cors"
	"github.com/noah-isme/mannsetu-api/pkg/response"
)

type relayService interface {
	Generate(ctx context.Context, userID, prompt string) (string, error)
	History(ctx context.Context, claims *models.JWTClaims) ([]models.ChatMessage, error)
}

// RelayHandler fronts the generative model for the chat companion. The relay
// endpoint answers with bare text or {"error": ...} bodies rather than the
// response envelope, since browser clients consume it directly.
type RelayHandler struct {
	relay relayService
}

// NewRelayHandler constructs RelayHandler.
func NewRelayHandler(relay relayService) *RelayHandler {
	return &RelayHandler{relay: relay}
}

// Generate godoc
// @Summary Ask the wellness companion
// @Tags Relay
// @Accept json
// @Produce json
// @Param payload body dto.RelayRequest true "Prompt and user id"
// @Success 200 {object} dto.RelayResponse
// @Failure 400 {string} string "Missing prompt or user_id"
// @Failure 405 {string} string "Method Not Allowed"
// @Failure 429 {object} dto.RelayError
// @Failure 500 {object} dto.RelayError
// @Router /functions/generate-ai-response [post]
func (h *RelayHandler) Generate(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	switch c.Request.Method {
	case http.MethodOptions:
		c.Header("Access-Control-Allow-Headers", corsmiddleware.PermissiveAllowHeaders)
		c.String(http.StatusOK, "ok")
		return
	case http.MethodPost:
	default:
		c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	var req dto.RelayRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil || req.Prompt == "" || req.UserID == "" {
		c.String(http.StatusBadRequest, "Missing prompt or user_id")
		return
	}

	text, err := h.relay.Generate(c.Request.Context(), req.UserID, req.Prompt)
	if err != nil {
		if errors.Is(err, ai.ErrMissingAPIKey) {
			c.JSON(http.StatusInternalServerError, dto.RelayError{Error: "Missing API key configuration."})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.RelayError{Error: "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, dto.RelayResponse{Text: text})
}

// History godoc
// @Summary Chat transcript of the caller
// @Tags Relay
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /chat/history [get]
func (h *RelayHandler) History(c *gin.Context) {
	messages, err := h.relay.History(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}
