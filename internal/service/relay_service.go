package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/mannsetu-api/internal/models"
	"github.com/noah-isme/mannsetu-api/pkg/ai"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
)

// Relay outcomes reported to metrics.
const (
	RelayResultOK            = "ok"
	RelayResultNotConfigured = "not_configured"
	RelayResultUpstreamError = "upstream_error"
)

// chatHistoryLimit bounds the history returned to the companion screen.
const chatHistoryLimit = 200

type chatRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error)
}

// RelayService forwards companion prompts to the generative model and keeps a transcript.
type RelayService struct {
	generator ai.Generator
	chats     chatRepository
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewRelayService constructs a RelayService. A nil generator means no API key is configured.
func NewRelayService(generator ai.Generator, chats chatRepository, metrics *MetricsService, logger *zap.Logger) *RelayService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelayService{generator: generator, chats: chats, metrics: metrics, logger: logger}
}

// Generate answers prompt on behalf of userID. It returns ai.ErrMissingAPIKey
// when no provider is configured; any other error is an upstream failure.
// Transcript writes never fail the call.
func (s *RelayService) Generate(ctx context.Context, userID, prompt string) (string, error) {
	if s.generator == nil {
		s.metrics.ObserveRelay(RelayResultNotConfigured, 0)
		return "", ai.ErrMissingAPIKey
	}

	s.record(ctx, userID, prompt, models.SenderUser)

	started := time.Now()
	text, err := s.generator.Generate(ctx, ai.BuildPrompt(prompt))
	elapsed := time.Since(started)
	if err != nil {
		s.metrics.ObserveRelay(RelayResultUpstreamError, elapsed)
		s.logger.Error("generative model call failed", zap.String("user_id", userID), zap.Duration("elapsed", elapsed), zap.Error(err))
		return "", err
	}
	s.metrics.ObserveRelay(RelayResultOK, elapsed)

	s.record(ctx, userID, text, models.SenderBot)
	return text, nil
}

// History returns the caller's transcript oldest first.
func (s *RelayService) History(ctx context.Context, claims *models.JWTClaims) ([]models.ChatMessage, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	messages, err := s.chats.ListByUser(ctx, claims.UserID, chatHistoryLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chat history")
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	return messages, nil
}

func (s *RelayService) record(ctx context.Context, userID, message, sender string) {
	if s.chats == nil {
		return
	}
	if err := s.chats.Create(ctx, &models.ChatMessage{UserID: userID, Message: message, Sender: sender}); err != nil {
		s.logger.Warn("failed to store chat message", zap.String("sender", sender), zap.Error(err))
	}
}
