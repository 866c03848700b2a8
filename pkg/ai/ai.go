// Package ai talks to the generative model behind the wellness companion.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/mannsetu-api/pkg/config"
)

// SystemPrompt frames every conversation with the companion persona.
const SystemPrompt = "You are MannMitra, an empathetic and supportive AI assistant for a mental wellness platform for university students. " +
	"Focus only on mental health concerns such as stress, anxiety, low mood, and related issues. " +
	"Always respond in a caring, understanding, and useful way that matches the user’s needs, instead of giving the same type of response every time. " +
	"Encourage users to connect with a counselor if they need more support. " +
	"Do not diagnose or give medical advice, and politely steer the conversation back if the user asks about unrelated topics. " +
	"Keep a soothing and professional tone, and the response should not be longer than 5-7 lines. " +
	"Try to make the person calm, and give steps to resolve his problem"

const (
	TransportREST = "rest"
	TransportSDK  = "sdk"
)

var (
	// ErrMissingAPIKey is returned when no provider key is configured.
	ErrMissingAPIKey = errors.New("missing API key configuration")
	// ErrMalformedResponse means the provider answered without a usable text part.
	ErrMalformedResponse = errors.New("malformed generative response")
)

// StatusError reports a non-success HTTP status from the provider.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API call failed: %s", e.Status)
}

// Generator produces a reply for a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// BuildPrompt prefixes the user's utterance with the system prompt.
func BuildPrompt(userPrompt string) string {
	return SystemPrompt + "\n\nUser: " + userPrompt
}

// New selects the transport named in cfg.
func New(ctx context.Context, cfg config.AIConfig) (Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	switch cfg.Transport {
	case TransportSDK:
		return NewSDKClient(ctx, cfg.APIKey, cfg.Model)
	case "", TransportREST:
		return NewRESTClient(cfg.APIURL, cfg.APIKey, timeout), nil
	default:
		return nil, fmt.Errorf("unknown AI transport %q", cfg.Transport)
	}
}
