package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// SDKClient generates replies through the official Go SDK.
type SDKClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewSDKClient opens an SDK client for the named model.
func NewSDKClient(ctx context.Context, apiKey, model string) (*SDKClient, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &SDKClient{client: client, model: client.GenerativeModel(model)}, nil
}

// Generate concatenates the text parts of the first candidate.
func (c *SDKClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrMalformedResponse
	}

	var sb strings.Builder
	found := false
	for _, p := range resp.Candidates[0].Content.Parts {
		if text, ok := p.(genai.Text); ok {
			sb.WriteString(string(text))
			found = true
		}
	}
	if !found {
		return "", ErrMalformedResponse
	}
	return sb.String(), nil
}

func (c *SDKClient) Close() error {
	return c.client.Close()
}
