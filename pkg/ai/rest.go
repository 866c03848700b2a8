package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text *string `json:"text,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content *content `json:"content"`
	} `json:"candidates"`
}

// RESTClient calls the generateContent endpoint directly over HTTP.
type RESTClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewRESTClient builds a client for the given generateContent URL.
func NewRESTClient(endpoint, apiKey string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate sends prompt as a single text part and returns the first text part of the first candidate.
func (c *RESTClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: &prompt}}}}})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	target, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse generate endpoint: %w", err)
	}
	query := target.Query()
	query.Set("key", c.apiKey)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call generate endpoint: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(decoded.Candidates) == 0 || decoded.Candidates[0].Content == nil || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", ErrMalformedResponse
	}
	text := decoded.Candidates[0].Content.Parts[0].Text
	if text == nil {
		return "", ErrMalformedResponse
	}
	return *text, nil
}

func (c *RESTClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
