// Package client is a typed Go client for the MannSetu API together with the
// small view models that front-ends build on it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	apiPrefix = "/api/v1"
	relayPath = "/functions/generate-ai-response"
)

// APIError is a non-success answer from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: %s (%d): %s", e.Code, e.Status, e.Message)
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *envelopeError  `json:"error"`
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the initial bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// Client talks to the API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New returns a client rooted at baseURL, e.g. "https://api.mannsetu.in".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken swaps the bearer token used for subsequent calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ListPosts loads the caller's institute feed.
func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	err := c.do(ctx, http.MethodGet, "/peer/posts", nil, &posts)
	return posts, err
}

// CreateReply answers a post.
func (c *Client) CreateReply(ctx context.Context, postID, content string, anonymous bool) (*Reply, error) {
	var reply Reply
	body := map[string]interface{}{"content": content, "is_anonymous": anonymous}
	if err := c.do(ctx, http.MethodPost, "/peer/posts/"+url.PathEscape(postID)+"/replies", body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ToggleReaction likes or unlikes a post and returns the server's view.
func (c *Client) ToggleReaction(ctx context.Context, postID string) (*ReactionState, error) {
	var state ReactionState
	if err := c.do(ctx, http.MethodPost, "/peer/posts/"+url.PathEscape(postID)+"/reactions/toggle", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// ListCounselors returns counselors the student can book.
func (c *Client) ListCounselors(ctx context.Context) ([]Counselor, error) {
	var counselors []Counselor
	err := c.do(ctx, http.MethodGet, "/student/counselors", nil, &counselors)
	return counselors, err
}

// ListSlots returns open slots of a counselor on date (YYYY-MM-DD).
func (c *Client) ListSlots(ctx context.Context, counselorID, date string) ([]Slot, error) {
	var slots []Slot
	path := "/student/counselors/" + url.PathEscape(counselorID) + "/slots?date=" + url.QueryEscape(date)
	err := c.do(ctx, http.MethodGet, path, nil, &slots)
	return slots, err
}

// CreateBooking reserves a slot.
func (c *Client) CreateBooking(ctx context.Context, counselorID, slotID string, notes *string) (*Booking, error) {
	var booking Booking
	body := map[string]interface{}{"counselor_id": counselorID, "slot_id": slotID, "notes": notes}
	if err := c.do(ctx, http.MethodPost, "/student/bookings", body, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Ask sends prompt to the companion relay. The relay answers outside the
// response envelope.
func (c *Client) Ask(ctx context.Context, userID, prompt string) (string, error) {
	payload, err := json.Marshal(map[string]string{"prompt": prompt, "user_id": userID})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+relayPath, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &body) == nil && body.Error != "" {
			msg = body.Error
		}
		return "", &APIError{Status: resp.StatusCode, Message: msg}
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode relay response: %w", err)
	}
	return out.Text, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 400 || env.Error != nil {
		apiErr := &APIError{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
