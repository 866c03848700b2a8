package client

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	SenderUser  = "user"
	SenderBot   = "bot"
	SenderVoice = "voice"
)

// Message is one line of the companion conversation.
type Message struct {
	Sender   string
	Text     string
	At       time.Time
	Fallback bool
}

// VoiceBridge is a real-time voice call provider. Transcripts it produces are
// delivered through the OnMessage callback.
type VoiceBridge interface {
	Start(ctx context.Context) error
	Stop() error
	OnMessage(func(text string))
}

type relayAPI interface {
	Ask(ctx context.Context, userID, prompt string) (string, error)
}

// Companion is the chat companion view model.
type Companion struct {
	api    relayAPI
	userID string
	now    func() time.Time

	mu       sync.Mutex
	messages []Message
	voice    VoiceBridge
}

// NewCompanion builds a conversation for userID.
func NewCompanion(api relayAPI, userID string) *Companion {
	return &Companion{api: api, userID: userID, now: time.Now}
}

// Send records text, asks the relay and records the answer. When the relay
// fails the reply is a canned suggestion picked from the text. Blank input
// returns ErrEmptyContent without a request.
func (c *Companion) Send(ctx context.Context, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyContent
	}
	c.append(Message{Sender: SenderUser, Text: text, At: c.now()})

	reply := Message{Sender: SenderBot}
	answer, err := c.api.Ask(ctx, c.userID, text)
	if err != nil {
		reply.Text = FallbackReply(text)
		reply.Fallback = true
	} else {
		reply.Text = strings.ReplaceAll(answer, "*", "")
	}
	reply.At = c.now()
	c.append(reply)
	return reply, nil
}

// Messages returns the conversation so far.
func (c *Companion) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// StartVoice starts a voice call on bridge; its transcripts join the conversation.
func (c *Companion) StartVoice(ctx context.Context, bridge VoiceBridge) error {
	bridge.OnMessage(func(text string) {
		c.append(Message{Sender: SenderVoice, Text: text, At: c.now()})
	})
	if err := bridge.Start(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.voice = bridge
	c.mu.Unlock()
	return nil
}

// StopVoice ends the active voice call, if any.
func (c *Companion) StopVoice() error {
	c.mu.Lock()
	bridge := c.voice
	c.voice = nil
	c.mu.Unlock()
	if bridge == nil {
		return nil
	}
	return bridge.Stop()
}

func (c *Companion) append(m Message) {
	c.mu.Lock()
	c.messages = append(c.messages, m)
	c.mu.Unlock()
}

// FallbackReply is the offline answer for message.
func FallbackReply(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "anxious") || strings.Contains(lower, "anxiety"):
		return "I understand you're feeling anxious. Try the 4-7-8 breathing technique or the 5-4-3-2-1 grounding method. Would you like me to guide you?"
	case strings.Contains(lower, "stress"):
		return "Stress is common. Try Pomodoro technique, mindfulness, or light exercise. What aspect of stress would you like to work on?"
	case strings.Contains(lower, "sleep") || strings.Contains(lower, "insomnia"):
		return "Good sleep is vital. Try a bedtime routine, no screens before bed, and a calm environment. Want me to help you make a schedule?"
	default:
		return "Thank you for sharing. Would you like to try a mindfulness exercise, learn stress management, or connect with a counselor?"
	}
}
