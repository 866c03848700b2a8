package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	// ErrEmptyContent rejects blank replies before any request is made.
	ErrEmptyContent = errors.New("reply cannot be empty")
	// ErrUnknownPost means the post is not in the loaded feed.
	ErrUnknownPost = errors.New("post is not loaded")
)

// TempIDPrefix marks replies that have not been acknowledged by the server.
const TempIDPrefix = "temp-"

// Result is the outcome of an optimistic mutation. A failed Result means the
// local state was rolled back to what it was before the call.
type Result struct {
	OK  bool
	Err error
}

func succeeded() Result { return Result{OK: true} }

func failed(err error) Result { return Result{Err: err} }

type feedAPI interface {
	ListPosts(ctx context.Context) ([]Post, error)
	CreateReply(ctx context.Context, postID, content string, anonymous bool) (*Reply, error)
	ToggleReaction(ctx context.Context, postID string) (*ReactionState, error)
}

// Feed holds the peer support posts shown to a student and applies likes and
// replies optimistically.
type Feed struct {
	api feedAPI
	now func() time.Time

	mu    sync.Mutex
	posts []Post
	seq   int
	loads int
	acks  map[string]int
}

// syncMark changes whenever server state lands on the post, by reload or by an
// acknowledged toggle.
type syncMark struct{ loads, acks int }

func (f *Feed) mark(postID string) syncMark {
	return syncMark{loads: f.loads, acks: f.acks[postID]}
}

// NewFeed builds an empty feed backed by api.
func NewFeed(api feedAPI) *Feed {
	return &Feed{api: api, now: time.Now, acks: make(map[string]int)}
}

// Load replaces the feed with the server's posts. On failure the feed is left empty.
func (f *Feed) Load(ctx context.Context) error {
	posts, err := f.api.ListPosts(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if err != nil {
		f.posts = nil
		return err
	}
	f.posts = posts
	return nil
}

// Posts returns a copy of the current feed.
func (f *Feed) Posts() []Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Post, len(f.posts))
	for i, p := range f.posts {
		out[i] = p.clone()
	}
	return out
}

// ToggleReaction flips the like state locally, then asks the server. The
// server's answer wins on success. On failure only this call's flip is undone,
// and only while no newer server state has landed on the post.
func (f *Feed) ToggleReaction(ctx context.Context, postID string) Result {
	f.mu.Lock()
	idx := f.indexOf(postID)
	if idx < 0 {
		f.mu.Unlock()
		return failed(ErrUnknownPost)
	}
	start := f.mark(postID)
	post := &f.posts[idx]
	delta := 1
	if post.LikedByMe {
		delta = -1
	}
	post.LikeCount += delta
	post.LikedByMe = !post.LikedByMe
	f.mu.Unlock()

	state, err := f.api.ToggleReaction(ctx, postID)

	f.mu.Lock()
	defer f.mu.Unlock()
	idx = f.indexOf(postID)
	if err != nil {
		if idx >= 0 && f.mark(postID) == start {
			f.posts[idx].LikeCount -= delta
			f.posts[idx].LikedByMe = !f.posts[idx].LikedByMe
		}
		return failed(err)
	}
	f.acks[postID]++
	if idx >= 0 {
		f.posts[idx].LikedByMe = state.Liked
		f.posts[idx].LikeCount = state.LikeCount
	}
	return succeeded()
}

// CreateReply appends a placeholder reply at once and swaps it for the
// server's reply when the call returns. A failed call removes only its own
// placeholder. Blank content is rejected without a request.
func (f *Feed) CreateReply(ctx context.Context, postID, content string, anonymous bool) Result {
	if strings.TrimSpace(content) == "" {
		return failed(ErrEmptyContent)
	}

	f.mu.Lock()
	idx := f.indexOf(postID)
	if idx < 0 {
		f.mu.Unlock()
		return failed(ErrUnknownPost)
	}
	f.seq++
	tempID := fmt.Sprintf("%s%d-%d", TempIDPrefix, f.now().UnixMilli(), f.seq)
	post := &f.posts[idx]
	post.Replies = append(post.Replies, Reply{
		ID:          tempID,
		PostID:      postID,
		Content:     content,
		IsAnonymous: anonymous,
		Author:      "You",
		CreatedAt:   f.now(),
	})
	post.ReplyCount++
	f.mu.Unlock()

	reply, err := f.api.CreateReply(ctx, postID, content, anonymous)

	f.mu.Lock()
	defer f.mu.Unlock()
	idx = f.indexOf(postID)
	if idx < 0 {
		if err != nil {
			return failed(err)
		}
		return succeeded()
	}
	post = &f.posts[idx]
	pos := replyIndex(post.Replies, tempID)
	if err != nil {
		if pos >= 0 {
			post.Replies = append(post.Replies[:pos], post.Replies[pos+1:]...)
			post.ReplyCount--
		}
		return failed(err)
	}
	switch {
	case pos >= 0:
		post.Replies[pos] = *reply
	case replyIndex(post.Replies, reply.ID) < 0:
		// The placeholder vanished, most likely in a reload that predates the reply.
		post.Replies = append(post.Replies, *reply)
		post.ReplyCount++
	}
	return succeeded()
}

func replyIndex(replies []Reply, id string) int {
	for i := range replies {
		if replies[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *Feed) indexOf(postID string) int {
	for i := range f.posts {
		if f.posts[i].ID == postID {
			return i
		}
	}
	return -1
}
