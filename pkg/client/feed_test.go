package client

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeedAPI struct {
	posts      []Post
	liked      map[string]bool
	likes      map[string]int
	failToggle bool
	failReply  bool
	replyCalls int
	onReply    func()
}

func newFakeFeedAPI() *fakeFeedAPI {
	return &fakeFeedAPI{
		posts: []Post{
			{ID: "p1", Title: "Exam week", LikeCount: 2, Replies: []Reply{}},
			{ID: "p2", Title: "Sleep", LikeCount: 0, Replies: []Reply{}},
		},
		liked: map[string]bool{},
		likes: map[string]int{"p1": 2},
	}
}

func (f *fakeFeedAPI) ListPosts(context.Context) ([]Post, error) {
	out := make([]Post, len(f.posts))
	copy(out, f.posts)
	return out, nil
}

func (f *fakeFeedAPI) CreateReply(_ context.Context, postID, content string, anonymous bool) (*Reply, error) {
	f.replyCalls++
	if f.onReply != nil {
		f.onReply()
	}
	if f.failReply {
		return nil, errors.New("network down")
	}
	author := "Asha"
	if anonymous {
		author = "Anonymous"
	}
	return &Reply{ID: "r-server", PostID: postID, Content: content, Author: author}, nil
}

func (f *fakeFeedAPI) ToggleReaction(_ context.Context, postID string) (*ReactionState, error) {
	if f.failToggle {
		return nil, errors.New("network down")
	}
	f.liked[postID] = !f.liked[postID]
	if f.liked[postID] {
		f.likes[postID]++
	} else {
		f.likes[postID]--
	}
	return &ReactionState{PostID: postID, Liked: f.liked[postID], LikeCount: f.likes[postID]}, nil
}

func loadedFeed(t *testing.T, api *fakeFeedAPI) *Feed {
	t.Helper()
	feed := NewFeed(api)
	feed.now = func() time.Time { return time.UnixMilli(1700000000000) }
	require.NoError(t, feed.Load(context.Background()))
	return feed
}

func post(feed *Feed, id string) Post {
	for _, p := range feed.Posts() {
		if p.ID == id {
			return p
		}
	}
	return Post{}
}

func TestFeedToggleParity(t *testing.T) {
	api := newFakeFeedAPI()
	feed := loadedFeed(t, api)

	for n := 1; n <= 5; n++ {
		res := feed.ToggleReaction(context.Background(), "p1")
		require.True(t, res.OK)
		assert.Equal(t, n%2 == 1, post(feed, "p1").LikedByMe, "after %d toggles", n)
	}
	assert.Equal(t, 3, post(feed, "p1").LikeCount)
}

func TestFeedToggleRollsBackOnFailure(t *testing.T) {
	api := newFakeFeedAPI()
	feed := loadedFeed(t, api)
	before := post(feed, "p1")

	api.failToggle = true
	res := feed.ToggleReaction(context.Background(), "p1")

	assert.False(t, res.OK)
	assert.Error(t, res.Err)
	assert.Equal(t, before, post(feed, "p1"))
}

func TestFeedToggleUnknownPost(t *testing.T) {
	feed := loadedFeed(t, newFakeFeedAPI())
	res := feed.ToggleReaction(context.Background(), "missing")
	assert.ErrorIs(t, res.Err, ErrUnknownPost)
}

func TestFeedReplyPlaceholderIsReplaced(t *testing.T) {
	api := newFakeFeedAPI()
	feed := loadedFeed(t, api)
	api.onReply = func() {
		p := post(feed, "p2")
		require.Len(t, p.Replies, 1)
		assert.True(t, strings.HasPrefix(p.Replies[0].ID, TempIDPrefix))
		assert.Equal(t, 1, p.ReplyCount)
	}

	res := feed.CreateReply(context.Background(), "p2", "you are not alone", true)

	require.True(t, res.OK)
	p := post(feed, "p2")
	require.Len(t, p.Replies, 1)
	assert.Equal(t, "r-server", p.Replies[0].ID)
	assert.Equal(t, "Anonymous", p.Replies[0].Author)
	for _, r := range p.Replies {
		assert.False(t, strings.HasPrefix(r.ID, TempIDPrefix))
	}
}

func TestFeedReplyRollsBackOnFailure(t *testing.T) {
	api := newFakeFeedAPI()
	api.failReply = true
	feed := loadedFeed(t, api)
	before := post(feed, "p1")

	res := feed.CreateReply(context.Background(), "p1", "hello", false)

	assert.False(t, res.OK)
	assert.Equal(t, before, post(feed, "p1"))
}

func TestFeedReplyRejectsBlankContent(t *testing.T) {
	api := newFakeFeedAPI()
	feed := loadedFeed(t, api)

	res := feed.CreateReply(context.Background(), "p1", "   \n\t", false)

	assert.ErrorIs(t, res.Err, ErrEmptyContent)
	assert.Zero(t, api.replyCalls)
	assert.Empty(t, post(feed, "p1").Replies)
}

// gatedReplyAPI holds each CreateReply until the test releases it by content.
type gatedReplyAPI struct {
	*fakeFeedAPI
	entered chan string
	release map[string]chan error
}

func (g *gatedReplyAPI) CreateReply(_ context.Context, postID, content string, anonymous bool) (*Reply, error) {
	g.entered <- content
	if err := <-g.release[content]; err != nil {
		return nil, err
	}
	return &Reply{ID: "srv-" + content, PostID: postID, Content: content, Author: "Asha"}, nil
}

func TestFeedOverlappingRepliesKeepEachOutcome(t *testing.T) {
	type step struct {
		content string
		err     error
	}
	cases := map[string][]step{
		"first succeeds then second fails": {{"a", nil}, {"b", errors.New("network down")}},
		"first fails then second succeeds": {{"a", errors.New("network down")}, {"b", nil}},
	}
	for name, steps := range cases {
		t.Run(name, func(t *testing.T) {
			api := &gatedReplyAPI{
				fakeFeedAPI: newFakeFeedAPI(),
				entered:     make(chan string),
				release:     map[string]chan error{"a": make(chan error), "b": make(chan error)},
			}
			feed := NewFeed(api)
			feed.now = func() time.Time { return time.UnixMilli(1700000000000) }
			require.NoError(t, feed.Load(context.Background()))

			done := map[string]chan Result{"a": make(chan Result, 1), "b": make(chan Result, 1)}
			for _, content := range []string{"a", "b"} {
				go func(content string) {
					done[content] <- feed.CreateReply(context.Background(), "p1", content, false)
				}(content)
				require.Equal(t, content, <-api.entered)
			}
			require.Len(t, post(feed, "p1").Replies, 2)
			assert.Equal(t, 2, post(feed, "p1").ReplyCount)

			var winner string
			for _, s := range steps {
				api.release[s.content] <- s.err
				res := <-done[s.content]
				assert.Equal(t, s.err == nil, res.OK)
				if s.err == nil {
					winner = "srv-" + s.content
				}
			}

			p := post(feed, "p1")
			require.Len(t, p.Replies, 1)
			assert.Equal(t, winner, p.Replies[0].ID)
			assert.Equal(t, 1, p.ReplyCount)
		})
	}
}

func TestFeedReplyAppendsWhenPlaceholderWasReloaded(t *testing.T) {
	api := newFakeFeedAPI()
	feed := loadedFeed(t, api)
	api.onReply = func() {
		require.NoError(t, feed.Load(context.Background()))
	}

	res := feed.CreateReply(context.Background(), "p2", "hang in there", false)

	require.True(t, res.OK)
	p := post(feed, "p2")
	require.Len(t, p.Replies, 1)
	assert.Equal(t, "r-server", p.Replies[0].ID)
	assert.Equal(t, 1, p.ReplyCount)
}

func TestFeedFailedToggleKeepsOverlappingToggle(t *testing.T) {
	api := newFakeFeedAPI()
	feed := loadedFeed(t, api)
	api.failToggle = true

	// A second toggle lands while the first is still in flight; the first then fails.
	var inner Result
	failing := &toggleHook{fakeFeedAPI: api, during: func() {
		api.failToggle = false
		inner = feed.ToggleReaction(context.Background(), "p1")
		api.failToggle = true
	}}
	feed.api = failing

	res := feed.ToggleReaction(context.Background(), "p1")

	assert.False(t, res.OK)
	require.True(t, inner.OK)
	p := post(feed, "p1")
	assert.True(t, p.LikedByMe)
	assert.Equal(t, 3, p.LikeCount)
}

func TestFeedFailedTogglesUndoOnlyTheirOwnFlip(t *testing.T) {
	api := newFakeFeedAPI()
	api.failToggle = true
	feed := loadedFeed(t, api)

	var inner Result
	feed.api = &toggleHook{fakeFeedAPI: api, during: func() {
		inner = feed.ToggleReaction(context.Background(), "p1")
	}}

	res := feed.ToggleReaction(context.Background(), "p1")

	assert.False(t, res.OK)
	assert.False(t, inner.OK)
	p := post(feed, "p1")
	assert.False(t, p.LikedByMe)
	assert.Equal(t, 2, p.LikeCount)
}

// toggleHook runs during once, inside the first ToggleReaction call.
type toggleHook struct {
	*fakeFeedAPI
	during func()
}

func (h *toggleHook) ToggleReaction(ctx context.Context, postID string) (*ReactionState, error) {
	if h.during != nil {
		during := h.during
		h.during = nil
		during()
	}
	return h.fakeFeedAPI.ToggleReaction(ctx, postID)
}
