package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/models"
)

type fakeForums struct {
	forums  map[string]models.Forum
	posts   []models.ForumPost
	owners  map[string]string
	stats   []models.PostStats
	replies []models.ForumReply
	created []*models.ForumReply
	toggled []string
	calls   int
}

func (f *fakeForums) ListForums(ctx context.Context, instituteID string) ([]models.Forum, error) {
	f.calls++
	var out []models.Forum
	for _, forum := range f.forums {
		if forum.InstituteID == instituteID {
			out = append(out, forum)
		}
	}
	return out, nil
}

func (f *fakeForums) FindForum(ctx context.Context, id string) (*models.Forum, error) {
	f.calls++
	forum, ok := f.forums[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &forum, nil
}

func (f *fakeForums) ListPosts(ctx context.Context, instituteID string) ([]models.ForumPost, error) {
	f.calls++
	return f.posts, nil
}

func (f *fakeForums) FindPost(ctx context.Context, id string) (*models.ForumPost, string, error) {
	f.calls++
	owner, ok := f.owners[id]
	if !ok {
		return nil, "", sql.ErrNoRows
	}
	return &models.ForumPost{ID: id}, owner, nil
}

func (f *fakeForums) ListPostStats(ctx context.Context, postIDs []string, userID string) ([]models.PostStats, error) {
	f.calls++
	return f.stats, nil
}

func (f *fakeForums) ListReplies(ctx context.Context, postIDs []string) ([]models.ForumReply, error) {
	f.calls++
	return f.replies, nil
}

func (f *fakeForums) CreatePost(ctx context.Context, post *models.ForumPost) error {
	f.calls++
	post.ID = "post-new"
	name := "Priya"
	post.AuthorName = &name
	return nil
}

func (f *fakeForums) CreateReply(ctx context.Context, reply *models.ForumReply) error {
	f.calls++
	reply.ID = "reply-new"
	name := "Priya"
	reply.AuthorName = &name
	f.created = append(f.created, reply)
	return nil
}

func (f *fakeForums) ToggleReaction(ctx context.Context, postID, userID string) (*models.ReactionState, error) {
	f.calls++
	f.toggled = append(f.toggled, postID)
	return &models.ReactionState{PostID: postID, Liked: true, LikeCount: 1}, nil
}

func newPeerFixture() (*PeerSupportService, *fakeForums, *fakeIdentity) {
	forums := &fakeForums{
		forums: map[string]models.Forum{
			"f1": {ID: "f1", InstituteID: "inst-1", Title: "Exam stress"},
			"f2": {ID: "f2", InstituteID: "inst-2", Title: "Elsewhere"},
		},
		owners: map[string]string{"p1": "inst-1", "p2": "inst-1", "p9": "inst-2"},
	}
	identity := &fakeIdentity{student: &models.Student{ID: "s1", InstituteID: "inst-1"}}
	return NewPeerSupportService(identity, forums, nil, nil), forums, identity
}

func strPtr(v string) *string { return &v }

func TestListPostsAnnotatesViews(t *testing.T) {
	svc, forums, _ := newPeerFixture()
	forums.posts = []models.ForumPost{
		{ID: "p2", Title: "Second", IsAnonymous: true, AuthorName: strPtr("Hidden")},
		{ID: "p1", Title: "First", AuthorName: strPtr("Arjun")},
	}
	forums.stats = []models.PostStats{{PostID: "p1", LikeCount: 3, LikedByMe: true}}
	forums.replies = []models.ForumReply{
		{ID: "r1", PostID: "p1", Content: "same here", AuthorName: strPtr("Meera")},
		{ID: "r2", PostID: "p1", Content: "hugs", IsAnonymous: true, AuthorName: strPtr("Kabir")},
	}

	views, err := svc.ListPosts(context.Background(), studentClaims())
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "p2", views[0].ID)
	assert.Equal(t, models.AnonymousAuthor, views[0].Author)
	assert.Zero(t, views[0].LikeCount)
	assert.Empty(t, views[0].Replies)
	assert.NotNil(t, views[0].Replies)

	assert.Equal(t, "Arjun", views[1].Author)
	assert.Equal(t, 3, views[1].LikeCount)
	assert.True(t, views[1].LikedByMe)
	assert.Equal(t, 2, views[1].ReplyCount)
	assert.Equal(t, "Meera", views[1].Replies[0].Author)
	assert.Equal(t, models.AnonymousAuthor, views[1].Replies[1].Author)
}

func TestListPostsEmpty(t *testing.T) {
	svc, forums, _ := newPeerFixture()

	views, err := svc.ListPosts(context.Background(), studentClaims())
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Equal(t, 1, forums.calls)
}

func TestCreateReplyRejectsBlankBeforeIO(t *testing.T) {
	svc, forums, identity := newPeerFixture()

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := svc.CreateReply(context.Background(), studentClaims(), "p1", dto.CreateReplyRequest{Content: content})
		requireAppError(t, err, "VALIDATION_ERROR")
	}
	assert.Zero(t, forums.calls)
	assert.Zero(t, identity.calls)
}

func TestCreateReplyResolvesAuthor(t *testing.T) {
	svc, forums, _ := newPeerFixture()

	reply, err := svc.CreateReply(context.Background(), studentClaims(), "p1", dto.CreateReplyRequest{Content: "  you are not alone  "})
	require.NoError(t, err)
	assert.Equal(t, "reply-new", reply.ID)
	assert.Equal(t, "Priya", reply.Author)
	assert.Equal(t, "you are not alone", forums.created[0].Content)

	anon, err := svc.CreateReply(context.Background(), studentClaims(), "p1", dto.CreateReplyRequest{Content: "hi", IsAnonymous: true})
	require.NoError(t, err)
	assert.Equal(t, models.AnonymousAuthor, anon.Author)
}

func TestPostsOfOtherInstitutesAreHidden(t *testing.T) {
	svc, forums, _ := newPeerFixture()

	_, err := svc.CreateReply(context.Background(), studentClaims(), "p9", dto.CreateReplyRequest{Content: "hello"})
	requireAppError(t, err, "NOT_FOUND")

	_, err = svc.ToggleReaction(context.Background(), studentClaims(), "p9")
	requireAppError(t, err, "NOT_FOUND")

	_, err = svc.CreatePost(context.Background(), studentClaims(), dto.CreatePostRequest{ForumID: "f2", Title: "t", Content: "c"})
	requireAppError(t, err, "NOT_FOUND")

	assert.Empty(t, forums.toggled)
	assert.Empty(t, forums.created)
}

func TestToggleReaction(t *testing.T) {
	svc, forums, _ := newPeerFixture()

	state, err := svc.ToggleReaction(context.Background(), studentClaims(), "p1")
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.Equal(t, []string{"p1"}, forums.toggled)
}

func TestCreatePost(t *testing.T) {
	svc, _, _ := newPeerFixture()

	post, err := svc.CreatePost(context.Background(), studentClaims(), dto.CreatePostRequest{ForumID: "f1", Title: " Finals ", Content: "Anyone else?", IsAnonymous: true})
	require.NoError(t, err)
	assert.Equal(t, "post-new", post.ID)
	assert.Equal(t, "Finals", post.Title)
	assert.Equal(t, models.AnonymousAuthor, post.Author)
	assert.Equal(t, "s1", post.StudentID)
}
