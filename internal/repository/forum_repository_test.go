package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mannsetu-api/internal/models"
)

func TestToggleReactionAddsLike(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewForumRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM forum_post_reactions WHERE post_id = \\$1 AND user_id = \\$2").
		WithArgs("p1", "u1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO forum_post_reactions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM forum_post_reactions").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectCommit()

	state, err := repo.ToggleReaction(context.Background(), "p1", "u1")
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.Equal(t, 3, state.LikeCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleReactionRemovesLike(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewForumRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM forum_post_reactions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("r1"))
	mock.ExpectExec("DELETE FROM forum_post_reactions WHERE id = \\$1").WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM forum_post_reactions").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	state, err := repo.ToggleReaction(context.Background(), "p1", "u1")
	require.NoError(t, err)
	assert.False(t, state.Liked)
	assert.Equal(t, 0, state.LikeCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReplyLoadsAuthorName(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewForumRepository(db)

	mock.ExpectQuery("INSERT INTO forum_replies").
		WillReturnRows(sqlmock.NewRows([]string{"full_name"}).AddRow("Ravi"))

	reply := newReply()
	require.NoError(t, repo.CreateReply(context.Background(), &reply))
	require.NotNil(t, reply.AuthorName)
	assert.Equal(t, "Ravi", *reply.AuthorName)
	assert.NotEmpty(t, reply.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPostStatsSkipsEmptyInput(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewForumRepository(db)

	stats, err := repo.ListPostStats(context.Background(), nil, "u1")
	require.NoError(t, err)
	assert.Empty(t, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPostsResolvesAuthor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewForumRepository(db)

	mock.ExpectQuery("FROM forum_posts p\\s+JOIN forums f ON f.id = p.forum_id").
		WithArgs("i1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "forum_id", "student_id", "title", "content", "is_anonymous", "author_name", "created_at"}).
			AddRow("p1", "f1", "s1", "Exams", "Feeling tense", true, "Meera", time.Now()))

	posts, err := repo.ListPosts(context.Background(), "i1")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.True(t, posts[0].IsAnonymous)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func newReply() models.ForumReply {
	return models.ForumReply{PostID: "p1", StudentID: "s1", Content: "You are not alone"}
}
