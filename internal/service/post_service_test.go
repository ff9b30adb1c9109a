package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

func newPostServiceForTest(t *testing.T) (*testEnv, *PostService, *uploaderStub) {
	t.Helper()
	env := newTestEnv(t)
	blobs := &uploaderStub{}
	return env, NewPostService(env.posts, env.users, blobs, env.audit, nil, zap.NewNop()), blobs
}

func TestPostCreateAndList(t *testing.T) {
	env, svc, blobs := newPostServiceForTest(t)
	ctx := context.Background()
	teacher := env.registerTeacher(t, "t1")
	author := teacherClaims(teacher)

	first, err := svc.Create(ctx, author, dto.CreatePostRequest{Text: " hello "}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", first.Message)
	assert.Equal(t, "T1", first.AuthorName)
	assert.Equal(t, 0, blobs.calls)

	second, err := svc.Create(ctx, author, dto.CreatePostRequest{}, &UploadedFile{Filename: "p.png", ContentType: "image/png", Content: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Equal(t, postMediaFolder, blobs.folder)
	assert.Equal(t, "http://files.local/post_media/p.png", second.MediaURL)

	posts, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.PostID, posts[0].PostID)
	assert.Equal(t, first.PostID, posts[1].PostID)

	byAuthor, err := svc.ListByAuthor(ctx, teacher.UserID, "")
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)
	none, err := svc.ListByAuthor(ctx, "someone-else", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPostCreateRules(t *testing.T) {
	_, svc, _ := newPostServiceForTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &models.JWTClaims{UserID: "s", Role: models.RoleStudent}, dto.CreatePostRequest{Text: "hi"}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrorCode(t, err))

	_, err = svc.Create(ctx, adminClaims("a"), dto.CreatePostRequest{Text: "   "}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrorCode(t, err))
}

func TestPostEditAndDeleteRequireAuthor(t *testing.T) {
	env, svc, _ := newPostServiceForTest(t)
	ctx := context.Background()
	author := adminClaims("admin-1")
	stranger := adminClaims("admin-2")

	post, err := svc.Create(ctx, author, dto.CreatePostRequest{Text: "draft"}, nil)
	require.NoError(t, err)

	_, err = svc.Update(ctx, post.PostID, dto.UpdatePostRequest{Text: "hijack"}, stranger)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrorCode(t, err))

	edited, err := svc.Update(ctx, post.PostID, dto.UpdatePostRequest{Text: "final"}, author)
	require.NoError(t, err)
	assert.Equal(t, "final", edited.Message)
	assert.True(t, edited.Edited)
	assert.NotNil(t, edited.UpdatedAt)

	_, err = svc.Update(ctx, "missing", dto.UpdatePostRequest{Text: "x"}, author)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrorCode(t, err))

	err = svc.Delete(ctx, post.PostID, stranger)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrorCode(t, err))

	require.NoError(t, svc.Delete(ctx, post.PostID, author))
	_, err = env.posts.FindByID(ctx, post.PostID)
	assert.Error(t, err)

	err = svc.Delete(ctx, post.PostID, author)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrorCode(t, err))
}

func TestPostToggleLike(t *testing.T) {
	_, svc, _ := newPostServiceForTest(t)
	ctx := context.Background()
	post, err := svc.Create(ctx, adminClaims("admin-1"), dto.CreatePostRequest{Text: "news"}, nil)
	require.NoError(t, err)

	like, err := svc.ToggleLike(ctx, post.PostID, "u1")
	require.NoError(t, err)
	assert.Equal(t, &dto.LikeResponse{PostID: post.PostID, Liked: true, LikeCount: 1}, like)

	like, err = svc.ToggleLike(ctx, post.PostID, "u2")
	require.NoError(t, err)
	assert.Equal(t, 2, like.LikeCount)

	posts, err := svc.List(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.True(t, posts[0].LikedByMe)

	like, err = svc.ToggleLike(ctx, post.PostID, "u1")
	require.NoError(t, err)
	assert.False(t, like.Liked)
	assert.Equal(t, 1, like.LikeCount)

	_, err = svc.ToggleLike(ctx, "missing", "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrorCode(t, err))
}
