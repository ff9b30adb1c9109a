package handler

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/middleware"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type postServiceMock struct {
	created   dto.CreatePostRequest
	media     []byte
	viewerID  string
	deleteErr error
}

func (m *postServiceMock) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreatePostRequest, media *service.UploadedFile) (*dto.PostResponse, error) {
	m.created = req
	if media != nil {
		m.media, _ = io.ReadAll(media.Content)
	}
	return &dto.PostResponse{PostID: "p1", AuthorID: actor.UserID, Message: req.Text}, nil
}

func (m *postServiceMock) List(ctx context.Context, viewerID string) ([]dto.PostResponse, error) {
	m.viewerID = viewerID
	return []dto.PostResponse{{PostID: "p2"}, {PostID: "p1"}}, nil
}

func (m *postServiceMock) ListByAuthor(ctx context.Context, authorID, viewerID string) ([]dto.PostResponse, error) {
	return []dto.PostResponse{{PostID: "p1", AuthorID: authorID}}, nil
}

func (m *postServiceMock) Update(ctx context.Context, postID string, req dto.UpdatePostRequest, actor *models.JWTClaims) (*dto.PostResponse, error) {
	return &dto.PostResponse{PostID: postID, Message: req.Text, Edited: true}, nil
}

func (m *postServiceMock) Delete(ctx context.Context, postID string, actor *models.JWTClaims) error {
	return m.deleteErr
}

func (m *postServiceMock) ToggleLike(ctx context.Context, postID, userID string) (*dto.LikeResponse, error) {
	return &dto.LikeResponse{PostID: postID, Liked: true, LikeCount: 1}, nil
}

func TestPostHandlerCreateMultipart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &postServiceMock{}
	handler := NewPostHandler(svc)

	c, w := newMultipartContext(t, http.MethodPost, "/posts",
		map[string]string{"text": "Exam on Monday"},
		multipartFile{field: "post_media", filename: "board.jpg", contentType: "image/jpeg", content: []byte("jpg")},
	)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: models.RoleTeacher})
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Exam on Monday", svc.created.Text)
	assert.Equal(t, []byte("jpg"), svc.media)
}

func TestPostHandlerListUsesViewer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &postServiceMock{}
	handler := NewPostHandler(svc)

	c, w := newGinContext(http.MethodGet, "/posts", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "viewer", Role: models.RoleStudent})
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "viewer", svc.viewerID)
}

func TestPostHandlerDeleteForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPostHandler(&postServiceMock{deleteErr: appErrors.Clone(appErrors.ErrForbidden, "you can only delete your own posts")})

	c, w := newGinContext(http.MethodDelete, "/posts/p1", nil)
	c.Params = gin.Params{{Key: "postId", Value: "p1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "other", Role: models.RoleTeacher})
	handler.Delete(c)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestPostHandlerToggleLike(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPostHandler(&postServiceMock{})

	c, w := newGinContext(http.MethodPost, "/posts/p1/like", nil)
	c.Params = gin.Params{{Key: "postId", Value: "p1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-9", Role: models.RoleParent})
	handler.ToggleLike(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"postId":"p1","liked":true,"likeCount":1}`, string(mustMarshalData(t, decodeEnvelope(t, w).Data)))
}
