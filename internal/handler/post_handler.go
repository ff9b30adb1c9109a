package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type postService interface {
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreatePostRequest, media *service.UploadedFile) (*dto.PostResponse, error)
	List(ctx context.Context, viewerID string) ([]dto.PostResponse, error)
	ListByAuthor(ctx context.Context, authorID, viewerID string) ([]dto.PostResponse, error)
	Update(ctx context.Context, postID string, req dto.UpdatePostRequest, actor *models.JWTClaims) (*dto.PostResponse, error)
	Delete(ctx context.Context, postID string, actor *models.JWTClaims) error
	ToggleLike(ctx context.Context, postID, userID string) (*dto.LikeResponse, error)
}

// PostHandler exposes the posts feed.
type PostHandler struct {
	service postService
}

// NewPostHandler constructs the handler.
func NewPostHandler(svc postService) *PostHandler {
	return &PostHandler{service: svc}
}

// List godoc
// @Summary List posts, newest first
// @Tags Posts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /posts [get]
func (h *PostHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	posts, err := h.service.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, nil)
}

// ListByAuthor godoc
// @Summary List posts written by one user
// @Tags Posts
// @Produce json
// @Param userId path string true "Author user ID"
// @Success 200 {object} response.Envelope
// @Router /posts/author/{userId} [get]
func (h *PostHandler) ListByAuthor(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	posts, err := h.service.ListByAuthor(c.Request.Context(), c.Param("userId"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, nil)
}

// Create godoc
// @Summary Publish a post
// @Description Only teachers and school admins may post. Either text or media is required.
// @Tags Posts
// @Accept multipart/form-data
// @Produce json
// @Param text formData string false "Post text"
// @Param post_media formData file false "Attached media"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /posts [post]
func (h *PostHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid post payload"))
		return
	}
	media, closeFile, err := formFile(c, "post_media")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFile()

	post, err := h.service.Create(c.Request.Context(), claims, req, media)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Post created successfully", post)
}

// Update godoc
// @Summary Edit a post
// @Tags Posts
// @Accept json
// @Produce json
// @Param postId path string true "Post ID"
// @Param payload body dto.UpdatePostRequest true "New text"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /posts/{postId} [put]
func (h *PostHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid post payload"))
		return
	}
	post, err := h.service.Update(c.Request.Context(), c.Param("postId"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Post updated successfully", post)
}

// Delete godoc
// @Summary Delete a post
// @Tags Posts
// @Produce json
// @Param postId path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /posts/{postId} [delete]
func (h *PostHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("postId"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Post deleted successfully", nil)
}

// ToggleLike godoc
// @Summary Like or unlike a post
// @Tags Posts
// @Produce json
// @Param postId path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /posts/{postId}/like [post]
func (h *PostHandler) ToggleLike(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	res, err := h.service.ToggleLike(c.Request.Context(), c.Param("postId"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
