package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/service"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type profileService interface {
	UploadProfileImage(ctx context.Context, userID string, file *service.UploadedFile) (string, error)
}

// ProfileHandler handles profile image uploads.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// UploadImage godoc
// @Summary Upload a profile image
// @Tags Users
// @Accept multipart/form-data
// @Produce json
// @Param userId path string true "User ID"
// @Param profileImage formData file true "Image file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /users/{userId}/profile-image [post]
func (h *ProfileHandler) UploadImage(c *gin.Context) {
	file, closeFile, err := formFile(c, "profileImage")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFile()
	if file == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "No file uploaded"))
		return
	}

	url, err := h.service.UploadProfileImage(c.Request.Context(), c.Param("userId"), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Profile image updated", gin.H{"profileImage": url})
}
