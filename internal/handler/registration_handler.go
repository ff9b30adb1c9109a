package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/service"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type registrationService interface {
	RegisterStudent(ctx context.Context, req dto.RegisterStudentRequest) (*dto.RegistrationResponse, error)
	RegisterTeacher(ctx context.Context, req dto.RegisterTeacherRequest) (*dto.RegistrationResponse, error)
	RegisterParent(ctx context.Context, req dto.RegisterParentRequest) (*dto.RegistrationResponse, error)
	RegisterSchoolAdmin(ctx context.Context, req dto.RegisterSchoolAdminRequest, profile *service.UploadedFile) (*dto.RegistrationResponse, error)
}

// RegistrationHandler exposes the public sign-up endpoints for every role.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// RegisterStudent godoc
// @Summary Register a student
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body dto.RegisterStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /register/student [post]
func (h *RegistrationHandler) RegisterStudent(c *gin.Context) {
	var req dto.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	res, err := h.service.RegisterStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Student registered successfully", res)
}

// RegisterTeacher godoc
// @Summary Register a teacher with course assignments
// @Description Rejects duplicate courses in the submission and courses that already have a teacher.
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body dto.RegisterTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /register/teacher [post]
func (h *RegistrationHandler) RegisterTeacher(c *gin.Context) {
	var req dto.RegisterTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher payload"))
		return
	}
	res, err := h.service.RegisterTeacher(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Teacher registered successfully", res)
}

// RegisterParent godoc
// @Summary Register a parent
// @Description children accepts an array of student keys or a comma separated string.
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body dto.RegisterParentRequest true "Parent payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /register/parent [post]
func (h *RegistrationHandler) RegisterParent(c *gin.Context) {
	var req dto.RegisterParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid parent payload"))
		return
	}
	res, err := h.service.RegisterParent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Parent registered successfully", res)
}

// RegisterSchoolAdmin godoc
// @Summary Register a school admin
// @Tags Registration
// @Accept multipart/form-data
// @Produce json
// @Param username formData string true "Username"
// @Param name formData string true "Full name"
// @Param password formData string true "Password"
// @Param profile formData file false "Profile image"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /register/school-admin [post]
func (h *RegistrationHandler) RegisterSchoolAdmin(c *gin.Context) {
	var req dto.RegisterSchoolAdminRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid school admin payload"))
		return
	}
	profile, closeFile, err := formFile(c, "profile")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFile()

	res, err := h.service.RegisterSchoolAdmin(c.Request.Context(), req, profile)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "School admin registered successfully", res)
}
