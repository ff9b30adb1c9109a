package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/middleware"
	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type rosterService interface {
	GetCourseStudents(ctx context.Context, courseID string) (*dto.CourseStudentsResponse, bool, error)
	GetTeacherStudents(ctx context.Context, identifier string) (*dto.TeacherStudentsResponse, error)
	MoveStudent(ctx context.Context, studentID string, req dto.PlacementRequest, actorID string) (*dto.PlacementResponse, error)
}

type gradebookService interface {
	UpdateCourseMarks(ctx context.Context, courseID string, req dto.UpdateMarksRequest, actor *models.JWTClaims) (*dto.UpdateMarksResponse, error)
}

// RosterHandler serves course rosters, mark entry and student placement.
type RosterHandler struct {
	rosters   rosterService
	gradebook gradebookService
}

// NewRosterHandler constructs the handler.
func NewRosterHandler(rosters rosterService, gradebook gradebookService) *RosterHandler {
	return &RosterHandler{rosters: rosters, gradebook: gradebook}
}

// CourseStudents godoc
// @Summary Roster and marks of a course
// @Description Unknown courses return course null and an empty student list
// @Tags Gradebook
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /course-students/{courseId} [get]
func (h *RosterHandler) CourseStudents(c *gin.Context) {
	res, cacheHit, err := h.rosters.GetCourseStudents(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}

// TeacherStudents godoc
// @Summary Rosters of every course a teacher teaches
// @Tags Gradebook
// @Produce json
// @Param teacherKey path string true "Teacher key or user ID"
// @Success 200 {object} response.Envelope
// @Router /teacher-students/{teacherKey} [get]
func (h *RosterHandler) TeacherStudents(c *gin.Context) {
	res, err := h.rosters.GetTeacherStudents(c.Request.Context(), c.Param("teacherKey"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// UpdateMarks godoc
// @Summary Overwrite marks for students of a course
// @Tags Gradebook
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param payload body dto.UpdateMarksRequest true "Mark updates"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /course-update-marks/{courseId} [post]
func (h *RosterHandler) UpdateMarks(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid marks payload"))
		return
	}
	res, err := h.gradebook.UpdateCourseMarks(c.Request.Context(), c.Param("courseId"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Marks updated successfully", res)
}

// MoveStudent godoc
// @Summary Change a student's grade or section
// @Tags Students
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param payload body dto.PlacementRequest true "New placement"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{studentId}/placement [patch]
func (h *RosterHandler) MoveStudent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.PlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid placement payload"))
		return
	}
	res, err := h.rosters.MoveStudent(c.Request.Context(), c.Param("studentId"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
