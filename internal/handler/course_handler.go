package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type courseService interface {
	GetCoursesForTeacher(ctx context.Context, identifier string) (*dto.TeacherCoursesResponse, error)
	GetTakenSubjects(ctx context.Context, grade models.GradeLevel, section string) (*dto.TakenSubjectsResponse, error)
	ListCourses(ctx context.Context) (*dto.CourseListResponse, error)
}

// CourseHandler exposes catalog lookups.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(svc courseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// TeacherCourses godoc
// @Summary Courses assigned to a teacher
// @Description teacherKey may be the teacher key or the teacher's user id
// @Tags Courses
// @Produce json
// @Param teacherKey path string true "Teacher key or user ID"
// @Success 200 {object} response.Envelope
// @Router /teacher-courses/{teacherKey} [get]
func (h *CourseHandler) TeacherCourses(c *gin.Context) {
	res, err := h.service.GetCoursesForTeacher(c.Request.Context(), c.Param("teacherKey"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// TakenSubjects godoc
// @Summary Subjects already taught in a grade and section
// @Tags Courses
// @Produce json
// @Param grade path string true "Grade"
// @Param section path string true "Section"
// @Success 200 {object} response.Envelope
// @Router /taken-subjects/{grade}/{section} [get]
func (h *CourseHandler) TakenSubjects(c *gin.Context) {
	grade := strings.TrimSpace(c.Param("grade"))
	section := strings.TrimSpace(c.Param("section"))
	if grade == "" || section == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "grade and section are required"))
		return
	}
	res, err := h.service.GetTakenSubjects(c.Request.Context(), models.GradeLevel(grade), section)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// List godoc
// @Summary List the course catalog
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	res, err := h.service.ListCourses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
