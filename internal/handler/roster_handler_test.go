package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/middleware"
	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type rosterServiceMock struct {
	course    *dto.CourseStudentsResponse
	cacheHit  bool
	placement dto.PlacementRequest
	actorID   string
	moveErr   error
}

func (m *rosterServiceMock) GetCourseStudents(ctx context.Context, courseID string) (*dto.CourseStudentsResponse, bool, error) {
	if m.course == nil {
		return &dto.CourseStudentsResponse{Students: []dto.RosterStudent{}}, false, nil
	}
	return m.course, m.cacheHit, nil
}

func (m *rosterServiceMock) GetTeacherStudents(ctx context.Context, identifier string) (*dto.TeacherStudentsResponse, error) {
	return &dto.TeacherStudentsResponse{Courses: []dto.TeacherStudentsGroup{}}, nil
}

func (m *rosterServiceMock) MoveStudent(ctx context.Context, studentID string, req dto.PlacementRequest, actorID string) (*dto.PlacementResponse, error) {
	m.placement = req
	m.actorID = actorID
	if m.moveErr != nil {
		return nil, m.moveErr
	}
	return &dto.PlacementResponse{StudentID: studentID, Grade: "6", Section: "B"}, nil
}

type gradebookServiceMock struct {
	courseID string
	req      dto.UpdateMarksRequest
	actor    *models.JWTClaims
	err      error
}

func (m *gradebookServiceMock) UpdateCourseMarks(ctx context.Context, courseID string, req dto.UpdateMarksRequest, actor *models.JWTClaims) (*dto.UpdateMarksResponse, error) {
	m.courseID, m.req, m.actor = courseID, req, actor
	if m.err != nil {
		return nil, m.err
	}
	return &dto.UpdateMarksResponse{CourseID: courseID, Updated: len(req.Updates)}, nil
}

func TestRosterHandlerCourseStudentsReportsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &rosterServiceMock{
		course: &dto.CourseStudentsResponse{
			Course:   &dto.CourseDescriptor{Subject: "Math", Grade: "5", Section: "A"},
			Students: []dto.RosterStudent{{StudentID: "s1", Name: "Ana"}},
		},
		cacheHit: true,
	}
	handler := NewRosterHandler(svc, &gradebookServiceMock{})

	c, w := newGinContext(http.MethodGet, "/course-students/course_math_5A", nil)
	c.Params = gin.Params{{Key: "courseId", Value: "course_math_5A"}}
	handler.CourseStudents(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
}

func TestRosterHandlerUnknownCourseIsNotAnError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRosterHandler(&rosterServiceMock{}, &gradebookServiceMock{})

	c, w := newGinContext(http.MethodGet, "/course-students/nope", nil)
	c.Params = gin.Params{{Key: "courseId", Value: "nope"}}
	handler.CourseStudents(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"course":null,"students":[]}`, string(mustMarshalData(t, decodeEnvelope(t, w).Data)))
}

func TestRosterHandlerUpdateMarks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	marks := &gradebookServiceMock{}
	handler := NewRosterHandler(&rosterServiceMock{}, marks)

	c, w := newGinContext(http.MethodPost, "/course-update-marks/course_math_5A",
		[]byte(`{"updates":[{"studentId":"s1","marks":{"mark20":18,"mark50":40}}]}`))
	c.Params = gin.Params{{Key: "courseId", Value: "course_math_5A"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: models.RoleTeacher, ProfileKey: "t-1"})
	handler.UpdateMarks(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "course_math_5A", marks.courseID)
	require.Len(t, marks.req.Updates, 1)
	assert.Equal(t, float64(18), marks.req.Updates[0].Marks.Mark20)
	assert.Zero(t, marks.req.Updates[0].Marks.Mark30)
	assert.Equal(t, "t-1", marks.actor.ProfileKey)
}

func TestRosterHandlerUpdateMarksRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRosterHandler(&rosterServiceMock{}, &gradebookServiceMock{})

	c, w := newGinContext(http.MethodPost, "/course-update-marks/c", []byte(`{"updates":[]}`))
	handler.UpdateMarks(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRosterHandlerUpdateMarksForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRosterHandler(&rosterServiceMock{}, &gradebookServiceMock{err: appErrors.Clone(appErrors.ErrForbidden, "course is not assigned to you")})

	c, w := newGinContext(http.MethodPost, "/course-update-marks/c", []byte(`{"updates":[{"studentId":"s1","marks":{}}]}`))
	c.Params = gin.Params{{Key: "courseId", Value: "c"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-2", Role: models.RoleTeacher})
	handler.UpdateMarks(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "course is not assigned to you", decodeEnvelope(t, w).Message)
}

func TestRosterHandlerMoveStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &rosterServiceMock{}
	handler := NewRosterHandler(svc, &gradebookServiceMock{})

	c, w := newGinContext(http.MethodPatch, "/students/s1/placement", []byte(`{"grade":"6","section":"B"}`))
	c.Params = gin.Params{{Key: "studentId", Value: "s1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleSchoolAdmin})
	handler.MoveStudent(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.placement.Grade)
	assert.Equal(t, models.GradeLevel("6"), *svc.placement.Grade)
	assert.Equal(t, "admin-1", svc.actorID)
}
