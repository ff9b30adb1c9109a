package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

// tokenStub accepts tokens of the form "<role>:<userId>".
type tokenStub struct{}

func (tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	role, userID, ok := strings.Cut(token, ":")
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return &models.JWTClaims{UserID: userID, Role: models.UserRole(role), ProfileKey: userID}, nil
}

type authServiceMock struct{}

func (authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if req.Password != "secret1" {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "incorrect password")
	}
	return &models.LoginResponse{AccessToken: "teacher:u-1"}, nil
}

type courseServiceMock struct{}

func (courseServiceMock) GetCoursesForTeacher(ctx context.Context, identifier string) (*dto.TeacherCoursesResponse, error) {
	return &dto.TeacherCoursesResponse{Courses: []dto.TeacherCourse{}}, nil
}

func (courseServiceMock) GetTakenSubjects(ctx context.Context, grade models.GradeLevel, section string) (*dto.TakenSubjectsResponse, error) {
	return &dto.TakenSubjectsResponse{TakenSubjects: []string{"Math"}}, nil
}

func (courseServiceMock) ListCourses(ctx context.Context) (*dto.CourseListResponse, error) {
	return &dto.CourseListResponse{Courses: []dto.CourseSummary{}}, nil
}

type profileServiceMock struct{}

func (profileServiceMock) UploadProfileImage(ctx context.Context, userID string, file *service.UploadedFile) (string, error) {
	return "http://files/profile_images/" + userID + ".png", nil
}

type auditRecorder struct {
	actions []string
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.actions = append(a.actions, log.Action)
	return nil
}

func buildAPIRouter(exports exportJobService, audit *auditRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := Handlers{
		Registration: NewRegistrationHandler(&registrationServiceMock{}),
		Auth:         NewAuthHandler(authServiceMock{}),
		Profile:      NewProfileHandler(profileServiceMock{}),
		Courses:      NewCourseHandler(courseServiceMock{}),
		Rosters:      NewRosterHandler(&rosterServiceMock{}, &gradebookServiceMock{}),
		Posts:        NewPostHandler(&postServiceMock{}),
	}
	if exports != nil {
		handlers.Exports = NewExportHandler(exports)
	}
	RegisterRoutes(router.Group("/api/v1"), handlers, RouteConfig{Tokens: tokenStub{}, Audit: audit, Logger: zap.NewNop()})
	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func authorized(req *http.Request, role models.UserRole, userID string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+string(role)+":"+userID)
	return req
}

func TestRouterAccessControl(t *testing.T) {
	router := buildAPIRouter(nil, &auditRecorder{})

	t.Run("public registration alias", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/register-teacher", bytes.NewBufferString(`{"username":"t1","name":"T1","password":"secret1","courses":[]}`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusCreated, resp.Code)
	})

	t.Run("public taken subjects", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/taken-subjects/5/A", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"takenSubjects":["Math"]`)
	})

	t.Run("login failure message", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"username":"t1","password":"nope"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Contains(t, resp.Body.String(), "incorrect password")
	})

	t.Run("courses require a token", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/courses", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("me echoes claims", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		resp := performRequest(router, authorized(req, models.RoleParent, "p-1"))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"userId":"p-1"`)
	})

	t.Run("students cannot write marks", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/course-update-marks/course_math_5A", bytes.NewBufferString(`{"updates":[]}`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, authorized(req, models.RoleStudent, "s-1"))
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("placement is admin only", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPatch, "/api/v1/students/s1/placement", bytes.NewBufferString(`{"section":"B"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, authorized(req, models.RoleTeacher, "u-1"))
		require.Equal(t, http.StatusForbidden, resp.Code)

		req, _ = http.NewRequest(http.MethodPatch, "/api/v1/students/s1/placement", bytes.NewBufferString(`{"section":"B"}`))
		req.Header.Set("Content-Type", "application/json")
		resp = performRequest(router, authorized(req, models.RoleSchoolAdmin, "a-1"))
		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("profile image for self only", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/users/u-2/profile-image", nil)
		resp := performRequest(router, authorized(req, models.RoleStudent, "u-1"))
		require.Equal(t, http.StatusForbidden, resp.Code)

		req, _ = http.NewRequest(http.MethodPost, "/api/v1/users/u-1/profile-image", nil)
		resp = performRequest(router, authorized(req, models.RoleStudent, "u-1"))
		require.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "No file uploaded")
	})

	t.Run("parents cannot post", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/posts", bytes.NewBufferString(`{"text":"hi"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, authorized(req, models.RoleParent, "p-1"))
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("exports absent when disabled", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/exports/job-1", nil)
		resp := performRequest(router, authorized(req, models.RoleSchoolAdmin, "a-1"))
		require.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestRouterAuditsExportDownloads(t *testing.T) {
	audit := &auditRecorder{}
	router := buildAPIRouter(&exportServiceMock{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")}, audit)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/exports/download/bad-token", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusForbidden, resp.Code)
	assert.Empty(t, audit.actions)

	req, _ = http.NewRequest(http.MethodGet, "/api/v1/exports/job-1", nil)
	resp = performRequest(router, authorized(req, models.RoleSchoolAdmin, "a-1"))
	require.Equal(t, http.StatusNotFound, resp.Code)

	path := filepath.Join(t.TempDir(), "gradebook.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)
	router = buildAPIRouter(&exportServiceMock{download: &service.ExportDownload{File: file, Filename: "gradebook.pdf", Format: models.ExportFormatPDF}}, audit)

	req, _ = http.NewRequest(http.MethodGet, "/api/v1/exports/download/good-token", nil)
	resp = performRequest(router, authorized(req, models.RoleTeacher, "u-1"))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
	assert.Equal(t, []string{models.AuditActionExportDownload}, audit.actions)
}

func TestMetricsHandlerReadiness(t *testing.T) {
	gin.SetMode(gin.TestMode)

	healthy := NewMetricsHandler(service.NewMetricsService(), nil)
	c, w := newGinContext(http.MethodGet, "/health", nil)
	healthy.Health(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"goroutines"`)

	failing := NewMetricsHandler(nil, func(ctx context.Context) error { return errors.New("store offline") })
	c, w = newGinContext(http.MethodGet, "/ready", nil)
	failing.Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "store offline")
}
