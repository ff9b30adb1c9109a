package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	"github.com/noah-isme/school-portal-api/pkg/docstore"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

// faultyStore fails SetIfAbsent for paths under failPrefix.
type faultyStore struct {
	docstore.Store
	failPrefix string
}

func (s *faultyStore) SetIfAbsent(ctx context.Context, path string, value interface{}) (bool, error) {
	if s.failPrefix != "" && strings.HasPrefix(path, s.failPrefix) {
		return false, errors.New("write refused")
	}
	return s.Store.SetIfAbsent(ctx, path, value)
}

type testEnv struct {
	store        docstore.Store
	users        *repository.UserRepository
	students     *repository.StudentRepository
	teachers     *repository.TeacherRepository
	parents      *repository.ParentRepository
	admins       *repository.SchoolAdminRepository
	courses      *repository.CourseRepository
	claims       *repository.CourseClaimRepository
	assignments  *repository.TeacherAssignmentRepository
	marks        *repository.ClassMarkRepository
	posts        *repository.PostRepository
	audit        *repository.AuditRepository
	registration *RegistrationService
	catalog      *CourseService
	roster       *RosterService
	gradebook    *GradebookService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, docstore.NewMemory())
}

func newTestEnvWithStore(t *testing.T, store docstore.Store) *testEnv {
	t.Helper()
	env := &testEnv{
		store:       store,
		users:       repository.NewUserRepository(store),
		students:    repository.NewStudentRepository(store),
		teachers:    repository.NewTeacherRepository(store),
		parents:     repository.NewParentRepository(store),
		admins:      repository.NewSchoolAdminRepository(store),
		courses:     repository.NewCourseRepository(store),
		claims:      repository.NewCourseClaimRepository(store),
		assignments: repository.NewTeacherAssignmentRepository(store),
		marks:       repository.NewClassMarkRepository(store),
		posts:       repository.NewPostRepository(store),
		audit:       repository.NewAuditRepository(store),
	}
	env.registration = NewRegistrationService(RegistrationRepositories{
		Users:        env.users,
		Students:     env.students,
		Teachers:     env.teachers,
		Parents:      env.parents,
		SchoolAdmins: env.admins,
		Courses:      env.courses,
		Claims:       env.claims,
		Assignments:  env.assignments,
		Audit:        env.audit,
	}, nil, nil, zap.NewNop(), RegistrationConfig{BcryptCost: bcrypt.MinCost, DefaultAcademicYear: "2024_2025"})
	env.catalog = NewCourseService(env.courses, env.assignments, env.teachers, env.users, zap.NewNop())
	env.roster = NewRosterService(env.courses, env.students, env.users, env.marks, env.catalog, nil, env.audit, nil, zap.NewNop())
	env.gradebook = NewGradebookService(env.courses, env.marks, env.catalog, nil, env.audit, nil, zap.NewNop())
	return env
}

func (e *testEnv) registerTeacher(t *testing.T, username string, courses ...dto.CourseInput) *dto.RegistrationResponse {
	t.Helper()
	resp, err := e.registration.RegisterTeacher(context.Background(), dto.RegisterTeacherRequest{
		Username: username,
		Name:     strings.ToUpper(username[:1]) + username[1:],
		Password: "secret1",
		Courses:  courses,
	})
	require.NoError(t, err)
	return resp
}

func (e *testEnv) registerStudent(t *testing.T, username string, grade models.GradeLevel, section string) *dto.RegistrationResponse {
	t.Helper()
	resp, err := e.registration.RegisterStudent(context.Background(), dto.RegisterStudentRequest{
		Username: username,
		Name:     "Student " + username,
		Password: "secret1",
		Grade:    grade,
		Section:  section,
	})
	require.NoError(t, err)
	return resp
}

func (e *testEnv) collectionSize(t *testing.T, collection string) int {
	t.Helper()
	rows := map[string]interface{}{}
	_, err := e.store.Get(context.Background(), collection, &rows)
	require.NoError(t, err)
	return len(rows)
}

func course(subject string, grade models.GradeLevel, section string) dto.CourseInput {
	return dto.CourseInput{Subject: subject, Grade: grade, Section: section}
}

func teacherClaims(reg *dto.RegistrationResponse) *models.JWTClaims {
	return &models.JWTClaims{UserID: reg.UserID, Role: models.RoleTeacher, ProfileKey: reg.TeacherKey}
}

func adminClaims(userID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleSchoolAdmin}
}

func appErrorCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected *errors.Error, got %T", err)
	return appErr.Code
}

func ptrTime(ts time.Time) *time.Time {
	return &ts
}
