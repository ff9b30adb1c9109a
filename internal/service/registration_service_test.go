package service

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	"github.com/noah-isme/school-portal-api/pkg/docstore"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type uploaderStub struct {
	folder string
	calls  int
}

func (u *uploaderStub) Upload(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error) {
	u.folder = folder
	u.calls++
	return "http://files.local/" + folder + "/" + filename, nil
}

func TestRegisterTeacherCreatesCoursesAndAssignments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp := env.registerTeacher(t, "t1", course("Math", "5", "A"), course("Physics", "5", "a"), course("Math", "6", "B"))
	require.NotEmpty(t, resp.TeacherKey)
	assert.Equal(t, resp.TeacherKey, resp.ProfileKey)
	assert.ElementsMatch(t, []string{"course_math_5A", "course_physics_5A", "course_math_6B"}, resp.CourseIDs)

	assert.Equal(t, 3, env.collectionSize(t, repository.CollectionCourses))
	assignments, err := env.assignments.List(ctx)
	require.NoError(t, err)
	require.Len(t, assignments, 3)
	for _, a := range assignments {
		assert.Equal(t, resp.TeacherKey, a.TeacherID)
	}

	user, err := env.users.FindByUsername(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, user.Role)
	assert.True(t, user.IsActive)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
}

func TestRegisterTeacherReusesExistingCourseRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created, err := env.courses.CreateIfAbsent(ctx, &models.Course{ID: "course_math_5A", Name: "Math", Subject: "Math", Grade: "5", Section: "A"})
	require.NoError(t, err)
	require.True(t, created)

	env.registerTeacher(t, "t1", course("math", "5", "a"))
	assert.Equal(t, 1, env.collectionSize(t, repository.CollectionCourses))
	assert.Equal(t, 1, env.collectionSize(t, repository.CollectionTeacherAssignments))
}

func TestRegisterTeacherRejectsDuplicateInSubmissionBeforeWriting(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.registration.RegisterTeacher(context.Background(), dto.RegisterTeacherRequest{
		Username: "t1",
		Name:     "T One",
		Password: "secret1",
		Courses:  []dto.CourseInput{course("Math", "5", "A"), course("Biology", "5", "A"), course("MATH", "5", "a")},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateCourse.Code, appErrorCode(t, err))
	assert.Contains(t, err.Error(), "Duplicate course in submission: MATH grade 5 section A")

	for _, collection := range []string{repository.CollectionUsers, repository.CollectionTeachers, repository.CollectionCourses, repository.CollectionTeacherAssignments} {
		assert.Zero(t, env.collectionSize(t, collection), collection)
	}
}

func TestRegisterTeacherRejectsAssignedCourseCaseInsensitively(t *testing.T) {
	env := newTestEnv(t)
	env.registerTeacher(t, "t1", course("Math", "5", "A"))

	_, err := env.registration.RegisterTeacher(context.Background(), dto.RegisterTeacherRequest{
		Username: "t2",
		Name:     "T Two",
		Password: "secret1",
		Courses:  []dto.CourseInput{course("Art", "5", "A"), course("math", "5", "a")},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCourseAssigned.Code, appErrorCode(t, err))
	assert.Contains(t, err.Error(), "math grade 5 section A already has a teacher")

	assert.Equal(t, 1, env.collectionSize(t, repository.CollectionUsers))
	assert.Equal(t, 1, env.collectionSize(t, repository.CollectionCourses))
}

func TestRegisterTeacherSecondTeacherForSameCourseFails(t *testing.T) {
	env := newTestEnv(t)
	env.registerTeacher(t, "t1", course("Math", "5", "A"))

	_, err := env.registration.RegisterTeacher(context.Background(), dto.RegisterTeacherRequest{
		Username: "t2",
		Name:     "T Two",
		Password: "secret1",
		Courses:  []dto.CourseInput{course("Math", "5", "A")},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCourseAssigned.Code, appErrorCode(t, err))
	assert.Contains(t, err.Error(), "Math grade 5 section A")
	assert.Equal(t, 1, env.collectionSize(t, repository.CollectionTeacherAssignments))
}

func TestRegisterAcceptsShortUsernames(t *testing.T) {
	env := newTestEnv(t)

	resp := env.registerTeacher(t, "t1", course("Math", "5", "A"))
	assert.Equal(t, []string{"course_math_5A"}, resp.CourseIDs)

	_, err := env.registration.RegisterStudent(context.Background(), dto.RegisterStudentRequest{
		Username: "s", Name: "S", Password: "secret1", Grade: "5", Section: "A",
	})
	require.NoError(t, err)

	_, err = env.registration.RegisterStudent(context.Background(), dto.RegisterStudentRequest{
		Username: "", Name: "Nobody", Password: "secret1", Grade: "5", Section: "A",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrorCode(t, err))
}

func TestRegisterTeacherGradeIsNotNormalised(t *testing.T) {
	env := newTestEnv(t)
	env.registerTeacher(t, "t1", course("Math", "5", "A"))

	resp := env.registerTeacher(t, "t2", course("Math", "05", "A"))
	assert.Equal(t, []string{"course_math_05A"}, resp.CourseIDs)
}

func TestRegisterTeacherLostClaimRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	// A concurrent registration holds the gate and created the course row but has not written its assignment yet.
	claimed, err := env.claims.Claim(ctx, "course_math_5A", "other-teacher")
	require.NoError(t, err)
	require.True(t, claimed)
	created, err := env.courses.CreateIfAbsent(ctx, &models.Course{ID: "course_math_5A", Name: "Math", Subject: "Math", Grade: "5", Section: "A"})
	require.NoError(t, err)
	require.True(t, created)

	_, err = env.registration.RegisterTeacher(ctx, dto.RegisterTeacherRequest{
		Username: "t1",
		Name:     "T One",
		Password: "secret1",
		Courses:  []dto.CourseInput{course("Art", "5", "A"), course("Math", "5", "A")},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCourseAssigned.Code, appErrorCode(t, err))

	assert.Zero(t, env.collectionSize(t, repository.CollectionUsers))
	assert.Zero(t, env.collectionSize(t, repository.CollectionTeachers))
	assert.Zero(t, env.collectionSize(t, repository.CollectionTeacherAssignments))
	assert.Equal(t, 1, env.collectionSize(t, repository.CollectionCourses))

	claim, err := env.claims.Find(ctx, "course_math_5A")
	require.NoError(t, err)
	assert.Equal(t, "other-teacher", claim.TeacherID)
	_, err = env.claims.Find(ctx, "course_art_5A")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = env.courses.FindByID(ctx, "course_art_5A")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// The winner finishes its registration against a course row that is still there.
	require.NoError(t, env.assignments.Create(ctx, &models.TeacherAssignment{TeacherID: "other-teacher", CourseID: "course_math_5A"}))
	math, err := env.courses.FindByID(ctx, "course_math_5A")
	require.NoError(t, err)
	assert.Equal(t, "Math", math.Subject)
}

func TestRegisterTeacherLosingClaimNeverCreatesCourseRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	claimed, err := env.claims.Claim(ctx, "course_math_5A", "other-teacher")
	require.NoError(t, err)
	require.True(t, claimed)

	_, err = env.registration.RegisterTeacher(ctx, dto.RegisterTeacherRequest{
		Username: "t1",
		Name:     "T One",
		Password: "secret1",
		Courses:  []dto.CourseInput{course("Math", "5", "A")},
	})
	require.Error(t, err)
	assert.Zero(t, env.collectionSize(t, repository.CollectionCourses))
}

func TestRegisterTeacherStoreFailureCompensates(t *testing.T) {
	store := &faultyStore{Store: docstore.NewMemory(), failPrefix: repository.CollectionTeacherAssignments + "/"}
	env := newTestEnvWithStore(t, store)

	_, err := env.registration.RegisterTeacher(context.Background(), dto.RegisterTeacherRequest{
		Username: "t1",
		Name:     "T One",
		Password: "secret1",
		Courses:  []dto.CourseInput{course("Math", "5", "A")},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrorCode(t, err))
	assert.Zero(t, env.collectionSize(t, repository.CollectionUsers))
	assert.Zero(t, env.collectionSize(t, repository.CollectionTeachers))
	assert.Zero(t, env.collectionSize(t, repository.CollectionCourseClaims))
	assert.Zero(t, env.collectionSize(t, repository.CollectionCourses))
}

func TestRegisterUsernameIsCaseSensitiveAndUnique(t *testing.T) {
	env := newTestEnv(t)
	env.registerStudent(t, "alice", "5", "A")

	_, err := env.registration.RegisterStudent(context.Background(), dto.RegisterStudentRequest{
		Username: "alice", Name: "Alice", Password: "secret1", Grade: "5", Section: "A",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUsernameTaken.Code, appErrorCode(t, err))
	assert.Equal(t, "username exists", err.Error())

	env.registerStudent(t, "Alice", "5", "A")
	assert.Equal(t, 2, env.collectionSize(t, repository.CollectionUsers))
}

func TestRegisterStudentNormalisesPlacement(t *testing.T) {
	env := newTestEnv(t)
	resp := env.registerStudent(t, "bob", " 7 ", " b ")

	student, err := env.students.FindByID(context.Background(), resp.ProfileKey)
	require.NoError(t, err)
	assert.Equal(t, models.GradeLevel("7"), student.Grade)
	assert.Equal(t, "B", student.Section)
	assert.Equal(t, "2024_2025", student.AcademicYear)
	assert.Equal(t, models.StudentStatusActive, student.Status)
}

func TestDefaultAcademicYearFollowsSchoolCalendar(t *testing.T) {
	svc := NewRegistrationService(RegistrationRepositories{}, nil, nil, nil, RegistrationConfig{})
	svc.now = func() time.Time { return time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC) }
	assert.Equal(t, "2024_2025", svc.defaultAcademicYear())
	svc.now = func() time.Time { return time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC) }
	assert.Equal(t, "2025_2026", svc.defaultAcademicYear())
}

func TestRegisterParentLinksExistingChildren(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s1 := env.registerStudent(t, "kid1", "5", "A")
	s2 := env.registerStudent(t, "kid2", "6", "B")

	var req dto.RegisterParentRequest
	raw := `{"username":"mum","name":"Mum","password":"secret1","children":"` + s1.ProfileKey + `, ` + s2.ProfileKey + `"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &req))

	resp, err := env.registration.RegisterParent(ctx, req)
	require.NoError(t, err)
	parent, err := env.parents.FindByUserID(ctx, resp.UserID)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{s1.ProfileKey: true, s2.ProfileKey: true}, parent.Children)

	_, err = env.registration.RegisterParent(ctx, dto.RegisterParentRequest{
		Username: "dad", Name: "Dad", Password: "secret1", Children: dto.ChildList{"missing"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrorCode(t, err))
	_, err = env.users.FindByUsername(ctx, "dad")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRegisterSchoolAdminUploadsProfile(t *testing.T) {
	env := newTestEnv(t)
	blobs := &uploaderStub{}
	env.registration.blobs = blobs

	resp, err := env.registration.RegisterSchoolAdmin(context.Background(), dto.RegisterSchoolAdminRequest{
		Username: "root", Name: "Principal", Password: "secret1",
	}, &UploadedFile{Filename: "me.png", ContentType: "image/png", Content: strings.NewReader("png")})
	require.NoError(t, err)
	assert.Equal(t, profileFolder, blobs.folder)
	assert.Equal(t, "http://files.local/profiles/me.png", resp.ProfileImage)

	admin, err := env.admins.FindByUserID(context.Background(), resp.UserID)
	require.NoError(t, err)
	assert.Equal(t, resp.ProfileKey, admin.ID)
	assert.Equal(t, "Principal", admin.Name)
	assert.Equal(t, resp.ProfileImage, admin.ProfileImage)
}
