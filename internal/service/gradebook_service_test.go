package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

func TestUpdateCourseMarksOverwritesInsteadOfMerging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacher := env.registerTeacher(t, "t1", course("Math", "5", "A"))
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	env.gradebook.now = func() time.Time { return fixed }

	_, err := env.gradebook.UpdateCourseMarks(ctx, "course_math_5A", dto.UpdateMarksRequest{Updates: []dto.MarkUpdate{
		{StudentID: "s1", Marks: dto.MarkInput{Mark20: 15}},
	}}, teacherClaims(teacher))
	require.NoError(t, err)

	resp, err := env.gradebook.UpdateCourseMarks(ctx, "course_math_5A", dto.UpdateMarksRequest{Updates: []dto.MarkUpdate{
		{StudentID: "s1", Marks: dto.MarkInput{Mark30: 20}},
	}}, teacherClaims(teacher))
	require.NoError(t, err)
	assert.Equal(t, &dto.UpdateMarksResponse{CourseID: "course_math_5A", Updated: 1}, resp)

	mark, found, err := env.marks.Find(ctx, "course_math_5A", "s1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.ClassMark{Mark20: 0, Mark30: 20, Mark50: 0, UpdatedAt: ptrTime(fixed), UpdatedBy: teacher.UserID}, mark)
}

func TestUpdateCourseMarksLeavesOtherStudentsAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerTeacher(t, "t1", course("Math", "5", "A"))
	admin := adminClaims("admin-1")

	_, err := env.gradebook.UpdateCourseMarks(ctx, "course_math_5A", dto.UpdateMarksRequest{Updates: []dto.MarkUpdate{
		{StudentID: "s1", Marks: dto.MarkInput{Mark20: 10}},
		{StudentID: "s2", Marks: dto.MarkInput{Mark20: 11}},
	}}, admin)
	require.NoError(t, err)
	_, err = env.gradebook.UpdateCourseMarks(ctx, "course_math_5A", dto.UpdateMarksRequest{Updates: []dto.MarkUpdate{
		{StudentID: "s2", Marks: dto.MarkInput{Mark50: 40}},
	}}, admin)
	require.NoError(t, err)

	marks, err := env.marks.ListByCourse(ctx, "course_math_5A")
	require.NoError(t, err)
	assert.Equal(t, float64(10), marks["s1"].Mark20)
	assert.Equal(t, float64(0), marks["s2"].Mark20)
	assert.Equal(t, float64(40), marks["s2"].Mark50)
}

func TestUpdateCourseMarksRejectsOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	env.registerTeacher(t, "t1", course("Math", "5", "A"))

	cases := []dto.MarkInput{{Mark20: 21}, {Mark30: 30.5}, {Mark50: -1}}
	for _, marks := range cases {
		_, err := env.gradebook.UpdateCourseMarks(context.Background(), "course_math_5A", dto.UpdateMarksRequest{Updates: []dto.MarkUpdate{
			{StudentID: "s1", Marks: marks},
		}}, adminClaims("admin-1"))
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrorCode(t, err))
	}

	marks, err := env.marks.ListByCourse(context.Background(), "course_math_5A")
	require.NoError(t, err)
	assert.Empty(t, marks)
}

func TestUpdateCourseMarksAuthorisation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerTeacher(t, "t1", course("Math", "5", "A"))
	other := env.registerTeacher(t, "t2", course("Art", "5", "A"))
	req := dto.UpdateMarksRequest{Updates: []dto.MarkUpdate{{StudentID: "s1", Marks: dto.MarkInput{Mark20: 1}}}}

	_, err := env.gradebook.UpdateCourseMarks(ctx, "course_math_5A", req, teacherClaims(other))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrorCode(t, err))

	_, err = env.gradebook.UpdateCourseMarks(ctx, "course_math_5A", req, &models.JWTClaims{UserID: "kid", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrorCode(t, err))

	_, err = env.gradebook.UpdateCourseMarks(ctx, "course_unknown", req, adminClaims("admin-1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrorCode(t, err))
}
