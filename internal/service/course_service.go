package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
}

type assignmentReader interface {
	List(ctx context.Context) ([]models.TeacherAssignment, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error)
	FindByCourse(ctx context.Context, courseID string) (*models.TeacherAssignment, error)
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
	List(ctx context.Context) (map[string]models.Teacher, error)
}

type userBatchReader interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

// CourseService answers catalog and assignment queries.
type CourseService struct {
	courses     courseReader
	assignments assignmentReader
	teachers    teacherReader
	users       userBatchReader
	logger      *zap.Logger
}

// NewCourseService constructs the service.
func NewCourseService(courses courseReader, assignments assignmentReader, teachers teacherReader, users userBatchReader, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, assignments: assignments, teachers: teachers, users: users, logger: logger}
}

// GetCoursesForTeacher lists the courses assigned to a teacher. The identifier may be the teacher key
// or the teacher's user id; an unknown teacher yields an empty list.
func (s *CourseService) GetCoursesForTeacher(ctx context.Context, identifier string) (*dto.TeacherCoursesResponse, error) {
	courses, err := s.coursesForTeacher(ctx, identifier)
	if err != nil {
		return nil, err
	}
	resp := &dto.TeacherCoursesResponse{Courses: make([]dto.TeacherCourse, 0, len(courses))}
	for _, course := range courses {
		resp.Courses = append(resp.Courses, dto.TeacherCourse{
			CourseID: course.ID,
			Subject:  course.Subject,
			Grade:    course.Grade,
			Section:  course.Section,
		})
	}
	return resp, nil
}

// GetTakenSubjects returns the subjects that already have a teacher in the given grade and section.
func (s *CourseService) GetTakenSubjects(ctx context.Context, grade models.GradeLevel, section string) (*dto.TakenSubjectsResponse, error) {
	grade = models.GradeLevel(strings.TrimSpace(string(grade)))
	assignments, err := s.assignments.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher assignments")
	}
	catalog, err := s.catalogByID(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.TakenSubjectsResponse{TakenSubjects: []string{}}
	seen := map[string]struct{}{}
	for _, a := range assignments {
		course, ok := catalog[a.CourseID]
		if !ok {
			continue
		}
		if course.Grade != grade || !strings.EqualFold(course.Section, strings.TrimSpace(section)) {
			continue
		}
		if _, dup := seen[course.Subject]; dup {
			continue
		}
		seen[course.Subject] = struct{}{}
		resp.TakenSubjects = append(resp.TakenSubjects, course.Subject)
	}
	return resp, nil
}

// ListCourses returns the whole catalog with the assigned teacher of each course.
func (s *CourseService) ListCourses(ctx context.Context) (*dto.CourseListResponse, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	assignments, err := s.assignments.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher assignments")
	}
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}

	teacherByCourse := make(map[string]string, len(assignments))
	userIDs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		if _, ok := teacherByCourse[a.CourseID]; ok {
			continue
		}
		teacherByCourse[a.CourseID] = a.TeacherID
		if t, ok := teachers[a.TeacherID]; ok {
			userIDs = append(userIDs, t.UserID)
		}
	}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher names")
	}

	resp := &dto.CourseListResponse{Courses: make([]dto.CourseSummary, 0, len(courses))}
	for _, course := range courses {
		summary := dto.CourseSummary{
			CourseID: course.ID,
			Name:     course.Name,
			Subject:  course.Subject,
			Grade:    course.Grade,
			Section:  course.Section,
		}
		if teacherKey, ok := teacherByCourse[course.ID]; ok {
			summary.TeacherKey = teacherKey
			if t, ok := teachers[teacherKey]; ok {
				summary.TeacherName = users[t.UserID].Name
			}
		}
		resp.Courses = append(resp.Courses, summary)
	}
	return resp, nil
}

// TeacherOwnsCourse reports whether the teacher behind identifier is assigned to courseID.
func (s *CourseService) TeacherOwnsCourse(ctx context.Context, identifier, courseID string) (bool, error) {
	teacherKey, err := s.resolveTeacher(ctx, identifier)
	if err != nil || teacherKey == "" {
		return false, err
	}
	assignment, err := s.assignments.FindByCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course assignment")
	}
	return assignment.TeacherID == teacherKey, nil
}

func (s *CourseService) coursesForTeacher(ctx context.Context, identifier string) ([]models.Course, error) {
	teacherKey, err := s.resolveTeacher(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if teacherKey == "" {
		return nil, nil
	}
	assignments, err := s.assignments.ListByTeacher(ctx, teacherKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher assignments")
	}
	courses := make([]models.Course, 0, len(assignments))
	for _, a := range assignments {
		course, err := s.courses.FindByID(ctx, a.CourseID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.logger.Warn("assignment references missing course", zap.String("course_id", a.CourseID), zap.String("teacher_key", teacherKey))
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		courses = append(courses, *course)
	}
	return courses, nil
}

// resolveTeacher maps a teacher key or user id to the teacher key. It returns "" when neither matches.
func (s *CourseService) resolveTeacher(ctx context.Context, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", nil
	}
	teacher, err := s.teachers.FindByID(ctx, identifier)
	if err == nil {
		return teacher.ID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	teacher, err = s.teachers.FindByUserID(ctx, identifier)
	if err == nil {
		return teacher.ID, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
}

func (s *CourseService) catalogByID(ctx context.Context) (map[string]models.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	catalog := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		catalog[c.ID] = c
	}
	return catalog, nil
}
