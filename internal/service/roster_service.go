package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type rosterStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByClass(ctx context.Context, grade models.GradeLevel, section string) ([]models.Student, error)
	UpdatePlacement(ctx context.Context, id string, grade models.GradeLevel, section string, updatedAt time.Time) error
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type classMarkReader interface {
	ListByCourse(ctx context.Context, courseID string) (map[string]models.ClassMark, error)
}

type teacherCourseResolver interface {
	coursesForTeacher(ctx context.Context, identifier string) ([]models.Course, error)
}

type rosterCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

const rosterCachePrefix = "roster:course:"

func rosterCacheKey(courseID string) string {
	return rosterCachePrefix + courseID
}

// RosterService derives course rosters from student placement on every read.
type RosterService struct {
	courses   courseFinder
	students  rosterStudentRepository
	users     userBatchReader
	marks     classMarkReader
	teachers  teacherCourseResolver
	cache     rosterCache
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs the service. cache may be nil.
func NewRosterService(courses courseFinder, students rosterStudentRepository, users userBatchReader, marks classMarkReader, teachers teacherCourseResolver, cache rosterCache, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		courses:   courses,
		students:  students,
		users:     users,
		marks:     marks,
		teachers:  teachers,
		cache:     cache,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
}

// GetCourseStudents returns the course descriptor and its roster with marks. An unknown course yields
// a nil descriptor and an empty roster. The boolean reports a cache hit.
func (s *RosterService) GetCourseStudents(ctx context.Context, courseID string) (*dto.CourseStudentsResponse, bool, error) {
	key := rosterCacheKey(courseID)
	if s.cache != nil {
		var cached dto.CourseStudentsResponse
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &dto.CourseStudentsResponse{Students: []dto.RosterStudent{}}, false, nil
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	students, err := s.rosterFor(ctx, *course)
	if err != nil {
		return nil, false, err
	}
	resp := &dto.CourseStudentsResponse{
		Course:   &dto.CourseDescriptor{Subject: course.Subject, Grade: course.Grade, Section: course.Section},
		Students: students,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, 0); err != nil {
			s.logger.Warn("failed to cache course roster", zap.String("course_id", courseID), zap.Error(err))
		}
	}
	return resp, false, nil
}

// GetTeacherStudents returns one roster group per distinct (subject, grade, section) the teacher teaches.
func (s *RosterService) GetTeacherStudents(ctx context.Context, identifier string) (*dto.TeacherStudentsResponse, error) {
	courses, err := s.teachers.coursesForTeacher(ctx, identifier)
	if err != nil {
		return nil, err
	}
	resp := &dto.TeacherStudentsResponse{Courses: make([]dto.TeacherStudentsGroup, 0, len(courses))}
	seen := make(map[string]struct{}, len(courses))
	for _, course := range courses {
		groupKey := strings.ToLower(course.Subject) + "|" + string(course.Grade) + "|" + models.NormalizeSection(course.Section)
		if _, dup := seen[groupKey]; dup {
			continue
		}
		seen[groupKey] = struct{}{}

		students, err := s.rosterFor(ctx, course)
		if err != nil {
			return nil, err
		}
		resp.Courses = append(resp.Courses, dto.TeacherStudentsGroup{
			CourseID: course.ID,
			Subject:  course.Subject,
			Grade:    course.Grade,
			Section:  course.Section,
			Students: students,
		})
	}
	return resp, nil
}

// MoveStudent changes a student's grade and/or section. Every roster reflects it on the next read.
func (s *RosterService) MoveStudent(ctx context.Context, studentID string, req dto.PlacementRequest, actorID string) (*dto.PlacementResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}
	if req.Grade == nil && req.Section == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade or section is required")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	grade, section := student.Grade, student.Section
	if req.Grade != nil {
		grade = models.GradeLevel(strings.TrimSpace(string(*req.Grade)))
	}
	if req.Section != nil {
		section = models.NormalizeSection(*req.Section)
	}
	if grade == "" || section == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade and section must not be blank")
	}

	if err := s.students.UpdatePlacement(ctx, studentID, grade, section, time.Now().UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update placement")
	}
	s.invalidate(ctx, rosterCachePrefix+"*")

	if s.audit != nil {
		entry := &models.AuditLog{
			UserID:     actorID,
			Action:     models.AuditActionPlacement,
			Resource:   "student",
			ResourceID: studentID,
			Details: map[string]interface{}{
				"from": fmt.Sprintf("%s/%s", student.Grade, student.Section),
				"to":   fmt.Sprintf("%s/%s", grade, section),
			},
		}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to record placement audit log", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	return &dto.PlacementResponse{StudentID: studentID, Grade: grade, Section: section}, nil
}

func (s *RosterService) rosterFor(ctx context.Context, course models.Course) ([]dto.RosterStudent, error) {
	students, err := s.students.ListByClass(ctx, course.Grade, course.Section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	userIDs := make([]string, 0, len(students))
	for _, st := range students {
		userIDs = append(userIDs, st.UserID)
	}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student users")
	}
	marks, err := s.marks.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class marks")
	}

	roster := make([]dto.RosterStudent, 0, len(students))
	for _, st := range students {
		user := users[st.UserID]
		mark := marks[st.ID]
		total := mark.Total()
		roster = append(roster, dto.RosterStudent{
			StudentID: st.ID,
			Name:      user.Name,
			Username:  user.Username,
			Marks: dto.RosterMarks{
				Mark20:      mark.Mark20,
				Mark30:      mark.Mark30,
				Mark50:      mark.Mark50,
				Mark100:     total,
				LetterGrade: models.LetterGrade(total),
			},
		})
	}
	return roster, nil
}

func (s *RosterService) invalidate(ctx context.Context, pattern string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate roster cache", zap.String("pattern", pattern), zap.Error(err))
	}
}
