package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type classMarkWriter interface {
	ReplaceMany(ctx context.Context, courseID string, marks map[string]models.ClassMark) error
}

type courseOwnership interface {
	TeacherOwnsCourse(ctx context.Context, identifier, courseID string) (bool, error)
}

// GradebookService writes class marks.
type GradebookService struct {
	courses   courseFinder
	marks     classMarkWriter
	ownership courseOwnership
	cache     rosterCache
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewGradebookService constructs the service. cache and audit may be nil.
func NewGradebookService(courses courseFinder, marks classMarkWriter, ownership courseOwnership, cache rosterCache, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *GradebookService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradebookService{
		courses:   courses,
		marks:     marks,
		ownership: ownership,
		cache:     cache,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// UpdateCourseMarks overwrites the marks of every listed student. Fields missing from an update are
// stored as zero; students are not checked against the course roster.
func (s *GradebookService) UpdateCourseMarks(ctx context.Context, courseID string, req dto.UpdateMarksRequest, actor *models.JWTClaims) (*dto.UpdateMarksResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}

	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	switch actor.Role {
	case models.RoleSchoolAdmin:
	case models.RoleTeacher:
		identifier := actor.ProfileKey
		if identifier == "" {
			identifier = actor.UserID
		}
		owns, err := s.ownership.TeacherOwnsCourse(ctx, identifier, courseID)
		if err != nil {
			return nil, err
		}
		if !owns {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "course is not assigned to you")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers and school admins can update marks")
	}

	now := s.now().UTC()
	records := make(map[string]models.ClassMark, len(req.Updates))
	for _, update := range req.Updates {
		stamp := now
		records[update.StudentID] = models.ClassMark{
			Mark20:    update.Marks.Mark20,
			Mark30:    update.Marks.Mark30,
			Mark50:    update.Marks.Mark50,
			UpdatedAt: &stamp,
			UpdatedBy: actor.UserID,
		}
	}

	if err := s.marks.ReplaceMany(ctx, courseID, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update marks")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, rosterCacheKey(courseID)); err != nil {
			s.logger.Warn("failed to invalidate roster cache", zap.String("course_id", courseID), zap.Error(err))
		}
	}

	if s.audit != nil {
		entry := &models.AuditLog{
			UserID:     actor.UserID,
			Action:     models.AuditActionMarksUpdate,
			Resource:   "course",
			ResourceID: courseID,
			Details:    map[string]interface{}{"students": len(records)},
		}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to record marks audit log", zap.String("course_id", courseID), zap.Error(err))
		}
	}

	return &dto.UpdateMarksResponse{CourseID: courseID, Updated: len(records)}, nil
}
