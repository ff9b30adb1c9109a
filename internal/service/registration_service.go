package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type registrationUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type registrationStudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Delete(ctx context.Context, id string) error
}

type registrationTeacherRepository interface {
	Create(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

type registrationParentRepository interface {
	Create(ctx context.Context, parent *models.Parent) error
	Delete(ctx context.Context, id string) error
}

type registrationAdminRepository interface {
	Create(ctx context.Context, admin *models.SchoolAdmin) error
	Delete(ctx context.Context, id string) error
}

type registrationCourseRepository interface {
	CreateIfAbsent(ctx context.Context, course *models.Course) (bool, error)
	Delete(ctx context.Context, id string) error
}

type courseClaimer interface {
	Claim(ctx context.Context, courseID, teacherID string) (bool, error)
	Release(ctx context.Context, courseID string) error
}

type registrationAssignmentRepository interface {
	List(ctx context.Context) ([]models.TeacherAssignment, error)
	Create(ctx context.Context, assignment *models.TeacherAssignment) error
	Delete(ctx context.Context, id string) error
}

type blobUploader interface {
	Upload(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error)
}

// UploadedFile is a file part received from a multipart request.
type UploadedFile struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// RegistrationRepositories groups the stores touched by registration.
type RegistrationRepositories struct {
	Users        registrationUserRepository
	Students     registrationStudentRepository
	Teachers     registrationTeacherRepository
	Parents      registrationParentRepository
	SchoolAdmins registrationAdminRepository
	Courses      registrationCourseRepository
	Claims       courseClaimer
	Assignments  registrationAssignmentRepository
	Audit        auditWriter
	// RosterCache is optional; new students drop every cached course roster.
	RosterCache  rosterCache
}

// RegistrationConfig tunes password hashing and student defaults.
type RegistrationConfig struct {
	BcryptCost          int
	DefaultAcademicYear string
}

// RegistrationService creates users together with their role rows.
type RegistrationService struct {
	repos     RegistrationRepositories
	blobs     blobUploader
	validator *validator.Validate
	logger    *zap.Logger
	config    RegistrationConfig
	now       func() time.Time
}

const profileFolder = "profiles"

// NewRegistrationService constructs the service.
func NewRegistrationService(repos RegistrationRepositories, blobs blobUploader, validate *validator.Validate, logger *zap.Logger, cfg RegistrationConfig) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &RegistrationService{repos: repos, blobs: blobs, validator: validate, logger: logger, config: cfg, now: time.Now}
}

// RegisterStudent creates a student user and its Students row.
func (s *RegistrationService) RegisterStudent(ctx context.Context, req dto.RegisterStudentRequest) (*dto.RegistrationResponse, error) {
	req.Grade = models.GradeLevel(strings.TrimSpace(string(req.Grade)))
	req.Section = models.NormalizeSection(req.Section)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if err := s.ensureUsernameFree(ctx, req.Username); err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	academicYear := strings.TrimSpace(req.AcademicYear)
	if academicYear == "" {
		academicYear = s.defaultAcademicYear()
	}

	tx := newSaga("register_student", s.logger)
	user, err := s.createUser(ctx, tx, req.Username, req.Name, hash, models.RoleStudent, "")
	if err != nil {
		return nil, err
	}

	student := &models.Student{
		UserID:       user.ID,
		AcademicYear: academicYear,
		Grade:        req.Grade,
		Section:      req.Section,
		Status:       models.StudentStatusActive,
	}
	if err := s.repos.Students.Create(ctx, student); err != nil {
		tx.compensate(ctx, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student record")
	}
	if s.repos.RosterCache != nil {
		if err := s.repos.RosterCache.Invalidate(ctx, rosterCachePrefix+"*"); err != nil {
			s.logger.Warn("failed to invalidate roster cache", zap.String("student_id", student.ID), zap.Error(err))
		}
	}

	s.recordRegistration(ctx, user, student.ID)
	return &dto.RegistrationResponse{UserID: user.ID, Role: models.RoleStudent, ProfileKey: student.ID}, nil
}

// RegisterTeacher validates every submitted course before writing anything, then creates the user,
// the teacher row, any missing courses and one assignment per course.
func (s *RegistrationService) RegisterTeacher(ctx context.Context, req dto.RegisterTeacherRequest) (*dto.RegistrationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	if err := s.ensureUsernameFree(ctx, req.Username); err != nil {
		return nil, err
	}

	courses := make([]models.Course, 0, len(req.Courses))
	seen := make(map[string]struct{}, len(req.Courses))
	for _, input := range req.Courses {
		id := models.CourseID(input.Subject, input.Grade, input.Section)
		if _, dup := seen[id]; dup {
			return nil, appErrors.Clone(appErrors.ErrDuplicateCourse,
				fmt.Sprintf("Duplicate course in submission: %s", describeCourse(input.Subject, input.Grade, input.Section)))
		}
		seen[id] = struct{}{}
		courses = append(courses, models.Course{
			ID:      id,
			Name:    strings.TrimSpace(input.Subject),
			Subject: strings.TrimSpace(input.Subject),
			Grade:   models.GradeLevel(strings.TrimSpace(string(input.Grade))),
			Section: models.NormalizeSection(input.Section),
		})
	}

	assignments, err := s.repos.Assignments.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher assignments")
	}
	assigned := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		assigned[a.CourseID] = struct{}{}
	}
	for _, course := range courses {
		if _, taken := assigned[course.ID]; taken {
			return nil, courseAssignedError(course)
		}
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	tx := newSaga("register_teacher", s.logger)
	user, err := s.createUser(ctx, tx, req.Username, req.Name, hash, models.RoleTeacher, req.ProfileImage)
	if err != nil {
		return nil, err
	}

	teacher := &models.Teacher{UserID: user.ID, Status: models.TeacherStatusActive, ProfileImage: req.ProfileImage}
	if err := s.repos.Teachers.Create(ctx, teacher); err != nil {
		tx.compensate(ctx, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher record")
	}
	tx.onFailure("delete teacher", func(ctx context.Context) error {
		return s.repos.Teachers.Delete(ctx, teacher.ID)
	})

	courseIDs := make([]string, 0, len(courses))
	for i := range courses {
		course := courses[i]
		if err := s.assignCourse(ctx, tx, teacher.ID, &course); err != nil {
			return nil, err
		}
		courseIDs = append(courseIDs, course.ID)
	}

	s.recordRegistration(ctx, user, teacher.ID)
	return &dto.RegistrationResponse{
		UserID:       user.ID,
		Role:         models.RoleTeacher,
		ProfileKey:   teacher.ID,
		TeacherKey:   teacher.ID,
		ProfileImage: req.ProfileImage,
		CourseIDs:    courseIDs,
	}, nil
}

// assignCourse takes the course claim before touching the Courses row, so only the claim holder
// ever creates or deletes it.
func (s *RegistrationService) assignCourse(ctx context.Context, tx *saga, teacherID string, course *models.Course) error {
	claimed, err := s.repos.Claims.Claim(ctx, course.ID, teacherID)
	if err != nil {
		tx.compensate(ctx, err)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim course")
	}
	if !claimed {
		conflict := courseAssignedError(*course)
		tx.compensate(ctx, conflict)
		return conflict
	}
	courseID := course.ID
	tx.onFailure("release claim "+courseID, func(ctx context.Context) error {
		return s.repos.Claims.Release(ctx, courseID)
	})

	created, err := s.repos.Courses.CreateIfAbsent(ctx, course)
	if err != nil {
		tx.compensate(ctx, err)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	if created {
		tx.onFailure("delete course "+courseID, func(ctx context.Context) error {
			return s.repos.Courses.Delete(ctx, courseID)
		})
	}

	assignment := &models.TeacherAssignment{TeacherID: teacherID, CourseID: course.ID}
	if err := s.repos.Assignments.Create(ctx, assignment); err != nil {
		tx.compensate(ctx, err)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher assignment")
	}
	tx.onFailure("delete assignment "+assignment.ID, func(ctx context.Context) error {
		return s.repos.Assignments.Delete(ctx, assignment.ID)
	})
	return nil
}

// RegisterParent creates a parent user linked to existing students.
func (s *RegistrationService) RegisterParent(ctx context.Context, req dto.RegisterParentRequest) (*dto.RegistrationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent payload")
	}
	if err := s.ensureUsernameFree(ctx, req.Username); err != nil {
		return nil, err
	}

	children := make(map[string]bool, len(req.Children))
	for _, childID := range req.Children {
		if _, err := s.repos.Students.FindByID(ctx, childID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown student %s", childID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		children[childID] = true
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	tx := newSaga("register_parent", s.logger)
	user, err := s.createUser(ctx, tx, req.Username, req.Name, hash, models.RoleParent, "")
	if err != nil {
		return nil, err
	}

	parent := &models.Parent{UserID: user.ID, Children: children}
	if err := s.repos.Parents.Create(ctx, parent); err != nil {
		tx.compensate(ctx, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create parent record")
	}

	s.recordRegistration(ctx, user, parent.ID)
	return &dto.RegistrationResponse{UserID: user.ID, Role: models.RoleParent, ProfileKey: parent.ID}, nil
}

// RegisterSchoolAdmin creates an administrator. The optional profile file is uploaded to the blob store.
func (s *RegistrationService) RegisterSchoolAdmin(ctx context.Context, req dto.RegisterSchoolAdminRequest, profile *UploadedFile) (*dto.RegistrationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school admin payload")
	}
	if err := s.ensureUsernameFree(ctx, req.Username); err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var imageURL string
	if profile != nil {
		imageURL, err = uploadFile(ctx, s.blobs, profileFolder, profile)
		if err != nil {
			return nil, err
		}
	}

	tx := newSaga("register_school_admin", s.logger)
	user, err := s.createUser(ctx, tx, req.Username, req.Name, hash, models.RoleSchoolAdmin, imageURL)
	if err != nil {
		return nil, err
	}

	admin := &models.SchoolAdmin{UserID: user.ID, Username: req.Username, Name: req.Name, ProfileImage: imageURL}
	if err := s.repos.SchoolAdmins.Create(ctx, admin); err != nil {
		tx.compensate(ctx, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create school admin record")
	}

	s.recordRegistration(ctx, user, admin.ID)
	return &dto.RegistrationResponse{UserID: user.ID, Role: models.RoleSchoolAdmin, ProfileKey: admin.ID, ProfileImage: imageURL}, nil
}

func (s *RegistrationService) ensureUsernameFree(ctx context.Context, username string) error {
	exists, err := s.repos.Users.ExistsByUsername(ctx, username)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrUsernameTaken, "username exists")
	}
	return nil
}

func (s *RegistrationService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	return string(hash), nil
}

func (s *RegistrationService) createUser(ctx context.Context, tx *saga, username, name, hash string, role models.UserRole, image string) (*models.User, error) {
	user := &models.User{
		Username:     username,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		ProfileImage: image,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	tx.onFailure("delete user", func(ctx context.Context) error {
		return s.repos.Users.Delete(ctx, user.ID)
	})
	return user, nil
}

func (s *RegistrationService) recordRegistration(ctx context.Context, user *models.User, profileKey string) {
	if s.repos.Audit == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     user.ID,
		Action:     models.AuditActionRegister,
		Resource:   string(user.Role),
		ResourceID: profileKey,
	}
	if err := s.repos.Audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record registration audit log", zap.String("user_id", user.ID), zap.Error(err))
	}
}

// defaultAcademicYear returns the configured year or derives "2024_2025" style labels; the school year starts in July.
func (s *RegistrationService) defaultAcademicYear() string {
	if s.config.DefaultAcademicYear != "" {
		return s.config.DefaultAcademicYear
	}
	now := s.now()
	start := now.Year()
	if now.Month() < time.July {
		start--
	}
	return fmt.Sprintf("%d_%d", start, start+1)
}

func describeCourse(subject string, grade models.GradeLevel, section string) string {
	return fmt.Sprintf("%s grade %s section %s", strings.TrimSpace(subject), strings.TrimSpace(string(grade)), models.NormalizeSection(section))
}

func courseAssignedError(course models.Course) error {
	return appErrors.Clone(appErrors.ErrCourseAssigned,
		fmt.Sprintf("%s already has a teacher", describeCourse(course.Subject, course.Grade, course.Section)))
}
