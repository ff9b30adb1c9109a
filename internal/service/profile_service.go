package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/storage"
)

type profileUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfileImage(ctx context.Context, id, url string) error
}

type profileTeacherRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
	UpdateProfileImage(ctx context.Context, id, url string) error
}

type profileAdminRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.SchoolAdmin, error)
	UpdateProfileImage(ctx context.Context, id, url string) error
}

const profileImageFolder = "profile_images"

// ProfileService updates user profile images.
type ProfileService struct {
	users    profileUserRepository
	teachers profileTeacherRepository
	admins   profileAdminRepository
	blobs    blobUploader
	audit    auditWriter
	logger   *zap.Logger
}

// NewProfileService constructs the service.
func NewProfileService(users profileUserRepository, teachers profileTeacherRepository, admins profileAdminRepository, blobs blobUploader, audit auditWriter, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{users: users, teachers: teachers, admins: admins, blobs: blobs, audit: audit, logger: logger}
}

// UploadProfileImage stores the image and points the user and its teacher or admin row at it.
func (s *ProfileService) UploadProfileImage(ctx context.Context, userID string, file *UploadedFile) (string, error) {
	if file == nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "profile image is required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	url, err := uploadFile(ctx, s.blobs, profileImageFolder, file)
	if err != nil {
		return "", err
	}

	if err := s.users.UpdateProfileImage(ctx, user.ID, url); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile image")
	}

	switch user.Role {
	case models.RoleTeacher:
		teacher, err := s.teachers.FindByUserID(ctx, user.ID)
		if err == nil {
			err = s.teachers.UpdateProfileImage(ctx, teacher.ID, url)
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("failed to sync teacher profile image", zap.String("user_id", user.ID), zap.Error(err))
		}
	case models.RoleSchoolAdmin:
		admin, err := s.admins.FindByUserID(ctx, user.ID)
		if err == nil {
			err = s.admins.UpdateProfileImage(ctx, admin.ID, url)
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("failed to sync admin profile image", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	if s.audit != nil {
		entry := &models.AuditLog{UserID: user.ID, Action: models.AuditActionProfileImage, Resource: "user", ResourceID: user.ID}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to record profile image audit log", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	return url, nil
}

func uploadFile(ctx context.Context, blobs blobUploader, folder string, file *UploadedFile) (string, error) {
	if blobs == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "file uploads are not configured")
	}
	url, err := blobs.Upload(ctx, folder, file.Filename, file.ContentType, file.Content)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTooLarge):
			return "", appErrors.Wrap(err, appErrors.ErrPayloadTooLarge.Code, appErrors.ErrPayloadTooLarge.Status, "file is too large")
		case errors.Is(err, storage.ErrUnsupportedType):
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported file type")
		default:
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
		}
	}
	return url, nil
}
