package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type authUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type studentLookup interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type teacherLookup interface {
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
}

type parentLookup interface {
	FindByUserID(ctx context.Context, userID string) (*models.Parent, error)
}

type schoolAdminLookup interface {
	FindByUserID(ctx context.Context, userID string) (*models.SchoolAdmin, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuthRoleRepositories resolves the role row that backs a user's profile key.
type AuthRoleRepositories struct {
	Students     studentLookup
	Teachers     teacherLookup
	Parents      parentLookup
	SchoolAdmins schoolAdminLookup
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService provides authentication use cases.
type AuthService struct {
	users     authUserRepository
	roles     AuthRoleRepositories
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, roles AuthRoleRepositories, audit auditWriter, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{users: users, roles: roles, audit: audit, validator: validate, logger: logger, config: config}
}

// Login authenticates a user and returns an access token carrying the role row key.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "username not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "incorrect password")
	}

	if req.Role != "" && req.Role != user.Role {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("not registered as %s", req.Role))
	}

	profileKey, err := s.resolveProfileKey(ctx, user)
	if err != nil {
		return nil, err
	}

	accessToken, issuedAt, err := s.generateAccessToken(user, profileKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.recordAudit(ctx, &models.AuditLog{
		UserID:     user.ID,
		Action:     models.AuditActionLogin,
		Resource:   "auth",
		ResourceID: user.ID,
		Details:    map[string]interface{}{"role": string(user.Role)},
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	})

	return &models.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		ProfileKey:  profileKey,
		IssuedAt:    issuedAt,
		User: models.UserInfo{
			ID:           user.ID,
			Username:     user.Username,
			Name:         user.Name,
			Role:         user.Role,
			ProfileImage: user.ProfileImage,
		},
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) resolveProfileKey(ctx context.Context, user *models.User) (string, error) {
	var (
		key string
		err error
	)
	switch user.Role {
	case models.RoleStudent:
		if s.roles.Students == nil {
			return "", nil
		}
		var row *models.Student
		if row, err = s.roles.Students.FindByUserID(ctx, user.ID); err == nil {
			key = row.ID
		}
	case models.RoleTeacher:
		if s.roles.Teachers == nil {
			return "", nil
		}
		var row *models.Teacher
		if row, err = s.roles.Teachers.FindByUserID(ctx, user.ID); err == nil {
			key = row.ID
		}
	case models.RoleParent:
		if s.roles.Parents == nil {
			return "", nil
		}
		var row *models.Parent
		if row, err = s.roles.Parents.FindByUserID(ctx, user.ID); err == nil {
			key = row.ID
		}
	case models.RoleSchoolAdmin:
		if s.roles.SchoolAdmins == nil {
			return "", nil
		}
		var row *models.SchoolAdmin
		if row, err = s.roles.SchoolAdmins.FindByUserID(ctx, user.ID); err == nil {
			key = row.ID
		}
	default:
		return "", appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s record not found", user.Role))
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role record")
	}
	return key, nil
}

func (s *AuthService) recordAudit(ctx context.Context, entry *models.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}

func (s *AuthService) generateAccessToken(user *models.User, profileKey string) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:     user.ID,
		Role:       user.Role,
		ProfileKey: profileKey,
		Username:   user.Username,
		Name:       user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}
