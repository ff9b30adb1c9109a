package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type postRepository interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, authorID string) ([]models.Post, error)
	UpdateMessage(ctx context.Context, id, message string, updatedAt time.Time) error
	ToggleLike(ctx context.Context, id, userID string) (bool, int, error)
	Delete(ctx context.Context, id string) error
}

const postMediaFolder = "post_media"

// PostService manages the school feed.
type PostService struct {
	posts     postRepository
	users     userBatchReader
	blobs     blobUploader
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPostService constructs the service.
func NewPostService(posts postRepository, users userBatchReader, blobs blobUploader, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *PostService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{posts: posts, users: users, blobs: blobs, audit: audit, validator: validate, logger: logger}
}

// Create publishes a post. Only school admins and teachers may post.
func (s *PostService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreatePostRequest, media *UploadedFile) (*dto.PostResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleSchoolAdmin && actor.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only school admins and teachers can post")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid post payload")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" && media == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "post must contain text or media")
	}

	post := &models.Post{AuthorID: actor.UserID, AuthorRole: actor.Role, Message: text}
	if media != nil {
		url, err := uploadFile(ctx, s.blobs, postMediaFolder, media)
		if err != nil {
			return nil, err
		}
		post.MediaURL = url
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create post")
	}

	out, err := s.enrich(ctx, []models.Post{*post}, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// List returns every post newest first.
func (s *PostService) List(ctx context.Context, viewerID string) ([]dto.PostResponse, error) {
	return s.list(ctx, "", viewerID)
}

// ListByAuthor returns the posts written by authorID newest first.
func (s *PostService) ListByAuthor(ctx context.Context, authorID, viewerID string) ([]dto.PostResponse, error) {
	if strings.TrimSpace(authorID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "author id is required")
	}
	return s.list(ctx, authorID, viewerID)
}

// Update replaces the text of a post owned by the actor.
func (s *PostService) Update(ctx context.Context, postID string, req dto.UpdatePostRequest, actor *models.JWTClaims) (*dto.PostResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid post payload")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "post text is required")
	}
	if _, err := s.ownedPost(ctx, postID, actor); err != nil {
		return nil, err
	}

	if err := s.posts.UpdateMessage(ctx, postID, text, time.Now().UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update post")
	}
	updated, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload post")
	}
	out, err := s.enrich(ctx, []models.Post{*updated}, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Delete removes a post owned by the actor.
func (s *PostService) Delete(ctx context.Context, postID string, actor *models.JWTClaims) error {
	if _, err := s.ownedPost(ctx, postID, actor); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete post")
	}
	if s.audit != nil {
		entry := &models.AuditLog{UserID: actor.UserID, Action: models.AuditActionPostDelete, Resource: "post", ResourceID: postID}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to record post delete audit log", zap.String("post_id", postID), zap.Error(err))
		}
	}
	return nil
}

// ToggleLike likes the post for userID, or removes the like if it already exists.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (*dto.LikeResponse, error) {
	if _, err := s.findPost(ctx, postID); err != nil {
		return nil, err
	}
	liked, count, err := s.posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle like")
	}
	return &dto.LikeResponse{PostID: postID, Liked: liked, LikeCount: count}, nil
}

func (s *PostService) list(ctx context.Context, authorID, viewerID string) ([]dto.PostResponse, error) {
	posts, err := s.posts.List(ctx, authorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}
	return s.enrich(ctx, posts, viewerID)
}

func (s *PostService) findPost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}
	return post, nil
}

func (s *PostService) ownedPost(ctx context.Context, postID string, actor *models.JWTClaims) (*models.Post, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only modify your own posts")
	}
	return post, nil
}

func (s *PostService) enrich(ctx context.Context, posts []models.Post, viewerID string) ([]dto.PostResponse, error) {
	authorIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
	}
	authors, err := s.users.FindByIDs(ctx, authorIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post authors")
	}

	out := make([]dto.PostResponse, 0, len(posts))
	for _, p := range posts {
		author := authors[p.AuthorID]
		out = append(out, dto.PostResponse{
			PostID:      p.ID,
			AuthorID:    p.AuthorID,
			AuthorRole:  p.AuthorRole,
			AuthorName:  author.Name,
			AuthorImage: author.ProfileImage,
			Message:     p.Message,
			MediaURL:    p.MediaURL,
			LikeCount:   p.LikeCount,
			LikedByMe:   viewerID != "" && p.Likes[viewerID],
			Edited:      p.Edited,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	return out, nil
}
