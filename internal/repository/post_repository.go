package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/docstore"
)

// PostRepository persists the feed under Posts/{postId}.
type PostRepository struct {
	store docstore.Store
}

// NewPostRepository constructs the repository.
func NewPostRepository(store docstore.Store) *PostRepository {
	return &PostRepository{store: store}
}

// Create stores a post under a fresh push key; the key is mirrored in post.ID.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = docstore.NewPushKey()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	return insertRow(ctx, r.store, CollectionPosts, post.ID, post)
}

// FindByID returns a single post.
func (r *PostRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := loadRow(ctx, r.store, CollectionPosts, id, &post); err != nil {
		return nil, err
	}
	post.ID = id
	return &post, nil
}

// List returns posts newest first. An empty authorID returns every post.
func (r *PostRepository) List(ctx context.Context, authorID string) ([]models.Post, error) {
	rows, err := loadCollection[models.Post](ctx, r.store, CollectionPosts)
	if err != nil {
		return nil, err
	}
	posts := make([]models.Post, 0, len(rows))
	for key, post := range rows {
		if authorID != "" && post.AuthorID != authorID {
			continue
		}
		post.ID = key
		posts = append(posts, post)
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// UpdateMessage replaces the text of a post and flags it as edited.
func (r *PostRepository) UpdateMessage(ctx context.Context, id, message string, updatedAt time.Time) error {
	path := docstore.Join(CollectionPosts, id)
	fields := map[string]interface{}{
		"message":   message,
		"edited":    true,
		"updatedAt": updatedAt,
	}
	if err := r.store.Update(ctx, path, fields); err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}

// ToggleLike flips the like of userID on a post and recomputes likeCount from the likes map.
func (r *PostRepository) ToggleLike(ctx context.Context, id, userID string) (liked bool, count int, err error) {
	likePath := docstore.Join(CollectionPosts, id, "likes", userID)
	var current bool
	if _, err := r.store.Get(ctx, likePath, &current); err != nil {
		return false, 0, fmt.Errorf("get %s: %w", likePath, err)
	}

	var next interface{}
	if !current {
		next = true
	}
	if err := r.store.Set(ctx, likePath, next); err != nil {
		return false, 0, fmt.Errorf("set %s: %w", likePath, err)
	}

	likes := map[string]bool{}
	likesPath := docstore.Join(CollectionPosts, id, "likes")
	if _, err := r.store.Get(ctx, likesPath, &likes); err != nil {
		return false, 0, fmt.Errorf("get %s: %w", likesPath, err)
	}
	path := docstore.Join(CollectionPosts, id)
	if err := r.store.Update(ctx, path, map[string]interface{}{"likeCount": len(likes)}); err != nil {
		return false, 0, fmt.Errorf("update %s: %w", path, err)
	}
	return !current, len(likes), nil
}

// Delete removes a post.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, r.store, CollectionPosts, id)
}
