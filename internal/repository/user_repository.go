package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/docstore"
)

// UserRepository persists identity records under Users.
type UserRepository struct {
	store docstore.Store
}

// NewUserRepository constructs the repository.
func NewUserRepository(store docstore.Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create stores a new user under a fresh push key and assigns user.ID.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = docstore.NewPushKey()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	return insertRow(ctx, r.store, CollectionUsers, user.ID, user)
}

// FindByID returns the user stored under id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := loadRow(ctx, r.store, CollectionUsers, id, &user); err != nil {
		return nil, err
	}
	user.ID = id
	return &user, nil
}

// FindByIDs resolves several users at once; unknown ids are skipped.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	users := make(map[string]models.User, len(ids))
	for _, id := range ids {
		if _, ok := users[id]; ok {
			continue
		}
		user, err := r.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		users[id] = *user
	}
	return users, nil
}

// FindByUsername scans Users for an exact, case-sensitive username match.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	rows, err := loadCollection[models.User](ctx, r.store, CollectionUsers)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rows))
	for key := range rows {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		user := rows[key]
		if user.Username == username {
			user.ID = key
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

// ExistsByUsername reports whether any user already holds username.
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateProfileImage sets the profile image URL.
func (r *UserRepository) UpdateProfileImage(ctx context.Context, id, url string) error {
	path := docstore.Join(CollectionUsers, id)
	if err := r.store.Update(ctx, path, map[string]interface{}{"profileImage": url}); err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}

// Delete removes a user row.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, r.store, CollectionUsers, id)
}
