package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/docstore"
)

// SchoolAdminRepository persists admin role rows under School_Admins.
type SchoolAdminRepository struct {
	store docstore.Store
}

// NewSchoolAdminRepository constructs the repository.
func NewSchoolAdminRepository(store docstore.Store) *SchoolAdminRepository {
	return &SchoolAdminRepository{store: store}
}

// Create stores an admin row; the row key is mirrored in admin.ID (adminId).
func (r *SchoolAdminRepository) Create(ctx context.Context, admin *models.SchoolAdmin) error {
	if admin.ID == "" {
		admin.ID = docstore.NewPushKey()
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	return insertRow(ctx, r.store, CollectionSchoolAdmins, admin.ID, admin)
}

// FindByUserID resolves the admin row that points at userID.
func (r *SchoolAdminRepository) FindByUserID(ctx context.Context, userID string) (*models.SchoolAdmin, error) {
	rows, err := loadCollection[models.SchoolAdmin](ctx, r.store, CollectionSchoolAdmins)
	if err != nil {
		return nil, err
	}
	for key, admin := range rows {
		if admin.UserID == userID {
			admin.ID = key
			return &admin, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateProfileImage mirrors the user's profile image on the admin row.
func (r *SchoolAdminRepository) UpdateProfileImage(ctx context.Context, id, url string) error {
	path := docstore.Join(CollectionSchoolAdmins, id)
	if err := r.store.Update(ctx, path, map[string]interface{}{"profileImage": url}); err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}

// Delete removes an admin row.
func (r *SchoolAdminRepository) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, r.store, CollectionSchoolAdmins, id)
}
