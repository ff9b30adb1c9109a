package repository

import (
	"context"
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/docstore"
)

// ParentRepository persists parent role rows under Parents.
type ParentRepository struct {
	store docstore.Store
}

// NewParentRepository constructs the repository.
func NewParentRepository(store docstore.Store) *ParentRepository {
	return &ParentRepository{store: store}
}

// Create stores a parent row under a fresh push key and assigns parent.ID.
func (r *ParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = docstore.NewPushKey()
	}
	if parent.CreatedAt.IsZero() {
		parent.CreatedAt = time.Now().UTC()
	}
	return insertRow(ctx, r.store, CollectionParents, parent.ID, parent)
}

// FindByUserID resolves the parent row that points at userID.
func (r *ParentRepository) FindByUserID(ctx context.Context, userID string) (*models.Parent, error) {
	rows, err := loadCollection[models.Parent](ctx, r.store, CollectionParents)
	if err != nil {
		return nil, err
	}
	for key, parent := range rows {
		if parent.UserID == userID {
			parent.ID = key
			return &parent, nil
		}
	}
	return nil, ErrNotFound
}

// Delete removes a parent row.
func (r *ParentRepository) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, r.store, CollectionParents, id)
}
