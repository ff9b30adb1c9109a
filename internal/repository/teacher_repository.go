package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/docstore"
)

// TeacherRepository persists teacher role rows under Teachers.
type TeacherRepository struct {
	store docstore.Store
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(store docstore.Store) *TeacherRepository {
	return &TeacherRepository{store: store}
}

// Create stores a teacher row under a fresh push key and assigns teacher.ID (the teacher key).
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = docstore.NewPushKey()
	}
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = time.Now().UTC()
	}
	return insertRow(ctx, r.store, CollectionTeachers, teacher.ID, teacher)
}

// FindByID returns the teacher stored under the teacher key.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := loadRow(ctx, r.store, CollectionTeachers, id, &teacher); err != nil {
		return nil, err
	}
	teacher.ID = id
	return &teacher, nil
}

// FindByUserID resolves the teacher row that points at userID by scanning Teachers.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	rows, err := loadCollection[models.Teacher](ctx, r.store, CollectionTeachers)
	if err != nil {
		return nil, err
	}
	for key, teacher := range rows {
		if teacher.UserID == userID {
			teacher.ID = key
			return &teacher, nil
		}
	}
	return nil, ErrNotFound
}

// List returns every teacher keyed by teacher key.
func (r *TeacherRepository) List(ctx context.Context) (map[string]models.Teacher, error) {
	rows, err := loadCollection[models.Teacher](ctx, r.store, CollectionTeachers)
	if err != nil {
		return nil, err
	}
	for key, teacher := range rows {
		teacher.ID = key
		rows[key] = teacher
	}
	return rows, nil
}

// UpdateProfileImage mirrors the user's profile image on the teacher row.
func (r *TeacherRepository) UpdateProfileImage(ctx context.Context, id, url string) error {
	path := docstore.Join(CollectionTeachers, id)
	if err := r.store.Update(ctx, path, map[string]interface{}{"profileImage": url}); err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}

// Delete removes a teacher row.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, r.store, CollectionTeachers, id)
}
