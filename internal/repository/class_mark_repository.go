package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/docstore"
)

// ClassMarkRepository persists marks under ClassMarks/{courseId}/{studentId}.
type ClassMarkRepository struct {
	store docstore.Store
}

// NewClassMarkRepository constructs the repository.
func NewClassMarkRepository(store docstore.Store) *ClassMarkRepository {
	return &ClassMarkRepository{store: store}
}

// ListByCourse returns every stored mark record of a course keyed by studentId.
func (r *ClassMarkRepository) ListByCourse(ctx context.Context, courseID string) (map[string]models.ClassMark, error) {
	marks := map[string]models.ClassMark{}
	if err := loadRow(ctx, r.store, CollectionClassMarks, courseID, &marks); err != nil {
		if errors.Is(err, ErrNotFound) {
			return map[string]models.ClassMark{}, nil
		}
		return nil, err
	}
	return marks, nil
}

// Find returns the mark record of one student; found is false when none is stored.
func (r *ClassMarkRepository) Find(ctx context.Context, courseID, studentID string) (models.ClassMark, bool, error) {
	var mark models.ClassMark
	path := docstore.Join(CollectionClassMarks, courseID, studentID)
	found, err := r.store.Get(ctx, path, &mark)
	if err != nil {
		return models.ClassMark{}, false, fmt.Errorf("get %s: %w", path, err)
	}
	return mark, found, nil
}

// ReplaceMany overwrites the mark records of the given students in a single row update.
// Each record is replaced as a whole; fields not present in the new record are dropped.
func (r *ClassMarkRepository) ReplaceMany(ctx context.Context, courseID string, marks map[string]models.ClassMark) error {
	if len(marks) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(marks))
	for studentID, mark := range marks {
		fields[studentID] = mark
	}
	path := docstore.Join(CollectionClassMarks, courseID)
	if err := r.store.Update(ctx, path, fields); err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}
