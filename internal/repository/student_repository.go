package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/docstore"
)

// StudentRepository persists student role rows under Students.
type StudentRepository struct {
	store docstore.Store
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(store docstore.Store) *StudentRepository {
	return &StudentRepository{store: store}
}

// Create stores a student row under a fresh push key and assigns student.ID.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = docstore.NewPushKey()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	return insertRow(ctx, r.store, CollectionStudents, student.ID, student)
}

// FindByID returns the student row stored under id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := loadRow(ctx, r.store, CollectionStudents, id, &student); err != nil {
		return nil, err
	}
	student.ID = id
	return &student, nil
}

// List returns every student ordered by key.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	rows, err := loadCollection[models.Student](ctx, r.store, CollectionStudents)
	if err != nil {
		return nil, err
	}
	students := make([]models.Student, 0, len(rows))
	for key, student := range rows {
		student.ID = key
		students = append(students, student)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

// ListByClass returns the students whose grade and section match.
func (r *StudentRepository) ListByClass(ctx context.Context, grade models.GradeLevel, section string) ([]models.Student, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]models.Student, 0)
	for _, student := range all {
		if student.InClass(grade, section) {
			matched = append(matched, student)
		}
	}
	return matched, nil
}

// FindByUserID resolves the student row that points at userID.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, student := range all {
		if student.UserID == userID {
			s := student
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

// UpdatePlacement moves a student to another grade and/or section.
func (r *StudentRepository) UpdatePlacement(ctx context.Context, id string, grade models.GradeLevel, section string, updatedAt time.Time) error {
	path := docstore.Join(CollectionStudents, id)
	fields := map[string]interface{}{
		"grade":     grade,
		"section":   section,
		"updatedAt": updatedAt,
	}
	if err := r.store.Update(ctx, path, fields); err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}

// Delete removes a student row.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, r.store, CollectionStudents, id)
}
