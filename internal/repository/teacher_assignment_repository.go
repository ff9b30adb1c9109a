package repository

import (
	"context"
	"sort"
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/docstore"
)

// TeacherAssignmentRepository persists the assignment ledger under TeacherAssignments/{pushKey}.
type TeacherAssignmentRepository struct {
	store docstore.Store
}

// NewTeacherAssignmentRepository constructs the repository.
func NewTeacherAssignmentRepository(store docstore.Store) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{store: store}
}

// Create appends an assignment under a fresh push key and assigns assignment.ID.
func (r *TeacherAssignmentRepository) Create(ctx context.Context, assignment *models.TeacherAssignment) error {
	if assignment.ID == "" {
		assignment.ID = docstore.NewPushKey()
	}
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	return insertRow(ctx, r.store, CollectionTeacherAssignments, assignment.ID, assignment)
}

// List returns the whole ledger in push order.
func (r *TeacherAssignmentRepository) List(ctx context.Context) ([]models.TeacherAssignment, error) {
	rows, err := loadCollection[models.TeacherAssignment](ctx, r.store, CollectionTeacherAssignments)
	if err != nil {
		return nil, err
	}
	assignments := make([]models.TeacherAssignment, 0, len(rows))
	for key, assignment := range rows {
		assignment.ID = key
		assignments = append(assignments, assignment)
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].ID < assignments[j].ID })
	return assignments, nil
}

// ListByTeacher returns the assignments held by teacherID in push order.
func (r *TeacherAssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]models.TeacherAssignment, 0)
	for _, assignment := range all {
		if assignment.TeacherID == teacherID {
			matched = append(matched, assignment)
		}
	}
	return matched, nil
}

// FindByCourse returns the first assignment referencing courseID.
func (r *TeacherAssignmentRepository) FindByCourse(ctx context.Context, courseID string) (*models.TeacherAssignment, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, assignment := range all {
		if assignment.CourseID == courseID {
			a := assignment
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

// Delete removes an assignment.
func (r *TeacherAssignmentRepository) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, r.store, CollectionTeacherAssignments, id)
}
