package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/docstore"
)

// CourseRepository persists the course catalog under Courses/{courseId}.
type CourseRepository struct {
	store docstore.Store
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(store docstore.Store) *CourseRepository {
	return &CourseRepository{store: store}
}

// FindByID returns the course stored under its derived id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := loadRow(ctx, r.store, CollectionCourses, id, &course); err != nil {
		return nil, err
	}
	course.ID = id
	return &course, nil
}

// List returns the whole catalog ordered by course id.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	rows, err := loadCollection[models.Course](ctx, r.store, CollectionCourses)
	if err != nil {
		return nil, err
	}
	courses := make([]models.Course, 0, len(rows))
	for key, course := range rows {
		course.ID = key
		courses = append(courses, course)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

// CreateIfAbsent stores the course unless its id is already present. It reports whether a row was created.
func (r *CourseRepository) CreateIfAbsent(ctx context.Context, course *models.Course) (bool, error) {
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	path := docstore.Join(CollectionCourses, course.ID)
	created, err := r.store.SetIfAbsent(ctx, path, course)
	if err != nil {
		return false, fmt.Errorf("create %s: %w", path, err)
	}
	return created, nil
}

// Delete removes a course row.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, r.store, CollectionCourses, id)
}
