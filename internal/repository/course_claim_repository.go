package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/docstore"
)

// CourseClaimRepository guards the one-teacher-per-course rule with conditional creates on
// CourseClaims/{courseId}.
type CourseClaimRepository struct {
	store docstore.Store
}

// NewCourseClaimRepository constructs the repository.
func NewCourseClaimRepository(store docstore.Store) *CourseClaimRepository {
	return &CourseClaimRepository{store: store}
}

// Claim reserves courseID for teacherID. It returns false when another teacher holds the claim.
func (r *CourseClaimRepository) Claim(ctx context.Context, courseID, teacherID string) (bool, error) {
	path := docstore.Join(CollectionCourseClaims, courseID)
	claimed, err := r.store.SetIfAbsent(ctx, path, models.CourseClaim{TeacherID: teacherID, ClaimedAt: time.Now().UTC()})
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", path, err)
	}
	return claimed, nil
}

// Find returns the current claim on courseID.
func (r *CourseClaimRepository) Find(ctx context.Context, courseID string) (*models.CourseClaim, error) {
	var claim models.CourseClaim
	if err := loadRow(ctx, r.store, CollectionCourseClaims, courseID, &claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

// Release drops the claim on courseID.
func (r *CourseClaimRepository) Release(ctx context.Context, courseID string) error {
	return deleteRow(ctx, r.store, CollectionCourseClaims, courseID)
}
