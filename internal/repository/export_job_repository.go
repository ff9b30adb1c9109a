package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/docstore"
)

// ExportJobRepository persists export job metadata under ExportJobs/{id}.
type ExportJobRepository struct {
	store docstore.Store
}

// NewExportJobRepository constructs the repository.
func NewExportJobRepository(store docstore.Store) *ExportJobRepository {
	return &ExportJobRepository{store: store}
}

// Create stores a new job with generated defaults.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = docstore.NewPushKey()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	return insertRow(ctx, r.store, CollectionExportJobs, job.ID, job)
}

// GetByID returns a job by its identifier.
func (r *ExportJobRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	var job models.ExportJob
	if err := loadRow(ctx, r.store, CollectionExportJobs, id, &job); err != nil {
		return nil, err
	}
	job.ID = id
	return &job, nil
}

// UpdateExportJobParams defines the mutable fields. Nil pointers are left untouched.
type UpdateExportJobParams struct {
	Status       *models.ExportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update applies the non-nil fields of params.
func (r *ExportJobRepository) Update(ctx context.Context, id string, params UpdateExportJobParams) error {
	fields := map[string]interface{}{}
	if params.Status != nil {
		fields["status"] = *params.Status
	}
	if params.Progress != nil {
		fields["progress"] = *params.Progress
	}
	if params.ResultURL != nil {
		fields["resultUrl"] = emptyAsNil(*params.ResultURL)
	}
	if params.ErrorMessage != nil {
		fields["errorMessage"] = emptyAsNil(*params.ErrorMessage)
	}
	if params.FinishedAt != nil {
		fields["finishedAt"] = *params.FinishedAt
	}
	if len(fields) == 0 {
		return nil
	}
	path := docstore.Join(CollectionExportJobs, id)
	if err := r.store.Update(ctx, path, fields); err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}

// ListQueued returns up to limit jobs still waiting for a worker, oldest first.
func (r *ExportJobRepository) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	return r.filter(ctx, limit, func(job models.ExportJob) bool {
		return job.Status == models.ExportStatusQueued
	})
}

// ListFinishedBefore returns up to limit finished jobs completed before cutoff.
func (r *ExportJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return r.filter(ctx, limit, func(job models.ExportJob) bool {
		return job.Status == models.ExportStatusFinished && job.FinishedAt != nil && job.FinishedAt.Before(cutoff)
	})
}

// Delete removes a job record.
func (r *ExportJobRepository) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, r.store, CollectionExportJobs, id)
}

func (r *ExportJobRepository) filter(ctx context.Context, limit int, keep func(models.ExportJob) bool) ([]models.ExportJob, error) {
	rows, err := loadCollection[models.ExportJob](ctx, r.store, CollectionExportJobs)
	if err != nil {
		return nil, err
	}
	jobs := make([]models.ExportJob, 0)
	for key, job := range rows {
		if !keep(job) {
			continue
		}
		job.ID = key
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func emptyAsNil(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
