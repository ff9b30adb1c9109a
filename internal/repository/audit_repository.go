package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/docstore"
)

// AuditRepository appends audit trail records under AuditLogs.
type AuditRepository struct {
	store docstore.Store
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(store docstore.Store) *AuditRepository {
	return &AuditRepository{store: store}
}

// CreateAuditLog pushes a record and assigns its key to log.ID.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	key, err := r.store.Push(ctx, CollectionAuditLogs, log)
	if err != nil {
		return fmt.Errorf("push %s: %w", CollectionAuditLogs, err)
	}
	log.ID = key
	return nil
}
