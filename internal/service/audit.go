package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"netfence/internal/domain"
	"netfence/internal/repository"
)

const auditWriteTimeout = 5 * time.Second

// AuditRecorder appends security-relevant entries to the audit trail.
// Writes are best-effort: a failed insert is logged for operators and
// never fails or rolls back the operation it records.
type AuditRecorder struct {
	store repository.Store
	log   zerolog.Logger
}

// NewAuditRecorder creates an audit recorder over the store.
func NewAuditRecorder(store repository.Store, log zerolog.Logger) *AuditRecorder {
	return &AuditRecorder{store: store, log: log.With().Str("component", "audit").Logger()}
}

// Record appends one entry. It detaches from the caller's cancellation
// so an aborted request cannot lose the record of what it already did.
func (r *AuditRecorder) Record(ctx context.Context, actorID *int64, action, entityType string, entityID *int64, details map[string]any, origin string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	entry := &domain.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		Origin:     origin,
	}
	if err := r.store.InsertAuditEntry(ctx, entry); err != nil {
		r.log.Error().Err(err).
			Str("action", action).
			Str("entity_type", entityType).
			Msg("audit write failed")
	}
}

// List returns the newest entries, capped at limit.
func (r *AuditRecorder) List(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	entries, err := r.store.ListAuditEntries(ctx, limit)
	if err != nil {
		return nil, storage(err)
	}
	return entries, nil
}
