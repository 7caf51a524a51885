package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"netfence/internal/domain"
)

// InsertAuditEntry appends one audit record. The table is append-only;
// no update or delete path exists in this package.
func (r *Repository) InsertAuditEntry(ctx context.Context, entry *domain.AuditEntry) error {
	var details sql.NullString
	if entry.Details != nil {
		data, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
		details = sql.NullString{String: string(data), Valid: true}
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (actor_id, action, entity_type, entity_id, details, origin, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, int64PtrToNull(entry.ActorID), entry.Action, stringToNull(entry.EntityType),
		int64PtrToNull(entry.EntityID), details, stringToNull(entry.Origin), now)
	if err != nil {
		return translateErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return translateErr(err)
	}
	entry.ID = id
	entry.CreatedAt = now
	return nil
}

// ListAuditEntries returns the newest entries first, capped at limit.
func (r *Repository) ListAuditEntries(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, actor_id, action, entity_type, entity_id, details, origin, created_at
		FROM audit_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			e                   domain.AuditEntry
			actorID, entityID   sql.NullInt64
			entityType, details sql.NullString
			origin              sql.NullString
		)
		if err := rows.Scan(&e.ID, &actorID, &e.Action, &entityType, &entityID, &details, &origin, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		e.ActorID = nullToInt64Ptr(actorID)
		e.EntityID = nullToInt64Ptr(entityID)
		e.EntityType = nullToString(entityType)
		e.Origin = nullToString(origin)
		if details.Valid {
			if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
				return nil, fmt.Errorf("failed to decode audit details: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, translateErr(rows.Err())
}
