package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"netfence/internal/domain"
)

const segmentColumns = `id, vlan_id, name, description, wan_access, network_prefix, created_at, updated_at`

func scanSegment(row interface{ Scan(...any) error }) (*domain.Segment, error) {
	var (
		s           domain.Segment
		description sql.NullString
	)
	err := row.Scan(&s.ID, &s.VlanID, &s.Name, &description, &s.WanAccess,
		&s.NetworkPrefix, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Description = nullToString(description)
	return &s, nil
}

// ListSegments returns all segments ordered by VLAN tag.
func (r *Repository) ListSegments(ctx context.Context) ([]domain.Segment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+segmentColumns+` FROM segments ORDER BY vlan_id`)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var segments []domain.Segment
	for rows.Next() {
		segment, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		segments = append(segments, *segment)
	}
	return segments, translateErr(rows.Err())
}

// GetSegment retrieves a segment by row id.
func (r *Repository) GetSegment(ctx context.Context, id int64) (*domain.Segment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+segmentColumns+` FROM segments WHERE id = ?`, id)
	segment, err := scanSegment(row)
	if err != nil {
		return nil, translateErr(err)
	}
	return segment, nil
}

// GetSegmentByVlanID retrieves a segment by its VLAN tag.
func (r *Repository) GetSegmentByVlanID(ctx context.Context, vlanID int) (*domain.Segment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+segmentColumns+` FROM segments WHERE vlan_id = ?`, vlanID)
	segment, err := scanSegment(row)
	if err != nil {
		return nil, translateErr(err)
	}
	return segment, nil
}

// CreateSegment inserts a new segment. VLAN tag uniqueness surfaces as
// ErrConflict.
func (r *Repository) CreateSegment(ctx context.Context, segment *domain.Segment) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO segments (vlan_id, name, description, wan_access, network_prefix, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, segment.VlanID, segment.Name, stringToNull(segment.Description), segment.WanAccess,
		segment.NetworkPrefix, now, now)
	if err != nil {
		return translateErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return translateErr(err)
	}
	segment.ID = id
	segment.CreatedAt = now
	segment.UpdatedAt = now
	return nil
}

// UpdateSegment rewrites all editable fields of a segment.
func (r *Repository) UpdateSegment(ctx context.Context, segment *domain.Segment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE segments
		SET vlan_id = ?, name = ?, description = ?, wan_access = ?, network_prefix = ?, updated_at = ?
		WHERE id = ?
	`, segment.VlanID, segment.Name, stringToNull(segment.Description), segment.WanAccess,
		segment.NetworkPrefix, time.Now().UTC(), segment.ID)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteSegment removes a segment in one transaction: referencing
// devices and port PVIDs are detached (SET NULL), communication rules
// and memberships cascade away with the row.
func (r *Repository) DeleteSegment(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM segments WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}
