package sqlite

import (
	"context"
	"fmt"
	"time"

	"netfence/internal/domain"
)

// ListReservations returns a segment's reservations ordered by id.
func (r *Repository) ListReservations(ctx context.Context, vlanID int) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, vlan_id, device_type, group_range, created_at, updated_at
		FROM reservations WHERE vlan_id = ?
		ORDER BY id
	`, vlanID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.VlanID, &res.DeviceType, &res.GroupRange, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	return reservations, translateErr(rows.Err())
}

// CreateReservation inserts a new reservation. A dangling segment
// reference surfaces as ErrNotFound.
func (r *Repository) CreateReservation(ctx context.Context, reservation *domain.Reservation) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO reservations (vlan_id, device_type, group_range, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, reservation.VlanID, reservation.DeviceType, reservation.GroupRange, now, now)
	if err != nil {
		return translateErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return translateErr(err)
	}
	reservation.ID = id
	reservation.CreatedAt = now
	reservation.UpdatedAt = now
	return nil
}

// UpdateReservation rewrites a reservation's labels.
func (r *Repository) UpdateReservation(ctx context.Context, reservation *domain.Reservation) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reservations SET device_type = ?, group_range = ?, updated_at = ? WHERE id = ?
	`, reservation.DeviceType, reservation.GroupRange, time.Now().UTC(), reservation.ID)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteReservation removes a reservation.
func (r *Repository) DeleteReservation(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
