package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"netfence/internal/domain"
)

// ListDevices returns all devices with their segment's name and prefix
// joined in for display, ordered by segment then address.
func (r *Repository) ListDevices(ctx context.Context) ([]domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT d.id, d.ip, d.mac, d.vlan_id, d.wan_access, d.interface, d.ports, d.description,
		       d.created_at, d.updated_at, s.name, s.network_prefix
		FROM devices d
		LEFT JOIN segments s ON d.vlan_id = s.vlan_id
		ORDER BY d.vlan_id, d.ip
	`)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		var (
			d                               domain.Device
			vlanID                          sql.NullInt64
			ports                           string
			description, vlanName, prefix   sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.IP, &d.MAC, &vlanID, &d.WanAccess, &d.Interface, &ports,
			&description, &d.CreatedAt, &d.UpdatedAt, &vlanName, &prefix); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}

		d.VlanID = nullToIntPtr(vlanID)
		d.Description = nullToString(description)
		d.VlanName = nullToString(vlanName)
		d.NetworkPrefix = nullToString(prefix)
		if d.Ports, err = decodePorts(ports); err != nil {
			return nil, fmt.Errorf("failed to decode ports for device %d: %w", d.ID, err)
		}
		devices = append(devices, d)
	}
	return devices, translateErr(rows.Err())
}

// GetDevice retrieves a single device by id.
func (r *Repository) GetDevice(ctx context.Context, id int64) (*domain.Device, error) {
	var (
		d           domain.Device
		vlanID      sql.NullInt64
		ports       string
		description sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, ip, mac, vlan_id, wan_access, interface, ports, description, created_at, updated_at
		FROM devices WHERE id = ?
	`, id).Scan(&d.ID, &d.IP, &d.MAC, &vlanID, &d.WanAccess, &d.Interface, &ports,
		&description, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, translateErr(err)
	}

	d.VlanID = nullToIntPtr(vlanID)
	d.Description = nullToString(description)
	if d.Ports, err = decodePorts(ports); err != nil {
		return nil, fmt.Errorf("failed to decode ports: %w", err)
	}
	return &d, nil
}

// CreateDevice inserts a new device. The (ip, vlan_id) uniqueness
// constraint surfaces as ErrConflict, a dangling segment reference as
// ErrNotFound.
func (r *Repository) CreateDevice(ctx context.Context, device *domain.Device) error {
	ports, err := encodePorts(device.Ports)
	if err != nil {
		return fmt.Errorf("failed to encode ports: %w", err)
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (ip, mac, vlan_id, wan_access, interface, ports, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, device.IP, device.MAC, intPtrToNull(device.VlanID), device.WanAccess, device.Interface,
		ports, stringToNull(device.Description), now, now)
	if err != nil {
		return translateErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return translateErr(err)
	}
	device.ID = id
	device.CreatedAt = now
	device.UpdatedAt = now
	return nil
}

// UpdateDevice rewrites all editable fields of a device.
func (r *Repository) UpdateDevice(ctx context.Context, device *domain.Device) error {
	ports, err := encodePorts(device.Ports)
	if err != nil {
		return fmt.Errorf("failed to encode ports: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE devices
		SET ip = ?, mac = ?, vlan_id = ?, wan_access = ?, interface = ?, ports = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, device.IP, device.MAC, intPtrToNull(device.VlanID), device.WanAccess, device.Interface,
		ports, stringToNull(device.Description), time.Now().UTC(), device.ID)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteDevice removes a device; its limited-access exceptions cascade.
func (r *Repository) DeleteDevice(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
