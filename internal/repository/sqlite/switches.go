package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"netfence/internal/domain"
)

// ListSwitches returns all switches ordered by name.
func (r *Repository) ListSwitches(ctx context.Context) ([]domain.Switch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, ip_address, created_at, updated_at
		FROM switches ORDER BY name
	`)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var switches []domain.Switch
	for rows.Next() {
		var (
			sw                     domain.Switch
			description, ipAddress sql.NullString
		)
		if err := rows.Scan(&sw.ID, &sw.Name, &description, &ipAddress, &sw.CreatedAt, &sw.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan switch: %w", err)
		}
		sw.Description = nullToString(description)
		sw.IPAddress = nullToString(ipAddress)
		switches = append(switches, sw)
	}
	return switches, translateErr(rows.Err())
}

// CreateSwitch inserts a new switch.
func (r *Repository) CreateSwitch(ctx context.Context, sw *domain.Switch) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO switches (name, description, ip_address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, sw.Name, stringToNull(sw.Description), stringToNull(sw.IPAddress), now, now)
	if err != nil {
		return translateErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return translateErr(err)
	}
	sw.ID = id
	sw.CreatedAt = now
	sw.UpdatedAt = now
	return nil
}

// UpdateSwitch rewrites a switch's editable fields.
func (r *Repository) UpdateSwitch(ctx context.Context, sw *domain.Switch) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE switches SET name = ?, description = ?, ip_address = ?, updated_at = ? WHERE id = ?
	`, sw.Name, stringToNull(sw.Description), stringToNull(sw.IPAddress), time.Now().UTC(), sw.ID)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteSwitch removes a switch; its ports and their memberships cascade.
func (r *Repository) DeleteSwitch(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM switches WHERE id = ?`, id)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSwitchPort(row interface{ Scan(...any) error }) (*domain.SwitchPort, error) {
	var (
		p           domain.SwitchPort
		description sql.NullString
		pvid        sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.SwitchID, &p.PortNumber, &description, &pvid, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = nullToString(description)
	p.PVID = nullToIntPtr(pvid)
	return &p, nil
}

// ListSwitchPorts returns a switch's ports with their VLAN memberships
// joined in, ordered by port number.
func (r *Repository) ListSwitchPorts(ctx context.Context, switchID int64) ([]domain.SwitchPort, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, switch_id, port_number, description, pvid, created_at, updated_at
		FROM switch_ports WHERE switch_id = ?
		ORDER BY port_number
	`, switchID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var ports []domain.SwitchPort
	for rows.Next() {
		port, err := scanSwitchPort(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan port: %w", err)
		}
		ports = append(ports, *port)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr(err)
	}

	for i := range ports {
		vlans, err := r.GetPortVlans(ctx, ports[i].ID)
		if err != nil {
			return nil, err
		}
		ports[i].Vlans = vlans
	}
	return ports, nil
}

// GetSwitchPort retrieves a single port with its memberships.
func (r *Repository) GetSwitchPort(ctx context.Context, id int64) (*domain.SwitchPort, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, switch_id, port_number, description, pvid, created_at, updated_at
		FROM switch_ports WHERE id = ?
	`, id)
	port, err := scanSwitchPort(row)
	if err != nil {
		return nil, translateErr(err)
	}

	if port.Vlans, err = r.GetPortVlans(ctx, port.ID); err != nil {
		return nil, err
	}
	return port, nil
}

// CreateSwitchPort inserts a new port. Duplicate port numbers on the
// same switch surface as ErrConflict.
func (r *Repository) CreateSwitchPort(ctx context.Context, port *domain.SwitchPort) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO switch_ports (switch_id, port_number, description, pvid, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, port.SwitchID, port.PortNumber, stringToNull(port.Description), intPtrToNull(port.PVID), now, now)
	if err != nil {
		return translateErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return translateErr(err)
	}
	port.ID = id
	port.CreatedAt = now
	port.UpdatedAt = now
	return nil
}

// UpdateSwitchPort rewrites a port's editable fields.
func (r *Repository) UpdateSwitchPort(ctx context.Context, port *domain.SwitchPort) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE switch_ports SET port_number = ?, description = ?, pvid = ?, updated_at = ? WHERE id = ?
	`, port.PortNumber, stringToNull(port.Description), intPtrToNull(port.PVID), time.Now().UTC(), port.ID)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteSwitchPort removes a port; its memberships cascade.
func (r *Repository) DeleteSwitchPort(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM switch_ports WHERE id = ?`, id)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetPortVlans returns a port's membership rows. A segment without a
// row is not a member.
func (r *Repository) GetPortVlans(ctx context.Context, portID int64) ([]domain.PortVlanMembership, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT vlan_id, tag_type FROM switch_port_vlans WHERE port_id = ? ORDER BY vlan_id
	`, portID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var memberships []domain.PortVlanMembership
	for rows.Next() {
		var m domain.PortVlanMembership
		if err := rows.Scan(&m.VlanID, &m.TagType); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	return memberships, translateErr(rows.Err())
}

// ReplacePortVlans swaps the full membership set for a port: delete
// everything, insert the provided set, one transaction. An empty set
// clears all memberships.
func (r *Repository) ReplacePortVlans(ctx context.Context, portID int64, memberships []domain.PortVlanMembership) error {
	var insert func(stmt *sql.Stmt) error
	if len(memberships) > 0 {
		now := time.Now().UTC()
		insert = func(stmt *sql.Stmt) error {
			for _, m := range memberships {
				if _, err := stmt.ExecContext(ctx, portID, m.VlanID, m.TagType, now); err != nil {
					return err
				}
			}
			return nil
		}
	}

	return r.replaceAssociationSet(ctx, portID,
		`SELECT 1 FROM switch_ports WHERE id = ?`,
		`DELETE FROM switch_port_vlans WHERE port_id = ?`,
		`INSERT INTO switch_port_vlans (port_id, vlan_id, tag_type, created_at) VALUES (?, ?, ?, ?)`,
		insert)
}
