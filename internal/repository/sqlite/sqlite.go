// Package sqlite implements repository.Store on SQLite via the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"netfence/internal/domain"

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Repository implements repository.Store using SQLite
type Repository struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and applies the schema.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer at a time; a single pooled connection
	// keeps transactions serialized and makes :memory: usable in tests.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('admin', 'viewer')),
		failed_attempts INTEGER NOT NULL DEFAULT 0,
		locked_until DATETIME,
		last_login DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS segments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		vlan_id INTEGER UNIQUE NOT NULL CHECK (vlan_id BETWEEN 1 AND 4094),
		name TEXT NOT NULL,
		description TEXT,
		wan_access INTEGER NOT NULL DEFAULT 1,
		network_prefix TEXT NOT NULL DEFAULT '192.168',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS devices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ip TEXT NOT NULL,
		mac TEXT NOT NULL,
		vlan_id INTEGER REFERENCES segments(vlan_id) ON DELETE SET NULL,
		wan_access INTEGER NOT NULL DEFAULT 1,
		interface TEXT NOT NULL DEFAULT 'ETH' CHECK (interface IN ('ETH', 'Wi-Fi')),
		ports TEXT NOT NULL DEFAULT '[]',
		description TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (ip, vlan_id)
	);
	CREATE INDEX IF NOT EXISTS idx_devices_vlan_id ON devices(vlan_id);
	CREATE INDEX IF NOT EXISTS idx_devices_mac ON devices(mac);

	CREATE TABLE IF NOT EXISTS communication_rules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_vlan_id INTEGER NOT NULL REFERENCES segments(vlan_id) ON DELETE CASCADE,
		target_vlan_id INTEGER NOT NULL REFERENCES segments(vlan_id) ON DELETE CASCADE,
		access_type TEXT NOT NULL CHECK (access_type IN ('full', 'limited', 'blocked')),
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (source_vlan_id, target_vlan_id)
	);
	CREATE INDEX IF NOT EXISTS idx_rules_source ON communication_rules(source_vlan_id);
	CREATE INDEX IF NOT EXISTS idx_rules_target ON communication_rules(target_vlan_id);

	CREATE TABLE IF NOT EXISTS limited_device_access (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		rule_id INTEGER NOT NULL REFERENCES communication_rules(id) ON DELETE CASCADE,
		device_id INTEGER NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (rule_id, device_id)
	);

	CREATE TABLE IF NOT EXISTS reservations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		vlan_id INTEGER NOT NULL REFERENCES segments(vlan_id) ON DELETE CASCADE,
		device_type TEXT NOT NULL,
		group_range TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_reservations_vlan_id ON reservations(vlan_id);

	CREATE TABLE IF NOT EXISTS switches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		ip_address TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS switch_ports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		switch_id INTEGER NOT NULL REFERENCES switches(id) ON DELETE CASCADE,
		port_number INTEGER NOT NULL CHECK (port_number BETWEEN 1 AND 128),
		description TEXT,
		pvid INTEGER REFERENCES segments(vlan_id) ON DELETE SET NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (switch_id, port_number)
	);
	CREATE INDEX IF NOT EXISTS idx_switch_ports_switch ON switch_ports(switch_id);

	CREATE TABLE IF NOT EXISTS switch_port_vlans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		port_id INTEGER NOT NULL REFERENCES switch_ports(id) ON DELETE CASCADE,
		vlan_id INTEGER NOT NULL REFERENCES segments(vlan_id) ON DELETE CASCADE,
		tag_type TEXT NOT NULL CHECK (tag_type IN ('tagged', 'untagged', 'not_member')),
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (port_id, vlan_id)
	);
	CREATE INDEX IF NOT EXISTS idx_port_vlans_port ON switch_port_vlans(port_id);

	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		actor_id INTEGER REFERENCES accounts(id) ON DELETE SET NULL,
		action TEXT NOT NULL,
		entity_type TEXT,
		entity_id INTEGER,
		details TEXT,
		origin TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_actor ON audit_log(actor_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// translateErr maps driver errors onto the domain taxonomy so callers
// never see SQL detail.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var se *sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return domain.ErrConflict
		case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return domain.ErrNotFound
		}
	}

	return err
}

// withTx runs fn inside a transaction, rolling back on error or context
// cancellation.
func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return translateErr(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return translateErr(err)
	}

	if err := tx.Commit(); err != nil {
		return translateErr(err)
	}
	return nil
}

// replaceAssociationSet enforces the full-replace contract shared by
// the association tables: verify the parent row exists, delete the old
// set, insert the new one, all inside one transaction. A nil insert
// leaves the set empty.
func (r *Repository) replaceAssociationSet(ctx context.Context, parentID int64, existsQuery, deleteQuery, insertQuery string, insert func(stmt *sql.Stmt) error) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		if err := tx.QueryRowContext(ctx, existsQuery, parentID).Scan(&one); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, deleteQuery, parentID); err != nil {
			return err
		}

		if insert == nil {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, insertQuery)
		if err != nil {
			return err
		}
		defer stmt.Close()
		return insert(stmt)
	})
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
