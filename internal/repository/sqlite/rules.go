package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"netfence/internal/domain"
)

// ListRules returns the whole communication matrix.
func (r *Repository) ListRules(ctx context.Context) ([]domain.CommunicationRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_vlan_id, target_vlan_id, access_type, created_at
		FROM communication_rules
		ORDER BY source_vlan_id, target_vlan_id
	`)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var rules []domain.CommunicationRule
	for rows.Next() {
		var rule domain.CommunicationRule
		if err := rows.Scan(&rule.ID, &rule.SourceVlanID, &rule.TargetVlanID, &rule.AccessType, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, translateErr(rows.Err())
}

// GetRule retrieves a rule by row id.
func (r *Repository) GetRule(ctx context.Context, id int64) (*domain.CommunicationRule, error) {
	var rule domain.CommunicationRule
	err := r.db.QueryRowContext(ctx, `
		SELECT id, source_vlan_id, target_vlan_id, access_type, created_at
		FROM communication_rules WHERE id = ?
	`, id).Scan(&rule.ID, &rule.SourceVlanID, &rule.TargetVlanID, &rule.AccessType, &rule.CreatedAt)
	if err != nil {
		return nil, translateErr(err)
	}
	return &rule, nil
}

// GetRuleByPair retrieves the rule for the ordered (source, target)
// pair. The reverse pair is a distinct rule.
func (r *Repository) GetRuleByPair(ctx context.Context, sourceVlanID, targetVlanID int) (*domain.CommunicationRule, error) {
	var rule domain.CommunicationRule
	err := r.db.QueryRowContext(ctx, `
		SELECT id, source_vlan_id, target_vlan_id, access_type, created_at
		FROM communication_rules WHERE source_vlan_id = ? AND target_vlan_id = ?
	`, sourceVlanID, targetVlanID).Scan(&rule.ID, &rule.SourceVlanID, &rule.TargetVlanID, &rule.AccessType, &rule.CreatedAt)
	if err != nil {
		return nil, translateErr(err)
	}
	return &rule, nil
}

// UpsertRule inserts a rule or overwrites the access type of the
// existing rule for the same ordered pair.
func (r *Repository) UpsertRule(ctx context.Context, rule *domain.CommunicationRule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO communication_rules (source_vlan_id, target_vlan_id, access_type, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (source_vlan_id, target_vlan_id)
		DO UPDATE SET access_type = excluded.access_type
	`, rule.SourceVlanID, rule.TargetVlanID, rule.AccessType, time.Now().UTC())
	if err != nil {
		return translateErr(err)
	}

	stored, err := r.GetRuleByPair(ctx, rule.SourceVlanID, rule.TargetVlanID)
	if err != nil {
		return err
	}
	*rule = *stored
	return nil
}

// DeleteRule removes a rule; its exceptions cascade away.
func (r *Repository) DeleteRule(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM communication_rules WHERE id = ?`, id)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListLimitedDevices returns the exception set for a rule.
func (r *Repository) ListLimitedDevices(ctx context.Context, ruleID int64) ([]domain.LimitedDeviceException, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, rule_id, device_id, created_at
		FROM limited_device_access WHERE rule_id = ?
		ORDER BY device_id
	`, ruleID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var exceptions []domain.LimitedDeviceException
	for rows.Next() {
		var e domain.LimitedDeviceException
		if err := rows.Scan(&e.ID, &e.RuleID, &e.DeviceID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exception: %w", err)
		}
		exceptions = append(exceptions, e)
	}
	return exceptions, translateErr(rows.Err())
}

// IsLimitedDevice reports whether a device holds an exception on a rule.
func (r *Repository) IsLimitedDevice(ctx context.Context, ruleID, deviceID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM limited_device_access WHERE rule_id = ? AND device_id = ?
	`, ruleID, deviceID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, translateErr(err)
	}
	return true, nil
}

// ReplaceLimitedDevices swaps the full exception set for a rule: delete
// everything, insert the provided set, one transaction. An empty set
// clears all exceptions.
func (r *Repository) ReplaceLimitedDevices(ctx context.Context, ruleID int64, deviceIDs []int64) error {
	var insert func(stmt *sql.Stmt) error
	if len(deviceIDs) > 0 {
		now := time.Now().UTC()
		insert = func(stmt *sql.Stmt) error {
			for _, deviceID := range deviceIDs {
				if _, err := stmt.ExecContext(ctx, ruleID, deviceID, now); err != nil {
					return err
				}
			}
			return nil
		}
	}

	return r.replaceAssociationSet(ctx, ruleID,
		`SELECT 1 FROM communication_rules WHERE id = ?`,
		`DELETE FROM limited_device_access WHERE rule_id = ?`,
		`INSERT INTO limited_device_access (rule_id, device_id, created_at) VALUES (?, ?, ?)`,
		insert)
}
