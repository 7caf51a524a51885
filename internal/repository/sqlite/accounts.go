package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"netfence/internal/domain"
)

const accountColumns = `id, username, password_hash, role, failed_attempts, locked_until, last_login, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*domain.Account, error) {
	var (
		a                      domain.Account
		lockedUntil, lastLogin sql.NullTime
	)
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role, &a.FailedAttempts,
		&lockedUntil, &lastLogin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.LockedUntil = nullToTimePtr(lockedUntil)
	a.LastLogin = nullToTimePtr(lastLogin)
	return &a, nil
}

// GetAccountByID retrieves an account by id.
func (r *Repository) GetAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	account, err := scanAccount(row)
	if err != nil {
		return nil, translateErr(err)
	}
	return account, nil
}

// GetAccountByUsername retrieves an account by its unique username.
func (r *Repository) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)
	account, err := scanAccount(row)
	if err != nil {
		return nil, translateErr(err)
	}
	return account, nil
}

// ListAccounts returns all accounts ordered by id.
func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	return accounts, translateErr(rows.Err())
}

// CreateAccount inserts a new account in the Unlocked(0) state.
func (r *Repository) CreateAccount(ctx context.Context, account *domain.Account) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (username, password_hash, role, failed_attempts, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
	`, account.Username, account.PasswordHash, account.Role, now, now)
	if err != nil {
		return translateErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return translateErr(err)
	}
	account.ID = id
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

// DeleteAccount removes an account. Audit entries keep their rows with
// the actor reference nulled.
func (r *Repository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateAccountPassword replaces the stored credential hash.
func (r *Repository) UpdateAccountPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?
	`, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordFailedLogin increments the failed-attempt counter inside one
// transaction so concurrent attempts against the same account cannot
// lose updates. When the new count reaches threshold the lock timestamp
// is set in the same transaction.
func (r *Repository) RecordFailedLogin(ctx context.Context, id int64, threshold int, lockFor time.Duration) (int, *time.Time, error) {
	var (
		attempts    int
		lockedUntil *time.Time
	)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE accounts SET failed_attempts = failed_attempts + 1, updated_at = ? WHERE id = ?
		`, time.Now().UTC(), id); err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx, `SELECT failed_attempts FROM accounts WHERE id = ?`, id).Scan(&attempts); err != nil {
			return err
		}

		if attempts >= threshold {
			until := time.Now().UTC().Add(lockFor)
			if _, err := tx.ExecContext(ctx, `
				UPDATE accounts SET locked_until = ? WHERE id = ?
			`, until, id); err != nil {
				return err
			}
			lockedUntil = &until
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return attempts, lockedUntil, nil
}

// RecordSuccessfulLogin resets the lockout state machine to Unlocked(0)
// and stamps last_login.
func (r *Repository) RecordSuccessfulLogin(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET failed_attempts = 0, locked_until = NULL, last_login = ?, updated_at = ?
		WHERE id = ?
	`, now, now, id)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
