package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"netfence/internal/domain"
)

// CreateAccountInput is the validated payload for account creation.
type CreateAccountInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ListAccounts returns every account (credential hashes are never
// serialized).
func (s *AuthService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, storage(err)
	}
	return accounts, nil
}

// GetAccount returns a single account by id.
func (s *AuthService) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	account, err := s.store.GetAccountByID(ctx, id)
	if err != nil {
		return nil, storage(err)
	}
	return account, nil
}

// CreateAccount validates and persists a new account in the Unlocked(0)
// state, then audits the creation.
func (s *AuthService) CreateAccount(ctx context.Context, actor *domain.Principal, origin string, input CreateAccountInput) (*domain.Account, error) {
	username, err := domain.ValidateUsername(input.Username)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	role, err := domain.ValidateRole(input.Role)
	if err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{Username: username, PasswordHash: hash, Role: role}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionCreate, "accounts", &account.ID,
		map[string]any{"username": username, "role": string(role)}, origin)
	return account, nil
}

// DeleteAccount removes an account. Deleting the acting principal's own
// account is rejected so a console cannot lock everyone out by accident.
func (s *AuthService) DeleteAccount(ctx context.Context, actor *domain.Principal, origin string, id int64) error {
	if id == actor.ID {
		return domain.Validation("id", "cannot delete yourself")
	}

	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionDelete, "accounts", &id, nil, origin)
	return nil
}

// ChangePassword updates an account's credential. A principal changing
// their own password must present the current one; admins may reset any
// other account without it.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.Principal, origin string, id int64, currentPassword, newPassword string) error {
	if id != actor.ID && !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	if id == actor.ID {
		account, err := s.store.GetAccountByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return storage(err)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(currentPassword)); err != nil {
			return domain.ErrInvalidCredentials
		}
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdateAccountPassword(ctx, id, hash); err != nil {
		return storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionChangePassword, "accounts", &id, nil, origin)
	return nil
}
