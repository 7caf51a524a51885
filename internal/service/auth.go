package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"netfence/internal/domain"
	"netfence/internal/repository"
)

// AuthConfig carries the authenticator's tunables. Zero values are
// filled in by applyDefaults.
type AuthConfig struct {
	JWTSecret    string
	Issuer       string
	Audience     string
	TokenTTL     time.Duration
	MaxAttempts  int
	LockDuration time.Duration
	BcryptCost   int
}

func (c *AuthConfig) applyDefaults() {
	if c.Issuer == "" {
		c.Issuer = "netfence"
	}
	if c.Audience == "" {
		c.Audience = "netfence-api"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 24 * time.Hour
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 5
	}
	if c.LockDuration == 0 {
		c.LockDuration = 15 * time.Minute
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
}

// Session is a freshly minted signed credential plus the public view of
// the account it belongs to.
type Session struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      domain.Principal `json:"user"`
}

type sessionClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService validates credentials, runs the per-account lockout state
// machine, and mints and verifies session credentials.
type AuthService struct {
	store repository.Store
	audit *AuditRecorder
	cfg   AuthConfig
	log   zerolog.Logger
	now   func() time.Time
}

// NewAuthService creates the authenticator.
func NewAuthService(store repository.Store, audit *AuditRecorder, cfg AuthConfig, log zerolog.Logger) *AuthService {
	cfg.applyDefaults()
	return &AuthService{
		store: store,
		audit: audit,
		cfg:   cfg,
		log:   log.With().Str("component", "auth").Logger(),
		now:   time.Now,
	}
}

// Login verifies a username/password pair and returns a signed session.
// The error never reveals whether the username exists: unknown accounts
// and wrong passwords both come back as ErrInvalidCredentials. An
// active lock rejects the attempt before the credential is compared and
// without touching the counter.
func (s *AuthService) Login(ctx context.Context, username, password, origin string) (*Session, error) {
	account, err := s.store.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.audit.Record(ctx, nil, domain.ActionLoginFailed, "accounts", nil,
				map[string]any{"username": username, "reason": "user_not_found"}, origin)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, storage(err)
	}

	if account.Locked(s.now()) {
		return nil, domain.ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		attempts, lockedUntil, recErr := s.store.RecordFailedLogin(ctx, account.ID, s.cfg.MaxAttempts, s.cfg.LockDuration)
		if recErr != nil {
			return nil, storage(recErr)
		}

		s.audit.Record(ctx, &account.ID, domain.ActionLoginFailed, "accounts", &account.ID,
			map[string]any{"reason": "invalid_password", "attempts": attempts}, origin)

		if lockedUntil != nil {
			return nil, domain.ErrAccountLocked
		}
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.store.RecordSuccessfulLogin(ctx, account.ID); err != nil {
		return nil, storage(err)
	}

	session, err := s.mint(account)
	if err != nil {
		return nil, fmt.Errorf("failed to mint session: %w", err)
	}

	s.audit.Record(ctx, &account.ID, domain.ActionLoginSuccess, "accounts", &account.ID, nil, origin)
	return session, nil
}

func (s *AuthService) mint(account *domain.Account) (*Session, error) {
	now := s.now()
	expires := now.Add(s.cfg.TokenTTL)

	claims := sessionClaims{
		UserID:   account.ID,
		Username: account.Username,
		Role:     string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		ExpiresAt: expires,
		User:      domain.Principal{ID: account.ID, Username: account.Username, Role: account.Role},
	}, nil
}

// Verify checks a session credential's signature, expiry, issuer, and
// audience, then re-reads the account so sessions stop working for
// deleted accounts and for accounts locked after issuance.
func (s *AuthService) Verify(ctx context.Context, token string) (*domain.Principal, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidSession
	}
	if !claims.VerifyIssuer(s.cfg.Issuer, true) || !claims.VerifyAudience(s.cfg.Audience, true) {
		return nil, domain.ErrInvalidSession
	}

	account, err := s.store.GetAccountByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, storage(err)
	}
	if account.Locked(s.now()) {
		return nil, domain.ErrInvalidSession
	}

	return &domain.Principal{ID: account.ID, Username: account.Username, Role: account.Role}, nil
}

// Authorize gates an operation on the admin role. Every denial is
// audited with the requested resource and origin.
func (s *AuthService) Authorize(ctx context.Context, principal *domain.Principal, resource, origin string) error {
	if principal.IsAdmin() {
		return nil
	}

	s.audit.Record(ctx, &principal.ID, domain.ActionUnauthorized, "", nil,
		map[string]any{"path": resource}, origin)
	return domain.ErrForbidden
}

// HashPassword derives the stored credential hash.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
