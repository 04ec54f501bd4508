package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *Store) FindUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	err := s.q.QueryRow(ctx, `
    SELECT u.id, u.email, u.full_name, r.name, u.password_hash, u.status, u.mfa_enabled, u.mfa_secret_enc
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE lower(u.email) = lower($1)
  `, strings.TrimSpace(email)).Scan(&out.ID, &out.Email, &out.FullName, &out.RoleName, &out.Password, &out.Status, &out.MFAEnabled, &out.MFASecret)
	if errors.Is(err, pgx.ErrNoRows) {
		return AuthUser{}, ErrInvalidCredentials
	}
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.q.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) CreateSession(ctx context.Context, userID, ip string, expires time.Time) (string, error) {
	var id string
	err := s.q.QueryRow(ctx, `
    INSERT INTO sessions (user_id, ip, expires_at)
    VALUES ($1,$2,$3)
    RETURNING id
  `, userID, ip, expires).Scan(&id)
	return id, err
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (Session, error) {
	var out Session
	err := s.q.QueryRow(ctx, `
    SELECT s.id, s.user_id, r.name, u.status, s.expires_at, s.revoked_at
    FROM sessions s
    JOIN users u ON u.id = s.user_id
    JOIN roles r ON r.id = u.role_id
    WHERE s.id = $1
  `, sessionID).Scan(&out.ID, &out.UserID, &out.RoleName, &out.Status, &out.ExpiresAt, &out.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionInvalid
	}
	return out, err
}

func (s *Store) RevokeSession(ctx context.Context, sessionID string) error {
	_, err := s.q.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL", sessionID)
	return err
}

func (s *Store) CreateVerificationToken(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO verification_tokens (user_id, token_hash, expires_at)
    VALUES ($1,$2,$3)
  `, userID, tokenHash, expires)
	return err
}

func (s *Store) LockVerificationToken(ctx context.Context, tokenHash string) (VerificationToken, error) {
	var out VerificationToken
	err := s.q.QueryRow(ctx, `
    SELECT t.id, t.user_id, u.status, t.expires_at, t.used_at, t.invalidated_at
    FROM verification_tokens t
    JOIN users u ON u.id = t.user_id
    WHERE t.token_hash = $1
    FOR UPDATE OF t, u
  `, tokenHash).Scan(&out.ID, &out.UserID, &out.UserStatus, &out.ExpiresAt, &out.UsedAt, &out.InvalidatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return VerificationToken{}, ErrTokenInvalid
	}
	return out, err
}

func (s *Store) ActivateUser(ctx context.Context, userID, passwordHash string) error {
	_, err := s.q.Exec(ctx, `
    UPDATE users
    SET status = $1, password_hash = COALESCE(NULLIF($2, ''), password_hash), updated_at = now()
    WHERE id = $3
  `, UserStatusActive, passwordHash, userID)
	return err
}

func (s *Store) MarkTokenUsed(ctx context.Context, tokenID string) error {
	_, err := s.q.Exec(ctx, "UPDATE verification_tokens SET used_at = now() WHERE id = $1", tokenID)
	return err
}

func (s *Store) InvalidateOtherTokens(ctx context.Context, userID, keepTokenID string) error {
	_, err := s.q.Exec(ctx, `
    UPDATE verification_tokens
    SET invalidated_at = now()
    WHERE user_id = $1 AND id <> $2 AND used_at IS NULL AND invalidated_at IS NULL
  `, userID, keepTokenID)
	return err
}

func (s *Store) HasPermission(ctx context.Context, roleName, permission string) (bool, error) {
	var count int
	if err := s.q.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM role_permissions rp
    JOIN roles r ON r.id = rp.role_id
    JOIN permissions p ON p.id = rp.permission_id
    WHERE r.name = $1 AND p.key = $2
  `, roleName, permission).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetMFASecret replaces the pending secret and disables MFA until the new
// secret is confirmed.
func (s *Store) SetMFASecret(ctx context.Context, userID string, sealed []byte) error {
	_, err := s.q.Exec(ctx, "UPDATE users SET mfa_secret_enc = $1, mfa_enabled = false, updated_at = now() WHERE id = $2", sealed, userID)
	return err
}

func (s *Store) GetMFASecret(ctx context.Context, userID string) ([]byte, error) {
	var sealed []byte
	err := s.q.QueryRow(ctx, "SELECT mfa_secret_enc FROM users WHERE id = $1", userID).Scan(&sealed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionInvalid
	}
	return sealed, err
}

func (s *Store) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	_, err := s.q.Exec(ctx, "UPDATE users SET mfa_enabled = $1, updated_at = now() WHERE id = $2", enabled, userID)
	return err
}
