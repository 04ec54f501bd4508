package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type Service struct {
	store           StoreAPI
	secret          string
	tokenTTL        time.Duration
	verificationTTL time.Duration
	now             func() time.Time

	Sealer SecretSealer
}

func NewService(store StoreAPI, secret string, tokenTTL, verificationTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	if verificationTTL <= 0 {
		verificationTTL = 72 * time.Hour
	}
	return &Service{store: store, secret: secret, tokenTTL: tokenTTL, verificationTTL: verificationTTL, now: time.Now}
}

// Login checks the password and, for accounts with MFA enabled, the TOTP code
// before opening a session.
func (s *Service) Login(ctx context.Context, email, password, mfaCode, ip string) (LoginResult, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, err
	}
	if user.Password == "" || CheckPassword(user.Password, password) != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if user.Status != UserStatusActive {
		return LoginResult{}, ErrAccountNotActive
	}
	if user.MFAEnabled {
		if mfaCode == "" {
			return LoginResult{}, ErrMFARequired
		}
		if err := s.validateCode(user.MFASecret, mfaCode); err != nil {
			return LoginResult{}, err
		}
	}

	expires := s.now().Add(s.tokenTTL)
	sessionID, err := s.store.CreateSession(ctx, user.ID, ip, expires)
	if err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}
	token, err := GenerateToken(s.secret, Claims{UserID: user.ID, RoleName: user.RoleName, SessionID: sessionID}, s.tokenTTL)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("last login update failed", "err", err)
	}
	return LoginResult{Token: token, ExpiresAt: expires, UserID: user.ID, FullName: user.FullName, Role: user.RoleName}, nil
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.store.RevokeSession(ctx, sessionID)
}

// ResolveSession loads the live state behind a token so revoked sessions,
// deactivated users and role changes take effect immediately.
func (s *Service) ResolveSession(ctx context.Context, claims Claims) (UserContext, error) {
	session, err := s.store.GetSession(ctx, claims.SessionID)
	if err != nil {
		return UserContext{}, err
	}
	if session.UserID != claims.UserID || session.RevokedAt != nil || !s.now().Before(session.ExpiresAt) {
		return UserContext{}, ErrSessionInvalid
	}
	if session.Status != UserStatusActive {
		return UserContext{}, ErrAccountNotActive
	}
	return UserContext{UserID: session.UserID, RoleName: session.RoleName, SessionID: session.ID}, nil
}

// IssueVerificationToken stores the hash of a fresh token and returns the raw
// value for the activation link.
func (s *Service) IssueVerificationToken(ctx context.Context, userID string) (string, error) {
	raw, err := NewOpaqueToken()
	if err != nil {
		return "", err
	}
	if err := s.store.CreateVerificationToken(ctx, userID, HashToken(raw), s.now().Add(s.verificationTTL)); err != nil {
		return "", err
	}
	return raw, nil
}

// VerifyAccount activates the account behind a verification link and sets its
// initial password when one is supplied.
func (s *Service) VerifyAccount(ctx context.Context, rawToken, password string) (VerifyResult, error) {
	if rawToken == "" {
		return VerifyResult{}, ErrTokenInvalid
	}
	passwordHash := ""
	if password != "" {
		hash, err := HashPassword(password)
		if err != nil {
			return VerifyResult{}, err
		}
		passwordHash = hash
	}
	var result VerifyResult
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		tok, err := tx.LockVerificationToken(ctx, HashToken(rawToken))
		if err != nil {
			return err
		}
		action, err := planVerification(tok, s.now())
		if err != nil {
			return err
		}
		result.UserID = tok.UserID
		if action == verifyAlreadyActive {
			result.AlreadyVerified = true
			return nil
		}
		if err := tx.ActivateUser(ctx, tok.UserID, passwordHash); err != nil {
			return err
		}
		if err := tx.MarkTokenUsed(ctx, tok.ID); err != nil {
			return err
		}
		return tx.InvalidateOtherTokens(ctx, tok.UserID, tok.ID)
	})
	if err != nil {
		return VerifyResult{}, err
	}
	return result, nil
}

func (s *Service) HasPermission(ctx context.Context, roleName, permission string) (bool, error) {
	return s.store.HasPermission(ctx, roleName, permission)
}

func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrAccountNotActive) ||
		errors.Is(err, ErrSessionInvalid)
}
