package auth

import (
	"context"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const mfaIssuer = "TalentHub"

// SecretSealer encrypts MFA secrets at rest.
type SecretSealer interface {
	Configured() bool
	Seal(plain []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

type MFASetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

// SetupMFA stores a fresh, not yet enabled TOTP secret for the user.
// Enabling requires a code generated from it.
func (s *Service) SetupMFA(ctx context.Context, userID, accountName string) (MFASetup, error) {
	if s.Sealer == nil || !s.Sealer.Configured() {
		return MFASetup{}, ErrMFAUnavailable
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      mfaIssuer,
		AccountName: accountName,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return MFASetup{}, fmt.Errorf("generate totp: %w", err)
	}
	sealed, err := s.Sealer.Seal([]byte(key.Secret()))
	if err != nil {
		return MFASetup{}, fmt.Errorf("seal totp secret: %w", err)
	}
	if err := s.store.SetMFASecret(ctx, userID, sealed); err != nil {
		return MFASetup{}, err
	}
	return MFASetup{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

func (s *Service) EnableMFA(ctx context.Context, userID, code string) error {
	if err := s.checkStoredCode(ctx, userID, code); err != nil {
		return err
	}
	return s.store.SetMFAEnabled(ctx, userID, true)
}

func (s *Service) DisableMFA(ctx context.Context, userID, code string) error {
	if err := s.checkStoredCode(ctx, userID, code); err != nil {
		return err
	}
	return s.store.SetMFAEnabled(ctx, userID, false)
}

func (s *Service) checkStoredCode(ctx context.Context, userID, code string) error {
	if s.Sealer == nil || !s.Sealer.Configured() {
		return ErrMFAUnavailable
	}
	sealed, err := s.store.GetMFASecret(ctx, userID)
	if err != nil {
		return err
	}
	if len(sealed) == 0 {
		return ErrMFANotSetUp
	}
	return s.validateCode(sealed, code)
}

func (s *Service) validateCode(sealed []byte, code string) error {
	if s.Sealer == nil || len(sealed) == 0 {
		return ErrMFAInvalid
	}
	secret, err := s.Sealer.Open(sealed)
	if err != nil {
		return ErrMFAInvalid
	}
	if !totp.Validate(code, string(secret)) {
		return ErrMFAInvalid
	}
	return nil
}
