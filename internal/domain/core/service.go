package core

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"talenthub/internal/domain/auth"
)

const TemplateAccountVerification = "account_verification"

type VerificationIssuer interface {
	IssueVerificationToken(ctx context.Context, userID string) (string, error)
}

// TemplateMailer delivers a templated email. Delivery problems are recorded by
// the mailer itself and never surface here.
type TemplateMailer interface {
	SendTemplate(ctx context.Context, code, to string, data map[string]string)
}

type Service struct {
	store   StoreAPI
	Tokens  VerificationIssuer
	Mailer  TemplateMailer
	BaseURL string
}

func NewService(store StoreAPI, tokens VerificationIssuer, mailer TemplateMailer, baseURL string) *Service {
	return &Service{store: store, Tokens: tokens, Mailer: mailer, BaseURL: baseURL}
}

func (s *Service) ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error) {
	return s.store.ListUsers(ctx, filter)
}

func (s *Service) GetUser(ctx context.Context, userID string) (User, error) {
	return s.store.GetUser(ctx, userID)
}

// CreateUser registers a PENDING account and mails the activation link.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	if in.Role == "" {
		in.Role = auth.RoleEmployee
	}
	if !auth.ValidRole(in.Role) {
		return User{}, ErrInvalidRole
	}
	exists, err := s.store.EmailExists(ctx, in.Email)
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, ErrEmailTaken
	}
	id, err := s.store.CreateUser(ctx, in)
	if err != nil {
		return User{}, err
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	s.sendVerification(ctx, user)
	return user, nil
}

// ResendVerification issues a new activation link for a PENDING account.
func (s *Service) ResendVerification(ctx context.Context, userID string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Status != auth.UserStatusPending {
		return ErrInvalidStatus
	}
	s.sendVerification(ctx, user)
	return nil
}

func (s *Service) UpdateUser(ctx context.Context, userID string, in UpdateUserInput) (User, User, error) {
	if in.Role != nil && !auth.ValidRole(*in.Role) {
		return User{}, User{}, ErrInvalidRole
	}
	if in.Status != nil && !validStatus(*in.Status) {
		return User{}, User{}, ErrInvalidStatus
	}
	before, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return User{}, User{}, err
	}
	if err := s.store.UpdateUser(ctx, userID, in); err != nil {
		return User{}, User{}, err
	}
	after, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return User{}, User{}, err
	}
	return before, after, nil
}

func (s *Service) ListBands(ctx context.Context) ([]CareerBand, error) {
	return s.store.ListBands(ctx)
}

func (s *Service) CreateBand(ctx context.Context, band CareerBand) (CareerBand, error) {
	band.Code = strings.ToUpper(strings.TrimSpace(band.Code))
	id, err := s.store.CreateBand(ctx, band)
	if err != nil {
		return CareerBand{}, err
	}
	return s.store.GetBand(ctx, id)
}

func (s *Service) UpdateBand(ctx context.Context, bandID string, band CareerBand) (CareerBand, error) {
	band.Code = strings.ToUpper(strings.TrimSpace(band.Code))
	if err := s.store.UpdateBand(ctx, bandID, band); err != nil {
		return CareerBand{}, err
	}
	return s.store.GetBand(ctx, bandID)
}

func (s *Service) DeleteBand(ctx context.Context, bandID string) error {
	refs, err := s.store.BandReferences(ctx, bandID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return ErrBandInUse
	}
	return s.store.DeleteBand(ctx, bandID)
}

func (s *Service) sendVerification(ctx context.Context, user User) {
	if s.Tokens == nil {
		return
	}
	token, err := s.Tokens.IssueVerificationToken(ctx, user.ID)
	if err != nil {
		slog.Warn("verification token issue failed", "userId", user.ID, "err", err)
		return
	}
	if s.Mailer == nil {
		return
	}
	s.Mailer.SendTemplate(ctx, TemplateAccountVerification, user.Email, map[string]string{
		"fullName":         user.FullName,
		"email":            user.Email,
		"verificationLink": BuildVerificationLink(s.BaseURL, token),
	})
}

// BuildVerificationLink points at the frontend activation page.
func BuildVerificationLink(baseURL, token string) string {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		base, _ = url.Parse("http://localhost:8080")
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/verify"
	q := url.Values{}
	q.Set("token", token)
	base.RawQuery = q.Encode()
	return base.String()
}

func validStatus(status string) bool {
	switch status {
	case auth.UserStatusPending, auth.UserStatusActive, auth.UserStatusInactive:
		return true
	}
	return false
}
