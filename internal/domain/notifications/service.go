package notifications

import (
	"context"
	"errors"
	"log/slog"
)

var ErrNotFound = errors.New("notification not found")

// EmailQueuer hands a message to the outbound email pipeline without waiting
// for delivery.
type EmailQueuer interface {
	Queue(ctx context.Context, templateCode, to, subject, body string) error
}

type Service struct {
	store StoreAPI
	Email EmailQueuer
}

func New(store StoreAPI, email EmailQueuer) *Service {
	return &Service{store: store, Email: email}
}

// Create stores an in-app notification and mirrors it by email when an email
// pipeline is configured. Email failures are logged, never returned.
func (s *Service) Create(ctx context.Context, userID, ntype, title, body string) error {
	if userID == "" {
		return nil
	}
	if err := s.store.CreateNotification(ctx, userID, ntype, title, body); err != nil {
		return err
	}
	if s.Email == nil {
		return nil
	}

	email, err := s.store.UserEmail(ctx, userID)
	if err != nil {
		slog.Warn("notification email lookup failed", "userId", userID, "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Email.Queue(ctx, "notification."+ntype, email, title, body); err != nil {
		slog.Warn("notification email queue failed", "err", err)
	}
	return nil
}

// Notify is Create for call sites that only want the side effect.
func (s *Service) Notify(ctx context.Context, userID, ntype, title, body string) {
	if s == nil {
		return
	}
	if err := s.Create(ctx, userID, ntype, title, body); err != nil {
		slog.Warn("notification create failed", "type", ntype, "err", err)
	}
}

func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, int, error) {
	items, err := s.store.ListNotifications(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountNotifications(ctx, userID, unreadOnly)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	found, err := s.store.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}
