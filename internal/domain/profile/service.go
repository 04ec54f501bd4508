package profile

import (
	"context"
	"fmt"
	"strings"

	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/notifications"
)

type Notifier interface {
	Notify(ctx context.Context, userID, ntype, title, body string)
}

type Service struct {
	store    StoreAPI
	Notifier Notifier
}

func NewService(store StoreAPI, notifier Notifier) *Service {
	return &Service{store: store, Notifier: notifier}
}

// Submit records a pending change request for the actor's own profile. Only
// fields that actually differ are kept, together with their current values.
func (s *Service) Submit(ctx context.Context, actor auth.UserContext, requested Changes) (Request, error) {
	requested, err := Normalize(requested)
	if err != nil {
		return Request{}, err
	}
	var id string
	err = s.store.InTx(ctx, func(tx StoreAPI) error {
		pending, err := tx.HasPending(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if pending {
			return ErrPendingExists
		}
		current, err := tx.GetProfile(ctx, actor.UserID)
		if err != nil {
			return err
		}
		changes, previous := Diff(current, requested)
		if changes.Empty() {
			return ErrNoChanges
		}
		id, err = tx.Create(ctx, actor.UserID, changes, previous)
		return err
	})
	if err != nil {
		return Request{}, err
	}
	return s.store.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, actor auth.UserContext, requestID string) (Request, error) {
	req, err := s.store.Get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.UserID != actor.UserID && !actor.IsReviewer() {
		return Request{}, ErrForbidden
	}
	return req, nil
}

// List returns every request to ADMIN/HR and only the actor's own otherwise.
func (s *Service) List(ctx context.Context, actor auth.UserContext, filter Filter) ([]Request, int, error) {
	if !actor.IsReviewer() {
		filter.UserID = actor.UserID
	}
	filter.Status = strings.ToUpper(strings.TrimSpace(filter.Status))
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.store.List(ctx, filter)
}

// Approve applies the requested diff to the user and closes the request in
// one transaction.
func (s *Service) Approve(ctx context.Context, actor auth.UserContext, requestID, note string) (Request, error) {
	if !actor.IsReviewer() {
		return Request{}, ErrForbidden
	}
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		req, err := lockPending(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if err := tx.Apply(ctx, req.UserID, req.Changes); err != nil {
			return err
		}
		return tx.Review(ctx, requestID, StatusApproved, actor.UserID, strings.TrimSpace(note))
	})
	if err != nil {
		return Request{}, err
	}
	req, err := s.store.Get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	s.notify(ctx, req.UserID, notifications.TypeProfileReviewed, "Profile update approved",
		fmt.Sprintf("Your changes to %s were applied.", strings.Join(req.Changes.Fields(), ", ")))
	return req, nil
}

func (s *Service) Reject(ctx context.Context, actor auth.UserContext, requestID, note string) (Request, error) {
	if !actor.IsReviewer() {
		return Request{}, ErrForbidden
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return Request{}, ErrNoteRequired
	}
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		if _, err := lockPending(ctx, tx, requestID); err != nil {
			return err
		}
		return tx.Review(ctx, requestID, StatusRejected, actor.UserID, note)
	})
	if err != nil {
		return Request{}, err
	}
	req, err := s.store.Get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	s.notify(ctx, req.UserID, notifications.TypeProfileReviewed, "Profile update rejected", note)
	return req, nil
}

func lockPending(ctx context.Context, tx StoreAPI, requestID string) (Request, error) {
	req, err := tx.Lock(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, ErrAlreadyReviewed
	}
	return req, nil
}

func (s *Service) notify(ctx context.Context, userID, ntype, title, body string) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Notify(ctx, userID, ntype, title, body)
}
