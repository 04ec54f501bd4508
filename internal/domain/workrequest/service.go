package workrequest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/notifications"
)

type Notifier interface {
	Notify(ctx context.Context, userID, ntype, title, body string)
}

type Service struct {
	store    StoreAPI
	Notifier Notifier
	now      func() time.Time
}

func NewService(store StoreAPI, notifier Notifier) *Service {
	return &Service{store: store, Notifier: notifier, now: time.Now}
}

func (s *Service) Create(ctx context.Context, actor auth.UserContext, in CreateInput) (Request, error) {
	in, days, err := Validate(in)
	if err != nil {
		return Request{}, err
	}
	overlap, err := s.store.HasOverlap(ctx, actor.UserID, in.Type, in.StartDate, in.EndDate)
	if err != nil {
		return Request{}, err
	}
	if overlap {
		return Request{}, ErrOverlap
	}
	id, err := s.store.Create(ctx, actor.UserID, in, days)
	if err != nil {
		return Request{}, err
	}
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if leaderID, err := s.store.LeaderOf(ctx, actor.UserID); err == nil && leaderID != "" && leaderID != actor.UserID {
		s.notify(ctx, leaderID, notifications.TypeRequestSubmitted, "New request",
			fmt.Sprintf("%s requested %s from %s to %s.", req.UserName, req.Type, formatDate(req.StartDate), formatDate(req.EndDate)))
	}
	return req, nil
}

func (s *Service) Get(ctx context.Context, actor auth.UserContext, requestID string) (Request, error) {
	req, err := s.store.Get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	leaderID, err := s.store.LeaderOf(ctx, req.UserID)
	if err != nil {
		return Request{}, err
	}
	if !CanView(actor, req.UserID, leaderID) {
		return Request{}, ErrForbidden
	}
	return req, nil
}

// Scope restricts filter to what actor may see: everything for ADMIN/HR,
// otherwise their own requests and those of the teams they lead.
func Scope(actor auth.UserContext, filter Filter) Filter {
	if actor.IsReviewer() {
		return filter
	}
	switch filter.UserID {
	case "":
		filter.OwnerOrLeader = actor.UserID
	case actor.UserID:
	default:
		filter.LeaderID = actor.UserID
	}
	return filter
}

func (s *Service) List(ctx context.Context, actor auth.UserContext, filter Filter) (ListResult, error) {
	items, total, err := s.store.List(ctx, Scope(actor, filter))
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

func (s *Service) Approve(ctx context.Context, actor auth.UserContext, requestID string) (Request, error) {
	return s.decide(ctx, actor, requestID, StatusApproved, "")
}

func (s *Service) Reject(ctx context.Context, actor auth.UserContext, requestID, reason string) (Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Request{}, ErrRejectionReason
	}
	return s.decide(ctx, actor, requestID, StatusRejected, reason)
}

func (s *Service) decide(ctx context.Context, actor auth.UserContext, requestID, status, reason string) (Request, error) {
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		req, err := tx.Lock(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return ErrAlreadyDecided
		}
		leaderID, err := tx.LeaderOf(ctx, req.UserID)
		if err != nil {
			return err
		}
		if err := CanDecide(actor, req.UserID, leaderID); err != nil {
			return err
		}
		return tx.Decide(ctx, requestID, status, actor.UserID, reason)
	})
	if err != nil {
		return Request{}, err
	}
	req, err := s.store.Get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if status == StatusApproved {
		s.notify(ctx, req.UserID, notifications.TypeRequestApproved, "Request approved",
			fmt.Sprintf("Your %s request from %s was approved.", req.Type, formatDate(req.StartDate)))
	} else {
		s.notify(ctx, req.UserID, notifications.TypeRequestRejected, "Request rejected",
			fmt.Sprintf("Your %s request from %s was rejected: %s", req.Type, formatDate(req.StartDate), reason))
	}
	return req, nil
}

// Cancel withdraws a PENDING request. Only its owner may cancel and the row
// is removed.
func (s *Service) Cancel(ctx context.Context, actor auth.UserContext, requestID string) (Request, error) {
	var out Request
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		req, err := tx.Lock(ctx, requestID)
		if err != nil {
			return err
		}
		if req.UserID != actor.UserID {
			return ErrForbidden
		}
		if req.Status != StatusPending {
			return ErrAlreadyDecided
		}
		out = req
		return tx.Delete(ctx, requestID)
	})
	if err != nil {
		return Request{}, err
	}
	return out, nil
}

// Calendar renders the approved requests visible to actor as iCalendar.
func (s *Service) Calendar(ctx context.Context, actor auth.UserContext, filter Filter) (string, error) {
	filter.Status = StatusApproved
	filter.Limit, filter.Offset = 0, 0
	items, _, err := s.store.List(ctx, Scope(actor, filter))
	if err != nil {
		return "", err
	}
	return BuildICS("Talenthub requests", items, s.now()), nil
}

// ListInRange returns every non-rejected request of the given users that
// touches [from, to].
func (s *Service) ListInRange(ctx context.Context, userIDs []string, from, to time.Time) ([]Request, error) {
	if len(userIDs) == 0 {
		return []Request{}, nil
	}
	items, _, err := s.store.List(ctx, Filter{UserIDs: userIDs, From: from, To: to})
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, r := range items {
		if r.Status != StatusRejected {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) notify(ctx context.Context, userID, ntype, title, body string) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Notify(ctx, userID, ntype, title, body)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
