package workrequest

import "talenthub/internal/domain/auth"

// CanDecide allows the owner's team leader and ADMIN/HR to approve or reject,
// never the owner.
func CanDecide(actor auth.UserContext, ownerID, leaderID string) error {
	if actor.UserID == ownerID {
		return ErrSelfApproval
	}
	if actor.IsReviewer() {
		return nil
	}
	if leaderID != "" && actor.UserID == leaderID {
		return nil
	}
	return ErrForbidden
}

// CanView allows the owner, the owner's leader and ADMIN/HR.
func CanView(actor auth.UserContext, ownerID, leaderID string) bool {
	return actor.UserID == ownerID || actor.IsReviewer() || (leaderID != "" && actor.UserID == leaderID)
}
