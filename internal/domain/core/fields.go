package core

import "talenthub/internal/domain/auth"

// FilterUserFields strips personal contact data unless the viewer is the user
// themself or has organisation-wide oversight.
func FilterUserFields(user *User, viewer auth.UserContext) {
	if user == nil || viewer.IsReviewer() || viewer.UserID == user.ID {
		return
	}
	user.Phone = ""
	user.Address = ""
	user.DateOfBirth = nil
	user.LastLogin = nil
}
