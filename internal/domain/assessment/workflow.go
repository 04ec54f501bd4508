package assessment

import (
	"fmt"
	"sort"

	"talenthub/internal/domain/auth"
)

// Relation is how the acting user stands to an assessment.
type Relation string

const (
	RelationOwner  Relation = "OWNER"
	RelationLeader Relation = "LEADER"
	// RelationActingLeader is an ADMIN/HR user standing in for a leader the
	// owner does not have.
	RelationActingLeader Relation = "ACTING_LEADER"
	RelationReviewer     Relation = "REVIEWER"
	RelationNone         Relation = "NONE"
)

// ResolveRelation classifies actor against the assessment owner and the
// owner's team leader. An owner who leads their own team has no leader.
func ResolveRelation(actor auth.UserContext, ownerID, leaderID string) Relation {
	if actor.UserID == ownerID {
		return RelationOwner
	}
	hasLeader := leaderID != "" && leaderID != ownerID
	if hasLeader && actor.UserID == leaderID {
		return RelationLeader
	}
	if actor.IsReviewer() {
		if !hasLeader {
			return RelationActingLeader
		}
		return RelationReviewer
	}
	return RelationNone
}

func (r Relation) leads() bool {
	return r == RelationLeader || r == RelationActingLeader
}

// CanView reports whether the relation grants read access.
func (r Relation) CanView() bool {
	return r != RelationNone
}

// AuthorizeWrite decides whether relation may write field while the
// assessment is in status.
func AuthorizeWrite(status string, relation Relation, field string) error {
	switch status {
	case StatusDone:
		return ErrLocked
	case StatusSelfAssessing:
		if field == FieldSelfLevel && relation == RelationOwner {
			return nil
		}
	case StatusLeaderAssessing:
		if field == FieldLeaderLevel && relation.leads() {
			return nil
		}
	case StatusDiscussion:
		if (field == FieldFinalLevel || field == FieldFeedback) && (relation.leads() || relation == RelationReviewer) {
			return nil
		}
	}
	return ErrForbidden
}

// AuthorizeAdvance decides whether relation may close the current phase.
func AuthorizeAdvance(status string, relation Relation) error {
	switch status {
	case StatusDone:
		return ErrLocked
	case StatusSelfAssessing:
		if relation == RelationOwner {
			return nil
		}
	case StatusLeaderAssessing:
		if relation.leads() {
			return nil
		}
	case StatusDiscussion:
		if relation.leads() || relation == RelationReviewer {
			return nil
		}
	}
	return ErrForbidden
}

// PhaseField is the detail column written during status.
func PhaseField(status string) (string, bool) {
	switch status {
	case StatusSelfAssessing:
		return FieldSelfLevel, true
	case StatusLeaderAssessing:
		return FieldLeaderLevel, true
	case StatusDiscussion:
		return FieldFinalLevel, true
	}
	return "", false
}

func NextStatus(status string) (string, bool) {
	switch status {
	case StatusSelfAssessing:
		return StatusLeaderAssessing, true
	case StatusLeaderAssessing:
		return StatusDiscussion, true
	case StatusDiscussion:
		return StatusDone, true
	}
	return "", false
}

// Advance returns the status following status once every detail row has the
// current phase's level.
func Advance(status string, details []Detail) (string, error) {
	next, ok := NextStatus(status)
	if !ok {
		return "", ErrLocked
	}
	field, _ := PhaseField(status)
	missing := []string{}
	for _, d := range details {
		if levelFor(d, field) == nil {
			missing = append(missing, d.CompetencyID)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", &IncompleteError{Phase: status, Field: field, MissingCompetencyIDs: missing}
	}
	return next, nil
}

// ValidateScores checks submitted levels against the assessment's detail
// rows. A nil level clears the field.
func ValidateScores(details []Detail, scores map[string]*int) error {
	known := make(map[string]struct{}, len(details))
	for _, d := range details {
		known[d.CompetencyID] = struct{}{}
	}
	for competencyID, level := range scores {
		if _, ok := known[competencyID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCompetency, competencyID)
		}
		if level != nil && (*level < 1 || *level > 5) {
			return fmt.Errorf("%w: %s=%d", ErrInvalidLevel, competencyID, *level)
		}
	}
	return nil
}

// ApplyScores writes levels into field on a copy of details.
func ApplyScores(details []Detail, field string, scores map[string]*int) []Detail {
	out := make([]Detail, len(details))
	copy(out, details)
	for i := range out {
		level, ok := scores[out[i].CompetencyID]
		if !ok {
			continue
		}
		switch field {
		case FieldSelfLevel:
			out[i].SelfLevel = level
		case FieldLeaderLevel:
			out[i].LeaderLevel = level
		case FieldFinalLevel:
			out[i].FinalLevel = level
		}
	}
	return out
}

func levelFor(d Detail, field string) *int {
	switch field {
	case FieldSelfLevel:
		return d.SelfLevel
	case FieldLeaderLevel:
		return d.LeaderLevel
	case FieldFinalLevel:
		return d.FinalLevel
	}
	return nil
}
