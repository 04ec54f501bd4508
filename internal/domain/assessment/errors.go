package assessment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = errors.New("assessment not found")
	ErrCycleNotFound       = errors.New("assessment cycle not found")
	ErrForbidden           = errors.New("not allowed to act on this assessment in its current phase")
	ErrLocked              = errors.New("assessment is locked")
	ErrInvalidLevel        = errors.New("level must be between 1 and 5")
	ErrUnknownCompetency   = errors.New("competency is not part of this assessment")
	ErrInvalidCycle        = errors.New("invalid assessment cycle")
	ErrCycleAlreadyActive  = errors.New("assessment cycle is already active")
	ErrActiveCycleExists   = errors.New("another assessment cycle is already active")
	ErrNoActiveCycle       = errors.New("no active assessment cycle")
	ErrInvalidState        = errors.New("operation not allowed in the cycle's current status")
	ErrDuplicateAssessment = errors.New("assessment already exists for this user and cycle")
	ErrNotEligible         = errors.New("user has no career band requirements to assess")
	ErrStaleVersion        = errors.New("assessment was modified by someone else")
	ErrIncomplete          = errors.New("assessment phase is incomplete")
	ErrReportExport        = errors.New("cycle report export failed")
)

// IncompleteError reports the competencies still missing a level for the
// current phase.
type IncompleteError struct {
	Phase                string
	Field                string
	MissingCompetencyIDs []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: %s missing for competencies %s", ErrIncomplete, e.Field, strings.Join(e.MissingCompetencyIDs, ", "))
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}
