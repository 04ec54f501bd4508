package competency

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrGroupNotEmpty        = errors.New("competency group still has competencies")
	ErrCompetencyInUse      = errors.New("competency is referenced by assessments")
	ErrDuplicateName        = errors.New("name already in use")
	ErrInvalidLevels        = errors.New("invalid competency levels")
	ErrInvalidRequiredLevel = errors.New("required level must be between 1 and 5")
	ErrInvalidFramework     = errors.New("invalid competency framework")
)
