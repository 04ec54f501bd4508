package assessment

import "talenthub/internal/domain/competency"

// Seed is one assessment to create with its detail rows.
type Seed struct {
	UserID  string
	Details []Detail
}

// BuildAssessments plans one assessment per eligible user with a detail row
// for every competency their band requires. The required level is copied so
// later matrix edits leave the assessment untouched. Users without a band,
// or whose band requires nothing, are skipped.
func BuildAssessments(users []EligibleUser, matrix *competency.Matrix) []Seed {
	out := []Seed{}
	for _, u := range users {
		if u.CareerBandID == "" || !matrix.HasRequirements(u.CareerBandID) {
			continue
		}
		reqs := matrix.ForBand(u.CareerBandID)
		details := make([]Detail, 0, len(reqs))
		for _, req := range reqs {
			level := req.RequiredLevel
			details = append(details, Detail{CompetencyID: req.CompetencyID, RequiredLevel: &level})
		}
		out = append(out, Seed{UserID: u.UserID, Details: details})
	}
	return out
}
