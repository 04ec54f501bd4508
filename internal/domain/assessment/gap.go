package assessment

const (
	GapSourceFinal = "final"
	GapSourceSelf  = "self"
)

// AchievedLevel is the final level once set, otherwise the self level.
func AchievedLevel(d Detail) (int, string, bool) {
	if d.FinalLevel != nil {
		return *d.FinalLevel, GapSourceFinal, true
	}
	if d.SelfLevel != nil {
		return *d.SelfLevel, GapSourceSelf, true
	}
	return 0, "", false
}

// ComputeGap is required minus achieved. Negative values mean the
// requirement is exceeded and are kept as they are.
func ComputeGap(d Detail) (Gap, bool) {
	if d.RequiredLevel == nil {
		return Gap{}, false
	}
	achieved, source, ok := AchievedLevel(d)
	if !ok {
		return Gap{}, false
	}
	return Gap{
		CompetencyID:   d.CompetencyID,
		CompetencyName: d.CompetencyName,
		RequiredLevel:  *d.RequiredLevel,
		AchievedLevel:  achieved,
		Source:         source,
		Gap:            *d.RequiredLevel - achieved,
	}, true
}

func Gaps(details []Detail) []Gap {
	out := []Gap{}
	for _, d := range details {
		if gap, ok := ComputeGap(d); ok {
			out = append(out, gap)
		}
	}
	return out
}

// SumUnderqualified clamps every gap at zero and totals what remains.
func SumUnderqualified(gaps []Gap) Underqualified {
	var out Underqualified
	for _, g := range gaps {
		if g.Gap > 0 {
			out.Count++
			out.Sum += g.Gap
		}
	}
	return out
}
