package assessment

import (
	"math"
	"sort"
)

// Averages returns the mean self and final levels over the rows that carry
// one. Both are nil when no row has a value.
func Averages(details []Detail) (self, final *float64) {
	var selfLevels, finalLevels []int
	for _, d := range details {
		if d.SelfLevel != nil {
			selfLevels = append(selfLevels, *d.SelfLevel)
		}
		if d.FinalLevel != nil {
			finalLevels = append(finalLevels, *d.FinalLevel)
		}
	}
	return mean(selfLevels), mean(finalLevels)
}

// GroupScores computes the per competency group subscores behind the radar
// chart, ordered by group name.
func GroupScores(details []Detail) []GroupScore {
	type acc struct {
		score    GroupScore
		self     []int
		leader   []int
		final    []int
		required []int
	}
	groups := map[string]*acc{}
	for _, d := range details {
		g, ok := groups[d.GroupID]
		if !ok {
			g = &acc{score: GroupScore{GroupID: d.GroupID, GroupName: d.GroupName}}
			groups[d.GroupID] = g
		}
		g.score.Count++
		if d.SelfLevel != nil {
			g.self = append(g.self, *d.SelfLevel)
		}
		if d.LeaderLevel != nil {
			g.leader = append(g.leader, *d.LeaderLevel)
		}
		if d.FinalLevel != nil {
			g.final = append(g.final, *d.FinalLevel)
		}
		if d.RequiredLevel != nil {
			g.required = append(g.required, *d.RequiredLevel)
		}
	}

	out := make([]GroupScore, 0, len(groups))
	for _, g := range groups {
		g.score.Self = mean(g.self)
		g.score.Leader = mean(g.leader)
		g.score.Final = mean(g.final)
		g.score.Required = mean(g.required)
		out = append(out, g.score)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupName == out[j].GroupName {
			return out[i].GroupID < out[j].GroupID
		}
		return out[i].GroupName < out[j].GroupName
	})
	return out
}

// Summarize fills the computed gap column on details and returns the summary.
func Summarize(details []Detail) Summary {
	self, final := Averages(details)
	gaps := Gaps(details)
	byCompetency := make(map[string]int, len(gaps))
	for _, g := range gaps {
		byCompetency[g.CompetencyID] = g.Gap
	}
	for i := range details {
		if gap, ok := byCompetency[details[i].CompetencyID]; ok {
			gap := gap
			details[i].Gap = &gap
		}
	}
	return Summary{
		SelfScoreAvg:   self,
		FinalScoreAvg:  final,
		Groups:         GroupScores(details),
		Gaps:           gaps,
		Underqualified: SumUnderqualified(gaps),
	}
}

func mean(values []int) *float64 {
	if len(values) == 0 {
		return nil
	}
	total := 0
	for _, v := range values {
		total += v
	}
	avg := round2(float64(total) / float64(len(values)))
	return &avg
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
