package cv

import (
	"sort"
	"time"

	"talenthub/internal/domain/assessment"
	"talenthub/internal/domain/core"
)

type Item struct {
	Name     string
	Level    int
	Required *int
}

type Group struct {
	Name  string
	Items []Item
}

// Document is everything printed on a CV.
type Document struct {
	User          core.User
	CycleName     string
	FinalScoreAvg *float64
	Groups        []Group
	GeneratedAt   time.Time
}

// BuildDocument groups the achieved level of each competency of a finished
// assessment by competency group. Rows without an achieved level are left
// out. When hasAssessment is false the CV lists no competencies.
func BuildDocument(user core.User, view assessment.View, hasAssessment bool, now time.Time) Document {
	doc := Document{User: user, GeneratedAt: now}
	if !hasAssessment {
		return doc
	}
	doc.CycleName = view.CycleName
	doc.FinalScoreAvg = view.Summary.FinalScoreAvg
	if doc.FinalScoreAvg == nil {
		doc.FinalScoreAvg = view.FinalScoreAvg
	}

	byGroup := map[string]*Group{}
	var names []string
	for _, d := range view.Details {
		level, _, ok := assessment.AchievedLevel(d)
		if !ok {
			continue
		}
		g, ok := byGroup[d.GroupName]
		if !ok {
			g = &Group{Name: d.GroupName}
			byGroup[d.GroupName] = g
			names = append(names, d.GroupName)
		}
		g.Items = append(g.Items, Item{Name: d.CompetencyName, Level: level, Required: d.RequiredLevel})
	}
	sort.Strings(names)
	for _, name := range names {
		g := byGroup[name]
		sort.Slice(g.Items, func(i, j int) bool { return g.Items[i].Name < g.Items[j].Name })
		doc.Groups = append(doc.Groups, *g)
	}
	return doc
}
