package assessment

import "testing"

func TestAveragesRoundAndSkipNil(t *testing.T) {
	details := []Detail{
		{CompetencyID: "a", SelfLevel: intPtr(3), FinalLevel: intPtr(4)},
		{CompetencyID: "b", SelfLevel: intPtr(4)},
		{CompetencyID: "c", SelfLevel: intPtr(4)},
	}
	self, final := Averages(details)
	if self == nil || *self != 3.67 {
		t.Fatalf("expected self avg 3.67, got %v", self)
	}
	if final == nil || *final != 4 {
		t.Fatalf("expected final avg 4, got %v", final)
	}

	again, _ := Averages(details)
	if *again != *self {
		t.Fatalf("recomputation changed the result: %v vs %v", *again, *self)
	}

	none, _ := Averages([]Detail{{CompetencyID: "x"}})
	if none != nil {
		t.Fatalf("expected nil average without values, got %v", *none)
	}
}

func TestGroupScores(t *testing.T) {
	details := []Detail{
		{CompetencyID: "a", GroupID: "g2", GroupName: "Leadership", SelfLevel: intPtr(2), RequiredLevel: intPtr(3)},
		{CompetencyID: "b", GroupID: "g1", GroupName: "Engineering", SelfLevel: intPtr(4), LeaderLevel: intPtr(3)},
		{CompetencyID: "c", GroupID: "g1", GroupName: "Engineering", SelfLevel: intPtr(5), LeaderLevel: intPtr(4)},
	}
	groups := GroupScores(details)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	eng := groups[0]
	if eng.GroupName != "Engineering" || eng.Count != 2 {
		t.Fatalf("unexpected first group: %+v", eng)
	}
	if *eng.Self != 4.5 || *eng.Leader != 3.5 || eng.Final != nil || eng.Required != nil {
		t.Fatalf("unexpected engineering scores: %+v", eng)
	}
	if *groups[1].Required != 3 {
		t.Fatalf("expected required 3, got %v", *groups[1].Required)
	}
}

func TestGapIsRawInDetailAndClampedWhenAggregated(t *testing.T) {
	details := []Detail{
		{CompetencyID: "over", RequiredLevel: intPtr(3), FinalLevel: intPtr(5)},
		{CompetencyID: "under", RequiredLevel: intPtr(4), SelfLevel: intPtr(2)},
		{CompetencyID: "none", RequiredLevel: intPtr(2)},
	}
	summary := Summarize(details)
	if len(summary.Gaps) != 2 {
		t.Fatalf("expected 2 gaps, got %d", len(summary.Gaps))
	}
	if summary.Gaps[0].Gap != -2 || summary.Gaps[0].Source != GapSourceFinal {
		t.Fatalf("expected raw gap -2 from final level, got %+v", summary.Gaps[0])
	}
	if summary.Gaps[1].Gap != 2 || summary.Gaps[1].Source != GapSourceSelf {
		t.Fatalf("expected gap 2 from self level, got %+v", summary.Gaps[1])
	}
	if summary.Underqualified.Count != 1 || summary.Underqualified.Sum != 2 {
		t.Fatalf("expected clamped aggregate 1/2, got %+v", summary.Underqualified)
	}
	if details[0].Gap == nil || *details[0].Gap != -2 {
		t.Fatalf("expected detail gap -2, got %v", details[0].Gap)
	}
	if details[2].Gap != nil {
		t.Fatalf("expected no gap without achieved level, got %v", *details[2].Gap)
	}
}

func TestSumUnderqualifiedClampsOnlyNegative(t *testing.T) {
	got := SumUnderqualified([]Gap{{Gap: -2}, {Gap: 0}, {Gap: 1}, {Gap: 3}})
	if got.Count != 2 || got.Sum != 4 {
		t.Fatalf("expected 2/4, got %+v", got)
	}
}
