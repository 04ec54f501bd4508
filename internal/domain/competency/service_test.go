package competency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type fakeStore struct {
	groups       map[string]Group
	competencies map[string]Competency
	requirements map[string]int
	usage        map[string]int
	bands        map[string]bool
	seq          int
	txCount      int
	deleteErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		groups:       map[string]Group{},
		competencies: map[string]Competency{},
		requirements: map[string]int{},
		usage:        map[string]int{},
		bands:        map[string]bool{"dev": true},
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) InTx(_ context.Context, fn func(tx StoreAPI) error) error {
	f.txCount++
	return fn(f)
}

func (f *fakeStore) ListGroups(context.Context) ([]Group, error) {
	out := []Group{}
	for id := range f.groups {
		g, _ := f.GetGroup(context.Background(), id)
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeStore) GetGroup(_ context.Context, id string) (Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return Group{}, ErrNotFound
	}
	g.CompetencyCount = 0
	for _, c := range f.competencies {
		if c.GroupID == id {
			g.CompetencyCount++
		}
	}
	return g, nil
}

func (f *fakeStore) CreateGroup(_ context.Context, g Group) (string, error) {
	g.ID = f.nextID("g")
	f.groups[g.ID] = g
	return g.ID, nil
}

func (f *fakeStore) UpdateGroup(_ context.Context, id string, g Group) error {
	if _, ok := f.groups[id]; !ok {
		return ErrNotFound
	}
	g.ID = id
	f.groups[id] = g
	return nil
}

func (f *fakeStore) DeleteGroup(_ context.Context, id string) error {
	delete(f.groups, id)
	return nil
}

func (f *fakeStore) FindGroupByName(_ context.Context, name string) (string, bool, error) {
	for id, g := range f.groups {
		if strings.EqualFold(g.Name, name) {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeStore) ListCompetencies(_ context.Context, groupID string) ([]Competency, error) {
	out := []Competency{}
	for _, c := range f.competencies {
		if groupID == "" || c.GroupID == groupID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) GetCompetency(_ context.Context, id string) (Competency, error) {
	c, ok := f.competencies[id]
	if !ok {
		return Competency{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) FindCompetencyByName(_ context.Context, groupID, name string) (string, bool, error) {
	for id, c := range f.competencies {
		if c.GroupID == groupID && strings.EqualFold(c.Name, name) {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeStore) CreateCompetency(_ context.Context, c Competency) (string, error) {
	c.ID = f.nextID("c")
	f.competencies[c.ID] = c
	return c.ID, nil
}

func (f *fakeStore) UpdateCompetency(_ context.Context, id string, c Competency) error {
	existing, ok := f.competencies[id]
	if !ok {
		return ErrNotFound
	}
	c.ID = id
	c.Levels = existing.Levels
	f.competencies[id] = c
	return nil
}

func (f *fakeStore) ReplaceLevels(_ context.Context, id string, levels []Level) error {
	c := f.competencies[id]
	c.Levels = levels
	f.competencies[id] = c
	return nil
}

func (f *fakeStore) CompetencyUsage(_ context.Context, id string) (int, error) {
	return f.usage[id], nil
}

func (f *fakeStore) DeleteCompetency(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.competencies, id)
	return nil
}

func (f *fakeStore) BandExists(_ context.Context, bandID string) (bool, error) {
	return f.bands[bandID], nil
}

func (f *fakeStore) ListRequirements(_ context.Context, bandID string) ([]Requirement, error) {
	out := []Requirement{}
	for key, level := range f.requirements {
		parts := strings.SplitN(key, "|", 2)
		if bandID == "" || parts[0] == bandID {
			out = append(out, Requirement{CareerBandID: parts[0], CompetencyID: parts[1], RequiredLevel: level})
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertRequirement(_ context.Context, bandID, compID string, level int) error {
	f.requirements[bandID+"|"+compID] = level
	return nil
}

func (f *fakeStore) DeleteRequirement(_ context.Context, bandID, compID string) error {
	delete(f.requirements, bandID+"|"+compID)
	return nil
}

func oneLevel() []Level {
	return []Level{{LevelNumber: 1, BehavioralIndicator: "Basic"}}
}

func TestDeleteGroupWithCompetenciesIsRejected(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, Group{Name: " Engineering "})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if group.Name != "Engineering" {
		t.Fatalf("expected trimmed name, got %q", group.Name)
	}
	comp, err := svc.CreateCompetency(ctx, Competency{GroupID: group.ID, Name: "Go", Levels: oneLevel()})
	if err != nil {
		t.Fatalf("create competency: %v", err)
	}

	if _, err := svc.DeleteGroup(ctx, group.ID); !errors.Is(err, ErrGroupNotEmpty) {
		t.Fatalf("expected group not empty, got %v", err)
	}

	if _, err := svc.DeleteCompetency(ctx, comp.ID); err != nil {
		t.Fatalf("delete competency: %v", err)
	}
	if _, err := svc.DeleteGroup(ctx, group.ID); err != nil {
		t.Fatalf("delete empty group: %v", err)
	}
}

func TestDeleteCompetencyInUse(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	group, _ := svc.CreateGroup(ctx, Group{Name: "Eng"})
	comp, _ := svc.CreateCompetency(ctx, Competency{GroupID: group.ID, Name: "Go", Levels: oneLevel()})
	store.usage[comp.ID] = 2

	if _, err := svc.DeleteCompetency(ctx, comp.ID); !errors.Is(err, ErrCompetencyInUse) {
		t.Fatalf("expected in-use error, got %v", err)
	}
}

func TestCreateCompetencyValidatesLevelsAndGroup(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	if _, err := svc.CreateCompetency(ctx, Competency{GroupID: "missing", Name: "Go", Levels: oneLevel()}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected missing group, got %v", err)
	}
	if _, err := svc.CreateCompetency(ctx, Competency{GroupID: "g", Name: "Go"}); !errors.Is(err, ErrInvalidLevels) {
		t.Fatalf("expected invalid levels, got %v", err)
	}
}

func TestUpdateCompetencyReplacesLevels(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()
	group, _ := svc.CreateGroup(ctx, Group{Name: "Eng"})
	comp, _ := svc.CreateCompetency(ctx, Competency{GroupID: group.ID, Name: "Go", Levels: oneLevel()})

	updated, err := svc.UpdateCompetency(ctx, comp.ID, Competency{
		GroupID: group.ID,
		Name:    "Go",
		Levels: []Level{
			{LevelNumber: 2, BehavioralIndicator: "Solid"},
			{LevelNumber: 1, BehavioralIndicator: "Basic"},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Levels) != 2 || updated.Levels[0].LevelNumber != 1 {
		t.Fatalf("expected sorted replacement levels, got %+v", updated.Levels)
	}
}

func TestSetRequirementNilRemoves(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	group, _ := svc.CreateGroup(ctx, Group{Name: "Eng"})
	comp, _ := svc.CreateCompetency(ctx, Competency{GroupID: group.ID, Name: "Go", Levels: oneLevel()})

	level := 3
	if err := svc.SetRequirement(ctx, "dev", comp.ID, &level); err != nil {
		t.Fatalf("set: %v", err)
	}
	matrix, err := svc.LoadMatrix(ctx)
	if err != nil {
		t.Fatalf("matrix: %v", err)
	}
	if got, ok := matrix.Get("dev", comp.ID); !ok || got != 3 {
		t.Fatalf("expected level 3, got %d %v", got, ok)
	}

	bad := 6
	if err := svc.SetRequirement(ctx, "dev", comp.ID, &bad); !errors.Is(err, ErrInvalidRequiredLevel) {
		t.Fatalf("expected invalid level, got %v", err)
	}

	if err := svc.SetRequirement(ctx, "dev", comp.ID, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(store.requirements) != 0 {
		t.Fatalf("expected requirement removed, got %v", store.requirements)
	}
}

func TestSetRequirementUnknownBandOrCompetency(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	group, _ := svc.CreateGroup(ctx, Group{Name: "Eng"})
	comp, _ := svc.CreateCompetency(ctx, Competency{GroupID: group.ID, Name: "Go", Levels: oneLevel()})

	level := 2
	if err := svc.SetRequirement(ctx, "ghost", comp.ID, &level); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected unknown band to be not found, got %v", err)
	}
	if err := svc.SetRequirement(ctx, "dev", "missing", &level); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected unknown competency to be not found, got %v", err)
	}
	if len(store.requirements) != 0 {
		t.Fatalf("expected nothing stored, got %v", store.requirements)
	}
}

func TestDeleteCompetencyReportsConcurrentUse(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	group, _ := svc.CreateGroup(ctx, Group{Name: "Eng"})
	comp, _ := svc.CreateCompetency(ctx, Competency{GroupID: group.ID, Name: "Go", Levels: oneLevel()})

	// usage is zero at check time; the store reports the FK conflict on delete.
	store.deleteErr = ErrCompetencyInUse
	before := store.txCount
	if _, err := svc.DeleteCompetency(ctx, comp.ID); !errors.Is(err, ErrCompetencyInUse) {
		t.Fatalf("expected in-use error, got %v", err)
	}
	if store.txCount != before+1 {
		t.Fatalf("expected the check and delete to share a transaction")
	}
	if _, ok := store.competencies[comp.ID]; !ok {
		t.Fatal("expected competency to survive")
	}
}

func TestImportFrameworkUpsertsByName(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	doc := `
groups:
  - name: Engineering
    competencies:
      - name: Code Quality
        levels:
          1: Follows conventions
          2: Writes maintainable code
      - name: Testing
        levels:
          1: Writes unit tests
`
	fw, err := ParseFramework(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	first, err := svc.ImportFramework(ctx, fw)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if first.GroupsCreated != 1 || first.CompetenciesCreated != 2 || first.CompetenciesUpdated != 0 {
		t.Fatalf("unexpected first summary: %+v", first)
	}

	second, err := svc.ImportFramework(ctx, fw)
	if err != nil {
		t.Fatalf("reimport: %v", err)
	}
	if second.GroupsCreated != 0 || second.CompetenciesCreated != 0 || second.CompetenciesUpdated != 2 {
		t.Fatalf("unexpected second summary: %+v", second)
	}
	if len(store.competencies) != 2 {
		t.Fatalf("expected 2 competencies, got %d", len(store.competencies))
	}
}
