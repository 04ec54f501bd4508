package competency

import (
	"errors"
	"strings"
	"testing"
)

const sampleFramework = `
groups:
  - name: Engineering
    description: Technical craft
    competencies:
      - name: Code Quality
        levels:
          1: Follows team conventions
          2: Writes maintainable code unaided
          3: Raises the bar for the team
      - name: System Design
        levels:
          1: Understands existing components
  - name: Collaboration
    competencies:
      - name: Communication
        levels:
          2: Explains decisions clearly
`

func TestParseFramework(t *testing.T) {
	fw, err := ParseFramework(strings.NewReader(sampleFramework))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(fw.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(fw.Groups))
	}
	levels, err := ValidateLevels(fw.Groups[0].Competencies[0].LevelList())
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	if len(levels) != 3 || levels[2].BehavioralIndicator != "Raises the bar for the team" {
		t.Fatalf("unexpected levels %+v", levels)
	}
}

func TestParseFrameworkRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown field": "groups:\n  - name: A\n    colour: red\n",
		"level range":   "groups:\n  - name: A\n    competencies:\n      - name: X\n        levels:\n          7: too high\n",
		"duplicate":     "groups:\n  - name: A\n  - name: a\n",
		"empty":         "groups: []\n",
	}
	for name, doc := range tests {
		doc := doc
		t.Run(name, func(t *testing.T) {
			if _, err := ParseFramework(strings.NewReader(doc)); !errors.Is(err, ErrInvalidFramework) {
				t.Fatalf("expected ErrInvalidFramework, got %v", err)
			}
		})
	}
}
