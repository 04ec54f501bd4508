package competency

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Framework is the YAML document used to seed or extend the competency
// catalogue:
//
//	groups:
//	  - name: Engineering
//	    competencies:
//	      - name: Code Quality
//	        levels:
//	          1: Follows team conventions
//	          2: Writes maintainable code unaided
type Framework struct {
	Groups []FrameworkGroup `yaml:"groups"`
}

type FrameworkGroup struct {
	Name         string                `yaml:"name"`
	Description  string                `yaml:"description"`
	Competencies []FrameworkCompetency `yaml:"competencies"`
}

type FrameworkCompetency struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Levels      map[int]string `yaml:"levels"`
}

func ParseFramework(r io.Reader) (Framework, error) {
	var fw Framework
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fw); err != nil {
		return Framework{}, fmt.Errorf("%w: %v", ErrInvalidFramework, err)
	}
	if err := fw.Validate(); err != nil {
		return Framework{}, err
	}
	return fw, nil
}

func (fw Framework) Validate() error {
	if len(fw.Groups) == 0 {
		return fmt.Errorf("%w: no groups defined", ErrInvalidFramework)
	}
	groupNames := map[string]struct{}{}
	for gi, group := range fw.Groups {
		name := strings.TrimSpace(group.Name)
		if name == "" {
			return fmt.Errorf("%w: group %d has no name", ErrInvalidFramework, gi+1)
		}
		if _, dup := groupNames[strings.ToLower(name)]; dup {
			return fmt.Errorf("%w: group %q is duplicated", ErrInvalidFramework, name)
		}
		groupNames[strings.ToLower(name)] = struct{}{}

		compNames := map[string]struct{}{}
		for _, comp := range group.Competencies {
			compName := strings.TrimSpace(comp.Name)
			if compName == "" {
				return fmt.Errorf("%w: group %q has a competency without name", ErrInvalidFramework, name)
			}
			if _, dup := compNames[strings.ToLower(compName)]; dup {
				return fmt.Errorf("%w: competency %q is duplicated in group %q", ErrInvalidFramework, compName, name)
			}
			compNames[strings.ToLower(compName)] = struct{}{}
			if _, err := ValidateLevels(comp.LevelList()); err != nil {
				return fmt.Errorf("%w: competency %q: %v", ErrInvalidFramework, compName, err)
			}
		}
	}
	return nil
}

func (c FrameworkCompetency) LevelList() []Level {
	out := make([]Level, 0, len(c.Levels))
	for number, indicator := range c.Levels {
		out = append(out, Level{LevelNumber: number, BehavioralIndicator: indicator})
	}
	return out
}
