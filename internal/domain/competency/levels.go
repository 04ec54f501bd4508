package competency

import (
	"fmt"
	"sort"
	"strings"
)

// ValidateLevels checks a competency's level ladder and returns it sorted by
// level number. Each entry needs a number in 1..5, unique within the
// competency, and a behavioral indicator.
func ValidateLevels(levels []Level) ([]Level, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: at least one level is required", ErrInvalidLevels)
	}
	if len(levels) > MaxLevel {
		return nil, fmt.Errorf("%w: at most %d levels are allowed", ErrInvalidLevels, MaxLevel)
	}
	seen := map[int]struct{}{}
	out := make([]Level, 0, len(levels))
	for _, level := range levels {
		if level.LevelNumber < MinLevel || level.LevelNumber > MaxLevel {
			return nil, fmt.Errorf("%w: level %d is outside %d-%d", ErrInvalidLevels, level.LevelNumber, MinLevel, MaxLevel)
		}
		if _, dup := seen[level.LevelNumber]; dup {
			return nil, fmt.Errorf("%w: level %d is duplicated", ErrInvalidLevels, level.LevelNumber)
		}
		seen[level.LevelNumber] = struct{}{}
		level.BehavioralIndicator = strings.TrimSpace(level.BehavioralIndicator)
		if level.BehavioralIndicator == "" {
			return nil, fmt.Errorf("%w: level %d needs a behavioral indicator", ErrInvalidLevels, level.LevelNumber)
		}
		out = append(out, level)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LevelNumber < out[j].LevelNumber })
	return out, nil
}

func ValidRequiredLevel(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}
