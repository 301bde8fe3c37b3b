package types

import "fmt"

// Level is the qualitative classification of a risk rating
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// AllLevels returns all levels ordered from least to most severe
func AllLevels() []Level {
	return []Level{
		LevelLow,
		LevelMedium,
		LevelHigh,
		LevelCritical,
	}
}

// IsValid checks if the level is valid
func (l Level) IsValid() bool {
	switch l {
	case LevelLow,
		LevelMedium,
		LevelHigh,
		LevelCritical:
		return true
	default:
		return false
	}
}

// Rank returns the position of the level in AllLevels, or -1 for an unknown level
func (l Level) Rank() int {
	for i, v := range AllLevels() {
		if v == l {
			return i
		}
	}
	return -1
}

// String returns the string representation of the level
func (l Level) String() string {
	return string(l)
}

// ParseLevel parses a string into a Level
func ParseLevel(s string) (Level, error) {
	level := Level(s)
	if !level.IsValid() {
		return "", fmt.Errorf("invalid level: %s", s)
	}
	return level, nil
}
