// pkg/core/skater.go
package core

import (
	"fmt"
	"strings"
)

// Team identifies which side a skater plays for
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// ParseTeam converts "A"/"B" (any case) into a Team.
func ParseTeam(s string) (Team, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return TeamA, nil
	case "B":
		return TeamB, nil
	default:
		return "", fmt.Errorf("unknown team %q", s)
	}
}

// Method selects how distances between skaters are measured
type Method string

const (
	MethodSector    Method = "sector"
	MethodRectangle Method = "rectangle"
)

// ParseMethod converts a config or CLI string into a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodSector:
		return MethodSector, nil
	case MethodRectangle:
		return MethodRectangle, nil
	default:
		return "", fmt.Errorf("unknown measurement method %q", s)
	}
}

// Position is a point on the track plane in meters, origin at the track center
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Derived holds the attributes computed for a skater during an evaluation.
// PivotLineDist is only meaningful while InBounds is true.
type Derived struct {
	InBounds      bool    `json:"inBounds"`
	PivotLineDist float64 `json:"pivotLineDist"`
	InPlay        bool    `json:"inPlay"`
	PackSkater    bool    `json:"packSkater"`
}

// Skater is one player in a position snapshot
type Skater struct {
	ID       int      `json:"id"`
	Team     Team     `json:"team"`
	IsJammer bool     `json:"isJammer"`
	IsPivot  bool     `json:"isPivot"`
	Position Position `json:"position"`
	Rotation float64  `json:"rotation"`
	Derived  Derived  `json:"derived"`
}

// IsBlocker reports whether the skater may count towards the pack.
func (s Skater) IsBlocker() bool {
	return !s.IsJammer
}

// CloneSkaters returns a copy of the slice so callers' records stay untouched.
func CloneSkaters(skaters []Skater) []Skater {
	if skaters == nil {
		return nil
	}
	out := make([]Skater, len(skaters))
	copy(out, skaters)
	return out
}
