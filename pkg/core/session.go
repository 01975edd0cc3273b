// pkg/core/session.go
package core

import (
	"time"

	"github.com/google/uuid"
)

// Frame is one position snapshot
type Frame struct {
	Index   uint      `json:"frame"`
	Time    time.Time `json:"time"`
	Skaters []Skater  `json:"skaters"`
}

// Evaluation is the result of evaluating one snapshot
type Evaluation struct {
	Method     Method          `json:"method"`
	Skaters    []Skater        `json:"skaters"`
	Pack       []int           `json:"pack"`
	Boundaries *PackBoundaries `json:"boundaries,omitempty"`
	Zone       *ZoneBoundary   `json:"zone,omitempty"`
	// PackExtent closes off a rectangle-measured pack; nil for sector
	// evaluations and frames without a pack.
	PackExtent *RectangleZone `json:"packExtent,omitempty"`
	Duration   time.Duration  `json:"duration"`
}

// HasPack reports whether a pack was found.
func (e Evaluation) HasPack() bool {
	return len(e.Pack) > 0
}

// FrameEvaluation ties an evaluation to the frame it was computed from
type FrameEvaluation struct {
	Frame      uint       `json:"frame"`
	Time       time.Time  `json:"time"`
	Evaluation Evaluation `json:"evaluation"`
}

// Session groups the frames of one recording run
type Session struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Method    Method    `json:"method"`
	StartTime time.Time `json:"startTime"`
}

// NewSession creates a session with a fresh ID.
func NewSession(name string, method Method, start time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		Name:      name,
		Method:    method,
		StartTime: start,
	}
}
