// Package parser turns snapshot JSON into core frames.
package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/derbytrack/packzone/pkg/core"
)

var (
	// ErrInvalidTeam is returned for a team other than A or B.
	ErrInvalidTeam = errors.New("invalid team")
	// ErrInvalidCoordinate is returned for positions that are not finite or
	// lie implausibly far from the track.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrDuplicateSkater is returned when two skaters share an ID.
	ErrDuplicateSkater = errors.New("duplicate skater id")
)

const (
	// maxLineSize bounds one JSON line of a replay stream.
	maxLineSize = 4 * 1024 * 1024
	// maxCoordinate is the largest accepted |x| or |y| in meters.
	maxCoordinate = 1000
)

type rawSkater struct {
	ID       int     `json:"id"`
	Team     string  `json:"team"`
	IsJammer bool    `json:"isJammer"`
	IsPivot  bool    `json:"isPivot"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

type rawFrame struct {
	Frame   uint        `json:"frame"`
	Time    *time.Time  `json:"time"`
	Skaters []rawSkater `json:"skaters"`
}

// Parser provides pure JSON -> core.Frame conversion.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseSnapshot parses one snapshot: either an object with frame, time and
// skaters, or a bare array of skaters taken as frame 0.
func (p *Parser) ParseSnapshot(data []byte) (core.Frame, error) {
	var raw rawFrame

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw.Skaters); err != nil {
			return core.Frame{}, fmt.Errorf("error unmarshalling skaters: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, &raw); err != nil {
		return core.Frame{}, fmt.Errorf("error unmarshalling snapshot: %w", err)
	}

	frame := core.Frame{Index: raw.Frame}
	if raw.Time != nil {
		frame.Time = raw.Time.UTC()
	}

	seen := make(map[int]bool, len(raw.Skaters))
	frame.Skaters = make([]core.Skater, 0, len(raw.Skaters))
	for i, rs := range raw.Skaters {
		s, err := parseSkater(rs)
		if err != nil {
			return core.Frame{}, fmt.Errorf("frame %d, skater %d: %w", raw.Frame, i, err)
		}
		if seen[s.ID] {
			return core.Frame{}, fmt.Errorf("frame %d: %w: %d", raw.Frame, ErrDuplicateSkater, s.ID)
		}
		seen[s.ID] = true
		frame.Skaters = append(frame.Skaters, s)
	}

	p.logger.Debug("Parsed snapshot", "frame", frame.Index, "skaters", len(frame.Skaters))
	return frame, nil
}

// parseSkater validates one raw skater record.
func parseSkater(rs rawSkater) (core.Skater, error) {
	team, err := core.ParseTeam(rs.Team)
	if err != nil {
		return core.Skater{}, fmt.Errorf("%w: %q", ErrInvalidTeam, rs.Team)
	}
	for _, v := range []float64{rs.X, rs.Y} {
		if math.IsNaN(v) || math.Abs(v) > maxCoordinate {
			return core.Skater{}, fmt.Errorf("%w: skater %d at (%g, %g)", ErrInvalidCoordinate, rs.ID, rs.X, rs.Y)
		}
	}
	if math.IsNaN(rs.Rotation) || math.IsInf(rs.Rotation, 0) {
		return core.Skater{}, fmt.Errorf("%w: skater %d rotation", ErrInvalidCoordinate, rs.ID)
	}
	return core.Skater{
		ID:       rs.ID,
		Team:     team,
		IsJammer: rs.IsJammer,
		IsPivot:  rs.IsPivot,
		Position: core.Position{X: rs.X, Y: rs.Y},
		Rotation: rs.Rotation,
	}, nil
}

// ReadFrames parses a JSON-lines stream and calls fn for every frame in
// order. Blank lines are skipped. Frames without an index get their line
// position, counting from 0. Parsing stops at the first error, which
// includes the line number.
func (p *Parser) ReadFrames(r io.Reader, fn func(core.Frame) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line, n := 0, uint(0)
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		frame, err := p.ParseSnapshot(data)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if frame.Index == 0 && !hasFrameIndex(data) {
			frame.Index = n
		}
		n++

		if err := fn(frame); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading frames: %w", err)
	}
	return nil
}

func hasFrameIndex(data []byte) bool {
	if len(data) == 0 || data[0] != '{' {
		return false
	}
	var head struct {
		Frame *uint `json:"frame"`
	}
	return json.Unmarshal(data, &head) == nil && head.Frame != nil
}
