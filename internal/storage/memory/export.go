// internal/storage/memory/export.go
package memory

import (
	"cmp"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/derbytrack/packzone/internal/geo"
	"github.com/derbytrack/packzone/internal/storage"
	"github.com/derbytrack/packzone/pkg/core"
)

// SessionExport is the root JSON structure of an exported session
type SessionExport struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Method    core.Method `json:"method"`
	StartTime time.Time   `json:"startTime"`
	EndFrame  uint        `json:"endFrame"`
	Anchor    *geo.LonLat `json:"anchor,omitempty"`
	Frames    []FrameJSON `json:"frames"`
}

// FrameJSON is one evaluated frame
type FrameJSON struct {
	Frame      uint                 `json:"frame"`
	Time       time.Time            `json:"time"`
	Pack       []int                `json:"pack"`
	Boundaries *core.PackBoundaries `json:"boundaries,omitempty"`
	Zone       *core.ZoneBoundary   `json:"zone,omitempty"`
	PackExtent *core.RectangleZone  `json:"packExtent,omitempty"`
	EvalMicros int64                `json:"evalMicros"`
	Skaters    []SkaterJSON         `json:"skaters"`
}

// SkaterJSON is an evaluated skater, with WGS84 coordinates when the track
// is georeferenced
type SkaterJSON struct {
	core.Skater
	WGS84 *geo.LonLat `json:"wgs84,omitempty"`
}

// exportJSON writes the session to a JSON file, gzipped when configured.
func (b *Backend) exportJSON() error {
	export := BuildExport(*b.session, b.frames, b.georef)

	fileName := storage.SessionFileName(b.session.Name, b.session.StartTime, b.cfg.CompressOutput)
	outputPath := filepath.Join(b.cfg.OutputDir, fileName)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := WriteExport(outputPath, export, b.cfg.CompressOutput); err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

// BuildExport assembles the export of a session. Frames are ordered by
// frame index.
func BuildExport(s core.Session, frames []core.FrameEvaluation, g *geo.Georef) SessionExport {
	export := SessionExport{
		ID:        s.ID.String(),
		Name:      s.Name,
		Method:    s.Method,
		StartTime: s.StartTime,
		Frames:    make([]FrameJSON, 0, len(frames)),
	}
	if anchor, ok := g.LonLat(core.Position{}); ok {
		export.Anchor = &anchor
	}

	sorted := slices.Clone(frames)
	slices.SortStableFunc(sorted, func(a, b core.FrameEvaluation) int {
		return cmp.Compare(a.Frame, b.Frame)
	})

	for _, fe := range sorted {
		ev := fe.Evaluation
		frame := FrameJSON{
			Frame:      fe.Frame,
			Time:       fe.Time,
			Pack:       ev.Pack,
			Boundaries: ev.Boundaries,
			Zone:       ev.Zone,
			PackExtent: ev.PackExtent,
			EvalMicros: ev.Duration.Microseconds(),
			Skaters:    make([]SkaterJSON, 0, len(ev.Skaters)),
		}
		if frame.Pack == nil {
			frame.Pack = []int{}
		}
		for _, s := range ev.Skaters {
			sj := SkaterJSON{Skater: s}
			if ll, ok := g.LonLat(s.Position); ok {
				sj.WGS84 = &ll
			}
			frame.Skaters = append(frame.Skaters, sj)
		}
		export.Frames = append(export.Frames, frame)
		if fe.Frame > export.EndFrame {
			export.EndFrame = fe.Frame
		}
	}

	return export
}

// WriteExport writes data to path as JSON, gzipped when compress is set.
func WriteExport(path string, data SessionExport, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if !compress {
		return encode(f, data)
	}

	gzWriter := gzip.NewWriter(f)
	if err := encode(gzWriter, data); err != nil {
		return err
	}
	return gzWriter.Close()
}

func encode(w io.Writer, data SessionExport) error {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return nil
}
