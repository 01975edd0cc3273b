package convert

import (
	"encoding/json"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/derbytrack/packzone/internal/model"
	"github.com/derbytrack/packzone/pkg/core"
)

// pointToPosition converts a geom.Point to a track-plane position
func pointToPosition(p geom.Point) core.Position {
	coord, ok := p.Coordinates()
	if !ok {
		return core.Position{}
	}
	return core.Position{X: coord.XY.X, Y: coord.XY.Y}
}

// lineStringToPositions converts a geom.LineString to its vertices
func lineStringToPositions(ls geom.LineString) []core.Position {
	seq := ls.Coordinates()
	if seq.Length() == 0 {
		return nil
	}
	out := make([]core.Position, seq.Length())
	for i := 0; i < seq.Length(); i++ {
		pt := seq.GetXY(i)
		out[i] = core.Position{X: pt.X, Y: pt.Y}
	}
	return out
}

// SessionToCore converts a GORM Session to a core.Session.
func SessionToCore(s model.Session) core.Session {
	return core.Session{
		ID:        s.ID,
		Name:      s.Name,
		Method:    core.Method(s.Method),
		StartTime: s.StartTime,
	}
}

// SkaterStateToCore converts a GORM SkaterState to an evaluated core.Skater.
func SkaterStateToCore(st model.SkaterState) core.Skater {
	return core.Skater{
		ID:       st.SkaterID,
		Team:     core.Team(st.Team),
		IsJammer: st.IsJammer,
		IsPivot:  st.IsPivot,
		Position: pointToPosition(st.Position),
		Rotation: float64(st.Rotation),
		Derived: core.Derived{
			InBounds:      st.InBounds,
			PivotLineDist: st.PivotLineDist.Float64,
			InPlay:        st.InPlay,
			PackSkater:    st.PackSkater,
		},
	}
}

// RowsToCore rebuilds a frame evaluation from its stored rows. Malformed JSON
// columns leave the matching fields empty.
func RowsToCore(r Rows) core.FrameEvaluation {
	ev := core.Evaluation{
		Method:   core.Method(r.Frame.Method),
		Skaters:  make([]core.Skater, 0, len(r.Skaters)),
		Duration: time.Duration(r.Frame.EvalMicros) * time.Microsecond,
	}
	for _, st := range r.Skaters {
		ev.Skaters = append(ev.Skaters, SkaterStateToCore(st))
	}
	if len(r.Frame.Pack) > 0 {
		var ids []int
		if err := json.Unmarshal(r.Frame.Pack, &ids); err == nil && len(ids) > 0 {
			ev.Pack = ids
		}
	}
	if r.Boundary != nil {
		var b core.PackBoundaries
		if err := json.Unmarshal(r.Boundary.Boundaries, &b); err == nil {
			ev.Boundaries = &b
		}
		var z core.ZoneBoundary
		if err := json.Unmarshal(r.Boundary.Zone, &z); err == nil && z.Method != "" {
			ev.Zone = &z
		}
		if len(r.Boundary.Extent) > 0 {
			var ext *core.RectangleZone
			if err := json.Unmarshal(r.Boundary.Extent, &ext); err == nil {
				ev.PackExtent = ext
			}
		}
	}
	return core.FrameEvaluation{
		Frame:      r.Frame.FrameIndex,
		Time:       r.Frame.Time,
		Evaluation: ev,
	}
}

// ZoneLines returns the stored front and back zone lines, inside edge first.
func ZoneLines(pb model.PackBoundary) (front, back []core.Position) {
	return lineStringToPositions(pb.FrontLine), lineStringToPositions(pb.BackLine)
}

// ExtentLines returns the stored pack extent lines, inside edge first.
func ExtentLines(pb model.PackBoundary) (front, back []core.Position) {
	return lineStringToPositions(pb.ExtentFrontLine), lineStringToPositions(pb.ExtentBackLine)
}
