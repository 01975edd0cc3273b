// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/derbytrack/packzone/internal/geo"
	"github.com/derbytrack/packzone/internal/model"
	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

// Rows holds everything one frame evaluation writes to the database.
// Boundary is nil for frames without a pack.
type Rows struct {
	Frame    model.Frame
	Skaters  []model.SkaterState
	Boundary *model.PackBoundary
}

// pointOrEmpty drops geometry that failed validation.
func pointOrEmpty(p geom.Point, err error) geom.Point {
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXY)
	}
	return p
}

func lineOrEmpty(ls geom.LineString, err error) geom.LineString {
	if err != nil {
		return geom.LineString{}
	}
	return ls
}

// positionToPoint converts a track-plane position to a geom.Point
func positionToPoint(p core.Position) geom.Point {
	return pointOrEmpty(geom.NewPoint(geom.Coordinates{XY: geom.XY{X: p.X, Y: p.Y}, Type: geom.DimXY}))
}

// toJSON marshals v for a datatypes.JSON column. Nil values become "null".
func toJSON(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(data)
}

// CoreToSession converts a core.Session to a GORM model.Session. A non-nil
// georef stores the WGS84 position of the track origin as Anchor.
func CoreToSession(s core.Session, cfg track.Config, g *geo.Georef) model.Session {
	out := model.Session{
		ID:        s.ID,
		Name:      s.Name,
		Method:    string(s.Method),
		StartTime: s.StartTime,
		Track:     toJSON(cfg),
	}
	if ll, ok := g.LonLat(core.Position{}); ok {
		out.Anchor = pointOrEmpty(geom.NewPoint(geom.Coordinates{XY: geom.XY{X: ll.Longitude, Y: ll.Latitude}, Type: geom.DimXY}))
	}
	return out
}

// CoreToFrame converts the summary of a frame evaluation to a model.Frame.
func CoreToFrame(sessionID uuid.UUID, fe core.FrameEvaluation) model.Frame {
	ev := fe.Evaluation
	f := model.Frame{
		SessionID:  sessionID,
		FrameIndex: fe.Frame,
		Time:       fe.Time,
		Method:     string(ev.Method),
		HasPack:    ev.HasPack(),
		PackSize:   uint16(len(ev.Pack)),
		Pack:       toJSON(packIDs(ev.Pack)),
		EvalMicros: ev.Duration.Microseconds(),
	}
	for _, s := range ev.Skaters {
		if s.Derived.InPlay {
			f.InPlay++
		}
		if !s.Derived.InBounds {
			f.OutOfBounds++
		}
	}
	return f
}

func packIDs(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}

// CoreToSkaterState converts one evaluated skater to a model.SkaterState.
func CoreToSkaterState(sessionID uuid.UUID, fe core.FrameEvaluation, s core.Skater, g *geo.Georef) model.SkaterState {
	st := model.SkaterState{
		SessionID:  sessionID,
		FrameIndex: fe.Frame,
		Time:       fe.Time,
		SkaterID:   s.ID,
		Team:       string(s.Team),
		IsJammer:   s.IsJammer,
		IsPivot:    s.IsPivot,
		Position:   positionToPoint(s.Position),
		Rotation:   float32(s.Rotation),
		InBounds:   s.Derived.InBounds,
		InPlay:     s.Derived.InPlay,
		PackSkater: s.Derived.PackSkater,
	}
	if g != nil {
		st.Location = pointOrEmpty(g.Point(s.Position))
	}
	if s.Derived.InBounds {
		st.PivotLineDist = sql.NullFloat64{Float64: s.Derived.PivotLineDist, Valid: true}
	}
	return st
}

// CoreToPackBoundary converts the pack ends and zone of an evaluation. ok is
// false when the evaluation found no pack.
func CoreToPackBoundary(sessionID uuid.UUID, fe core.FrameEvaluation, g *geo.Georef) (model.PackBoundary, bool) {
	ev := fe.Evaluation
	if ev.Boundaries == nil {
		return model.PackBoundary{}, false
	}
	pb := model.PackBoundary{
		SessionID:  sessionID,
		FrameIndex: fe.Frame,
		Time:       fe.Time,
		Method:     string(ev.Boundaries.Method),
		Boundaries: toJSON(ev.Boundaries),
		Zone:       toJSON(ev.Zone),
	}
	if sb := ev.Boundaries.Sector; sb != nil {
		pb.SectorStart = sql.NullFloat64{Float64: sb.Start, Valid: true}
		pb.SectorEnd = sql.NullFloat64{Float64: sb.End, Valid: true}
	}
	if ev.Zone != nil && ev.Zone.Rectangle != nil {
		rz := ev.Zone.Rectangle
		pb.FrontLine = lineOrEmpty(g.Line(rz.Front.Inside, rz.Front.Outside))
		pb.BackLine = lineOrEmpty(g.Line(rz.Back.Inside, rz.Back.Outside))
	}
	if ext := ev.PackExtent; ext != nil {
		pb.Extent = toJSON(ext)
		pb.ExtentFrontLine = lineOrEmpty(g.Line(ext.Front.Inside, ext.Front.Outside))
		pb.ExtentBackLine = lineOrEmpty(g.Line(ext.Back.Inside, ext.Back.Outside))
	}
	return pb, true
}

// CoreToRows converts a whole frame evaluation.
func CoreToRows(sessionID uuid.UUID, fe core.FrameEvaluation, g *geo.Georef) Rows {
	rows := Rows{
		Frame:   CoreToFrame(sessionID, fe),
		Skaters: make([]model.SkaterState, 0, len(fe.Evaluation.Skaters)),
	}
	for _, s := range fe.Evaluation.Skaters {
		rows.Skaters = append(rows.Skaters, CoreToSkaterState(sessionID, fe, s, g))
	}
	if pb, ok := CoreToPackBoundary(sessionID, fe, g); ok {
		rows.Boundary = &pb
	}
	return rows
}
