package zone

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

// PackExtent returns the lines across the track that close off a rectangle
// measured pack. Each line passes through the boundary skater. On a curve it
// points away from the center toward the midpoint between the skater and its
// closest pack member; on a straightaway it runs straight across.
func PackExtent(t track.Track, b core.RectangleBoundaries) core.RectangleZone {
	return core.RectangleZone{
		Front: extentLine(t, b.Front, true),
		Back:  extentLine(t, b.Back, false),
	}
}

func extentLine(t track.Track, end core.EndPair, front bool) core.BoundaryPoints {
	p := track.Vec(end.Boundary.Position)
	mid := r2.Scale(0.5, r2.Add(p, track.Vec(end.Neighbor.Position)))

	if m := track.Angle(r2.Sub(mid, t.C1)); rightHalf(m) {
		return crossing(t, p, track.Direction(m), curve1, front)
	}
	if m := track.Angle(r2.Sub(mid, t.C2)); leftHalf(m) {
		return crossing(t, p, track.Direction(m), curve2, front)
	}
	return crossing(t, p, r2.Vec{X: 0, Y: 1}, straightaway, front)
}
