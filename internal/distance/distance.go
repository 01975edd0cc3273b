// Package distance measures how far apart two skaters are under either
// measurement method.
package distance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

// Between dispatches on method. Skaters must already carry PivotLineDist
// for the sector method.
func Between(t track.Track, a, b core.Skater, method core.Method) float64 {
	if method == core.MethodRectangle {
		return Rectangle(t, a.Position, b.Position)
	}
	return Sector(t, a, b)
}

// Sector is the shorter way around the measurement line. It never exceeds
// half the measurement length.
func Sector(t track.Track, a, b core.Skater) float64 {
	d := math.Abs(a.Derived.PivotLineDist - b.Derived.PivotLineDist)
	return math.Min(d, t.MeasurementLength-d)
}

// Rectangle measures perpendicular to the track: on a curve along the
// chord perpendicular to the radial line through the midpoint, on a
// straightaway along x. Skaters on different straightaways or further apart
// than the cutoff are infinitely far.
func Rectangle(t track.Track, pa, pb core.Position) float64 {
	p1, p2 := track.Vec(pa), track.Vec(pb)
	if r2.Norm(r2.Sub(p1, p2)) > t.RectangleCutoff {
		return math.Inf(1)
	}

	c1p1 := r2.Sub(p1, t.C1)
	alpha := track.Angle(r2.Add(c1p1, r2.Sub(p2, t.C1)))
	if alpha >= 3*math.Pi/2 || alpha <= math.Pi/2 {
		return chord(alpha, c1p1)
	}

	c2p1 := r2.Sub(p1, t.C2)
	alpha = track.Angle(r2.Add(c2p1, r2.Sub(p2, t.C2)))
	if alpha >= math.Pi/2 && alpha <= 3*math.Pi/2 {
		return chord(alpha, c2p1)
	}

	mid := r2.Scale(0.5, r2.Add(p1, p2))
	if t.OnStraight(mid.X) {
		if p1.Y*p2.Y < 0 {
			return math.Inf(1)
		}
		return math.Abs(p1.X - p2.X)
	}

	panic(fmt.Sprintf("distance: midpoint %v matches no track region", mid))
}

// chord is twice the distance of v from the radial line at angle alpha.
func chord(alpha float64, v r2.Vec) float64 {
	return 2 * math.Abs(math.Cos(alpha)*v.Y-math.Sin(alpha)*v.X)
}
