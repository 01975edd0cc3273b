// Package arclength maps track positions onto the measurement line and back.
//
// The measurement line runs MeasurementRadius from each curve center and is
// parameterized counterclockwise as seen from above the track in direction of
// play: curve 1, the straightaway at y < 0, curve 2, then the straightaway at
// y > 0. The pivot line at (C1.X, y > 0) is zero.
package arclength

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

// PivotLineDistance returns the distance of p from the pivot line along the
// direction of play, in [0, MeasurementLength).
func PivotLineDistance(t track.Track, p core.Position) float64 {
	v := track.Vec(p)

	var d float64
	switch {
	case v.X > t.C1.X:
		theta := math.Atan2(v.Y-t.C1.Y, v.X-t.C1.X)
		d = track.NormalizeAngle(math.Pi/2-theta) * t.MeasurementRadius
	case v.X >= t.C2.X && v.Y <= 0:
		d = t.HalfCircle + (t.C1.X - v.X)
	case v.X < t.C2.X:
		theta := math.Atan2(v.Y-t.C2.Y, v.X-t.C2.X)
		d = t.HalfCircle + t.Straight + track.NormalizeAngle(-math.Pi/2-theta)*t.MeasurementRadius
	default:
		d = 2*t.HalfCircle + t.Straight + (v.X - t.C2.X)
	}
	return t.WrapDistance(d)
}

// Annotate returns copies of skaters with Derived.PivotLineDist set.
func Annotate(t track.Track, skaters []core.Skater) []core.Skater {
	out := core.CloneSkaters(skaters)
	for i := range out {
		out[i].Derived.PivotLineDist = PivotLineDistance(t, out[i].Position)
	}
	return out
}

// BoundaryPoints returns the inside and outside track edge points at
// coordinate d. d is wrapped first, so negative values are accepted.
func BoundaryPoints(t track.Track, d float64) core.BoundaryPoints {
	d = t.WrapDistance(d)

	switch {
	case d < t.HalfCircle:
		phi := -d/t.MeasurementRadius + math.Pi/2
		return radial(t, t.C1, t.C1Outer, phi)
	case d < t.HalfCircle+t.Straight:
		x := t.C1.X - (d - t.HalfCircle)
		return core.BoundaryPoints{
			Inside:  core.Position{X: x, Y: -t.InnerRadius},
			Outside: core.Position{X: x, Y: t.OuterTop(x)},
		}
	case d < 2*t.HalfCircle+t.Straight:
		phi := -(d-t.HalfCircle-t.Straight)/t.MeasurementRadius + 3*math.Pi/2
		return radial(t, t.C2, t.C2Outer, phi)
	default:
		x := t.C2.X + (d - 2*t.HalfCircle - t.Straight)
		return core.BoundaryPoints{
			Inside:  core.Position{X: x, Y: t.InnerRadius},
			Outside: core.Position{X: x, Y: t.OuterBottom(x)},
		}
	}
}

// BoundaryPointsFor maps several coordinates at once.
func BoundaryPointsFor(t track.Track, ds ...float64) []core.BoundaryPoints {
	out := make([]core.BoundaryPoints, len(ds))
	for i, d := range ds {
		out[i] = BoundaryPoints(t, d)
	}
	return out
}

// radial follows the ray from center at angle phi to both track edges. The
// outer circle is centered elsewhere, so of its two crossings the one ahead
// of the ray is used.
func radial(t track.Track, center, outerCenter r2.Vec, phi float64) core.BoundaryPoints {
	dir := track.Direction(phi)
	inside := r2.Add(center, r2.Scale(t.InnerRadius, dir))

	outside := r2.Add(center, r2.Scale(t.OuterRadius, dir))
	best := math.Inf(-1)
	for _, p := range track.IntersectLineCircle(center, dir, outerCenter, t.OuterRadius) {
		if along := r2.Dot(r2.Sub(p, center), dir); along > best {
			outside, best = p, along
		}
	}

	return core.BoundaryPoints{
		Inside:  track.Position(inside),
		Outside: track.Position(outside),
	}
}
