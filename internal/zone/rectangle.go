package zone

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

type region int

const (
	curve1 region = iota
	curve2
	straightaway
)

// hit is an optional intersection point.
type hit struct {
	p  r2.Vec
	ok bool
}

func (h hit) or(other hit) hit {
	if h.ok {
		return h
	}
	return other
}

// EngagementIntersections returns where the engagement zone line in front of
// (front) or behind the boundary skater at p crosses the track edges.
//
// On a curve the line is parallel to the radial line that bisects the skater
// and the zone end, at the engagement distance from the skater. On a
// straightaway it is the vertical line at the engagement distance along x.
func EngagementIntersections(t track.Track, p core.Position, front bool) core.BoundaryPoints {
	pos := track.Vec(p)
	half := t.EngagementDistance / 2

	if m, ok := bisector(pos, t.C1, half, front); ok && rightHalf(m) {
		return crossing(t, reflect(pos, t.C1, m, half), track.Direction(m), curve1, front)
	}
	if m, ok := bisector(pos, t.C2, half, front); ok && leftHalf(m) {
		return crossing(t, reflect(pos, t.C2, m, half), track.Direction(m), curve2, front)
	}

	sign := -1.0
	if (front && pos.Y >= 0) || (!front && pos.Y < 0) {
		sign = 1
	}
	if t.OnStraight(pos.X + sign*half) {
		q := r2.Vec{X: pos.X + sign*t.EngagementDistance, Y: pos.Y}
		return crossing(t, q, r2.Vec{X: 0, Y: 1}, straightaway, front)
	}

	panic(fmt.Sprintf("zone: boundary skater at %v matches no track region", p))
}

// RectangleZone builds both ends of the engagement zone.
func RectangleZone(t track.Track, back, front core.Position) core.RectangleZone {
	return core.RectangleZone{
		Front: EngagementIntersections(t, front, true),
		Back:  EngagementIntersections(t, back, false),
	}
}

// bisector returns the angle about center of the radial line half way
// between the skater and the zone end. Play runs clockwise about both
// centers, so the front is at a smaller angle.
func bisector(pos, center r2.Vec, half float64, front bool) (float64, bool) {
	v := r2.Sub(pos, center)
	dist := r2.Norm(v)
	if dist <= half {
		return 0, false
	}
	alpha := math.Asin(half / dist)
	theta := track.Angle(v)
	if front {
		return track.NormalizeAngle(theta - alpha), true
	}
	return track.NormalizeAngle(theta + alpha), true
}

// reflect mirrors pos across the radial line at angle m about center.
func reflect(pos, center r2.Vec, m, half float64) r2.Vec {
	v := r2.Sub(pos, center)
	foot := math.Sqrt(r2.Norm2(v) - half*half)
	mid := r2.Add(center, r2.Scale(foot, track.Direction(m)))
	return r2.Sub(r2.Scale(2, mid), pos)
}

func rightHalf(a float64) bool {
	return a >= 3*math.Pi/2 || a <= math.Pi/2
}

func leftHalf(a float64) bool {
	return a >= math.Pi/2 && a <= 3*math.Pi/2
}

// crossing intersects the line through q along dir with the track edges.
// On curves the half circle is preferred over the adjoining straightaway,
// on straightaways the other way around.
func crossing(t track.Track, q, dir r2.Vec, r region, front bool) core.BoundaryPoints {
	var right, upper bool
	switch r {
	case curve1:
		right, upper = true, !front
	case curve2:
		right, upper = false, front
	default:
		upper = q.Y >= 0
		right = front == upper
	}

	circleIn, circleOut := halfCircleHits(t, q, dir, right)
	lineIn, lineOut := straightHits(t, q, dir, upper)

	inside, outside := circleIn.or(lineIn), circleOut.or(lineOut)
	if r == straightaway {
		inside, outside = lineIn.or(circleIn), lineOut.or(circleOut)
	}
	if !inside.ok || !outside.ok {
		panic(fmt.Sprintf("zone: line through %v misses the track edges", q))
	}
	return core.BoundaryPoints{
		Inside:  track.Position(inside.p),
		Outside: track.Position(outside.p),
	}
}

// halfCircleHits intersects with the inner and outer circles of one curve,
// keeping points on that curve's side and the one nearest q.
func halfCircleHits(t track.Track, q, dir r2.Vec, right bool) (inside, outside hit) {
	center, outerCenter := t.C2, t.C2Outer
	if right {
		center, outerCenter = t.C1, t.C1Outer
	}
	onSide := func(p r2.Vec) bool {
		if right {
			return p.X >= t.C1.X
		}
		return p.X <= t.C2.X
	}

	pick := func(pts []r2.Vec) hit {
		var kept []r2.Vec
		for _, p := range pts {
			if onSide(p) {
				kept = append(kept, p)
			}
		}
		p, ok := track.Closest(q, kept)
		return hit{p: p, ok: ok}
	}

	inside = pick(track.IntersectLineCircle(q, dir, center, t.InnerRadius))
	outside = pick(track.IntersectLineCircle(q, dir, outerCenter, t.OuterRadius))
	return inside, outside
}

// straightHits intersects with the inner and outer edges of one
// straightaway, keeping points strictly between the curves.
func straightHits(t track.Track, q, dir r2.Vec, upper bool) (inside, outside hit) {
	innerY := -t.InnerRadius
	outerAtZero := t.OuterTop(0)
	if upper {
		innerY = t.InnerRadius
		outerAtZero = t.OuterBottom(0)
	}

	pick := func(p r2.Vec, ok bool) hit {
		return hit{p: p, ok: ok && t.OnStraight(p.X)}
	}

	inside = pick(track.IntersectLines(q, dir, r2.Vec{X: 0, Y: innerY}, r2.Vec{X: 1, Y: 0}))
	outside = pick(track.IntersectLines(q, dir, r2.Vec{X: 0, Y: outerAtZero}, r2.Vec{X: 1, Y: t.OuterSlope()}))
	return inside, outside
}

// raise adds full turns to a until it is at least floor.
func raise(a, floor float64) float64 {
	for a < floor {
		a += 2 * math.Pi
	}
	return a
}

func angleFrom(origin, p core.Position) float64 {
	return track.Angle(r2.Sub(track.Vec(p), track.Vec(origin)))
}

// InRectangleZone reports whether pos lies between the front and back lines
// of z. Both lines are walked as angle sweeps around their inside points,
// which also handles zones whose lines cross on a curve.
func InRectangleZone(pos core.Position, z core.RectangleZone) bool {
	fIn, fOut := z.Front.Inside, z.Front.Outside
	bIn, bOut := z.Back.Inside, z.Back.Outside

	f1 := angleFrom(fIn, fOut)
	f2 := raise(angleFrom(fIn, bIn), f1)
	fS := raise(angleFrom(fIn, pos), f1)
	fO := raise(angleFrom(fIn, bOut), f1)

	b2 := angleFrom(bIn, fIn)
	b1 := raise(angleFrom(bIn, bOut), b2)
	bS := raise(angleFrom(bIn, pos), b2)
	bO := raise(angleFrom(bIn, fOut), b2)

	inFront := f1 < fS && fS < f2
	inBack := b2 < bS && bS < b1
	if f1 < fO && fO < f2 && b2 < bO && bO < b1 {
		return inFront && inBack
	}

	// The lines cross, so sweep each against the other's outside point.
	f2o := raise(angleFrom(fIn, bOut), f1)
	b2o := angleFrom(bIn, fOut)
	b1o := raise(angleFrom(bIn, bOut), b2o)
	bSo := raise(angleFrom(bIn, pos), b2o)

	inFrontOut := f1 < fS && fS < f2o
	inBackOut := b2o < bSo && bSo < b1o
	return (inFront && inBackOut) || (inFrontOut && inBack)
}
