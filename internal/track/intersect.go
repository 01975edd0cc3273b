package track

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const parallelEpsilon = 1e-12

// Angle returns the direction of v in [0, 2π).
func Angle(v r2.Vec) float64 {
	a := math.Atan2(-v.Y, -v.X) + math.Pi
	if a >= 2*math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// NormalizeAngle reduces a into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// Direction is the unit vector at angle a.
func Direction(a float64) r2.Vec {
	return r2.Vec{X: math.Cos(a), Y: math.Sin(a)}
}

// IntersectLines intersects the line through o1 along d1 with the line
// through o2 along d2. ok is false for parallel lines.
func IntersectLines(o1, d1, o2, d2 r2.Vec) (r2.Vec, bool) {
	denom := r2.Cross(d1, d2)
	if math.Abs(denom) < parallelEpsilon {
		return r2.Vec{}, false
	}
	s := r2.Cross(r2.Sub(o2, o1), d2) / denom
	return r2.Add(o1, r2.Scale(s, d1)), true
}

// IntersectLineCircle intersects the line through o along d with the circle
// around c. It returns two points for a secant, one for a tangent and none
// when the line misses.
func IntersectLineCircle(o, d, c r2.Vec, radius float64) []r2.Vec {
	p1 := r2.Sub(o, c)
	p2 := r2.Add(p1, d)
	dx, dy := d.X, d.Y
	dr2 := dx*dx + dy*dy
	if dr2 == 0 {
		return nil
	}
	det := p1.X*p2.Y - p2.X*p1.Y
	disc := radius*radius*dr2 - det*det
	switch {
	case disc < 0:
		return nil
	case disc == 0:
		return []r2.Vec{r2.Add(c, r2.Vec{X: det * dy / dr2, Y: -det * dx / dr2})}
	}
	root := math.Sqrt(disc)
	sx := sgn(dy) * dx * root
	sy := math.Abs(dy) * root
	return []r2.Vec{
		r2.Add(c, r2.Vec{X: (det*dy + sx) / dr2, Y: (-det*dx + sy) / dr2}),
		r2.Add(c, r2.Vec{X: (det*dy - sx) / dr2, Y: (-det*dx - sy) / dr2}),
	}
}

// sgn is -1 for negative values and 1 otherwise, so vertical lines keep both
// intersection points.
func sgn(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// Closest returns the point of pts nearest to q.
func Closest(q r2.Vec, pts []r2.Vec) (r2.Vec, bool) {
	if len(pts) == 0 {
		return r2.Vec{}, false
	}
	best := pts[0]
	bestDist := r2.Norm2(r2.Sub(best, q))
	for _, p := range pts[1:] {
		if d := r2.Norm2(r2.Sub(p, q)); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, true
}
