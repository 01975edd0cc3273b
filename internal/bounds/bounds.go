// Package bounds decides whether skaters are on the track surface.
package bounds

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

// InBounds reports whether a skater centered at p is fully on the track.
// A position on the line between a curve and a straightaway has to satisfy
// both regions.
func InBounds(t track.Track, p core.Position) bool {
	v := track.Vec(p)
	r := t.SkaterRadius

	if v.X >= t.C1.X && !onCurve(t, v, t.C1, t.C1Outer) {
		return false
	}
	if v.X <= t.C2.X && !onCurve(t, v, t.C2, t.C2Outer) {
		return false
	}
	if v.X >= t.C2.X && v.X <= t.C1.X {
		if v.Y <= 0 {
			if v.Y > -t.InnerRadius-r || t.OuterTop(v.X)+r > v.Y {
				return false
			}
		} else {
			if v.Y < t.InnerRadius+r || t.OuterBottom(v.X)-r < v.Y {
				return false
			}
		}
	}
	return true
}

func onCurve(t track.Track, v, inner, outer r2.Vec) bool {
	r := t.SkaterRadius
	if r2.Norm(r2.Sub(v, inner)) < t.InnerRadius+r {
		return false
	}
	return r2.Norm(r2.Sub(v, outer)) <= t.OuterRadius-r
}

// Classify returns copies of skaters with Derived.InBounds set.
func Classify(t track.Track, skaters []core.Skater) []core.Skater {
	out := core.CloneSkaters(skaters)
	for i := range out {
		out[i].Derived.InBounds = InBounds(t, out[i].Position)
	}
	return out
}
