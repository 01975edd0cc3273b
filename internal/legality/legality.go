// Package legality ties the geometry packages together and decides, for one
// snapshot, which skaters are in play and which form the pack.
package legality

import (
	"time"

	"github.com/derbytrack/packzone/internal/arclength"
	"github.com/derbytrack/packzone/internal/bounds"
	"github.com/derbytrack/packzone/internal/pack"
	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/internal/zone"
	"github.com/derbytrack/packzone/pkg/core"
)

// Annotate returns copies of skaters with bounds and pivot line distance set.
func Annotate(t track.Track, skaters []core.Skater) []core.Skater {
	return arclength.Annotate(t, bounds.Classify(t, skaters))
}

// EvaluateLegality annotates skaters, resolves the pack and flags every
// skater. The input slice is left untouched.
func EvaluateLegality(t track.Track, skaters []core.Skater, method core.Method) core.Evaluation {
	start := time.Now()

	out := Annotate(t, skaters)
	p := pack.Resolve(t, out, method)
	boundaries := pack.Boundaries(t, p, method)
	z := zone.FromBoundaries(t, boundaries)

	members := make(map[int]bool, len(p))
	for _, s := range p {
		members[s.ID] = true
	}
	hasPack := len(p) > 0

	for i := range out {
		s := &out[i]
		if s.IsJammer {
			s.Derived.InPlay = s.Derived.InBounds
			s.Derived.PackSkater = false
			continue
		}
		s.Derived.PackSkater = s.Derived.InBounds && hasPack && members[s.ID]
		s.Derived.InPlay = s.Derived.InBounds && hasPack && zone.Contains(t, *s, z)
	}

	var extent *core.RectangleZone
	if boundaries != nil && boundaries.Rectangle != nil {
		e := zone.PackExtent(t, *boundaries.Rectangle)
		extent = &e
	}

	return core.Evaluation{
		Method:     method,
		Skaters:    out,
		Pack:       pack.IDs(p),
		Boundaries: boundaries,
		Zone:       z,
		PackExtent: extent,
		Duration:   time.Since(start),
	}
}
