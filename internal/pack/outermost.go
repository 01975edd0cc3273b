package pack

import (
	"github.com/derbytrack/packzone/internal/distance"
	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

// Outermost returns the two pack members furthest apart along the
// measurement line. It starts at the first member and keeps jumping to the
// member furthest from the current one while that distance grows, for at
// most twice the pack size.
func Outermost(t track.Track, pack []core.Skater) []core.Skater {
	if len(pack) <= 2 {
		return core.CloneSkaters(pack)
	}
	a, b := outermost(t, pack)
	return []core.Skater{pack[a], pack[b]}
}

// outermost is Outermost on indices into pack, which needs at least two
// members. Members are told apart by position in pack, not by ID.
func outermost(t track.Track, pack []core.Skater) (int, int) {
	if len(pack) == 2 {
		return 0, 1
	}

	a, b := 0, 0
	maxDist, newDist := -1.0, 0.0
	for i := 0; newDist > maxDist && i < 2*len(pack); i++ {
		maxDist = newDist
		b, newDist = furthest(t, a, pack)
		a, b = b, a
	}
	return a, b
}

func furthest(t track.Track, from int, pack []core.Skater) (int, float64) {
	best, bestDist := from, -1.0
	for i, s := range pack {
		if i == from {
			continue
		}
		if d := distance.Sector(t, pack[from], s); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// SortedOutermost orders the outermost pair as (back, front) in direction of
// play. When the direct span is at least half the loop the pack wraps the
// pivot line and the higher coordinate is the back.
func SortedOutermost(t track.Track, pack []core.Skater) (back, front core.Skater, ok bool) {
	bi, fi, ok := sortedOutermost(t, pack)
	if !ok {
		return core.Skater{}, core.Skater{}, false
	}
	return pack[bi], pack[fi], true
}

func sortedOutermost(t track.Track, pack []core.Skater) (back, front int, ok bool) {
	if len(pack) < 2 {
		return 0, 0, false
	}

	lo, hi := outermost(t, pack)
	if pack[lo].Derived.PivotLineDist > pack[hi].Derived.PivotLineDist {
		lo, hi = hi, lo
	}
	span := pack[hi].Derived.PivotLineDist - pack[lo].Derived.PivotLineDist
	if span >= t.MeasurementLength-span {
		return hi, lo, true
	}
	return lo, hi, true
}

// SectorBoundaries returns the pack span on the measurement line. Start is
// shifted below zero when the pack straddles the pivot line.
func SectorBoundaries(t track.Track, pack []core.Skater) (core.SectorBoundaries, bool) {
	back, front, ok := SortedOutermost(t, pack)
	if !ok {
		return core.SectorBoundaries{}, false
	}
	start := back.Derived.PivotLineDist
	if start > front.Derived.PivotLineDist {
		start -= t.MeasurementLength
	}
	return core.SectorBoundaries{Start: start, End: front.Derived.PivotLineDist}, true
}

// ClosestOther returns the pack member nearest to pack[i], skipping only
// pack[i] itself. The first candidate wins ties, including when every
// distance is infinite.
func ClosestOther(t track.Track, i int, pack []core.Skater, method core.Method) (core.Skater, bool) {
	var best core.Skater
	bestDist := 0.0
	found := false
	for j, o := range pack {
		if j == i {
			continue
		}
		d := distance.Between(t, pack[i], o, method)
		if !found || d < bestDist {
			best, bestDist, found = o, d, true
		}
	}
	return best, found
}

// Boundaries describes the pack extent for method, or nil for fewer than
// two members.
func Boundaries(t track.Track, pack []core.Skater, method core.Method) *core.PackBoundaries {
	if len(pack) < 2 {
		return nil
	}

	if method == core.MethodRectangle {
		back, front, ok := sortedOutermost(t, pack)
		if !ok {
			return nil
		}
		frontNeighbor, _ := ClosestOther(t, front, pack, method)
		backNeighbor, _ := ClosestOther(t, back, pack, method)
		return &core.PackBoundaries{
			Method: core.MethodRectangle,
			Rectangle: &core.RectangleBoundaries{
				Front: core.EndPair{Boundary: pack[front], Neighbor: frontNeighbor},
				Back:  core.EndPair{Boundary: pack[back], Neighbor: backNeighbor},
			},
		}
	}

	sb, ok := SectorBoundaries(t, pack)
	if !ok {
		return nil
	}
	return &core.PackBoundaries{Method: core.MethodSector, Sector: &sb}
}
