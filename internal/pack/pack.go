// Package pack finds the pack: the largest group of blockers from both teams
// in proximity, and its outermost skaters.
package pack

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/derbytrack/packzone/internal/distance"
	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

// Blockers returns the in-bounds non-jammers in input order.
func Blockers(skaters []core.Skater) []core.Skater {
	var out []core.Skater
	for _, s := range skaters {
		if s.IsBlocker() && s.Derived.InBounds {
			out = append(out, s)
		}
	}
	return out
}

// ClosePairs lists the index pairs i < j of skaters closer than the pack
// distance. Infinite distances never pair.
func ClosePairs(t track.Track, skaters []core.Skater, method core.Method) [][2]int {
	var pairs [][2]int
	for i := 0; i < len(skaters); i++ {
		for j := i + 1; j < len(skaters); j++ {
			if distance.Between(t, skaters[i], skaters[j], method) < t.PackDistance {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

// Components returns the groups of blockers connected by close pairs that
// contain skaters of both teams. Members keep input order; groups are
// ordered by their smallest skater ID.
func Components(t track.Track, skaters []core.Skater, method core.Method) [][]core.Skater {
	blockers := Blockers(skaters)
	if len(blockers) == 0 {
		return nil
	}

	g := simple.NewUndirectedGraph()
	for i := range blockers {
		g.AddNode(simple.Node(i))
	}
	for _, p := range ClosePairs(t, blockers, method) {
		g.SetEdge(simple.Edge{F: simple.Node(p[0]), T: simple.Node(p[1])})
	}

	var groups [][]core.Skater
	for _, nodes := range topo.ConnectedComponents(g) {
		idx := make([]int, len(nodes))
		for i, n := range nodes {
			idx[i] = int(n.ID())
		}
		sort.Ints(idx)

		members := make([]core.Skater, len(idx))
		for i, k := range idx {
			members[i] = blockers[k]
		}
		if mixed(members) {
			groups = append(groups, members)
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		return minID(groups[i]) < minID(groups[j])
	})
	return groups
}

// Resolve returns the pack, or nil when there is none: no mixed group, or
// several groups share the largest size.
func Resolve(t track.Track, skaters []core.Skater, method core.Method) []core.Skater {
	var best []core.Skater
	tie := false
	for _, g := range Components(t, skaters, method) {
		switch {
		case len(g) > len(best):
			best, tie = g, false
		case len(g) == len(best):
			tie = true
		}
	}
	if tie || len(best) < 2 {
		return nil
	}
	return best
}

func mixed(group []core.Skater) bool {
	var a, b bool
	for _, s := range group {
		switch s.Team {
		case core.TeamA:
			a = true
		case core.TeamB:
			b = true
		}
	}
	return a && b
}

func minID(group []core.Skater) int {
	m := group[0].ID
	for _, s := range group[1:] {
		if s.ID < m {
			m = s.ID
		}
	}
	return m
}

// IDs lists the skater IDs of group.
func IDs(group []core.Skater) []int {
	if len(group) == 0 {
		return nil
	}
	ids := make([]int, len(group))
	for i, s := range group {
		ids[i] = s.ID
	}
	return ids
}
