package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derbytrack/packzone/internal/arclength"
	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

func skaterAt(t track.Track, id int, x, y float64) core.Skater {
	s := core.Skater{ID: id, Team: core.TeamA, Position: core.Position{X: x, Y: y}}
	s.Derived.PivotLineDist = arclength.PivotLineDistance(t, s.Position)
	return s
}

func assertPosition(t *testing.T, want, got core.Position) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-3, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-3, "y")
}

func TestSectorZone(t *testing.T) {
	tr := track.Default()
	z := SectorZone(tr, core.SectorBoundaries{Start: 10, End: 14})

	assert.InDelta(t, 3.9, z.Start, 1e-9)
	assert.InDelta(t, 20.1, z.End, 1e-9)
}

func TestInSectorZone(t *testing.T) {
	tr := track.Default()
	l := tr.MeasurementLength

	tests := []struct {
		name string
		p    float64
		zone core.SectorBoundaries
		want bool
	}{
		{"inside", 12, core.SectorBoundaries{Start: 10, End: 14}, true},
		{"start inclusive", 10, core.SectorBoundaries{Start: 10, End: 14}, true},
		{"end inclusive", 14, core.SectorBoundaries{Start: 10, End: 14}, true},
		{"behind", 9.99, core.SectorBoundaries{Start: 10, End: 14}, false},
		{"ahead", 14.01, core.SectorBoundaries{Start: 10, End: 14}, false},
		{"negative start wraps", l - 1, core.SectorBoundaries{Start: -2, End: 3}, true},
		{"negative start misses", l - 3, core.SectorBoundaries{Start: -2, End: 3}, false},
		{"end past length wraps", 1, core.SectorBoundaries{Start: l - 3, End: l + 2}, true},
		{"end past length misses", 3, core.SectorBoundaries{Start: l - 3, End: l + 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InSectorZone(tr, tt.p, tt.zone))
		})
	}
}

func TestSectorZone_EngagementEdge(t *testing.T) {
	tr := track.Default()
	front := skaterAt(tr, 1, 2, -6)
	b := core.PackBoundaries{
		Method: core.MethodSector,
		Sector: &core.SectorBoundaries{Start: front.Derived.PivotLineDist - 2, End: front.Derived.PivotLineDist},
	}
	z := FromBoundaries(tr, &b)
	require.NotNil(t, z)

	// Play runs towards negative x here, so the zone ends 6.1 m ahead at x = -4.1.
	assert.True(t, Contains(tr, skaterAt(tr, 2, -4.09, -6), z))
	assert.False(t, Contains(tr, skaterAt(tr, 3, -4.11, -6), z))
}

func TestEngagementIntersections_Straightaway(t *testing.T) {
	tr := track.Default()

	front := EngagementIntersections(tr, core.Position{X: -1, Y: -6}, true)
	assertPosition(t, core.Position{X: -7.1, Y: -3.3739}, front.Inside)
	assertPosition(t, core.Position{X: -7.1, Y: -7.5787}, front.Outside)

	// Play runs towards positive x on the other straightaway.
	back := EngagementIntersections(tr, core.Position{X: 4, Y: 6}, false)
	assertPosition(t, core.Position{X: -2.1, Y: 3.81}, back.Inside)
	assertPosition(t, core.Position{X: -2.1, Y: 8.2002}, back.Outside)
}

func TestEngagementIntersections_Curve(t *testing.T) {
	tr := track.Default()

	back := EngagementIntersections(tr, core.Position{X: 3, Y: -6}, false)
	assertPosition(t, core.Position{X: 8.6376, Y: -1.8910}, back.Inside)
	assertPosition(t, core.Position{X: 9.3121, Y: -7.3356}, back.Outside)
	assert.GreaterOrEqual(t, back.Inside.X, tr.C1.X)
	assert.GreaterOrEqual(t, back.Outside.X, tr.C1.X)

	front := EngagementIntersections(tr, core.Position{X: -8, Y: -3}, true)
	assertPosition(t, core.Position{X: -7.5552, Y: 3.0927}, front.Inside)
	assertPosition(t, core.Position{X: -12.8761, Y: 3.1934}, front.Outside)
}

func TestInRectangleZone(t *testing.T) {
	tr := track.Default()
	z := RectangleZone(tr, core.Position{X: 3, Y: -6}, core.Position{X: -1, Y: -6})

	tests := []struct {
		name string
		pos  core.Position
		want bool
	}{
		{"between boundaries", core.Position{X: 1, Y: -6}, true},
		{"ahead within reach", core.Position{X: -6, Y: -6}, true},
		{"behind on curve", core.Position{X: 7, Y: -5}, true},
		{"front boundary skater", core.Position{X: -1, Y: -6}, true},
		{"back boundary skater", core.Position{X: 3, Y: -6}, true},
		{"other straightaway", core.Position{X: 0, Y: 6}, false},
		{"past front line", core.Position{X: -8, Y: -5}, false},
		{"past back line", core.Position{X: 9.5, Y: -3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InRectangleZone(tt.pos, z))
		})
	}
}

func TestInRectangleZone_AroundCurve(t *testing.T) {
	tr := track.Default()
	z := RectangleZone(tr, core.Position{X: -3, Y: -6}, core.Position{X: -7, Y: 5})

	assertPosition(t, core.Position{X: -0.9, Y: 3.81}, z.Front.Inside)
	assertPosition(t, core.Position{X: 3.1, Y: -3.81}, z.Back.Inside)

	for _, p := range []core.Position{{X: -8, Y: 0}, {X: -9, Y: -3}, {X: -4, Y: 6.5}, {X: 2, Y: -6}} {
		assert.True(t, InRectangleZone(p, z), "%v", p)
	}
}

func TestPackExtent(t *testing.T) {
	tr := track.Default()
	a := skaterAt(tr, 1, 2, -6)
	b := skaterAt(tr, 2, 0, -6)
	c := skaterAt(tr, 3, -2, -6)

	ext := PackExtent(tr, core.RectangleBoundaries{
		Front: core.EndPair{Boundary: c, Neighbor: b},
		Back:  core.EndPair{Boundary: a, Neighbor: b},
	})

	// lines run through the boundary skaters, not between them and b
	assertPosition(t, core.Position{X: -2, Y: -3.81}, ext.Front.Inside)
	assertPosition(t, core.Position{X: -2, Y: -7.9656}, ext.Front.Outside)
	assertPosition(t, core.Position{X: 2, Y: -3.81}, ext.Back.Inside)
	assertPosition(t, core.Position{X: 2, Y: -8.1944}, ext.Back.Outside)
}

func TestPackExtent_Curve(t *testing.T) {
	tr := track.Default()
	ext := PackExtent(tr, core.RectangleBoundaries{
		Front: core.EndPair{Boundary: skaterAt(tr, 1, 8, -3), Neighbor: skaterAt(tr, 2, 7, -5)},
		Back:  core.EndPair{Boundary: skaterAt(tr, 3, 2, -6), Neighbor: skaterAt(tr, 2, 7, -5)},
	})

	assertPosition(t, core.Position{X: 7.8989, Y: -2.8137}, ext.Front.Inside)
	assertPosition(t, core.Position{X: 10.0828, Y: -6.8393}, ext.Front.Outside)
}

func TestFromBoundaries_NoPack(t *testing.T) {
	tr := track.Default()

	assert.Nil(t, FromBoundaries(tr, nil))
	assert.False(t, Contains(tr, skaterAt(tr, 1, 0, -6), nil))
}

func TestFromBoundaries_Rectangle(t *testing.T) {
	tr := track.Default()
	b := core.PackBoundaries{
		Method: core.MethodRectangle,
		Rectangle: &core.RectangleBoundaries{
			Front: core.EndPair{Boundary: skaterAt(tr, 1, -1, -6), Neighbor: skaterAt(tr, 2, 1, -6)},
			Back:  core.EndPair{Boundary: skaterAt(tr, 3, 3, -6), Neighbor: skaterAt(tr, 2, 1, -6)},
		},
	}

	z := FromBoundaries(tr, &b)
	require.NotNil(t, z)
	require.NotNil(t, z.Rectangle)
	assert.Equal(t, core.MethodRectangle, z.Method)
	assert.Nil(t, z.Sector)
	assert.True(t, Contains(tr, skaterAt(tr, 4, -6, -6), z))
	assert.False(t, Contains(tr, skaterAt(tr, 5, -8, -5), z))
}
