package arclength

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

// circular returns the distance between two coordinates on a loop of length l.
func circular(a, b, l float64) float64 {
	d := math.Abs(a - b)
	return math.Min(d, l-d)
}

func TestPivotLineDistance_Landmarks(t *testing.T) {
	tr := track.Default()
	rm := tr.MeasurementRadius
	hc := tr.HalfCircle
	s := tr.Straight

	tests := []struct {
		name string
		pos  core.Position
		want float64
	}{
		{"pivot line", core.Position{X: tr.C1.X + 0.0001, Y: rm}, 0},
		{"curve 1 apex", core.Position{X: tr.C1.X + rm, Y: 0}, hc / 2},
		{"start of straightaway 1", core.Position{X: tr.C1.X, Y: -rm}, hc},
		{"middle of straightaway 1", core.Position{X: 0, Y: -rm}, hc + s/2},
		{"curve 2 apex", core.Position{X: tr.C2.X - rm, Y: 0}, hc + s + hc/2},
		{"start of straightaway 2", core.Position{X: tr.C2.X, Y: rm}, 2*hc + s},
		{"middle of straightaway 2", core.Position{X: 0, Y: rm}, 2*hc + s + s/2},
		{"jammer line side", core.Position{X: tr.C1.X - 0.5, Y: rm}, tr.MeasurementLength - 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PivotLineDistance(tr, tt.pos)
			assert.InDelta(t, 0, circular(tt.want, got, tr.MeasurementLength), 1e-3)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.Less(t, got, tr.MeasurementLength)
		})
	}
}

func TestPivotLineDistance_WrapsAtPivotLine(t *testing.T) {
	tr := track.Default()

	got := PivotLineDistance(tr, core.Position{X: tr.C1.X, Y: 6})
	assert.InDelta(t, 0, circular(0, got, tr.MeasurementLength), 1e-9)

	got = PivotLineDistance(tr, core.Position{X: tr.C1.X - 0.01, Y: 6})
	assert.InDelta(t, tr.MeasurementLength-0.01, got, 1e-9)
}

func TestBoundaryPoints_RoundTrip(t *testing.T) {
	tr := track.Default()

	for d := 0.0; d < tr.MeasurementLength; d += 0.37 {
		bp := BoundaryPoints(tr, d)

		in := PivotLineDistance(tr, bp.Inside)
		out := PivotLineDistance(tr, bp.Outside)
		assert.InDelta(t, 0, circular(d, in, tr.MeasurementLength), 1e-9, "inside d=%v", d)
		assert.InDelta(t, 0, circular(d, out, tr.MeasurementLength), 1e-9, "outside d=%v", d)
	}
}

func TestBoundaryPoints_OnTrackEdges(t *testing.T) {
	tr := track.Default()

	for d := 0.0; d < tr.MeasurementLength; d += 0.53 {
		bp := BoundaryPoints(tr, d)
		in := track.Vec(bp.Inside)
		out := track.Vec(bp.Outside)

		switch {
		case in.X > tr.C1.X:
			assert.InDelta(t, tr.InnerRadius, r2.Norm(r2.Sub(in, tr.C1)), 1e-9)
			assert.InDelta(t, tr.OuterRadius, r2.Norm(r2.Sub(out, tr.C1Outer)), 1e-9)
		case in.X < tr.C2.X:
			assert.InDelta(t, tr.InnerRadius, r2.Norm(r2.Sub(in, tr.C2)), 1e-9)
			assert.InDelta(t, tr.OuterRadius, r2.Norm(r2.Sub(out, tr.C2Outer)), 1e-9)
		default:
			assert.InDelta(t, tr.InnerRadius, math.Abs(in.Y), 1e-9)
		}
	}
}

func TestBoundaryPoints_NegativeWraps(t *testing.T) {
	tr := track.Default()

	assert.Equal(t, BoundaryPoints(tr, tr.MeasurementLength-2), BoundaryPoints(tr, -2))
}

func TestBoundaryPoints_Straightaway(t *testing.T) {
	tr := track.Default()

	bp := BoundaryPoints(tr, tr.HalfCircle+tr.Straight/2)
	assert.InDelta(t, 0, bp.Inside.X, 1e-9)
	assert.InDelta(t, -tr.InnerRadius, bp.Inside.Y, 1e-9)
	assert.InDelta(t, tr.OuterTop(0), bp.Outside.Y, 1e-9)
}

func TestBoundaryPointsFor(t *testing.T) {
	tr := track.Default()

	got := BoundaryPointsFor(tr, 1, 20)
	require.Len(t, got, 2)
	assert.Equal(t, BoundaryPoints(tr, 1), got[0])
	assert.Equal(t, BoundaryPoints(tr, 20), got[1])
}

func TestAnnotate_ReturnsCopies(t *testing.T) {
	tr := track.Default()
	skaters := []core.Skater{{ID: 1, Position: core.Position{X: 0, Y: -6}}}

	got := Annotate(tr, skaters)
	assert.InDelta(t, tr.HalfCircle+tr.Straight/2, got[0].Derived.PivotLineDist, 1e-9)
	assert.Zero(t, skaters[0].Derived.PivotLineDist)
}
