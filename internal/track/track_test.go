package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

const eps = 1e-9

func TestDefault_DerivedValues(t *testing.T) {
	tr := Default()

	assert.Equal(t, r2.Vec{X: 5.33, Y: 0}, tr.C1)
	assert.Equal(t, r2.Vec{X: -5.33, Y: 0}, tr.C2)
	assert.Equal(t, r2.Vec{X: 5.33, Y: -0.305}, tr.C1Outer)
	assert.Equal(t, r2.Vec{X: -5.33, Y: 0.305}, tr.C2Outer)
	assert.InDelta(t, 5.41, tr.MeasurementRadius, eps)
	assert.InDelta(t, math.Pi*5.41, tr.HalfCircle, eps)
	assert.InDelta(t, 10.66, tr.Straight, eps)
	assert.InDelta(t, 2*math.Pi*5.41+21.32, tr.MeasurementLength, eps)
}

func TestOuterLines(t *testing.T) {
	tr := Default()

	assert.InDelta(t, -8.385, tr.OuterTop(5.33), eps)
	assert.InDelta(t, -7.775, tr.OuterTop(-5.33), eps)
	assert.InDelta(t, 7.775, tr.OuterBottom(5.33), eps)
	assert.InDelta(t, 8.385, tr.OuterBottom(-5.33), eps)
	assert.InDelta(t, -0.61/10.66, tr.OuterSlope(), eps)
}

func TestNew_RejectsInvalidDimensions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero straight", func(c *Config) { c.StraightHalfLength = 0 }},
		{"negative inner radius", func(c *Config) { c.InnerRadius = -1 }},
		{"outer inside inner", func(c *Config) { c.OuterRadius = 4 }},
		{"inset off track", func(c *Config) { c.MeasurementInset = 10 }},
		{"zero pack distance", func(c *Config) { c.PackDistance = 0 }},
		{"engagement too wide", func(c *Config) { c.EngagementDistance = 8 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			_, err := New(cfg)
			require.ErrorIs(t, err, ErrInvalidTrack)
		})
	}
}

func TestWrapDistance(t *testing.T) {
	tr := Default()
	ml := tr.MeasurementLength

	assert.InDelta(t, 1.5, tr.WrapDistance(1.5), eps)
	assert.InDelta(t, ml-1, tr.WrapDistance(-1), eps)
	assert.InDelta(t, 2, tr.WrapDistance(ml+2), eps)
	assert.Equal(t, 0.0, tr.WrapDistance(ml))
}

func TestAngle(t *testing.T) {
	tests := []struct {
		v    r2.Vec
		want float64
	}{
		{r2.Vec{X: 1, Y: 0}, 0},
		{r2.Vec{X: 0, Y: 1}, math.Pi / 2},
		{r2.Vec{X: -1, Y: 0}, math.Pi},
		{r2.Vec{X: 0, Y: -1}, 3 * math.Pi / 2},
		{r2.Vec{X: 1, Y: -1}, 7 * math.Pi / 4},
	}

	for _, tt := range tests {
		got := Angle(tt.v)
		assert.InDelta(t, tt.want, got, eps, "Angle(%v)", tt.v)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.Less(t, got, 2*math.Pi)
	}
}

func TestNormalizeAngle(t *testing.T) {
	assert.InDelta(t, 3*math.Pi/2, NormalizeAngle(-math.Pi/2), eps)
	assert.InDelta(t, math.Pi/2, NormalizeAngle(5*math.Pi/2), eps)
	assert.InDelta(t, 0, NormalizeAngle(2*math.Pi), eps)
}

func TestIntersectLines(t *testing.T) {
	p, ok := IntersectLines(r2.Vec{X: 0, Y: 0}, r2.Vec{X: 1, Y: 1}, r2.Vec{X: 0, Y: 2}, r2.Vec{X: 1, Y: -1})
	require.True(t, ok)
	assert.InDelta(t, 1, p.X, eps)
	assert.InDelta(t, 1, p.Y, eps)

	p, ok = IntersectLines(r2.Vec{X: 2.5, Y: -6}, r2.Vec{X: 0, Y: 1}, r2.Vec{X: 0, Y: -3.81}, r2.Vec{X: 1, Y: 0})
	require.True(t, ok)
	assert.InDelta(t, 2.5, p.X, eps)
	assert.InDelta(t, -3.81, p.Y, eps)
}

func TestIntersectLines_Parallel(t *testing.T) {
	_, ok := IntersectLines(r2.Vec{X: 0, Y: 0}, r2.Vec{X: 1, Y: 0}, r2.Vec{X: 0, Y: 1}, r2.Vec{X: -2, Y: 0})
	assert.False(t, ok)
}

func TestIntersectLineCircle_Secant(t *testing.T) {
	pts := IntersectLineCircle(r2.Vec{X: 0, Y: 0}, r2.Vec{X: 1, Y: 0}, r2.Vec{X: 2, Y: 0}, 1)
	require.Len(t, pts, 2)

	xs := []float64{pts[0].X, pts[1].X}
	assert.ElementsMatch(t, []float64{3, 1}, xs)
	for _, p := range pts {
		assert.InDelta(t, 0, p.Y, eps)
	}
}

func TestIntersectLineCircle_Vertical(t *testing.T) {
	tr := Default()
	pts := IntersectLineCircle(r2.Vec{X: 9.1, Y: -6}, r2.Vec{X: 0, Y: 1}, tr.C1, tr.InnerRadius)
	require.Len(t, pts, 2)
	for _, p := range pts {
		assert.InDelta(t, 9.1, p.X, eps)
		assert.InDelta(t, tr.InnerRadius, r2.Norm(r2.Sub(p, tr.C1)), 1e-9)
	}
	assert.InDelta(t, 0, pts[0].Y+pts[1].Y, eps)
}

func TestIntersectLineCircle_Tangent(t *testing.T) {
	pts := IntersectLineCircle(r2.Vec{X: -5, Y: 2}, r2.Vec{X: 1, Y: 0}, r2.Vec{X: 0, Y: 0}, 2)
	require.Len(t, pts, 1)
	assert.InDelta(t, 0, pts[0].X, eps)
	assert.InDelta(t, 2, pts[0].Y, eps)
}

func TestIntersectLineCircle_Miss(t *testing.T) {
	pts := IntersectLineCircle(r2.Vec{X: 0, Y: 5}, r2.Vec{X: 1, Y: 0}, r2.Vec{X: 0, Y: 0}, 2)
	assert.Empty(t, pts)
}

func TestClosest(t *testing.T) {
	q := r2.Vec{X: 0, Y: 0}
	p, ok := Closest(q, []r2.Vec{{X: 3, Y: 0}, {X: -1, Y: 1}, {X: 0, Y: 2}})
	require.True(t, ok)
	assert.Equal(t, r2.Vec{X: -1, Y: 1}, p)

	_, ok = Closest(q, nil)
	assert.False(t, ok)
}
