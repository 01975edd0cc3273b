// Package track describes the oval track geometry shared by every other
// package. A Track is a plain value: pass it around, never mutate it.
package track

import (
	"errors"
	"fmt"
	"math"

	"github.com/derbytrack/packzone/pkg/core"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrInvalidTrack is returned when track dimensions cannot describe an oval.
var ErrInvalidTrack = errors.New("invalid track dimensions")

// Config holds the track dimensions in meters
type Config struct {
	StraightHalfLength float64 `json:"straightHalfLength" mapstructure:"straightHalfLength"`
	OuterCenterOffset  float64 `json:"outerCenterOffset" mapstructure:"outerCenterOffset"`
	InnerRadius        float64 `json:"innerRadius" mapstructure:"innerRadius"`
	OuterRadius        float64 `json:"outerRadius" mapstructure:"outerRadius"`
	MeasurementInset   float64 `json:"measurementInset" mapstructure:"measurementInset"`
	SkaterRadius       float64 `json:"skaterRadius" mapstructure:"skaterRadius"`
	EngagementDistance float64 `json:"engagementDistance" mapstructure:"engagementDistance"`
	PackDistance       float64 `json:"packDistance" mapstructure:"packDistance"`
	RectangleCutoff    float64 `json:"rectangleCutoff" mapstructure:"rectangleCutoff"`
}

// DefaultConfig returns the regulation flat track.
func DefaultConfig() Config {
	return Config{
		StraightHalfLength: 5.33,
		OuterCenterOffset:  0.305,
		InnerRadius:        3.81,
		OuterRadius:        8.08,
		MeasurementInset:   1.6,
		SkaterRadius:       0.3,
		EngagementDistance: 6.1,
		PackDistance:       3.05,
		RectangleCutoff:    8,
	}
}

// Validate checks that the dimensions describe a drivable oval.
func (c Config) Validate() error {
	switch {
	case c.StraightHalfLength <= 0:
		return fmt.Errorf("%w: straightHalfLength must be positive", ErrInvalidTrack)
	case c.InnerRadius <= 0:
		return fmt.Errorf("%w: innerRadius must be positive", ErrInvalidTrack)
	case c.OuterCenterOffset < 0:
		return fmt.Errorf("%w: outerCenterOffset must not be negative", ErrInvalidTrack)
	case c.OuterRadius <= c.InnerRadius+c.OuterCenterOffset+2*c.SkaterRadius:
		return fmt.Errorf("%w: outerRadius %.2f leaves no track surface", ErrInvalidTrack, c.OuterRadius)
	case c.MeasurementInset < 0 || c.InnerRadius+c.MeasurementInset >= c.OuterRadius:
		return fmt.Errorf("%w: measurementInset must lie on the track surface", ErrInvalidTrack)
	case c.SkaterRadius < 0:
		return fmt.Errorf("%w: skaterRadius must not be negative", ErrInvalidTrack)
	case c.EngagementDistance <= 0 || c.PackDistance <= 0 || c.RectangleCutoff <= 0:
		return fmt.Errorf("%w: distances must be positive", ErrInvalidTrack)
	case c.EngagementDistance/2 >= c.InnerRadius:
		return fmt.Errorf("%w: half the engagement distance must be shorter than innerRadius", ErrInvalidTrack)
	}
	return nil
}

// Track is the immutable geometry derived from a Config.
//
// C1 is the center of the curve at positive x, C2 the one at negative x.
// The outer circle centers are shifted along y so the track is wider at the
// start of each turn.
type Track struct {
	C1, C2           r2.Vec
	C1Outer, C2Outer r2.Vec

	InnerRadius       float64
	OuterRadius       float64
	MeasurementRadius float64

	// HalfCircle is the length of one turn on the measurement line,
	// Straight the length of one straightaway.
	HalfCircle        float64
	Straight          float64
	MeasurementLength float64

	SkaterRadius       float64
	EngagementDistance float64
	PackDistance       float64
	RectangleCutoff    float64

	outerSlope float64
}

// New derives a Track from cfg.
func New(cfg Config) (Track, error) {
	if err := cfg.Validate(); err != nil {
		return Track{}, err
	}
	l := cfg.StraightHalfLength
	rm := cfg.InnerRadius + cfg.MeasurementInset
	t := Track{
		C1:                 r2.Vec{X: l, Y: 0},
		C2:                 r2.Vec{X: -l, Y: 0},
		C1Outer:            r2.Vec{X: l, Y: -cfg.OuterCenterOffset},
		C2Outer:            r2.Vec{X: -l, Y: cfg.OuterCenterOffset},
		InnerRadius:        cfg.InnerRadius,
		OuterRadius:        cfg.OuterRadius,
		MeasurementRadius:  rm,
		HalfCircle:         math.Pi * rm,
		Straight:           2 * l,
		SkaterRadius:       cfg.SkaterRadius,
		EngagementDistance: cfg.EngagementDistance,
		PackDistance:       cfg.PackDistance,
		RectangleCutoff:    cfg.RectangleCutoff,
	}
	t.MeasurementLength = 2*t.HalfCircle + 2*t.Straight
	t.outerSlope = (t.C1Outer.Y - t.C2Outer.Y) / (t.C1.X - t.C2.X)
	return t, nil
}

// Default returns the regulation track.
func Default() Track {
	t, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return t
}

// OuterTop is the outside edge of the straightaway at y < 0.
func (t Track) OuterTop(x float64) float64 {
	return t.C1Outer.Y - t.OuterRadius + t.outerSlope*(x-t.C1.X)
}

// OuterBottom is the outside edge of the straightaway at y > 0.
func (t Track) OuterBottom(x float64) float64 {
	return t.C1Outer.Y + t.OuterRadius + t.outerSlope*(x-t.C1.X)
}

// OuterSlope is the slope shared by both outer straightaway edges.
func (t Track) OuterSlope() float64 {
	return t.outerSlope
}

// OnStraight reports whether x lies strictly between the two curves.
func (t Track) OnStraight(x float64) bool {
	return x > t.C2.X && x < t.C1.X
}

// WrapDistance reduces d into [0, MeasurementLength).
func (t Track) WrapDistance(d float64) float64 {
	d = math.Mod(d, t.MeasurementLength)
	if d < 0 {
		d += t.MeasurementLength
	}
	if d >= t.MeasurementLength {
		d = 0
	}
	return d
}

// Vec converts a core position to a vector.
func Vec(p core.Position) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Position converts a vector back to a core position.
func Position(v r2.Vec) core.Position {
	return core.Position{X: v.X, Y: v.Y}
}
