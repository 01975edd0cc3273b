// Package zone builds the engagement zone around the pack and decides which
// skaters are inside it.
package zone

import (
	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

// FromBoundaries builds the engagement zone for pack boundaries b. It
// returns nil when there is no pack.
func FromBoundaries(t track.Track, b *core.PackBoundaries) *core.ZoneBoundary {
	if b == nil {
		return nil
	}
	switch {
	case b.Method == core.MethodRectangle && b.Rectangle != nil:
		z := RectangleZone(t, b.Rectangle.Back.Boundary.Position, b.Rectangle.Front.Boundary.Position)
		return &core.ZoneBoundary{Method: core.MethodRectangle, Rectangle: &z}
	case b.Sector != nil:
		z := SectorZone(t, *b.Sector)
		return &core.ZoneBoundary{Method: core.MethodSector, Sector: &z}
	}
	return nil
}

// Contains reports whether s is inside z. A nil zone contains nobody.
func Contains(t track.Track, s core.Skater, z *core.ZoneBoundary) bool {
	if z == nil {
		return false
	}
	switch {
	case z.Method == core.MethodRectangle && z.Rectangle != nil:
		return InRectangleZone(s.Position, *z.Rectangle)
	case z.Sector != nil:
		return InSectorZone(t, s.Derived.PivotLineDist, *z.Sector)
	}
	return false
}
