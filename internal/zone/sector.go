package zone

import (
	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

// SectorZone widens the pack span by the engagement distance at both ends.
func SectorZone(t track.Track, b core.SectorBoundaries) core.SectorBoundaries {
	return core.SectorBoundaries{
		Start: b.Start - t.EngagementDistance,
		End:   b.End + t.EngagementDistance,
	}
}

// InSectorZone reports whether coordinate p lies in z, bounds included,
// trying p one loop earlier or later when z reaches past either end of the
// measurement line.
func InSectorZone(t track.Track, p float64, z core.SectorBoundaries) bool {
	l := t.MeasurementLength
	switch {
	case p >= z.Start && p <= z.End:
		return true
	case p < z.Start:
		return p+l <= z.End
	default:
		return p-l >= z.Start
	}
}
