// pkg/core/boundaries.go
package core

// SectorBoundaries is a span of pivot-line coordinates.
// Start may be negative when the span straddles the pivot line.
type SectorBoundaries struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// EndPair is one end of a rectangle-measured pack: the outermost skater and
// its closest other pack member.
type EndPair struct {
	Boundary Skater `json:"boundary"`
	Neighbor Skater `json:"neighbor"`
}

// RectangleBoundaries holds both ends of a rectangle-measured pack
type RectangleBoundaries struct {
	Front EndPair `json:"front"`
	Back  EndPair `json:"back"`
}

// PackBoundaries is a tagged variant keyed by Method. Exactly one of Sector
// and Rectangle is set.
type PackBoundaries struct {
	Method    Method               `json:"method"`
	Sector    *SectorBoundaries    `json:"sector,omitempty"`
	Rectangle *RectangleBoundaries `json:"rectangle,omitempty"`
}

// BoundaryPoints are the points where a line across the track meets the
// inside and outside track edges.
type BoundaryPoints struct {
	Inside  Position `json:"inside"`
	Outside Position `json:"outside"`
}

// RectangleZone is an area bounded by two lines across the track
type RectangleZone struct {
	Front BoundaryPoints `json:"front"`
	Back  BoundaryPoints `json:"back"`
}

// ZoneBoundary is the engagement zone, tagged by Method like PackBoundaries.
type ZoneBoundary struct {
	Method    Method            `json:"method"`
	Sector    *SectorBoundaries `json:"sector,omitempty"`
	Rectangle *RectangleZone    `json:"rectangle,omitempty"`
}
