// Package geo places track coordinates on the globe.
//
// Geometry is stored as EPSG:3857 so SQLite can round-trip it through WKB
// without spatial support; WGS84 longitude and latitude are produced for
// exports.
package geo

import (
	"errors"
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/derbytrack/packzone/pkg/core"
)

// ErrInvalidAnchor is returned when the anchor lies outside WGS84 bounds.
var ErrInvalidAnchor = errors.New("invalid georeference anchor")

// maxMercatorLatitude is the pole cutoff of EPSG:3857.
const maxMercatorLatitude = 85.06

// LonLat is a WGS84 coordinate in degrees.
type LonLat struct {
	Longitude float64 `json:"lon"`
	Latitude  float64 `json:"lat"`
}

// Georef maps track meters to EPSG:3857 and WGS84. The zero value is not
// usable; a nil *Georef keeps positions in track meters.
type Georef struct {
	originX, originY float64
	scale            float64
	sinH, cosH       float64
	toWGS84          func(x, y, z float64) (float64, float64, float64)
}

// NewGeoref anchors the track center at longitude/latitude with the +x axis
// pointing heading degrees clockwise from north.
func NewGeoref(longitude, latitude, heading float64) (*Georef, error) {
	if math.Abs(longitude) > 180 || math.Abs(latitude) > maxMercatorLatitude {
		return nil, ErrInvalidAnchor
	}
	origin, err := Coords3857From4326(longitude, latitude)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnchor, err)
	}
	coords, _ := origin.Coordinates()

	h := heading * math.Pi / 180
	return &Georef{
		originX: coords.XY.X,
		originY: coords.XY.Y,
		// Mercator stretches ground distances by 1/cos(latitude).
		scale:   1 / math.Cos(latitude*math.Pi/180),
		sinH:    math.Sin(h),
		cosH:    math.Cos(h),
		toWGS84: wgs84.EPSG().Transform(3857, 4326),
	}, nil
}

// Mercator returns p in EPSG:3857 meters, or p itself for a nil Georef.
func (g *Georef) Mercator(p core.Position) geom.XY {
	if g == nil {
		return geom.XY{X: p.X, Y: p.Y}
	}
	east := p.X*g.sinH - p.Y*g.cosH
	north := p.X*g.cosH + p.Y*g.sinH
	return geom.XY{
		X: g.originX + east*g.scale,
		Y: g.originY + north*g.scale,
	}
}

// LonLat returns p as WGS84 degrees. ok is false for a nil Georef.
func (g *Georef) LonLat(p core.Position) (LonLat, bool) {
	if g == nil {
		return LonLat{}, false
	}
	xy := g.Mercator(p)
	lon, lat, _ := g.toWGS84(xy.X, xy.Y, 0)
	return LonLat{Longitude: lon, Latitude: lat}, true
}

// Point returns p as a geometry point. Non-finite positions are an error.
func (g *Georef) Point(p core.Position) (geom.Point, error) {
	return geom.NewPoint(geom.Coordinates{XY: g.Mercator(p), Type: geom.DimXY})
}

// Line returns a line string through the given positions. Fewer than two
// positions give an empty line string; repeated or non-finite positions are
// an error.
func (g *Georef) Line(ps ...core.Position) (geom.LineString, error) {
	if len(ps) < 2 {
		return geom.LineString{}, nil
	}
	flat := make([]float64, 0, 2*len(ps))
	for _, p := range ps {
		xy := g.Mercator(p)
		flat = append(flat, xy.X, xy.Y)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
}

// Coords3857From4326 creates a point in EPSG:3857 from WGS84 degrees.
func Coords3857From4326(longitude, latitude float64) (geom.Point, error) {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ := f(longitude, latitude, 0)
	return geom.NewPoint(geom.Coordinates{XY: geom.XY{X: x, Y: y}, Type: geom.DimXY})
}
