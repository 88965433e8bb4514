// Package vtile renders zone datasets as Mapbox Vector Tiles on demand.
//
// Each dataset becomes one MVT layer named after the dataset id. Features
// carry the tooltip label and their display properties. Tiles are cut from
// the geometries loaded at startup; nothing is cached.
package vtile

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"github.com/joeblew999/plat-zones/internal/zones"
)

// MaxZoom is the deepest zoom level served.
const MaxZoom = 18

var (
	ErrUnknownDataset = errors.New("unknown dataset")
	ErrInvalidTile    = errors.New("invalid tile")
)

// Renderer cuts tiles from the groups of one map.
type Renderer struct {
	datasets map[string][]*geojson.Feature
}

// New indexes the items of every group.
func New(groups []zones.Group) *Renderer {
	r := &Renderer{datasets: make(map[string][]*geojson.Feature, len(groups))}
	for _, g := range groups {
		features := make([]*geojson.Feature, 0, len(g.Items))
		for _, it := range g.Items {
			if it.Geometry == nil {
				continue
			}
			f := geojson.NewFeature(it.Geometry)
			f.Properties["label"] = it.Label
			for _, p := range it.Properties {
				if p.Key == "label" {
					continue
				}
				f.Properties[p.Key] = p.Value
			}
			features = append(features, f)
		}
		r.datasets[g.ID] = features
	}
	return r
}

// Tile returns the gzipped MVT of a dataset at z/x/y, or nil when no
// feature reaches the tile.
func (r *Renderer) Tile(dataset string, z, x, y uint32) ([]byte, error) {
	features, ok := r.datasets[dataset]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownDataset, dataset)
	}
	if z > MaxZoom || x >= 1<<z || y >= 1<<z {
		return nil, fmt.Errorf("%w %d/%d/%d", ErrInvalidTile, z, x, y)
	}

	tile := maptile.New(x, y, maptile.Zoom(z))
	bound := tile.Bound()

	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		if !intersects(f.Geometry, bound) {
			continue
		}
		// Clip and ProjectToTile rewrite coordinates in place.
		clone := geojson.NewFeature(orb.Clone(f.Geometry))
		for k, v := range f.Properties {
			clone.Properties[k] = v
		}
		fc.Append(clone)
	}
	if len(fc.Features) == 0 {
		return nil, nil
	}

	layer := mvt.NewLayer(dataset, fc)
	if eps := simplifyEpsilon(tile.Z); eps > 0 {
		layer.Simplify(simplify.DouglasPeucker(eps))
	}
	layer.Clip(bound)
	layer.ProjectToTile(tile)
	layer.RemoveEmpty(0.5, 0.5)
	if len(layer.Features) == 0 {
		return nil, nil
	}

	data, err := mvt.MarshalGzipped(mvt.Layers{layer})
	if err != nil {
		return nil, fmt.Errorf("encoding tile %d/%d/%d: %w", z, x, y, err)
	}
	return data, nil
}

// intersects reports whether a zone polygon reaches the tile, beyond a
// bounding box overlap.
func intersects(g orb.Geometry, tile orb.Bound) bool {
	if !g.Bound().Intersects(tile) {
		return false
	}

	switch g := g.(type) {
	case orb.Polygon:
		for _, ring := range g {
			for _, p := range ring {
				if tile.Contains(p) {
					return true
				}
			}
		}
		corners := []orb.Point{
			tile.Min,
			{tile.Max[0], tile.Min[1]},
			tile.Max,
			{tile.Min[0], tile.Max[1]},
			tile.Center(),
		}
		for _, c := range corners {
			if planar.PolygonContains(g, c) {
				return true
			}
		}
		for _, ring := range g {
			for i := 1; i < len(ring); i++ {
				if segmentCrosses(ring[i-1], ring[i], corners[:4]) {
					return true
				}
			}
		}
		return false
	case orb.MultiPolygon:
		for _, poly := range g {
			if intersects(poly, tile) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// segmentCrosses reports whether segment ab crosses an edge of the closed
// box outline given as four corners.
func segmentCrosses(a, b orb.Point, box []orb.Point) bool {
	for i := range box {
		if segmentsIntersect(a, b, box[i], box[(i+1)%len(box)]) {
			return true
		}
	}
	return false
}

func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := orient(q1, q2, p1)
	d2 := orient(q1, q2, p2)
	d3 := orient(p1, p2, q1)
	d4 := orient(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

// orient is the cross product of ab and ac.
func orient(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// onSegment reports whether c, collinear with ab, lies within ab.
func onSegment(a, b, c orb.Point) bool {
	return min(a[0], b[0]) <= c[0] && c[0] <= max(a[0], b[0]) &&
		min(a[1], b[1]) <= c[1] && c[1] <= max(a[1], b[1])
}

// simplifyEpsilon is the Douglas-Peucker tolerance in degrees per zoom.
func simplifyEpsilon(z maptile.Zoom) float64 {
	switch {
	case z >= 14:
		return 0
	case z >= 10:
		return 0.00001
	case z >= 6:
		return 0.0001
	default:
		return 0.001
	}
}
