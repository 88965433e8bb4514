// Package zones turns GeoJSON zone datasets into map layer items.
//
// Every feature becomes one [Item]: a flat [lat, lon] vertex list the
// browser map draws as a polygon, a tooltip label, the feature properties
// pre-formatted for the popup and a constant per-dataset style. Items are
// built once at startup and never mutated afterwards.
package zones

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-zones/internal/config"
)

// Stroke weight shared by every zone polygon.
const strokeWeight = 0.1

var (
	ErrNotFeatureCollection = errors.New("not a GeoJSON FeatureCollection")
	ErrUnsupportedGeometry  = errors.New("unsupported geometry")
	ErrMissingProperty      = errors.New("missing property")
)

// LatLng is a vertex in the axis order the browser map expects.
type LatLng [2]float64

// Property is a feature property formatted for display.
type Property struct {
	Key   string `json:"key" doc:"Property name"`
	Value string `json:"value" doc:"Property value as text"`
}

// Style is the constant per-dataset polygon styling.
type Style struct {
	Color       string  `json:"color" doc:"Stroke and fill color (CSS)"`
	FillOpacity float64 `json:"fillOpacity" doc:"Fill opacity"`
	Weight      float64 `json:"weight" doc:"Stroke weight"`
	Stroke      bool    `json:"stroke" doc:"Whether the outline is drawn"`
}

// Item is one renderable polygon.
type Item struct {
	Positions  []LatLng   `json:"positions" doc:"Vertices as [lat, lon], all rings concatenated"`
	Label      string     `json:"label" doc:"Tooltip text"`
	Properties []Property `json:"properties" doc:"Feature properties in file order"`
	Popup      []string   `json:"popup" doc:"Popup lines, one 'key : value' per property"`
	Center     LatLng     `json:"center" doc:"Planar centroid as [lat, lon]"`
	Style      Style      `json:"style"`

	// Geometry is the source geometry in lon/lat order, kept for vector tiles.
	Geometry orb.Geometry `json:"-"`
}

// Group is the full set of items of one dataset.
type Group struct {
	ID     string    `json:"id" doc:"Dataset identifier"`
	Label  string    `json:"label" doc:"Dataset label"`
	Items  []Item    `json:"items" doc:"Polygons in file order"`
	Bounds [2]LatLng `json:"bounds" doc:"South-west and north-east corners"`
}

// NewGroup wraps the items of a dataset and computes their bounds.
func NewGroup(ds config.Dataset, items []Item) Group {
	g := Group{ID: ds.ID, Label: ds.Label, Items: items}
	if g.Label == "" {
		g.Label = ds.ID
	}

	var (
		bound orb.Bound
		found bool
	)
	for _, it := range items {
		if it.Geometry == nil {
			continue
		}
		if !found {
			bound, found = it.Geometry.Bound(), true
			continue
		}
		bound = bound.Union(it.Geometry.Bound())
	}
	if found {
		g.Bounds = [2]LatLng{toLatLng(bound.Min), toLatLng(bound.Max)}
	}
	return g
}

// LoadError reports a dataset that could not be loaded.
type LoadError struct {
	Dataset string
	Path    string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading dataset %q from %s: %v", e.Dataset, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func toLatLng(p orb.Point) LatLng {
	return LatLng{p.Lat(), p.Lon()}
}
