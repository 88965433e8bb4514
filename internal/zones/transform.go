package zones

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/joeblew999/plat-zones/internal/config"
)

type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

// Geometry and properties stay raw: geometry goes through orb, properties
// are walked token by token to keep their file order.
type rawFeature struct {
	Geometry   json.RawMessage `json:"geometry"`
	Properties json.RawMessage `json:"properties"`
}

// Load reads and transforms the dataset file. Relative paths resolve against dir.
func Load(ds config.Dataset, dir string) (Group, error) {
	path := ds.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Group{}, &LoadError{Dataset: ds.ID, Path: path, Err: err}
	}
	items, err := Transform(ds, data)
	if err != nil {
		return Group{}, &LoadError{Dataset: ds.ID, Path: path, Err: err}
	}
	return NewGroup(ds, items), nil
}

// LoadAll loads every dataset in order. The first failure aborts the load.
func LoadAll(datasets []config.Dataset, dir string) ([]Group, error) {
	groups := make([]Group, 0, len(datasets))
	for _, ds := range datasets {
		g, err := Load(ds, dir)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// Transform converts GeoJSON content into one item per feature, in order.
func Transform(ds config.Dataset, data []byte) ([]Item, error) {
	var fc rawCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing geojson: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%w: type %q", ErrNotFeatureCollection, fc.Type)
	}

	style := Style{
		Color:       ds.Color,
		FillOpacity: ds.Opacity,
		Weight:      strokeWeight,
		Stroke:      true,
	}

	items := make([]Item, 0, len(fc.Features))
	for i, f := range fc.Features {
		it, err := transformFeature(ds, f)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		it.Style = style
		items = append(items, it)
	}
	return items, nil
}

func transformFeature(ds config.Dataset, f rawFeature) (Item, error) {
	geom, err := decodeGeometry(f.Geometry)
	if err != nil {
		return Item{}, err
	}
	positions, err := Flatten(geom)
	if err != nil {
		return Item{}, err
	}

	props, err := decodeProperties(f.Properties)
	if err != nil {
		return Item{}, err
	}

	first, ok := lookup(props, ds.LabelKeys[0])
	if !ok {
		return Item{}, fmt.Errorf("%w %q", ErrMissingProperty, ds.LabelKeys[0])
	}
	second, ok := lookup(props, ds.LabelKeys[1])
	if !ok {
		return Item{}, fmt.Errorf("%w %q", ErrMissingProperty, ds.LabelKeys[1])
	}

	popup := make([]string, len(props))
	for i, p := range props {
		popup[i] = p.Key + " : " + p.Value
	}

	center, _ := planar.CentroidArea(geom)

	return Item{
		Positions:  positions,
		Label:      ds.Prefix + first + " : " + second,
		Properties: props,
		Popup:      popup,
		Center:     toLatLng(center),
		Geometry:   geom,
	}, nil
}

func decodeGeometry(raw json.RawMessage) (orb.Geometry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: null geometry", ErrUnsupportedGeometry)
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing geometry: %w", err)
	}
	if g.Geometry() == nil {
		return nil, fmt.Errorf("%w: empty geometry", ErrUnsupportedGeometry)
	}
	return g.Geometry(), nil
}

// Flatten lists every vertex of a polygon or multipolygon as [lat, lon].
// Rings are concatenated in order with no distinction between exterior
// rings and holes.
func Flatten(g orb.Geometry) ([]LatLng, error) {
	switch g := g.(type) {
	case orb.Polygon:
		return appendRings(nil, g), nil
	case orb.MultiPolygon:
		var out []LatLng
		for _, poly := range g {
			out = appendRings(out, poly)
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("%w: no geometry", ErrUnsupportedGeometry)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
	}
}

func appendRings(out []LatLng, poly orb.Polygon) []LatLng {
	for _, ring := range poly {
		for _, p := range ring {
			out = append(out, toLatLng(p))
		}
	}
	return out
}
