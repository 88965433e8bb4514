// Package layers resolves the control state of a map page into the ordered
// list of layers the browser map should draw.
package layers

import (
	"errors"
	"fmt"
	"slices"

	"github.com/joeblew999/plat-zones/internal/config"
	"github.com/joeblew999/plat-zones/internal/zones"
)

// ErrInvalidState wraps selections that name unknown controls.
var ErrInvalidState = errors.New("invalid layer state")

// Kind tags a resolved layer.
type Kind string

const (
	KindTile  Kind = "tile"
	KindWMS   Kind = "wms"
	KindGroup Kind = "group"
)

// State is the current selection of the page controls.
type State struct {
	Basemap  string   `json:"basemap" doc:"Selected basemap id" example:"positron"`
	Overlays []string `json:"overlays,omitempty" doc:"Enabled WMS overlay ids"`
	Datasets []string `json:"datasets,omitempty" doc:"Enabled dataset ids"`
}

// WMSParams are the WMS request parameters of an overlay layer.
type WMSParams struct {
	Layers      string `json:"layers" doc:"WMS LAYERS parameter"`
	Format      string `json:"format" doc:"WMS FORMAT parameter"`
	Transparent bool   `json:"transparent" doc:"WMS TRANSPARENT parameter"`
	Legend      string `json:"legend" doc:"GetLegendGraphic URL"`
}

// Layer is one entry of the resolved layer list.
type Layer struct {
	ID      string       `json:"id" doc:"Layer id; basemap layers use 'basemap'"`
	Kind    Kind         `json:"kind" enum:"tile,wms,group" doc:"Layer kind"`
	Label   string       `json:"label" doc:"Display label"`
	URL     string       `json:"url,omitempty" doc:"Tile URL template or WMS endpoint"`
	Opacity float64      `json:"opacity" doc:"Layer opacity"`
	WMS     *WMSParams   `json:"wms,omitempty" doc:"WMS parameters (kind=wms)"`
	Items   []zones.Item `json:"items,omitempty" doc:"Polygons (kind=group)"`
}

// Catalog holds everything a map can draw. It is built once at startup and
// only read afterwards, so one Catalog serves concurrent requests.
type Catalog struct {
	m        config.Map
	basemaps map[string]Layer
	overlays []Layer
	groups   []Layer
	sources  []zones.Group
}

// NewCatalog pre-builds the layers of a map. groups must contain one group
// per dataset of m.
func NewCatalog(m config.Map, groups []zones.Group) (*Catalog, error) {
	c := &Catalog{
		m:        m,
		basemaps: make(map[string]Layer, len(m.Basemaps)),
	}

	for _, b := range m.Basemaps {
		c.basemaps[b.ID] = Layer{
			ID:      "basemap",
			Kind:    KindTile,
			Label:   b.Label,
			URL:     b.URL,
			Opacity: m.BasemapOpacity,
		}
	}
	if _, ok := c.basemaps[m.Defaults.Basemap]; !ok {
		return nil, fmt.Errorf("map %q: default basemap %q is not defined", m.ID, m.Defaults.Basemap)
	}

	for _, o := range m.Overlays {
		c.overlays = append(c.overlays, Layer{
			ID:      o.ID,
			Kind:    KindWMS,
			Label:   o.Label,
			URL:     o.URL,
			Opacity: o.Opacity,
			WMS: &WMSParams{
				Layers:      o.Layers,
				Format:      o.Format,
				Transparent: o.Transparent,
				Legend:      o.LegendURL(),
			},
		})
	}

	byID := make(map[string]zones.Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}
	for _, ds := range m.Datasets {
		g, ok := byID[ds.ID]
		if !ok {
			return nil, fmt.Errorf("map %q: dataset %q was not loaded", m.ID, ds.ID)
		}
		label := ds.Label
		if label == "" {
			label = ds.ID
		}
		c.groups = append(c.groups, Layer{
			ID:      ds.ID,
			Kind:    KindGroup,
			Label:   label,
			Opacity: ds.Opacity,
			Items:   g.Items,
		})
		c.sources = append(c.sources, g)
	}
	return c, nil
}

// ID returns the map id.
func (c *Catalog) ID() string {
	return c.m.ID
}

// Config returns the map profile the catalog was built from.
func (c *Catalog) Config() config.Map {
	return c.m
}

// Groups returns the loaded datasets in render order.
func (c *Catalog) Groups() []zones.Group {
	return c.sources
}

// Group returns the loaded dataset with the given id.
func (c *Catalog) Group(id string) (zones.Group, bool) {
	for _, g := range c.sources {
		if g.ID == id {
			return g, true
		}
	}
	return zones.Group{}, false
}

// DefaultState is the selection a fresh page starts with.
func (c *Catalog) DefaultState() State {
	return State{
		Basemap:  c.m.Defaults.Basemap,
		Overlays: slices.Clone(c.m.Defaults.Overlays),
		Datasets: slices.Clone(c.m.Defaults.Datasets),
	}
}

// Validate reports selections the page controls cannot produce.
func (c *Catalog) Validate(s State) error {
	if _, ok := c.basemaps[s.Basemap]; !ok {
		return fmt.Errorf("%w: unknown basemap %q", ErrInvalidState, s.Basemap)
	}
	for _, id := range s.Overlays {
		if !hasLayer(c.overlays, id) {
			return fmt.Errorf("%w: unknown overlay %q", ErrInvalidState, id)
		}
	}
	for _, id := range s.Datasets {
		if !hasLayer(c.groups, id) {
			return fmt.Errorf("%w: unknown dataset %q", ErrInvalidState, id)
		}
	}
	return nil
}

// Resolve returns the layers to draw for s: the basemap, then the selected
// overlays, then the selected datasets. Overlays and datasets keep the
// profile order whatever the selection order. An unknown basemap falls back
// to the default one and unknown ids are ignored; use Validate to reject them.
func (c *Catalog) Resolve(s State) []Layer {
	base, ok := c.basemaps[s.Basemap]
	if !ok {
		base = c.basemaps[c.m.Defaults.Basemap]
	}

	out := make([]Layer, 0, 1+len(c.overlays)+len(c.groups))
	out = append(out, base)
	for _, l := range c.overlays {
		if slices.Contains(s.Overlays, l.ID) {
			out = append(out, l)
		}
	}
	for _, l := range c.groups {
		if slices.Contains(s.Datasets, l.ID) {
			out = append(out, l)
		}
	}
	return out
}

func hasLayer(ls []Layer, id string) bool {
	return slices.ContainsFunc(ls, func(l Layer) bool { return l.ID == id })
}
