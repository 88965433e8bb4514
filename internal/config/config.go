// Package config holds the map profiles served by plat-zones.
//
// A profile ([Map]) names its basemaps, WMS overlays and GeoJSON datasets.
// The same struct tags feed the YAML loader and Huma (OpenAPI docs), so
// the types below are the single source of truth for both.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the root of a profile file.
type Config struct {
	Maps []Map `yaml:"maps" json:"maps"`
}

// Map is one map application: a basemap selector, optional flood overlays
// and toggleable zone datasets.
type Map struct {
	ID             string     `yaml:"id" json:"id" doc:"Map identifier" example:"qpv"`
	Title          string     `yaml:"title" json:"title" doc:"Page title"`
	Center         [2]float64 `yaml:"center" json:"center" doc:"Initial view center [lat, lon]"`
	Zoom           int        `yaml:"zoom" json:"zoom" minimum:"0" maximum:"22" doc:"Initial zoom level"`
	BasemapOpacity float64    `yaml:"basemapOpacity" json:"basemapOpacity" minimum:"0" maximum:"1" doc:"Opacity of the basemap tile layer"`
	Basemaps       []Basemap  `yaml:"basemaps" json:"basemaps" doc:"Selectable basemaps"`
	OverlaysTitle  string     `yaml:"overlaysTitle,omitempty" json:"overlaysTitle,omitempty" doc:"Heading of the overlay checklist"`
	Overlays       []Overlay  `yaml:"overlays,omitempty" json:"overlays" doc:"WMS overlays in render order"`
	DatasetsTitle  string     `yaml:"datasetsTitle,omitempty" json:"datasetsTitle,omitempty" doc:"Heading of the dataset checklist"`
	Datasets       []Dataset  `yaml:"datasets" json:"datasets" doc:"Zone datasets in render order"`
	Defaults       Defaults   `yaml:"defaults" json:"defaults" doc:"Initial control state"`
}

// Basemap is a background XYZ/WMTS tile layer.
type Basemap struct {
	ID    string `yaml:"id" json:"id" doc:"Basemap identifier" example:"positron"`
	Label string `yaml:"label" json:"label" doc:"Radio label"`
	URL   string `yaml:"url" json:"url" doc:"Tile URL template with {z}/{x}/{y}"`
}

// Overlay is a raster WMS layer drawn above the basemap.
type Overlay struct {
	ID          string  `yaml:"id" json:"id" doc:"Overlay identifier" example:"eaipsm"`
	Label       string  `yaml:"label" json:"label" doc:"Checklist label"`
	URL         string  `yaml:"url" json:"url" doc:"WMS endpoint"`
	Layers      string  `yaml:"layers" json:"layers" doc:"WMS LAYERS parameter" example:"EAIP_SM"`
	Format      string  `yaml:"format" json:"format" doc:"WMS FORMAT parameter" example:"image/png"`
	Transparent bool    `yaml:"transparent" json:"transparent" doc:"WMS TRANSPARENT parameter"`
	Opacity     float64 `yaml:"opacity" json:"opacity" minimum:"0" maximum:"1" doc:"Layer opacity"`
}

// Dataset describes one GeoJSON file rendered as a polygon layer group.
type Dataset struct {
	ID        string    `yaml:"id" json:"id" doc:"Dataset identifier" example:"qpv"`
	Label     string    `yaml:"label" json:"label" doc:"Checklist label" example:"QPV"`
	Path      string    `yaml:"path" json:"path" doc:"GeoJSON file, relative to the data directory"`
	Color     string    `yaml:"color" json:"color" doc:"Stroke and fill color (CSS)" example:"yellow"`
	Prefix    string    `yaml:"prefix" json:"prefix" doc:"Tooltip prefix" example:"[QPV] "`
	Opacity   float64   `yaml:"opacity" json:"opacity" minimum:"0" maximum:"1" doc:"Fill opacity"`
	LabelKeys [2]string `yaml:"labelKeys" json:"labelKeys" doc:"Property keys joined into the tooltip"`
}

// Defaults is the control state a fresh page starts with.
type Defaults struct {
	Basemap  string   `yaml:"basemap" json:"basemap" doc:"Selected basemap"`
	Overlays []string `yaml:"overlays,omitempty" json:"overlays" doc:"Enabled overlays"`
	Datasets []string `yaml:"datasets,omitempty" json:"datasets" doc:"Enabled datasets"`
}

// Default returns the built-in profiles.
func Default() (Config, error) {
	return Parse(defaultsYAML)
}

// Load reads profiles from a YAML file. An empty path means the built-in profiles.
func Load(path string) (Config, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML profile document.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Map returns the profile with the given id.
func (c Config) Map(id string) (Map, bool) {
	for _, m := range c.Maps {
		if m.ID == id {
			return m, true
		}
	}
	return Map{}, false
}

// Validate checks ids are unique and that defaults reference known entries.
func (c Config) Validate() error {
	if len(c.Maps) == 0 {
		return errors.New("config: no maps defined")
	}
	seen := map[string]bool{}
	var errs []error
	for _, m := range c.Maps {
		if m.ID == "" {
			errs = append(errs, errors.New("config: map without id"))
			continue
		}
		if seen[m.ID] {
			errs = append(errs, fmt.Errorf("config: duplicate map %q", m.ID))
		}
		seen[m.ID] = true
		if err := m.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("config: map %q: %w", m.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks a single profile.
func (m Map) Validate() error {
	var errs []error

	if len(m.Basemaps) == 0 {
		errs = append(errs, errors.New("no basemaps"))
	}
	if !inRange(m.BasemapOpacity) {
		errs = append(errs, fmt.Errorf("basemapOpacity %v out of [0,1]", m.BasemapOpacity))
	}

	basemaps := map[string]bool{}
	for _, b := range m.Basemaps {
		if b.ID == "" || b.URL == "" {
			errs = append(errs, fmt.Errorf("basemap %q: id and url are required", b.ID))
		}
		if basemaps[b.ID] {
			errs = append(errs, fmt.Errorf("duplicate basemap %q", b.ID))
		}
		basemaps[b.ID] = true
	}

	overlays := map[string]bool{}
	for _, o := range m.Overlays {
		if o.ID == "" || o.URL == "" || o.Layers == "" {
			errs = append(errs, fmt.Errorf("overlay %q: id, url and layers are required", o.ID))
		}
		if overlays[o.ID] {
			errs = append(errs, fmt.Errorf("duplicate overlay %q", o.ID))
		}
		if !inRange(o.Opacity) {
			errs = append(errs, fmt.Errorf("overlay %q: opacity %v out of [0,1]", o.ID, o.Opacity))
		}
		overlays[o.ID] = true
	}

	datasets := map[string]bool{}
	for _, d := range m.Datasets {
		if err := d.Validate(); err != nil {
			errs = append(errs, err)
		}
		if datasets[d.ID] {
			errs = append(errs, fmt.Errorf("duplicate dataset %q", d.ID))
		}
		datasets[d.ID] = true
	}

	if !basemaps[m.Defaults.Basemap] {
		errs = append(errs, fmt.Errorf("default basemap %q is not defined", m.Defaults.Basemap))
	}
	for _, id := range m.Defaults.Overlays {
		if !overlays[id] {
			errs = append(errs, fmt.Errorf("default overlay %q is not defined", id))
		}
	}
	for _, id := range m.Defaults.Datasets {
		if !datasets[id] {
			errs = append(errs, fmt.Errorf("default dataset %q is not defined", id))
		}
	}
	return errors.Join(errs...)
}

// Validate checks a dataset has everything the loader needs.
func (d Dataset) Validate() error {
	var missing []string
	if d.ID == "" {
		missing = append(missing, "id")
	}
	if d.Path == "" {
		missing = append(missing, "path")
	}
	if d.LabelKeys[0] == "" || d.LabelKeys[1] == "" {
		missing = append(missing, "labelKeys")
	}
	if len(missing) > 0 {
		return fmt.Errorf("dataset %q: missing %s", d.ID, strings.Join(missing, ", "))
	}
	if !inRange(d.Opacity) {
		return fmt.Errorf("dataset %q: opacity %v out of [0,1]", d.ID, d.Opacity)
	}
	return nil
}

// Dataset returns the dataset with the given id.
func (m Map) Dataset(id string) (Dataset, bool) {
	for _, d := range m.Datasets {
		if d.ID == id {
			return d, true
		}
	}
	return Dataset{}, false
}

func inRange(v float64) bool {
	return v >= 0 && v <= 1
}
