package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joeblew999/plat-zones/internal/config"
	"github.com/joeblew999/plat-zones/internal/layers"
	"github.com/joeblew999/plat-zones/internal/zones"
)

var (
	ErrUnknownMap     = errors.New("unknown map")
	ErrUnknownDataset = errors.New("unknown dataset")
)

// MapService owns the catalogs of every configured map. It is built once
// at startup; all methods are read-only.
type MapService struct {
	dataDir  string
	catalogs []*layers.Catalog
	byID     map[string]*layers.Catalog
}

// NewMapService loads the datasets of every map in cfg from dataDir. Any
// dataset that fails to load fails the whole service.
func NewMapService(cfg config.Config, dataDir string) (*MapService, error) {
	s := &MapService{
		dataDir: dataDir,
		byID:    make(map[string]*layers.Catalog, len(cfg.Maps)),
	}
	for _, m := range cfg.Maps {
		groups, err := zones.LoadAll(m.Datasets, dataDir)
		if err != nil {
			return nil, fmt.Errorf("map %q: %w", m.ID, err)
		}
		for _, g := range groups {
			slog.Info("dataset loaded", "map", m.ID, "dataset", g.ID, "features", len(g.Items))
		}
		if err := s.add(m, groups); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewMapServiceFromGroups builds the service from already loaded groups,
// keyed by map id.
func NewMapServiceFromGroups(cfg config.Config, groups map[string][]zones.Group) (*MapService, error) {
	s := &MapService{byID: make(map[string]*layers.Catalog, len(cfg.Maps))}
	for _, m := range cfg.Maps {
		if err := s.add(m, groups[m.ID]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *MapService) add(m config.Map, groups []zones.Group) error {
	c, err := layers.NewCatalog(m, groups)
	if err != nil {
		return err
	}
	s.catalogs = append(s.catalogs, c)
	s.byID[m.ID] = c
	return nil
}

// List returns a summary of every map in configuration order.
func (s *MapService) List() []MapSummary {
	out := make([]MapSummary, 0, len(s.catalogs))
	for _, c := range s.catalogs {
		m := c.Config()
		features := 0
		for _, g := range c.Groups() {
			features += len(g.Items)
		}
		out = append(out, MapSummary{
			ID:       m.ID,
			Title:    m.Title,
			Datasets: len(m.Datasets),
			Overlays: len(m.Overlays),
			Features: features,
			Page:     PagePath(m.ID),
		})
	}
	return out
}

// Catalogs returns the catalogs in configuration order.
func (s *MapService) Catalogs() []*layers.Catalog {
	return s.catalogs
}

// Catalog returns the catalog of a map.
func (s *MapService) Catalog(id string) (*layers.Catalog, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownMap, id)
	}
	return c, nil
}

// Get returns the full profile of a map.
func (s *MapService) Get(id string) (MapDetail, error) {
	c, err := s.Catalog(id)
	if err != nil {
		return MapDetail{}, err
	}
	counts := make(map[string]int, len(c.Groups()))
	for _, g := range c.Groups() {
		counts[g.ID] = len(g.Items)
	}
	return MapDetail{
		Map:      c.Config(),
		Initial:  c.DefaultState(),
		Counts:   counts,
		Page:     PagePath(id),
		TilesURL: "/tiles/" + id + "/{dataset}/{z}/{x}/{y}",
	}, nil
}

// Resolve validates st and returns the layers to draw.
func (s *MapService) Resolve(id string, st layers.State) ([]layers.Layer, error) {
	c, err := s.Catalog(id)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(st); err != nil {
		return nil, err
	}
	return c.Resolve(st), nil
}

// Group returns the loaded dataset of a map.
func (s *MapService) Group(mapID, datasetID string) (zones.Group, error) {
	c, err := s.Catalog(mapID)
	if err != nil {
		return zones.Group{}, err
	}
	g, ok := c.Group(datasetID)
	if !ok {
		return zones.Group{}, fmt.Errorf("%w %q", ErrUnknownDataset, datasetID)
	}
	return g, nil
}

// DataDir returns the directory dataset paths are resolved against.
func (s *MapService) DataDir() string {
	return s.dataDir
}

// PagePath is the browser page of a map.
func PagePath(id string) string {
	return "/maps/" + id
}
