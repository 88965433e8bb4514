package service

import (
	"fmt"

	"github.com/joeblew999/plat-zones/internal/vtile"
)

// TileService serves vector tiles cut from the loaded datasets.
type TileService struct {
	maps      *MapService
	renderers map[string]*vtile.Renderer
}

// NewTileService indexes the groups of every map for tiling.
func NewTileService(maps *MapService) *TileService {
	s := &TileService{
		maps:      maps,
		renderers: make(map[string]*vtile.Renderer, len(maps.Catalogs())),
	}
	for _, c := range maps.Catalogs() {
		s.renderers[c.ID()] = vtile.New(c.Groups())
	}
	return s
}

// Tile returns the gzipped MVT of one dataset, or nil when the tile is empty.
func (s *TileService) Tile(mapID, datasetID string, z, x, y uint32) ([]byte, error) {
	r, ok := s.renderers[mapID]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownMap, mapID)
	}
	return r.Tile(datasetID, z, x, y)
}
