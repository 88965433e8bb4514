package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-zones/internal/config"
	"github.com/joeblew999/plat-zones/internal/layers"
	"github.com/joeblew999/plat-zones/internal/zones"
)

const square = `{"type":"FeatureCollection","features":[
	{"type":"Feature","properties":{"k1":"Rouen","k2":"Pasteur"},
	 "geometry":{"type":"Polygon","coordinates":[[[1,49],[2,49],[2,50],[1,49]]]}},
	{"type":"Feature","properties":{"k1":"Elbeuf","k2":"Puchot"},
	 "geometry":{"type":"Polygon","coordinates":[[[1,48],[2,48],[2,49],[1,48]]]}}]}`

func testConfig() config.Config {
	ds := func(id string) config.Dataset {
		return config.Dataset{ID: id, Label: id, Path: id + ".geojson", Color: "red", Prefix: "[" + id + "] ", Opacity: 0.5, LabelKeys: [2]string{"k1", "k2"}}
	}
	return config.Config{Maps: []config.Map{{
		ID:             "demo",
		Title:          "Demo",
		BasemapOpacity: 0.8,
		Basemaps:       []config.Basemap{{ID: "osm", Label: "OSM", URL: "https://tile/{z}/{x}/{y}.png"}},
		Overlays:       []config.Overlay{{ID: "flood", Label: "Flood", URL: "https://wms", Layers: "F", Opacity: 0.4}},
		Datasets:       []config.Dataset{ds("a"), ds("b")},
		Defaults:       config.Defaults{Basemap: "osm", Datasets: []string{"b"}},
	}}}
}

func writeData(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(square), 0o644))
	}
	return dir
}

func TestNewMapService(t *testing.T) {
	dir := writeData(t, "a.geojson", "b.geojson")
	svc, err := NewMapService(testConfig(), dir)
	require.NoError(t, err)

	list := svc.List()
	require.Len(t, list, 1)
	assert.Equal(t, MapSummary{ID: "demo", Title: "Demo", Datasets: 2, Overlays: 1, Features: 4, Page: "/maps/demo"}, list[0])

	detail, err := svc.Get("demo")
	require.NoError(t, err)
	assert.Equal(t, layers.State{Basemap: "osm", Datasets: []string{"b"}}, detail.Initial)
	assert.Equal(t, map[string]int{"a": 2, "b": 2}, detail.Counts)
	assert.Equal(t, "/tiles/demo/{dataset}/{z}/{x}/{y}", detail.TilesURL)
	assert.Equal(t, dir, svc.DataDir())
}

func TestNewMapServiceFailsOnMissingDataset(t *testing.T) {
	dir := writeData(t, "a.geojson")
	_, err := NewMapService(testConfig(), dir)
	require.Error(t, err)

	var le *zones.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "b", le.Dataset)
	assert.Equal(t, filepath.Join(dir, "b.geojson"), le.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolve(t *testing.T) {
	svc, err := NewMapService(testConfig(), writeData(t, "a.geojson", "b.geojson"))
	require.NoError(t, err)

	got, err := svc.Resolve("demo", layers.State{Basemap: "osm", Overlays: []string{"flood"}, Datasets: []string{"b", "a"}})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, []string{"basemap", "flood", "a", "b"}, []string{got[0].ID, got[1].ID, got[2].ID, got[3].ID})
	assert.Equal(t, "[a] Rouen : Pasteur", got[2].Items[0].Label)

	_, err = svc.Resolve("demo", layers.State{Basemap: "nope"})
	assert.ErrorIs(t, err, layers.ErrInvalidState)

	_, err = svc.Resolve("other", layers.State{Basemap: "osm"})
	assert.ErrorIs(t, err, ErrUnknownMap)
}

func TestGroup(t *testing.T) {
	svc, err := NewMapService(testConfig(), writeData(t, "a.geojson", "b.geojson"))
	require.NoError(t, err)

	g, err := svc.Group("demo", "a")
	require.NoError(t, err)
	assert.Len(t, g.Items, 2)

	_, err = svc.Group("demo", "zzz")
	assert.ErrorIs(t, err, ErrUnknownDataset)
	_, err = svc.Group("zzz", "a")
	assert.ErrorIs(t, err, ErrUnknownMap)
}

func TestSourceServiceList(t *testing.T) {
	dir := writeData(t, "a.geojson", "b.geojson")
	svc, err := NewMapService(testConfig(), dir)
	require.NoError(t, err)

	files, err := NewSourceService(svc).List()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "demo", files[0].Map)
	assert.Equal(t, "a", files[0].Dataset)
	assert.Equal(t, "a.geojson", files[0].Name)
	assert.Equal(t, 2, files[0].Features)
	assert.Equal(t, formatSize(int64(len(square))), files[0].Size)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "2.0 MB", formatSize(2<<20))
}

func TestTileService(t *testing.T) {
	dir := writeData(t, "a.geojson", "b.geojson")
	maps, err := NewMapService(testConfig(), dir)
	require.NoError(t, err)
	tiles := NewTileService(maps)

	data, err := tiles.Tile("demo", "a", 0, 0, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	_, err = tiles.Tile("nope", "a", 0, 0, 0)
	assert.ErrorIs(t, err, ErrUnknownMap)
}
